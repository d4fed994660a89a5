package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultGeminiBase  = "https://generativeai.googleapis.com/v1beta2"
	defaultGeminiModel = "gemini-1.5-mini"

	// Upper bound on generated output per request.
	maxOutputTokens = 800

	geminiRequestTimeout = 30 * time.Second
)

// GeminiClient calls the Gemini text-generation REST endpoint directly. The
// response body is handed back to callers unparsed, which is why the raw API
// is used rather than the official SDK.
type GeminiClient struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

func NewGeminiClient(baseURL, model, apiKey string, client *http.Client) *GeminiClient {
	if baseURL == "" {
		baseURL = defaultGeminiBase
	}
	if model == "" {
		model = defaultGeminiModel
	}
	if client == nil {
		client = &http.Client{Timeout: geminiRequestTimeout}
	}
	return &GeminiClient{
		baseURL: baseURL,
		model:   model,
		apiKey:  apiKey,
		client:  client,
	}
}

func (c *GeminiClient) Name() string {
	return "gemini"
}

// GenerateText sends the message sequence to the configured model and
// returns the provider's response body unmodified. Fails with
// ErrNotConfigured before any network call when no credential is set.
func (c *GeminiClient) GenerateText(ctx context.Context, messages []Message) (json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	payload := map[string]any{
		"prompt": map[string]any{
			"messages": messages,
		},
		"maxOutputTokens": maxOutputTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateText", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	return json.RawMessage(raw), nil
}
