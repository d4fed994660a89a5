package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTextNotConfigured(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	c := NewGeminiClient(server.URL, "", "", server.Client())

	_, err := c.GenerateText(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Zero(t, atomic.LoadInt32(&calls), "no network call may happen without a credential")
}

func TestGenerateTextSuccessPassesThroughRawResponse(t *testing.T) {
	response := `{"candidates":[{"output":"Sow wheat in early November."}]}`

	var gotPath, gotAuth string
	var gotPayload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(response))
	}))
	defer server.Close()

	c := NewGeminiClient(server.URL, "", "test-key", server.Client())

	raw, err := c.GenerateText(context.Background(), []Message{
		{Role: RoleSystem, Content: "instructions"},
		{Role: RoleSystem, Content: "facts"},
		{Role: RoleUser, Content: "what should I sow?"},
	})
	require.NoError(t, err)

	assert.Equal(t, response, string(raw))
	assert.Equal(t, "/models/"+defaultGeminiModel+":generateText", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, float64(maxOutputTokens), gotPayload["maxOutputTokens"])

	prompt, ok := gotPayload["prompt"].(map[string]any)
	require.True(t, ok)
	messages, ok := prompt["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, messages, 3)
}

func TestGenerateTextUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"quota exhausted"}`))
	}))
	defer server.Close()

	c := NewGeminiClient(server.URL, "gemini-1.5-mini", "test-key", server.Client())

	_, err := c.GenerateText(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.Error(t, err)

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusTooManyRequests, upstream.StatusCode)
	assert.Contains(t, upstream.Body, "quota exhausted")
}
