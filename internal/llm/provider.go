package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Message roles used in generation requests.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is a single role-tagged entry in a generation request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TextModel abstracts the text-generation backend so the orchestrator and
// tests do not depend on a concrete vendor. The response is the provider's
// raw structured output; this service never reshapes model output.
type TextModel interface {
	Name() string
	GenerateText(ctx context.Context, messages []Message) (json.RawMessage, error)
}

// ErrNotConfigured is returned when no API credential is available. It is
// checked before any network I/O is attempted.
var ErrNotConfigured = errors.New("llm api key not configured")

// UpstreamError reports a non-2xx response from the generation endpoint.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("llm upstream returned status %d: %s", e.StatusCode, e.Body)
}
