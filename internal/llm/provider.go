// Package llm wraps the model vendors behind one Provider interface and
// adds retry, timeout and event logging around them.
package llm

import (
	"context"
	"encoding/json"
)

// Provider sends one prompt to a model.
type Provider interface {
	// Generate returns the model output. When req.Schema is set the output
	// is JSON that has been validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID is the model used when a request does not name one.
	ModelID() string
}

// Request is a single-turn prompt.
type Request struct {
	System   string
	Messages []Message

	// Model overrides the configured model. "flash" and "pro" are resolved
	// per provider; other names are sent as given.
	Model string

	// JSON asks for bare JSON without a schema. The caller parses leniently.
	JSON bool

	// Schema switches on the vendor's structured output and validation.
	// Without it Content is the raw text.
	Schema *Schema

	MaxTokens   int
	Temperature float64 // 0 leaves the vendor default
}

type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a JSON Schema sent with a request. Name is also the
// validation cache key, so two different definitions must not share one.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

type Response struct {
	Content json.RawMessage
	Usage   Usage

	// Model is the model that actually served the request.
	Model string

	// StopReason is one of "end", "max_tokens" or "error".
	StopReason string
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
