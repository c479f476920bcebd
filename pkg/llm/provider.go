// Package llm is the completion-service collaborator. The rest of the
// pipeline only sees the Provider interface, so backends can be swapped
// without touching synthesis code.
package llm

import "context"

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// ChatRequest is a provider-agnostic completion request.
type ChatRequest struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
	JSONMode    bool // request JSON-formatted output
}

// ChatResponse is a provider-agnostic completion response.
type ChatResponse struct {
	Content string
	Model   string
}

// Provider is the interface all completion backends implement.
type Provider interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	Name() string
}
