package ai

import "context"

// Provider is the interface every LLM provider implementation must satisfy.
type Provider interface {
	// SendMessage sends a chat request to the provider and returns the
	// completed response. Returns an error if the provider call fails,
	// the context is cancelled, or the response cannot be decoded.
	SendMessage(ctx context.Context, request ChatRequest) (*ChatResponse, error)

	// IsStopMessage reports whether the response is a terminal completion
	// with no further tool calls expected.
	IsStopMessage(message *ChatResponse) bool
}
