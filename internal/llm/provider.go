// Package llm wraps chat-completion backends behind one Provider interface.
// The ai insight analyzer is its only consumer.
package llm

import "context"

// Provider answers one prompt. Implementations are safe for concurrent use.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name identifies the backend in logs and notes.
	Name() string
}
