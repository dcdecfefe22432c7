package llm

import "fmt"

const defaultMaxTokens = 2048

// CompletionRequest is a single-turn prompt. Every caller sends one
// instruction and reads one reply; there is no conversation state.
type CompletionRequest struct {
	// Model overrides the provider's default model when set.
	Model       string
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
	// JSONMode asks the backend to return a single JSON object.
	JSONMode bool
}

func (r CompletionRequest) maxTokens() int {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}
	return defaultMaxTokens
}

// CompletionResponse is the backend's reply plus token accounting.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}

// APIError is a non-success reply from a backend.
type APIError struct {
	Provider string
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.Status, e.Message)
}
