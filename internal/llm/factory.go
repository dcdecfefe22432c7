package llm

import (
	"fmt"
	"os"
)

const defaultOllamaHost = "http://localhost:11434"

// NewProvider builds the chat backend used by the ai insight analyzer.
// Credentials and endpoints come from the environment.
func NewProvider(name, model string) (Provider, error) {
	switch name {
	case "anthropic":
		key, err := requireEnv("ANTHROPIC_API_KEY")
		if err != nil {
			return nil, err
		}
		return NewAnthropicProvider(key, model), nil
	case "openai":
		key, err := requireEnv("OPENAI_API_KEY")
		if err != nil {
			return nil, err
		}
		return NewOpenAIProvider(key, model, os.Getenv("OPENAI_BASE_URL")), nil
	case "ollama":
		return NewOllamaProvider(firstNonEmpty(os.Getenv("OLLAMA_HOST"), defaultOllamaHost), model), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q: must be one of anthropic, openai, ollama", name)
	}
}

func requireEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("%s environment variable is not set", key)
	}
	return v, nil
}
