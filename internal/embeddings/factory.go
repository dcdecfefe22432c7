package embeddings

import (
	"fmt"
	"os"
)

// ollamaDimensions is the output size of nomic-embed-text, the default
// Ollama embedding model.
const ollamaDimensions = 768

// New builds an embedder by provider name. "hashing" needs no credentials.
func New(provider, model string) (Embedder, error) {
	switch provider {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		return NewOpenAIEmbedder(apiKey, OpenAIModel(model), os.Getenv("OPENAI_BASE_URL")), nil
	case "ollama":
		return NewOllamaEmbedder(model, ollamaDimensions, os.Getenv("OLLAMA_HOST")), nil
	case "hashing":
		return NewHashingEmbedder(0), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
}
