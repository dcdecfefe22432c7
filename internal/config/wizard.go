package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to pengine! Let's configure your workspace.")
	fmt.Println()

	providerPrompt := promptui.Select{
		Label: "Select LLM provider (used by the ai analyzer)",
		Items: []string{"openai", "anthropic", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	provider := ProviderType(providerStr)

	qualityPrompt := promptui.Select{
		Label: "Select quality tier",
		Items: []string{
			"lite   - fast and cheap",
			"normal - balanced",
			"max    - highest quality",
		},
	}
	qualityIdx, _, err := qualityPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("quality selection: %w", err)
	}
	tiers := []QualityTier{QualityLite, QualityNormal, QualityMax}
	quality := tiers[qualityIdx]
	preset := GetPreset(provider, quality)

	analyzerPrompt := promptui.Select{
		Label: "Insight analyzer",
		Items: []string{string(AnalyzerStatistical), string(AnalyzerAI)},
	}
	_, analyzerStr, err := analyzerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("analyzer selection: %w", err)
	}

	datasetsPrompt := promptui.Prompt{
		Label:   "Dataset directory",
		Default: "datasets",
	}
	datasetsDir, err := datasetsPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("dataset dir: %w", err)
	}

	relevancePrompt := promptui.Prompt{
		Label:   "Minimum retrieval relevance (0-1)",
		Default: "0.3",
		Validate: func(s string) error {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return fmt.Errorf("not a number")
			}
			if v < 0 || v > 1 {
				return fmt.Errorf("must be within [0, 1]")
			}
			return nil
		},
	}
	relevanceStr, err := relevancePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("min relevance: %w", err)
	}
	minRelevance, _ := strconv.ParseFloat(strings.TrimSpace(relevanceStr), 64)

	cfg := DefaultConfig()
	cfg.Provider = provider
	cfg.Model = preset.Model
	cfg.EmbeddingProvider = embeddingProviderFor(provider)
	cfg.EmbeddingModel = preset.EmbeddingModel
	cfg.Quality = quality
	cfg.Reasoning.Analyzer = AnalyzerType(analyzerStr)
	cfg.Datasets.Dir = datasetsDir
	cfg.Retrieval.MinRelevance = minRelevance

	for _, p := range []ProviderType{provider, cfg.EmbeddingProvider} {
		if envVar := APIKeyEnvVar(p); envVar != "" && os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment before running pengine ingest.\n", envVar)
		}
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// embeddingProviderFor returns the default embedding provider for a given
// LLM provider. OpenAI embeddings are used for all cloud providers.
func embeddingProviderFor(p ProviderType) ProviderType {
	if p == ProviderOllama {
		return ProviderOllama
	}
	return ProviderOpenAI
}
