package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, 10, cfg.Retrieval.Limit)
	assert.InDelta(t, 0.3, cfg.Retrieval.MinRelevance, 1e-9)
	assert.Equal(t, AnalyzerStatistical, cfg.Reasoning.Analyzer)
	assert.Equal(t, 3, cfg.Reasoning.MinQueryLength)
	assert.Equal(t, 500, cfg.Reasoning.MaxQueryLength)
	assert.Equal(t, 4, cfg.Templates.MinTrendPoints)
	require.NoError(t, cfg.Validate())
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.pengine.yml")

	original := DefaultConfig()
	original.Provider = ProviderAnthropic
	original.Model = "claude-sonnet-4-5-20250929"
	original.Reasoning.Analyzer = AnalyzerAI
	original.Retrieval.MinRelevance = 0.45
	original.Templates.Overrides = map[string]string{"ranking": "leaderboard"}
	original.Reasoning.Locations = []string{"Medak", "Ñuñoa"}

	require.NoError(t, original.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, original.Provider, loaded.Provider)
	assert.Equal(t, original.Model, loaded.Model)
	assert.Equal(t, AnalyzerAI, loaded.Reasoning.Analyzer)
	assert.InDelta(t, 0.45, loaded.Retrieval.MinRelevance, 1e-9)
	assert.Equal(t, "leaderboard", loaded.Templates.Overrides["ranking"])
	assert.Equal(t, original.Datasets.Include, loaded.Datasets.Include)
	assert.Equal(t, []string{"Medak", "Ñuñoa"}, loaded.Reasoning.Locations)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Provider, cfg.Provider)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PENGINE_PROVIDER", "ollama")
	t.Setenv("PENGINE_RETRIEVAL__LIMIT", "25")
	t.Setenv("PENGINE_REASONING__ANALYZER", "ai")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	assert.Equal(t, ProviderOllama, cfg.Provider)
	assert.Equal(t, 25, cfg.Retrieval.Limit)
	assert.Equal(t, AnalyzerAI, cfg.Reasoning.Analyzer)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid default", func(c *Config) {}, false},
		{"empty provider", func(c *Config) { c.Provider = "" }, true},
		{"unknown provider", func(c *Config) { c.Provider = "google" }, true},
		{"anthropic embeddings", func(c *Config) { c.EmbeddingProvider = ProviderAnthropic }, true},
		{"hashing embeddings", func(c *Config) { c.EmbeddingProvider = ProviderHashing }, false},
		{"empty model", func(c *Config) { c.Model = "" }, true},
		{"bad quality", func(c *Config) { c.Quality = "ultra" }, true},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, true},
		{"negative limit", func(c *Config) { c.Retrieval.Limit = -1 }, true},
		{"relevance above one", func(c *Config) { c.Retrieval.MinRelevance = 1.5 }, true},
		{"unknown analyzer", func(c *Config) { c.Reasoning.Analyzer = "neural" }, true},
		{"max below min", func(c *Config) { c.Reasoning.MaxQueryLength = 2 }, true},
		{"trend points too low", func(c *Config) { c.Templates.MinTrendPoints = 1 }, true},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, true},
		{"ollama without key", func(c *Config) { c.Provider = ProviderOllama; c.EmbeddingProvider = ProviderOllama }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetPresetFallback(t *testing.T) {
	p := GetPreset("unknown", QualityMax)
	assert.Equal(t, qualityPresets[ProviderOpenAI][QualityLite], p)
	assert.Equal(t, "nomic-embed-text", GetPreset(ProviderOllama, QualityNormal).EmbeddingModel)
}

func TestAPIKeyEnvVar(t *testing.T) {
	assert.Equal(t, "OPENAI_API_KEY", APIKeyEnvVar(ProviderOpenAI))
	assert.Equal(t, "ANTHROPIC_API_KEY", APIKeyEnvVar(ProviderAnthropic))
	assert.Empty(t, APIKeyEnvVar(ProviderOllama))
}
