package config

// QualityPreset describes the models to use for a given quality tier.
type QualityPreset struct {
	Model          string
	EmbeddingModel string
}

// qualityPresets maps each provider+quality combination to its model choices.
var qualityPresets = map[ProviderType]map[QualityTier]QualityPreset{
	ProviderAnthropic: {
		QualityLite:   {Model: "claude-haiku-4-5-20251001", EmbeddingModel: "text-embedding-3-small"},
		QualityNormal: {Model: "claude-sonnet-4-5-20250929", EmbeddingModel: "text-embedding-3-small"},
		QualityMax:    {Model: "claude-opus-4-1-20250805", EmbeddingModel: "text-embedding-3-large"},
	},
	ProviderOpenAI: {
		QualityLite:   {Model: "gpt-4o-mini", EmbeddingModel: "text-embedding-3-small"},
		QualityNormal: {Model: "gpt-4o", EmbeddingModel: "text-embedding-3-small"},
		QualityMax:    {Model: "gpt-4.1", EmbeddingModel: "text-embedding-3-large"},
	},
	ProviderOllama: {
		QualityLite:   {Model: "llama3", EmbeddingModel: "nomic-embed-text"},
		QualityNormal: {Model: "llama3", EmbeddingModel: "nomic-embed-text"},
		QualityMax:    {Model: "llama3:70b", EmbeddingModel: "nomic-embed-text"},
	},
}

// DefaultIncludes are the dataset file globs picked up by ingest.
var DefaultIncludes = []string{
	"**/*.yaml",
	"**/*.yml",
	"**/*.json",
}

// DefaultExcludes are glob patterns excluded from ingest by default.
var DefaultExcludes = []string{
	".git/**",
	".pengine/**",
	"node_modules/**",
	".pengine.yml",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderOpenAI,
		Model:             "gpt-4o-mini",
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    "text-embedding-3-small",
		Quality:           QualityLite,
		DataDir:           ".pengine",
		Datasets: DatasetsConfig{
			Dir:            "datasets",
			Include:        DefaultIncludes,
			Exclude:        DefaultExcludes,
			MaxConcurrency: 4,
		},
		Retrieval: RetrievalConfig{
			Limit:              10,
			MinRelevance:       0.3,
			HistoricalFallback: true,
		},
		Reasoning: ReasoningConfig{
			Analyzer:       AnalyzerStatistical,
			DefaultSource:  "Data Analysis",
			MinQueryLength: 3,
			MaxQueryLength: 500,
		},
		Templates: TemplatesConfig{
			TrendLine:      "trend_line",
			SingleValue:    "hero_stat",
			MinTrendPoints: 4,
		},
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"*"},
		},
		LLM: LLMConfig{
			RequestsPerMinute: 60,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// GetPreset returns the quality preset for the given provider and tier.
// Returns the Lite OpenAI preset if the combination is not found.
func GetPreset(provider ProviderType, tier QualityTier) QualityPreset {
	if tiers, ok := qualityPresets[provider]; ok {
		if preset, ok := tiers[tier]; ok {
			return preset
		}
	}
	return qualityPresets[ProviderOpenAI][QualityLite]
}
