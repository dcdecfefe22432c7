package config

// QualityTier controls the model selection and trade-off between speed/cost and quality.
type QualityTier string

const (
	QualityLite   QualityTier = "lite"
	QualityNormal QualityTier = "normal"
	QualityMax    QualityTier = "max"
)

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderOllama    ProviderType = "ollama"
	// ProviderHashing is an offline embedding provider with no chat model.
	ProviderHashing ProviderType = "hashing"
)

// AnalyzerType selects the insight analyzer used by the reasoning engine.
type AnalyzerType string

const (
	AnalyzerStatistical AnalyzerType = "statistical"
	AnalyzerAI          AnalyzerType = "ai"
)

// Config is the top-level pengine configuration, corresponding to .pengine.yml.
type Config struct {
	Provider          ProviderType    `yaml:"provider" koanf:"provider"`
	Model             string          `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType    `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string          `yaml:"embedding_model" koanf:"embedding_model"`
	Quality           QualityTier     `yaml:"quality" koanf:"quality"`
	DataDir           string          `yaml:"data_dir" koanf:"data_dir"`
	Datasets          DatasetsConfig  `yaml:"datasets" koanf:"datasets"`
	Retrieval         RetrievalConfig `yaml:"retrieval" koanf:"retrieval"`
	Reasoning         ReasoningConfig `yaml:"reasoning" koanf:"reasoning"`
	Templates         TemplatesConfig `yaml:"templates" koanf:"templates"`
	Server            ServerConfig    `yaml:"server" koanf:"server"`
	LLM               LLMConfig       `yaml:"llm" koanf:"llm"`
	Log               LogConfig       `yaml:"log" koanf:"log"`
}

// DatasetsConfig controls which files `pengine ingest` picks up.
type DatasetsConfig struct {
	Dir            string   `yaml:"dir" koanf:"dir"`
	Include        []string `yaml:"include" koanf:"include"`
	Exclude        []string `yaml:"exclude" koanf:"exclude"`
	MaxConcurrency int      `yaml:"max_concurrency" koanf:"max_concurrency"`
}

// RetrievalConfig tunes knowledge retrieval.
type RetrievalConfig struct {
	Limit              int     `yaml:"limit" koanf:"limit"`
	MinRelevance       float64 `yaml:"min_relevance" koanf:"min_relevance"`
	HistoricalFallback bool    `yaml:"historical_fallback" koanf:"historical_fallback"`
}

// ReasoningConfig holds settings for the reasoning engine.
type ReasoningConfig struct {
	Analyzer       AnalyzerType `yaml:"analyzer" koanf:"analyzer"`
	DefaultSource  string       `yaml:"default_source" koanf:"default_source"`
	MinQueryLength int          `yaml:"min_query_length" koanf:"min_query_length"`
	MaxQueryLength int          `yaml:"max_query_length" koanf:"max_query_length"`
	// Locations extends the built-in place gazetteer used for questions and
	// for tagging dataset regions.
	Locations []string `yaml:"locations,omitempty" koanf:"locations"`
}

// TemplatesConfig maps insight types to render templates. Overrides is keyed
// by insight type (growth, ranking, ...).
type TemplatesConfig struct {
	Overrides      map[string]string `yaml:"overrides,omitempty" koanf:"overrides"`
	TrendLine      string            `yaml:"trend_line" koanf:"trend_line"`
	SingleValue    string            `yaml:"single_value" koanf:"single_value"`
	MinTrendPoints int               `yaml:"min_trend_points" koanf:"min_trend_points"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int      `yaml:"port" koanf:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" koanf:"allowed_origins"`
}

// LLMConfig holds settings shared by all LLM providers.
type LLMConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" koanf:"requests_per_minute"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level       string `yaml:"level" koanf:"level"`
	Development bool   `yaml:"development" koanf:"development"`
}
