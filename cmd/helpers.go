package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/me-e6/pengine/internal/config"
	"github.com/me-e6/pengine/internal/embeddings"
	"github.com/me-e6/pengine/internal/insight"
	"github.com/me-e6/pengine/internal/knowledge"
	"github.com/me-e6/pengine/internal/llm"
	"github.com/me-e6/pengine/internal/narrative"
	"github.com/me-e6/pengine/internal/query"
	"github.com/me-e6/pengine/internal/reasoning"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `pengine init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
// Providers without native embeddings fall back to OpenAI.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}
	if provider == config.ProviderAnthropic {
		provider = config.ProviderOpenAI
	}
	model := cfg.EmbeddingModel
	if model == "" {
		model = config.GetPreset(provider, cfg.Quality).EmbeddingModel
	}
	return embeddings.New(string(provider), model)
}

// createLLMProviderFromConfig creates a rate-limited LLM provider.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	p, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, err
	}
	return llm.NewRateLimitedProvider(p, cfg.LLM.RequestsPerMinute), nil
}

func vectorDir(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, "vectors")
}

func historyDBPath(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, "pengine.db")
}

// newQueryAnalyzer also tags dataset domains and regions at ingest.
func newQueryAnalyzer(cfg *config.Config) *query.Analyzer {
	return query.NewAnalyzer(cfg.Reasoning.Locations...)
}

// openKnowledge creates the knowledge store and loads whatever was
// persisted by earlier ingest runs.
func openKnowledge(ctx context.Context, cfg *config.Config) (*knowledge.ChromemStore, error) {
	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	store, err := knowledge.NewChromemStore(embedder)
	if err != nil {
		return nil, fmt.Errorf("creating knowledge store: %w", err)
	}
	if err := store.Load(ctx, vectorDir(cfg)); err != nil {
		return nil, fmt.Errorf("loading knowledge store from %s: %w", vectorDir(cfg), err)
	}
	return store, nil
}

func newRetriever(cfg *config.Config, store knowledge.Store, logger *zap.Logger) *knowledge.Retriever {
	return knowledge.NewRetriever(store, knowledge.RetrieverOptions{
		Limit:              cfg.Retrieval.Limit,
		MinRelevance:       cfg.Retrieval.MinRelevance,
		HistoricalFallback: cfg.Retrieval.HistoricalFallback,
	}, logger)
}

// buildEngine assembles the reasoning engine described by cfg. retriever
// may be nil when no knowledge store is needed.
func buildEngine(cfg *config.Config, analyzer *query.Analyzer, retriever *knowledge.Retriever, logger *zap.Logger) (*reasoning.Engine, error) {
	templates, err := insight.NewTemplateTable(insight.TemplateOptions{
		Overrides:      cfg.Templates.Overrides,
		TrendLine:      cfg.Templates.TrendLine,
		SingleValue:    cfg.Templates.SingleValue,
		MinTrendPoints: cfg.Templates.MinTrendPoints,
	})
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}

	stats := insight.NewStatisticalAnalyzer(insight.NewDetector(templates), logger)
	var insights insight.Analyzer = stats
	if cfg.Reasoning.Analyzer == config.AnalyzerAI {
		provider, err := createLLMProviderFromConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("creating LLM provider: %w", err)
		}
		insights = insight.NewAIAnalyzer(stats, provider, cfg.Model, logger)
	}

	opts := reasoning.Options{
		Analyzer:       analyzer,
		Insights:       insights,
		Builder:        narrative.NewBuilder(nil),
		MinRelevance:   cfg.Retrieval.MinRelevance,
		DefaultSource:  cfg.Reasoning.DefaultSource,
		MinQueryLength: cfg.Reasoning.MinQueryLength,
		MaxQueryLength: cfg.Reasoning.MaxQueryLength,
		Logger:         logger,
	}
	// A nil *Retriever stored in the interface would not read as nil.
	if retriever != nil {
		opts.Retriever = retriever
	}
	return reasoning.NewEngine(opts), nil
}

// app bundles what every answering command needs.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	analyzer  *query.Analyzer
	store     *knowledge.ChromemStore
	retriever *knowledge.Retriever
	engine    *reasoning.Engine
}

// setup loads config, the logger, the knowledge store and the engine.
func setup(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	store, err := openKnowledge(ctx, cfg)
	if err != nil {
		return nil, err
	}
	analyzer := newQueryAnalyzer(cfg)
	retriever := newRetriever(cfg, store, logger)
	engine, err := buildEngine(cfg, analyzer, retriever, logger)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:       cfg,
		logger:    logger,
		analyzer:  analyzer,
		store:     store,
		retriever: retriever,
		engine:    engine,
	}, nil
}
