package knowledge

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/me-e6/pengine/internal/logging"
)

// Request is one retrieval call.
type Request struct {
	Query             string
	Keywords          []string
	DomainHint        string
	RequireHistorical bool
	Limit             int
}

// Payload is the structured part of a result. Column fields carry the hints
// recorded at ingest and may be empty.
type Payload struct {
	Columns      []string         `json:"columns,omitempty"`
	Rows         []map[string]any `json:"rows"`
	MetricColumn string           `json:"metric_column,omitempty"`
	TimeColumn   string           `json:"time_column,omitempty"`
	GroupColumn  string           `json:"group_column,omitempty"`
}

// Result is one retrieved dataset.
type Result struct {
	ID                 string   `json:"id"`
	Content            string   `json:"content"`
	Relevance          float64  `json:"relevance"`
	Domain             string   `json:"domain"`
	Year               string   `json:"year,omitempty"`
	Region             string   `json:"region,omitempty"`
	HasHistoricalDepth bool     `json:"has_historical_depth"`
	Source             string   `json:"source"`
	Title              string   `json:"title,omitempty"`
	Payload            *Payload `json:"payload,omitempty"`
}

// RetrieverOptions tunes a Retriever.
type RetrieverOptions struct {
	Limit              int
	MinRelevance       float64
	HistoricalFallback bool
}

// Retriever wraps a Store with relevance filtering and fallbacks.
type Retriever struct {
	store  Store
	opts   RetrieverOptions
	logger *zap.Logger
}

// NewRetriever returns a Retriever over store.
func NewRetriever(store Store, opts RetrieverOptions, logger *zap.Logger) *Retriever {
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	return &Retriever{store: store, opts: opts, logger: logging.OrNop(logger)}
}

// MinRelevance is the configured relevance cut-off.
func (r *Retriever) MinRelevance() float64 { return r.opts.MinRelevance }

// Retrieve finds datasets relevant to req. A domain-filtered search that
// finds nothing is retried without the filter. When history is required
// and none of the hits have it, a broader search (twice the results, half
// the relevance bar) adds historical datasets.
func (r *Retriever) Retrieve(ctx context.Context, req Request) ([]Result, error) {
	if r.store.Count() == 0 {
		return nil, ErrEmptyStore
	}
	limit := req.Limit
	if limit <= 0 {
		limit = r.opts.Limit
	}
	text := searchText(req)

	var filter *SearchFilter
	if req.DomainHint != "" {
		filter = &SearchFilter{Domain: &req.DomainHint}
	}
	results, err := r.search(ctx, text, limit, filter, r.opts.MinRelevance)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 && filter != nil {
		r.logger.Debug("domain-filtered search empty, retrying unfiltered", zap.String("domain", req.DomainHint))
		if results, err = r.search(ctx, text, limit, nil, r.opts.MinRelevance); err != nil {
			return nil, err
		}
	}

	if req.RequireHistorical && r.opts.HistoricalFallback && !anyHistorical(results) {
		r.logger.Debug("no historical data found, trying broader search")
		broader, err := r.search(ctx, text, limit*2, nil, r.opts.MinRelevance*0.5)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]bool, len(results))
		for _, res := range results {
			seen[res.ID] = true
		}
		for _, res := range broader {
			if res.HasHistoricalDepth && !seen[res.ID] {
				results = append(results, res)
				seen[res.ID] = true
			}
		}
	}

	r.logger.Info("retrieved context",
		zap.String("query", req.Query),
		zap.Int("results", len(results)),
		zap.Bool("historical", anyHistorical(results)))
	return results, nil
}

func (r *Retriever) search(ctx context.Context, text string, limit int, filter *SearchFilter, minRelevance float64) ([]Result, error) {
	hits, err := r.store.Search(ctx, text, limit, filter)
	if err != nil {
		return nil, fmt.Errorf("searching knowledge store: %w", err)
	}
	var out []Result
	for _, h := range hits {
		rel := clamp01(float64(h.Similarity))
		if rel < minRelevance {
			continue
		}
		res, err := toResult(h.Document, rel)
		if err != nil {
			r.logger.Warn("skipping unreadable dataset", zap.String("id", h.Document.ID), zap.Error(err))
			continue
		}
		out = append(out, res)
	}
	return out, nil
}

func searchText(req Request) string {
	if len(req.Keywords) == 0 {
		return req.Query
	}
	return req.Query + "\n" + strings.Join(req.Keywords, " ")
}

func toResult(doc Document, relevance float64) (Result, error) {
	md := doc.Metadata
	rows, err := md.Rows()
	if err != nil {
		return Result{}, err
	}
	res := Result{
		ID:                 doc.ID,
		Content:            doc.Content,
		Relevance:          relevance,
		Domain:             md.Domain,
		Year:               md.PeriodEnd,
		Region:             md.Region,
		HasHistoricalDepth: md.HasHistoricalDepth,
		Source:             md.Source,
		Title:              md.Title,
	}
	if len(rows) > 0 {
		res.Payload = &Payload{
			Columns:      md.Columns,
			Rows:         rows,
			MetricColumn: md.MetricColumn,
			TimeColumn:   md.TimeColumn,
			GroupColumn:  md.GroupColumn,
		}
	}
	return res, nil
}

func anyHistorical(results []Result) bool {
	for _, r := range results {
		if r.HasHistoricalDepth {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}

// Context aggregates a result set for notes and rendering.
type Context struct {
	Domains       []string `json:"domains"`
	HasHistorical bool     `json:"has_historical_data"`
	TimeRange     []int    `json:"time_range,omitempty"`
	Regions       []string `json:"regions"`
	Sources       []string `json:"sources"`
	Total         int      `json:"total_results"`
	AvgRelevance  float64  `json:"avg_relevance"`
	Sufficient    bool     `json:"sufficient_context"`
}

// minSufficientResults is how many results make context sufficient.
const minSufficientResults = 3

// Summarize aggregates results. Context is sufficient with at least three
// results whose average relevance reaches minRelevance.
func Summarize(results []Result, minRelevance float64) Context {
	c := Context{Total: len(results)}
	var years []int
	var sum float64
	for _, r := range results {
		c.Domains = appendUnique(c.Domains, r.Domain)
		c.Regions = appendUnique(c.Regions, r.Region)
		c.Sources = appendUnique(c.Sources, r.Source)
		if r.HasHistoricalDepth {
			c.HasHistorical = true
		}
		if y, err := strconv.Atoi(r.Year); err == nil {
			years = append(years, y)
		}
		sum += r.Relevance
	}
	if len(years) >= 2 {
		sort.Ints(years)
		c.TimeRange = []int{years[0], years[len(years)-1]}
	}
	if len(results) > 0 {
		c.AvgRelevance = sum / float64(len(results))
	}
	c.Sufficient = len(results) >= minSufficientResults && c.AvgRelevance >= minRelevance
	return c
}

func appendUnique(list []string, s string) []string {
	if s == "" || containsString(list, s) {
		return list
	}
	return append(list, s)
}
