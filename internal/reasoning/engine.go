// Package reasoning turns a question into a presentable answer: it analyzes
// the question, retrieves datasets, mines insights, selects the primary
// one, decides between story and data output and scores the result.
package reasoning

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/me-e6/pengine/internal/insight"
	"github.com/me-e6/pengine/internal/knowledge"
	"github.com/me-e6/pengine/internal/logging"
	"github.com/me-e6/pengine/internal/narrative"
	"github.com/me-e6/pengine/internal/query"
)

var (
	// ErrQueryTooShort is returned for queries under the minimum length.
	ErrQueryTooShort = errors.New("query too short")
	// ErrQueryTooLong is returned for queries over the maximum length.
	ErrQueryTooLong = errors.New("query too long")
	// ErrInvalidMode is returned when a forced mode is neither story nor data.
	ErrInvalidMode = errors.New("invalid output mode")
)

const (
	defaultMinQueryLength = 3
	defaultMaxQueryLength = 500
	defaultSource         = "Data Analysis"
)

// Retriever fetches the datasets relevant to a question.
type Retriever interface {
	Retrieve(ctx context.Context, req knowledge.Request) ([]knowledge.Result, error)
}

// Request is one question to reason about.
type Request struct {
	Query string `json:"query"`
	// ForceMode, when set, overrides the mode decision.
	ForceMode query.OutputMode `json:"force_mode,omitempty"`
	// DomainOverride replaces the detected domain for retrieval and narration.
	DomainOverride string `json:"domain_hint,omitempty"`
	// Observer, when set, sees every stage transition.
	Observer Observer `json:"-"`
}

// Result is the complete, read-only answer to one question. Primary, when
// set, points into Insights. Narrative is set only for story-mode answers
// that have a primary insight.
type Result struct {
	ID                  string               `json:"id"`
	CreatedAt           time.Time            `json:"created_at"`
	Query               string               `json:"query"`
	Analysis            query.Descriptor     `json:"query_analysis"`
	ContextFound        bool                 `json:"context_found"`
	ContextSummary      string               `json:"context_summary"`
	Context             knowledge.Context    `json:"context"`
	Sources             []string             `json:"sources_used"`
	Insights            []insight.Insight    `json:"insights"`
	Primary             *insight.Insight     `json:"primary_insight,omitempty"`
	OutputMode          query.OutputMode     `json:"output_mode"`
	RecommendedTemplate string               `json:"recommended_template"`
	Narrative           *narrative.Narrative `json:"narrative,omitempty"`
	Confidence          float64              `json:"overall_confidence"`
	Notes               []string             `json:"reasoning_notes"`
	Stages              []Stage              `json:"stages"`
}

// Domain is the domain the answer is about, "general" when unknown.
func (r *Result) Domain() string {
	if r.Narrative != nil {
		return r.Narrative.Domain
	}
	if r.Analysis.DomainHint != "" {
		return r.Analysis.DomainHint
	}
	return "general"
}

// Options configures an Engine. Analyzer, Insights and Builder default to
// their zero-configuration forms; a nil Retriever means no context is ever
// found.
type Options struct {
	Analyzer  *query.Analyzer
	Insights  insight.Analyzer
	Builder   *narrative.Builder
	Retriever Retriever

	// MinRelevance is the bar used when judging whether context is sufficient.
	MinRelevance float64
	// DefaultSource attributes narratives whose results name no source.
	DefaultSource  string
	MinQueryLength int
	MaxQueryLength int

	Logger *zap.Logger
	Now    func() time.Time
	NewID  func() string
}

// Engine runs the reasoning pipeline. It keeps no per-request state and is
// safe for concurrent use as long as its collaborators are.
type Engine struct {
	opts   Options
	logger *zap.Logger
}

// NewEngine returns an Engine with defaults filled in.
func NewEngine(opts Options) *Engine {
	if opts.Analyzer == nil {
		opts.Analyzer = query.NewAnalyzer()
	}
	if opts.Insights == nil {
		opts.Insights = insight.NewStatisticalAnalyzer(nil, opts.Logger)
	}
	if opts.Builder == nil {
		opts.Builder = narrative.NewBuilder(nil)
	}
	if opts.DefaultSource == "" {
		opts.DefaultSource = defaultSource
	}
	if opts.MinQueryLength <= 0 {
		opts.MinQueryLength = defaultMinQueryLength
	}
	if opts.MaxQueryLength <= 0 {
		opts.MaxQueryLength = defaultMaxQueryLength
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Engine{opts: opts, logger: logging.OrNop(opts.Logger)}
}

// Analyze runs only the query analysis stage.
func (e *Engine) Analyze(text string) query.Descriptor {
	return e.opts.Analyzer.Analyze(text)
}

// Validate checks a request without running it.
func (e *Engine) Validate(req Request) error {
	n := utf8.RuneCountInString(strings.TrimSpace(req.Query))
	if n < e.opts.MinQueryLength {
		return fmt.Errorf("%w: need at least %d characters", ErrQueryTooShort, e.opts.MinQueryLength)
	}
	if n > e.opts.MaxQueryLength {
		return fmt.Errorf("%w: at most %d characters", ErrQueryTooLong, e.opts.MaxQueryLength)
	}
	if req.ForceMode != "" && !req.ForceMode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, req.ForceMode)
	}
	return nil
}

// IsValidationError reports whether err rejects the request itself.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrQueryTooShort) || errors.Is(err, ErrQueryTooLong) || errors.Is(err, ErrInvalidMode)
}

// Reason answers one question. Only invalid requests return an error;
// retrieval and mining failures are recorded as notes and the result is
// built from whatever succeeded.
func (e *Engine) Reason(ctx context.Context, req Request) (*Result, error) {
	if err := e.Validate(req); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(req.Query)
	res := &Result{
		ID:        e.opts.NewID(),
		CreatedAt: e.opts.Now().UTC(),
		Query:     text,
	}
	log := e.logger.With(zap.String("id", res.ID))
	enter := func(s Stage, fields ...zap.Field) {
		res.Stages = append(res.Stages, s)
		log.Info("reasoning stage", append([]zap.Field{zap.String("stage", string(s))}, fields...)...)
		if req.Observer != nil {
			req.Observer(s)
		}
	}

	// Analyze.
	d := e.opts.Analyzer.Analyze(text)
	res.Analysis = d
	res.notef("Intent detected: %s (confidence %.2f)", d.Intent, d.IntentConfidence)
	res.notef("Domain hint: %s", orNone(d.DomainHint))
	res.notef("Requires historical: %t", d.RequiresHistorical)
	enter(StageAnalyzed, zap.String("intent", string(d.Intent)), zap.String("domain", d.DomainHint))

	domain := req.DomainOverride
	if domain == "" {
		domain = d.DomainHint
	}

	// Retrieve.
	results := e.retrieve(ctx, d, domain, res)
	res.Context = knowledge.Summarize(results, e.opts.MinRelevance)
	res.ContextFound = len(results) > 0
	res.Sources = res.Context.Sources
	res.ContextSummary = fmt.Sprintf("Found %d relevant datasets from %d sources", len(results), len(res.Sources))
	res.Notes = append(res.Notes, res.ContextSummary)
	if res.ContextFound && !res.Context.Sufficient {
		res.Notes = append(res.Notes, "Context is thin: few or weakly relevant datasets")
	}
	enter(StageRetrieved, zap.Int("results", len(results)))

	// Mine.
	out, err := e.opts.Insights.Analyze(ctx, insight.Input{Intent: d, Results: results})
	if err != nil {
		log.Warn("insight mining failed", zap.Error(err))
		res.notef("Insight mining failed: %v", err)
		out = insight.Output{}
	}
	res.Notes = append(res.Notes, out.Notes...)
	res.Insights = out.Insights
	res.notef("Detected %d insights", len(res.Insights))
	enter(StageMined, zap.Int("insights", len(res.Insights)))

	// Select.
	if i := SelectPrimary(res.Insights, d.Intent); i >= 0 {
		res.Primary = &res.Insights[i]
		res.notef("Primary insight: %s (%s)", res.Primary.Type, res.Primary.MetricName)
	} else {
		res.Notes = append(res.Notes, "No primary insight")
	}
	enter(StageSelected)

	// Decide mode.
	res.OutputMode = DecideMode(d, res.Insights, req.ForceMode)
	if req.ForceMode != "" {
		res.notef("Output mode: %s (forced)", res.OutputMode)
	} else {
		res.notef("Output mode: %s", res.OutputMode)
	}
	enter(StageModeDecided, zap.String("mode", string(res.OutputMode)))

	// Narrate.
	if res.OutputMode == query.ModeStory && res.Primary != nil {
		source := e.opts.DefaultSource
		if len(res.Sources) > 0 {
			source = res.Sources[0]
		}
		n := e.opts.Builder.Build(*res.Primary, domain, source)
		res.Narrative = &n
		enter(StageNarrated)
	}

	// Finalize.
	res.RecommendedTemplate = ChooseTemplate(res.OutputMode, res.Primary, d.Intent)
	res.notef("Template: %s", res.RecommendedTemplate)
	res.Confidence = Confidence(res.ContextFound, res.Insights, res.Primary)
	enter(StageFinalized,
		zap.String("mode", string(res.OutputMode)),
		zap.Int("insights", len(res.Insights)),
		zap.Float64("confidence", res.Confidence))
	return res, nil
}

func (e *Engine) retrieve(ctx context.Context, d query.Descriptor, domain string, res *Result) []knowledge.Result {
	if e.opts.Retriever == nil {
		res.Notes = append(res.Notes, "No knowledge store configured")
		return nil
	}
	results, err := e.opts.Retriever.Retrieve(ctx, knowledge.Request{
		Query:             d.Normalized,
		Keywords:          d.SearchKeywords,
		DomainHint:        domain,
		RequireHistorical: d.RequiresHistorical,
	})
	if err != nil {
		e.logger.Warn("retrieval failed", zap.String("id", res.ID), zap.Error(err))
		res.notef("Retrieval failed: %v", err)
		return nil
	}
	return results
}

func (r *Result) notef(format string, args ...any) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
