package insight

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/me-e6/pengine/internal/knowledge"
	"github.com/me-e6/pengine/internal/logging"
	"github.com/me-e6/pengine/internal/query"
)

// Input is what an Analyzer mines: the analyzed question and the datasets
// retrieved for it.
type Input struct {
	Intent  query.Descriptor
	Results []knowledge.Result
}

// Output holds the mined insights plus notes for the reasoning trail.
type Output struct {
	Insights []Insight
	Notes    []string
}

// Analyzer turns retrieved datasets into insights. Implementations must be
// safe for concurrent use.
type Analyzer interface {
	Analyze(ctx context.Context, in Input) (Output, error)
}

// StatisticalAnalyzer runs the Detector over every structured payload in
// result order. It needs no external service.
type StatisticalAnalyzer struct {
	detector *Detector
	logger   *zap.Logger
}

// NewStatisticalAnalyzer returns an analyzer backed by d. A nil d uses the
// default templates.
func NewStatisticalAnalyzer(d *Detector, logger *zap.Logger) *StatisticalAnalyzer {
	if d == nil {
		d = NewDetector(TemplateTable{})
	}
	return &StatisticalAnalyzer{detector: d, logger: logging.OrNop(logger)}
}

func (a *StatisticalAnalyzer) Analyze(ctx context.Context, in Input) (Output, error) {
	var out Output
	for _, res := range in.Results {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if res.Payload == nil || len(res.Payload.Rows) == 0 {
			continue
		}
		cols := InferColumns(*res.Payload, in.Intent.Topics)
		if cols.Metric == "" {
			out.Notes = append(out.Notes, fmt.Sprintf("Skipped %s: no numeric metric column", res.ID))
			continue
		}
		found := a.detector.Detect(res.Payload.Rows, cols.Metric, cols.Time, cols.Group)
		a.logger.Debug("mined dataset",
			zap.String("dataset", res.ID),
			zap.String("metric", cols.Metric),
			zap.String("time", cols.Time),
			zap.String("group", cols.Group),
			zap.Int("insights", len(found)))
		out.Insights = append(out.Insights, found...)
	}
	return out, nil
}

// Columns names the roles columns play in a dataset. Empty means absent.
type Columns struct {
	Metric string
	Time   string
	Group  string
}

// InferColumns fills in the column roles a payload does not declare. The
// time column is the first time-like name; the metric is the first numeric
// column matching a topic, else the first numeric non-time column; the
// group is the first column holding text.
func InferColumns(p knowledge.Payload, topics []string) Columns {
	cols := Columns{Metric: p.MetricColumn, Time: p.TimeColumn, Group: p.GroupColumn}
	names := p.Columns
	if len(names) == 0 {
		names = columnNames(p.Rows)
	}

	if cols.Time == "" {
		for _, n := range names {
			if knowledge.IsTimeColumn(n) {
				cols.Time = n
				break
			}
		}
	}
	if cols.Group == "" {
		for _, n := range names {
			if n != cols.Time && n != cols.Metric && holdsText(p.Rows, n) {
				cols.Group = n
				break
			}
		}
	}
	if cols.Metric == "" {
		var candidates []string
		for _, n := range names {
			if n != cols.Time && n != cols.Group && isNumericColumn(p.Rows, n) {
				candidates = append(candidates, n)
			}
		}
		cols.Metric = matchTopic(candidates, topics)
		if cols.Metric == "" && len(candidates) > 0 {
			cols.Metric = candidates[0]
		}
	}
	return cols
}

func columnNames(rows []Row) []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				names = append(names, k)
			}
		}
	}
	sort.Strings(names)
	return names
}

// isNumericColumn reports whether every filled-in value of col is numeric
// and at least one is.
func isNumericColumn(rows []Row, col string) bool {
	n := 0
	for _, r := range rows {
		v := r[col]
		if !present(v) {
			continue
		}
		if _, ok := numeric(v); !ok {
			return false
		}
		n++
	}
	return n > 0
}

func holdsText(rows []Row, col string) bool {
	for _, r := range rows {
		s, ok := r[col].(string)
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		if _, isNum := numeric(s); !isNum {
			return true
		}
	}
	return false
}

func matchTopic(columns, topics []string) string {
	for _, c := range columns {
		name := strings.ToLower(strings.NewReplacer("_", " ", "-", " ").Replace(c))
		for _, t := range topics {
			t = strings.ToLower(t)
			if t != "" && (strings.Contains(name, t) || strings.Contains(t, name)) {
				return c
			}
		}
	}
	return ""
}
