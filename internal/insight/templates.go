package insight

import "fmt"

// Template ids understood by the renderer.
const (
	TemplateHeroStat     = "hero_stat"
	TemplateTrendLine    = "trend_line"
	TemplateVersus       = "versus"
	TemplateRankingBar   = "ranking_bar"
	TemplatePieBreakdown = "pie_breakdown"
)

// TemplateOptions configures a TemplateTable.
type TemplateOptions struct {
	// Overrides replaces the template of an insight type, keyed by type name.
	Overrides map[string]string
	// TrendLine is used for growth/decline with at least MinTrendPoints points.
	TrendLine string
	// SingleValue is used for growth/decline with fewer points.
	SingleValue    string
	MinTrendPoints int
}

// TemplateTable maps insight types to renderer templates. It is built once
// and passed to the components that need it.
type TemplateTable struct {
	byType         map[Type]string
	trendLine      string
	singleValue    string
	minTrendPoints int
}

// DefaultTemplates returns the built-in mapping.
func DefaultTemplates() TemplateTable {
	t, _ := NewTemplateTable(TemplateOptions{})
	return t
}

// NewTemplateTable applies opts over the built-in mapping. Unknown insight
// types in Overrides are rejected.
func NewTemplateTable(opts TemplateOptions) (TemplateTable, error) {
	t := TemplateTable{
		byType: map[Type]string{
			TypeComparison:   TemplateVersus,
			TypeRanking:      TemplateRankingBar,
			TypeDistribution: TemplatePieBreakdown,
			TypeCorrelation:  TemplateTrendLine,
			TypeAnomaly:      TemplateHeroStat,
			TypeThreshold:    TemplateHeroStat,
			TypeStability:    TemplateHeroStat,
		},
		trendLine:      TemplateTrendLine,
		singleValue:    TemplateHeroStat,
		minTrendPoints: 4,
	}
	if opts.TrendLine != "" {
		t.trendLine = opts.TrendLine
	}
	if opts.SingleValue != "" {
		t.singleValue = opts.SingleValue
	}
	if opts.MinTrendPoints > 0 {
		t.minTrendPoints = opts.MinTrendPoints
	}
	for name, tmpl := range opts.Overrides {
		typ := Type(name)
		if !typ.Valid() {
			return TemplateTable{}, fmt.Errorf("unknown insight type %q in template overrides", name)
		}
		if tmpl == "" {
			return TemplateTable{}, fmt.Errorf("empty template for insight type %q", name)
		}
		t.byType[typ] = tmpl
	}
	return t, nil
}

// For returns the template for an insight of type typ backed by points data
// points. Growth and decline only earn a trend line with enough points.
func (t TemplateTable) For(typ Type, points int) string {
	if tmpl, ok := t.byType[typ]; ok {
		return tmpl
	}
	if typ == TypeGrowth || typ == TypeDecline {
		if points >= t.minTrendPoints {
			return t.trendLine
		}
		return t.singleValue
	}
	return t.singleValue
}
