// Package render turns a reasoning result into a presentation spec that a
// chart or infographic renderer can consume without knowing how the
// insights were produced.
package render

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/me-e6/pengine/internal/insight"
	"github.com/me-e6/pengine/internal/narrative"
	"github.com/me-e6/pengine/internal/query"
	"github.com/me-e6/pengine/internal/reasoning"
)

// maxSources is how many source names the attribution line carries.
const maxSources = 2

// Metric is a headline number.
type Metric struct {
	Value  float64  `json:"value"`
	Label  string   `json:"label"`
	Change *float64 `json:"change,omitempty"`
}

// KeyInsight is one bullet of the insight list.
type KeyInsight struct {
	Type       insight.Type `json:"type"`
	Summary    string       `json:"summary"`
	Confidence float64      `json:"confidence"`
}

// Spec is everything a renderer needs to draw one answer.
type Spec struct {
	Template    string            `json:"template"`
	OutputMode  query.OutputMode  `json:"output_mode"`
	Domain      string            `json:"domain"`
	Title       string            `json:"title"`
	Subtitle    string            `json:"subtitle,omitempty"`
	Headline    string            `json:"headline,omitempty"`
	Metrics     []Metric          `json:"metrics"`
	KeyInsights []KeyInsight      `json:"insights"`
	Frames      []narrative.Frame `json:"narrative_frames,omitempty"`
	Sentiment   insight.Sentiment `json:"sentiment"`
	Source      string            `json:"source,omitempty"`
	Period      string            `json:"time_period,omitempty"`
}

// FromResult builds the Spec for res. Story answers take their title and
// frames from the narrative; data answers headline the primary insight.
func FromResult(res *reasoning.Result) Spec {
	s := Spec{
		Template:    res.RecommendedTemplate,
		OutputMode:  res.OutputMode,
		Domain:      res.Domain(),
		Title:       res.Query,
		Metrics:     []Metric{},
		KeyInsights: []KeyInsight{},
		Sentiment:   insight.SentimentNeutral,
	}
	sources := res.Sources
	if len(sources) > maxSources {
		sources = sources[:maxSources]
	}
	s.Source = strings.Join(sources, ", ")

	if p := res.Primary; p != nil {
		s.Headline = p.Summary
		s.Sentiment = p.Sentiment
		s.Metrics = append(s.Metrics, Metric{Value: p.CurrentValue, Label: p.MetricName, Change: p.ChangePercentage})
		if p.TimeRange != nil {
			s.Period = p.TimeRange.Start + " - " + p.TimeRange.End
		}
	}

	if n := res.Narrative; n != nil {
		s.Title = n.Title
		s.Subtitle = n.Subtitle
		s.Frames = append([]narrative.Frame(nil), n.Frames[:]...)
		s.Period = n.Period
		if s.Source == "" {
			s.Source = n.Source
		}
	} else if res.Primary != nil {
		s.Title = res.Primary.Summary
	}

	for _, in := range res.Insights {
		s.KeyInsights = append(s.KeyInsights, KeyInsight{Type: in.Type, Summary: in.Summary, Confidence: in.Confidence})
	}
	return s
}

// Markdown renders the spec as a markdown document.
func (s Spec) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", s.Title)
	if s.Subtitle != "" {
		fmt.Fprintf(&b, "_%s_\n\n", s.Subtitle)
	}

	if len(s.Frames) > 0 {
		for _, f := range s.Frames {
			fmt.Fprintf(&b, "## %s\n\n%s\n\n", f.Headline, f.Body)
			if f.KeyMetric != "" {
				fmt.Fprintf(&b, "**%s** %s\n\n", f.KeyMetric, f.KeyMetricLabel)
			}
		}
	} else {
		for _, m := range s.Metrics {
			fmt.Fprintf(&b, "**%s** %s", formatNumber(m.Value), m.Label)
			if m.Change != nil {
				fmt.Fprintf(&b, " (%+.1f%%)", *m.Change)
			}
			b.WriteString("\n\n")
		}
	}

	if len(s.KeyInsights) > 0 {
		b.WriteString("| Insight | Finding | Confidence |\n|---|---|---|\n")
		for _, in := range s.KeyInsights {
			fmt.Fprintf(&b, "| %s | %s | %.0f%% |\n", in.Type, escapeCell(in.Summary), in.Confidence*100)
		}
		b.WriteString("\n")
	}

	var footer []string
	if s.Source != "" {
		footer = append(footer, "Source: "+s.Source)
	}
	if s.Period != "" {
		footer = append(footer, "Period: "+s.Period)
	}
	if len(footer) > 0 {
		fmt.Fprintf(&b, "> %s\n", strings.Join(footer, " | "))
	}
	return b.String()
}

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// HTML renders the spec's markdown to an HTML fragment.
func (s Spec) HTML() (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(s.Markdown()), &buf); err != nil {
		return "", fmt.Errorf("rendering html: %w", err)
	}
	return buf.String(), nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
