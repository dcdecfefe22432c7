package narrative

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/me-e6/pengine/internal/insight"
)

const (
	defaultDomain = "general"
	defaultSource = "Data Analysis"
	defaultPeriod = "Recent Period"
)

// Headlines are the frame headlines used for one insight type.
type Headlines struct {
	Context     string
	Change      string
	Evidence    string
	Consequence string
	Implication string
}

var defaultHeadlines = map[insight.Type]Headlines{
	insight.TypeGrowth:       {"Where We Started", "The Growth Story", "The Numbers Speak", "What This Means", "Looking Ahead"},
	insight.TypeDecline:      {"The Starting Point", "The Decline", "The Evidence", "The Impact", "Path Forward"},
	insight.TypeComparison:   {"Two Stories", "The Divide", "By The Numbers", "Winners & Losers", "Bridging The Gap"},
	insight.TypeRanking:      {"The Field", "The Rankings", "Performance Data", "What Sets Them Apart", "Lessons Learned"},
	insight.TypeDistribution: {"The Landscape", "How It Spreads", "The Shape Of The Data", "Who Is Left Out", "Closing The Spread"},
	insight.TypeCorrelation:  {"Two Measures", "Moving Together", "The Link", "Why It Matters", "What To Watch"},
	insight.TypeAnomaly:      {"The Normal Range", "The Outlier", "How Far Off", "Why It Stands Out", "What To Check"},
	insight.TypeThreshold:    {"The Benchmark", "Crossing The Line", "The Measurement", "What It Triggers", "Next Steps"},
	insight.TypeStability:    {"The Baseline", "Holding Steady", "The Record", "What Stability Means", "Staying The Course"},
}

// language is the wording palette for one sentiment.
type language struct {
	verb       string
	adjectives [2]string
	closing    string
}

var sentimentLanguage = map[insight.Sentiment]language{
	insight.SentimentPositive: {"surpassed", [2]string{"remarkable", "encouraging"}, " This represents progress worth celebrating."},
	insight.SentimentNegative: {"fell short of", [2]string{"concerning", "challenging"}, " This trend requires attention and action."},
	insight.SentimentNeutral:  {"shifted", [2]string{"notable", "measurable"}, ""},
	insight.SentimentWarning:  {"challenged", [2]string{"critical", "important"}, " Stakeholders should take note of this development."},
}

// Builder turns insights into narratives. It holds only read-only tables
// and is safe for concurrent use.
type Builder struct {
	headlines map[insight.Type]Headlines
}

// NewBuilder returns a Builder with the built-in headlines, replaced per
// insight type by any entries in overrides.
func NewBuilder(overrides map[insight.Type]Headlines) *Builder {
	h := make(map[insight.Type]Headlines, len(defaultHeadlines))
	for k, v := range defaultHeadlines {
		h[k] = v
	}
	for k, v := range overrides {
		h[k] = v
	}
	return &Builder{headlines: h}
}

// Build expands in into a five-frame narrative. It accepts any insight;
// missing fields fall back to generic phrasing.
func (b *Builder) Build(in insight.Insight, domain, source string) Narrative {
	if strings.TrimSpace(domain) == "" {
		domain = defaultDomain
	}
	if strings.TrimSpace(source) == "" {
		source = defaultSource
	}
	h, ok := b.headlines[in.Type]
	if !ok {
		h = b.headlines[insight.TypeGrowth]
	}
	lang, ok := sentimentLanguage[in.Sentiment]
	if !ok {
		lang = sentimentLanguage[insight.SentimentNeutral]
	}
	metric := metricLabel(in.MetricName)

	period := defaultPeriod
	if in.TimeRange != nil {
		period = in.TimeRange.Start + " - " + in.TimeRange.End
	}

	return Narrative{
		Title:     title(in.Type, metric, lang),
		Subtitle:  subtitle(in, domain),
		Domain:    domain,
		Sentiment: in.Sentiment,
		Frames: [5]Frame{
			contextFrame(in, h.Context, metric, domain),
			changeFrame(in, h.Change, metric, lang),
			evidenceFrame(in, h.Evidence, metric),
			consequenceFrame(in, h.Consequence, lang),
			implicationFrame(in, h.Implication, metric),
		},
		Source:     source,
		Period:     period,
		Confidence: in.Confidence,
	}
}

func contextFrame(in insight.Insight, headline, metric, domain string) Frame {
	f := Frame{
		Type:       FrameContext,
		Headline:   headline,
		VisualHint: "baseline_indicator",
		Emphasis:   "starting_point",
	}
	if in.PreviousValue != nil {
		f.Body = fmt.Sprintf("In %s, %s stood at %.1f. This baseline set the stage for what was to come.", domain, metric, *in.PreviousValue)
		f.KeyMetric = fmt.Sprintf("%.1f", *in.PreviousValue)
		f.KeyMetricLabel = "Starting " + metric
	} else {
		f.Body = fmt.Sprintf("Understanding %s in %s requires looking at where things began.", metric, domain)
	}
	return f
}

func changeFrame(in insight.Insight, headline, metric string, lang language) Frame {
	f := Frame{
		Type:       FrameChange,
		Headline:   headline,
		VisualHint: "trend_arrow",
		Emphasis:   "change_magnitude",
	}
	adj := lang.adjectives[0]
	if in.ChangePercentage != nil {
		moved := "changed"
		switch in.Direction {
		case insight.DirectionUp:
			moved = "increased"
		case insight.DirectionDown:
			moved = "decreased"
		case insight.DirectionComparison:
			moved = "differs"
		}
		mag := string(in.Magnitude)
		if mag == "" {
			mag = "measurable"
		}
		f.Body = fmt.Sprintf("%s %s by a %s %.1f%%. This %s shift %s expectations.",
			metric, moved, adj, math.Abs(*in.ChangePercentage), mag, lang.verb)
		f.KeyMetric = fmt.Sprintf("%+.1f%%", *in.ChangePercentage)
		f.KeyMetricLabel = "Change"
	} else {
		f.Body = fmt.Sprintf("A %s transformation occurred in %s.", adj, metric)
	}
	return f
}

func evidenceFrame(in insight.Insight, headline, metric string) Frame {
	points := len(in.Evidence)
	var body string
	if in.PreviousValue != nil {
		body = fmt.Sprintf("Based on %d data points, %s moved from %.1f to %.1f.", points, metric, *in.PreviousValue, in.CurrentValue)
	} else {
		body = fmt.Sprintf("Based on %d data points, %s stands at %.1f.", points, metric, in.CurrentValue)
	}
	if in.Velocity != "" {
		body += fmt.Sprintf(" The change was %s.", in.Velocity)
	}
	return Frame{
		Type:           FrameEvidence,
		Headline:       headline,
		Body:           body,
		KeyMetric:      fmt.Sprintf("%.1f", in.CurrentValue),
		KeyMetricLabel: "Current " + metric,
		VisualHint:     "data_chart",
		Emphasis:       "data_points",
	}
}

func consequenceFrame(in insight.Insight, headline string, lang language) Frame {
	body := strings.TrimSpace(in.HumanImpact)
	if body == "" {
		body = "This change has real implications for stakeholders."
	} else if !strings.HasSuffix(body, ".") {
		body += "."
	}
	return Frame{
		Type:       FrameConsequence,
		Headline:   headline,
		Body:       body + lang.closing,
		VisualHint: "impact_icon",
		Emphasis:   "human_element",
	}
}

func implicationFrame(in insight.Insight, headline, metric string) Frame {
	var body string
	switch {
	case in.Direction == insight.DirectionUp && in.Sentiment == insight.SentimentPositive:
		body = fmt.Sprintf("If current trends continue, %s could reach new heights. Sustained effort will be key.", metric)
	case in.Direction == insight.DirectionDown && in.Sentiment == insight.SentimentNegative:
		body = fmt.Sprintf("Reversing this trend in %s will require focused intervention and resources.", metric)
	case in.Direction == insight.DirectionUp && in.Sentiment == insight.SentimentNegative:
		body = fmt.Sprintf("Addressing the rise in %s should be a priority for policymakers.", metric)
	default:
		body = fmt.Sprintf("Monitoring %s will be important to understand emerging patterns.", metric)
	}
	return Frame{
		Type:       FrameImplication,
		Headline:   headline,
		Body:       body,
		VisualHint: "forward_arrow",
		Emphasis:   "call_to_action",
	}
}

func title(typ insight.Type, metric string, lang language) string {
	adj := titleCase(lang.adjectives[1])
	switch typ {
	case insight.TypeGrowth:
		return fmt.Sprintf("%s Shows %s Growth", metric, adj)
	case insight.TypeDecline:
		return fmt.Sprintf("%s Faces %s Decline", metric, adj)
	case insight.TypeRanking:
		return fmt.Sprintf("The %s Rankings", metric)
	case insight.TypeComparison:
		return fmt.Sprintf("%s: A Tale of Two Trends", metric)
	case insight.TypeAnomaly:
		return fmt.Sprintf("%s: An Unusual Reading", metric)
	case insight.TypeStability:
		return fmt.Sprintf("%s Holds Steady", metric)
	}
	return fmt.Sprintf("%s: Key Insights", metric)
}

func subtitle(in insight.Insight, domain string) string {
	if in.TimeRange != nil {
		d := titleCase(domain)
		return fmt.Sprintf("%s %s story from %s to %s", article(d), d, in.TimeRange.Start, in.TimeRange.End)
	}
	return fmt.Sprintf("Insights from %s data", titleCase(domain))
}

func article(word string) string {
	if word != "" && strings.ContainsRune("AEIOU", rune(word[0])) {
		return "An"
	}
	return "A"
}

func metricLabel(name string) string {
	if strings.TrimSpace(name) == "" {
		return "The Metric"
	}
	return titleCase(strings.ReplaceAll(name, "_", " "))
}

// titleCase upper-cases the first letter of each word and lower-cases the
// rest.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
