package insight

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/me-e6/pengine/internal/knowledge"
	"github.com/me-e6/pengine/internal/llm"
	"github.com/me-e6/pengine/internal/logging"
)

const (
	aiMaxResults        = 5
	aiMaxContentChars   = 500
	aiMaxPromptChars    = 4000
	aiDefaultConfidence = 0.5
)

const analystRole = "You are an expert data analyst. You answer with a single JSON object and nothing else."

const analysisPrompt = `Analyze the data below and report the single most important finding.

USER QUERY: %s
QUERY INTENT: %s
DOMAIN: %s

RETRIEVED DATA:
%s

Respond with one JSON object:
{
  "summary": "one sentence stating the key finding with numbers",
  "insight_type": "growth|decline|comparison|ranking|distribution|correlation|anomaly|threshold|stability",
  "metric_name": "the metric the finding is about",
  "current_value": 0,
  "change_percentage": 0,
  "direction": "up|down|stable|comparison",
  "magnitude": "small|moderate|large|dramatic",
  "velocity": "gradual|steady|accelerating|decelerating",
  "human_impact": "why this matters to ordinary people, one sentence",
  "sentiment": "positive|negative|neutral|warning",
  "recommended_template": "hero_stat|trend_line|versus|ranking_bar|pie_breakdown",
  "confidence": 0.0
}

Be specific with numbers. Lower the confidence when the data is thin.
Return ONLY the JSON object.`

var knownTemplates = map[string]bool{
	TemplateHeroStat:     true,
	TemplateTrendLine:    true,
	TemplateVersus:       true,
	TemplateRankingBar:   true,
	TemplatePieBreakdown: true,
}

// AIAnalyzer adds one LLM-derived insight, read from the unstructured
// content of the results, to the statistical insights. LLM failures become
// notes; the statistical insights are always kept.
type AIAnalyzer struct {
	stats    *StatisticalAnalyzer
	provider llm.Provider
	model    string
	logger   *zap.Logger
}

// NewAIAnalyzer returns an analyzer that consults provider after stats.
func NewAIAnalyzer(stats *StatisticalAnalyzer, provider llm.Provider, model string, logger *zap.Logger) *AIAnalyzer {
	if stats == nil {
		stats = NewStatisticalAnalyzer(nil, logger)
	}
	return &AIAnalyzer{stats: stats, provider: provider, model: model, logger: logging.OrNop(logger)}
}

func (a *AIAnalyzer) Analyze(ctx context.Context, in Input) (Output, error) {
	out, err := a.stats.Analyze(ctx, in)
	if err != nil {
		return out, err
	}
	data := promptData(in.Results)
	if data == "" {
		return out, nil
	}

	domain := in.Intent.DomainHint
	if domain == "" {
		domain = "general"
	}
	prompt := fmt.Sprintf(analysisPrompt, in.Intent.Original, in.Intent.Intent, domain, data)

	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		Model:       a.model,
		System:      analystRole,
		Prompt:      prompt,
		MaxTokens:   1024,
		Temperature: 0.2,
		JSONMode:    true,
	})
	if err != nil {
		a.logger.Warn("ai analysis failed", zap.String("provider", a.provider.Name()), zap.Error(err))
		out.Notes = append(out.Notes, fmt.Sprintf("AI analysis failed: %v", err))
		return out, nil
	}

	var reply aiReply
	if err := llm.ParseJSON(resp.Content, &reply); err != nil {
		a.logger.Warn("ai analysis returned unparseable output", zap.Error(err))
		out.Notes = append(out.Notes, fmt.Sprintf("AI analysis unusable: %v", err))
		return out, nil
	}

	found := reply.toInsight(in.Intent.Topics, a.stats.detector.templates)
	out.Insights = append(out.Insights, found)
	out.Notes = append(out.Notes, fmt.Sprintf("AI analysis (%s) added a %s insight", a.provider.Name(), found.Type))
	return out, nil
}

// promptData lists the first results' unstructured content for the prompt.
func promptData(results []knowledge.Result) string {
	var sb strings.Builder
	n := 0
	for _, r := range results {
		if strings.TrimSpace(r.Content) == "" {
			continue
		}
		n++
		if n > aiMaxResults {
			break
		}
		fmt.Fprintf(&sb, "[Source %d: %s]\n", n, r.Source)
		fmt.Fprintf(&sb, "Domain: %s\n", r.Domain)
		if r.Year != "" {
			fmt.Fprintf(&sb, "Year: %s\n", r.Year)
		}
		if r.Region != "" {
			fmt.Fprintf(&sb, "Region: %s\n", r.Region)
		}
		fmt.Fprintf(&sb, "Content: %s\n\n", truncateRunes(r.Content, aiMaxContentChars))
	}
	return truncateRunes(sb.String(), aiMaxPromptChars)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

type aiReply struct {
	Summary             string   `json:"summary"`
	InsightType         string   `json:"insight_type"`
	MetricName          string   `json:"metric_name"`
	CurrentValue        *float64 `json:"current_value"`
	ChangePercentage    *float64 `json:"change_percentage"`
	Direction           string   `json:"direction"`
	Magnitude           string   `json:"magnitude"`
	Velocity            string   `json:"velocity"`
	HumanImpact         string   `json:"human_impact"`
	Sentiment           string   `json:"sentiment"`
	RecommendedTemplate string   `json:"recommended_template"`
	Confidence          *float64 `json:"confidence"`
}

// toInsight maps a reply onto an Insight. Unknown enum values fall back to
// neutral defaults and confidence is clipped to [0,1].
func (r aiReply) toInsight(topics []string, templates TemplateTable) Insight {
	typ := Type(strings.ToLower(strings.TrimSpace(r.InsightType)))
	if !typ.Valid() {
		typ = TypeComparison
	}

	in := Insight{
		Type:        typ,
		Summary:     strings.TrimSpace(r.Summary),
		MetricName:  strings.TrimSpace(r.MetricName),
		Direction:   oneOf(r.Direction, DirectionStable, DirectionUp, DirectionDown, DirectionComparison),
		Magnitude:   oneOf(r.Magnitude, MagnitudeModerate, MagnitudeSmall, MagnitudeLarge, MagnitudeDramatic),
		Velocity:    oneOf(r.Velocity, VelocityGradual, VelocitySteady, VelocityAccelerating, VelocityDecelerating),
		HumanImpact: strings.TrimSpace(r.HumanImpact),
		Sentiment:   oneOf(r.Sentiment, SentimentNeutral, SentimentPositive, SentimentNegative, SentimentWarning),
		Confidence:  aiDefaultConfidence,
	}
	if in.Summary == "" {
		in.Summary = "No summary available"
	}
	if in.MetricName == "" {
		in.MetricName = "metric"
		if len(topics) > 0 {
			in.MetricName = topics[0]
		}
	}
	if r.CurrentValue != nil {
		in.CurrentValue = *r.CurrentValue
	}
	if r.ChangePercentage != nil {
		in.ChangePercentage = ptr(round2(*r.ChangePercentage))
	}
	if r.Confidence != nil {
		in.Confidence = max(0, min(1, *r.Confidence))
	}
	in.RecommendedTemplate = strings.TrimSpace(r.RecommendedTemplate)
	if !knownTemplates[in.RecommendedTemplate] {
		in.RecommendedTemplate = templates.For(typ, 0)
	}
	return in
}

// oneOf returns the value of s among allowed, or def when s is unknown.
func oneOf[T ~string](s string, def T, allowed ...T) T {
	v := T(strings.ToLower(strings.TrimSpace(s)))
	if v == def {
		return def
	}
	for _, a := range allowed {
		if v == a {
			return a
		}
	}
	return def
}
