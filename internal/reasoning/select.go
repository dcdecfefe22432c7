package reasoning

import (
	"github.com/me-e6/pengine/internal/insight"
	"github.com/me-e6/pengine/internal/query"
)

// intentBoost is added to an insight's score when its type answers the
// question's intent.
const intentBoost = 0.2

// preferredTypes lists, per intent, the insight types that answer it.
var preferredTypes = map[query.Intent][]insight.Type{
	query.IntentTrend:        {insight.TypeGrowth, insight.TypeDecline},
	query.IntentComparison:   {insight.TypeComparison, insight.TypeRanking},
	query.IntentRanking:      {insight.TypeRanking},
	query.IntentCurrentState: {insight.TypeStability},
}

// Score is an insight's confidence, boosted when its type suits intent.
func Score(in insight.Insight, intent query.Intent) float64 {
	s := in.Confidence
	for _, t := range preferredTypes[intent] {
		if in.Type == t {
			return s + intentBoost
		}
	}
	return s
}

// SelectPrimary returns the index of the highest-scoring insight, or -1 for
// an empty list. Equal scores keep the earliest insight.
func SelectPrimary(insights []insight.Insight, intent query.Intent) int {
	best, bestScore := -1, 0.0
	for i, in := range insights {
		if s := Score(in, intent); best < 0 || s > bestScore {
			best, bestScore = i, s
		}
	}
	return best
}

// DecideMode picks story or data output. A valid forced mode always wins.
// Otherwise the answer is a story when history is needed and either the
// question asks for a trend or a growth/decline insight spans a time range.
// Without any insight there is nothing to narrate and the answer is data.
func DecideMode(d query.Descriptor, insights []insight.Insight, force query.OutputMode) query.OutputMode {
	if force.Valid() {
		return force
	}
	if len(insights) == 0 || !d.RequiresHistorical {
		return query.ModeData
	}
	if d.Intent == query.IntentTrend {
		return query.ModeStory
	}
	for _, in := range insights {
		if (in.Type == insight.TypeGrowth || in.Type == insight.TypeDecline) && in.TimeRange != nil {
			return query.ModeStory
		}
	}
	return query.ModeData
}

// TemplateStory is the template of every story-mode answer.
const TemplateStory = "story_five_frame"

var intentTemplates = map[query.Intent]string{
	query.IntentTrend:        insight.TemplateTrendLine,
	query.IntentComparison:   insight.TemplateVersus,
	query.IntentRanking:      insight.TemplateRankingBar,
	query.IntentCurrentState: insight.TemplateHeroStat,
	query.IntentBreakdown:    insight.TemplatePieBreakdown,
}

// ChooseTemplate names the renderer template for a result.
func ChooseTemplate(mode query.OutputMode, primary *insight.Insight, intent query.Intent) string {
	if mode == query.ModeStory {
		return TemplateStory
	}
	if primary != nil && primary.RecommendedTemplate != "" {
		return primary.RecommendedTemplate
	}
	if t, ok := intentTemplates[intent]; ok {
		return t
	}
	return insight.TemplateHeroStat
}

// Confidence combines retrieval, mining and selection into one score:
// 0.3 when any context was found, plus 0.4 times the mean insight
// confidence, plus 0.3 times the primary insight's confidence, capped at 1.
func Confidence(contextFound bool, insights []insight.Insight, primary *insight.Insight) float64 {
	score := 0.0
	if contextFound {
		score += 0.3
	}
	if len(insights) > 0 {
		var sum float64
		for _, in := range insights {
			sum += in.Confidence
		}
		score += sum / float64(len(insights)) * 0.4
	}
	if primary != nil {
		score += primary.Confidence * 0.3
	}
	return min(score, 1.0)
}
