package reasoning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/me-e6/pengine/internal/insight"
	"github.com/me-e6/pengine/internal/query"
)

func ins(typ insight.Type, confidence float64) insight.Insight {
	return insight.Insight{Type: typ, Confidence: confidence, RecommendedTemplate: "tmpl_" + string(typ)}
}

func TestSelectPrimary(t *testing.T) {
	tests := []struct {
		name     string
		insights []insight.Insight
		intent   query.Intent
		want     int
	}{
		{"empty", nil, query.IntentTrend, -1},
		{"highest confidence", []insight.Insight{ins(insight.TypeDistribution, 0.75), ins(insight.TypeRanking, 0.9)}, query.IntentGeneral, 1},
		{"intent boost", []insight.Insight{ins(insight.TypeRanking, 0.9), ins(insight.TypeGrowth, 0.85)}, query.IntentTrend, 1},
		{"boost for comparison intent", []insight.Insight{ins(insight.TypeGrowth, 0.85), ins(insight.TypeRanking, 0.7)}, query.IntentComparison, 1},
		{"stability answers current state", []insight.Insight{ins(insight.TypeRanking, 0.9), ins(insight.TypeStability, 0.85)}, query.IntentCurrentState, 1},
		{"ties keep first", []insight.Insight{ins(insight.TypeAnomaly, 0.7), ins(insight.TypeAnomaly, 0.7)}, query.IntentGeneral, 0},
		{"boosted tie keeps first", []insight.Insight{ins(insight.TypeGrowth, 0.8), ins(insight.TypeDecline, 0.8)}, query.IntentTrend, 0},
		{"zero confidence still selected", []insight.Insight{ins(insight.TypeAnomaly, 0)}, query.IntentGeneral, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectPrimary(tt.insights, tt.intent))
		})
	}
}

func TestScore(t *testing.T) {
	assert.InDelta(t, 1.05, Score(ins(insight.TypeGrowth, 0.85), query.IntentTrend), 1e-9)
	assert.InDelta(t, 0.85, Score(ins(insight.TypeGrowth, 0.85), query.IntentRanking), 1e-9)
	assert.InDelta(t, 0.75, Score(ins(insight.TypeDistribution, 0.75), query.IntentBreakdown), 1e-9)
}

func TestDecideMode(t *testing.T) {
	withRange := ins(insight.TypeGrowth, 0.85)
	withRange.TimeRange = &insight.TimeRange{Start: "2015", End: "2023"}
	noRange := ins(insight.TypeGrowth, 0.85)

	historical := func(intent query.Intent) query.Descriptor {
		return query.Descriptor{Intent: intent, RequiresHistorical: true}
	}

	tests := []struct {
		name     string
		d        query.Descriptor
		insights []insight.Insight
		force    query.OutputMode
		want     query.OutputMode
	}{
		{"trend with history", historical(query.IntentTrend), []insight.Insight{noRange}, "", query.ModeStory},
		{"dated growth answers a general question", historical(query.IntentGeneral), []insight.Insight{withRange}, "", query.ModeStory},
		{"undated growth is not enough", historical(query.IntentGeneral), []insight.Insight{noRange}, "", query.ModeData},
		{"ranking with history", historical(query.IntentRanking), []insight.Insight{ins(insight.TypeRanking, 0.9)}, "", query.ModeData},
		{"no history needed", query.Descriptor{Intent: query.IntentTrend}, []insight.Insight{withRange}, "", query.ModeData},
		{"nothing to narrate", historical(query.IntentTrend), nil, "", query.ModeData},
		{"forced data", historical(query.IntentTrend), []insight.Insight{withRange}, query.ModeData, query.ModeData},
		{"forced story", query.Descriptor{Intent: query.IntentRanking}, nil, query.ModeStory, query.ModeStory},
		{"unknown force is ignored", historical(query.IntentTrend), []insight.Insight{withRange}, "chart", query.ModeStory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecideMode(tt.d, tt.insights, tt.force))
		})
	}
}

func TestDecideMode_HistoricalTrendWithoutInsightsIsData(t *testing.T) {
	d := query.NewAnalyzer().Analyze("How has literacy changed in Telangana from 2015 to 2023?")
	require.Equal(t, query.IntentTrend, d.Intent)
	require.True(t, d.RequiresHistorical)
	require.Equal(t, query.ModeStory, d.PreferredOutput)

	// The question prefers a story, but with no insight there is no
	// narrative to build, so the answer stays in data mode.
	assert.Equal(t, query.ModeData, DecideMode(d, nil, ""))
	assert.Equal(t, query.ModeData, DecideMode(d, []insight.Insight{}, ""))
	assert.Equal(t, query.ModeStory, DecideMode(d, nil, query.ModeStory), "a forced story still wins")
}

func TestDecideMode_ForcedDataAlwaysWins(t *testing.T) {
	for _, intent := range query.Intents {
		for _, hist := range []bool{true, false} {
			d := query.Descriptor{Intent: intent, RequiresHistorical: hist}
			for _, typ := range insight.Types {
				in := ins(typ, 0.5)
				in.TimeRange = &insight.TimeRange{Start: "1", End: "2"}
				assert.Equal(t, query.ModeData, DecideMode(d, []insight.Insight{in}, query.ModeData))
			}
		}
	}
}

func TestChooseTemplate(t *testing.T) {
	primary := ins(insight.TypeRanking, 0.9)

	assert.Equal(t, TemplateStory, ChooseTemplate(query.ModeStory, &primary, query.IntentRanking))
	assert.Equal(t, TemplateStory, ChooseTemplate(query.ModeStory, nil, query.IntentRanking))
	assert.Equal(t, "tmpl_ranking", ChooseTemplate(query.ModeData, &primary, query.IntentTrend))

	defaults := map[query.Intent]string{
		query.IntentTrend:        insight.TemplateTrendLine,
		query.IntentComparison:   insight.TemplateVersus,
		query.IntentRanking:      insight.TemplateRankingBar,
		query.IntentCurrentState: insight.TemplateHeroStat,
		query.IntentBreakdown:    insight.TemplatePieBreakdown,
		query.IntentCorrelation:  insight.TemplateHeroStat,
		query.IntentAnomaly:      insight.TemplateHeroStat,
		query.IntentGeneral:      insight.TemplateHeroStat,
	}
	for intent, want := range defaults {
		assert.Equal(t, want, ChooseTemplate(query.ModeData, nil, intent), intent)
	}
}

func TestConfidence(t *testing.T) {
	growth := ins(insight.TypeGrowth, 0.85)
	dist := ins(insight.TypeDistribution, 0.75)

	assert.Equal(t, 0.0, Confidence(false, nil, nil))
	assert.InDelta(t, 0.3, Confidence(true, nil, nil), 1e-9)
	assert.InDelta(t, 0.875, Confidence(true, []insight.Insight{growth, dist}, &growth), 1e-9)
	assert.InDelta(t, 0.575, Confidence(false, []insight.Insight{growth, dist}, &growth), 1e-9)

	over := ins(insight.TypeGrowth, 1.5)
	assert.Equal(t, 1.0, Confidence(true, []insight.Insight{over}, &over))
}
