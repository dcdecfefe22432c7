package insight

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/me-e6/pengine/internal/knowledge"
	"github.com/me-e6/pengine/internal/llm"
	"github.com/me-e6/pengine/internal/query"
)

func TestInferColumns(t *testing.T) {
	rows := []Row{
		{"district": "Hyderabad", "year": 2020, "literacy_rate": 70.0, "population": "1,200"},
		{"district": "Warangal", "year": 2021, "literacy_rate": 72.0, "population": "900"},
	}

	tests := []struct {
		name    string
		payload knowledge.Payload
		topics  []string
		want    Columns
	}{
		{
			name:    "topic picks the metric",
			payload: knowledge.Payload{Rows: rows},
			topics:  []string{"population"},
			want:    Columns{Metric: "population", Time: "year", Group: "district"},
		},
		{
			name:    "first numeric column without topics",
			payload: knowledge.Payload{Rows: rows},
			want:    Columns{Metric: "literacy_rate", Time: "year", Group: "district"},
		},
		{
			name:    "topic inside a longer column name",
			payload: knowledge.Payload{Rows: rows},
			topics:  []string{"literacy"},
			want:    Columns{Metric: "literacy_rate", Time: "year", Group: "district"},
		},
		{
			name: "hints win",
			payload: knowledge.Payload{
				Rows:         rows,
				MetricColumn: "population",
				TimeColumn:   "year",
				GroupColumn:  "district",
			},
			topics: []string{"literacy"},
			want:   Columns{Metric: "population", Time: "year", Group: "district"},
		},
		{
			name:    "declared column order",
			payload: knowledge.Payload{Rows: rows, Columns: []string{"population", "literacy_rate", "district", "year"}},
			want:    Columns{Metric: "population", Time: "year", Group: "district"},
		},
		{
			name:    "text only",
			payload: knowledge.Payload{Rows: []Row{{"name": "a"}, {"name": "b"}}},
			want:    Columns{Group: "name"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferColumns(tt.payload, tt.topics))
		})
	}
}

func literacyResult() knowledge.Result {
	return knowledge.Result{
		ID:                 "literacy",
		Content:            "Adult literacy rate. Census",
		Relevance:          0.8,
		Domain:             "education",
		Source:             "Census",
		HasHistoricalDepth: true,
		Payload: &knowledge.Payload{
			Rows: []map[string]any{
				{"year": 2015.0, "literacy": 66.5},
				{"year": 2019.0, "literacy": 78.0},
				{"year": 2023.0, "literacy": 89.5},
			},
			MetricColumn: "literacy",
			TimeColumn:   "year",
		},
	}
}

func TestStatisticalAnalyzer(t *testing.T) {
	a := NewStatisticalAnalyzer(nil, nil)
	in := Input{
		Intent: query.Descriptor{Topics: []string{"literacy"}},
		Results: []knowledge.Result{
			{ID: "prose", Content: "no structured data"},
			literacyResult(),
			{ID: "names", Payload: &knowledge.Payload{Rows: []map[string]any{{"name": "a"}}}},
		},
	}

	out, err := a.Analyze(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, out.Insights, 2)
	assert.Equal(t, TypeGrowth, out.Insights[0].Type)
	assert.Equal(t, TypeDistribution, out.Insights[1].Type)
	assert.Equal(t, []string{"Skipped names: no numeric metric column"}, out.Notes)

	out, err = a.Analyze(context.Background(), Input{})
	require.NoError(t, err)
	assert.Empty(t, out.Insights)
}

func TestStatisticalAnalyzer_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewStatisticalAnalyzer(nil, nil).Analyze(ctx, Input{Results: []knowledge.Result{literacyResult()}})
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeProvider struct {
	reply string
	err   error
	reqs  []llm.CompletionRequest
}

func (f *fakeProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.reply}, nil
}

func (f *fakeProvider) Name() string { return "fake" }

func TestAIAnalyzer_AddsInsight(t *testing.T) {
	provider := &fakeProvider{reply: "```json\n" + `{
		"summary": "Literacy rose 23 points since 2015",
		"insight_type": "Growth",
		"metric_name": "literacy",
		"current_value": 89.5,
		"change_percentage": 34.5864,
		"direction": "up",
		"magnitude": "significant",
		"velocity": "steady",
		"human_impact": "More adults can read.",
		"sentiment": "hopeful",
		"recommended_template": "before_after",
		"confidence": 1.7
	}` + "\n```"}
	a := NewAIAnalyzer(nil, provider, "test-model", nil)

	intent := query.Descriptor{Original: "How has literacy changed?", Intent: query.IntentTrend, DomainHint: "education"}
	out, err := a.Analyze(context.Background(), Input{Intent: intent, Results: []knowledge.Result{literacyResult()}})
	require.NoError(t, err)

	require.Len(t, out.Insights, 3)
	ai := out.Insights[2]
	assert.Equal(t, TypeGrowth, ai.Type)
	assert.Equal(t, "Literacy rose 23 points since 2015", ai.Summary)
	assert.Equal(t, 89.5, ai.CurrentValue)
	assert.InDelta(t, 34.59, *ai.ChangePercentage, 1e-9)
	assert.Equal(t, DirectionUp, ai.Direction)
	assert.Equal(t, MagnitudeModerate, ai.Magnitude)
	assert.Equal(t, VelocitySteady, ai.Velocity)
	assert.Equal(t, SentimentNeutral, ai.Sentiment)
	assert.Equal(t, TemplateHeroStat, ai.RecommendedTemplate)
	assert.Equal(t, 1.0, ai.Confidence)
	assert.Equal(t, []string{"AI analysis (fake) added a growth insight"}, out.Notes)

	require.Len(t, provider.reqs, 1)
	req := provider.reqs[0]
	assert.True(t, req.JSONMode)
	assert.Equal(t, "test-model", req.Model)
	assert.NotEmpty(t, req.System)
	prompt := req.Prompt
	assert.Contains(t, prompt, "USER QUERY: How has literacy changed?")
	assert.Contains(t, prompt, "QUERY INTENT: trend")
	assert.Contains(t, prompt, "[Source 1: Census]")
}

func TestAIAnalyzer_Defaults(t *testing.T) {
	provider := &fakeProvider{reply: `{"insight_type": "mystery"}`}
	a := NewAIAnalyzer(nil, provider, "", nil)

	intent := query.Descriptor{Topics: []string{"rainfall"}}
	out, err := a.Analyze(context.Background(), Input{Intent: intent, Results: []knowledge.Result{{ID: "x", Content: "rain fell"}}})
	require.NoError(t, err)
	require.Len(t, out.Insights, 1)
	ai := out.Insights[0]
	assert.Equal(t, TypeComparison, ai.Type)
	assert.Equal(t, "No summary available", ai.Summary)
	assert.Equal(t, "rainfall", ai.MetricName)
	assert.Equal(t, DirectionStable, ai.Direction)
	assert.Equal(t, SentimentNeutral, ai.Sentiment)
	assert.Equal(t, TemplateVersus, ai.RecommendedTemplate)
	assert.Equal(t, 0.5, ai.Confidence)
	assert.Nil(t, ai.ChangePercentage)
}

func TestAIAnalyzer_FailuresBecomeNotes(t *testing.T) {
	results := []knowledge.Result{literacyResult()}

	failing := &fakeProvider{err: errors.New("rate limited")}
	out, err := NewAIAnalyzer(nil, failing, "", nil).Analyze(context.Background(), Input{Results: results})
	require.NoError(t, err)
	assert.Len(t, out.Insights, 2)
	require.Len(t, out.Notes, 1)
	assert.Contains(t, out.Notes[0], "rate limited")

	garbled := &fakeProvider{reply: "I cannot help with that"}
	out, err = NewAIAnalyzer(nil, garbled, "", nil).Analyze(context.Background(), Input{Results: results})
	require.NoError(t, err)
	assert.Len(t, out.Insights, 2)
	require.Len(t, out.Notes, 1)
	assert.True(t, strings.HasPrefix(out.Notes[0], "AI analysis unusable"))
}

func TestAIAnalyzer_NoContentSkipsProvider(t *testing.T) {
	provider := &fakeProvider{reply: `{}`}
	out, err := NewAIAnalyzer(nil, provider, "", nil).Analyze(context.Background(), Input{})
	require.NoError(t, err)
	assert.Empty(t, out.Insights)
	assert.Empty(t, provider.reqs)
}

func TestPromptData_Truncates(t *testing.T) {
	var results []knowledge.Result
	for i := 0; i < 7; i++ {
		results = append(results, knowledge.Result{Source: "s", Content: strings.Repeat("x", 900)})
	}
	data := promptData(results)
	assert.Equal(t, 5, strings.Count(data, "[Source "))
	assert.NotContains(t, data, strings.Repeat("x", 501))
	assert.LessOrEqual(t, len([]rune(data)), aiMaxPromptChars)
}
