package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeRankingQuestion(t *testing.T) {
	d := NewAnalyzer().Analyze("Which district has the highest literacy rate?")

	assert.Equal(t, IntentRanking, d.Intent)
	assert.InDelta(t, 1.0, d.IntentConfidence, 1e-9)
	assert.False(t, d.RequiresHistorical)
	assert.True(t, d.RequiresComparison)
	assert.Equal(t, ModeData, d.PreferredOutput)
	assert.Equal(t, []string{"literacy"}, d.Topics)
	assert.Equal(t, []string{"District"}, d.Locations)
	assert.Equal(t, []string{"rate"}, d.Metrics)
	assert.Equal(t, "education", d.DomainHint)
	assert.Equal(t, []string{"literacy", "district"}, d.SearchKeywords)
}

func TestAnalyzeTrendQuestion(t *testing.T) {
	d := NewAnalyzer().Analyze("How has literacy changed in Telangana from 2015 to 2023?")

	assert.Equal(t, IntentTrend, d.Intent)
	assert.InDelta(t, 1.0, d.IntentConfidence, 1e-9)
	assert.Equal(t, []string{"2015", "2023"}, d.TimeReferences)
	assert.Equal(t, []string{"Telangana"}, d.Locations)
	assert.True(t, d.RequiresHistorical)
	assert.False(t, d.RequiresComparison)
	assert.Equal(t, ModeStory, d.PreferredOutput)
}

func TestAnalyzeIntents(t *testing.T) {
	tests := []struct {
		query      string
		intent     Intent
		confidence float64
	}{
		{"What is the literacy rate now?", IntentCurrentState, 1.0},
		{"What is the change in literacy over time?", IntentTrend, 0.5},
		{"compare the top districts", IntentComparison, 0.5},
		{"Give me a breakdown of the budget", IntentBreakdown, 0.5},
		{"Does rainfall affect crop yield?", IntentCorrelation, 1.0},
		{"Anything unusual in the crime figures?", IntentAnomaly, 0.5},
		{"tell me about forests", IntentGeneral, 0.5},
		{"", IntentGeneral, 0},
		{"   ", IntentGeneral, 0},
	}
	a := NewAnalyzer()
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			d := a.Analyze(tt.query)
			assert.Equal(t, tt.intent, d.Intent)
			assert.InDelta(t, tt.confidence, d.IntentConfidence, 1e-9)
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "whats the gdp", Normalize("  What's   the GDP?! "))
	assert.Equal(t, "year-on-year growth", Normalize("Year-on-year growth."))
}

func TestTopicsUseWholeWords(t *testing.T) {
	d := NewAnalyzer().Analyze("literacy rate percentage in schools")
	assert.Equal(t, []string{"school", "literacy"}, d.Topics)
	assert.NotContains(t, d.Topics, "age")
}

func TestTopicsCapped(t *testing.T) {
	d := NewAnalyzer().Analyze("school literacy student teacher enrollment education college")
	assert.Len(t, d.Topics, maxTopics)
}

func TestTimeReferences(t *testing.T) {
	d := NewAnalyzer().Analyze("Literacy in the 1990s versus the last 5 years and FY 2023")
	assert.Equal(t, []string{"1990s", "last 5 years", "fy 2023"}, d.TimeReferences)
	assert.True(t, d.RequiresHistorical, "two or more time references need history")
}

func TestTimeReferencesDeduplicated(t *testing.T) {
	d := NewAnalyzer().Analyze("population in 2011, and again 2011")
	assert.Equal(t, []string{"2011"}, d.TimeReferences)
	assert.False(t, d.RequiresHistorical)
}

func TestChangeVocabularyNeedsHistory(t *testing.T) {
	d := NewAnalyzer().Analyze("Which district saw the most growth?")
	assert.Equal(t, IntentRanking, d.Intent)
	assert.True(t, d.RequiresHistorical)
	assert.Equal(t, ModeStory, d.PreferredOutput)
}

func TestDomainTieFavorsFirstDeclared(t *testing.T) {
	d := NewAnalyzer().Analyze("school and hospital counts")
	assert.Equal(t, "education", d.DomainHint)
}

func TestNoDomain(t *testing.T) {
	d := NewAnalyzer().Analyze("what is the answer")
	assert.Empty(t, d.DomainHint)
}

func TestTitleCaseMultibyte(t *testing.T) {
	assert.Equal(t, "Ñuñoa", titleCase("ñuñoa"))
	assert.Equal(t, "Évora District", titleCase("évora district"))
}

func TestExtraLocations(t *testing.T) {
	d := NewAnalyzer("Medak", "Siddipet").Analyze("How is literacy in medak district?")
	require.Len(t, d.Locations, 2)
	assert.Equal(t, []string{"District", "Medak"}, d.Locations)
}

func TestNonASCIIText(t *testing.T) {
	assert.Equal(t, "literacy in ñuñoa café", Normalize("Literacy in Ñuñoa, café?"))

	d := NewAnalyzer("ñuñoa").Analyze("literacy in ñuñoa café")
	assert.Equal(t, "literacy in ñuñoa café", d.Normalized)
	assert.Equal(t, []string{"Ñuñoa"}, d.Locations)
	assert.Equal(t, "education", d.DomainHint)

	// A keyword glued to a non-ASCII letter is not a whole word.
	d = NewAnalyzer().Analyze("schoolé counts")
	assert.Empty(t, d.Topics)
}

func TestInferDomain(t *testing.T) {
	a := NewAnalyzer()
	assert.Equal(t, "education", a.InferDomain("District literacy rates district year literacy rate"))
	assert.Equal(t, "health", a.InferDomain("Immunization: vaccination coverage by hospital"))
	assert.Empty(t, a.InferDomain("Quarterly figures"))
}

func TestRegion(t *testing.T) {
	a := NewAnalyzer("Medak")
	assert.Equal(t, "Telangana", a.Region("District literacy rates, Telangana"))
	assert.Equal(t, "Medak", a.Region("Enrollment in medak schools"))
	assert.Equal(t, "West Bengal", a.Region("west bengal rainfall"))
	assert.Empty(t, a.Region("District literacy by state"), "administrative levels are not regions")
}

func TestSearchKeywordsSkipGenericMetrics(t *testing.T) {
	d := NewAnalyzer().Analyze("average literacy rate and total enrollment number in Telangana")
	assert.Equal(t, []string{"literacy", "enrollment", "telangana", "total", "average"}, d.SearchKeywords)
}

func TestSuggestions(t *testing.T) {
	edu := Suggestions("education")
	require.Len(t, edu, 5)
	assert.Equal(t, "Which district has the highest literacy rate?", edu[1])

	mixed := Suggestions("")
	assert.Len(t, mixed, maxSuggestions)
	assert.Equal(t, Suggestions("unknown"), mixed)
}

func TestIntentValid(t *testing.T) {
	assert.True(t, IntentAnomaly.Valid())
	assert.False(t, Intent("forecast").Valid())
	assert.True(t, ModeData.Valid())
	assert.False(t, OutputMode("chart").Valid())
}
