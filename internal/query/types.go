package query

// Intent is the classified purpose of a question.
type Intent string

const (
	IntentTrend        Intent = "trend"
	IntentComparison   Intent = "comparison"
	IntentRanking      Intent = "ranking"
	IntentCurrentState Intent = "current_state"
	IntentBreakdown    Intent = "breakdown"
	IntentCorrelation  Intent = "correlation"
	IntentAnomaly      Intent = "anomaly"
	IntentGeneral      Intent = "general"
)

// Intents lists every intent in declaration order. Ties between intents
// resolve to the earliest entry.
var Intents = []Intent{
	IntentTrend,
	IntentComparison,
	IntentRanking,
	IntentCurrentState,
	IntentBreakdown,
	IntentCorrelation,
	IntentAnomaly,
	IntentGeneral,
}

// Valid reports whether i is a known intent.
func (i Intent) Valid() bool {
	for _, known := range Intents {
		if i == known {
			return true
		}
	}
	return false
}

// OutputMode is how an answer is presented.
type OutputMode string

const (
	ModeStory OutputMode = "story"
	ModeData  OutputMode = "data"
)

// Valid reports whether m is story or data.
func (m OutputMode) Valid() bool {
	return m == ModeStory || m == ModeData
}

// Descriptor is the structured reading of one question. It is created once
// by Analyzer.Analyze and treated as read-only afterwards.
type Descriptor struct {
	Original           string     `json:"original_query"`
	Normalized         string     `json:"normalized_query"`
	Intent             Intent     `json:"intent"`
	IntentConfidence   float64    `json:"intent_confidence"`
	Topics             []string   `json:"topics"`
	Locations          []string   `json:"locations"`
	TimeReferences     []string   `json:"time_references"`
	Metrics            []string   `json:"metrics"`
	DomainHint         string     `json:"domain_hint,omitempty"`
	RequiresHistorical bool       `json:"requires_historical"`
	RequiresComparison bool       `json:"requires_comparison"`
	PreferredOutput    OutputMode `json:"preferred_output"`
	SearchKeywords     []string   `json:"search_keywords"`
}
