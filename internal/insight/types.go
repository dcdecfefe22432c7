package insight

// Row is one structured data record: column name to scalar value. Detectors
// only read rows.
type Row = map[string]any

// Type is the kind of pattern an insight describes.
type Type string

const (
	TypeGrowth       Type = "growth"
	TypeDecline      Type = "decline"
	TypeComparison   Type = "comparison"
	TypeRanking      Type = "ranking"
	TypeDistribution Type = "distribution"
	TypeCorrelation  Type = "correlation"
	TypeAnomaly      Type = "anomaly"
	TypeThreshold    Type = "threshold"
	TypeStability    Type = "stability"
)

// Types lists every insight type in declaration order.
var Types = []Type{
	TypeGrowth,
	TypeDecline,
	TypeComparison,
	TypeRanking,
	TypeDistribution,
	TypeCorrelation,
	TypeAnomaly,
	TypeThreshold,
	TypeStability,
}

// Valid reports whether t is a known insight type.
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// Direction is which way a metric moved.
type Direction string

const (
	DirectionUp         Direction = "up"
	DirectionDown       Direction = "down"
	DirectionStable     Direction = "stable"
	DirectionComparison Direction = "comparison"
)

// Magnitude buckets the size of a change.
type Magnitude string

const (
	MagnitudeSmall    Magnitude = "small"
	MagnitudeModerate Magnitude = "moderate"
	MagnitudeLarge    Magnitude = "large"
	MagnitudeDramatic Magnitude = "dramatic"
)

// Velocity buckets the rate of a change over time.
type Velocity string

const (
	VelocityGradual      Velocity = "gradual"
	VelocitySteady       Velocity = "steady"
	VelocityAccelerating Velocity = "accelerating"
	VelocityDecelerating Velocity = "decelerating"
)

// Sentiment is the emotional coding of an insight.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentWarning  Sentiment = "warning"
)

// TimeRange is the first and last period an insight covers.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Insight is a single statistically derived finding. Insights are values:
// once returned by a detector they are never modified.
type Insight struct {
	Type                Type       `json:"insight_type"`
	Summary             string     `json:"summary"`
	MetricName          string     `json:"metric_name"`
	CurrentValue        float64    `json:"current_value"`
	PreviousValue       *float64   `json:"previous_value,omitempty"`
	ChangeAbsolute      *float64   `json:"change_absolute,omitempty"`
	ChangePercentage    *float64   `json:"change_percentage,omitempty"`
	Direction           Direction  `json:"direction"`
	Magnitude           Magnitude  `json:"magnitude"`
	Velocity            Velocity   `json:"velocity"`
	HumanImpact         string     `json:"human_impact"`
	Sentiment           Sentiment  `json:"sentiment"`
	RecommendedTemplate string     `json:"recommended_template"`
	Confidence          float64    `json:"confidence"`
	Evidence            []Row      `json:"evidence,omitempty"`
	TimeRange           *TimeRange `json:"time_range,omitempty"`
}

func ptr(v float64) *float64 { return &v }
