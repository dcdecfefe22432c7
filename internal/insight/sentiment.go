package insight

import "strings"

// Metric-name fragments whose increase is good news.
var positiveMetrics = []string{
	"literacy", "enrollment", "growth", "income", "revenue",
	"vaccination", "employment", "forest_cover", "life_expectancy",
}

// Metric-name fragments whose increase is bad news.
var negativeMetrics = []string{
	"dropout", "mortality", "crime", "pollution", "unemployment",
	"poverty", "disease", "deaths", "decline",
}

type polarity int

const (
	polarityNone polarity = iota
	polarityPositive
	polarityNegative
)

// metricPolarity codes a metric by its longest matching fragment, so
// "unemployment" is negative even though it contains "employment".
func metricPolarity(metric string) polarity {
	m := strings.ToLower(strings.ReplaceAll(metric, " ", "_"))
	pos := longestMatch(m, positiveMetrics)
	neg := longestMatch(m, negativeMetrics)
	switch {
	case pos == 0 && neg == 0:
		return polarityNone
	case pos > neg:
		return polarityPositive
	case neg > pos:
		return polarityNegative
	}
	return polarityNone
}

func longestMatch(s string, fragments []string) int {
	best := 0
	for _, f := range fragments {
		if len(f) > best && strings.Contains(s, f) {
			best = len(f)
		}
	}
	return best
}

// sentimentFor combines metric polarity with direction. Unmatched metrics
// and stable or comparative directions are neutral.
func sentimentFor(metric string, dir Direction) Sentiment {
	p := metricPolarity(metric)
	switch {
	case dir == DirectionUp && p == polarityPositive, dir == DirectionDown && p == polarityNegative:
		return SentimentPositive
	case dir == DirectionUp && p == polarityNegative, dir == DirectionDown && p == polarityPositive:
		return SentimentNegative
	}
	return SentimentNeutral
}

var magnitudeAdverbs = map[Magnitude]string{
	MagnitudeSmall:    "slightly",
	MagnitudeModerate: "noticeably",
	MagnitudeLarge:    "significantly",
	MagnitudeDramatic: "dramatically",
}

// humanImpact phrases a trend for a lay reader, e.g.
// "Literacy has dramatically improved by 34.6%".
func humanImpact(metric string, dir Direction, mag Magnitude, changePct float64) string {
	title := metricTitle(metric)
	if dir == DirectionStable {
		return title + " has remained stable, moving " + formatPct(changePct)
	}
	positive := metricPolarity(metric) == polarityPositive
	verb := "increased"
	switch {
	case dir == DirectionUp && positive:
		verb = "improved"
	case dir == DirectionDown && positive:
		verb = "declined"
	case dir == DirectionDown:
		verb = "decreased"
	}
	return title + " has " + magnitudeAdverbs[mag] + " " + verb + " by " + formatPct(changePct)
}
