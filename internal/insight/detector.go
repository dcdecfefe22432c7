// Package insight mines structured rows for statistically grounded findings:
// trends, rankings, distributions and anomalies.
package insight

import (
	"fmt"
	"maps"
	"math"
	"sort"
)

const (
	trendConfidence        = 0.85
	rankingConfidence      = 0.9
	distributionConfidence = 0.75
	anomalyConfidence      = 0.7

	// |change_pct| at or below this is stable.
	stableBand = 2.0

	velocityRatio = 1.5
	skewCutoff    = 0.5
	anomalyZ      = 2.0
	maxAnomalies  = 3

	minDistributionValues = 3
	minAnomalyValues      = 5
)

// Detector runs the statistical detectors. It keeps no state between calls
// and is safe for concurrent use.
type Detector struct {
	templates TemplateTable
}

// NewDetector returns a Detector recommending templates from t. A zero
// TemplateTable selects the defaults.
func NewDetector(t TemplateTable) *Detector {
	if t.byType == nil {
		t = DefaultTemplates()
	}
	return &Detector{templates: t}
}

// Detect returns every insight found in rows. metric must appear in at least
// one row; timeCol and groupCol may be empty. Detection paths whose inputs are
// missing or malformed are skipped, so the result may be partial or empty.
func (d *Detector) Detect(rows []Row, metric, timeCol, groupCol string) []Insight {
	if metric == "" || !hasColumn(rows, metric) {
		return nil
	}

	var out []Insight
	if timeCol != "" && hasColumn(rows, timeCol) {
		if in, ok := d.detectTrend(rows, metric, timeCol); ok {
			out = append(out, in)
		}
	}
	if groupCol != "" && hasColumn(rows, groupCol) {
		if in, ok := d.detectRanking(rows, metric, timeCol, groupCol); ok {
			out = append(out, in)
		}
	}
	if groupCol == "" {
		if in, ok := d.detectDistribution(rows, metric); ok {
			out = append(out, in)
		}
	}
	out = append(out, d.detectAnomalies(rows, metric, groupCol)...)
	return out
}

func hasColumn(rows []Row, col string) bool {
	for _, r := range rows {
		if _, ok := r[col]; ok {
			return true
		}
	}
	return false
}

type timePoint struct {
	time  any
	value float64
	rows  int // rows averaged into value
}

// trendSeries sorts the numeric rows by time (missing times first, stable)
// and averages rows that share a period, yielding one point per period.
func trendSeries(rows []Row, metric, timeCol string) ([]timePoint, []Row) {
	var numericRows []Row
	for _, r := range rows {
		if _, ok := numeric(r[metric]); ok {
			numericRows = append(numericRows, r)
		}
	}
	sort.SliceStable(numericRows, func(i, j int) bool {
		return compareTime(numericRows[i][timeCol], numericRows[j][timeCol]) < 0
	})

	var points []timePoint
	var sum float64
	var n int
	for i, r := range numericRows {
		v, _ := numeric(r[metric])
		sum += v
		n++
		last := i == len(numericRows)-1
		if last || compareTime(r[timeCol], numericRows[i+1][timeCol]) != 0 {
			points = append(points, timePoint{time: r[timeCol], value: sum / float64(n), rows: n})
			sum, n = 0, 0
		}
	}
	return points, numericRows
}

func (d *Detector) detectTrend(rows []Row, metric, timeCol string) (Insight, bool) {
	points, sorted := trendSeries(rows, metric, timeCol)
	if len(points) < 2 {
		return Insight{}, false
	}

	first, last := points[0], points[len(points)-1]
	if first.value == 0 {
		return Insight{}, false
	}
	changeAbs := last.value - first.value
	changePct := changeAbs / first.value * 100

	typ, dir := TypeStability, DirectionStable
	switch {
	case changePct > stableBand:
		typ, dir = TypeGrowth, DirectionUp
	case changePct < -stableBand:
		typ, dir = TypeDecline, DirectionDown
	}
	mag := magnitudeOf(changePct)

	tr := &TimeRange{Start: formatValue(first.time), End: formatValue(last.time)}
	verb := "remained stable"
	switch dir {
	case DirectionUp:
		verb = "increased"
	case DirectionDown:
		verb = "decreased"
	}

	summary := fmt.Sprintf("%s %s by %s from %s to %s", metricTitle(metric), verb, formatPct(changePct), tr.Start, tr.End)
	if first.rows > 1 || last.rows > 1 {
		summary += " (averaged across rows sharing a period)"
	}

	return Insight{
		Type:                typ,
		Summary:             summary,
		MetricName:          metric,
		CurrentValue:        last.value,
		PreviousValue:       ptr(first.value),
		ChangeAbsolute:      ptr(round2(changeAbs)),
		ChangePercentage:    ptr(round2(changePct)),
		Direction:           dir,
		Magnitude:           mag,
		Velocity:            velocityOf(points),
		HumanImpact:         humanImpact(metric, dir, mag, changePct),
		Sentiment:           sentimentFor(metric, dir),
		RecommendedTemplate: d.templates.For(typ, len(points)),
		Confidence:          trendConfidence,
		Evidence:            cloneRows(sorted),
		TimeRange:           tr,
	}, true
}

func magnitudeOf(changePct float64) Magnitude {
	abs := math.Abs(changePct)
	switch {
	case abs < 5:
		return MagnitudeSmall
	case abs < 15:
		return MagnitudeModerate
	case abs < 30:
		return MagnitudeLarge
	}
	return MagnitudeDramatic
}

// velocityOf compares the change up to the middle point with the change
// after it. Two points give no midpoint and read as gradual.
func velocityOf(points []timePoint) Velocity {
	if len(points) < 3 {
		return VelocityGradual
	}
	first, mid, last := points[0].value, points[len(points)/2].value, points[len(points)-1].value
	firstHalf := math.Abs(mid - first)
	secondHalf := math.Abs(last - mid)
	switch {
	case secondHalf > firstHalf*velocityRatio:
		return VelocityAccelerating
	case firstHalf > secondHalf*velocityRatio:
		return VelocityDecelerating
	}
	return VelocitySteady
}

type groupValue struct {
	group string
	value float64
	time  any
}

func (d *Detector) detectRanking(rows []Row, metric, timeCol, groupCol string) (Insight, bool) {
	var groups []*groupValue
	index := make(map[string]*groupValue)
	for _, r := range rows {
		if !present(r[groupCol]) {
			continue
		}
		v, ok := numeric(r[metric])
		if !ok {
			continue
		}
		name := formatValue(r[groupCol])
		gv, seen := index[name]
		switch {
		case !seen:
			gv = &groupValue{group: name, value: v, time: r[timeCol]}
			index[name] = gv
			groups = append(groups, gv)
		case timeCol == "":
			gv.value = v
		case compareTime(r[timeCol], gv.time) > 0:
			gv.value, gv.time = v, r[timeCol]
		}
	}
	if len(groups) < 2 {
		return Insight{}, false
	}

	sort.SliceStable(groups, func(i, j int) bool { return groups[i].value > groups[j].value })
	top, bottom := groups[0], groups[len(groups)-1]
	gap := top.value - bottom.value

	pct := 0.0
	if bottom.value != 0 {
		pct = gap / bottom.value * 100
	}
	mag := MagnitudeModerate
	if gap/math.Max(bottom.value, 1) > 0.2 {
		mag = MagnitudeLarge
	}

	evidence := make([]Row, len(groups))
	for i, g := range groups {
		evidence[i] = Row{"group": g.group, "value": g.value}
	}

	return Insight{
		Type:                TypeRanking,
		Summary:             fmt.Sprintf("%s leads with %s at %.1f, while %s trails at %.1f", top.group, metric, top.value, bottom.group, bottom.value),
		MetricName:          metric,
		CurrentValue:        top.value,
		PreviousValue:       ptr(bottom.value),
		ChangeAbsolute:      ptr(round2(gap)),
		ChangePercentage:    ptr(round2(pct)),
		Direction:           DirectionComparison,
		Magnitude:           mag,
		Velocity:            VelocityGradual,
		HumanImpact:         fmt.Sprintf("Gap between best and worst performers is %.1f points", gap),
		Sentiment:           SentimentNeutral,
		RecommendedTemplate: d.templates.For(TypeRanking, len(groups)),
		Confidence:          rankingConfidence,
		Evidence:            evidence,
	}, true
}

func numericValues(rows []Row, metric string) []float64 {
	var values []float64
	for _, r := range rows {
		if v, ok := numeric(r[metric]); ok {
			values = append(values, v)
		}
	}
	return values
}

func (d *Detector) detectDistribution(rows []Row, metric string) (Insight, bool) {
	values := numericValues(rows, metric)
	if len(values) < minDistributionValues {
		return Insight{}, false
	}

	avg, med, sd := mean(values), median(values), sampleStdDev(values)
	skew := 0.0
	if sd > 0 {
		skew = (avg - med) / sd
	}
	shape := "balanced"
	if math.Abs(skew) > skewCutoff {
		shape = "skewed"
	}

	return Insight{
		Type:                TypeDistribution,
		Summary:             fmt.Sprintf("%s has a %s distribution with average %.1f (median: %.1f)", metric, shape, avg, med),
		MetricName:          metric,
		CurrentValue:        avg,
		PreviousValue:       ptr(med),
		Direction:           DirectionStable,
		Magnitude:           MagnitudeModerate,
		Velocity:            VelocityGradual,
		HumanImpact:         fmt.Sprintf("Most values cluster around %.1f", med),
		Sentiment:           SentimentNeutral,
		RecommendedTemplate: d.templates.For(TypeDistribution, len(values)),
		Confidence:          distributionConfidence,
		Evidence:            []Row{{"mean": avg, "median": med, "stdev": sd, "skew": skew}},
	}, true
}

// detectAnomalies flags values more than two sample standard deviations from
// the mean, in row order, keeping at most three.
func (d *Detector) detectAnomalies(rows []Row, metric, groupCol string) []Insight {
	values := numericValues(rows, metric)
	if len(values) < minAnomalyValues {
		return nil
	}
	avg, sd := mean(values), sampleStdDev(values)
	if sd == 0 {
		return nil
	}

	var out []Insight
	for _, r := range rows {
		if len(out) == maxAnomalies {
			break
		}
		v, ok := numeric(r[metric])
		if !ok {
			continue
		}
		z := (v - avg) / sd
		if math.Abs(z) <= anomalyZ {
			continue
		}

		name := "This value"
		if groupCol != "" && present(r[groupCol]) {
			name = formatValue(r[groupCol])
		}
		word, dir := "high", DirectionUp
		if z < 0 {
			word, dir = "low", DirectionDown
		}
		var pct *float64
		if avg != 0 {
			pct = ptr(round2((v - avg) / avg * 100))
		}

		out = append(out, Insight{
			Type:                TypeAnomaly,
			Summary:             fmt.Sprintf("%s shows unusually %s %s at %.1f (average: %.1f)", name, word, metric, v, avg),
			MetricName:          metric,
			CurrentValue:        v,
			PreviousValue:       ptr(avg),
			ChangePercentage:    pct,
			Direction:           dir,
			Magnitude:           MagnitudeDramatic,
			Velocity:            VelocityGradual,
			HumanImpact:         fmt.Sprintf("This is %.1f standard deviations from normal", math.Abs(z)),
			Sentiment:           SentimentWarning,
			RecommendedTemplate: d.templates.For(TypeAnomaly, 1),
			Confidence:          anomalyConfidence,
			Evidence:            []Row{maps.Clone(r)},
		})
	}
	return out
}

func cloneRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = maps.Clone(r)
	}
	return out
}
