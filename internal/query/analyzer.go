// Package query turns free-text questions into structured intent
// descriptors.
package query

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Analyzer classifies questions. It holds only immutable tables and is safe
// for concurrent use.
type Analyzer struct {
	locations []location
	keywords  map[string]*regexp.Regexp
}

type location struct {
	name string
	re   *regexp.Regexp
}

// NewAnalyzer returns an Analyzer using the built-in domain vocabulary and
// location gazetteer. Extra locations (reasoning.locations in the config)
// extend the gazetteer.
func NewAnalyzer(extraLocations ...string) *Analyzer {
	a := &Analyzer{keywords: make(map[string]*regexp.Regexp)}

	names := append(append([]string(nil), defaultLocations...), extraLocations...)
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		a.locations = append(a.locations, location{name: n, re: wordMatcher(n)})
	}

	for _, d := range domainKeywords {
		for _, kw := range d.keywords {
			a.keywords[kw] = wordMatcher(kw)
		}
	}
	for _, kw := range metricKeywords {
		if _, ok := a.keywords[kw]; !ok {
			a.keywords[kw] = wordMatcher(kw)
		}
	}
	return a
}

// wordMatcher matches w as a whole word, allowing a plural suffix. RE2's \b
// only knows ASCII word characters, so the boundaries are spelled out.
func wordMatcher(w string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])` + regexp.QuoteMeta(w) + `(?:s|es)?(?:$|[^\p{L}\p{N}_])`)
}

// Analyze never fails: empty or unclassifiable text yields the general
// intent.
func (a *Analyzer) Analyze(text string) Descriptor {
	normalized := Normalize(text)

	intent, confidence := detectIntent(normalized)
	topics := a.extractTopics(normalized)
	locations := a.extractLocations(normalized)
	timeRefs := extractTimeReferences(strings.ToLower(text))
	metrics := a.extractMetrics(normalized)
	domain := a.inferDomain(normalized, topics)

	requiresHistorical := intent == IntentTrend || len(timeRefs) >= 2 || containsAny(normalized, changeVocabulary)
	requiresComparison := intent == IntentComparison || intent == IntentRanking || comparisonWords.MatchString(normalized)

	preferred := ModeData
	if requiresHistorical {
		preferred = ModeStory
	}

	return Descriptor{
		Original:           text,
		Normalized:         normalized,
		Intent:             intent,
		IntentConfidence:   confidence,
		Topics:             topics,
		Locations:          locations,
		TimeReferences:     timeRefs,
		Metrics:            metrics,
		DomainHint:         domain,
		RequiresHistorical: requiresHistorical,
		RequiresComparison: requiresComparison,
		PreferredOutput:    preferred,
		SearchKeywords:     searchKeywords(topics, locations, metrics),
	}
}

// Normalize lower-cases text, collapses whitespace and strips punctuation
// other than hyphens.
func Normalize(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = whitespace.ReplaceAllString(s, " ")
	return punctuation.ReplaceAllString(s, "")
}

func detectIntent(normalized string) (Intent, float64) {
	if normalized == "" {
		return IntentGeneral, 0
	}

	best, bestScore := IntentGeneral, 0
	for _, intent := range Intents {
		patterns := intentPatterns[intent]
		score := 0
		for _, p := range patterns {
			if p.matches(normalized) {
				score++
			}
		}
		// Strictly greater keeps the first-declared intent on ties.
		if score > bestScore {
			best, bestScore = intent, score
		}
	}
	if bestScore == 0 {
		return IntentGeneral, 0.5
	}
	return best, min(float64(bestScore)/float64(len(intentPatterns[best])), 1.0)
}

func (a *Analyzer) extractTopics(normalized string) []string {
	var topics []string
	for _, d := range domainKeywords {
		for _, kw := range d.keywords {
			if len(topics) == maxTopics {
				return topics
			}
			if a.keywords[kw].MatchString(normalized) && !contains(topics, kw) {
				topics = append(topics, kw)
			}
		}
	}
	return topics
}

func (a *Analyzer) extractLocations(normalized string) []string {
	var found []string
	for _, loc := range a.locations {
		if loc.re.MatchString(normalized) {
			found = append(found, titleCase(loc.name))
		}
	}
	return found
}

func (a *Analyzer) extractMetrics(normalized string) []string {
	var found []string
	for _, m := range metricKeywords {
		if a.keywords[m].MatchString(normalized) {
			found = append(found, m)
		}
	}
	return found
}

// extractTimeReferences returns distinct references in order of appearance.
// A match nested inside a longer one ("2023" in "fy 2023") is dropped.
func extractTimeReferences(text string) []string {
	type span struct{ start, end int }
	var spans []span
	for _, re := range timePatterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			spans = append(spans, span{loc[0], loc[1]})
		}
	}
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})

	var refs []string
	end := -1
	for _, s := range spans {
		if s.start < end {
			continue
		}
		end = s.end
		ref := whitespace.ReplaceAllString(text[s.start:s.end], " ")
		if !contains(refs, ref) {
			refs = append(refs, ref)
		}
	}
	return refs
}

// InferDomain returns the domain whose vocabulary best overlaps text, or ""
// when none does. Ties favor the earlier domain.
func (a *Analyzer) InferDomain(text string) string {
	normalized := Normalize(text)
	return a.inferDomain(normalized, a.extractTopics(normalized))
}

// Region returns the first gazetteer place named in text, title-cased, or "".
// Words such as "state" and "district" are not places.
func (a *Analyzer) Region(text string) string {
	normalized := Normalize(text)
	for _, loc := range a.locations {
		if !genericLocations[loc.name] && loc.re.MatchString(normalized) {
			return titleCase(loc.name)
		}
	}
	return ""
}

// inferDomain returns the domain with the highest keyword overlap, or ""
// when nothing overlaps.
func (a *Analyzer) inferDomain(normalized string, topics []string) string {
	best, bestScore := "", 0
	for _, d := range domainKeywords {
		score := 0
		for _, kw := range d.keywords {
			if contains(topics, kw) || a.keywords[kw].MatchString(normalized) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = d.domain, score
		}
	}
	return best
}

func searchKeywords(topics, locations, metrics []string) []string {
	var kws []string
	kws = append(kws, topics...)
	for _, l := range locations {
		kws = append(kws, strings.ToLower(l))
	}
	for _, m := range metrics {
		if !genericMetrics[m] {
			kws = append(kws, m)
		}
	}
	if len(kws) > maxKeywords {
		kws = kws[:maxKeywords]
	}
	return kws
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
