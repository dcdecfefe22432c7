package query

var suggestionsByDomain = []struct {
	domain  string
	queries []string
}{
	{"education", []string{
		"How has literacy changed in Telangana from 2015 to 2023?",
		"Which district has the highest literacy rate?",
		"Compare urban vs rural literacy in Telangana",
		"Show enrollment trends over the last 5 years",
		"What is the current teacher-student ratio?",
	}},
	{"health", []string{
		"What is the current vaccination rate?",
		"How has infant mortality changed over time?",
		"Compare hospital beds across districts",
		"Show disease prevalence trends",
		"Which district has the best healthcare access?",
	}},
	{"economy", []string{
		"What is Telangana's current GDP growth?",
		"How has employment changed since 2015?",
		"Compare income levels across districts",
		"Show tax revenue trends",
		"Which sector contributes most to GDP?",
	}},
	{"agriculture", []string{
		"What are the current crop yields?",
		"How has irrigation coverage changed?",
		"Compare MSP trends for major crops",
		"Show rainfall patterns over the years",
		"Which district has the highest agricultural output?",
	}},
}

const maxSuggestions = 8

// Suggestions returns example questions for domain. An empty or unknown
// domain yields a mix of the first two questions of every domain.
func Suggestions(domain string) []string {
	for _, d := range suggestionsByDomain {
		if d.domain == domain {
			return append([]string(nil), d.queries...)
		}
	}
	var out []string
	for _, d := range suggestionsByDomain {
		out = append(out, d.queries[:2]...)
	}
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}
