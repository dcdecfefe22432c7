package query

import "regexp"

// pattern is one intent cue. A match is discarded when unless matches the
// text following it.
type pattern struct {
	re     *regexp.Regexp
	unless *regexp.Regexp
}

func (p pattern) matches(text string) bool {
	for _, loc := range p.re.FindAllStringIndex(text, -1) {
		if p.unless == nil || !p.unless.MatchString(text[loc[1]:]) {
			return true
		}
	}
	return false
}

func cue(expr string) pattern {
	return pattern{re: regexp.MustCompile(expr)}
}

var intentPatterns = map[Intent][]pattern{
	IntentTrend: {
		cue(`\b(trend|trends|change|changed|changes|grow|grew|increase|increased|decrease|decreased|rise|rose|fall|fell|over time|over the years|evolution)\b`),
		cue(`\b(how has|how have|how did|what happened to)\b.*\b(over|since|from)\b`),
	},
	IntentComparison: {
		cue(`\b(compare|compared|comparison|versus|vs|differ|difference|between)\b`),
		cue(`\b(better|worse|higher|lower|more|less) than\b`),
	},
	IntentRanking: {
		cue(`\b(top|bottom|best|worst|highest|lowest|most|least|rank|ranking)\b`),
		cue(`\b(which|what)\b.*\b(most|least|highest|lowest)\b`),
	},
	IntentCurrentState: {
		cue(`\b(current|currently|now|today|present|latest|recent)\b`),
		{
			re:     regexp.MustCompile(`\b(what is|what are|how much|how many)\b`),
			unless: regexp.MustCompile(`\b(change|trend|over)\b`),
		},
	},
	IntentBreakdown: {
		cue(`\b(breakdown|composition|distribution|split|makeup|consists?)\b`),
		cue(`\b(what makes up|composed of|divided into)\b`),
	},
	IntentCorrelation: {
		cue(`\b(correlat\w*|relat\w*|connect\w*|link\w*|affect\w*|impact\w*|influenc\w*)`),
		cue(`\b(does|is|are)\b.*\b(affect|impact|relate)\w*`),
	},
	IntentAnomaly: {
		cue(`\b(unusual|anomal\w*|outliers?|unexpected|surprising|strange)\b`),
		cue(`\bwhat\b.*\b(wrong|odd|different)\b`),
	},
}

// domainKeywords is ordered; ties on keyword overlap favor the earlier domain.
var domainKeywords = []struct {
	domain   string
	keywords []string
}{
	{"education", []string{"school", "literacy", "student", "teacher", "enrollment", "education", "college", "university", "exam", "dropout"}},
	{"agriculture", []string{"crop", "farm", "farmer", "yield", "irrigation", "harvest", "agriculture", "msp", "rainfall", "soil"}},
	{"economy", []string{"gdp", "income", "tax", "budget", "revenue", "growth", "inflation", "employment", "economy", "investment"}},
	{"health", []string{"hospital", "doctor", "patient", "disease", "mortality", "birth", "vaccination", "health", "medical", "death"}},
	{"infrastructure", []string{"road", "bridge", "electricity", "water", "sanitation", "housing", "construction", "infrastructure", "transport"}},
	{"environment", []string{"forest", "pollution", "air", "climate", "temperature", "wildlife", "environment", "conservation", "carbon"}},
	{"demographics", []string{"population", "census", "age", "gender", "urban", "rural", "migration", "density", "demographic"}},
	{"law", []string{"court", "case", "crime", "police", "judgment", "legislation", "policy", "legal", "law", "justice"}},
}

var defaultLocations = []string{
	"telangana", "andhra pradesh", "karnataka", "tamil nadu", "kerala",
	"maharashtra", "gujarat", "rajasthan", "uttar pradesh", "bihar",
	"west bengal", "odisha", "madhya pradesh", "chhattisgarh",
	"hyderabad", "bangalore", "chennai", "mumbai", "delhi",
	"warangal", "karimnagar", "nizamabad", "khammam", "adilabad",
	"india", "national", "state", "district",
}

// Gazetteer entries that name a level of government rather than a place.
var genericLocations = map[string]bool{
	"state":    true,
	"district": true,
}

var metricKeywords = []string{
	"rate", "percentage", "percent", "ratio", "count", "number",
	"total", "average", "mean", "median", "growth", "decline",
}

// Metric words too generic to help a similarity search.
var genericMetrics = map[string]bool{
	"rate":       true,
	"percentage": true,
	"number":     true,
}

var changeVocabulary = []string{"change", "trend", "over time", "growth", "decline"}

var timePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(19|20)\d0s\b`),
	regexp.MustCompile(`\b(20[0-2]\d|19\d{2})\b`),
	regexp.MustCompile(`\b(last|past|previous)\s+\d+\s+(years?|months?|decades?)\b`),
	regexp.MustCompile(`\b(this|current|last|past)\s+(year|month|quarter|decade)\b`),
	regexp.MustCompile(`\bfy\s*\d{2,4}(-\d{2,4})?\b`),
}

var (
	whitespace      = regexp.MustCompile(`\s+`)
	punctuation     = regexp.MustCompile(`[^\p{L}\p{N}\s\-]`)
	comparisonWords = regexp.MustCompile(`\b(vs|versus|compar\w*)\b`)
)

const (
	maxTopics   = 5
	maxKeywords = 10
)
