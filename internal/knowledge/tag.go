package knowledge

import "strings"

// Tagger infers dataset metadata from free text. *query.Analyzer
// implements it with the vocabulary questions are read with.
type Tagger interface {
	InferDomain(text string) string
	Region(text string) string
}

// Tag fills an empty Domain from the title, description and column names,
// and an empty Region from the title, description and source. Declared
// values are kept.
func (d *Dataset) Tag(t Tagger) {
	if t == nil {
		return
	}
	if d.Domain == "" {
		cols := d.Columns
		if len(cols) == 0 {
			cols = columnsOf(d.Rows)
		}
		text := strings.Join([]string{d.Title, d.Description, columnWords(cols)}, " ")
		d.Domain = t.InferDomain(text)
	}
	if d.Region == "" {
		d.Region = t.Region(strings.Join([]string{d.Title, d.Description, d.Source}, " "))
	}
}

// columnWords turns column names like literacy_rate into plain words.
func columnWords(cols []string) string {
	r := strings.NewReplacer("_", " ", "-", " ", ".", " ")
	words := make([]string, len(cols))
	for i, c := range cols {
		words[i] = r.Replace(c)
	}
	return strings.Join(words, " ")
}
