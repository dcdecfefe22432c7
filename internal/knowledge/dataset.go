package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// timeIndicators mark a column as a time axis when they appear in its name.
var timeIndicators = []string{"year", "date", "period", "month", "quarter", "fy", "fiscal"}

// minHistoricalPeriods is how many distinct periods make a dataset historical.
const minHistoricalPeriods = 3

// Dataset is one structured table plus the metadata retrieval and mining
// need. Files on disk hold one dataset (YAML or JSON) or a list of them.
type Dataset struct {
	ID           string           `yaml:"id" json:"id"`
	Title        string           `yaml:"title" json:"title"`
	Description  string           `yaml:"description,omitempty" json:"description,omitempty"`
	Source       string           `yaml:"source" json:"source"`
	SourceURL    string           `yaml:"source_url,omitempty" json:"source_url,omitempty"`
	Domain       string           `yaml:"domain" json:"domain"`
	Region       string           `yaml:"region,omitempty" json:"region,omitempty"`
	Columns      []string         `yaml:"columns,omitempty" json:"columns,omitempty"`
	MetricColumn string           `yaml:"metric_column,omitempty" json:"metric_column,omitempty"`
	TimeColumn   string           `yaml:"time_column,omitempty" json:"time_column,omitempty"`
	GroupColumn  string           `yaml:"group_column,omitempty" json:"group_column,omitempty"`
	Rows         []map[string]any `yaml:"rows" json:"rows"`
}

// Validate checks the fields ingest depends on and fills in Columns when
// the file left them out. A domain nobody declared or inferred becomes
// "other".
func (d *Dataset) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("dataset id is required")
	}
	if len(d.Rows) == 0 {
		return fmt.Errorf("dataset %s has no rows", d.ID)
	}
	if len(d.Columns) == 0 {
		d.Columns = columnsOf(d.Rows)
	}
	for _, hint := range []struct{ name, col string }{
		{"metric_column", d.MetricColumn},
		{"time_column", d.TimeColumn},
		{"group_column", d.GroupColumn},
	} {
		if hint.col != "" && !containsString(d.Columns, hint.col) {
			return fmt.Errorf("dataset %s: %s %q is not a column", d.ID, hint.name, hint.col)
		}
	}
	if d.Domain == "" {
		d.Domain = "other"
	}
	return nil
}

// columnsOf returns the union of row keys in sorted order.
func columnsOf(rows []map[string]any) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

// IsTimeColumn reports whether a column name looks like a time axis.
func IsTimeColumn(name string) bool {
	n := strings.ToLower(name)
	for _, ind := range timeIndicators {
		if strings.Contains(n, ind) {
			return true
		}
	}
	return false
}

// timeColumn returns the declared time column, else the first time-like one.
func (d *Dataset) timeColumn() string {
	if d.TimeColumn != "" {
		return d.TimeColumn
	}
	for _, c := range d.Columns {
		if IsTimeColumn(c) {
			return c
		}
	}
	return ""
}

// periods returns the distinct time values in ascending order.
func (d *Dataset) periods() []string {
	col := d.timeColumn()
	if col == "" {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, r := range d.Rows {
		v, ok := r[col]
		if !ok || v == nil {
			continue
		}
		s := strings.TrimSpace(fmt.Sprint(v))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		a, errA := strconv.ParseFloat(out[i], 64)
		b, errB := strconv.ParseFloat(out[j], 64)
		if errA == nil && errB == nil {
			return a < b
		}
		return out[i] < out[j]
	})
	return out
}

// HasHistoricalDepth reports whether the dataset spans enough periods to
// show change over time.
func (d *Dataset) HasHistoricalDepth() bool {
	return len(d.periods()) >= minHistoricalPeriods
}

// PeriodRange returns the first and last period, or empty strings.
func (d *Dataset) PeriodRange() (string, string) {
	p := d.periods()
	if len(p) == 0 {
		return "", ""
	}
	return p[0], p[len(p)-1]
}

const embeddingSampleRows = 20

// EmbeddingText is the text indexed for similarity search.
func (d *Dataset) EmbeddingText() string {
	var sb strings.Builder
	if d.Title != "" {
		sb.WriteString(d.Title)
		sb.WriteString(". ")
	}
	if d.Description != "" {
		sb.WriteString(d.Description)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Source: %s\n", d.Source)
	fmt.Fprintf(&sb, "Domain: %s\n", d.Domain)
	if d.Region != "" {
		fmt.Fprintf(&sb, "Region: %s\n", d.Region)
	}
	if start, end := d.PeriodRange(); start != "" {
		fmt.Fprintf(&sb, "Period: %s - %s\n", start, end)
	}
	fmt.Fprintf(&sb, "Columns: %s\n", strings.Join(d.Columns, ", "))

	for i, r := range d.Rows {
		if i == embeddingSampleRows {
			break
		}
		parts := make([]string, 0, len(d.Columns))
		for _, c := range d.Columns {
			if v, ok := r[c]; ok && v != nil {
				parts = append(parts, fmt.Sprintf("%s=%v", c, v))
			}
		}
		sb.WriteString(strings.Join(parts, ", "))
		sb.WriteString("\n")
	}
	return sb.String()
}

// LoadDatasetFile reads one dataset or a list of datasets from a YAML or
// JSON file. Datasets without an id take the file's base name; a non-nil
// tagger fills in undeclared domains and regions.
func LoadDatasetFile(path string, tagger Tagger) ([]Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	datasets, err := ParseDatasets(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for i := range datasets {
		if datasets[i].ID == "" {
			datasets[i].ID = base
			if len(datasets) > 1 {
				datasets[i].ID = fmt.Sprintf("%s-%d", base, i+1)
			}
		}
		datasets[i].Tag(tagger)
		if err := datasets[i].Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return datasets, nil
}

// ParseDatasets decodes data by extension (".json", else YAML).
func ParseDatasets(data []byte, ext string) ([]Dataset, error) {
	trimmed := strings.TrimSpace(string(data))
	isList := strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "- ")

	if strings.EqualFold(ext, ".json") {
		if isList {
			var list []Dataset
			if err := json.Unmarshal(data, &list); err != nil {
				return nil, err
			}
			return list, nil
		}
		var one Dataset
		if err := json.Unmarshal(data, &one); err != nil {
			return nil, err
		}
		return []Dataset{one}, nil
	}

	if isList {
		var list []Dataset
		if err := yaml.Unmarshal(data, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var one Dataset
	if err := yaml.Unmarshal(data, &one); err != nil {
		return nil, err
	}
	return []Dataset{one}, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
