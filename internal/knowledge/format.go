package knowledge

import (
	"fmt"
	"strings"
)

// FormatResults renders retrieval results as human-readable text.
func FormatResults(results []Result) string {
	if len(results) == 0 {
		return "No datasets found."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d dataset(s):\n\n", len(results))

	for i, r := range results {
		fmt.Fprintf(&sb, "--- Result %d (relevance: %.4f) ---\n", i+1, r.Relevance)
		fmt.Fprintf(&sb, "ID: %s\n", r.ID)
		if r.Title != "" {
			fmt.Fprintf(&sb, "Title: %s\n", r.Title)
		}
		fmt.Fprintf(&sb, "Domain: %s\n", r.Domain)
		if r.Source != "" {
			fmt.Fprintf(&sb, "Source: %s\n", r.Source)
		}
		if r.Region != "" {
			fmt.Fprintf(&sb, "Region: %s\n", r.Region)
		}
		if r.Year != "" {
			fmt.Fprintf(&sb, "Latest period: %s\n", r.Year)
		}
		if r.HasHistoricalDepth {
			sb.WriteString("Historical: yes\n")
		}
		if r.Payload != nil {
			fmt.Fprintf(&sb, "Rows: %d\n", len(r.Payload.Rows))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
