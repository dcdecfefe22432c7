package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseJSON decodes an LLM reply into v. Replies wrapped in markdown code
// fences, or with prose around a single JSON object, are tolerated.
func ParseJSON(text string, v any) error {
	body := extractJSON(text)
	if body == "" {
		return fmt.Errorf("empty LLM response")
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("parsing LLM response as JSON: %w", err)
	}
	return nil
}

func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		end := len(lines)
		for i := len(lines) - 1; i > 0; i-- {
			if strings.TrimSpace(lines[i]) == "```" {
				end = i
				break
			}
		}
		text = strings.TrimSpace(strings.Join(lines[1:end], "\n"))
	}
	if strings.HasPrefix(text, "{") {
		return text
	}
	start, stop := strings.Index(text, "{"), strings.LastIndex(text, "}")
	if start >= 0 && stop > start {
		return text[start : stop+1]
	}
	return text
}
