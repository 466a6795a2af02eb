package vision

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseSuggestion extracts the suggestion JSON object from a model response.
// Models wrap the object in prose or markdown fences often enough that we
// scan for the outermost braces instead of unmarshalling the raw text.
func ParseSuggestion(raw string) (*Suggestion, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model response")
	}

	var s Suggestion
	if err := json.Unmarshal([]byte(raw[start:end+1]), &s); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}

	s.Kind = strings.ToLower(strings.TrimSpace(s.Kind))
	if s.Kind != "hat" && s.Kind != "jersey" {
		s.Kind = ""
	}
	s.Team = strings.TrimSpace(s.Team)
	s.Player = strings.TrimSpace(s.Player)
	s.ColorDesign = strings.TrimSpace(s.ColorDesign)
	s.RawResponse = raw
	return &s, nil
}
