package rerank

import (
	"encoding/json"
	"fmt"
	"strings"
)

// rankEntry is one item of the model's ranked output.
type rankEntry struct {
	ID          string `json:"id"`
	Explanation string `json:"explanation"`
}

// parseRanking decodes the model output into ranked entries. The model is told to
// answer with bare JSON, but real completions wander: code fences, leading prose,
// trailing commentary. extractJSON digs the array out before strict decoding.
func parseRanking(raw string) ([]rankEntry, error) {
	payload := extractJSON(raw)
	if payload == "" {
		return nil, fmt.Errorf("no JSON array in model output")
	}

	var entries []rankEntry
	if err := json.Unmarshal([]byte(payload), &entries); err != nil {
		return nil, fmt.Errorf("decode ranking: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("model returned an empty ranking")
	}
	return entries, nil
}

// extractJSON strips markdown code fences and cuts the text down to the outermost
// JSON array.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}
