package extract

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSONObject pulls the outermost JSON object out of an LLM response.
// Models wrap payloads in code fences, prose, or both; the contract is only that
// one object exists somewhere in the text.
func ExtractJSONObject(response string) (map[string]any, error) {
	s := strings.ReplaceAll(response, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	s = strings.TrimSpace(s)

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(s[start:end+1]), &m); err != nil {
		return nil, fmt.Errorf("malformed JSON in response: %w", err)
	}
	return m, nil
}
