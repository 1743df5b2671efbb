package normalize

import "strings"

// CleanString trims a raw extracted value and collapses known placeholder tokens.
// Missing or junk string fields canonicalize to "", never to a nil-ish value.
func CleanString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	switch s {
	case "...", "…", "null", "N/A", "n/a":
		// unresolved template ellipsis or literal placeholders from the model
		return ""
	}
	return s
}
