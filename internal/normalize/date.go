package normalize

import (
	"regexp"
	"strings"
	"time"
)

// dateLayouts is the ordered structured-parse pass. '.', '-' and '/' separators
// are all normalized to '/' beforehand, so every layout is '/'-separated; the
// day-first Brazilian forms are tried before the year-first ISO forms.
var dateLayouts = []string{
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
	"02/01/06",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
}

// dateRescue finds a date-like substring anywhere in noisy input:
// D{1,2}[-/]M{1,2}[-/]Y{2,4}, optionally followed by a time.
var dateRescue = regexp.MustCompile(`(\d{1,4})[/-](\d{1,2})[/-](\d{1,4})(?:[ T](\d{1,2}:\d{2}(?::\d{2})?))?`)

// ParseDateTime recovers an issuance datetime from raw extracted text. Input may be
// "18/11/2018", "15/03/2024 10:30:00", "2024-03-15T10:30:00Z", use '.', '-' or '/'
// as date separators, and carry OCR noise around the date. Returns nil when nothing
// date-like survives; an unknown date is meaningful and must stay null.
func ParseDateTime(raw string) *time.Time {
	s := stripDateNoise(raw)
	if s == "" {
		return nil
	}

	if t := parseStructured(s); t != nil {
		return t
	}

	// rescue pass over the original input: pull out the first date-like substring
	// and retry
	if m := dateRescue.FindStringSubmatch(raw); m != nil {
		candidate := m[1] + "/" + m[2] + "/" + m[3]
		if m[4] != "" {
			candidate += " " + m[4]
		}
		if t := parseStructured(stripDateNoise(candidate)); t != nil {
			return t
		}
	}
	return nil
}

func parseStructured(s string) *time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return &t
		}
	}
	return nil
}

// stripDateNoise removes code-fence remnants, parenthetical asides and any rune
// outside the date alphabet, then normalizes '.' and '-' separators to '/'.
func stripDateNoise(raw string) string {
	s := strings.ReplaceAll(raw, "```", " ")
	if i := strings.IndexByte(s, '('); i >= 0 {
		if j := strings.IndexByte(s[i:], ')'); j >= 0 {
			s = s[:i] + s[i+j+1:]
		} else {
			s = s[:i]
		}
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == ':', r == ' ':
			b.WriteRune(r)
		case r == '/', r == '-', r == '.':
			b.WriteByte('/')
		case r == 'T':
			b.WriteByte(' ')
		case r == 'Z':
			// drop
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
