package normalize

import (
	"math"
	"strconv"
	"strings"
)

// ParseMoney converts a raw extracted value into a base-currency amount with two
// fraction digits. Inputs may be bare numbers, or Brazilian-locale strings with a
// currency prefix ("R$ 1.200,00"), grouping dots and a comma decimal separator.
// The second return reports whether the input parsed; on failure the amount is 0.
func ParseMoney(v any) (float64, bool) {
	f, ok := parseNumeric(v)
	if !ok {
		return 0, false
	}
	return round2(f), true
}

// parseNumeric resolves locale separators without rounding.
//
// When the string carries both ',' and '.', whichever appears later is the decimal
// separator and the other is stripped as grouping. A lone ',' is always decimal.
// With only dots, the last one is the decimal point when exactly two digits
// follow it ("1200.00" and "1.200.00" both read 1200) and grouping otherwise
// ("1.200" is twelve hundred). Ambiguous values like "1.234" therefore resolve
// to 1234; accepted limitation of the heuristic.
func parseNumeric(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		return parseNumericString(t)
	default:
		return 0, false
	}
}

func parseNumericString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimPrefix(s, "r$")
	s = strings.TrimSpace(s)

	// keep digits, separators and a leading sign; drop everything else (currency
	// remnants, stray whitespace, OCR noise)
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9', r == ',', r == '.':
			b.WriteRune(r)
		case r == '-' && i == 0:
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" || cleaned == "-" {
		return 0, false
	}

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(cleaned, ",") > 1 {
			// multiple commas cannot all be decimal; all but the last are grouping
			head := cleaned[:lastComma]
			tail := cleaned[lastComma+1:]
			cleaned = strings.ReplaceAll(head, ",", "") + "." + tail
		} else {
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		}
	case lastDot >= 0:
		if len(cleaned)-lastDot-1 == 2 {
			// trailing .NN after the last dot is the decimal point; any earlier
			// dots are grouping
			cleaned = strings.ReplaceAll(cleaned[:lastDot], ".", "") + "." + cleaned[lastDot+1:]
		} else {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
		}
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
