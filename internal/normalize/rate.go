package normalize

import "strings"

// ParseRate converts a tax-rate value into a fraction in [0,1]. Extractors return
// either whole-percentage notation ("2,00%", "2.00", 2) or a fraction ("0,02");
// anything >= 1 is taken as whole-percentage and divided by 100 so both converge.
// On parse failure the rate is 0. Unlike money, the fraction is not rounded to two
// digits: the stored column carries four fraction digits.
func ParseRate(v any) (float64, bool) {
	if s, ok := v.(string); ok {
		v = strings.TrimSuffix(strings.TrimSpace(s), "%")
	}
	f, ok := parseNumeric(v)
	if !ok {
		return 0, false
	}
	if f >= 1 {
		f = f / 100
	}
	return f, true
}
