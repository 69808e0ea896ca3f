// Package normalize canonicalizes the free-text classification, measurement,
// and numeric tokens that come back from model extraction into the fixed
// schema the rest of the pipeline works with. Every function here is pure and
// total over string input.
package normalize

import (
	"strconv"
	"strings"
)

// ParseNumber parses a numeric value out of free text, tolerating currency
// symbols and thousands separators ("$4,500.00" -> 4500). This is the single
// numeric parser used everywhere a number is read from extracted text.
func ParseNumber(s string) (float64, bool) {
	cleaned := strings.TrimSpace(strings.NewReplacer("$", "", ",", "").Replace(s))
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseNumberOr parses like ParseNumber but returns def on failure.
func ParseNumberOr(s string, def float64) float64 {
	if v, ok := ParseNumber(s); ok {
		return v
	}
	return def
}

// FirstNumber finds the first numeric token anywhere in s. Unlike
// ParseNumber it does not require the whole string to be a number.
func FirstNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(s, ",", "")
	start := -1
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 && c == '.' && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9' {
			continue
		}
		if start != -1 {
			return ParseNumber(s[start:i])
		}
	}
	if start != -1 {
		return ParseNumber(s[start:])
	}
	return 0, false
}
