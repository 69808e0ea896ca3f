package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dmarsh/bidflow/internal/types"
)

// measurementRule binds a unit token to the structured field it populates.
// Rules are evaluated in declaration order so a string like "120 SF and 30 LF"
// always resolves the same way.
type measurementRule struct {
	unit    types.MeasurementUnit
	pattern *regexp.Regexp
	assign  func(m *types.Measurement, v float64)
}

func unitPattern(unit types.MeasurementUnit) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`(?i)(\d+(?:\.\d+)?)\s*(%s)\b`, regexp.QuoteMeta(string(unit))))
}

var measurementRules = []measurementRule{
	{types.UnitSquareFeet, unitPattern(types.UnitSquareFeet), func(m *types.Measurement, v float64) { m.SquareFeet = &v }},
	{types.UnitLinearFeet, unitPattern(types.UnitLinearFeet), func(m *types.Measurement, v float64) { m.LinearFeet = &v }},
	{types.UnitEach, unitPattern(types.UnitEach), func(m *types.Measurement, v float64) { m.Count = &v }},
	{types.UnitCubicYards, unitPattern(types.UnitCubicYards), func(m *types.Measurement, v float64) { m.Quantity = &v }},
	{types.UnitSquareYards, unitPattern(types.UnitSquareYards), func(m *types.Measurement, v float64) { m.Quantity = &v }},
}

// Measurement parses free measurement text ("1,200 SF", "75 lf of wall",
// "2 x 4 x 14' height") into the structured form. The first numeric token
// followed by a known unit wins; whatever text remains is preserved verbatim
// in Dimensions. When no unit token pairs with a number the whole input is
// kept in Dimensions and the numeric fields stay nil.
func Measurement(text string) types.Measurement {
	var m types.Measurement

	cleaned := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if cleaned == "" {
		return m
	}

	for i := range measurementRules {
		r := &measurementRules[i]
		loc := r.pattern.FindStringSubmatchIndex(cleaned)
		if loc == nil {
			continue
		}
		value, ok := ParseNumber(cleaned[loc[2]:loc[3]])
		if !ok {
			continue
		}
		unit := r.unit
		m.Unit = &unit
		r.assign(&m, value)
		m.Dimensions = remainder(cleaned, loc[0], loc[1])
		return m
	}

	m.Dimensions = strings.TrimSpace(text)
	return m
}

// ExtractUnit pulls a bare unit token out of text even when it has no
// adjacent number, for edit paths where the user supplies quantity and unit
// separately.
func ExtractUnit(text string) (types.MeasurementUnit, bool) {
	upper := strings.ToUpper(text)
	for _, r := range measurementRules {
		if reBareUnit(r.unit).MatchString(upper) {
			return r.unit, true
		}
	}
	return "", false
}

var bareUnitPatterns = func() map[types.MeasurementUnit]*regexp.Regexp {
	out := make(map[types.MeasurementUnit]*regexp.Regexp, len(measurementRules))
	for _, r := range measurementRules {
		out[r.unit] = regexp.MustCompile(`\b` + regexp.QuoteMeta(string(r.unit)) + `\b`)
	}
	return out
}()

func reBareUnit(unit types.MeasurementUnit) *regexp.Regexp {
	return bareUnitPatterns[unit]
}

var reEdgeSeparators = regexp.MustCompile(`^[\s\-–:,]+|[\s\-–:,]+$`)

// remainder is the input with the matched measurement span removed and edge
// separators trimmed, so "1200 SF - north wall" leaves "north wall".
func remainder(s string, start, end int) string {
	rest := strings.TrimSpace(s[:start] + " " + s[end:])
	return reEdgeSeparators.ReplaceAllString(rest, "")
}
