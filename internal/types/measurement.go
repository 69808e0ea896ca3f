package types

import "strconv"

// trimFloat formats v without trailing zeros ("3550", "4.5").
func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// MeasurementUnit is one of the fixed unit tokens recognized in bid documents.
type MeasurementUnit string

// Unit tokens as they appear in demolition scope lines.
const (
	UnitSquareFeet MeasurementUnit = "SF"
	UnitLinearFeet MeasurementUnit = "LF"
	UnitEach       MeasurementUnit = "EA"
	UnitCubicYards MeasurementUnit = "CY"
	UnitSquareYards MeasurementUnit = "SY"
)

// AllowedUnits lists every unit token the pipeline accepts. Anything else is
// coerced to a nil unit with the raw text preserved in Dimensions.
var AllowedUnits = []MeasurementUnit{UnitSquareFeet, UnitLinearFeet, UnitEach, UnitCubicYards, UnitSquareYards}

// IsAllowedUnit reports whether u is one of the fixed unit tokens.
func IsAllowedUnit(u MeasurementUnit) bool {
	for _, allowed := range AllowedUnits {
		if u == allowed {
			return true
		}
	}
	return false
}

// Measurement holds the normalized quantity information for one demolition
// item. At most one of the type-specific fields (SquareFeet, LinearFeet,
// Count) is populated, matching the unit; Quantity is the generic slot used
// for CY/SY and for values whose type the source did not disclose. Nil means
// "unknown", which is distinct from an explicit zero.
type Measurement struct {
	Quantity   *float64         `json:"quantity"`
	Unit       *MeasurementUnit `json:"unit"`
	SquareFeet *float64         `json:"squareFeet"`
	LinearFeet *float64         `json:"linearFeet"`
	Count      *float64         `json:"count"`
	Dimensions string           `json:"dimensions,omitempty"`
}

// Scalar resolves the single numeric quantity for price calculation, trying
// the generic Quantity first and then the type-specific fields in priority
// order. Returns 0 when no field is populated.
func (m *Measurement) Scalar() float64 {
	if m == nil {
		return 0
	}
	for _, v := range []*float64{m.Quantity, m.SquareFeet, m.LinearFeet, m.Count} {
		if v != nil {
			return *v
		}
	}
	return 0
}

// MeasurementType classifies the measurement for reporting: area, linear,
// count, or unknown.
func (m *Measurement) MeasurementType() string {
	if m == nil {
		return "unknown"
	}
	switch {
	case m.SquareFeet != nil && *m.SquareFeet > 0:
		return "area"
	case m.LinearFeet != nil && *m.LinearFeet > 0:
		return "linear"
	case m.Count != nil && *m.Count > 0:
		return "count"
	default:
		return "unknown"
	}
}

// Display renders the measurement the way item lists show it, e.g. "3550 SF",
// "75 LF", "3 EA". Returns "" when nothing is populated.
func (m *Measurement) Display() string {
	if m == nil {
		return ""
	}
	format := func(v float64, unit string) string {
		return trimFloat(v) + " " + unit
	}
	switch {
	case m.SquareFeet != nil && *m.SquareFeet > 0:
		return format(*m.SquareFeet, string(UnitSquareFeet))
	case m.LinearFeet != nil && *m.LinearFeet > 0:
		return format(*m.LinearFeet, string(UnitLinearFeet))
	case m.Count != nil && *m.Count > 0:
		return format(*m.Count, string(UnitEach))
	case m.Quantity != nil && *m.Quantity > 0:
		if m.Unit != nil {
			return format(*m.Quantity, string(*m.Unit))
		}
		return trimFloat(*m.Quantity)
	}
	return ""
}
