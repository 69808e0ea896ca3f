package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fptr(v float64) *float64 { return &v }

func TestMeasurementScalar(t *testing.T) {
	tests := []struct {
		name string
		m    Measurement
		want float64
	}{
		{
			name: "quantity wins over typed fields",
			m:    Measurement{Quantity: fptr(12), SquareFeet: fptr(99)},
			want: 12,
		},
		{
			name: "square feet",
			m:    Measurement{SquareFeet: fptr(3550)},
			want: 3550,
		},
		{
			name: "linear feet after square feet",
			m:    Measurement{LinearFeet: fptr(75), Count: fptr(3)},
			want: 75,
		},
		{
			name: "count last",
			m:    Measurement{Count: fptr(3)},
			want: 3,
		},
		{
			name: "empty",
			m:    Measurement{},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.m.Scalar())
		})
	}
}

func TestMeasurementScalar_Nil(t *testing.T) {
	var m *Measurement
	assert.Equal(t, 0.0, m.Scalar())
	assert.Equal(t, "unknown", m.MeasurementType())
	assert.Equal(t, "", m.Display())
}

func TestMeasurementType(t *testing.T) {
	assert.Equal(t, "area", (&Measurement{SquareFeet: fptr(100)}).MeasurementType())
	assert.Equal(t, "linear", (&Measurement{LinearFeet: fptr(75)}).MeasurementType())
	assert.Equal(t, "count", (&Measurement{Count: fptr(3)}).MeasurementType())
	assert.Equal(t, "unknown", (&Measurement{Quantity: fptr(8)}).MeasurementType())
	assert.Equal(t, "unknown", (&Measurement{}).MeasurementType())
}

func TestMeasurementDisplay(t *testing.T) {
	unit := UnitCubicYards
	tests := []struct {
		name string
		m    Measurement
		want string
	}{
		{"area", Measurement{SquareFeet: fptr(3550)}, "3550 SF"},
		{"linear", Measurement{LinearFeet: fptr(75)}, "75 LF"},
		{"count", Measurement{Count: fptr(3)}, "3 EA"},
		{"quantity with unit", Measurement{Quantity: fptr(8), Unit: &unit}, "8 CY"},
		{"quantity without unit", Measurement{Quantity: fptr(8)}, "8"},
		{"fractional trims zeros", Measurement{SquareFeet: fptr(4.5)}, "4.5 SF"},
		{"empty", Measurement{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.m.Display())
		})
	}
}

func TestIsAllowedUnit(t *testing.T) {
	for _, u := range AllowedUnits {
		assert.True(t, IsAllowedUnit(u))
	}
	assert.True(t, IsAllowedUnit(UnitSquareYards))
	assert.False(t, IsAllowedUnit("SQFT"))
	assert.False(t, IsAllowedUnit(""))
}

func TestIsAllowedCategory(t *testing.T) {
	assert.True(t, IsAllowedCategory(CategoryWall))
	assert.True(t, IsAllowedCategory(CategoryFireProtection))
	assert.False(t, IsAllowedCategory("spaceship"))
}

func TestPositionalID(t *testing.T) {
	assert.Equal(t, "item_0", PositionalID(0))
	assert.Equal(t, "item_12", PositionalID(12))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Remove partition", (&DemolitionItem{Name: "Remove partition"}).DisplayName())
	assert.Equal(t, "From plans", (&DemolitionItem{Name: "  ", Description: "From plans"}).DisplayName())
	assert.Equal(t, "Unnamed Item", (&DemolitionItem{}).DisplayName())
}
