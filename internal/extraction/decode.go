package extraction

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/dmarsh/bidflow/internal/normalize"
	"github.com/dmarsh/bidflow/internal/types"
)

// Model output is loosely typed: a field documented as a string may come back
// as a number, a count may come back as "3" or 3 or null. The flex types
// absorb that so the wire structs decode without failing the whole phase.

// flexString decodes JSON strings, numbers, and booleans into a string.
// null decodes to "".
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = ""
		return nil
	}
	if len(s) > 0 && s[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*f = flexString(v)
		return nil
	}
	*f = flexString(s)
	return nil
}

func (f flexString) String() string { return string(f) }

// flexFloat decodes JSON numbers and numeric strings (including "$4,500")
// into a float pointer. null and unparsable values decode to nil rather than
// erroring.
type flexFloat struct {
	Value *float64
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		f.Value = nil
		return nil
	}
	if len(s) > 0 && s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		if v, ok := normalize.ParseNumber(str); ok {
			f.Value = &v
		}
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		f.Value = nil
		return nil
	}
	f.Value = &v
	return nil
}

// wireMeasurement is the measurements object as the model emits it. Zero
// values are treated as absent; the model is told to use 0/null for unknown.
type wireMeasurement struct {
	Quantity   flexFloat  `json:"quantity"`
	Unit       flexString `json:"unit"`
	SquareFeet flexFloat  `json:"squareFeet"`
	LinearFeet flexFloat  `json:"linearFeet"`
	Count      flexFloat  `json:"count"`
	Dimensions flexString `json:"dimensions"`
}

func (w wireMeasurement) toMeasurement() types.Measurement {
	m := types.Measurement{
		Quantity:   positive(w.Quantity.Value),
		SquareFeet: positive(w.SquareFeet.Value),
		LinearFeet: positive(w.LinearFeet.Value),
		Count:      positive(w.Count.Value),
		Dimensions: strings.TrimSpace(w.Dimensions.String()),
	}
	unit := types.MeasurementUnit(strings.ToUpper(strings.TrimSpace(w.Unit.String())))
	if types.IsAllowedUnit(unit) {
		m.Unit = &unit
	}
	return m
}

// positive drops nil and non-positive values; the model uses 0 as "unknown".
func positive(v *float64) *float64 {
	if v == nil || *v <= 0 {
		return nil
	}
	out := *v
	return &out
}

// wireItem is one demolition item as the model emits it, before category
// normalization and price resolution.
type wireItem struct {
	ItemNumber      flexString      `json:"itemNumber"`
	ID              flexString      `json:"id"`
	Name            flexString      `json:"name"`
	Description     flexString      `json:"description"`
	Category        flexString      `json:"category"`
	Action          flexString      `json:"action"`
	Measurements    wireMeasurement `json:"measurements"`
	Pricing         flexString      `json:"pricing"`
	UnitPrice       flexString      `json:"unitPrice"`
	TotalPrice      flexString      `json:"totalPrice"`
	ProposedBid     flexFloat       `json:"proposedBid"`
	PricesheetMatch struct {
		Matched   bool       `json:"matched"`
		ItemName  flexString `json:"itemName"`
		ItemPrice flexFloat  `json:"itemPrice"`
		ItemID    flexString `json:"itemId"`
	} `json:"pricesheetMatch"`
}

func (w wireItem) toItem() types.DemolitionItem {
	item := types.DemolitionItem{
		ItemNumber:   strings.TrimSpace(w.ItemNumber.String()),
		InternalID:   strings.TrimSpace(w.ID.String()),
		Name:         strings.TrimSpace(w.Name.String()),
		Description:  strings.TrimSpace(w.Description.String()),
		Category:     normalize.Category(w.Category.String()),
		Action:       strings.TrimSpace(w.Action.String()),
		Measurements: w.Measurements.toMeasurement(),
		Pricing:      strings.TrimSpace(w.Pricing.String()),
		UnitPrice:    strings.TrimSpace(w.UnitPrice.String()),
		TotalPrice:   strings.TrimSpace(w.TotalPrice.String()),
		ProposedBid:  w.ProposedBid.Value,
		IsActive:     true,
	}
	if item.Action == "" {
		item.Action = "Remove"
	}
	if w.PricesheetMatch.Matched {
		item.PricesheetMatch = types.PricesheetMatch{
			Matched:   true,
			ItemName:  strings.TrimSpace(w.PricesheetMatch.ItemName.String()),
			ItemPrice: w.PricesheetMatch.ItemPrice.Value,
			ItemID:    strings.TrimSpace(w.PricesheetMatch.ItemID.String()),
		}
	}
	return item
}

func toItems(wires []wireItem) []types.DemolitionItem {
	items := make([]types.DemolitionItem, 0, len(wires))
	for _, w := range wires {
		items = append(items, w.toItem())
	}
	return items
}
