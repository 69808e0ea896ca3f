// Package pricing derives unit and total prices for demolition items and
// rolls them up into a bid-level summary. Resolution is pure and idempotent;
// re-running it over unchanged items yields identical output.
package pricing

import (
	"fmt"
	"time"

	"github.com/dmarsh/bidflow/internal/normalize"
	"github.com/dmarsh/bidflow/internal/types"
)

// Resolve computes a PriceCalculation for one item. Price sources are tried
// in priority order, first positive value wins:
//
//  1. matched price-catalog entry (method "pricesheet")
//  2. explicit unitPrice on the item (method "manual")
//  3. numeric value parsed from the free-text pricing or totalPrice field
//     (method "ai_extracted")
//  4. totalPrice divided by quantity when quantity > 0 (method "ai_extracted")
//
// When no source yields a positive unit price the item is left unpriced:
// unitPrice 0, hasValidPrice false, method "manual". Any panic during
// resolution is contained to the item and recorded as method "error".
func Resolve(item types.DemolitionItem, now time.Time) (calc types.PriceCalculation) {
	defer func() {
		if r := recover(); r != nil {
			calc = types.PriceCalculation{
				CalculationMethod: types.MethodError,
				MeasurementType:   item.Measurements.MeasurementType(),
				LastCalculated:    now,
				Error:             fmt.Sprintf("price resolution failed: %v", r),
			}
		}
	}()

	quantity := item.Measurements.Scalar()

	unitPrice, method := resolveUnitPrice(item, quantity)

	calc = types.PriceCalculation{
		Quantity:          quantity,
		UnitPrice:         unitPrice,
		CalculationMethod: method,
		HasValidPrice:     unitPrice > 0,
		MeasurementType:   item.Measurements.MeasurementType(),
		LastCalculated:    now,
	}
	if unitPrice > 0 && quantity > 0 {
		calc.TotalPrice = quantity * unitPrice
	}
	return calc
}

func resolveUnitPrice(item types.DemolitionItem, quantity float64) (float64, types.CalculationMethod) {
	if m := item.PricesheetMatch; m.Matched && m.ItemPrice != nil && *m.ItemPrice > 0 {
		return *m.ItemPrice, types.MethodPricesheet
	}
	if v, ok := normalize.ParseNumber(item.UnitPrice); ok && v > 0 {
		return v, types.MethodManual
	}
	if v, ok := normalize.FirstNumber(item.Pricing); ok && v > 0 {
		return v, types.MethodAIExtracted
	}
	if total, ok := normalize.ParseNumber(item.TotalPrice); ok && total > 0 && quantity > 0 {
		return total / quantity, types.MethodAIExtracted
	}
	return 0, types.MethodManual
}

// Apply resolves prices for every item in place and stamps the derived
// fields. Items are processed independently; one item's failure never stops
// the rest.
func Apply(items []types.DemolitionItem, now time.Time) {
	for i := range items {
		calc := Resolve(items[i], now)
		items[i].PriceCalculation = calc
		items[i].CalculatedUnitPrice = calc.UnitPrice
		items[i].CalculatedTotalPrice = calc.TotalPrice
	}
}
