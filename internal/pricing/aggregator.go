package pricing

import "github.com/dmarsh/bidflow/internal/types"

// Summarize reduces a set of items into the bid-level pricing rollup. The
// reduction is order-independent and side-effect free; only items with a
// valid resolved price contribute to the total.
func Summarize(items []types.DemolitionItem) types.PricingSummary {
	summary := types.PricingSummary{
		TotalItems:        len(items),
		CalculationMethod: "automatic",
	}

	for i := range items {
		calc := items[i].PriceCalculation
		switch {
		case calc.CalculationMethod == types.MethodError:
			summary.ItemsWithErrors++
		case calc.HasValidPrice:
			summary.ItemsWithPrices++
			summary.TotalCalculatedCost += items[i].CalculatedTotalPrice
		default:
			summary.ItemsWithoutPrices++
		}
		if items[i].PricesheetMatch.Matched {
			summary.ItemsWithPricesheetMatch++
		}
	}
	return summary
}
