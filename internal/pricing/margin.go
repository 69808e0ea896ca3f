package pricing

import "github.com/dmarsh/bidflow/internal/types"

// MarginResult reports the spread between what the contractor proposes to
// bid and what the catalog-priced work costs.
type MarginResult struct {
	Margin           float64 `json:"margin"`
	MarginPercentage float64 `json:"marginPercentage"`
	Valid            bool    `json:"isValid"`
	ProposedBid      float64 `json:"proposedBid,omitempty"`
	CalculatedCost   float64 `json:"calculatedCost,omitempty"`
	Error            string  `json:"error,omitempty"`
}

// Margin computes the bid margin against the calculated cost. A zero cost
// makes the percentage undefined, so the result is flagged invalid instead
// of dividing by zero.
func Margin(proposedBid, calculatedCost float64) MarginResult {
	if calculatedCost == 0 {
		return MarginResult{
			Valid: false,
			Error: "cannot calculate margin when calculated cost is zero",
		}
	}

	margin := proposedBid - calculatedCost
	return MarginResult{
		Margin:           margin,
		MarginPercentage: margin / calculatedCost * 100,
		Valid:            true,
		ProposedBid:      proposedBid,
		CalculatedCost:   calculatedCost,
	}
}

// ProposedTotal sums the per-item proposed bids. The second return reports
// whether any item carried one at all; a bid with no proposals has no margin
// to show.
func ProposedTotal(items []types.DemolitionItem) (float64, bool) {
	total := 0.0
	found := false
	for i := range items {
		if items[i].ProposedBid != nil {
			total += *items[i].ProposedBid
			found = true
		}
	}
	return total, found
}
