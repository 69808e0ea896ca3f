// Package match locates demolition items by external identifier and
// cross-checks model-proposed price-catalog matches with a local fuzzy pass.
package match

import (
	"regexp"
	"strconv"

	"github.com/dmarsh/bidflow/internal/types"
)

var rePositionalID = regexp.MustCompile(`^item_(\d+)$`)

// FindItem resolves an external identifier to an index into items. Strategies
// run in fixed order, first hit wins: itemNumber equality, persisted internal
// id equality, then an "item_<N>" zero-based positional reference accepted
// only when N is within bounds. Returns -1, false when nothing matches.
func FindItem(items []types.DemolitionItem, id string) (int, bool) {
	if id == "" {
		return -1, false
	}

	for i := range items {
		if items[i].ItemNumber != "" && items[i].ItemNumber == id {
			return i, true
		}
	}
	for i := range items {
		if items[i].InternalID != "" && items[i].InternalID == id {
			return i, true
		}
	}
	if m := rePositionalID.FindStringSubmatch(id); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n >= 0 && n < len(items) {
			return n, true
		}
	}
	return -1, false
}
