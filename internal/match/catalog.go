package match

import (
	"strings"

	"github.com/dmarsh/bidflow/internal/types"
)

// domainTerms are demolition vocabulary strong enough that sharing any one of
// them counts as a catalog match on its own.
var domainTerms = []string{
	"wall", "door", "ceiling", "floor", "electrical", "plumbing",
	"removal", "remove", "demolition", "demo",
}

// EnhanceCatalogMatches runs a local fuzzy pass over items that the model
// left unmatched, comparing each against the price catalog by substring and
// shared-term heuristics. It only ever adds matches; an existing model match
// is never overridden.
func EnhanceCatalogMatches(items []types.DemolitionItem, catalog []types.PriceCatalogEntry) {
	for i := range items {
		if items[i].PricesheetMatch.Matched {
			continue
		}

		name := strings.ToLower(strings.TrimSpace(items[i].Description))
		if name == "" {
			name = strings.ToLower(strings.TrimSpace(items[i].Name))
		}
		if name == "" {
			continue
		}

		for _, entry := range catalog {
			entryName := strings.ToLower(strings.TrimSpace(entry.Name))
			if entryName == "" || !namesRelated(name, entryName) {
				continue
			}
			price := entry.Price
			items[i].PricesheetMatch = types.PricesheetMatch{
				Matched:   true,
				ItemName:  entry.Name,
				ItemPrice: &price,
				ItemID:    entry.ID.String(),
			}
			break
		}
	}
}

func namesRelated(a, b string) bool {
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	for _, term := range domainTerms {
		if strings.Contains(a, term) && strings.Contains(b, term) {
			return true
		}
	}
	return sharesWord(a, b)
}

// sharesWord reports whether the two names have any word longer than two
// characters in common.
func sharesWord(a, b string) bool {
	bWords := make(map[string]struct{})
	for _, w := range strings.Fields(b) {
		if len(w) > 2 {
			bWords[w] = struct{}{}
		}
	}
	for _, w := range strings.Fields(a) {
		if len(w) <= 2 {
			continue
		}
		if _, ok := bWords[w]; ok {
			return true
		}
	}
	return false
}
