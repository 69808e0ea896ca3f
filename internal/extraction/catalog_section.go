package extraction

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dmarsh/bidflow/internal/prompts"
	"github.com/dmarsh/bidflow/internal/types"
)

// buildCatalogSection renders the user's price catalog as a prompt section,
// grouped by category, so the model can match extracted items against known
// priced work. Returns "" when the catalog is empty; the prompt then carries
// no matching instructions at all.
func buildCatalogSection(catalog []types.PriceCatalogEntry, withRules bool) string {
	if len(catalog) == 0 {
		return ""
	}

	byCategory := make(map[string][]types.PriceCatalogEntry)
	for _, entry := range catalog {
		category := strings.TrimSpace(entry.Category)
		if category == "" {
			category = "Uncategorized"
		}
		byCategory[category] = append(byCategory[category], entry)
	}

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var sb strings.Builder
	sb.WriteString(prompts.MustGet("extraction.json", "pricesheet-section-intro"))
	for _, category := range categories {
		sb.WriteString(strings.ToUpper(category))
		sb.WriteString(":\n")
		for _, entry := range byCategory[category] {
			fmt.Fprintf(&sb, "- %q (Price: $%v)\n", entry.Name, entry.Price)
		}
		sb.WriteString("\n")
	}
	if withRules {
		sb.WriteString(prompts.MustGet("extraction.json", "pricesheet-matching-rules"))
	}
	return sb.String()
}
