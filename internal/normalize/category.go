package normalize

import (
	"strings"

	"github.com/dmarsh/bidflow/internal/types"
)

// categoryAliases maps labels the model is known to emit onto canonical
// categories before the generic lowercase fallthrough.
var categoryAliases = map[string]types.Category{
	"HVAC":       types.CategoryHVAC,
	"MEP":        types.CategoryElectrical,
	"Storefront": types.CategoryStorefront,
	"demolition": types.CategoryOther,
}

// Category maps a raw model-provided category label to one of the allowed
// canonical categories. Compound labels keep only the segment before the
// first comma. Anything unrecognized collapses to "other".
func Category(raw string) types.Category {
	label := strings.TrimSpace(raw)
	if i := strings.Index(label, ","); i >= 0 {
		label = strings.TrimSpace(label[:i])
	}
	if label == "" {
		return types.CategoryOther
	}
	if c, ok := categoryAliases[label]; ok {
		return c
	}
	c := types.Category(strings.ToLower(label))
	if types.IsAllowedCategory(c) {
		return c
	}
	return types.CategoryOther
}
