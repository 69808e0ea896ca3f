package types

// Category is the fixed classification for a demolition item. Raw extracted
// strings are always coerced into this enum before persistence.
type Category string

// The allowed category values.
const (
	CategoryWall           Category = "wall"
	CategoryCeiling        Category = "ceiling"
	CategoryFloor          Category = "floor"
	CategoryElectrical     Category = "electrical"
	CategoryPlumbing       Category = "plumbing"
	CategoryCleanup        Category = "cleanup"
	CategoryDoor           Category = "door"
	CategoryWindow         Category = "window"
	CategoryFixture        Category = "fixture"
	CategoryHVAC           Category = "hvac"
	CategoryStructural     Category = "structural"
	CategoryInterior       Category = "interior"
	CategoryExterior       Category = "exterior"
	CategoryMechanical     Category = "mechanical"
	CategorySignage        Category = "signage"
	CategoryStorefront     Category = "storefront"
	CategoryFireProtection Category = "fire protection"
	CategoryOther          Category = "other"
)

// AllowedCategories lists every value of the category enum.
var AllowedCategories = []Category{
	CategoryWall, CategoryCeiling, CategoryFloor, CategoryElectrical,
	CategoryPlumbing, CategoryCleanup, CategoryDoor, CategoryWindow,
	CategoryFixture, CategoryHVAC, CategoryStructural, CategoryInterior,
	CategoryExterior, CategoryMechanical, CategorySignage, CategoryStorefront,
	CategoryFireProtection, CategoryOther,
}

// IsAllowedCategory reports whether c is a member of the category enum.
func IsAllowedCategory(c Category) bool {
	for _, allowed := range AllowedCategories {
		if c == allowed {
			return true
		}
	}
	return false
}
