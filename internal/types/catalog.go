package types

import (
	"time"

	"github.com/google/uuid"
)

// PriceCatalogEntry is one named, priced line of a user's pricesheet.
// Read-only reference data for the extraction pipeline.
type PriceCatalogEntry struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}
