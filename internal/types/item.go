package types

import (
	"strconv"
	"strings"
	"time"
)

// CalculationMethod records which price source resolved an item's unit price.
type CalculationMethod string

// Calculation method values.
const (
	MethodPricesheet  CalculationMethod = "pricesheet"
	MethodManual      CalculationMethod = "manual"
	MethodAIExtracted CalculationMethod = "ai_extracted"
	MethodError       CalculationMethod = "error"
)

// PricesheetMatch records a resolved price-catalog match for an item.
type PricesheetMatch struct {
	Matched   bool     `json:"matched"`
	ItemName  string   `json:"itemName,omitempty"`
	ItemPrice *float64 `json:"itemPrice"`
	ItemID    string   `json:"itemId,omitempty"`
}

// PriceCalculation is the derived pricing metadata attached to each item.
// TotalPrice equals Quantity * UnitPrice exactly when HasValidPrice is true
// and Quantity > 0, else 0.
type PriceCalculation struct {
	Quantity          float64           `json:"quantity"`
	UnitPrice         float64           `json:"unitPrice"`
	TotalPrice        float64           `json:"totalPrice"`
	CalculationMethod CalculationMethod `json:"calculationMethod"`
	HasValidPrice     bool              `json:"hasValidPrice"`
	MeasurementType   string            `json:"measurementType"`
	LastCalculated    time.Time         `json:"lastCalculated"`
	Error             string            `json:"error,omitempty"`
}

// DemolitionItem is one structured line of demolition work. Items are never
// physically removed by the pipeline; IsActive=false is the only deletion
// mechanism.
type DemolitionItem struct {
	ItemNumber  string   `json:"itemNumber,omitempty"`
	InternalID  string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Category    Category `json:"category"`
	Action      string   `json:"action,omitempty"`

	Measurements Measurement `json:"measurements"`

	// Pricing is the free-text price phrase as extracted from the document
	// ("$4.50/SF", "1,200"); UnitPrice/TotalPrice are explicit user-supplied
	// values. All three feed the resolver's fallback chain.
	Pricing    string `json:"pricing,omitempty"`
	UnitPrice  string `json:"unitPrice,omitempty"`
	TotalPrice string `json:"totalPrice,omitempty"`

	PricesheetMatch PricesheetMatch `json:"pricesheetMatch"`

	CalculatedUnitPrice  float64          `json:"calculatedUnitPrice"`
	CalculatedTotalPrice float64          `json:"calculatedTotalPrice"`
	ProposedBid          *float64         `json:"proposedBid"`
	PriceCalculation     PriceCalculation `json:"priceCalculation"`

	Notes    string `json:"notes,omitempty"`
	IsActive bool   `json:"isActive"`
	Location string `json:"location,omitempty"`
}

// PositionalID returns the index-based identifier used when an item has no
// persisted id, e.g. "item_2" for index 2.
func PositionalID(index int) string {
	return "item_" + strconv.Itoa(index)
}

// DisplayName returns the best available human-readable name for the item.
func (d *DemolitionItem) DisplayName() string {
	if s := strings.TrimSpace(d.Name); s != "" {
		return s
	}
	if s := strings.TrimSpace(d.Description); s != "" {
		return s
	}
	return "Unnamed Item"
}
