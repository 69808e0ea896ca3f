package types

// RawDocument is the immutable uploaded input. The pipeline never mutates it.
type RawDocument struct {
	Bytes    []byte
	Filename string
	MimeType string
}

// PhaseResult is the transient envelope produced by each extraction phase and
// consumed only by the orchestrator and the following phase.
type PhaseResult[T any] struct {
	Success bool
	Payload T
	Err     string
}

// ContractorInfo is the bidding contractor's identity as written in the
// document.
type ContractorInfo struct {
	CompanyName   string `json:"companyName,omitempty"`
	Address       string `json:"address,omitempty"`
	Phone         string `json:"phone,omitempty"`
	ContactPerson string `json:"contactPerson,omitempty"`
	Email         string `json:"email,omitempty"`
	License       string `json:"license,omitempty"`
}

// ClientInfo identifies the party the bid is addressed to.
type ClientInfo struct {
	CompanyName string `json:"companyName,omitempty"`
	Address     string `json:"address,omitempty"`
}

// ProjectDetails holds the document-level project metadata.
type ProjectDetails struct {
	DocumentType string `json:"documentType,omitempty"`
	BidDate      string `json:"bidDate,omitempty"`
	ProjectName  string `json:"projectName,omitempty"`
	Location     string `json:"location,omitempty"`
}

// ScopeOfWork splits the document's demolition tasks into removals and items
// explicitly marked to remain.
type ScopeOfWork struct {
	ItemsToRemove []string `json:"itemsToRemove,omitempty"`
	ItemsToRemain []string `json:"itemsToRemain,omitempty"`
}

// PriceInfo carries document-level price mentions found during Phase 1.
type PriceInfo struct {
	TotalAmount string   `json:"totalAmount,omitempty"`
	Includes    []string `json:"includes,omitempty"`
}

// Phase1Payload is the document metadata extracted by the first model call.
// BasicItemCount is a coarse hint used only to steer the item-identification
// phase, never as a hard expectation.
type Phase1Payload struct {
	ContractorInfo       ContractorInfo `json:"contractorInfo"`
	ClientInfo           ClientInfo     `json:"clientInfo"`
	ProjectDetails       ProjectDetails `json:"projectDetails"`
	BasicItemCount       int            `json:"basicItemCount"`
	SectionHeaders       []string       `json:"sectionHeaders,omitempty"`
	ScopeOfWork          ScopeOfWork    `json:"scopeOfWork"`
	SpecialNotes         []string       `json:"specialNotes,omitempty"`
	PriceInfo            PriceInfo      `json:"priceInfo"`
	Exclusions           []string       `json:"exclusions,omitempty"`
	AdditionalConditions []string       `json:"additionalConditions,omitempty"`
}

// RawMeasurement is one document line captured verbatim by the raw
// measurement-extraction step: item phrase plus its literal measurement text,
// no interpretation.
type RawMeasurement struct {
	Item            string `json:"item"`
	MeasurementText string `json:"measurementText"`
}

// NormalizedMeasurement pairs an item phrase with its normalized measurement.
type NormalizedMeasurement struct {
	Item         string      `json:"item"`
	Measurements Measurement `json:"measurements"`
}

// PricingSummary is the bid-level rollup over all demolition items.
type PricingSummary struct {
	TotalCalculatedCost      float64 `json:"totalCalculatedCost"`
	ItemsWithPrices          int     `json:"itemsWithCalculatedPrices"`
	ItemsWithPricesheetMatch int     `json:"itemsWithPricesheetMatch"`
	ItemsWithoutPrices       int     `json:"itemsWithoutPrices"`
	ItemsWithErrors          int     `json:"itemsWithErrors"`
	TotalItems               int     `json:"totalItems"`
	CalculationMethod        string  `json:"calculationMethod,omitempty"`
}

// ProcessingPhases records the per-phase outcome of one extraction run.
type ProcessingPhases struct {
	Phase1Success  bool `json:"phase1Success"`
	Phase2ASuccess bool `json:"phase2ASuccess"`
	Phase2BSuccess bool `json:"phase2BSuccess"`
}

// BidExtractionResult is the aggregate output of one document-processing run.
// It is always populated, even on total failure, and immutable once returned;
// later user edits operate on the persisted copy.
type BidExtractionResult struct {
	Success          bool             `json:"success"`
	Method           string           `json:"method"`
	ContractorInfo   ContractorInfo   `json:"contractorInfo"`
	ClientInfo       ClientInfo       `json:"clientInfo"`
	ProjectDetails   ProjectDetails   `json:"projectDetails"`
	ScopeOfWork      ScopeOfWork      `json:"scopeOfWork"`
	SpecialNotes     []string         `json:"specialNotes,omitempty"`
	PriceInfo        PriceInfo        `json:"priceInfo"`
	Exclusions       []string         `json:"exclusions,omitempty"`
	DemolitionItems  []DemolitionItem `json:"demolitionItems"`
	TotalItems       int              `json:"totalItems"`
	PricingSummary   PricingSummary   `json:"pricingSummary"`
	ProcessingPhases ProcessingPhases `json:"processingPhases"`
	ExtractionNotes  string           `json:"extractionNotes,omitempty"`
}
