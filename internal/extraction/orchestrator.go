// Package extraction runs the phased bid document pipeline: document-level
// metadata, demolition item identification with catalog matching, then
// measurement extraction, normalization, and alignment. Phases run strictly
// in order because each phase's prompt builds on the previous payload.
// The orchestrator never returns an error; total failure degrades to a
// partial, explainable result.
package extraction

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmarsh/bidflow/internal/llm"
	"github.com/dmarsh/bidflow/internal/pricing"
	"github.com/dmarsh/bidflow/internal/types"
)

// CatalogSource supplies the user's price catalog. Fetched once per run,
// before item identification; the snapshot is read-only for the rest of the
// run.
type CatalogSource interface {
	CatalogForOwner(ctx context.Context, ownerID string) ([]types.PriceCatalogEntry, error)
}

// Orchestrator wires the model client, the optional catalog source, and the
// phase sequence together. Safe for concurrent use; each Extract call is an
// independent run with no shared mutable state.
type Orchestrator struct {
	client  llm.Client
	catalog CatalogSource
	now     func() time.Time
	logOut  io.Writer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithCatalogSource attaches a price catalog provider. Without one, items
// are extracted unmatched and priced only from document text.
func WithCatalogSource(src CatalogSource) Option {
	return func(o *Orchestrator) { o.catalog = src }
}

// WithClock overrides the timestamp source used for price calculations.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithLogOutput directs step logging to w. Discarded by default.
func WithLogOutput(w io.Writer) Option {
	return func(o *Orchestrator) { o.logOut = w }
}

// NewOrchestrator creates an extraction pipeline over the given model client.
func NewOrchestrator(client llm.Client, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client: client,
		now:    time.Now,
		logOut: io.Discard,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) logf(format string, args ...any) {
	fmt.Fprintf(o.logOut, format+"\n", args...)
}

func (o *Orchestrator) generate(ctx context.Context, doc types.RawDocument, prompt string, tier llm.ModelTier) (string, error) {
	p, content := PreparerFor(doc.MimeType).Prepare(doc, prompt)
	return o.client.GenerateJSONWithContent(ctx, p, content, tier)
}

// Extract runs the full pipeline over one document. ownerID scopes the price
// catalog; pass "" to extract without catalog matching. The returned result
// is always populated, even on total failure.
func (o *Orchestrator) Extract(ctx context.Context, doc types.RawDocument, ownerID string) types.BidExtractionResult {
	o.logf("processing %s (%s)", doc.Filename, doc.MimeType)

	catalog := o.fetchCatalog(ctx, ownerID)

	phase1 := o.runPhase1(ctx, doc)
	if !phase1.Success {
		o.logf("phase1 failed: %s", phase1.Err)
		return o.failureResult(doc, fmt.Sprintf("phase1: %s", phase1.Err))
	}
	o.logf("phase1: found %d candidate items", phase1.Payload.BasicItemCount)

	phase2a := o.runPhase2A(ctx, doc, phase1.Payload, catalog)
	if !phase2a.Success {
		o.logf("phase2a failed: %s", phase2a.Err)
		result := o.failureResult(doc, fmt.Sprintf("phase2a: %s", phase2a.Err))
		result.ProcessingPhases.Phase1Success = true
		fillMetadata(&result, phase1.Payload)
		return result
	}
	items := phase2a.Payload
	o.logf("phase2a: identified %d items", len(items))

	result := types.BidExtractionResult{
		Success: true,
		Method:  "gemini-three-phase",
		ProcessingPhases: types.ProcessingPhases{
			Phase1Success:  true,
			Phase2ASuccess: true,
		},
	}
	fillMetadata(&result, phase1.Payload)

	items, phase2bOK, notes := o.runMeasurementPhase(ctx, doc, items, &result)
	result.ProcessingPhases.Phase2BSuccess = phase2bOK
	if !phase2bOK {
		result.Success = false
	}
	result.ExtractionNotes = notes

	pricing.Apply(items, o.now())
	result.DemolitionItems = items
	result.TotalItems = len(items)
	result.PricingSummary = pricing.Summarize(items)
	if len(items) == 0 {
		result.PricingSummary.CalculationMethod = "no_items_found"
	}

	o.logf("done: %d items, total %.2f", result.TotalItems, result.PricingSummary.TotalCalculatedCost)
	return result
}

// runMeasurementPhase executes the primary raw -> normalize -> align path
// and falls back to a single combined call when any sub-step fails.
func (o *Orchestrator) runMeasurementPhase(ctx context.Context, doc types.RawDocument, items []types.DemolitionItem, result *types.BidExtractionResult) ([]types.DemolitionItem, bool, string) {
	if len(items) == 0 {
		o.logf("phase2b: no items to measure")
		return items, true, "No demolition items were identified in the document."
	}

	raw := o.runRawMeasurementExtraction(ctx, doc)
	if raw.Success {
		o.logf("phase2b: extracted %d raw measurement lines", len(raw.Payload))
		normalized := normalizeMeasurements(raw.Payload)
		alignMeasurements(items, normalized)
		return items, true, ""
	}
	o.logf("phase2b raw step failed (%s), using fallback", raw.Err)

	fallback := o.runFallbackMeasurementExtraction(ctx, doc, items)
	if fallback.Success {
		result.Method = "gemini-fallback"
		return fallback.Payload, true, "Measurements extracted via fallback single-pass path."
	}
	o.logf("phase2b fallback failed: %s", fallback.Err)

	// Both paths exhausted: keep the identified items, measurements empty,
	// for manual completion.
	return items, false, fmt.Sprintf("Measurement extraction failed (%s); items listed without measurements for manual review.", fallback.Err)
}

func (o *Orchestrator) fetchCatalog(ctx context.Context, ownerID string) []types.PriceCatalogEntry {
	if o.catalog == nil || ownerID == "" {
		return nil
	}
	catalog, err := o.catalog.CatalogForOwner(ctx, ownerID)
	if err != nil {
		o.logf("catalog fetch failed, extracting without matching: %v", err)
		return nil
	}
	o.logf("catalog: %d entries for owner %s", len(catalog), ownerID)
	return catalog
}

// failureResult is the degraded envelope returned when the phase chain fails
// before any items exist. The caller always receives a populated result.
func (o *Orchestrator) failureResult(doc types.RawDocument, cause string) types.BidExtractionResult {
	name := strings.TrimSuffix(doc.Filename, filepath.Ext(doc.Filename))
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	if name == "" {
		name = "Unknown Company"
	}

	return types.BidExtractionResult{
		Success: false,
		Method:  "fallback-document-extraction",
		ContractorInfo: types.ContractorInfo{
			CompanyName:   name,
			Address:       "To be determined",
			Phone:         "To be determined",
			ContactPerson: "To be determined",
			Email:         "To be determined",
			License:       "To be determined",
		},
		ClientInfo: types.ClientInfo{
			CompanyName: "To be determined",
			Address:     "To be determined",
		},
		ProjectDetails: types.ProjectDetails{
			ProjectName:  "To be determined",
			Location:     "To be determined",
			DocumentType: "To be determined",
		},
		DemolitionItems: []types.DemolitionItem{},
		ExtractionNotes: fmt.Sprintf("Failed to extract data from %s - manual review required. Error: %s", doc.Filename, cause),
	}
}

func fillMetadata(result *types.BidExtractionResult, p types.Phase1Payload) {
	result.ContractorInfo = p.ContractorInfo
	result.ClientInfo = p.ClientInfo
	result.ProjectDetails = p.ProjectDetails
	result.ScopeOfWork = p.ScopeOfWork
	result.SpecialNotes = p.SpecialNotes
	result.PriceInfo = p.PriceInfo
	result.Exclusions = p.Exclusions
}
