package extraction

import (
	"context"
	"strconv"

	"github.com/dmarsh/bidflow/internal/llm"
	"github.com/dmarsh/bidflow/internal/match"
	"github.com/dmarsh/bidflow/internal/prompts"
	"github.com/dmarsh/bidflow/internal/repair"
	"github.com/dmarsh/bidflow/internal/types"
)

type wirePhase2A struct {
	Success         bool       `json:"success"`
	TotalItems      int        `json:"totalItems"`
	DemolitionItems []wireItem `json:"demolitionItems"`
}

// runPhase2A identifies demolition items by name and category, with the full
// price catalog rendered into the prompt so the model can propose matches.
// Model-proposed matches are then cross-checked by a local fuzzy pass that
// only adds matches the model missed.
func (o *Orchestrator) runPhase2A(ctx context.Context, doc types.RawDocument, phase1 types.Phase1Payload, catalog []types.PriceCatalogEntry) types.PhaseResult[[]types.DemolitionItem] {
	contractor := phase1.ContractorInfo.CompanyName
	if contractor == "" {
		contractor = "Unknown"
	}
	expected := "Multiple"
	if phase1.BasicItemCount > 0 {
		expected = strconv.Itoa(phase1.BasicItemCount)
	}

	prompt := prompts.Format(prompts.MustGet("extraction.json", "phase2a-items"), map[string]string{
		"ContractorName":    contractor,
		"ExpectedItems":     expected,
		"PricesheetSection": buildCatalogSection(catalog, true),
	})

	text, err := o.generate(ctx, doc, prompt, llm.TierStandard)
	if err != nil {
		return failure[[]types.DemolitionItem](&APICallError{Phase: "phase2a", Cause: err})
	}

	var wire wirePhase2A
	if err := repair.Unmarshal(text, &wire); err != nil {
		return failure[[]types.DemolitionItem](&ParseError{Phase: "phase2a", Cause: err})
	}

	items := toItems(wire.DemolitionItems)
	match.EnhanceCatalogMatches(items, catalog)
	return success(items)
}
