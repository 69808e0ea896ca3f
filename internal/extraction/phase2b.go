package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmarsh/bidflow/internal/llm"
	"github.com/dmarsh/bidflow/internal/normalize"
	"github.com/dmarsh/bidflow/internal/prompts"
	"github.com/dmarsh/bidflow/internal/repair"
	"github.com/dmarsh/bidflow/internal/types"
)

type wireRawMeasurements struct {
	Success         bool `json:"success"`
	RawMeasurements []struct {
		Item            flexString `json:"item"`
		MeasurementText flexString `json:"measurementText"`
	} `json:"rawMeasurements"`
}

// runRawMeasurementExtraction asks the model for every document line pairing
// an item with its literal measurement text, verbatim and uninterpreted.
func (o *Orchestrator) runRawMeasurementExtraction(ctx context.Context, doc types.RawDocument) types.PhaseResult[[]types.RawMeasurement] {
	prompt := prompts.MustGet("extraction.json", "phase2b-raw")
	text, err := o.generate(ctx, doc, prompt, llm.TierStandard)
	if err != nil {
		return failure[[]types.RawMeasurement](&APICallError{Phase: "raw measurement", Cause: err})
	}

	var wire wireRawMeasurements
	if err := repair.Unmarshal(text, &wire); err != nil {
		return failure[[]types.RawMeasurement](&ParseError{Phase: "raw measurement", Cause: err})
	}

	raw := make([]types.RawMeasurement, 0, len(wire.RawMeasurements))
	for _, m := range wire.RawMeasurements {
		raw = append(raw, types.RawMeasurement{
			Item:            strings.TrimSpace(m.Item.String()),
			MeasurementText: strings.TrimSpace(m.MeasurementText.String()),
		})
	}
	return success(raw)
}

// normalizeMeasurements runs each raw measurement through the deterministic
// unit-rule table. No model call involved.
func normalizeMeasurements(raw []types.RawMeasurement) []types.NormalizedMeasurement {
	normalized := make([]types.NormalizedMeasurement, 0, len(raw))
	for _, r := range raw {
		normalized = append(normalized, types.NormalizedMeasurement{
			Item:         r.Item,
			Measurements: normalize.Measurement(r.MeasurementText),
		})
	}
	return normalized
}

// alignMeasurements merges normalized measurements into the identified items,
// matching by item name first and by position as a last resort. Each
// measurement is consumed at most once.
func alignMeasurements(items []types.DemolitionItem, normalized []types.NormalizedMeasurement) {
	taken := make([]bool, len(items))

	assign := func(idx int, m types.Measurement) {
		items[idx].Measurements = m
		taken[idx] = true
	}

	var unplaced []int
	for ni, n := range normalized {
		idx := findByName(items, taken, n.Item)
		if idx >= 0 {
			assign(idx, n.Measurements)
			continue
		}
		unplaced = append(unplaced, ni)
	}

	// Positional pass for measurements whose item name did not line up with
	// any identified item.
	for _, ni := range unplaced {
		if ni < len(items) && !taken[ni] {
			assign(ni, normalized[ni].Measurements)
		}
	}
}

func findByName(items []types.DemolitionItem, taken []bool, name string) int {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return -1
	}
	for i := range items {
		if !taken[i] && strings.ToLower(strings.TrimSpace(items[i].Name)) == needle {
			return i
		}
	}
	for i := range items {
		if taken[i] {
			continue
		}
		candidate := strings.ToLower(strings.TrimSpace(items[i].Name))
		if candidate == "" {
			continue
		}
		if strings.Contains(candidate, needle) || strings.Contains(needle, candidate) {
			return i
		}
	}
	return -1
}

// runFallbackMeasurementExtraction is the single-call alternative used when
// any primary measurement step fails: one prompt listing the identified
// items, asking for measurements in a single pass.
func (o *Orchestrator) runFallbackMeasurementExtraction(ctx context.Context, doc types.RawDocument, items []types.DemolitionItem) types.PhaseResult[[]types.DemolitionItem] {
	prompt := prompts.Format(prompts.MustGet("extraction.json", "phase2b-fallback"), map[string]string{
		"ItemList":   formatItemList(items),
		"TotalItems": fmt.Sprintf("%d", len(items)),
	})

	text, err := o.generate(ctx, doc, prompt, llm.TierStandard)
	if err != nil {
		return failure[[]types.DemolitionItem](&APICallError{Phase: "fallback", Cause: err})
	}

	var wire wirePhase2A
	if err := repair.Unmarshal(text, &wire); err != nil {
		return failure[[]types.DemolitionItem](&ParseError{Phase: "fallback", Cause: err})
	}

	return success(mergeFallbackItems(items, toItems(wire.DemolitionItems)))
}

// mergeFallbackItems combines the identified items with fallback-extracted
// measurements index-wise: identity fields and catalog matches come from the
// identification phase, measurements and pricing text from the fallback call.
func mergeFallbackItems(identified, measured []types.DemolitionItem) []types.DemolitionItem {
	merged := make([]types.DemolitionItem, len(identified))
	copy(merged, identified)

	for i := range merged {
		if i >= len(measured) {
			break
		}
		merged[i].Measurements = measured[i].Measurements
		if merged[i].Pricing == "" {
			merged[i].Pricing = measured[i].Pricing
		}
	}
	return merged
}

func formatItemList(items []types.DemolitionItem) string {
	var sb strings.Builder
	for i, item := range items {
		fmt.Fprintf(&sb, "%d. %s (%s) - %s\n", i+1, item.DisplayName(), item.Category, item.Description)
	}
	return strings.TrimRight(sb.String(), "\n")
}
