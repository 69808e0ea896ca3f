// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/dmarsh/bidflow/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintDocumentOverview outputs the contractor and project metadata pulled
// from the first extraction pass.
func (p *Printer) PrintDocumentOverview(result *types.BidExtractionResult) {
	if result == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Contractor: %s\n", result.ContractorInfo.CompanyName))
	if result.ClientInfo.CompanyName != "" {
		sb.WriteString(fmt.Sprintf("Client:     %s\n", result.ClientInfo.CompanyName))
	}
	if result.ProjectDetails.ProjectName != "" {
		sb.WriteString(fmt.Sprintf("Project:    %s\n", result.ProjectDetails.ProjectName))
	}
	if result.ProjectDetails.DocumentType != "" {
		sb.WriteString(fmt.Sprintf("Doc type:   %s\n", result.ProjectDetails.DocumentType))
	}
	sb.WriteString(fmt.Sprintf("Method:     %s", result.Method))

	if len(result.Exclusions) > 0 {
		sb.WriteString("\n\nExclusions:\n")
		count := min(len(result.Exclusions), 3)
		for i := 0; i < count; i++ {
			excl := result.Exclusions[i]
			if len(excl) > 50 {
				excl = excl[:47] + "..."
			}
			sb.WriteString(fmt.Sprintf("  • %s\n", excl))
		}
		if len(result.Exclusions) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(result.Exclusions)-3))
		}
	}

	p.printBox("DOCUMENT OVERVIEW", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDemolitionItems outputs the top N extracted items with measurements
// and pricing indicators.
func (p *Printer) PrintDemolitionItems(items []types.DemolitionItem) {
	if len(items) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total items extracted: %d\n\n", len(items)))

	count := min(len(items), maxItemsToShow)
	for i := 0; i < count; i++ {
		item := items[i]
		name := item.DisplayName()
		if len(name) > 45 {
			name = name[:42] + "..."
		}
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, name))
		sb.WriteString(fmt.Sprintf("    Category: %s", item.Category))
		if display := item.Measurements.Display(); display != "" {
			sb.WriteString(fmt.Sprintf("  (%s)", display))
		}
		sb.WriteString("\n")

		checks := []string{}
		if item.PricesheetMatch.Matched {
			checks = append(checks, "✓pricesheet")
		}
		if item.PriceCalculation.HasValidPrice {
			checks = append(checks, fmt.Sprintf("$%.2f total", item.PriceCalculation.TotalPrice))
		}
		if len(checks) > 0 {
			sb.WriteString(fmt.Sprintf("    [%s]\n", strings.Join(checks, " ")))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more items", len(items)-maxItemsToShow))
	}

	p.printBox("EXTRACTED DEMOLITION ITEMS", sb.String())
}

// PrintPricingSummary outputs the cost rollup for the processed document.
func (p *Printer) PrintPricingSummary(summary *types.PricingSummary) {
	if summary == nil || summary.TotalItems == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total calculated cost:  $%.2f\n\n", summary.TotalCalculatedCost))
	sb.WriteString(fmt.Sprintf("Items priced:           %d\n", summary.ItemsWithPrices))
	sb.WriteString(fmt.Sprintf("Pricesheet matches:     %d\n", summary.ItemsWithPricesheetMatch))
	sb.WriteString(fmt.Sprintf("Items without prices:   %d\n", summary.ItemsWithoutPrices))
	if summary.ItemsWithErrors > 0 {
		sb.WriteString(fmt.Sprintf("Items with errors:      %d\n", summary.ItemsWithErrors))
	}
	sb.WriteString(fmt.Sprintf("Total items:            %d", summary.TotalItems))

	p.printBox("PRICING SUMMARY", sb.String())
}

// PrintPhaseStatus outputs per-phase success indicators, or a warning box
// when any phase degraded.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintPhaseStatus(result *types.BidExtractionResult) {
	if result == nil {
		return
	}

	phases := result.ProcessingPhases
	if phases.Phase1Success && phases.Phase2ASuccess && phases.Phase2BSuccess {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ ALL PHASES COMPLETED")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Metadata extraction:    %s\n", phaseMark(phases.Phase1Success)))
	sb.WriteString(fmt.Sprintf("Item identification:    %s\n", phaseMark(phases.Phase2ASuccess)))
	sb.WriteString(fmt.Sprintf("Measurement extraction: %s\n", phaseMark(phases.Phase2BSuccess)))

	if result.ExtractionNotes != "" {
		notes := result.ExtractionNotes
		if len(notes) > 50 {
			notes = notes[:47] + "..."
		}
		sb.WriteString(fmt.Sprintf("\n⚠ %s", notes))
	}

	p.printBox("PROCESSING PHASES", strings.TrimSuffix(sb.String(), "\n"))
}

func phaseMark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗ degraded"
}
