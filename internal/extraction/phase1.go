package extraction

import (
	"context"

	"github.com/dmarsh/bidflow/internal/llm"
	"github.com/dmarsh/bidflow/internal/prompts"
	"github.com/dmarsh/bidflow/internal/repair"
	"github.com/dmarsh/bidflow/internal/types"
)

// wirePhase1 is the Phase 1 response shape. basicItemCount sometimes comes
// back as a quoted number.
type wirePhase1 struct {
	Success        bool `json:"success"`
	ContractorInfo struct {
		CompanyName   flexString `json:"companyName"`
		Address       flexString `json:"address"`
		Phone         flexString `json:"phone"`
		ContactPerson flexString `json:"contactPerson"`
		Email         flexString `json:"email"`
		License       flexString `json:"license"`
	} `json:"contractorInfo"`
	ClientInfo struct {
		CompanyName flexString `json:"companyName"`
		Address     flexString `json:"address"`
	} `json:"clientInfo"`
	ProjectDetails struct {
		DocumentType flexString `json:"documentType"`
		BidDate      flexString `json:"bidDate"`
		ProjectName  flexString `json:"projectName"`
		Location     flexString `json:"location"`
	} `json:"projectDetails"`
	BasicItemCount flexFloat `json:"basicItemCount"`
	SectionHeaders []string  `json:"sectionHeaders"`
	ScopeOfWork    struct {
		ItemsToRemove []string `json:"itemsToRemove"`
		ItemsToRemain []string `json:"itemsToRemain"`
	} `json:"scopeOfWork"`
	SpecialNotes []string `json:"specialNotes"`
	PriceInfo    struct {
		TotalAmount flexString `json:"totalAmount"`
		Includes    []string   `json:"includes"`
	} `json:"priceInfo"`
	Exclusions           []string `json:"exclusions"`
	AdditionalConditions []string `json:"additionalConditions"`
}

func (w wirePhase1) toPayload() types.Phase1Payload {
	p := types.Phase1Payload{
		ContractorInfo: types.ContractorInfo{
			CompanyName:   w.ContractorInfo.CompanyName.String(),
			Address:       w.ContractorInfo.Address.String(),
			Phone:         w.ContractorInfo.Phone.String(),
			ContactPerson: w.ContractorInfo.ContactPerson.String(),
			Email:         w.ContractorInfo.Email.String(),
			License:       w.ContractorInfo.License.String(),
		},
		ClientInfo: types.ClientInfo{
			CompanyName: w.ClientInfo.CompanyName.String(),
			Address:     w.ClientInfo.Address.String(),
		},
		ProjectDetails: types.ProjectDetails{
			DocumentType: w.ProjectDetails.DocumentType.String(),
			BidDate:      w.ProjectDetails.BidDate.String(),
			ProjectName:  w.ProjectDetails.ProjectName.String(),
			Location:     w.ProjectDetails.Location.String(),
		},
		SectionHeaders: w.SectionHeaders,
		ScopeOfWork: types.ScopeOfWork{
			ItemsToRemove: w.ScopeOfWork.ItemsToRemove,
			ItemsToRemain: w.ScopeOfWork.ItemsToRemain,
		},
		SpecialNotes: w.SpecialNotes,
		PriceInfo: types.PriceInfo{
			TotalAmount: w.PriceInfo.TotalAmount.String(),
			Includes:    w.PriceInfo.Includes,
		},
		Exclusions:           w.Exclusions,
		AdditionalConditions: w.AdditionalConditions,
	}
	if w.BasicItemCount.Value != nil {
		p.BasicItemCount = int(*w.BasicItemCount.Value)
	}
	return p
}

// runPhase1 extracts document-level metadata: contractor, client, project
// details, scope of work, and a coarse item count used as a sanity hint by
// the item-identification phase.
func (o *Orchestrator) runPhase1(ctx context.Context, doc types.RawDocument) types.PhaseResult[types.Phase1Payload] {
	prompt := prompts.MustGet("extraction.json", "phase1-metadata")
	text, err := o.generate(ctx, doc, prompt, llm.TierStandard)
	if err != nil {
		return failure[types.Phase1Payload](&APICallError{Phase: "phase1", Cause: err})
	}

	var wire wirePhase1
	if err := repair.Unmarshal(text, &wire); err != nil {
		return failure[types.Phase1Payload](&ParseError{Phase: "phase1", Cause: err})
	}
	return success(wire.toPayload())
}

func success[T any](payload T) types.PhaseResult[T] {
	return types.PhaseResult[T]{Success: true, Payload: payload}
}

func failure[T any](err error) types.PhaseResult[T] {
	return types.PhaseResult[T]{Err: err.Error()}
}
