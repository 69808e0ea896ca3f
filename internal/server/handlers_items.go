package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/dmarsh/bidflow/internal/db"
	"github.com/dmarsh/bidflow/internal/match"
	"github.com/dmarsh/bidflow/internal/normalize"
	"github.com/dmarsh/bidflow/internal/pricing"
	"github.com/dmarsh/bidflow/internal/types"
)

// ItemView is the display shape of a demolition item
type ItemView struct {
	ItemNumber  string  `json:"itemNumber,omitempty"`
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Measurement string  `json:"measurement,omitempty"`
	UnitPrice   float64 `json:"unitPrice"`
	TotalPrice  float64 `json:"totalPrice"`
	Method      string  `json:"method"`
	Matched     bool    `json:"pricesheetMatched"`
}

// ListItemsResponse represents the response for GET /bids/{id}/items
type ListItemsResponse struct {
	Items   []ItemView            `json:"items"`
	Summary types.PricingSummary  `json:"summary"`
	Margin  *pricing.MarginResult `json:"margin,omitempty"`
}

// UpdateItemRequest carries a partial edit of a single demolition item.
// Nil fields are left untouched.
type UpdateItemRequest struct {
	Name            *string  `json:"name" validate:"omitempty,min=1"`
	Description     *string  `json:"description"`
	Category        *string  `json:"category" validate:"omitempty,min=1"`
	Action          *string  `json:"action"`
	MeasurementText *string  `json:"measurementText"`
	Pricing         *string  `json:"pricing"`
	UnitPrice       *string  `json:"unitPrice"`
	TotalPrice      *string  `json:"totalPrice"`
	ProposedBid     *float64 `json:"proposedBid" validate:"omitempty,gte=0"`
}

// handleListItems returns the active demolition items of a bid in display form
func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.ownerID(w, r)
	if !ok {
		return
	}

	bid, ok := s.loadBid(w, r, owner)
	if !ok {
		return
	}

	items := activeItems(bid.Extracted.DemolitionItems)
	views := make([]ItemView, 0, len(items))
	for i := range items {
		views = append(views, itemView(items[i]))
	}

	summary := pricing.Summarize(items)
	resp := ListItemsResponse{
		Items:   views,
		Summary: summary,
	}
	if proposed, ok := pricing.ProposedTotal(items); ok {
		margin := pricing.Margin(proposed, summary.TotalCalculatedCost)
		resp.Margin = &margin
	}

	s.jsonResponse(w, http.StatusOK, resp)
}

// handleUpdateItem applies a partial edit to one item, reprices it, and
// persists the updated extraction payload.
func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, ok := s.ownerID(w, r)
	if !ok {
		return
	}

	bid, ok := s.loadBid(w, r, owner)
	if !ok {
		return
	}

	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.validationErrorResponse(w, err)
		return
	}

	itemID := r.PathValue("item_id")
	result := bid.Extracted
	idx, found := match.FindItem(result.DemolitionItems, itemID)
	if !found {
		s.errorResponse(w, HTTPStatus(&ErrItemNotFound{ItemID: itemID}), "Demolition item not found")
		return
	}

	item := &result.DemolitionItems[idx]
	applyItemUpdate(item, req)

	item.PriceCalculation = pricing.Resolve(*item, time.Now())
	item.CalculatedUnitPrice = item.PriceCalculation.UnitPrice
	item.CalculatedTotalPrice = item.PriceCalculation.TotalPrice
	result.PricingSummary = pricing.Summarize(activeItems(result.DemolitionItems))

	if err := s.store.UpdateExtraction(ctx, bid.ID, owner, result); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to save item update: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"item":    result.DemolitionItems[idx],
		"summary": result.PricingSummary,
	})
}

// handleDeactivateItem soft-deletes an item. The record stays in the
// extraction payload so the edit can be audited and reversed.
func (s *Server) handleDeactivateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, ok := s.ownerID(w, r)
	if !ok {
		return
	}

	bid, ok := s.loadBid(w, r, owner)
	if !ok {
		return
	}

	itemID := r.PathValue("item_id")
	result := bid.Extracted
	idx, found := match.FindItem(result.DemolitionItems, itemID)
	if !found {
		s.errorResponse(w, HTTPStatus(&ErrItemNotFound{ItemID: itemID}), "Demolition item not found")
		return
	}

	result.DemolitionItems[idx].IsActive = false
	result.PricingSummary = pricing.Summarize(activeItems(result.DemolitionItems))

	if err := s.store.UpdateExtraction(ctx, bid.ID, owner, result); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to save item removal: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":  "deactivated",
		"summary": result.PricingSummary,
	})
}

// loadBid fetches a bid by path ID and verifies it has an extraction payload
func (s *Server) loadBid(w http.ResponseWriter, r *http.Request, owner string) (*db.Bid, bool) {
	bidID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid bid ID")
		return nil, false
	}

	bid, err := s.store.GetBid(r.Context(), bidID, owner)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return nil, false
	}
	if bid == nil {
		s.errorResponse(w, HTTPStatus(&ErrBidNotFound{BidID: bidID}), "Bid not found")
		return nil, false
	}
	if bid.Extracted == nil {
		s.errorResponse(w, http.StatusConflict, "Bid has no extraction data yet")
		return nil, false
	}

	return bid, true
}

func applyItemUpdate(item *types.DemolitionItem, req UpdateItemRequest) {
	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Category != nil {
		item.Category = normalize.Category(*req.Category)
	}
	if req.Action != nil {
		item.Action = *req.Action
	}
	if req.MeasurementText != nil {
		item.Measurements = normalize.Measurement(*req.MeasurementText)
	}
	if req.Pricing != nil {
		item.Pricing = *req.Pricing
	}
	if req.UnitPrice != nil {
		item.UnitPrice = *req.UnitPrice
	}
	if req.TotalPrice != nil {
		item.TotalPrice = *req.TotalPrice
	}
	if req.ProposedBid != nil {
		item.ProposedBid = req.ProposedBid
	}
}

func itemView(item types.DemolitionItem) ItemView {
	return ItemView{
		ItemNumber:  item.ItemNumber,
		ID:          item.InternalID,
		Name:        item.DisplayName(),
		Category:    string(item.Category),
		Measurement: item.Measurements.Display(),
		UnitPrice:   item.CalculatedUnitPrice,
		TotalPrice:  item.CalculatedTotalPrice,
		Method:      string(item.PriceCalculation.CalculationMethod),
		Matched:     item.PricesheetMatch.Matched,
	}
}

// activeItems filters out soft-deleted items
func activeItems(items []types.DemolitionItem) []types.DemolitionItem {
	active := make([]types.DemolitionItem, 0, len(items))
	for i := range items {
		if items[i].IsActive {
			active = append(active, items[i])
		}
	}
	return active
}

// validationErrorResponse maps validator errors to a 400 with field details
func (s *Server) validationErrorResponse(w http.ResponseWriter, err error) {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		details := make([]string, 0, len(validationErrors))
		for _, fe := range validationErrors {
			details = append(details, fe.Field()+": failed "+fe.Tag())
		}
		s.jsonResponse(w, http.StatusBadRequest, map[string]any{
			"error":   "validation_failed",
			"details": details,
		})
		return
	}
	s.errorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
}
