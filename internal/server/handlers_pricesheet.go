package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/dmarsh/bidflow/internal/types"
)

// PricesheetItemRequest represents the body for creating or updating a
// catalog entry
type PricesheetItemRequest struct {
	Name     string  `json:"name" validate:"required,min=1"`
	Price    float64 `json:"price" validate:"gte=0"`
	Category string  `json:"category"`
}

// ListPricesheetResponse represents the response for GET /pricesheet
type ListPricesheetResponse struct {
	Items []types.PriceCatalogEntry `json:"items"`
	Count int                       `json:"count"`
}

// handleListPricesheet lists an owner's price catalog
func (s *Server) handleListPricesheet(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.ownerID(w, r)
	if !ok {
		return
	}

	items, err := s.store.CatalogForOwner(r.Context(), owner)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, ListPricesheetResponse{
		Items: items,
		Count: len(items),
	})
}

// handleCreatePricesheetItem adds a catalog entry
func (s *Server) handleCreatePricesheetItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.ownerID(w, r)
	if !ok {
		return
	}

	var req PricesheetItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.validationErrorResponse(w, err)
		return
	}

	id, err := s.store.CreatePricesheetItem(r.Context(), owner, req.Name, req.Price, req.Category)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusCreated, map[string]any{"id": id})
}

// handleUpdatePricesheetItem replaces a catalog entry's fields
func (s *Server) handleUpdatePricesheetItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.ownerID(w, r)
	if !ok {
		return
	}

	itemID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid pricesheet item ID")
		return
	}

	var req PricesheetItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.validationErrorResponse(w, err)
		return
	}

	existing, err := s.store.GetPricesheetItem(r.Context(), itemID, owner)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if existing == nil {
		s.errorResponse(w, HTTPStatus(&ErrPricesheetItemNotFound{ItemID: itemID}), "Pricesheet item not found")
		return
	}

	if err := s.store.UpdatePricesheetItem(r.Context(), itemID, owner, req.Name, req.Price, req.Category); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "updated"})
}

// handleDeletePricesheetItem removes a catalog entry
func (s *Server) handleDeletePricesheetItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.ownerID(w, r)
	if !ok {
		return
	}

	itemID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid pricesheet item ID")
		return
	}

	if err := s.store.DeletePricesheetItem(r.Context(), itemID, owner); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}
