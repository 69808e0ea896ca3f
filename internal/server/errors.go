package server

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// ErrBidNotFound indicates the bid does not exist for this owner
type ErrBidNotFound struct {
	BidID uuid.UUID
}

func (e *ErrBidNotFound) Error() string {
	return fmt.Sprintf("bid not found: %s", e.BidID)
}

// ErrItemNotFound indicates no demolition item matched the identifier
type ErrItemNotFound struct {
	ItemID string
}

func (e *ErrItemNotFound) Error() string {
	return fmt.Sprintf("demolition item not found: %s", e.ItemID)
}

// ErrPricesheetItemNotFound indicates the catalog entry does not exist
type ErrPricesheetItemNotFound struct {
	ItemID uuid.UUID
}

func (e *ErrPricesheetItemNotFound) Error() string {
	return fmt.Sprintf("pricesheet item not found: %s", e.ItemID)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	switch err.(type) {
	case *ErrBidNotFound, *ErrItemNotFound, *ErrPricesheetItemNotFound:
		return http.StatusNotFound
	case *ErrValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
