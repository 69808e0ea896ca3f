package server

import (
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/dmarsh/bidflow/internal/db"
	"github.com/dmarsh/bidflow/internal/types"
)

// maxUploadBytes caps uploaded document size at 32 MB, matching the
// inline-content limit of the model API.
const maxUploadBytes = 32 << 20

// UploadBidResponse represents the response for POST /bids
type UploadBidResponse struct {
	BidID  uuid.UUID                  `json:"bidId"`
	Status string                     `json:"status"`
	Result *types.BidExtractionResult `json:"result"`
}

// ListBidsResponse represents the response for GET /bids
type ListBidsResponse struct {
	Bids  []db.BidSummary `json:"bids"`
	Count int             `json:"count"`
}

// handleUploadBid accepts a multipart document upload, runs the extraction
// pipeline synchronously, and persists the result.
func (s *Server) handleUploadBid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, ok := s.ownerID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("document")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "document file field is required")
		return
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to read upload: "+err.Error())
		return
	}
	if len(data) > maxUploadBytes {
		s.errorResponse(w, http.StatusRequestEntityTooLarge, "document exceeds maximum upload size")
		return
	}

	// Multipart writers fill in application/octet-stream when the caller
	// never set a part type, so only a recognized type skips the guess.
	mimeType := header.Header.Get("Content-Type")
	if override := r.FormValue("mimeType"); override != "" {
		mimeType = override
	}
	if !knownMimeType(mimeType) {
		mimeType = guessMimeType(header.Filename)
	}

	doc := types.RawDocument{
		Bytes:    data,
		Filename: header.Filename,
		MimeType: mimeType,
	}

	bidID, err := s.store.CreateBid(ctx, owner, doc.Filename, doc.MimeType)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	result := s.extractor.Extract(ctx, doc, owner)

	if err := s.store.SaveExtraction(ctx, bidID, &result); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to save extraction: "+err.Error())
		return
	}

	status := "extracted"
	if !result.Success {
		status = "needs_review"
	}

	s.jsonResponse(w, http.StatusCreated, UploadBidResponse{
		BidID:  bidID,
		Status: status,
		Result: &result,
	})
}

// handleGetBid retrieves a stored bid with its extraction payload
func (s *Server) handleGetBid(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.ownerID(w, r)
	if !ok {
		return
	}

	bidID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid bid ID")
		return
	}

	bid, err := s.store.GetBid(r.Context(), bidID, owner)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if bid == nil {
		s.errorResponse(w, HTTPStatus(&ErrBidNotFound{BidID: bidID}), "Bid not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, bid)
}

// handleListBids lists an owner's bids with optional status filter
func (s *Server) handleListBids(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.ownerID(w, r)
	if !ok {
		return
	}

	filters := db.BidFilters{
		Status: r.URL.Query().Get("status"),
		Limit:  parseQueryInt(r, "limit", 50, 100),
	}

	bids, err := s.store.ListBids(r.Context(), owner, filters)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, ListBidsResponse{
		Bids:  bids,
		Count: len(bids),
	})
}

// handleDeleteBid removes a bid and its extraction payload
func (s *Server) handleDeleteBid(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.ownerID(w, r)
	if !ok {
		return
	}

	bidID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid bid ID")
		return
	}

	if err := s.store.DeleteBid(r.Context(), bidID, owner); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// knownMimeType reports whether the declared type identifies a document
// the pipeline understands. Empty, octet-stream, and unrecognized types
// fall back to the filename extension.
func knownMimeType(mimeType string) bool {
	mt := strings.ToLower(mimeType)
	return strings.Contains(mt, "pdf") ||
		strings.HasPrefix(mt, "image/") ||
		strings.HasPrefix(mt, "text/")
}

// guessMimeType maps a filename extension to the document types the
// pipeline understands. Unknown extensions are treated as plain text.
func guessMimeType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "text/plain"
	}
}

// parseQueryInt parses a non-negative integer query parameter with a default
// and an optional maximum (0 means unbounded).
func parseQueryInt(r *http.Request, key string, defaultValue, maxValue int) int {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val < 0 {
		return defaultValue
	}
	if maxValue > 0 && val > maxValue {
		return maxValue
	}
	return val
}
