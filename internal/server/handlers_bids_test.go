package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarsh/bidflow/internal/types"
)

func multipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("document", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return &body, writer.FormDataContentType()
}

func TestHandleUploadBid(t *testing.T) {
	store := newFakeStore()
	extractor := &fakeExtractor{
		result: types.BidExtractionResult{
			Success: true,
			Method:  "gemini-three-phase",
			DemolitionItems: []types.DemolitionItem{
				{Name: "Remove partition", Category: types.CategoryWall, IsActive: true},
			},
			TotalItems: 1,
		},
	}
	s := newTestServer(store, extractor)

	body, contentType := multipartUpload(t, "suite-210.pdf", []byte("%PDF-1.4 fake"))
	req := httptest.NewRequest("POST", "/bids", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Owner-ID", "owner-1")

	rec := doRequest(s, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp UploadBidResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "extracted", resp.Status)
	assert.Equal(t, 1, resp.Result.TotalItems)

	// Document was handed to the pipeline as-is
	assert.Equal(t, "suite-210.pdf", extractor.gotDoc.Filename)
	assert.Equal(t, "application/pdf", extractor.gotDoc.MimeType)
	assert.Equal(t, "owner-1", extractor.gotOwner)

	// Result persisted under the new bid
	bid := store.bids[resp.BidID]
	require.NotNil(t, bid)
	assert.Equal(t, "extracted", bid.Status)
	require.NotNil(t, bid.Extracted)
	assert.Equal(t, 1, bid.Extracted.TotalItems)
}

func TestHandleUploadBid_FailedExtractionNeedsReview(t *testing.T) {
	store := newFakeStore()
	extractor := &fakeExtractor{
		result: types.BidExtractionResult{
			Success: false,
			Method:  "fallback-document-extraction",
		},
	}
	s := newTestServer(store, extractor)

	body, contentType := multipartUpload(t, "scan.png", []byte{0x89, 'P', 'N', 'G'})
	req := httptest.NewRequest("POST", "/bids", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Owner-ID", "owner-1")

	rec := doRequest(s, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp UploadBidResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "needs_review", resp.Status)
}

func TestHandleUploadBid_MissingFile(t *testing.T) {
	s := newTestServer(newFakeStore(), &fakeExtractor{})

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("note", "no file here"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/bids", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Owner-ID", "owner-1")

	rec := doRequest(s, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "document file field is required")
}

func TestHandleGetBid(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(store, &fakeExtractor{})

	bidID, err := store.CreateBid(context.Background(), "owner-1", "demo.pdf", "application/pdf")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/bids/"+bidID.String(), nil)
	req.Header.Set("X-Owner-ID", "owner-1")

	rec := doRequest(s, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "demo.pdf")
}

func TestHandleGetBid_WrongOwner(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(store, &fakeExtractor{})

	bidID, err := store.CreateBid(context.Background(), "owner-1", "demo.pdf", "application/pdf")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/bids/"+bidID.String(), nil)
	req.Header.Set("X-Owner-ID", "owner-2")

	rec := doRequest(s, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGetBid_InvalidID(t *testing.T) {
	s := newTestServer(newFakeStore(), &fakeExtractor{})

	req := httptest.NewRequest("GET", "/bids/not-a-uuid", nil)
	req.Header.Set("X-Owner-ID", "owner-1")

	rec := doRequest(s, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleListBids_StatusFilter(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(store, &fakeExtractor{})

	id1, err := store.CreateBid(context.Background(), "owner-1", "a.pdf", "application/pdf")
	require.NoError(t, err)
	_, err = store.CreateBid(context.Background(), "owner-1", "b.pdf", "application/pdf")
	require.NoError(t, err)
	require.NoError(t, store.UpdateStatus(context.Background(), id1, "owner-1", "extracted"))

	req := httptest.NewRequest("GET", "/bids?status=extracted", nil)
	req.Header.Set("X-Owner-ID", "owner-1")

	rec := doRequest(s, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListBidsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "a.pdf", resp.Bids[0].Filename)
}

func TestHandleDeleteBid(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(store, &fakeExtractor{})

	bidID, err := store.CreateBid(context.Background(), "owner-1", "a.pdf", "application/pdf")
	require.NoError(t, err)

	req := httptest.NewRequest("DELETE", "/bids/"+bidID.String(), nil)
	req.Header.Set("X-Owner-ID", "owner-1")

	rec := doRequest(s, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, store.bids, bidID)
}

// Multipart writers that never set a part type send application/octet-stream,
// which must fall back to the extension guess rather than reach the pipeline.
func TestHandleUploadBid_OctetStreamFallsBackToExtension(t *testing.T) {
	store := newFakeStore()
	extractor := &fakeExtractor{result: types.BidExtractionResult{Success: true}}
	s := newTestServer(store, extractor)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="document"; filename="plans.pdf"`},
		"Content-Type":        {"application/octet-stream"},
	})
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 fake"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/bids", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Owner-ID", "owner-1")

	rec := doRequest(s, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/pdf", extractor.gotDoc.MimeType)
}

func TestHandleUploadBid_DeclaredTypeKept(t *testing.T) {
	store := newFakeStore()
	extractor := &fakeExtractor{result: types.BidExtractionResult{Success: true}}
	s := newTestServer(store, extractor)

	// The declared part type wins over the extension when it is one the
	// pipeline understands.
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="document"; filename="export.dat"`},
		"Content-Type":        {"image/png"},
	})
	require.NoError(t, err)
	_, err = part.Write([]byte{0x89, 'P', 'N', 'G'})
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/bids", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Owner-ID", "owner-1")

	rec := doRequest(s, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "image/png", extractor.gotDoc.MimeType)
}

func TestKnownMimeType(t *testing.T) {
	tests := []struct {
		mimeType string
		want     bool
	}{
		{"application/pdf", true},
		{"image/png", true},
		{"image/jpeg", true},
		{"text/plain", true},
		{"application/octet-stream", false},
		{"application/zip", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			assert.Equal(t, tt.want, knownMimeType(tt.mimeType))
		})
	}
}

func TestGuessMimeType(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"plans.pdf", "application/pdf"},
		{"scan.PNG", "image/png"},
		{"photo.jpeg", "image/jpeg"},
		{"photo.jpg", "image/jpeg"},
		{"site.webp", "image/webp"},
		{"notes.txt", "text/plain"},
		{"no_extension", "text/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, guessMimeType(tt.filename))
		})
	}
}

func TestParseQueryInt(t *testing.T) {
	mkReq := func(query string) *http.Request {
		return httptest.NewRequest("GET", "/bids?"+query, nil)
	}

	assert.Equal(t, 50, parseQueryInt(mkReq(""), "limit", 50, 100))
	assert.Equal(t, 10, parseQueryInt(mkReq("limit=10"), "limit", 50, 100))
	assert.Equal(t, 100, parseQueryInt(mkReq("limit=500"), "limit", 50, 100))
	assert.Equal(t, 50, parseQueryInt(mkReq("limit=abc"), "limit", 50, 100))
	assert.Equal(t, 50, parseQueryInt(mkReq("limit=-3"), "limit", 50, 100))
}

func TestHandleDeleteBid_InvalidID(t *testing.T) {
	s := newTestServer(newFakeStore(), &fakeExtractor{})

	req := httptest.NewRequest("DELETE", "/bids/"+uuid.New().String()[:8], nil)
	req.Header.Set("X-Owner-ID", "owner-1")

	rec := doRequest(s, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
