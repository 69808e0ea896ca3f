package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmarsh/bidflow/internal/types"
)

// Bid is one persisted bid record. ExtractedData holds the full extraction
// result; Revision is an advisory counter incremented on every save, tracked
// for awareness of concurrent edits rather than enforced as a precondition.
type Bid struct {
	ID        uuid.UUID                  `json:"id"`
	OwnerID   string                     `json:"ownerId"`
	Filename  string                     `json:"filename"`
	MimeType  string                     `json:"mimeType"`
	Status    string                     `json:"status"`
	Extracted *types.BidExtractionResult `json:"extractedData,omitempty"`
	Revision  int                        `json:"revision"`
	CreatedAt time.Time                  `json:"createdAt"`
	UpdatedAt time.Time                  `json:"updatedAt"`
}

// CreateBid creates a new bid record for a document and returns its ID
func (db *DB) CreateBid(ctx context.Context, ownerID, filename, mimeType string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO bids (owner_id, filename, mime_type, status)
		 VALUES ($1, $2, $3, 'processing')
		 RETURNING id`,
		ownerID, filename, mimeType,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create bid: %w", err)
	}
	return id, nil
}

// SaveExtraction stores the extraction result on a bid and bumps its
// revision counter
func (db *DB) SaveExtraction(ctx context.Context, bidID uuid.UUID, result *types.BidExtractionResult) error {
	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal extraction result: %w", err)
	}

	status := "extracted"
	if !result.Success {
		status = "needs_review"
	}

	tag, err := db.pool.Exec(ctx,
		`UPDATE bids
		 SET extracted_data = $1, status = $2, revision = revision + 1, updated_at = NOW()
		 WHERE id = $3`,
		jsonBytes, status, bidID,
	)
	if err != nil {
		return fmt.Errorf("failed to save extraction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bid not found: %s", bidID)
	}
	return nil
}

// UpdateExtraction replaces a bid's extraction data after an item edit and
// bumps the revision. Last writer wins at the record level.
func (db *DB) UpdateExtraction(ctx context.Context, bidID uuid.UUID, ownerID string, result *types.BidExtractionResult) error {
	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal extraction result: %w", err)
	}

	tag, err := db.pool.Exec(ctx,
		`UPDATE bids
		 SET extracted_data = $1, revision = revision + 1, updated_at = NOW()
		 WHERE id = $2 AND owner_id = $3`,
		jsonBytes, bidID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to update extraction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bid not found: %s", bidID)
	}
	return nil
}

// UpdateStatus sets a bid's workflow status
func (db *DB) UpdateStatus(ctx context.Context, bidID uuid.UUID, ownerID, status string) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE bids SET status = $1, updated_at = NOW() WHERE id = $2 AND owner_id = $3`,
		status, bidID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bid not found: %s", bidID)
	}
	return nil
}

// GetBid retrieves a bid by ID scoped to its owner. Returns nil, nil when no
// such bid exists.
func (db *DB) GetBid(ctx context.Context, bidID uuid.UUID, ownerID string) (*Bid, error) {
	var bid Bid
	var extracted []byte

	err := db.pool.QueryRow(ctx,
		`SELECT id, owner_id, filename, mime_type, status, extracted_data, revision, created_at, updated_at
		 FROM bids WHERE id = $1 AND owner_id = $2`,
		bidID, ownerID,
	).Scan(&bid.ID, &bid.OwnerID, &bid.Filename, &bid.MimeType, &bid.Status, &extracted, &bid.Revision, &bid.CreatedAt, &bid.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get bid: %w", err)
	}

	if len(extracted) > 0 {
		var result types.BidExtractionResult
		if err := json.Unmarshal(extracted, &result); err != nil {
			return nil, fmt.Errorf("failed to decode extraction data: %w", err)
		}
		bid.Extracted = &result
	}
	return &bid, nil
}

// BidSummary is a lightweight view of a bid for listing
type BidSummary struct {
	ID         uuid.UUID `json:"id"`
	Filename   string    `json:"filename"`
	Status     string    `json:"status"`
	TotalItems int       `json:"totalItems"`
	TotalCost  float64   `json:"totalCost"`
	Revision   int       `json:"revision"`
	CreatedAt  time.Time `json:"createdAt"`
}

// BidFilters holds optional filters for listing bids
type BidFilters struct {
	Status string
	Limit  int
}

// ListBids retrieves an owner's bids, newest first, with optional filters
func (db *DB) ListBids(ctx context.Context, ownerID string, filters BidFilters) ([]BidSummary, error) {
	if filters.Limit == 0 {
		filters.Limit = 50
	}

	query := `SELECT id, filename, status,
		COALESCE((extracted_data->>'totalItems')::int, 0),
		COALESCE((extracted_data->'pricingSummary'->>'totalCalculatedCost')::float8, 0),
		revision, created_at
		FROM bids WHERE owner_id = $1`
	args := []any{ownerID}
	argNum := 2

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filters.Status)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}
	defer rows.Close()

	var bids []BidSummary
	for rows.Next() {
		var b BidSummary
		if err := rows.Scan(&b.ID, &b.Filename, &b.Status, &b.TotalItems, &b.TotalCost, &b.Revision, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		bids = append(bids, b)
	}
	return bids, nil
}

// DeleteBid removes a bid record entirely
func (db *DB) DeleteBid(ctx context.Context, bidID uuid.UUID, ownerID string) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM bids WHERE id = $1 AND owner_id = $2`, bidID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete bid: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("bid not found: %s", bidID)
	}
	return nil
}
