package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmarsh/bidflow/internal/types"
)

// CreatePricesheetItem adds a priced catalog entry for an owner
func (db *DB) CreatePricesheetItem(ctx context.Context, ownerID, name string, price float64, category string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO pricesheet_items (owner_id, name, price, category)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		ownerID, name, price, category,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create pricesheet item: %w", err)
	}
	return id, nil
}

// UpdatePricesheetItem changes an entry's name, price, or category
func (db *DB) UpdatePricesheetItem(ctx context.Context, itemID uuid.UUID, ownerID, name string, price float64, category string) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE pricesheet_items SET name = $1, price = $2, category = $3
		 WHERE id = $4 AND owner_id = $5`,
		name, price, category, itemID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to update pricesheet item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pricesheet item not found: %s", itemID)
	}
	return nil
}

// DeletePricesheetItem removes an entry
func (db *DB) DeletePricesheetItem(ctx context.Context, itemID uuid.UUID, ownerID string) error {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM pricesheet_items WHERE id = $1 AND owner_id = $2`,
		itemID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete pricesheet item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pricesheet item not found: %s", itemID)
	}
	return nil
}

// GetPricesheetItem retrieves one entry. Returns nil, nil when not found.
func (db *DB) GetPricesheetItem(ctx context.Context, itemID uuid.UUID, ownerID string) (*types.PriceCatalogEntry, error) {
	var entry types.PriceCatalogEntry
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, price, category, created_at
		 FROM pricesheet_items WHERE id = $1 AND owner_id = $2`,
		itemID, ownerID,
	).Scan(&entry.ID, &entry.Name, &entry.Price, &entry.Category, &entry.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pricesheet item: %w", err)
	}
	return &entry, nil
}

// CatalogForOwner returns an owner's full price catalog ordered by category
// then name, the order the extraction prompt renders it in.
func (db *DB) CatalogForOwner(ctx context.Context, ownerID string) ([]types.PriceCatalogEntry, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, name, price, category, created_at
		 FROM pricesheet_items WHERE owner_id = $1
		 ORDER BY category, name`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pricesheet items: %w", err)
	}
	defer rows.Close()

	var entries []types.PriceCatalogEntry
	for rows.Next() {
		var entry types.PriceCatalogEntry
		if err := rows.Scan(&entry.ID, &entry.Name, &entry.Price, &entry.Category, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pricesheet item: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
