package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vbonduro/pantrysync/internal/domain"
)

// InventoryStore persists the single shared inventory as one document: an
// ordered items table plus the singleton inventory row carrying updated_at.
// Save always replaces the whole document; there are no partial updates.
type InventoryStore struct {
	db *sql.DB
}

func NewInventoryStore(db *sql.DB) *InventoryStore {
	return &InventoryStore{db: db}
}

// Load returns the persisted item list in order and the time of the last
// save. A database that has never been saved to yields an empty list.
func (s *InventoryStore) Load(ctx context.Context) ([]domain.Item, time.Time, error) {
	var updatedAt time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT updated_at FROM inventory WHERE id = 1
	`).Scan(&updatedAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, fmt.Errorf("failed to load inventory metadata: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT barcode, name, brand, quantity, category, weight_grams, weight_raw,
		       source, classified_at, created_at
		FROM items ORDER BY position ASC
	`)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to load items: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	items := make([]domain.Item, 0)
	for rows.Next() {
		var (
			item         domain.Item
			quantity     sql.NullFloat64
			weightGrams  sql.NullInt64
			classifiedAt sql.NullTime
			createdAt    sql.NullTime
		)
		if err := rows.Scan(&item.Barcode, &item.Name, &item.Brand, &quantity,
			&item.Category, &weightGrams, &item.WeightRaw, &item.Source,
			&classifiedAt, &createdAt); err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to scan item: %w", err)
		}
		if quantity.Valid {
			item.Quantity = &quantity.Float64
		}
		if weightGrams.Valid {
			item.WeightGrams = &weightGrams.Int64
		}
		if classifiedAt.Valid {
			item.ClassifiedAt = &classifiedAt.Time
		}
		if createdAt.Valid {
			item.Timestamp = &createdAt.Time
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("error iterating items: %w", err)
	}

	return items, updatedAt, nil
}

// Save replaces the persisted document with items in one transaction.
func (s *InventoryStore) Save(ctx context.Context, items []domain.Item, updatedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}

	for i, item := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO items (position, barcode, name, brand, quantity, category,
			                   weight_grams, weight_raw, source, classified_at, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, i, item.Barcode, item.Name, item.Brand, item.Quantity, item.Category,
			item.WeightGrams, item.WeightRaw, item.Source, item.ClassifiedAt, item.Timestamp)
		if err != nil {
			return fmt.Errorf("failed to insert item %d: %w", i, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE inventory SET updated_at = ? WHERE id = 1
	`, updatedAt); err != nil {
		return fmt.Errorf("failed to update inventory metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	return nil
}

// Ping reports database connectivity, used by the health endpoint.
func (s *InventoryStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
