package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pricelens/models"
)

// HistoryRepository reads and appends the price_history log. Entries are
// never updated or deleted.
type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Append records one observed price for a listing.
func (r *HistoryRepository) Append(ctx context.Context, entry *models.PriceHistoryEntry) error {
	var asin, productID sql.NullString
	if entry.Key.Kind == models.KeyASIN {
		asin = sql.NullString{String: entry.Key.Value, Valid: true}
	} else {
		productID = sql.NullString{String: entry.Key.Value, Valid: true}
	}

	timestamp := entry.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	query := `
		INSERT INTO price_history (asin, product_id, platform, price, price_numeric, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		asin, productID, entry.Platform, entry.Price, entry.PriceNumeric, timestamp,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to add price history: %v", err)
	}
	entry.Timestamp = timestamp
	return nil
}

// ListRange returns entries for one listing within [from, to], ascending by
// timestamp.
func (r *HistoryRepository) ListRange(ctx context.Context, key models.ProductKey, from, to time.Time) ([]models.PriceHistoryEntry, error) {
	query := fmt.Sprintf(`
		SELECT id, COALESCE(platform, ''), price, price_numeric, timestamp
		FROM price_history
		WHERE %s = $1 AND timestamp >= $2 AND timestamp <= $3
		ORDER BY timestamp ASC
	`, key.Field())

	rows, err := r.db.QueryContext(ctx, query, key.Value, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get price history: %v", err)
	}
	defer rows.Close()
	return r.scanEntries(rows, key)
}

// ListAll returns every entry for one listing, descending by timestamp.
func (r *HistoryRepository) ListAll(ctx context.Context, key models.ProductKey) ([]models.PriceHistoryEntry, error) {
	query := fmt.Sprintf(`
		SELECT id, COALESCE(platform, ''), price, price_numeric, timestamp
		FROM price_history
		WHERE %s = $1
		ORDER BY timestamp DESC
	`, key.Field())

	rows, err := r.db.QueryContext(ctx, query, key.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to get price history: %v", err)
	}
	defer rows.Close()
	return r.scanEntries(rows, key)
}

// CountByKey returns the number of history rows for one listing.
func (r *HistoryRepository) CountByKey(ctx context.Context, key models.ProductKey) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM price_history WHERE %s = $1`, key.Field())
	var count int
	if err := r.db.QueryRowContext(ctx, query, key.Value).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count price history: %v", err)
	}
	return count, nil
}

func (r *HistoryRepository) scanEntries(rows *sql.Rows, key models.ProductKey) ([]models.PriceHistoryEntry, error) {
	var entries []models.PriceHistoryEntry
	for rows.Next() {
		entry := models.PriceHistoryEntry{Key: key}
		err := rows.Scan(&entry.ID, &entry.Platform, &entry.Price, &entry.PriceNumeric, &entry.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price history: %v", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
