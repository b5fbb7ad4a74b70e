package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pricelens/models"
)

// TrackedRepository manages the URLs registered for scheduled re-scraping.
type TrackedRepository struct {
	db *sql.DB
}

func NewTrackedRepository(db *sql.DB) *TrackedRepository {
	return &TrackedRepository{db: db}
}

// Add registers a URL for tracking. Adding an already-tracked URL returns
// the existing row.
func (r *TrackedRepository) Add(ctx context.Context, url, spider string) (*models.TrackedProduct, error) {
	existing, err := r.FindByURL(ctx, url)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	query := `
		INSERT INTO tracked_products (url, spider, created_at)
		VALUES ($1, $2, $3)
		RETURNING id, url, spider, is_active, last_scraped, created_at
	`
	var tracked models.TrackedProduct
	err = r.db.QueryRowContext(ctx, query, url, spider, time.Now()).Scan(
		&tracked.ID, &tracked.URL, &tracked.Spider,
		&tracked.IsActive, &tracked.LastScraped, &tracked.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add tracked product: %v", err)
	}
	return &tracked, nil
}

// FindByURL returns the tracked product for a URL.
func (r *TrackedRepository) FindByURL(ctx context.Context, url string) (*models.TrackedProduct, error) {
	query := `
		SELECT id, url, spider, is_active, last_scraped, created_at
		FROM tracked_products
		WHERE url = $1
	`
	var tracked models.TrackedProduct
	err := r.db.QueryRowContext(ctx, query, url).Scan(
		&tracked.ID, &tracked.URL, &tracked.Spider,
		&tracked.IsActive, &tracked.LastScraped, &tracked.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tracked product: %v", err)
	}
	return &tracked, nil
}

// FindByID returns one tracked product.
func (r *TrackedRepository) FindByID(ctx context.Context, id int) (*models.TrackedProduct, error) {
	query := `
		SELECT id, url, spider, is_active, last_scraped, created_at
		FROM tracked_products
		WHERE id = $1 AND is_active = true
	`
	var tracked models.TrackedProduct
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&tracked.ID, &tracked.URL, &tracked.Spider,
		&tracked.IsActive, &tracked.LastScraped, &tracked.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tracked product: %v", err)
	}
	return &tracked, nil
}

// ListActive returns every active tracked product, oldest first so the
// scheduler visits long-standing products before newly added ones.
func (r *TrackedRepository) ListActive(ctx context.Context) ([]models.TrackedProduct, error) {
	query := `
		SELECT id, url, spider, is_active, last_scraped, created_at
		FROM tracked_products
		WHERE is_active = true
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked products: %v", err)
	}
	defer rows.Close()

	var tracked []models.TrackedProduct
	for rows.Next() {
		var t models.TrackedProduct
		err := rows.Scan(&t.ID, &t.URL, &t.Spider, &t.IsActive, &t.LastScraped, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tracked product: %v", err)
		}
		tracked = append(tracked, t)
	}
	return tracked, rows.Err()
}

// MarkScraped records a successful scrape time.
func (r *TrackedRepository) MarkScraped(ctx context.Context, id int) error {
	query := `UPDATE tracked_products SET last_scraped = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, time.Now(), id); err != nil {
		return fmt.Errorf("failed to mark tracked product scraped: %v", err)
	}
	return nil
}

// Deactivate stops tracking a product without deleting its history.
func (r *TrackedRepository) Deactivate(ctx context.Context, id int) error {
	query := `UPDATE tracked_products SET is_active = false WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to deactivate tracked product: %v", err)
	}
	return nil
}
