package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pricelens/models"
)

// ReviewRepository reads and upserts scraped customer reviews, deduplicated
// on (identifier, text, author): re-scraping the same review updates it in
// place rather than duplicating it.
type ReviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// upsertReviewQuery builds the atomic upsert against the partial unique
// index on (keyField, text, author). The conflict target must repeat the
// index predicate so Postgres picks the partial index. xmax = 0 only on a
// freshly inserted row, which distinguishes created from updated.
func upsertReviewQuery(keyField string) string {
	return fmt.Sprintf(`
		INSERT INTO reviews (asin, product_id, platform, text, rating, author, scraped_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (%s, text, author) WHERE %s IS NOT NULL
		DO UPDATE SET rating = EXCLUDED.rating, platform = EXCLUDED.platform,
			scraped_at = EXCLUDED.scraped_at
		RETURNING id, (xmax = 0)
	`, keyField, keyField)
}

// Upsert stores a review, updating in place when the same (key, text,
// author) combination already exists. The write is a single statement, so
// concurrent scrapes of the same listing cannot duplicate a review.
// Returns true when a new row was created.
func (r *ReviewRepository) Upsert(ctx context.Context, review *models.Review) (bool, error) {
	if review.Author == "" {
		review.Author = "Anonymous"
	}
	scrapedAt := review.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = time.Now()
	}

	var asin, productID sql.NullString
	if review.Key.Kind == models.KeyASIN {
		asin = sql.NullString{String: review.Key.Value, Valid: true}
	} else {
		productID = sql.NullString{String: review.Key.Value, Valid: true}
	}

	var created bool
	err := r.db.QueryRowContext(ctx, upsertReviewQuery(review.Key.Field()),
		asin, productID, review.Platform, review.Text,
		review.Rating, review.Author, scrapedAt,
	).Scan(&review.ID, &created)
	if err != nil {
		return false, fmt.Errorf("failed to upsert review: %v", err)
	}
	review.ScrapedAt = scrapedAt
	return created, nil
}

// ListByKey returns all reviews for one listing, newest first.
func (r *ReviewRepository) ListByKey(ctx context.Context, key models.ProductKey) ([]models.Review, error) {
	query := fmt.Sprintf(`
		SELECT id, COALESCE(platform, ''), text, COALESCE(rating, ''), COALESCE(author, ''), scraped_at
		FROM reviews
		WHERE %s = $1
		ORDER BY scraped_at DESC
	`, key.Field())

	rows, err := r.db.QueryContext(ctx, query, key.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %v", err)
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		review := models.Review{Key: key}
		err := rows.Scan(&review.ID, &review.Platform, &review.Text,
			&review.Rating, &review.Author, &review.ScrapedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %v", err)
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

// CountByKey returns the number of stored reviews for one listing.
func (r *ReviewRepository) CountByKey(ctx context.Context, key models.ProductKey) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM reviews WHERE %s = $1`, key.Field())
	var count int
	if err := r.db.QueryRowContext(ctx, query, key.Value).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count reviews: %v", err)
	}
	return count, nil
}
