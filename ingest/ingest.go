// Package ingest turns raw scraped records into canonical store writes:
// upsert the product by natural key, append a price history row, upsert
// reviews. This is the only place raw per-platform field variants are read;
// everything downstream sees the canonical Product.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"pricelens/models"
	"pricelens/normalize"
	"pricelens/repository"
)

// ErrMissingIdentifier marks a scraped record with neither asin nor
// product_id; such records cannot be stored.
var ErrMissingIdentifier = errors.New("scraped item has no asin or product_id")

// ProductStore is the product-side slice of the store the ingestor writes.
type ProductStore interface {
	FindByKey(ctx context.Context, key models.ProductKey) (*models.Product, error)
	Insert(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) error
}

// HistoryStore appends to the price log.
type HistoryStore interface {
	Append(ctx context.Context, entry *models.PriceHistoryEntry) error
}

// ReviewStore upserts scraped reviews.
type ReviewStore interface {
	Upsert(ctx context.Context, review *models.Review) (bool, error)
}

// Ingestor applies one scraped record to the store.
type Ingestor struct {
	products ProductStore
	history  HistoryStore
	reviews  ReviewStore
}

// NewIngestor creates an ingestor over the given stores.
func NewIngestor(products ProductStore, history HistoryStore, reviews ReviewStore) *Ingestor {
	return &Ingestor{products: products, history: history, reviews: reviews}
}

// Normalize maps a raw spider record onto the canonical Product, resolving
// the natural key, collapsing title field variants and deriving numeric
// fields exactly once.
func Normalize(item *models.ScrapedItem) (*models.Product, error) {
	key, err := resolveKey(item)
	if err != nil {
		return nil, err
	}

	platform := item.Platform
	if platform == "" {
		platform = item.Spider
	}

	priceNumeric := item.PriceNumeric
	if priceNumeric == 0 {
		priceNumeric = normalize.ParsePrice(item.Price)
	}

	scalarImage := item.Image
	if scalarImage == "" {
		scalarImage = item.ImageURL
	}

	return &models.Product{
		Key:            key,
		Platform:       platform,
		Title:          firstNonEmpty(item.Title, item.Name, item.ProductName),
		Brand:          item.Brand,
		URL:            item.URL,
		CurrentPrice:   item.Price,
		PriceNumeric:   priceNumeric,
		OriginalPrice:  item.OriginalPrice,
		Discount:       item.Discount,
		Rating:         item.Rating,
		TotalReviews:   item.TotalReviews,
		Image:          normalize.SelectImage(item.Images, scalarImage),
		Images:         normalize.FilterImages(item.Images),
		Specifications: item.Specifications,
		Description:    item.Description,
	}, nil
}

// Ingest stores one scraped record: the product is created on first sight
// and updated in place afterwards (the identifier never changes), a price
// history row is appended whenever a numeric price was observed, and
// reviews are upserted. Review failures are logged, not fatal.
func (i *Ingestor) Ingest(ctx context.Context, item *models.ScrapedItem) (*models.Product, error) {
	product, err := Normalize(item)
	if err != nil {
		return nil, err
	}

	existing, err := i.products.FindByKey(ctx, product.Key)
	switch {
	case err == nil:
		product.ID = existing.ID
		product.FirstSeen = existing.FirstSeen
		if err := i.products.Update(ctx, product); err != nil {
			return nil, err
		}
		if existing.PriceNumeric != product.PriceNumeric && product.PriceNumeric > 0 {
			log.Printf("ingest: price changed for %s %s: %v -> %v",
				product.Platform, product.Key, existing.PriceNumeric, product.PriceNumeric)
		}
	case errors.Is(err, repository.ErrNotFound):
		if err := i.products.Insert(ctx, product); err != nil {
			return nil, err
		}
		log.Printf("ingest: stored new product %s %s", product.Platform, product.Key)
	default:
		return nil, err
	}

	if product.CurrentPrice != "" && product.PriceNumeric > 0 {
		entry := &models.PriceHistoryEntry{
			Key:       product.Key,
			Platform:  product.Platform,
			Price:     product.CurrentPrice,
			Timestamp: time.Now(),
		}
		entry.PriceNumeric.Float64 = product.PriceNumeric
		entry.PriceNumeric.Valid = true
		if err := i.history.Append(ctx, entry); err != nil {
			return nil, fmt.Errorf("failed to record price history: %v", err)
		}
	}

	i.ingestReviews(ctx, product, item.Reviews)

	return product, nil
}

func (i *Ingestor) ingestReviews(ctx context.Context, product *models.Product, scraped []models.ScrapedReview) {
	created, updated := 0, 0
	for _, raw := range scraped {
		if raw.Text == "" {
			continue
		}
		review := &models.Review{
			Key:      product.Key,
			Platform: product.Platform,
			Text:     raw.Text,
			Rating:   raw.Rating,
			Author:   raw.Author,
		}
		isNew, err := i.reviews.Upsert(ctx, review)
		if err != nil {
			log.Printf("ingest: failed to store review for %s: %v", product.Key, err)
			continue
		}
		if isNew {
			created++
		} else {
			updated++
		}
	}
	if created > 0 || updated > 0 {
		log.Printf("ingest: reviews for %s: +%d new, ~%d updated", product.Key, created, updated)
	}
}

func resolveKey(item *models.ScrapedItem) (models.ProductKey, error) {
	if item.ASIN != "" {
		return models.ASINKey(item.ASIN), nil
	}
	if item.ProductID != "" {
		return models.GenericKey(item.ProductID), nil
	}
	return models.ProductKey{}, ErrMissingIdentifier
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
