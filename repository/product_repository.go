package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"pricelens/models"
)

// ErrNotFound marks a lookup whose subject does not exist. Handlers map it
// to a 404; everything else is a store failure.
var ErrNotFound = errors.New("not found")

const productColumns = `id, asin, product_id, platform,
	COALESCE(title, ''), COALESCE(brand, ''), COALESCE(url, ''),
	COALESCE(current_price, ''), COALESCE(price_numeric, 0),
	COALESCE(original_price, ''), COALESCE(discount, ''),
	COALESCE(rating, ''), COALESCE(total_reviews, ''),
	COALESCE(image, ''), COALESCE(images, '[]'), COALESCE(specifications, '{}'),
	COALESCE(description, ''), first_seen, last_updated`

// ProductRepository reads and writes canonical product rows. The natural key
// lives in exactly one of the asin/product_id columns; the tagged ProductKey
// is resolved here, once, and nowhere else.
type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// FindByKey returns the product behind a natural key.
func (r *ProductRepository) FindByKey(ctx context.Context, key models.ProductKey) (*models.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE %s = $1`, productColumns, key.Field())
	return r.scanOne(r.db.QueryRowContext(ctx, query, key.Value))
}

// FindByIdentifier resolves a bare identifier whose key kind is unknown by
// probing the asin column first, then product_id. This is the store-boundary
// step that turns an opaque path parameter into a tagged key.
func (r *ProductRepository) FindByIdentifier(ctx context.Context, identifier string) (*models.Product, error) {
	product, err := r.FindByKey(ctx, models.ASINKey(identifier))
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return r.FindByKey(ctx, models.GenericKey(identifier))
}

// FindByTerms returns at most one product on a platform whose title or brand
// contains every term, case-insensitively. Returns (nil, nil) when no row
// matches; ordering beyond the conjunctive filter is the store's.
func (r *ProductRepository) FindByTerms(ctx context.Context, platform string, terms []string) (*models.Product, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `SELECT %s FROM products WHERE platform = $1`, productColumns)
	args := []interface{}{platform}
	for _, term := range terms {
		args = append(args, "%"+term+"%")
		fmt.Fprintf(&sb, ` AND (title ILIKE $%d OR brand ILIKE $%d)`, len(args), len(args))
	}
	sb.WriteString(` LIMIT 1`)

	product, err := r.scanOne(r.db.QueryRowContext(ctx, sb.String(), args...))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return product, err
}

// Search returns products whose title or brand contains the query string.
func (r *ProductRepository) Search(ctx context.Context, q string, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`
		SELECT %s FROM products
		WHERE title ILIKE $1 OR brand ILIKE $1
		ORDER BY last_updated DESC
		LIMIT $2
	`, productColumns)

	rows, err := r.db.QueryContext(ctx, query, "%"+q+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %v", err)
	}
	defer rows.Close()
	return r.scanMany(rows)
}

// Recent returns the most recently updated products.
func (r *ProductRepository) Recent(ctx context.Context, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = 10
	}
	query := fmt.Sprintf(`
		SELECT %s FROM products
		ORDER BY last_updated DESC
		LIMIT $1
	`, productColumns)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent products: %v", err)
	}
	defer rows.Close()
	return r.scanMany(rows)
}

// Insert stores a new product row.
func (r *ProductRepository) Insert(ctx context.Context, p *models.Product) error {
	images, err := json.Marshal(p.Images)
	if err != nil {
		return fmt.Errorf("failed to encode images: %v", err)
	}
	specs, err := json.Marshal(p.Specifications)
	if err != nil {
		return fmt.Errorf("failed to encode specifications: %v", err)
	}

	var asin, productID sql.NullString
	if p.Key.Kind == models.KeyASIN {
		asin = sql.NullString{String: p.Key.Value, Valid: true}
	} else {
		productID = sql.NullString{String: p.Key.Value, Valid: true}
	}

	query := `
		INSERT INTO products (asin, product_id, platform, title, brand, url,
			current_price, price_numeric, original_price, discount, rating,
			total_reviews, image, images, specifications, description,
			first_seen, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $17)
		RETURNING id
	`
	now := time.Now()
	err = r.db.QueryRowContext(ctx, query,
		asin, productID, p.Platform, p.Title, p.Brand, p.URL,
		p.CurrentPrice, p.PriceNumeric, p.OriginalPrice, p.Discount, p.Rating,
		p.TotalReviews, p.Image, images, specs, p.Description, now,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to insert product: %v", err)
	}
	p.FirstSeen = now
	p.LastUpdated = now
	return nil
}

// Update refreshes the mutable price/metadata fields of an existing row,
// matched by natural key. The identifier itself is immutable.
func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	images, err := json.Marshal(p.Images)
	if err != nil {
		return fmt.Errorf("failed to encode images: %v", err)
	}
	specs, err := json.Marshal(p.Specifications)
	if err != nil {
		return fmt.Errorf("failed to encode specifications: %v", err)
	}

	query := fmt.Sprintf(`
		UPDATE products
		SET title = $2, brand = $3, url = $4, current_price = $5,
			price_numeric = $6, original_price = $7, discount = $8,
			rating = $9, total_reviews = $10, image = $11, images = $12,
			specifications = $13, description = $14, last_updated = $15
		WHERE %s = $1
	`, p.Key.Field())

	_, err = r.db.ExecContext(ctx, query,
		p.Key.Value, p.Title, p.Brand, p.URL, p.CurrentPrice,
		p.PriceNumeric, p.OriginalPrice, p.Discount, p.Rating,
		p.TotalReviews, p.Image, images, specs, p.Description, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %v", err)
	}
	return nil
}

// UpdatePrice refreshes only the live price fields and timestamp.
func (r *ProductRepository) UpdatePrice(ctx context.Context, key models.ProductKey, price string, priceNumeric float64) error {
	query := fmt.Sprintf(`
		UPDATE products
		SET current_price = $2, price_numeric = $3, last_updated = $4
		WHERE %s = $1
	`, key.Field())

	_, err := r.db.ExecContext(ctx, query, key.Value, price, priceNumeric, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update product price: %v", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *ProductRepository) scanOne(row rowScanner) (*models.Product, error) {
	var (
		p               models.Product
		asin, productID sql.NullString
		images, specs   []byte
	)
	err := row.Scan(
		&p.ID, &asin, &productID, &p.Platform,
		&p.Title, &p.Brand, &p.URL,
		&p.CurrentPrice, &p.PriceNumeric,
		&p.OriginalPrice, &p.Discount,
		&p.Rating, &p.TotalReviews,
		&p.Image, &images, &specs,
		&p.Description, &p.FirstSeen, &p.LastUpdated,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan product: %v", err)
	}

	switch {
	case asin.Valid:
		p.Key = models.ASINKey(asin.String)
	case productID.Valid:
		p.Key = models.GenericKey(productID.String)
	}

	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return nil, fmt.Errorf("failed to decode images: %v", err)
		}
	}
	if len(specs) > 0 {
		if err := json.Unmarshal(specs, &p.Specifications); err != nil {
			return nil, fmt.Errorf("failed to decode specifications: %v", err)
		}
	}

	return &p, nil
}

func (r *ProductRepository) scanMany(rows *sql.Rows) ([]models.Product, error) {
	var products []models.Product
	for rows.Next() {
		p, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}
