package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Supported platforms
const (
	PlatformAmazon   = "amazon"
	PlatformFlipkart = "flipkart"
	PlatformMyntra   = "myntra"
	PlatformMeesho   = "meesho"
)

// AllPlatforms lists every platform a listing can live on.
var AllPlatforms = []string{PlatformAmazon, PlatformFlipkart, PlatformMyntra, PlatformMeesho}

// KeyKind says which natural-key column identifies a listing.
type KeyKind int

const (
	// KeyASIN is the Amazon-style identifier.
	KeyASIN KeyKind = iota
	// KeyGenericID is the product_id used by Flipkart, Myntra and Meesho.
	KeyGenericID
)

// ProductKey is the platform-specific natural key of one listing. Exactly one
// of the asin/product_id columns is set per product row; the kind is resolved
// once at the store boundary and carried explicitly from then on.
type ProductKey struct {
	Kind  KeyKind
	Value string
}

// ASINKey builds a key for an Amazon listing.
func ASINKey(v string) ProductKey {
	return ProductKey{Kind: KeyASIN, Value: v}
}

// GenericKey builds a key for a Flipkart/Myntra/Meesho listing.
func GenericKey(v string) ProductKey {
	return ProductKey{Kind: KeyGenericID, Value: v}
}

// KeyForPlatform picks the key kind that matches a platform's id scheme.
func KeyForPlatform(platform, value string) ProductKey {
	if platform == PlatformAmazon {
		return ASINKey(value)
	}
	return GenericKey(value)
}

// Field returns the column this key lives in.
func (k ProductKey) Field() string {
	if k.Kind == KeyASIN {
		return "asin"
	}
	return "product_id"
}

func (k ProductKey) String() string {
	return k.Value
}

// IsZero reports whether the key is unset.
func (k ProductKey) IsZero() bool {
	return k.Value == ""
}

// Product is the canonical form of one listing on one platform. Scraped
// records are normalized into this shape at ingestion; the matching and
// aggregation core never sees raw per-platform field variants.
type Product struct {
	ID             int               `json:"id"`
	Key            ProductKey        `json:"-"`
	Platform       string            `json:"platform"`
	Title          string            `json:"title"`
	Brand          string            `json:"brand"`
	URL            string            `json:"url"`
	CurrentPrice   string            `json:"current_price"`
	PriceNumeric   float64           `json:"price_numeric"`
	OriginalPrice  string            `json:"original_price,omitempty"`
	Discount       string            `json:"discount,omitempty"`
	Rating         string            `json:"rating,omitempty"`
	TotalReviews   string            `json:"total_reviews,omitempty"`
	Image          string            `json:"image,omitempty"`
	Images         []string          `json:"images,omitempty"`
	Description    string            `json:"description,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty"`
	FirstSeen      time.Time         `json:"first_seen"`
	LastUpdated    time.Time         `json:"last_updated"`
}

// MarshalJSON emits the natural key under its platform-specific name so
// payloads match what the scrapers produced ("asin" or "product_id").
func (p *Product) MarshalJSON() ([]byte, error) {
	type Alias Product
	out := &struct {
		*Alias
		ASIN      string `json:"asin,omitempty"`
		ProductID string `json:"product_id,omitempty"`
	}{Alias: (*Alias)(p)}
	if p.Key.Kind == KeyASIN {
		out.ASIN = p.Key.Value
	} else {
		out.ProductID = p.Key.Value
	}
	return json.Marshal(out)
}

// PriceHistoryEntry is one observed price for one listing. The history table
// is an append-only log; entries are never updated or deleted.
type PriceHistoryEntry struct {
	ID           int             `json:"id"`
	Key          ProductKey      `json:"-"`
	Platform     string          `json:"platform"`
	Price        string          `json:"price"`
	PriceNumeric sql.NullFloat64 `json:"-"`
	Timestamp    time.Time       `json:"timestamp"`
}

// NumericPrice returns the stored numeric price, or ok=false when the entry
// predates numeric backfill.
func (e *PriceHistoryEntry) NumericPrice() (float64, bool) {
	if e.PriceNumeric.Valid {
		return e.PriceNumeric.Float64, true
	}
	return 0, false
}

// Review is one scraped customer review, deduplicated on (key, text, author).
type Review struct {
	ID        int        `json:"id"`
	Key       ProductKey `json:"-"`
	Platform  string     `json:"platform"`
	Text      string     `json:"text"`
	Rating    string     `json:"rating,omitempty"`
	Author    string     `json:"author,omitempty"`
	ScrapedAt time.Time  `json:"scraped_at"`
}

// TrackedProduct is a URL registered for scheduled re-scraping.
type TrackedProduct struct {
	ID          int        `json:"id"`
	URL         string     `json:"url"`
	Spider      string     `json:"spider"`
	IsActive    bool       `json:"is_active"`
	LastScraped *time.Time `json:"last_scraped"`
	CreatedAt   time.Time  `json:"created_at"`
}

// PriceAlert fires when a tracked product's price crosses a threshold.
type PriceAlert struct {
	ID          int        `json:"id"`
	TrackedID   int        `json:"tracked_id"`
	TargetPrice float64    `json:"target_price"`
	AlertType   string     `json:"alert_type"` // "price_drop", "percentage_drop"
	Percentage  float64    `json:"percentage"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	TriggeredAt *time.Time `json:"triggered_at"`
}

// PriceStats summarizes one listing's price history. All price fields are nil
// when no pricing data exists at all, which is distinct from a zero price.
type PriceStats struct {
	CurrentPrice        *float64 `json:"current_price"`
	LowestPrice         *float64 `json:"lowest_price"`
	HighestPrice        *float64 `json:"highest_price"`
	AveragePrice        *float64 `json:"average_price"`
	PriceDropPercentage *float64 `json:"price_drop_percentage"`
	TotalRecords        int      `json:"total_records"`
}

// PricePoint is one calendar day in a merged cross-platform time series,
// holding at most one price per platform.
type PricePoint struct {
	Date   string             `json:"date"`
	Prices map[string]float64 `json:"prices"`
}

// ScrapedReview is a review as emitted by a spider.
type ScrapedReview struct {
	Text   string `json:"text"`
	Rating string `json:"rating"`
	Author string `json:"author"`
}

// ScrapedItem is the raw record a spider emits. Field names vary per
// platform; ingest.Normalize maps this onto the canonical Product exactly
// once, so fallback chains like "name or title" live in one place.
type ScrapedItem struct {
	ASIN           string            `json:"asin"`
	ProductID      string            `json:"product_id"`
	Platform       string            `json:"platform"`
	Spider         string            `json:"spider"`
	URL            string            `json:"url"`
	Title          string            `json:"title"`
	Name           string            `json:"name"`
	ProductName    string            `json:"product_name"`
	Brand          string            `json:"brand"`
	Price          string            `json:"price"`
	PriceNumeric   float64           `json:"price_numeric"`
	OriginalPrice  string            `json:"original_price"`
	Discount       string            `json:"discount"`
	Rating         string            `json:"rating"`
	TotalReviews   string            `json:"total_reviews"`
	Images         []string          `json:"images"`
	Image          string            `json:"image"`
	ImageURL       string            `json:"image_url"`
	Description    string            `json:"description"`
	Specifications map[string]string `json:"specifications"`
	Reviews        []ScrapedReview   `json:"reviews_from_page"`
}

// AddTrackRequest registers a URL for scheduled scraping.
type AddTrackRequest struct {
	URL string `json:"url"`
}

// ScrapeRequest asks for a one-off scrape of a listing URL.
type ScrapeRequest struct {
	URL string `json:"url"`
}

// SetAlertRequest creates a price alert on a tracked product.
type SetAlertRequest struct {
	TargetPrice float64 `json:"target_price"`
	AlertType   string  `json:"alert_type"`
	Percentage  float64 `json:"percentage"`
}

// QuestionRequest asks a free-form question about a product's reviews.
type QuestionRequest struct {
	Question string `json:"question"`
}

// CompareRequest asks for a cross-platform price comparison by product name.
type CompareRequest struct {
	ProductName string `json:"product_name"`
}
