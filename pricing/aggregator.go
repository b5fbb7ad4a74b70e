// Package pricing reconstructs unified cross-platform price time-series and
// computes per-listing price statistics. It is a pure read-side aggregation:
// every request is a bounded sequence of independent point queries and no
// state is written.
package pricing

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"pricelens/matching"
	"pricelens/models"
	"pricelens/normalize"
)

// DefaultHistoryDays is the window used when the caller does not pass one.
const DefaultHistoryDays = 30

// Period selects the bucket size of a merged price history: one table row
// per day, per ISO week, or per calendar month.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// ParsePeriod validates a period query value; empty means daily.
func ParsePeriod(raw string) (Period, error) {
	switch Period(raw) {
	case "", PeriodDaily:
		return PeriodDaily, nil
	case PeriodWeekly:
		return PeriodWeekly, nil
	case PeriodMonthly:
		return PeriodMonthly, nil
	}
	return "", fmt.Errorf("invalid period %q", raw)
}

// bucket labels a timestamp. Weekly buckets are labeled by the Monday of
// their week so labels stay sortable date strings.
func (p Period) bucket(t time.Time) string {
	switch p {
	case PeriodWeekly:
		weekday := int(t.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		return t.AddDate(0, 0, 1-weekday).Format("2006-01-02")
	case PeriodMonthly:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

// ProductStore is the point-lookup slice of the product store.
type ProductStore interface {
	FindByKey(ctx context.Context, key models.ProductKey) (*models.Product, error)
}

// HistoryStore reads the append-only price log.
type HistoryStore interface {
	// ListRange returns entries for one listing within [from, to], ordered
	// ascending by timestamp.
	ListRange(ctx context.Context, key models.ProductKey, from, to time.Time) ([]models.PriceHistoryEntry, error)
	// ListAll returns every entry for one listing, ordered descending by
	// timestamp.
	ListAll(ctx context.Context, key models.ProductKey) ([]models.PriceHistoryEntry, error)
}

// HistoryResult is the charting payload for one listing: a date-indexed
// table with one price column per platform, headline statistics for the
// source listing only, and the set of platforms that contributed data.
// Warnings flag platforms whose fetch failed; their absence does not fail
// the request.
type HistoryResult struct {
	History   []models.PricePoint `json:"history"`
	Stats     models.PriceStats   `json:"stats"`
	Platforms []string            `json:"platforms"`
	Warnings  []string            `json:"warnings,omitempty"`
}

// Aggregator merges per-platform price histories into one table.
type Aggregator struct {
	products ProductStore
	history  HistoryStore
	matcher  *matching.Matcher
}

// NewAggregator creates an aggregator over the given stores.
func NewAggregator(products ProductStore, history HistoryStore, matcher *matching.Matcher) *Aggregator {
	return &Aggregator{products: products, history: history, matcher: matcher}
}

// PriceHistory builds the merged history and stats for the listing behind
// key. The source listing not existing is the only hard failure; everything
// else degrades to a well-formed partial payload.
func (a *Aggregator) PriceHistory(ctx context.Context, key models.ProductKey, days int, period Period) (*HistoryResult, error) {
	if days <= 0 {
		days = DefaultHistoryDays
	}
	if period == "" {
		period = PeriodDaily
	}

	product, err := a.products.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	from := now.AddDate(0, 0, -days)

	result := &HistoryResult{}
	keys := a.matcher.CounterpartKeys(ctx, product)

	// Each bucket label holds one price per platform; entries arrive in
	// ascending timestamp order, so the last write per platform per bucket
	// wins.
	merged := make(map[string]map[string]float64)
	for platform, platformKey := range keys {
		entries, err := a.history.ListRange(ctx, platformKey, from, now)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: price history unavailable", platform))
			continue
		}
		if len(entries) == 0 {
			continue
		}
		for i := range entries {
			entry := &entries[i]
			date := period.bucket(entry.Timestamp.UTC())
			price, ok := entry.NumericPrice()
			if !ok {
				price = normalize.ParsePrice(entry.Price)
			}
			if merged[date] == nil {
				merged[date] = make(map[string]float64)
			}
			merged[date][platform] = price
		}
		result.Platforms = append(result.Platforms, platform)
	}

	dates := make([]string, 0, len(merged))
	for date := range merged {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	for _, date := range dates {
		result.History = append(result.History, models.PricePoint{Date: date, Prices: merged[date]})
	}
	sort.Strings(result.Platforms)

	stats, warning := a.statsFor(ctx, product)
	result.Stats = stats
	if warning != "" {
		result.Warnings = append(result.Warnings, warning)
	}

	return result, nil
}

// Stats computes headline price statistics for one listing.
func (a *Aggregator) Stats(ctx context.Context, key models.ProductKey) (models.PriceStats, error) {
	product, err := a.products.FindByKey(ctx, key)
	if err != nil {
		return models.PriceStats{}, err
	}
	stats, warning := a.statsFor(ctx, product)
	if warning != "" {
		return stats, fmt.Errorf("%s", warning)
	}
	return stats, nil
}

// statsFor derives statistics from the full descending history of the source
// listing. With no usable history rows, a listing with a live price is
// assumed stable at that price; with no price at all, every field stays nil.
func (a *Aggregator) statsFor(ctx context.Context, product *models.Product) (models.PriceStats, string) {
	entries, err := a.history.ListAll(ctx, product.Key)
	warning := ""
	if err != nil {
		warning = "price statistics incomplete: history unavailable"
		entries = nil
	}

	var prices []float64 // descending by timestamp, positive numeric rows only
	for i := range entries {
		price, ok := entries[i].NumericPrice()
		if !ok {
			price = normalize.ParsePrice(entries[i].Price)
		}
		if price <= 0 {
			continue
		}
		prices = append(prices, price)
	}

	if len(prices) > 0 {
		current := prices[0]
		lowest, highest := prices[0], prices[0]
		sum := 0.0
		for _, p := range prices {
			if p < lowest {
				lowest = p
			}
			if p > highest {
				highest = p
			}
			sum += p
		}
		average := round2(sum / float64(len(prices)))
		drop := 0.0
		if highest > 0 {
			drop = round2((highest - current) / highest * 100)
		}
		return models.PriceStats{
			CurrentPrice:        &current,
			LowestPrice:         &lowest,
			HighestPrice:        &highest,
			AveragePrice:        &average,
			PriceDropPercentage: &drop,
			TotalRecords:        len(prices),
		}, warning
	}

	live := product.PriceNumeric
	if live == 0 {
		live = normalize.ParsePrice(product.CurrentPrice)
	}
	if live > 0 {
		zero := 0.0
		return models.PriceStats{
			CurrentPrice:        &live,
			LowestPrice:         &live,
			HighestPrice:        &live,
			AveragePrice:        &live,
			PriceDropPercentage: &zero,
			TotalRecords:        0,
		}, warning
	}

	// No pricing data at all; nil fields are distinguishable from zero.
	return models.PriceStats{}, warning
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
