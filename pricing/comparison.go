package pricing

import (
	"context"
	"log"
	"sort"

	"pricelens/matching"
	"pricelens/models"
	"pricelens/normalize"
)

// PlatformPrice is one row of a comparison table: the best single match for
// the searched name on one platform, flattened for display, with the match
// confidence carried so the client can flag speculative rows.
type PlatformPrice struct {
	Platform      string              `json:"platform"`
	Identifier    string              `json:"product_id,omitempty"`
	Title         string              `json:"title,omitempty"`
	Image         string              `json:"image,omitempty"`
	CurrentPrice  *float64            `json:"current_price"`
	OriginalPrice *float64            `json:"original_price,omitempty"`
	Rating        float64             `json:"rating,omitempty"`
	ReviewsCount  int                 `json:"reviews_count,omitempty"`
	URL           string              `json:"url,omitempty"`
	Available     bool                `json:"availability"`
	Confidence    matching.Confidence `json:"confidence"`
}

// ComparisonResult is the cross-platform price comparison for one product
// name. Platforms with no match still appear, marked unavailable.
type ComparisonResult struct {
	ProductName       string          `json:"product_name"`
	Platforms         []PlatformPrice `json:"platforms"`
	BestPrice         *float64        `json:"best_price"`
	BestPlatform      string          `json:"best_platform,omitempty"`
	WorstPrice        *float64        `json:"worst_price,omitempty"`
	WorstPlatform     string          `json:"worst_platform,omitempty"`
	PriceDifference   float64         `json:"price_difference"`
	SavingsPercentage float64         `json:"savings_percentage"`
}

// Comparator builds comparison tables by running the matcher once per
// platform against tokens extracted from the searched name.
type Comparator struct {
	matcher *matching.Matcher
}

// NewComparator creates a comparator over the given matcher.
func NewComparator(matcher *matching.Matcher) *Comparator {
	return &Comparator{matcher: matcher}
}

// Compare finds the searched product on every platform and summarizes the
// spread. Strict matching is tried first; a platform with no strict match
// falls back to relaxed matching so the table stays useful, with the lower
// confidence made explicit.
func (c *Comparator) Compare(ctx context.Context, productName string) *ComparisonResult {
	tokens := matching.Extract(productName, "")
	result := &ComparisonResult{ProductName: productName}

	for _, platform := range models.AllPlatforms {
		row := PlatformPrice{Platform: platform, Confidence: matching.ConfidenceNone}

		match, err := c.matcher.FindStrict(ctx, tokens, platform)
		if err != nil {
			log.Printf("compare: strict lookup on %s failed: %v", platform, err)
		}
		if match == nil && err == nil {
			match, err = c.matcher.FindRelaxed(ctx, tokens, platform)
			if err != nil {
				log.Printf("compare: relaxed lookup on %s failed: %v", platform, err)
			}
		}

		if match != nil {
			product := match.Product
			row.Identifier = product.Key.Value
			row.Title = product.Title
			row.Image = product.Image
			row.URL = product.URL
			row.Rating = normalize.ParseRating(product.Rating)
			row.ReviewsCount = normalize.ParseReviewsCount(product.TotalReviews)
			row.Confidence = match.Confidence

			price := product.PriceNumeric
			if price == 0 {
				price = normalize.ParsePrice(product.CurrentPrice)
			}
			if price > 0 {
				row.CurrentPrice = &price
				row.Available = true
			}
			if original := normalize.ParsePrice(product.OriginalPrice); original > 0 {
				row.OriginalPrice = &original
			}
		}

		result.Platforms = append(result.Platforms, row)
	}

	sort.Slice(result.Platforms, func(i, j int) bool {
		return result.Platforms[i].Platform < result.Platforms[j].Platform
	})

	c.summarize(result)
	return result
}

// summarize fills best/worst price fields from the priced rows.
func (c *Comparator) summarize(result *ComparisonResult) {
	for i := range result.Platforms {
		row := &result.Platforms[i]
		if row.CurrentPrice == nil {
			continue
		}
		price := *row.CurrentPrice
		if result.BestPrice == nil || price < *result.BestPrice {
			result.BestPrice = &price
			result.BestPlatform = row.Platform
		}
		if result.WorstPrice == nil || price > *result.WorstPrice {
			result.WorstPrice = &price
			result.WorstPlatform = row.Platform
		}
	}
	if result.BestPrice != nil && result.WorstPrice != nil {
		result.PriceDifference = round2(*result.WorstPrice - *result.BestPrice)
		if *result.WorstPrice > 0 {
			result.SavingsPercentage = round2(result.PriceDifference / *result.WorstPrice * 100)
		}
	}
}
