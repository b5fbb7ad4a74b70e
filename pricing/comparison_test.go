package pricing

import (
	"context"
	"strings"
	"testing"

	"pricelens/matching"
	"pricelens/models"
)

type comparisonStore struct {
	products []*models.Product
}

func (s *comparisonStore) FindByTerms(ctx context.Context, platform string, terms []string) (*models.Product, error) {
	for _, p := range s.products {
		if p.Platform != platform {
			continue
		}
		matched := true
		for _, term := range terms {
			if !strings.Contains(strings.ToLower(p.Title), term) &&
				!strings.Contains(strings.ToLower(p.Brand), term) {
				matched = false
				break
			}
		}
		if matched {
			return p, nil
		}
	}
	return nil, nil
}

func TestCompareFindsBestAndWorstPlatform(t *testing.T) {
	store := &comparisonStore{products: []*models.Product{
		{
			Key:          models.ASINKey("B08X"),
			Platform:     models.PlatformAmazon,
			Title:        "Wild Stone Edge Perfume for Men",
			Brand:        "Wild Stone",
			PriceNumeric: 299,
			Rating:       "4.2 out of 5 stars",
			TotalReviews: "1,204 ratings",
		},
		{
			Key:          models.GenericKey("FK123"),
			Platform:     models.PlatformFlipkart,
			Title:        "Wild Stone Edge Perfume Men 100ml",
			Brand:        "Wild Stone",
			CurrentPrice: "₹279",
		},
	}}

	comparator := NewComparator(matching.NewMatcher(store))
	result := comparator.Compare(context.Background(), "Wild Stone Edge Perfume")

	if len(result.Platforms) != len(models.AllPlatforms) {
		t.Fatalf("expected a row per platform, got %d", len(result.Platforms))
	}
	if result.BestPlatform != models.PlatformFlipkart || *result.BestPrice != 279 {
		t.Fatalf("best = %s %v, want flipkart 279", result.BestPlatform, result.BestPrice)
	}
	if result.WorstPlatform != models.PlatformAmazon || *result.WorstPrice != 299 {
		t.Fatalf("worst = %s %v, want amazon 299", result.WorstPlatform, result.WorstPrice)
	}
	if result.PriceDifference != 20 {
		t.Fatalf("price_difference = %v, want 20", result.PriceDifference)
	}

	for _, row := range result.Platforms {
		switch row.Platform {
		case models.PlatformAmazon:
			if row.Rating != 4.2 || row.ReviewsCount != 1204 {
				t.Fatalf("amazon row not normalized: %+v", row)
			}
		case models.PlatformMyntra, models.PlatformMeesho:
			if row.Available || row.Confidence != matching.ConfidenceNone {
				t.Fatalf("expected unavailable row for %s: %+v", row.Platform, row)
			}
		}
	}
}
