package matching

import (
	"context"
	"strings"
	"testing"

	"pricelens/models"
)

// fakeStore mirrors the repository's conjunctive ILIKE semantics in memory.
type fakeStore struct {
	products []*models.Product
	queries  int
}

func (f *fakeStore) FindByTerms(ctx context.Context, platform string, terms []string) (*models.Product, error) {
	f.queries++
	for _, p := range f.products {
		if p.Platform != platform {
			continue
		}
		matched := true
		for _, term := range terms {
			title := strings.ToLower(p.Title)
			brand := strings.ToLower(p.Brand)
			if !strings.Contains(title, term) && !strings.Contains(brand, term) {
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

func amazonProduct(asin, title, brand string) *models.Product {
	return &models.Product{
		Key:      models.ASINKey(asin),
		Platform: models.PlatformAmazon,
		Title:    title,
		Brand:    brand,
	}
}

func flipkartProduct(id, title, brand string) *models.Product {
	return &models.Product{
		Key:      models.GenericKey(id),
		Platform: models.PlatformFlipkart,
		Title:    title,
		Brand:    brand,
	}
}

func TestStrictMatchAcrossPlatforms(t *testing.T) {
	source := amazonProduct("B08X", "Wild Stone Edge Perfume for Men", "Wild Stone")
	counterpart := flipkartProduct("FK123", "Wild Stone Edge Perfume Men 100ml", "Wild Stone")

	store := &fakeStore{products: []*models.Product{source, counterpart}}
	matcher := NewMatcher(store)

	matches := matcher.FindCounterparts(context.Background(), source)
	match, ok := matches[models.PlatformFlipkart]
	if !ok {
		t.Fatalf("expected a flipkart counterpart, got %v", matches)
	}
	if match.Product.Key.Value != "FK123" {
		t.Fatalf("expected product_id FK123, got %q", match.Product.Key.Value)
	}
	if match.Confidence != ConfidenceExact {
		t.Fatalf("expected exact-tokens confidence, got %q", match.Confidence)
	}
}

func TestStrictRejectsDifferentImportantToken(t *testing.T) {
	source := amazonProduct("B16P", "Apple iPhone 16 Pro 256GB", "Apple")
	wrongModel := flipkartProduct("FK17", "Apple iPhone 17 Pro 256GB", "Apple")

	store := &fakeStore{products: []*models.Product{wrongModel}}
	matcher := NewMatcher(store)

	tokens := Extract(source.Title, source.Brand)
	match, err := matcher.FindStrict(context.Background(), tokens, models.PlatformFlipkart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match != nil {
		t.Fatalf("expected no match for a different model year, got %+v", match.Product)
	}
}

func TestStrictRequiresTwoTerms(t *testing.T) {
	store := &fakeStore{products: []*models.Product{
		flipkartProduct("FKTV", "TV", ""),
	}}
	matcher := NewMatcher(store)

	tokens := Extract("TV", "")
	match, err := matcher.FindStrict(context.Background(), tokens, models.PlatformFlipkart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match != nil {
		t.Fatalf("expected no match with fewer than 2 terms")
	}
	if store.queries != 0 {
		t.Fatalf("expected no query to be issued, got %d", store.queries)
	}
}

func TestRelaxedUsesTwoKeyWords(t *testing.T) {
	// Differs in the important token, so strict would reject it; relaxed
	// matches on the two leading key words alone.
	counterpart := flipkartProduct("FK17", "Apple iPhone 17 Pro 256GB", "Apple")
	store := &fakeStore{products: []*models.Product{counterpart}}
	matcher := NewMatcher(store)

	tokens := Extract("Apple iPhone 16 Pro 256GB", "Apple")
	match, err := matcher.FindRelaxed(context.Background(), tokens, models.PlatformFlipkart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match == nil {
		t.Fatalf("expected a relaxed match")
	}
	if match.Confidence != ConfidencePartial {
		t.Fatalf("expected partial-tokens confidence, got %q", match.Confidence)
	}
}

func TestMatchSkipsRowWithoutIdentifier(t *testing.T) {
	broken := &models.Product{
		Platform: models.PlatformFlipkart,
		Title:    "Wild Stone Edge Perfume Men",
		Brand:    "Wild Stone",
	}
	store := &fakeStore{products: []*models.Product{broken}}
	matcher := NewMatcher(store)

	tokens := Extract("Wild Stone Edge Perfume for Men", "Wild Stone")
	match, err := matcher.FindStrict(context.Background(), tokens, models.PlatformFlipkart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match != nil {
		t.Fatalf("row without identifier must be treated as not found")
	}
}

func TestCounterpartKeysAlwaysIncludesSource(t *testing.T) {
	source := amazonProduct("B08X", "Wild Stone Edge Perfume for Men", "Wild Stone")
	store := &fakeStore{products: []*models.Product{source}}
	matcher := NewMatcher(store)

	keys := matcher.CounterpartKeys(context.Background(), source)
	key, ok := keys[models.PlatformAmazon]
	if !ok || key.Value != "B08X" {
		t.Fatalf("expected source platform key, got %v", keys)
	}
	if len(keys) != 1 {
		t.Fatalf("expected no counterpart keys, got %v", keys)
	}
}
