package matching

import (
	"context"
	"log"

	"pricelens/models"
)

// Confidence grades how a cross-platform match was found, so consumers can
// tell a high-precision match from a speculative one.
type Confidence string

const (
	// ConfidenceExact means every combined search term matched.
	ConfidenceExact Confidence = "exact-tokens"
	// ConfidencePartial means only the two leading key words matched.
	ConfidencePartial Confidence = "partial-tokens"
	// ConfidenceNone means no counterpart was found.
	ConfidenceNone Confidence = "none"
)

// Match is one counterpart listing found on another platform.
type Match struct {
	Product    *models.Product `json:"product"`
	Confidence Confidence      `json:"confidence"`
}

// ProductFinder is the slice of the product store the matcher queries: a
// single conjunctive lookup requiring every term to appear (case-insensitive
// substring) in the candidate's title or brand, restricted to one platform.
// A nil product with a nil error means no row matched.
type ProductFinder interface {
	FindByTerms(ctx context.Context, platform string, terms []string) (*models.Product, error)
}

// Matcher resolves cross-platform product identity against the store.
type Matcher struct {
	store ProductFinder
}

// NewMatcher creates a matcher over the given store.
func NewMatcher(store ProductFinder) *Matcher {
	return &Matcher{store: store}
}

// FindStrict looks for the single listing on a platform whose title/brand
// contains every combined search term. Used for product-detail enrichment,
// where a wrong match is worse than no match. Fewer than two usable terms
// means no query is issued and no match is returned.
func (m *Matcher) FindStrict(ctx context.Context, tokens IdentityTokens, platform string) (*Match, error) {
	terms := tokens.SearchTerms()
	if len(terms) < 2 {
		return nil, nil
	}
	product, err := m.store.FindByTerms(ctx, platform, terms)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}
	if product.Key.IsZero() {
		log.Printf("matcher: %s row %d has no asin or product_id, skipping", platform, product.ID)
		return nil, nil
	}
	return &Match{Product: product, Confidence: ConfidenceExact}, nil
}

// FindRelaxed looks for a counterpart using only the two leading key words.
// Used for price-history reconstruction, which degrades gracefully when a
// similar-but-wrong listing slips in.
func (m *Matcher) FindRelaxed(ctx context.Context, tokens IdentityTokens, platform string) (*Match, error) {
	if len(tokens.KeyWords) < 2 {
		return nil, nil
	}
	product, err := m.store.FindByTerms(ctx, platform, tokens.KeyWords[:2])
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}
	if product.Key.IsZero() {
		log.Printf("matcher: %s row %d has no asin or product_id, skipping", platform, product.ID)
		return nil, nil
	}
	return &Match{Product: product, Confidence: ConfidencePartial}, nil
}

// FindCounterparts runs one independent strict query per platform other than
// the product's own and returns whatever matched. A failed or empty lookup
// on one platform never blocks the others.
func (m *Matcher) FindCounterparts(ctx context.Context, product *models.Product) map[string]*Match {
	tokens := Extract(product.Title, product.Brand)
	matches := make(map[string]*Match)
	for _, platform := range models.AllPlatforms {
		if platform == product.Platform {
			continue
		}
		match, err := m.FindStrict(ctx, tokens, platform)
		if err != nil {
			log.Printf("matcher: strict lookup on %s failed: %v", platform, err)
			continue
		}
		if match != nil {
			matches[platform] = match
		}
	}
	return matches
}

// CounterpartKeys resolves, per platform, the natural key whose history
// should feed a merged price chart. The source product's own platform is
// always included; other platforms are found with relaxed matching.
func (m *Matcher) CounterpartKeys(ctx context.Context, product *models.Product) map[string]models.ProductKey {
	tokens := Extract(product.Title, product.Brand)
	keys := map[string]models.ProductKey{product.Platform: product.Key}
	for _, platform := range models.AllPlatforms {
		if platform == product.Platform {
			continue
		}
		match, err := m.FindRelaxed(ctx, tokens, platform)
		if err != nil {
			log.Printf("matcher: relaxed lookup on %s failed: %v", platform, err)
			continue
		}
		if match != nil {
			keys[platform] = match.Product.Key
		}
	}
	return keys
}
