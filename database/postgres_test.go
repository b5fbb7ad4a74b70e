package database

import (
	"strings"
	"testing"
)

// Concurrent scrape workers upsert the same reviews; the dedup invariant
// must live in the store as unique indexes, not only in repository logic.
func TestSchemaDeclaresReviewDedupIndexes(t *testing.T) {
	wantIndexes := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_reviews_asin_dedup ON reviews (asin, text, author) WHERE asin IS NOT NULL",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_reviews_product_id_dedup ON reviews (product_id, text, author) WHERE product_id IS NOT NULL",
	}
	for _, want := range wantIndexes {
		found := false
		for _, stmt := range Schema {
			if strings.Contains(stmt, want) {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("schema is missing unique review index: %s", want)
		}
	}
}

func TestSchemaEnforcesSingleNaturalKey(t *testing.T) {
	for _, stmt := range Schema {
		if strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS products") {
			if !strings.Contains(stmt, "CHECK ((asin IS NOT NULL) <> (product_id IS NOT NULL))") {
				t.Fatal("products table must require exactly one of asin/product_id")
			}
			return
		}
	}
	t.Fatal("products table not found in schema")
}
