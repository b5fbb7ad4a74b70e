package scraper

import "testing"

func TestSpiderForURL(t *testing.T) {
	cases := []struct {
		url    string
		spider string
	}{
		{"https://www.amazon.in/dp/B0CHX1W1XY", "amazon"},
		{"https://amazon.in/dp/B0CHX1W1XY", "amazon"},
		{"https://www.flipkart.com/apple-iphone-15/p/itm6ac6485515ae4", "flipkart"},
		{"https://www.myntra.com/shirts/roadster/123", "myntra"},
		{"https://www.meesho.com/product/456", "meesho"},
	}
	for _, tc := range cases {
		spider, err := SpiderForURL(tc.url)
		if err != nil {
			t.Fatalf("SpiderForURL(%q) failed: %v", tc.url, err)
		}
		if spider != tc.spider {
			t.Fatalf("SpiderForURL(%q) = %q, want %q", tc.url, spider, tc.spider)
		}
	}
}

func TestSpiderForURLUnsupportedHost(t *testing.T) {
	if _, err := SpiderForURL("https://www.ebay.com/itm/123"); err == nil {
		t.Fatal("expected error for unsupported host")
	}
	if _, err := SpiderForURL("not a url"); err == nil {
		t.Fatal("expected error for malformed url")
	}
}

func TestParseOutput(t *testing.T) {
	data := []byte(`[{"asin":"B0CHX1W1XY","platform":"amazon","title":"Apple iPhone 15","price":"₹52,999"}]`)
	items, err := ParseOutput(data)
	if err != nil {
		t.Fatalf("ParseOutput failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].ASIN != "B0CHX1W1XY" || items[0].Title != "Apple iPhone 15" {
		t.Fatalf("unexpected item: %+v", items[0])
	}
}

func TestParseOutputEmpty(t *testing.T) {
	items, err := ParseOutput(nil)
	if err != nil {
		t.Fatalf("ParseOutput failed: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
}
