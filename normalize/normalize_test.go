package normalize

import (
	"strconv"
	"testing"
)

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"₹1,599.00", 1599.00},
		{"₹1,599", 1599},
		{"$19.99", 19.99},
		{"1299", 1299},
		{"Rs. 2,45,999", 245999},
		{"", 0},
		{"out of stock", 0},
	}
	for _, c := range cases {
		if got := ParsePrice(c.in); got != c.want {
			t.Fatalf("ParsePrice(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParsePriceIdempotent(t *testing.T) {
	inputs := []string{"₹1,599.00", "$19.99", "499", "no price", ""}
	for _, in := range inputs {
		once := ParsePrice(in)
		again := ParsePrice(strconv.FormatFloat(once, 'f', -1, 64))
		if once != again {
			t.Fatalf("ParsePrice not idempotent for %q: %v != %v", in, once, again)
		}
	}
}

func TestParseRating(t *testing.T) {
	if got := ParseRating("4.2 out of 5 stars"); got != 4.2 {
		t.Fatalf("expected 4.2, got %v", got)
	}
	if got := ParseRating("5"); got != 5 {
		t.Fatalf("expected 5, got %v", got)
	}
	if got := ParseRating("no rating"); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}

func TestParseReviewsCount(t *testing.T) {
	if got := ParseReviewsCount("34,021 ratings"); got != 34021 {
		t.Fatalf("expected 34021, got %d", got)
	}
	if got := ParseReviewsCount("  1,203 "); got != 1203 {
		t.Fatalf("expected 1203, got %d", got)
	}
	if got := ParseReviewsCount("none yet"); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestSelectImage(t *testing.T) {
	images := []string{
		"https://m.media-amazon.com/images/I/360_icon_thumb.png",
		"https://m.media-amazon.com/images/I/71abc123.jpg",
	}
	if got := SelectImage(images, ""); got != images[1] {
		t.Fatalf("expected product image, got %q", got)
	}

	// Filtering everything falls back to the first unfiltered image.
	onlyIcons := []string{"https://cdn/x/360_icon.png"}
	if got := SelectImage(onlyIcons, ""); got != onlyIcons[0] {
		t.Fatalf("expected fallback to first image, got %q", got)
	}

	// Empty array falls back to the scalar field.
	if got := SelectImage(nil, "https://cdn/main.jpg"); got != "https://cdn/main.jpg" {
		t.Fatalf("expected scalar fallback, got %q", got)
	}
}

func TestFilterImages(t *testing.T) {
	images := []string{
		"https://cdn/a.jpg",
		"https://cdn/b_SX38_.jpg",
		"https://cdn/c.jpg",
	}
	got := FilterImages(images)
	if len(got) != 2 || got[0] != images[0] || got[1] != images[2] {
		t.Fatalf("unexpected filtered set: %v", got)
	}

	onlyIcons := []string{"https://cdn/360_icon.png"}
	if got := FilterImages(onlyIcons); len(got) != 1 {
		t.Fatalf("expected original set back, got %v", got)
	}
}
