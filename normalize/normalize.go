// Package normalize converts raw scraped strings into canonical numeric and
// string forms. Every function is total: unparseable input yields the
// documented zero default, never an error.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	decimalRe = regexp.MustCompile(`\d+(?:\.\d+)?`)
	integerRe = regexp.MustCompile(`\d+`)
)

// nonProductImageMarkers are substrings the platform CDNs use for icons and
// tiny thumbnails that must not be shown as the product image.
var nonProductImageMarkers = []string{
	"360_icon",
	"play-icon",
	"sprite",
	"_SS40_",
	"_SX38_",
	"_SX50_",
	"_SR38,",
}

// ParsePrice extracts the first numeric token from a price string like
// "₹1,599.00" or "$19.99". Returns 0 when no number is present. Re-parsing
// an already-numeric string returns the same value.
func ParsePrice(raw string) float64 {
	if raw == "" {
		return 0
	}
	s := strings.ReplaceAll(raw, ",", "")
	m := decimalRe.FindString(s)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseRating extracts the numeric rating from strings like
// "4.2 out of 5 stars". Returns 0 when no number is present.
func ParseRating(raw string) float64 {
	m := decimalRe.FindString(raw)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseReviewsCount extracts the review count from strings like
// "34,021 ratings". Returns 0 when no integer is present.
func ParseReviewsCount(raw string) int {
	s := strings.ReplaceAll(raw, ",", "")
	s = strings.TrimSpace(s)
	m := integerRe.FindString(s)
	if m == "" {
		return 0
	}
	v, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return v
}

// FilterImages drops known non-product-image URLs. If the filter would empty
// the set, the original slice is returned so a listing never loses its only
// images to an over-eager marker.
func FilterImages(images []string) []string {
	var kept []string
	for _, img := range images {
		if !isNonProductImage(img) {
			kept = append(kept, img)
		}
	}
	if len(kept) == 0 {
		return images
	}
	return kept
}

// SelectImage picks the primary image for a listing: the first filtered
// image, the first unfiltered image when filtering empties the set, or the
// scalar fallback field when the array itself is empty.
func SelectImage(images []string, fallback string) string {
	if len(images) == 0 {
		return fallback
	}
	for _, img := range images {
		if !isNonProductImage(img) {
			return img
		}
	}
	return images[0]
}

func isNonProductImage(url string) bool {
	for _, marker := range nonProductImageMarkers {
		if strings.Contains(url, marker) {
			return true
		}
	}
	return false
}
