// Package matching decides which listings on different platforms denote the
// same physical product. Identity tokens derived from a listing's title and
// brand drive conjunctive substring queries against the product store.
package matching

import (
	"regexp"
	"strings"
)

const (
	maxKeyWords    = 4
	maxSearchTerms = 6
)

var (
	punctuationRe = regexp.MustCompile(`[^a-z0-9 ]+`)
	capacityRe    = regexp.MustCompile(`^\d+(?:gb|tb)$`)
	bareNumberRe  = regexp.MustCompile(`^\d{2,4}$`)
	genMarkerRe   = regexp.MustCompile(`^gen\d+$`)
	allDigitsRe   = regexp.MustCompile(`^\d+$`)
)

// variantWords are generation/variant markers that distinguish otherwise
// identical titles ("iPhone 16 Pro" vs "iPhone 16 Max").
var variantWords = map[string]bool{
	"pro":   true,
	"max":   true,
	"plus":  true,
	"ultra": true,
	"mini":  true,
}

// stopWords are filler words that carry no product identity: prepositions,
// units of measure, generic listing descriptors.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"this": true, "that": true, "your": true, "our": true,
	"pack": true, "set": true, "combo": true, "piece": true, "pcs": true,
	"gram": true, "litre": true, "liter": true, "inch": true, "inches": true,
	"free": true, "best": true, "new": true, "original": true,
	"genuine": true, "latest": true, "official": true, "online": true,
	"buy": true, "sale": true, "offer": true, "price": true,
}

// IdentityTokens is the derived identity of one listing: generic key words
// (brand plus significant title words) and high-precision important words
// (capacity, variant markers, bare model numbers). Recomputed on every
// matching request, never cached.
type IdentityTokens struct {
	KeyWords       []string
	ImportantWords []string
}

// Extract derives identity tokens from a title and brand. Either input may
// be empty; the result may hold fewer than two usable terms, in which case
// no matching query will be issued.
func Extract(title, brand string) IdentityTokens {
	cleaned := punctuationRe.ReplaceAllString(strings.ToLower(title), " ")
	words := strings.Fields(cleaned)

	var tokens IdentityTokens
	for i := 0; i < len(words); i++ {
		word := words[i]

		// "gen 4" splits into two words after punctuation stripping.
		if word == "gen" && i+1 < len(words) && allDigitsRe.MatchString(words[i+1]) {
			tokens.ImportantWords = append(tokens.ImportantWords, "gen"+words[i+1])
			i++
			continue
		}

		if isImportantWord(word) {
			tokens.ImportantWords = append(tokens.ImportantWords, word)
			continue
		}
		if len(word) > 2 && !stopWords[word] {
			tokens.KeyWords = append(tokens.KeyWords, word)
		}
	}

	if len(tokens.KeyWords) > maxKeyWords {
		tokens.KeyWords = tokens.KeyWords[:maxKeyWords]
	}

	brandLower := strings.ToLower(strings.TrimSpace(brand))
	if len(brandLower) > 2 && !containsWord(tokens.KeyWords, brandLower) {
		tokens.KeyWords = append([]string{brandLower}, tokens.KeyWords...)
	}

	return tokens
}

// SearchTerms is the combined high-precision term sequence: key words
// followed by important words, capped at the first six entries.
func (t IdentityTokens) SearchTerms() []string {
	terms := make([]string, 0, len(t.KeyWords)+len(t.ImportantWords))
	terms = append(terms, t.KeyWords...)
	terms = append(terms, t.ImportantWords...)
	if len(terms) > maxSearchTerms {
		terms = terms[:maxSearchTerms]
	}
	return terms
}

func isImportantWord(word string) bool {
	return capacityRe.MatchString(word) ||
		variantWords[word] ||
		bareNumberRe.MatchString(word) ||
		genMarkerRe.MatchString(word)
}

func containsWord(words []string, w string) bool {
	for _, existing := range words {
		if existing == w {
			return true
		}
	}
	return false
}
