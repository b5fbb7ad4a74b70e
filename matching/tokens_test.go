package matching

import (
	"reflect"
	"testing"
)

func TestExtractImportantWords(t *testing.T) {
	tokens := Extract("Apple iPhone 17 Pro 256GB", "Apple")

	if !containsWord(tokens.ImportantWords, "256gb") {
		t.Fatalf("expected important word 256gb, got %v", tokens.ImportantWords)
	}
	if !containsWord(tokens.ImportantWords, "pro") {
		t.Fatalf("expected important word pro, got %v", tokens.ImportantWords)
	}
	if !containsWord(tokens.ImportantWords, "17") {
		t.Fatalf("expected important word 17, got %v", tokens.ImportantWords)
	}
	if len(tokens.KeyWords) == 0 || tokens.KeyWords[0] != "apple" {
		t.Fatalf("expected key_words[0] == apple, got %v", tokens.KeyWords)
	}
}

func TestExtractBrandPrepended(t *testing.T) {
	tokens := Extract("Galaxy S24 Ultra 512GB Titanium", "Samsung")
	if tokens.KeyWords[0] != "samsung" {
		t.Fatalf("expected brand first, got %v", tokens.KeyWords)
	}
	// Brand already in the title is not duplicated.
	tokens = Extract("Samsung Galaxy Buds", "Samsung")
	count := 0
	for _, w := range tokens.KeyWords {
		if w == "samsung" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("brand duplicated in key words: %v", tokens.KeyWords)
	}
}

func TestExtractStopwordsAndShortWords(t *testing.T) {
	tokens := Extract("Wild Stone Edge Perfume for Men", "Wild Stone")
	want := []string{"wild stone", "wild", "stone", "edge", "perfume"}
	if !reflect.DeepEqual(tokens.KeyWords, want) {
		t.Fatalf("key words = %v, want %v", tokens.KeyWords, want)
	}
	if len(tokens.ImportantWords) != 0 {
		t.Fatalf("unexpected important words: %v", tokens.ImportantWords)
	}
}

func TestExtractGenMarker(t *testing.T) {
	tokens := Extract("Echo Dot Gen 4 Smart Speaker", "Amazon")
	if !containsWord(tokens.ImportantWords, "gen4") {
		t.Fatalf("expected gen4, got %v", tokens.ImportantWords)
	}
	tokens = Extract("Kindle Paperwhite gen5", "")
	if !containsWord(tokens.ImportantWords, "gen5") {
		t.Fatalf("expected gen5, got %v", tokens.ImportantWords)
	}
}

func TestSearchTermsCapped(t *testing.T) {
	tokens := Extract("Sony WH-1000XM5 Wireless Noise Cancelling Headphones Black Edition 2024", "Sony")
	terms := tokens.SearchTerms()
	if len(terms) > 6 {
		t.Fatalf("expected at most 6 search terms, got %d: %v", len(terms), terms)
	}
	if terms[0] != "sony" {
		t.Fatalf("expected brand first, got %v", terms)
	}
}

func TestKeyWordsTruncatedToFour(t *testing.T) {
	tokens := Extract("premium leather wallet card holder gift hamper men classic", "")
	if len(tokens.KeyWords) != 4 {
		t.Fatalf("expected 4 key words, got %v", tokens.KeyWords)
	}
}
