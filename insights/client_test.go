package insights

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pricelens/models"
)

func testProduct() *models.Product {
	return &models.Product{
		Key:      models.ASINKey("B0CHX1W1XY"),
		Platform: "amazon",
		Title:    "Apple iPhone 15 (128 GB)",
		Brand:    "Apple",
		Rating:   "4.5 out of 5 stars",
	}
}

func testReviews() []models.Review {
	return []models.Review{
		{Text: "Great phone", Rating: "5", Author: "Ravi"},
		{Text: "Battery could be better", Rating: "3", Author: "Priya"},
	}
}

func TestAnalyzeRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyze" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Title   string   `json:"title"`
			Reviews []string `json:"reviews"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if len(req.Reviews) != 2 {
			t.Fatalf("expected 2 review texts, got %d", len(req.Reviews))
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"sentiment": "positive",
			"summary":   "Well liked overall",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	summary, err := client.Analyze(context.Background(), testProduct(), testReviews())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if !summary.Available {
		t.Fatal("expected available summary")
	}
	if summary.Sentiment != "positive" || summary.Summary != "Well liked overall" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestAnalyzeDegradesWhenServiceDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	server.Close() // connection refused from here on

	client := NewClient(server.URL)
	summary, err := client.Analyze(context.Background(), testProduct(), testReviews())
	if err != nil {
		t.Fatalf("expected degraded summary, got error: %v", err)
	}
	if summary.Available || summary.Error == "" {
		t.Fatalf("expected unavailable summary with reason, got %+v", summary)
	}
}

func TestAnalyzeWithoutReviews(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	summary, err := client.Analyze(context.Background(), testProduct(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Available {
		t.Fatal("expected unavailable summary when there is nothing to analyze")
	}
}

func TestAskRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ask" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Question string   `json:"question"`
			Reviews  []string `json:"reviews"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Question != "How is the battery life?" {
			t.Fatalf("question not forwarded: %q", req.Question)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"answer": "Reviewers find the battery average",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	answer, err := client.Ask(context.Background(), testProduct(), testReviews(), "How is the battery life?")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if !answer.Available {
		t.Fatal("expected available answer")
	}
	if answer.Answer != "Reviewers find the battery average" {
		t.Fatalf("unexpected answer: %+v", answer)
	}
	if answer.Question != "How is the battery life?" {
		t.Fatalf("question not echoed: %+v", answer)
	}
}

func TestAskDegradesWhenServiceDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL)
	answer, err := client.Ask(context.Background(), testProduct(), testReviews(), "Is it waterproof?")
	if err != nil {
		t.Fatalf("expected degraded answer, got error: %v", err)
	}
	if answer.Available || answer.Error == "" {
		t.Fatalf("expected unavailable answer with reason, got %+v", answer)
	}
}
