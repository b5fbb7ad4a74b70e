// Package insights calls the review-analysis sidecar service. The service
// summarizes scraped reviews (sentiment, pros, cons); when it is down we
// report "insights unavailable" instead of failing the request.
package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"pricelens/models"
)

// Summary is the sidecar's analysis of a product's reviews.
type Summary struct {
	Available bool     `json:"available"`
	Sentiment string   `json:"sentiment,omitempty"`
	Summary   string   `json:"summary,omitempty"`
	Pros      []string `json:"pros,omitempty"`
	Cons      []string `json:"cons,omitempty"`
	Verdict   string   `json:"verdict,omitempty"`
	Error     string   `json:"error,omitempty"`
}

type analyzeRequest struct {
	Title    string   `json:"title"`
	Brand    string   `json:"brand,omitempty"`
	Platform string   `json:"platform"`
	Rating   string   `json:"rating,omitempty"`
	Reviews  []string `json:"reviews"`
}

// Client talks to the insights service.
type Client struct {
	serviceURL string
	client     *http.Client
}

// NewClient creates a client for the insights service.
func NewClient(serviceURL string) *Client {
	if serviceURL == "" {
		serviceURL = "http://insights-service:8100"
	}
	return &Client{
		serviceURL: serviceURL,
		client: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

// Unavailable builds the degraded response returned when analysis cannot
// be produced.
func Unavailable(reason string) *Summary {
	return &Summary{Available: false, Error: reason}
}

// Analyze sends the product's reviews to the sidecar and returns its
// summary. Transport and service errors degrade to an unavailable Summary
// with a nil error so callers never fail a product page over insights.
func (c *Client) Analyze(ctx context.Context, product *models.Product, reviews []models.Review) (*Summary, error) {
	if len(reviews) == 0 {
		return Unavailable("no reviews to analyze"), nil
	}

	texts := make([]string, 0, len(reviews))
	for _, r := range reviews {
		if r.Text != "" {
			texts = append(texts, r.Text)
		}
	}

	payload := analyzeRequest{
		Title:    product.Title,
		Brand:    product.Brand,
		Platform: product.Platform,
		Rating:   product.Rating,
		Reviews:  texts,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal insights request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.serviceURL+"/analyze", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to build insights request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Printf("insights: service call failed: %v", err)
		return Unavailable("insights service unreachable"), nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("insights: failed to read response: %v", err)
		return Unavailable("insights service unreachable"), nil
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("insights: service returned %d: %s", resp.StatusCode, body)
		return Unavailable("insights service error"), nil
	}

	var summary Summary
	if err := json.Unmarshal(body, &summary); err != nil {
		log.Printf("insights: failed to parse response: %v", err)
		return Unavailable("invalid insights response"), nil
	}
	summary.Available = true
	summary.Error = ""
	return &summary, nil
}

// Answer is the sidecar's response to a product question.
type Answer struct {
	Available bool   `json:"available"`
	Question  string `json:"question"`
	Answer    string `json:"answer,omitempty"`
	Error     string `json:"error,omitempty"`
}

type questionRequest struct {
	Title    string   `json:"title"`
	Brand    string   `json:"brand,omitempty"`
	Platform string   `json:"platform"`
	Question string   `json:"question"`
	Reviews  []string `json:"reviews"`
}

// Ask sends a free-form question about the product, answered from its
// reviews and metadata. Degrades like Analyze: transport and service
// failures produce an unavailable Answer, not an error.
func (c *Client) Ask(ctx context.Context, product *models.Product, reviews []models.Review, question string) (*Answer, error) {
	texts := make([]string, 0, len(reviews))
	for _, r := range reviews {
		if r.Text != "" {
			texts = append(texts, r.Text)
		}
	}

	payload := questionRequest{
		Title:    product.Title,
		Brand:    product.Brand,
		Platform: product.Platform,
		Question: question,
		Reviews:  texts,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal question request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.serviceURL+"/ask", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to build question request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Printf("insights: question call failed: %v", err)
		return &Answer{Question: question, Error: "insights service unreachable"}, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("insights: failed to read answer: %v", err)
		return &Answer{Question: question, Error: "insights service unreachable"}, nil
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("insights: question endpoint returned %d: %s", resp.StatusCode, body)
		return &Answer{Question: question, Error: "insights service error"}, nil
	}

	var answer Answer
	if err := json.Unmarshal(body, &answer); err != nil {
		log.Printf("insights: failed to parse answer: %v", err)
		return &Answer{Question: question, Error: "invalid insights response"}, nil
	}
	answer.Available = true
	answer.Question = question
	answer.Error = ""
	return &answer, nil
}

// Healthy reports whether the insights service answers its health check.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serviceURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
