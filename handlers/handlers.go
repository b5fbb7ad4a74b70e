package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"pricelens/ingest"
	"pricelens/insights"
	"pricelens/matching"
	"pricelens/models"
	"pricelens/pricing"
	"pricelens/repository"
	"pricelens/scheduler"
	"pricelens/scraper"

	"github.com/gorilla/mux"
)

const defaultRecentLimit = 10

// Handlers holds every dependency the HTTP layer needs.
type Handlers struct {
	products    *repository.ProductRepository
	history     *repository.HistoryRepository
	reviews     *repository.ReviewRepository
	tracked     *repository.TrackedRepository
	alerts      *repository.AlertRepository
	matcher     *matching.Matcher
	aggregator  *pricing.Aggregator
	comparator  *pricing.Comparator
	ingestor    *ingest.Ingestor
	runner      *scraper.Runner
	insights    *insights.Client
	taskManager *scheduler.TaskManager
}

// Deps bundles the constructor arguments.
type Deps struct {
	Products   *repository.ProductRepository
	History    *repository.HistoryRepository
	Reviews    *repository.ReviewRepository
	Tracked    *repository.TrackedRepository
	Alerts     *repository.AlertRepository
	Matcher    *matching.Matcher
	Aggregator *pricing.Aggregator
	Comparator *pricing.Comparator
	Ingestor   *ingest.Ingestor
	Runner     *scraper.Runner
	Insights   *insights.Client
	MaxWorkers int
}

// NewHandlers wires the HTTP layer and starts its task manager.
func NewHandlers(deps Deps) *Handlers {
	h := &Handlers{
		products:   deps.Products,
		history:    deps.History,
		reviews:    deps.Reviews,
		tracked:    deps.Tracked,
		alerts:     deps.Alerts,
		matcher:    deps.Matcher,
		aggregator: deps.Aggregator,
		comparator: deps.Comparator,
		ingestor:   deps.Ingestor,
		runner:     deps.Runner,
		insights:   deps.Insights,
	}
	h.taskManager = scheduler.NewTaskManager(h.ScrapeAndStore, deps.MaxWorkers)
	return h
}

// Close stops background workers.
func (h *Handlers) Close() {
	if h.taskManager != nil {
		h.taskManager.Stop()
	}
}

// ScrapeAndStore runs the spider for a URL and ingests everything it
// returned, reporting the product the URL pointed at. Also used by the
// scheduler for tracked products.
func (h *Handlers) ScrapeAndStore(ctx context.Context, url string) (*models.Product, error) {
	items, err := h.runner.Scrape(ctx, url)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("spider returned no product for %s", url)
	}

	var first *models.Product
	for i := range items {
		product, err := h.ingestor.Ingest(ctx, &items[i])
		if err != nil {
			if errors.Is(err, ingest.ErrMissingIdentifier) {
				log.Printf("skipping scraped record without identifier from %s", url)
				continue
			}
			return nil, err
		}
		if first == nil {
			first = product
		}
	}
	if first == nil {
		return nil, fmt.Errorf("no storable product found at %s", url)
	}
	return first, nil
}

// ScrapeProduct handles POST /api/scrape: scrape a URL synchronously and
// return the stored product.
func (h *Handlers) ScrapeProduct(w http.ResponseWriter, r *http.Request) {
	var req models.ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}
	if _, err := scraper.SpiderForURL(req.URL); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := h.ScrapeAndStore(r.Context(), req.URL)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("Failed to scrape product: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// ScrapeProductAsync handles POST /api/scrape-async: queue a scrape task
// and return its ID for polling.
func (h *Handlers) ScrapeProductAsync(w http.ResponseWriter, r *http.Request) {
	var req models.ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}
	if _, err := scraper.SpiderForURL(req.URL); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	task := h.taskManager.SubmitTask(req.URL)
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"task_id": task.ID,
		"status":  task.Status,
		"message": task.Message,
	})
}

// GetTask handles GET /api/tasks/{taskId}.
func (h *Handlers) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskId"]
	task, exists := h.taskManager.GetTask(taskID)
	if !exists {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// GetProduct handles GET /api/product/{id}: look up by asin or product_id
// and enrich with counterpart listings on the other platforms.
func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	identifier := mux.Vars(r)["id"]

	product, err := h.products.FindByIdentifier(r.Context(), identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get product")
		return
	}

	counterparts := h.matcher.FindCounterparts(r.Context(), product)
	matches := make(map[string]interface{}, len(counterparts))
	for platform, match := range counterparts {
		matches[platform] = map[string]interface{}{
			"product":    match.Product,
			"confidence": match.Confidence,
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"product":      product,
		"counterparts": matches,
	})
}

// GetPriceHistory handles GET /api/product/{id}/price-history?days=N.
func (h *Handlers) GetPriceHistory(w http.ResponseWriter, r *http.Request) {
	identifier := mux.Vars(r)["id"]

	days := pricing.DefaultHistoryDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "Invalid days parameter")
			return
		}
		days = parsed
	}
	period, err := pricing.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Period must be daily, weekly or monthly")
		return
	}

	product, err := h.products.FindByIdentifier(r.Context(), identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get product")
		return
	}

	result, err := h.aggregator.PriceHistory(r.Context(), product.Key, days, period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get price history")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetReviews handles GET /api/product/{id}/reviews.
func (h *Handlers) GetReviews(w http.ResponseWriter, r *http.Request) {
	identifier := mux.Vars(r)["id"]

	product, err := h.products.FindByIdentifier(r.Context(), identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get product")
		return
	}

	reviews, err := h.reviews.ListByKey(r.Context(), product.Key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get reviews")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reviews": reviews,
		"count":   len(reviews),
	})
}

// GetInsights handles GET /api/product/{id}/ai-insights : review analysis
// from the sidecar service. Degrades to an unavailable summary, never 5xx,
// when the sidecar is down.
func (h *Handlers) GetInsights(w http.ResponseWriter, r *http.Request) {
	identifier := mux.Vars(r)["id"]

	product, err := h.products.FindByIdentifier(r.Context(), identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get product")
		return
	}

	reviews, err := h.reviews.ListByKey(r.Context(), product.Key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get reviews")
		return
	}

	summary, err := h.insights.Analyze(r.Context(), product, reviews)
	if err != nil {
		log.Printf("insights request failed for %s: %v", identifier, err)
		summary = insights.Unavailable("insights unavailable")
	}
	writeJSON(w, http.StatusOK, summary)
}

// AskQuestion handles POST /api/product/{id}/ask-question: a free-form
// question answered by the sidecar from the product's reviews. Degrades
// like ai-insights when the sidecar is down.
func (h *Handlers) AskQuestion(w http.ResponseWriter, r *http.Request) {
	identifier := mux.Vars(r)["id"]

	var req models.QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	product, err := h.products.FindByIdentifier(r.Context(), identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get product")
		return
	}

	reviews, err := h.reviews.ListByKey(r.Context(), product.Key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get reviews")
		return
	}

	answer, err := h.insights.Ask(r.Context(), product, reviews, req.Question)
	if err != nil {
		log.Printf("question request failed for %s: %v", identifier, err)
		answer = &insights.Answer{Question: req.Question, Error: "insights unavailable"}
	}
	writeJSON(w, http.StatusOK, answer)
}

// SearchProducts handles GET /api/products/search?q=...
func (h *Handlers) SearchProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "Query parameter q is required")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	products, err := h.products.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to search products")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"products": products,
		"count":    len(products),
	})
}

// RecentProducts handles GET /api/products/recent?limit=N.
func (h *Handlers) RecentProducts(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	products, err := h.products.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get recent products")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"products": products,
		"count":    len(products),
	})
}

// ComparePrices handles POST /api/compare-prices: match a product name
// across all platforms and report the cheapest listing.
func (h *Handlers) ComparePrices(w http.ResponseWriter, r *http.Request) {
	var req models.CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ProductName == "" {
		writeError(w, http.StatusBadRequest, "product_name is required")
		return
	}

	result := h.comparator.Compare(r.Context(), req.ProductName)
	writeJSON(w, http.StatusOK, result)
}

// TrackProduct handles POST /api/track: register a URL for scheduled
// scraping. The URL is scraped once immediately in the background.
func (h *Handlers) TrackProduct(w http.ResponseWriter, r *http.Request) {
	var req models.AddTrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}

	spider, err := scraper.SpiderForURL(req.URL)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tracked, err := h.tracked.Add(r.Context(), req.URL, spider)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to track product")
		return
	}

	h.taskManager.SubmitTask(req.URL)

	writeJSON(w, http.StatusCreated, tracked)
}

// ListTracked handles GET /api/tracked.
func (h *Handlers) ListTracked(w http.ResponseWriter, r *http.Request) {
	tracked, err := h.tracked.ListActive(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get tracked products")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tracked": tracked,
		"count":   len(tracked),
	})
}

// UntrackProduct handles DELETE /api/tracked/{id}.
func (h *Handlers) UntrackProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid tracked product ID")
		return
	}

	if err := h.tracked.Deactivate(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to untrack product")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Product untracked successfully"})
}

// SetAlert handles POST /api/tracked/{id}/alerts.
func (h *Handlers) SetAlert(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid tracked product ID")
		return
	}

	var req models.SetAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	switch req.AlertType {
	case "price_drop":
		if req.TargetPrice <= 0 {
			writeError(w, http.StatusBadRequest, "Target price is required for price drop alerts")
			return
		}
	case "percentage_drop":
		if req.Percentage <= 0 {
			writeError(w, http.StatusBadRequest, "Percentage is required for percentage drop alerts")
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "Alert type must be price_drop or percentage_drop")
		return
	}

	if _, err := h.tracked.FindByID(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Tracked product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get tracked product")
		return
	}

	alert, err := h.alerts.SetAlert(r.Context(), id, req.TargetPrice, req.AlertType, req.Percentage)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to set price alert")
		return
	}
	writeJSON(w, http.StatusCreated, alert)
}

// ListAlerts handles GET /api/tracked/{id}/alerts.
func (h *Handlers) ListAlerts(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid tracked product ID")
		return
	}

	alerts, err := h.alerts.ListAlerts(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get price alerts")
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

// DeleteAlert handles DELETE /api/alerts/{alertId}.
func (h *Handlers) DeleteAlert(w http.ResponseWriter, r *http.Request) {
	alertID, err := strconv.Atoi(mux.Vars(r)["alertId"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid alert ID")
		return
	}

	if err := h.alerts.DeleteAlert(r.Context(), alertID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete price alert")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Alert deleted successfully"})
}

// TaskStats handles GET /api/tasks.
func (h *Handlers) TaskStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.taskManager.Stats())
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
