package main

import (
	"log"
	"net/http"

	"pricelens/config"
	"pricelens/database"
	"pricelens/handlers"
	"pricelens/ingest"
	"pricelens/insights"
	"pricelens/matching"
	"pricelens/middleware"
	"pricelens/pricing"
	"pricelens/repository"
	"pricelens/scheduler"
	"pricelens/scraper"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.CreateTables(db); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	productRepo := repository.NewProductRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	trackedRepo := repository.NewTrackedRepository(db)
	alertRepo := repository.NewAlertRepository(db)

	matcher := matching.NewMatcher(productRepo)
	aggregator := pricing.NewAggregator(productRepo, historyRepo, matcher)
	comparator := pricing.NewComparator(matcher)
	ingestor := ingest.NewIngestor(productRepo, historyRepo, reviewRepo)
	runner := scraper.NewRunner(cfg.ScrapyProjectPath, cfg.ScrapeTimeout)
	insightsClient := insights.NewClient(cfg.InsightsURL)

	if !runner.ProjectPathValid() {
		log.Printf("warning: no scrapy project found at %s, scraping will fail", cfg.ScrapyProjectPath)
	}

	h := handlers.NewHandlers(handlers.Deps{
		Products:   productRepo,
		History:    historyRepo,
		Reviews:    reviewRepo,
		Tracked:    trackedRepo,
		Alerts:     alertRepo,
		Matcher:    matcher,
		Aggregator: aggregator,
		Comparator: comparator,
		Ingestor:   ingestor,
		Runner:     runner,
		Insights:   insightsClient,
		MaxWorkers: cfg.MaxScrapeWorkers,
	})
	defer h.Close()

	priceChecker := scheduler.NewPriceChecker(trackedRepo, alertRepo, h.ScrapeAndStore)
	priceChecker.Start()
	defer priceChecker.Stop()

	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware)
	if cfg.RateLimitEnabled {
		r.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerSec))
	}

	r.HandleFunc("/health", h.Health).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/scrape", h.ScrapeProduct).Methods("POST")
	api.HandleFunc("/scrape-async", h.ScrapeProductAsync).Methods("POST")
	api.HandleFunc("/tasks", h.TaskStats).Methods("GET")
	api.HandleFunc("/tasks/{taskId}", h.GetTask).Methods("GET")

	api.HandleFunc("/product/{id}", h.GetProduct).Methods("GET")
	api.HandleFunc("/product/{id}/price-history", h.GetPriceHistory).Methods("GET")
	api.HandleFunc("/product/{id}/reviews", h.GetReviews).Methods("GET")
	api.HandleFunc("/product/{id}/ai-insights", h.GetInsights).Methods("GET")
	api.HandleFunc("/product/{id}/ask-question", h.AskQuestion).Methods("POST")

	api.HandleFunc("/products/search", h.SearchProducts).Methods("GET")
	api.HandleFunc("/products/recent", h.RecentProducts).Methods("GET")
	api.HandleFunc("/compare-prices", h.ComparePrices).Methods("POST")

	api.HandleFunc("/track", h.TrackProduct).Methods("POST")
	api.HandleFunc("/tracked", h.ListTracked).Methods("GET")
	api.HandleFunc("/tracked/{id}", h.UntrackProduct).Methods("DELETE")
	api.HandleFunc("/tracked/{id}/alerts", h.SetAlert).Methods("POST")
	api.HandleFunc("/tracked/{id}/alerts", h.ListAlerts).Methods("GET")
	api.HandleFunc("/alerts/{alertId}", h.DeleteAlert).Methods("DELETE")

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	log.Printf("server starting on %s", cfg.Addr())
	log.Fatal(http.ListenAndServe(cfg.Addr(), c.Handler(r)))
}
