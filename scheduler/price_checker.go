package scheduler

import (
	"context"
	"log"
	"time"

	"pricelens/models"
	"pricelens/normalize"
	"pricelens/repository"

	"github.com/robfig/cron/v3"
)

// PriceChecker re-scrapes every tracked product on a schedule and checks
// price alerts against the fresh data.
type PriceChecker struct {
	cron       *cron.Cron
	tracked    *repository.TrackedRepository
	alerts     *repository.AlertRepository
	scrapeFunc ScrapeFunc
}

// NewPriceChecker creates a checker over the tracked-product store.
func NewPriceChecker(tracked *repository.TrackedRepository, alerts *repository.AlertRepository, scrapeFunc ScrapeFunc) *PriceChecker {
	return &PriceChecker{
		cron:       cron.New(cron.WithSeconds()),
		tracked:    tracked,
		alerts:     alerts,
		scrapeFunc: scrapeFunc,
	}
}

// Start schedules scraping every 12 hours and runs one pass immediately.
func (pc *PriceChecker) Start() {
	_, err := pc.cron.AddFunc("0 0 */12 * * *", pc.checkAll)
	if err != nil {
		log.Printf("failed to schedule price checker: %v", err)
		return
	}

	go pc.checkAll()

	pc.cron.Start()
	log.Println("price checker scheduled to run every 12 hours")
}

// Stop stops the schedule.
func (pc *PriceChecker) Stop() {
	if pc.cron != nil {
		pc.cron.Stop()
	}
}

// ManualCheck triggers a full pass outside the schedule.
func (pc *PriceChecker) ManualCheck() {
	log.Println("manual price check triggered")
	pc.checkAll()
}

func (pc *PriceChecker) checkAll() {
	ctx := context.Background()

	products, err := pc.tracked.ListActive(ctx)
	if err != nil {
		log.Printf("failed to list tracked products: %v", err)
		return
	}
	if len(products) == 0 {
		log.Println("no tracked products to check")
		return
	}

	log.Printf("checking prices for %d tracked products", len(products))
	for _, tp := range products {
		go pc.checkOne(tp)
	}
}

func (pc *PriceChecker) checkOne(tp models.TrackedProduct) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	product, err := pc.scrapeFunc(ctx, tp.URL)
	if err != nil {
		log.Printf("scheduled scrape failed for %s: %v", tp.URL, err)
		return
	}

	if err := pc.tracked.MarkScraped(ctx, tp.ID); err != nil {
		log.Printf("failed to mark %s as scraped: %v", tp.URL, err)
	}

	if product.PriceNumeric <= 0 {
		return
	}

	originalPrice := normalize.ParsePrice(product.OriginalPrice)
	triggered, err := pc.alerts.CheckAlerts(ctx, tp.ID, product.PriceNumeric, originalPrice)
	if err != nil {
		log.Printf("failed to check alerts for %s: %v", tp.URL, err)
		return
	}
	for _, alert := range triggered {
		log.Printf("alert triggered for %s: price now ₹%.2f", product.Title, product.PriceNumeric)
		switch alert.AlertType {
		case "price_drop":
			log.Printf("  target price: ₹%.2f", alert.TargetPrice)
		case "percentage_drop":
			log.Printf("  target drop: %.1f%%", alert.Percentage)
		}
	}
}
