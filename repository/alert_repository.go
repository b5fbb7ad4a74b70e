package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pricelens/models"
)

// AlertRepository manages price alerts on tracked products.
type AlertRepository struct {
	db *sql.DB
}

func NewAlertRepository(db *sql.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// SetAlert creates a new price alert for a tracked product.
func (r *AlertRepository) SetAlert(ctx context.Context, trackedID int, targetPrice float64, alertType string, percentage float64) (*models.PriceAlert, error) {
	query := `
		INSERT INTO price_alerts (tracked_id, target_price, alert_type, percentage, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, tracked_id, target_price, alert_type, percentage, is_active, created_at, triggered_at
	`
	var alert models.PriceAlert
	err := r.db.QueryRowContext(ctx, query, trackedID, targetPrice, alertType, percentage, time.Now()).Scan(
		&alert.ID, &alert.TrackedID, &alert.TargetPrice,
		&alert.AlertType, &alert.Percentage, &alert.IsActive,
		&alert.CreatedAt, &alert.TriggeredAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set price alert: %v", err)
	}
	return &alert, nil
}

// ListAlerts returns all active alerts for a tracked product.
func (r *AlertRepository) ListAlerts(ctx context.Context, trackedID int) ([]models.PriceAlert, error) {
	query := `
		SELECT id, tracked_id, target_price, alert_type, percentage, is_active, created_at, triggered_at
		FROM price_alerts
		WHERE tracked_id = $1 AND is_active = true
		ORDER BY created_at DESC
	`
	return r.queryAlerts(ctx, query, trackedID)
}

// ActiveAlerts returns alerts that have not yet triggered.
func (r *AlertRepository) ActiveAlerts(ctx context.Context, trackedID int) ([]models.PriceAlert, error) {
	query := `
		SELECT id, tracked_id, target_price, alert_type, percentage, is_active, created_at, triggered_at
		FROM price_alerts
		WHERE tracked_id = $1 AND is_active = true AND triggered_at IS NULL
	`
	return r.queryAlerts(ctx, query, trackedID)
}

// DeleteAlert removes a price alert.
func (r *AlertRepository) DeleteAlert(ctx context.Context, alertID int) error {
	query := `UPDATE price_alerts SET is_active = false WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, alertID); err != nil {
		return fmt.Errorf("failed to delete price alert: %v", err)
	}
	return nil
}

// TriggerAlert marks an alert as triggered.
func (r *AlertRepository) TriggerAlert(ctx context.Context, alertID int) error {
	query := `UPDATE price_alerts SET triggered_at = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, time.Now(), alertID); err != nil {
		return fmt.Errorf("failed to trigger alert: %v", err)
	}
	return nil
}

// CheckAlerts evaluates active alerts against the latest scraped price.
// originalPrice is the listing price the percentage_drop type measures
// against; pass 0 when unknown and those alerts are skipped.
func (r *AlertRepository) CheckAlerts(ctx context.Context, trackedID int, currentPrice, originalPrice float64) ([]models.PriceAlert, error) {
	alerts, err := r.ActiveAlerts(ctx, trackedID)
	if err != nil {
		return nil, err
	}

	var triggered []models.PriceAlert
	for _, alert := range alerts {
		shouldTrigger := false
		switch alert.AlertType {
		case "price_drop":
			shouldTrigger = currentPrice > 0 && currentPrice <= alert.TargetPrice
		case "percentage_drop":
			if originalPrice > 0 && currentPrice > 0 {
				drop := (originalPrice - currentPrice) / originalPrice * 100
				shouldTrigger = drop >= alert.Percentage
			}
		}
		if !shouldTrigger {
			continue
		}
		if err := r.TriggerAlert(ctx, alert.ID); err != nil {
			continue
		}
		now := time.Now()
		alert.TriggeredAt = &now
		triggered = append(triggered, alert)
	}
	return triggered, nil
}

func (r *AlertRepository) queryAlerts(ctx context.Context, query string, args ...interface{}) ([]models.PriceAlert, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get price alerts: %v", err)
	}
	defer rows.Close()

	var alerts []models.PriceAlert
	for rows.Next() {
		var alert models.PriceAlert
		var triggeredAt sql.NullTime
		err := rows.Scan(
			&alert.ID, &alert.TrackedID, &alert.TargetPrice,
			&alert.AlertType, &alert.Percentage, &alert.IsActive,
			&alert.CreatedAt, &triggeredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price alert: %v", err)
		}
		if triggeredAt.Valid {
			t := triggeredAt.Time
			alert.TriggeredAt = &t
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}
