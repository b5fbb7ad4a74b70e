package database

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"
)

// Open connects to PostgreSQL and verifies the connection. The handle is
// returned to the caller and injected into every repository; there is no
// package-level connection.
func Open(databaseURL string) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %v", err)
	}

	log.Println("Successfully connected to database")
	return db, nil
}

// Schema holds the bootstrap DDL. Products carry exactly one of
// asin/product_id; price_history is an append-only log indexed for
// descending-timestamp reads; reviews carry a unique (identifier, text,
// author) index so concurrent upserts cannot duplicate a review.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
			id SERIAL PRIMARY KEY,
			asin TEXT,
			product_id TEXT,
			platform VARCHAR(20) NOT NULL CHECK (platform IN ('amazon', 'flipkart', 'myntra', 'meesho')),
			title TEXT,
			brand TEXT,
			url TEXT,
			current_price TEXT,
			price_numeric DOUBLE PRECISION DEFAULT 0,
			original_price TEXT,
			discount TEXT,
			rating TEXT,
			total_reviews TEXT,
			image TEXT,
			images JSONB DEFAULT '[]',
			specifications JSONB DEFAULT '{}',
			description TEXT,
			first_seen TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			last_updated TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			CHECK ((asin IS NOT NULL) <> (product_id IS NOT NULL))
		)`,
	`CREATE TABLE IF NOT EXISTS price_history (
			id SERIAL PRIMARY KEY,
			asin TEXT,
			product_id TEXT,
			platform VARCHAR(20),
			price TEXT NOT NULL,
			price_numeric DOUBLE PRECISION,
			timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	`CREATE TABLE IF NOT EXISTS reviews (
			id SERIAL PRIMARY KEY,
			asin TEXT,
			product_id TEXT,
			platform VARCHAR(20),
			text TEXT NOT NULL,
			rating TEXT,
			author TEXT DEFAULT 'Anonymous',
			scraped_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	`CREATE TABLE IF NOT EXISTS tracked_products (
			id SERIAL PRIMARY KEY,
			url TEXT NOT NULL UNIQUE,
			spider VARCHAR(20) NOT NULL,
			is_active BOOLEAN DEFAULT TRUE,
			last_scraped TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	`CREATE TABLE IF NOT EXISTS price_alerts (
			id SERIAL PRIMARY KEY,
			tracked_id INTEGER REFERENCES tracked_products(id) ON DELETE CASCADE,
			target_price DECIMAL(12,2) NOT NULL,
			alert_type VARCHAR(20) NOT NULL CHECK (alert_type IN ('price_drop', 'percentage_drop')),
			percentage DECIMAL(5,2),
			is_active BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			triggered_at TIMESTAMP
		)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_products_asin ON products (asin) WHERE asin IS NOT NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_products_product_id ON products (platform, product_id) WHERE product_id IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS idx_price_history_asin ON price_history (asin, timestamp DESC) WHERE asin IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS idx_price_history_product_id ON price_history (product_id, timestamp DESC) WHERE product_id IS NOT NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_reviews_asin_dedup ON reviews (asin, text, author) WHERE asin IS NOT NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_reviews_product_id_dedup ON reviews (product_id, text, author) WHERE product_id IS NOT NULL`,
}

// CreateTables creates the schema if it does not exist.
func CreateTables(db *sql.DB) error {
	for _, query := range Schema {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %v", err)
		}
	}

	return nil
}
