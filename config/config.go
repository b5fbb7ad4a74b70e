// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime settings for the service.
type Config struct {
	DatabaseURL       string
	Host              string
	Port              string
	AllowedOrigins    []string
	ScrapyProjectPath string
	ScrapeTimeout     time.Duration
	InsightsURL       string
	RateLimitEnabled  bool
	RateLimitPerSec   float64
	MaxScrapeWorkers  int
}

// Load reads configuration from the environment with sensible defaults.
func Load() *Config {
	return &Config{
		DatabaseURL:       getEnv("DATABASE_URL", "postgres://localhost:5432/pricelens?sslmode=disable"),
		Host:              getEnv("HOST", "0.0.0.0"),
		Port:              getEnv("PORT", "8080"),
		AllowedOrigins:    splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		ScrapyProjectPath: getEnv("SCRAPY_PROJECT_PATH", "./scrapy_project"),
		ScrapeTimeout:     getEnvDuration("SCRAPE_TIMEOUT", 120*time.Second),
		InsightsURL:       getEnv("INSIGHTS_SERVICE_URL", ""),
		RateLimitEnabled:  getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitPerSec:   getEnvFloat("RATE_LIMIT_PER_SECOND", 10),
		MaxScrapeWorkers:  getEnvInt("MAX_SCRAPE_WORKERS", 3),
	}
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
