// Package scraper shells out to the external Scrapy project to fetch a
// product listing. Spiders are selected by URL host; their JSON output is
// parsed into raw scraped records for the ingest pipeline.
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"pricelens/models"
)

// DefaultTimeout bounds a single spider run.
const DefaultTimeout = 120 * time.Second

// spiderHosts maps URL host suffixes to spider names.
var spiderHosts = map[string]string{
	"amazon.in":    "amazon",
	"amazon.com":   "amazon",
	"flipkart.com": "flipkart",
	"myntra.com":   "myntra",
	"meesho.com":   "meesho",
}

// Runner executes spiders from a Scrapy project directory.
type Runner struct {
	projectPath string
	timeout     time.Duration
}

// NewRunner creates a runner rooted at the given Scrapy project path.
func NewRunner(projectPath string, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{projectPath: projectPath, timeout: timeout}
}

// SpiderForURL picks the spider for a listing URL by host suffix.
// Unsupported hosts are an error.
func SpiderForURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return "", fmt.Errorf("invalid url: %q", rawURL)
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	for suffix, spider := range spiderHosts {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return spider, nil
		}
	}
	return "", fmt.Errorf("unsupported platform: %s", host)
}

// Scrape runs the spider for the given URL and returns its parsed output.
// The spider writes a JSON array to a temp file via -O; an empty array
// means the page yielded no product.
func (r *Runner) Scrape(ctx context.Context, rawURL string) ([]models.ScrapedItem, error) {
	spider, err := SpiderForURL(rawURL)
	if err != nil {
		return nil, err
	}

	outFile, err := os.CreateTemp("", "scrape-*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %v", err)
	}
	outPath := outFile.Name()
	outFile.Close()
	defer os.Remove(outPath)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "scrapy", "crawl", spider,
		"-O", outPath,
		"-a", "start_url="+rawURL)
	cmd.Dir = r.projectPath

	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("spider %s timed out after %s", spider, r.timeout)
		}
		return nil, fmt.Errorf("spider %s failed: %v: %s", spider, err, tail(output, 500))
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read spider output: %v", err)
	}
	return ParseOutput(data)
}

// ParseOutput decodes a spider's JSON array output.
func ParseOutput(data []byte) ([]models.ScrapedItem, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var items []models.ScrapedItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse spider output: %v", err)
	}
	return items, nil
}

// ProjectPathValid reports whether the configured Scrapy project exists.
func (r *Runner) ProjectPathValid() bool {
	info, err := os.Stat(filepath.Join(r.projectPath, "scrapy.cfg"))
	return err == nil && !info.IsDir()
}

func tail(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
