package models

import (
	"math/rand"
	"time"
)

// TaskStatus represents the status of an async task
type TaskStatus string

const (
	TaskStatusQueued     TaskStatus = "queued"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// ScrapeTask represents an async scrape of one listing URL. Scraping shells
// out to the spider process and can take minutes, so callers submit a task
// and poll it instead of holding the request open.
type ScrapeTask struct {
	ID          string     `json:"id"`
	URL         string     `json:"url"`
	Status      TaskStatus `json:"status"`
	Message     string     `json:"message"`
	Result      *Product   `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewScrapeTask creates a queued scrape task for a URL.
func NewScrapeTask(url string) *ScrapeTask {
	return &ScrapeTask{
		ID:        generateTaskID(),
		URL:       url,
		Status:    TaskStatusQueued,
		Message:   "Task queued for processing",
		CreatedAt: time.Now(),
	}
}

// Start marks the task as processing.
func (t *ScrapeTask) Start() {
	t.Status = TaskStatusProcessing
	t.Message = "Scraping listing..."
	now := time.Now()
	t.StartedAt = &now
}

// Complete marks the task as completed with the ingested product.
func (t *ScrapeTask) Complete(result *Product) {
	t.Status = TaskStatusCompleted
	t.Message = "Scrape completed successfully"
	t.Result = result
	now := time.Now()
	t.CompletedAt = &now
}

// Fail marks the task as failed.
func (t *ScrapeTask) Fail(errMsg string) {
	t.Status = TaskStatusFailed
	t.Message = "Scrape failed"
	t.Error = errMsg
	now := time.Now()
	t.CompletedAt = &now
}

// IsCompleted returns true if the task is in a final state.
func (t *ScrapeTask) IsCompleted() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}

// IsActive returns true if the task is still queued or running.
func (t *ScrapeTask) IsActive() bool {
	return t.Status == TaskStatusQueued || t.Status == TaskStatusProcessing
}

// Duration returns how long the task has been (or was) running.
func (t *ScrapeTask) Duration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	end := time.Now()
	if t.CompletedAt != nil {
		end = *t.CompletedAt
	}
	return end.Sub(*t.StartedAt)
}

func generateTaskID() string {
	return "task_" + time.Now().Format("20060102150405") + "_" + randomString(8)
}

func randomString(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
