package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"pricelens/models"
)

// ScrapeFunc scrapes one listing URL and returns the stored product.
type ScrapeFunc func(ctx context.Context, url string) (*models.Product, error)

// TaskManager runs async scrape tasks with a bounded worker pool.
type TaskManager struct {
	tasks      map[string]*models.ScrapeTask
	taskQueue  chan *models.ScrapeTask
	workers    int
	maxWorkers int
	scrapeFunc ScrapeFunc
	mutex      sync.RWMutex
	stopChan   chan struct{}
}

// NewTaskManager creates a task manager and starts its dispatch loop.
func NewTaskManager(scrapeFunc ScrapeFunc, maxWorkers int) *TaskManager {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	tm := &TaskManager{
		tasks:      make(map[string]*models.ScrapeTask),
		taskQueue:  make(chan *models.ScrapeTask, 100),
		maxWorkers: maxWorkers,
		scrapeFunc: scrapeFunc,
		stopChan:   make(chan struct{}),
	}

	go tm.processTasks()
	log.Printf("task manager started with %d max workers", maxWorkers)
	return tm
}

// SubmitTask queues a scrape of the given URL. If the queue is full the
// task is failed immediately so the caller gets a terminal status.
func (tm *TaskManager) SubmitTask(url string) *models.ScrapeTask {
	task := models.NewScrapeTask(url)

	tm.mutex.Lock()
	tm.tasks[task.ID] = task
	tm.mutex.Unlock()

	select {
	case tm.taskQueue <- task:
		log.Printf("task %s queued for %s", task.ID, url)
	default:
		task.Fail("task queue is full")
		log.Printf("task %s rejected, queue full", task.ID)
	}

	return task
}

// GetTask returns a task by ID.
func (tm *TaskManager) GetTask(taskID string) (*models.ScrapeTask, bool) {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	task, exists := tm.tasks[taskID]
	return task, exists
}

// ActiveTasks returns all queued or running tasks.
func (tm *TaskManager) ActiveTasks() []*models.ScrapeTask {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	var active []*models.ScrapeTask
	for _, task := range tm.tasks {
		if task.IsActive() {
			active = append(active, task)
		}
	}
	return active
}

// CleanupOldTasks drops completed tasks older than maxAge.
func (tm *TaskManager) CleanupOldTasks(maxAge time.Duration) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	cutoff := time.Now().Add(-maxAge)
	for taskID, task := range tm.tasks {
		if task.IsCompleted() && task.CreatedAt.Before(cutoff) {
			delete(tm.tasks, taskID)
		}
	}
}

func (tm *TaskManager) processTasks() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case task := <-tm.taskQueue:
			tm.mutex.Lock()
			if tm.workers < tm.maxWorkers {
				tm.workers++
				tm.mutex.Unlock()
				go tm.worker(task)
			} else {
				tm.mutex.Unlock()
				// All workers busy, wait and re-queue.
				go func() {
					time.Sleep(time.Second)
					select {
					case tm.taskQueue <- task:
					default:
						task.Fail("system overloaded, unable to process task")
					}
				}()
			}

		case <-ticker.C:
			tm.CleanupOldTasks(time.Hour)

		case <-tm.stopChan:
			log.Println("task manager stopped")
			return
		}
	}
}

func (tm *TaskManager) worker(task *models.ScrapeTask) {
	defer func() {
		tm.mutex.Lock()
		tm.workers--
		tm.mutex.Unlock()
	}()

	task.Start()

	product, err := tm.scrapeFunc(context.Background(), task.URL)
	if err != nil {
		task.Fail(err.Error())
		log.Printf("task %s failed: %v", task.ID, err)
		return
	}

	task.Complete(product)
	log.Printf("task %s completed in %v", task.ID, task.Duration())
}

// Stop shuts down the dispatch loop.
func (tm *TaskManager) Stop() {
	close(tm.stopChan)
}

// Stats reports queue and worker utilization.
func (tm *TaskManager) Stats() map[string]interface{} {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	statusCounts := make(map[string]int)
	for _, task := range tm.tasks {
		statusCounts[string(task.Status)]++
	}
	return map[string]interface{}{
		"total_tasks":     len(tm.tasks),
		"active_workers":  tm.workers,
		"max_workers":     tm.maxWorkers,
		"queue_size":      len(tm.taskQueue),
		"tasks_by_status": statusCounts,
	}
}
