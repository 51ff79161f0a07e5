package collect

import (
	"context"
	"sync"
	"time"

	"econdata-collector/models"
	"econdata-collector/utils"
)

// Collector is anything that can execute one collection run over a target
// list: the API runner, the listing scraper, or the fixture generator.
type Collector interface {
	Collect(ctx context.Context, targets []models.Target) *models.Summary
}

// Job is one independent collection run to be dispatched by the
// orchestrator: a collector with its own rate limiter, a target list, and
// a wall-clock budget.
type Job struct {
	Name      string
	Collector Collector
	Targets   []models.Target
	Timeout   time.Duration
}

// Orchestrator dispatches unrelated collection runs concurrently, bounded
// by a fixed worker count. Runs share no mutable state, so the only
// coordination here is the semaphore. A run that exceeds its timeout is
// abandoned (its remaining targets recorded as failures) and not retried.
type Orchestrator struct {
	maxWorkers int
	logger     *utils.Logger
}

// NewOrchestrator creates an orchestrator with the given concurrency bound.
func NewOrchestrator(maxWorkers int, logger *utils.Logger) *Orchestrator {
	if maxWorkers <= 0 {
		maxWorkers = 3
	}
	if logger == nil {
		logger = utils.NewLogger()
	}
	return &Orchestrator{maxWorkers: maxWorkers, logger: logger}
}

// RunAll executes every job and returns the summaries in job order.
func (o *Orchestrator) RunAll(ctx context.Context, jobs []Job) []*models.Summary {
	summaries := make([]*models.Summary, len(jobs))
	semaphore := make(chan struct{}, o.maxWorkers)
	var wg sync.WaitGroup

	for i, job := range jobs {
		i, job := i, job
		wg.Add(1)
		semaphore <- struct{}{}

		go func() {
			defer wg.Done()
			defer func() { <-semaphore }()

			runCtx := ctx
			cancel := context.CancelFunc(func() {})
			if job.Timeout > 0 {
				runCtx, cancel = context.WithTimeout(ctx, job.Timeout)
			}
			defer cancel()

			summaries[i] = job.Collector.Collect(runCtx, job.Targets)
		}()
	}

	wg.Wait()
	return summaries
}
