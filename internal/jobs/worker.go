package jobs

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dfsouza/patrimonio-api/pkg/logger"
)

// Job represents a background task
type Job func(ctx context.Context) error

// Worker runs background jobs: queued work drained by a fixed pool,
// fire-and-forget tasks bounded by a semaphore (audit writes), and
// ticker-driven recurring jobs (the overdue-loan sweep).
type Worker struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	queue    chan Job
	asyncSem chan struct{}

	active    atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
}

// WorkerStats is the snapshot served at /jobs/stats. CompletedJobs
// counts every finished job, success or not; successes are
// CompletedJobs - FailedJobs.
type WorkerStats struct {
	ActiveJobs    int64 `json:"active_jobs"`
	CompletedJobs int64 `json:"completed_jobs"`
	FailedJobs    int64 `json:"failed_jobs"`
	QueueLength   int   `json:"queue_length"`
	MaxConcurrent int   `json:"max_concurrent"`
}

// NewWorker starts a pool of numWorkers queue drainers. Async tasks
// get twice that as their concurrency bound, at least 10, so a burst
// of audit writes never starves the queue.
func NewWorker(numWorkers int) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	asyncLimit := numWorkers * 2
	if asyncLimit < 10 {
		asyncLimit = 10
	}

	w := &Worker{
		ctx:      ctx,
		cancel:   cancel,
		queue:    make(chan Job, 100),
		asyncSem: make(chan struct{}, asyncLimit),
	}

	for i := 0; i < numWorkers; i++ {
		w.wg.Add(1)
		go w.drain()
	}
	return w
}

// Enqueue queues a job for the pool. A full queue degrades to running
// the job inline rather than dropping it.
func (w *Worker) Enqueue(job Job) {
	select {
	case w.queue <- job:
	default:
		logger.Warn("job queue full, running inline")
		w.run("worker", job)
	}
}

// EnqueueAsync runs a job on its own goroutine, bounded by the async
// semaphore. Fire and forget; failures are logged, never returned.
func (w *Worker) EnqueueAsync(job Job) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.asyncSem <- struct{}{}
		defer func() { <-w.asyncSem }()
		w.run("async", job)
	}()
}

// ScheduleEvery runs a job at fixed intervals. The first run happens
// one interval after startup.
func (w *Worker) ScheduleEvery(interval time.Duration, job Job) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-w.ctx.Done():
				return
			case <-ticker.C:
				w.run("scheduler", job)
			}
		}
	}()
}

func (w *Worker) drain() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case job, ok := <-w.queue:
			if !ok {
				return
			}
			w.run("worker", job)
		}
	}
}

// run executes one job with panic containment and stats accounting
func (w *Worker) run(origin string, job Job) {
	w.active.Add(1)
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("job panicked", "origin", origin, "panic", r)
			w.failed.Add(1)
		}
		w.active.Add(-1)
		w.completed.Add(1)
	}()

	if err := job(w.ctx); err != nil {
		logger.Error("job failed", "origin", origin, "error", err)
		w.failed.Add(1)
		return
	}
	logger.Debug("job finished", "origin", origin, "elapsed", time.Since(start))
}

// Shutdown stops the pool and waits for in-flight jobs
func (w *Worker) Shutdown() {
	w.cancel()
	close(w.queue)
	w.wg.Wait()
}

// Context returns the worker's lifetime context
func (w *Worker) Context() context.Context {
	return w.ctx
}

// GetStats returns a point-in-time stats snapshot
func (w *Worker) GetStats() WorkerStats {
	return WorkerStats{
		ActiveJobs:    w.active.Load(),
		CompletedJobs: w.completed.Load(),
		FailedJobs:    w.failed.Load(),
		QueueLength:   len(w.queue),
		MaxConcurrent: cap(w.asyncSem),
	}
}
