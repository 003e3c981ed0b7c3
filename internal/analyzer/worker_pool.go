package analyzer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrPoolClosed is returned when work is submitted after Close
var ErrPoolClosed = errors.New("worker pool is closed")

// PoolStats is a snapshot of the pool's job counters
type PoolStats struct {
	Workers       int   `json:"workers"`
	TotalJobs     int64 `json:"total_jobs"`
	CompletedJobs int64 `json:"completed_jobs"`
	ActiveWorkers int64 `json:"active_workers"`
}

// WorkerPool bounds how many analyses run at the same time
type WorkerPool struct {
	totalJobs     int64
	completedJobs int64
	activeWorkers int64

	workers   int
	jobQueue  chan func()
	quit      chan struct{}
	wg        sync.WaitGroup
	once      sync.Once
	closeOnce sync.Once
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &WorkerPool{
		workers:  workers,
		jobQueue: make(chan func(), workers*2),
		quit:     make(chan struct{}),
	}
}

// Start initializes and starts all workers in the pool
func (wp *WorkerPool) Start() {
	wp.once.Do(func() {
		for i := 0; i < wp.workers; i++ {
			wp.wg.Add(1)
			go wp.worker()
		}
	})
}

// Workers returns the number of workers
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// worker processes jobs from the job queue
func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for {
		select {
		case <-wp.quit:
			return
		case job := <-wp.jobQueue:
			wp.execute(job)
		}
	}
}

func (wp *WorkerPool) execute(job func()) {
	atomic.AddInt64(&wp.activeWorkers, 1)
	defer func() {
		atomic.AddInt64(&wp.activeWorkers, -1)
		atomic.AddInt64(&wp.completedJobs, 1)
		// Keep the worker alive; Run reports panics to its caller.
		_ = recover()
	}()
	job()
}

// Submit adds a job to the queue, blocking while the queue is full
func (wp *WorkerPool) Submit(ctx context.Context, job func()) error {
	select {
	case <-wp.quit:
		return ErrPoolClosed
	default:
	}

	select {
	case wp.jobQueue <- job:
		atomic.AddInt64(&wp.totalJobs, 1)
		return nil
	case <-wp.quit:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run submits job and waits for it to finish. A panic inside job is returned
// as an error and does not take the worker down.
func (wp *WorkerPool) Run(ctx context.Context, job func() error) error {
	errCh := make(chan error, 1)

	err := wp.Submit(ctx, func() {
		defer func() {
			if r := recover(); r != nil {
				errCh <- fmt.Errorf("job panicked: %v", r)
			}
		}()
		errCh <- job()
	})
	if err != nil {
		return err
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetStats returns the current job counters
func (wp *WorkerPool) GetStats() PoolStats {
	return PoolStats{
		Workers:       wp.workers,
		TotalJobs:     atomic.LoadInt64(&wp.totalJobs),
		CompletedJobs: atomic.LoadInt64(&wp.completedJobs),
		ActiveWorkers: atomic.LoadInt64(&wp.activeWorkers),
	}
}

// Close stops the workers and waits for in-flight jobs to finish
func (wp *WorkerPool) Close() {
	wp.closeOnce.Do(func() {
		close(wp.quit)
	})
	wp.wg.Wait()
}
