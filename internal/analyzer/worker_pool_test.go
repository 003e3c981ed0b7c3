package analyzer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestNewWorkerPool(t *testing.T) {
	pool := NewWorkerPool(4)
	if pool == nil {
		t.Fatal("Expected non-nil worker pool")
	}
	if pool.Workers() != 4 {
		t.Errorf("Workers: got %d, want 4", pool.Workers())
	}
}

func TestNewWorkerPool_ZeroWorkers(t *testing.T) {
	pool := NewWorkerPool(0)
	if pool.Workers() <= 0 {
		t.Errorf("Expected default worker count, got %d", pool.Workers())
	}
}

func TestWorkerPool_Run(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Start()
	defer pool.Close()

	var counter int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pool.Run(context.Background(), func() error {
				mu.Lock()
				counter++
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("Run failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if counter != 10 {
		t.Errorf("Expected counter to be 10, got %d", counter)
	}

	stats := pool.GetStats()
	if stats.TotalJobs != 10 {
		t.Errorf("Expected 10 total jobs, got %d", stats.TotalJobs)
	}
}

func TestWorkerPool_RunReturnsJobError(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Start()
	defer pool.Close()

	want := errors.New("boom")
	if err := pool.Run(context.Background(), func() error { return want }); !errors.Is(err, want) {
		t.Errorf("expected job error, got %v", err)
	}
}

func TestWorkerPool_RunRecoversPanic(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Start()
	defer pool.Close()

	err := pool.Run(context.Background(), func() error { panic("bad pixel") })
	if err == nil {
		t.Fatal("expected error from panicking job")
	}

	// The worker survives
	if err := pool.Run(context.Background(), func() error { return nil }); err != nil {
		t.Errorf("pool should keep working after a panic: %v", err)
	}
}

func TestWorkerPool_RunContextTimeout(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Start()
	defer pool.Close()

	release := make(chan struct{})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := pool.Run(ctx, func() error {
		<-release
		return nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestWorkerPool_StartOnce(t *testing.T) {
	pool := NewWorkerPool(2)

	// Start should be idempotent
	pool.Start()
	pool.Start()
	defer pool.Close()

	executed := false
	if err := pool.Run(context.Background(), func() error {
		executed = true
		return nil
	}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !executed {
		t.Error("Expected job to be executed")
	}
}

func TestWorkerPool_SubmitAfterClose(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Start()
	pool.Close()
	pool.Close() // idempotent

	err := pool.Submit(context.Background(), func() {})
	if !errors.Is(err, ErrPoolClosed) {
		t.Errorf("expected ErrPoolClosed, got %v", err)
	}
}
