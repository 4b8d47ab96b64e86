// Package parallel provides the worker pool used for data-parallel
// neighborhood scoring. Scoring work is read-only over the model state, so
// the pool only has to distribute index ranges and join; no backpressure or
// streaming machinery is needed.
package parallel

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// ErrPoolShutdown is returned when submitting work to a shutdown pool.
var ErrPoolShutdown = errors.New("worker pool has been shutdown")

// WorkerPool manages a fixed set of goroutines that execute submitted tasks.
// It exists so that a solve allocates its workers once instead of spawning
// goroutines per iteration.
type WorkerPool struct {
	maxWorkers   int
	taskChan     chan func()
	workerWg     sync.WaitGroup
	shutdownChan chan struct{}
	once         sync.Once
}

// NewWorkerPool creates a pool with the given number of workers; zero or
// negative selects the number of CPU cores.
func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}
	pool := &WorkerPool{
		maxWorkers:   maxWorkers,
		taskChan:     make(chan func(), maxWorkers*2),
		shutdownChan: make(chan struct{}),
	}
	for i := 0; i < maxWorkers; i++ {
		pool.workerWg.Add(1)
		go pool.worker()
	}
	return pool
}

func (wp *WorkerPool) worker() {
	defer wp.workerWg.Done()
	for {
		select {
		case task := <-wp.taskChan:
			if task != nil {
				task()
			}
		case <-wp.shutdownChan:
			return
		}
	}
}

// MaxWorkers returns the pool size.
func (wp *WorkerPool) MaxWorkers() int { return wp.maxWorkers }

// Submit hands one task to the pool, blocking while all workers are busy.
func (wp *WorkerPool) Submit(ctx context.Context, task func()) error {
	select {
	case <-wp.shutdownChan:
		return ErrPoolShutdown
	default:
	}
	select {
	case wp.taskChan <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-wp.shutdownChan:
		return ErrPoolShutdown
	}
}

// ForEach partitions [0, n) into one contiguous chunk per worker, runs fn
// over the indices concurrently, and waits for completion. fn must be safe
// to call concurrently for distinct indices.
func (wp *WorkerPool) ForEach(ctx context.Context, n int, fn func(worker, index int)) error {
	if n == 0 {
		return nil
	}
	workers := wp.maxWorkers
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		begin := w * chunk
		end := begin + chunk
		if end > n {
			end = n
		}
		if begin >= end {
			break
		}
		wg.Add(1)
		worker := w
		task := func() {
			defer wg.Done()
			for i := begin; i < end; i++ {
				fn(worker, i)
			}
		}
		if err := wp.Submit(ctx, task); err != nil {
			wg.Done()
			wg.Wait()
			return err
		}
	}
	wg.Wait()
	return nil
}

// Shutdown stops the workers after in-flight tasks complete.
func (wp *WorkerPool) Shutdown() {
	wp.once.Do(func() {
		close(wp.shutdownChan)
		wp.workerWg.Wait()
	})
}
