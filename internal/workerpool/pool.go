// Package workerpool runs per-record work on a bounded number of goroutines
// while keeping results in input order.
package workerpool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"devaudience/pkg/logger"
)

// Job is one unit of work; Index is its position in the input
type Job[T any] struct {
	Index int
	Item  T
}

// Result is the outcome of a Job. Failures are part of Value so one record
// never aborts the others.
type Result[R any] struct {
	Index    int
	Value    R
	Duration time.Duration
}

// ProcessFunc handles a single item
type ProcessFunc[T, R any] func(ctx context.Context, item T) R

// Pool manages concurrent workers
type Pool[T, R any] struct {
	numWorkers  int
	jobQueue    chan Job[T]
	resultQueue chan Result[R]
	wg          sync.WaitGroup
	ctx         context.Context
	process     ProcessFunc[T, R]
	logger      logger.Logger
}

// New creates a pool of numWorkers workers (at least one)
func New[T, R any](ctx context.Context, numWorkers int, process ProcessFunc[T, R], log logger.Logger) *Pool[T, R] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Pool[T, R]{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job[T], numWorkers*2),
		resultQueue: make(chan Result[R], numWorkers),
		ctx:         ctx,
		process:     process,
		logger:      log,
	}
}

// Start launches the workers
func (p *Pool[T, R]) Start() {
	p.logger.DebugWithFields("starting worker pool", map[string]interface{}{
		"num_workers": p.numWorkers,
	})

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop closes the job queue, waits for queued jobs to finish and closes the
// result channel. Results must be drained concurrently.
func (p *Pool[T, R]) Stop() {
	close(p.jobQueue)
	p.wg.Wait()
	close(p.resultQueue)

	p.logger.Debug("worker pool stopped")
}

// Submit queues a job. It fails once the pool context is done.
func (p *Pool[T, R]) Submit(job Job[T]) error {
	select {
	case p.jobQueue <- job:
		return nil
	case <-p.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", p.ctx.Err())
	}
}

// Results returns the channel results are delivered on, in completion order
func (p *Pool[T, R]) Results() <-chan Result[R] {
	return p.resultQueue
}

// Workers returns the number of workers
func (p *Pool[T, R]) Workers() int {
	return p.numWorkers
}

func (p *Pool[T, R]) worker(id int) {
	defer p.wg.Done()

	for job := range p.jobQueue {
		start := time.Now()
		value := p.process(p.ctx, job.Item)
		p.resultQueue <- Result[R]{
			Index:    job.Index,
			Value:    value,
			Duration: time.Since(start),
		}
	}

	p.logger.DebugWithFields("worker stopping, job queue closed", map[string]interface{}{
		"worker_id": id,
	})
}

// Map applies process to every item and returns the results in input order.
// With numWorkers <= 1 items are processed sequentially on the calling
// goroutine. If ctx is cancelled before every item was submitted, the
// results of unsubmitted items are zero values and ctx.Err() is returned.
func Map[T, R any](ctx context.Context, numWorkers int, items []T, process ProcessFunc[T, R], log logger.Logger) ([]R, error) {
	out := make([]R, len(items))

	if numWorkers <= 1 || len(items) <= 1 {
		for i, item := range items {
			if err := ctx.Err(); err != nil {
				return out, err
			}
			out[i] = process(ctx, item)
		}
		return out, nil
	}

	pool := New(ctx, min(numWorkers, len(items)), process, log)
	pool.Start()

	var submitErr error
	go func() {
		defer pool.Stop()
		for i, item := range items {
			if err := pool.Submit(Job[T]{Index: i, Item: item}); err != nil {
				submitErr = err
				return
			}
		}
	}()

	for res := range pool.Results() {
		out[res.Index] = res.Value
	}

	if submitErr != nil {
		return out, ctx.Err()
	}
	return out, nil
}
