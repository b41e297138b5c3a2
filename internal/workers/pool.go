// Package workers provides a generic bounded worker pool used by the
// note-rewrite pipeline's Phase 1 parallel resolution and the author-date
// pipeline's per-citation resolution. The resolver's per-provider fan-out
// does not use it.
package workers

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
)

// Job represents a single unit of work submitted to a Pool.
type Job func(ctx context.Context) error

// Pool runs submitted Jobs across a fixed number of goroutines. Each Job
// owns its own input and output; the pool holds no shared mutable state
// beyond error collection, so no locking is needed by callers.
type Pool struct {
	jobs       chan Job
	maxWorkers int
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	errors     []error
	errorsMu   sync.Mutex
	logger     arbor.ILogger
}

// NewPool creates a Pool with maxWorkers goroutines. A non-positive
// maxWorkers falls back to 10, matching citeflex's Phase 1 minimum of
// N >= 10 concurrent note resolutions.
func NewPool(maxWorkers int, logger arbor.ILogger) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		jobs:       make(chan Job, maxWorkers*2),
		maxWorkers: maxWorkers,
		ctx:        ctx,
		cancel:     cancel,
		errors:     make([]error, 0),
		logger:     logger,
	}
}

// Start launches the pool's worker goroutines.
func (p *Pool) Start() {
	p.logger.Debug().
		Int("max_workers", p.maxWorkers).
		Msg("Starting worker pool")

	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Submit enqueues a job. It returns an error if the pool is shutting down.
func (p *Pool) Submit(job Job) error {
	select {
	case p.jobs <- job:
		return nil
	case <-p.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	}
}

// Wait closes the job queue and blocks until all submitted jobs complete.
func (p *Pool) Wait() {
	close(p.jobs)
	p.wg.Wait()
}

// Shutdown cancels outstanding work and waits for workers to exit.
func (p *Pool) Shutdown() {
	p.cancel()
	p.Wait()
}

// Errors returns every error returned by a Job, in completion order.
func (p *Pool) Errors() []error {
	p.errorsMu.Lock()
	defer p.errorsMu.Unlock()
	out := make([]error, len(p.errors))
	copy(out, p.errors)
	return out
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case job, ok := <-p.jobs:
			if !ok {
				return
			}

			if err := job(p.ctx); err != nil {
				p.errorsMu.Lock()
				p.errors = append(p.errors, err)
				p.errorsMu.Unlock()

				p.logger.Error().
					Err(err).
					Int("worker_id", id).
					Msg("Job failed")
			}

		case <-p.ctx.Done():
			return
		}
	}
}
