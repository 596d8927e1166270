// Package worker runs category scrapes concurrently on a fixed-size pool.
// Each worker owns its own browser session chain, so the pool size bounds the
// number of live browsers.
package worker

import (
	"context"
	"sync"
)

// Job is one unit of pool work, typically a whole category scrape.
type Job interface {
	Execute(ctx context.Context) error
}

// Pool executes jobs on a fixed number of workers. Job errors are collected
// in place rather than queued, so any number of jobs can be submitted without
// the workers ever blocking on a full result buffer.
type Pool struct {
	workers int
	jobs    chan Job
	mu      sync.Mutex
	errs    []error
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Pool{
		workers: workers,
		jobs:    make(chan Job, workers),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
}

func (p *Pool) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			if err := job.Execute(p.ctx); err != nil {
				p.mu.Lock()
				p.errs = append(p.errs, err)
				p.mu.Unlock()
			}
		}
	}
}

// Submit queues a job. It is a no-op after Shutdown.
func (p *Pool) Submit(job Job) {
	select {
	case <-p.ctx.Done():
	case p.jobs <- job:
	}
}

// Wait closes the queue, waits for every submitted job to finish and returns
// the job errors.
func (p *Pool) Wait() []error {
	close(p.jobs)
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errs
}

// Shutdown cancels running jobs and waits for the workers to exit.
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}
