// Package worker provides the concurrency primitives used to talk to ITIS:
// a bounded worker pool for batch builds and a per-host request limiter.
package worker

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"sync/atomic"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

type indexedJob struct {
	index int
	job   Job
}

type indexedResult struct {
	index  int
	result Result
}

// Pool runs jobs on a fixed number of goroutines. Results are returned in
// submission order.
type Pool struct {
	workers    int
	jobQueue   chan indexedJob
	results    chan indexedResult
	next       atomic.Int64
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once

	collected []indexedResult
	drained   chan struct{}
}

// NewPool creates a pool bound to parent; cancelling parent stops the
// workers after their current job.
func NewPool(parent context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(parent)

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan indexedJob, workers*2),
		results:    make(chan indexedResult, workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
		drained:    make(chan struct{}),
	}
}

// Start starts the workers and the result collector. Results are drained
// as they arrive, so Submit never waits on Wait.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	go func() {
		defer close(p.drained)
		for r := range p.results {
			p.collected = append(p.collected, r)
		}
	}()
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case ij, ok := <-p.jobQueue:
			if !ok {
				return
			}
			out := indexedResult{index: ij.index, result: ij.job.Execute(p.ctx)}
			select {
			case p.results <- out:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues job. It reports false when the pool's context ended before
// the job could be queued.
func (p *Pool) Submit(job Job) bool {
	if p.ctx.Err() != nil {
		return false
	}
	ij := indexedJob{index: int(p.next.Add(1) - 1), job: job}
	select {
	case <-p.ctx.Done():
		return false
	case p.jobQueue <- ij:
		return true
	}
}

// Wait closes the queue, waits for the workers and returns the results in
// submission order. Jobs dropped after the parent context ended have no
// result. The pool's context is released on return.
func (p *Pool) Wait() []Result {
	defer p.cancelFunc()
	close(p.jobQueue)
	p.wg.Wait()
	p.closeResults()
	<-p.drained

	collected := p.collected
	slices.SortFunc(collected, func(a, b indexedResult) int {
		return cmp.Compare(a.index, b.index)
	})

	results := make([]Result, len(collected))
	for i, r := range collected {
		results[i] = r.result
	}
	return results
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
