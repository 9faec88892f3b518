// Package pool bounds how many handler invocations run concurrently, so a
// blocking handler can never starve the scheduling of its siblings.
package pool

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// DefaultLimit is used when a pool is created with a non-positive limit.
const DefaultLimit = 8

// Pool is a bounded worker resource. Work is scheduled immediately as a
// goroutine and waits for one of the pool's slots before running, so
// scheduling never blocks the caller.
type Pool struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// New creates a pool running at most limit invocations at once.
func New(limit int64) *Pool {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Pool{sem: semaphore.NewWeighted(limit)}
}

// Go schedules run. It returns immediately; run starts once a slot frees up.
// If ctx is cancelled before a slot is acquired, reject is called with the
// cancellation error instead and run never starts.
func (p *Pool) Go(ctx context.Context, run func(), reject func(error)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.sem.Acquire(ctx, 1); err != nil {
			reject(err)
			return
		}
		defer p.sem.Release(1)
		run()
	}()
}

// Wait blocks until every scheduled invocation has finished or ctx expires.
func (p *Pool) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
