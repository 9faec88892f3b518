package event

import (
	"context"
	"iter"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/eventkit/internal/pool"
)

// AsyncEvent is an Event whose fire schedules every handler for concurrent
// execution instead of running them one at a time. Handlers run on a bounded
// worker pool, so a blocking handler never delays the scheduling of its
// siblings. The returned Firing exposes the aggregation policies.
type AsyncEvent struct {
	Event
	pool *pool.Pool
}

// NewAsyncEvent creates an AsyncEvent with a plain insertion-ordered store.
func NewAsyncEvent(opts ...Option) *AsyncEvent {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &AsyncEvent{
		Event: Event{
			store:  newListStore(),
			logger: o.logger.Named("async_event"),
			opts:   o,
		},
		pool: pool.New(o.workerLimit),
	}
}

// Fire schedules every handler's unit of work immediately and returns the
// Firing tracking them. Handlers begin progressing concurrently without the
// caller doing anything further; consuming the Firing only observes
// completion. Concurrent fires are independent of each other.
func (e *AsyncEvent) Fire(ctx context.Context, args ...any) *Firing {
	return e.fireEntries(ctx, e.snapshot(), args)
}

// Drain blocks until every invocation scheduled by past fires has finished or
// ctx expires. Useful at shutdown so the worker resource is never leaked.
func (e *AsyncEvent) Drain(ctx context.Context) error {
	return e.pool.Wait(ctx)
}

func (e *AsyncEvent) fireEntries(ctx context.Context, entries []*entry, args []any) *Firing {
	f := newFiring(e.logger, e.opts.failFast, len(entries))
	for _, ent := range entries {
		f.schedule(ctx, e.pool, ent.handler, args)
	}
	e.logger.Debug("event fired",
		zap.String("fire_id", f.id),
		zap.Int("handlers", len(entries)))
	return f
}

// Firing tracks one asynchronous fire: every unit of work, already scheduled,
// in submission order. All aggregation policies operate over the same units;
// abandoning a policy mid-way never retracts in-flight units.
type Firing struct {
	id        string
	units     []*Unit
	completed chan *Unit
	failFast  bool
	logger    *zap.Logger

	mu       sync.Mutex
	streamed bool
}

func newFiring(logger *zap.Logger, failFast bool, capacity int) *Firing {
	return &Firing{
		id:        uuid.New().String(),
		units:     make([]*Unit, 0, capacity),
		completed: make(chan *Unit, capacity),
		failFast:  failFast,
		logger:    logger,
	}
}

// schedule creates a pending unit for h and hands its invocation to the pool.
// The completed channel is buffered for every unit, so resolution never blocks
// even when nobody streams.
func (f *Firing) schedule(ctx context.Context, p *pool.Pool, h Handler, args []any) {
	u := newUnit(h)
	f.units = append(f.units, u)
	p.Go(ctx,
		func() {
			r := invoke(ctx, h, args)
			if r.Failed() {
				f.logger.Error("handler failed",
					zap.String("fire_id", f.id),
					zap.Error(r.Err))
			}
			u.resolve(r.Value, r.Err)
			f.completed <- u
		},
		func(err error) {
			u.resolve(nil, &InvocationError{Handler: h, Err: err})
			f.completed <- u
		})
}

// ID identifies this fire in logs.
func (f *Firing) ID() string { return f.id }

// Units returns the task handles in submission order, so a caller can apply
// its own timeout or cancellation policy.
func (f *Firing) Units() []*Unit {
	return append([]*Unit(nil), f.units...)
}

// Wait suspends until every unit is terminal, completed or failed alike.
// Handler failures stay captured in their Results; Wait itself only
// fails if ctx expires first.
func (f *Firing) Wait(ctx context.Context) error {
	for _, u := range f.units {
		if _, err := u.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Gather suspends until the units are terminal and returns their results
// in submission order, not completion order. In fail-fast mode (see
// WithFailFast) it returns an *AggregationError as soon as a failed unit is
// observed, carrying the results gathered so far; the remaining in-flight
// units are abandoned, not cancelled. Otherwise failures are collected
// alongside successes and the error is nil.
func (f *Firing) Gather(ctx context.Context) ([]Result, error) {
	results := make([]Result, 0, len(f.units))
	for _, u := range f.units {
		r, err := u.Wait(ctx)
		if err != nil {
			return results, err
		}
		if r.Failed() && f.failFast {
			return results, &AggregationError{First: r, Partial: results}
		}
		results = append(results, r)
	}
	return results, nil
}

// Results returns the submission-order sequence of results. Iterating
// suspends the consumer until each unit completes, but scheduling already
// happened at fire time. The sequence is restartable: every pass re-reads the
// same terminal outcomes without re-invoking anything.
func (f *Firing) Results(ctx context.Context) iter.Seq[Result] {
	return func(yield func(Result) bool) {
		for _, u := range f.units {
			r, err := u.Wait(ctx)
			if err != nil {
				return
			}
			if !yield(r) {
				return
			}
		}
	}
}

// AsCompleted returns a lazy sequence yielding each result as soon as its
// unit becomes terminal, in completion order rather than submission order; a fast handler is never held back by a slow sibling. The
// sequence is finite and single-pass: once exhausted (or abandoned),
// re-ranging yields nothing.
func (f *Firing) AsCompleted(ctx context.Context) iter.Seq[Result] {
	return func(yield func(Result) bool) {
		f.mu.Lock()
		if f.streamed {
			f.mu.Unlock()
			return
		}
		f.streamed = true
		f.mu.Unlock()

		for range f.units {
			select {
			case u := <-f.completed:
				if !yield(u.Result()) {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}
}
