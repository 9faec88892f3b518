package event

import (
	"context"

	"github.com/rovshanmuradov/eventkit/internal/pool"
)

// AsyncPriorityEvent combines priority-ordered submission with concurrent
// execution: units are scheduled in ascending priority order, then observed
// through the usual aggregation policies, either over the whole fire or per
// priority bucket.
type AsyncPriorityEvent struct {
	AsyncEvent
}

// NewAsyncPriorityEvent creates an AsyncPriorityEvent with a priority-bucketed
// store.
func NewAsyncPriorityEvent(opts ...Option) *AsyncPriorityEvent {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &AsyncPriorityEvent{AsyncEvent: AsyncEvent{
		Event: Event{
			store:  newPriorityStore(),
			logger: o.logger.Named("async_priority_event"),
			opts:   o,
		},
		pool: pool.New(o.workerLimit),
	}}
}

// AddWithPriority registers a callable at an explicit priority. Lower
// priorities are submitted first.
func (e *AsyncPriorityEvent) AddWithPriority(callable any, priority int) error {
	return e.addAt(callable, priority)
}

// PriorityFiring tracks the units of one priority bucket within a
// priority-grouped fire.
type PriorityFiring struct {
	Priority int
	Firing   *Firing
}

// FireByPriority schedules every handler's unit immediately, grouped into one
// Firing per non-empty priority bucket, ascending. All buckets are scheduled
// up front; the grouping only shapes how completion is observed.
func (e *AsyncPriorityEvent) FireByPriority(ctx context.Context, args ...any) []PriorityFiring {
	buckets := e.buckets()
	out := make([]PriorityFiring, 0, len(buckets))
	for _, b := range buckets {
		f := newFiring(e.logger, e.opts.failFast, len(b.entries))
		for _, ent := range b.entries {
			f.schedule(ctx, e.pool, ent.handler, args)
		}
		out = append(out, PriorityFiring{Priority: b.priority, Firing: f})
	}
	return out
}
