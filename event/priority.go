package event

import (
	"context"
	"iter"
)

// PriorityEvent is an Event whose handlers are bucketed by priority. Buckets
// fire in ascending priority order; within a bucket, insertion order is
// preserved.
type PriorityEvent struct {
	Event
}

// NewPriorityEvent creates a PriorityEvent with a priority-bucketed store.
func NewPriorityEvent(opts ...Option) *PriorityEvent {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &PriorityEvent{Event: Event{
		store:  newPriorityStore(),
		logger: o.logger.Named("priority_event"),
		opts:   o,
	}}
}

// AddWithPriority registers a callable at an explicit priority. Lower
// priorities fire first.
func (e *PriorityEvent) AddWithPriority(callable any, priority int) error {
	return e.addAt(callable, priority)
}

// FireByPriority invokes every handler in canonical order and returns the
// results grouped per non-empty priority bucket, ascending. Flattening
// the groups reproduces Fire's output order exactly.
func (e *PriorityEvent) FireByPriority(ctx context.Context, args ...any) []PriorityResults {
	buckets := e.buckets()
	out := make([]PriorityResults, 0, len(buckets))
	for _, b := range buckets {
		results := make([]Result, 0, len(b.entries))
		for _, ent := range b.entries {
			results = append(results, e.invokeLogged(ctx, ent.handler, args))
		}
		out = append(out, PriorityResults{Priority: b.priority, Results: results})
	}
	return out
}

// FireByPriorityLazily is the lazy analogue of FireByPriority: both the outer
// per-priority sequence and the inner Result sequences are computed on demand.
// Like FireLazily, the sequence is single-pass.
func (e *PriorityEvent) FireByPriorityLazily(ctx context.Context, args ...any) iter.Seq2[int, iter.Seq[Result]] {
	buckets := e.buckets()
	consumed := false
	return func(yield func(int, iter.Seq[Result]) bool) {
		if consumed {
			return
		}
		consumed = true
		for _, b := range buckets {
			entries := b.entries
			inner := func(yield func(Result) bool) {
				for _, ent := range entries {
					if !yield(e.invokeLogged(ctx, ent.handler, args)) {
						return
					}
				}
			}
			if !yield(b.priority, inner) {
				return
			}
		}
	}
}
