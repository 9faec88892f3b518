package dispatch

import (
	"context"
	"fmt"
	"iter"

	"github.com/rovshanmuradov/eventkit/event"
)

// AsyncDispatch routes fire requests to asynchronous events by name. Firing
// schedules every handler for concurrent progress; the Fire* variants choose
// how completion is observed.
type AsyncDispatch struct {
	*table[*event.AsyncEvent]
}

// NewAsync creates an AsyncDispatch.
func NewAsync(opts ...Option) *AsyncDispatch {
	o := applyOptions(opts)
	d := &AsyncDispatch{table: newTable(func() *event.AsyncEvent {
		return event.NewAsyncEvent(o.eventOptions...)
	}, o)}
	d.table.notify = d.fireInternal
	d.table.init(o.eventNames)
	return d
}

// Lifecycle notifications are fire-and-forget: the units run to completion on
// the event's pool, nobody observes them.
func (d *AsyncDispatch) fireInternal(name string, args ...any) {
	if ev, ok := d.lookup(name); ok {
		ev.Fire(context.Background(), args...)
	}
}

// Fire schedules the named event's handlers and returns the Firing tracking
// them.
func (d *AsyncDispatch) Fire(ctx context.Context, name string, args ...any) (*event.Firing, bool) {
	ev, ok := d.eventForFire(name)
	if !ok {
		return nil, false
	}
	return ev.Fire(ctx, args...), true
}

// FireWait fires the named event and suspends until every handler is
// terminal. Handler failures stay captured in their Results; the error is
// ErrUnknownEvent for a miss, or the ctx error when it expires first.
func (d *AsyncDispatch) FireWait(ctx context.Context, name string, args ...any) ([]event.Result, error) {
	ev, ok := d.eventForFire(name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownEvent)
	}
	f := ev.Fire(ctx, args...)
	if err := f.Wait(ctx); err != nil {
		return nil, err
	}
	units := f.Units()
	results := make([]event.Result, 0, len(units))
	for _, u := range units {
		results = append(results, u.Result())
	}
	return results, nil
}

// FireGather fires the named event and gathers results in submission order,
// honoring the events' fail-fast policy. A miss is reported as
// ErrUnknownEvent.
func (d *AsyncDispatch) FireGather(ctx context.Context, name string, args ...any) ([]event.Result, error) {
	ev, ok := d.eventForFire(name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownEvent)
	}
	return ev.Fire(ctx, args...).Gather(ctx)
}

// FireStream fires the named event and returns its as-completed sequence.
func (d *AsyncDispatch) FireStream(ctx context.Context, name string, args ...any) iter.Seq[event.Result] {
	ev, ok := d.eventForFire(name)
	if !ok {
		return func(func(event.Result) bool) {}
	}
	return ev.Fire(ctx, args...).AsCompleted(ctx)
}

// AsyncPriorityDispatch routes fire requests to asynchronous priority events
// by name.
type AsyncPriorityDispatch struct {
	*table[*event.AsyncPriorityEvent]
}

// NewAsyncPriority creates an AsyncPriorityDispatch.
func NewAsyncPriority(opts ...Option) *AsyncPriorityDispatch {
	o := applyOptions(opts)
	d := &AsyncPriorityDispatch{table: newTable(func() *event.AsyncPriorityEvent {
		return event.NewAsyncPriorityEvent(o.eventOptions...)
	}, o)}
	d.table.notify = d.fireInternal
	d.table.init(o.eventNames)
	return d
}

func (d *AsyncPriorityDispatch) fireInternal(name string, args ...any) {
	if ev, ok := d.lookup(name); ok {
		ev.Fire(context.Background(), args...)
	}
}

// Fire schedules the named event's handlers in canonical order and returns
// the Firing tracking them.
func (d *AsyncPriorityDispatch) Fire(ctx context.Context, name string, args ...any) (*event.Firing, bool) {
	ev, ok := d.eventForFire(name)
	if !ok {
		return nil, false
	}
	return ev.Fire(ctx, args...), true
}

// FireByPriority schedules the named event's handlers grouped per priority
// bucket.
func (d *AsyncPriorityDispatch) FireByPriority(ctx context.Context, name string, args ...any) ([]event.PriorityFiring, bool) {
	ev, ok := d.eventForFire(name)
	if !ok {
		return nil, false
	}
	return ev.FireByPriority(ctx, args...), true
}

// FireWait fires the named event and suspends until every handler is
// terminal. A miss is reported as ErrUnknownEvent.
func (d *AsyncPriorityDispatch) FireWait(ctx context.Context, name string, args ...any) ([]event.Result, error) {
	ev, ok := d.eventForFire(name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownEvent)
	}
	f := ev.Fire(ctx, args...)
	if err := f.Wait(ctx); err != nil {
		return nil, err
	}
	units := f.Units()
	results := make([]event.Result, 0, len(units))
	for _, u := range units {
		results = append(results, u.Result())
	}
	return results, nil
}

// FireGather fires the named event and gathers results in submission order.
// A miss is reported as ErrUnknownEvent.
func (d *AsyncPriorityDispatch) FireGather(ctx context.Context, name string, args ...any) ([]event.Result, error) {
	ev, ok := d.eventForFire(name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownEvent)
	}
	return ev.Fire(ctx, args...).Gather(ctx)
}

// FireStream fires the named event and returns its as-completed sequence.
func (d *AsyncPriorityDispatch) FireStream(ctx context.Context, name string, args ...any) iter.Seq[event.Result] {
	ev, ok := d.eventForFire(name)
	if !ok {
		return func(func(event.Result) bool) {}
	}
	return ev.Fire(ctx, args...).AsCompleted(ctx)
}
