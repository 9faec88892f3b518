package dispatch

import (
	"context"
	"iter"

	"github.com/rovshanmuradov/eventkit/event"
)

// Dispatch routes fire requests to synchronous events by name.
type Dispatch struct {
	*table[*event.Event]
}

// New creates a Dispatch.
func New(opts ...Option) *Dispatch {
	o := applyOptions(opts)
	d := &Dispatch{table: newTable(func() *event.Event {
		return event.NewEvent(o.eventOptions...)
	}, o)}
	d.table.notify = d.fireInternal
	d.table.init(o.eventNames)
	return d
}

func (d *Dispatch) fireInternal(name string, args ...any) {
	if ev, ok := d.lookup(name); ok {
		ev.Fire(context.Background(), args...)
	}
}

// Fire fires the named event eagerly. ok reports whether the event existed or
// was created; when false, no handler ran.
func (d *Dispatch) Fire(ctx context.Context, name string, args ...any) ([]event.Result, bool) {
	ev, ok := d.eventForFire(name)
	if !ok {
		return nil, false
	}
	return ev.Fire(ctx, args...), true
}

// FireLazily fires the named event lazily; see Event.FireLazily.
func (d *Dispatch) FireLazily(ctx context.Context, name string, args ...any) (iter.Seq[event.Result], bool) {
	ev, ok := d.eventForFire(name)
	if !ok {
		return nil, false
	}
	return ev.FireLazily(ctx, args...), true
}

// PriorityDispatch routes fire requests to priority events by name.
type PriorityDispatch struct {
	*table[*event.PriorityEvent]
}

// NewPriority creates a PriorityDispatch.
func NewPriority(opts ...Option) *PriorityDispatch {
	o := applyOptions(opts)
	d := &PriorityDispatch{table: newTable(func() *event.PriorityEvent {
		return event.NewPriorityEvent(o.eventOptions...)
	}, o)}
	d.table.notify = d.fireInternal
	d.table.init(o.eventNames)
	return d
}

func (d *PriorityDispatch) fireInternal(name string, args ...any) {
	if ev, ok := d.lookup(name); ok {
		ev.Fire(context.Background(), args...)
	}
}

// Fire fires the named event eagerly in canonical (priority, insertion)
// order.
func (d *PriorityDispatch) Fire(ctx context.Context, name string, args ...any) ([]event.Result, bool) {
	ev, ok := d.eventForFire(name)
	if !ok {
		return nil, false
	}
	return ev.Fire(ctx, args...), true
}

// FireLazily fires the named event lazily in canonical order.
func (d *PriorityDispatch) FireLazily(ctx context.Context, name string, args ...any) (iter.Seq[event.Result], bool) {
	ev, ok := d.eventForFire(name)
	if !ok {
		return nil, false
	}
	return ev.FireLazily(ctx, args...), true
}

// FireByPriority fires the named event and groups results per priority
// bucket.
func (d *PriorityDispatch) FireByPriority(ctx context.Context, name string, args ...any) ([]event.PriorityResults, bool) {
	ev, ok := d.eventForFire(name)
	if !ok {
		return nil, false
	}
	return ev.FireByPriority(ctx, args...), true
}
