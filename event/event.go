package event

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"go.uber.org/zap"
)

// Event is a synchronous callback registry: handlers registered on it are
// invoked in insertion order when it fires, and every fire returns the ordered
// (handler, outcome) pairs. Firing never mutates the registry. Registration
// and firing are safe to interleave from different goroutines: every fire
// copies the handlers under a read lock and invokes them outside it.
type Event struct {
	mu     sync.RWMutex
	store  store
	logger *zap.Logger
	opts   options
}

// NewEvent creates an Event with a plain insertion-ordered handler store.
func NewEvent(opts ...Option) *Event {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Event{
		store:  newListStore(),
		logger: o.logger.Named("event"),
		opts:   o,
	}
}

// Add registers a callable at the default priority. The callable must be one
// of the shapes accepted by Adapt. Registering the same callable twice returns
// ErrDuplicateHandler unless duplicates were allowed at construction.
func (e *Event) Add(callable any) error {
	return e.addAt(callable, e.opts.defaultPriority)
}

func (e *Event) addAt(callable any, priority int) error {
	h, err := Adapt(callable)
	if err != nil {
		return err
	}
	key, err := identityOf(callable)
	if err != nil {
		return err
	}
	ent := &entry{key: key, handler: h, priority: priority}
	if b, ok := h.(*boundHandler); ok {
		ent.ownerKey, err = identityOf(b.owner)
		if err != nil {
			return fmt.Errorf("bound handler owner: %w", err)
		}
	}
	e.mu.Lock()
	if err := e.store.add(ent, e.opts.allowDuplicates); err != nil {
		e.mu.Unlock()
		return err
	}
	size := e.store.size()
	e.mu.Unlock()
	e.logger.Debug("handler added",
		zap.Int("priority", priority),
		zap.Int("handlers", size))
	return nil
}

// Remove unregisters a callable by identity. If the same callable was
// registered more than once, the oldest registration is removed. Returns
// ErrHandlerNotFound if the callable is not registered.
func (e *Event) Remove(callable any) error {
	key, err := identityOf(callable)
	if err != nil {
		return err
	}
	e.mu.Lock()
	if _, err := e.store.remove(key); err != nil {
		e.mu.Unlock()
		return err
	}
	size := e.store.size()
	e.mu.Unlock()
	e.logger.Debug("handler removed", zap.Int("handlers", size))
	return nil
}

// RemoveAllBoundTo detaches every handler bound to owner via Bind. Detaching
// is idempotent: owners with no bound handlers remove nothing and no error is
// reported. Returns how many handlers were removed.
func (e *Event) RemoveAllBoundTo(owner any) int {
	ownerKey, err := identityOf(owner)
	if err != nil {
		return 0
	}
	e.mu.Lock()
	n := e.store.removeOwned(ownerKey)
	size := e.store.size()
	e.mu.Unlock()
	if n > 0 {
		e.logger.Debug("owner detached",
			zap.Int("removed", n),
			zap.Int("handlers", size))
	}
	return n
}

// Clear removes every handler.
func (e *Event) Clear() {
	e.mu.Lock()
	e.store.clear()
	e.mu.Unlock()
}

// Len returns the number of registered handlers.
func (e *Event) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.size()
}

// snapshot copies the handlers in canonical order under the read lock, so
// fires never race with registration.
func (e *Event) snapshot() []*entry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.snapshot()
}

// buckets copies the per-priority groups under the read lock.
func (e *Event) buckets() []bucket {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.byPriority()
}

// Handlers traverses the registered handlers in canonical order. The sequence
// is restartable; each traversal reflects the store at the time it was
// requested.
func (e *Event) Handlers() iter.Seq[Handler] {
	entries := e.snapshot()
	return func(yield func(Handler) bool) {
		for _, ent := range entries {
			if !yield(ent.handler) {
				return
			}
		}
	}
}

// Fire invokes every handler in canonical order and returns the ordered
// results. A handler's error is captured in its Result, never raised, so
// one failing handler cannot prevent its siblings from running.
func (e *Event) Fire(ctx context.Context, args ...any) []Result {
	entries := e.snapshot()
	results := make([]Result, 0, len(entries))
	for _, ent := range entries {
		results = append(results, e.invokeLogged(ctx, ent.handler, args))
	}
	return results
}

// FireLazily returns a lazy, single-pass sequence of results in canonical
// order. Handler N+1 is not invoked until the consumer asks for it, so
// consumption can short-circuit. Re-ranging an exhausted (or abandoned)
// sequence yields nothing; call FireLazily again for a fresh pass.
func (e *Event) FireLazily(ctx context.Context, args ...any) iter.Seq[Result] {
	entries := e.snapshot()
	consumed := false
	return func(yield func(Result) bool) {
		if consumed {
			return
		}
		consumed = true
		for _, ent := range entries {
			if !yield(e.invokeLogged(ctx, ent.handler, args)) {
				return
			}
		}
	}
}

func (e *Event) invokeLogged(ctx context.Context, h Handler, args []any) Result {
	r := invoke(ctx, h, args)
	if r.Failed() {
		e.logger.Error("handler failed", zap.Error(r.Err))
	}
	return r
}
