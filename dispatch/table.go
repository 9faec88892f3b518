// Package dispatch manages many named events and routes fire requests to
// them. Events are created lazily, and handler objects are attached by method
// name: every exported method whose signature the invocation adapter accepts
// handles the event named after it.
package dispatch

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/eventkit/event"
)

// Lifecycle events fired by a dispatch about its own registry changes.
const (
	HandlerAdded   = "OnHandlerAdd"
	HandlerRemoved = "OnHandlerRemove"
	EventAdded     = "OnEventAdd"
)

var lifecycleEvents = []string{HandlerAdded, HandlerRemoved, EventAdded}

// ErrUnknownEvent reports a fire against a name that does not exist while
// CreateOnFire is disabled.
var ErrUnknownEvent = errors.New("unknown event")

// registry is the surface the table needs from each event variant.
type registry interface {
	Add(callable any) error
	RemoveAllBoundTo(owner any) int
	Len() int
	Clear()
}

// ownerRef remembers a registered handler object and its identity key.
type ownerRef struct {
	key   any
	owner any
}

// table is the shared core of every dispatch variant: a name-keyed mapping of
// events plus the handler objects attached to them. The mutex guards the name
// table and owner list; each event guards its own handler store, so firing an
// event is safe while the table mutates it.
type table[E registry] struct {
	mu     sync.RWMutex
	events map[string]E
	names  []string // creation order
	owners []ownerRef

	factory        func() E
	notify         func(name string, args ...any)
	createOnAccess bool
	createOnFire   bool
	logger         *zap.Logger
}

func newTable[E registry](factory func() E, o options) *table[E] {
	return &table[E]{
		events:         make(map[string]E),
		factory:        factory,
		createOnAccess: o.createOnAccess,
		createOnFire:   o.createOnFire,
		logger:         o.logger.Named("dispatch"),
	}
}

// init creates the lifecycle events and any preconfigured event names. Called
// once by the variant constructors, after notify is wired.
func (t *table[E]) init(names []string) {
	t.mu.Lock()
	for _, name := range lifecycleEvents {
		t.getOrCreateLocked(name)
	}
	t.mu.Unlock()
	for _, name := range names {
		t.AddEvent(name)
	}
}

// AddEvent creates the named event if absent and returns it.
func (t *table[E]) AddEvent(name string) E {
	t.mu.Lock()
	ev, created := t.getOrCreateLocked(name)
	t.mu.Unlock()
	if created {
		t.announce(EventAdded, name)
	}
	return ev
}

func (t *table[E]) getOrCreateLocked(name string) (E, bool) {
	if ev, ok := t.events[name]; ok {
		return ev, false
	}
	ev := t.factory()
	t.events[name] = ev
	t.names = append(t.names, name)
	// Handler objects registered before the event existed pick it up now.
	for _, ref := range t.owners {
		t.attach(ref.owner, name, ev)
	}
	t.logger.Debug("event created", zap.String("event", name))
	return ev, true
}

// Get returns the named event. With CreateOnAccess enabled, a missing event
// is created on the spot.
func (t *table[E]) Get(name string) (E, bool) {
	if ev, ok := t.lookup(name); ok {
		return ev, true
	}
	if !t.createOnAccess {
		var zero E
		return zero, false
	}
	return t.AddEvent(name), true
}

func (t *table[E]) lookup(name string) (E, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ev, ok := t.events[name]
	return ev, ok
}

// eventForFire resolves the event a fire call targets, creating it when
// CreateOnFire is enabled.
func (t *table[E]) eventForFire(name string) (E, bool) {
	if ev, ok := t.lookup(name); ok {
		return ev, true
	}
	if !t.createOnFire {
		var zero E
		return zero, false
	}
	return t.AddEvent(name), true
}

// Add registers a handler object. Every exported method whose signature the
// invocation adapter accepts is bound to the event named after the method;
// events created later pick the object up as well. Registering the same
// object twice returns ErrDuplicateHandler.
func (t *table[E]) Add(owner any) error {
	key, err := ownerKey(owner)
	if err != nil {
		return err
	}
	t.mu.Lock()
	for _, ref := range t.owners {
		if ref.key == key {
			t.mu.Unlock()
			return fmt.Errorf("handler object %T: %w", owner, event.ErrDuplicateHandler)
		}
	}
	t.owners = append(t.owners, ownerRef{key: key, owner: owner})
	for _, name := range t.names {
		t.attach(owner, name, t.events[name])
	}
	t.mu.Unlock()

	t.logger.Debug("handler object added", zap.String("type", fmt.Sprintf("%T", owner)))
	t.announce(HandlerAdded, owner)
	return nil
}

// Remove detaches a handler object from every event and forgets it.
func (t *table[E]) Remove(owner any) error {
	key, err := ownerKey(owner)
	if err != nil {
		return err
	}
	t.mu.Lock()
	found := false
	for i, ref := range t.owners {
		if ref.key == key {
			t.owners = append(t.owners[:i], t.owners[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		t.mu.Unlock()
		return fmt.Errorf("handler object %T: %w", owner, event.ErrHandlerNotFound)
	}
	for _, ev := range t.events {
		ev.RemoveAllBoundTo(owner)
	}
	t.mu.Unlock()

	t.logger.Debug("handler object removed", zap.String("type", fmt.Sprintf("%T", owner)))
	t.announce(HandlerRemoved, owner)
	return nil
}

// EventNames returns the known event names in creation order.
func (t *table[E]) EventNames() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.names...)
}

// Len returns the number of known events, lifecycle events included.
func (t *table[E]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.events)
}

// Clear drops every event and handler object, then recreates the lifecycle
// events.
func (t *table[E]) Clear() {
	t.mu.Lock()
	t.events = make(map[string]E)
	t.names = nil
	t.owners = nil
	for _, name := range lifecycleEvents {
		t.getOrCreateLocked(name)
	}
	t.mu.Unlock()
}

// announce fires a lifecycle event. Never called with the mutex held: the
// handlers run through the regular fire path.
func (t *table[E]) announce(name string, args ...any) {
	if t.notify != nil {
		t.notify(name, args...)
	}
}

// attach binds owner's method named after the event, if there is one the
// adapter accepts.
func (t *table[E]) attach(owner any, name string, ev E) {
	m := methodByName(owner, name)
	if m == nil {
		return
	}
	h, err := event.Bind(owner, m)
	if err != nil {
		return
	}
	if err := ev.Add(h); err != nil {
		t.logger.Warn("attach failed", zap.String("event", name), zap.Error(err))
	}
}

// methodByName returns owner's method as a callable, or nil when absent. The
// adapter decides afterwards whether the signature conforms.
func methodByName(owner any, name string) any {
	rv := reflect.ValueOf(owner)
	if !rv.IsValid() {
		return nil
	}
	m := rv.MethodByName(name)
	if !m.IsValid() {
		return nil
	}
	return m.Interface()
}

// ownerKey derives the identity a handler object is tracked under.
func ownerKey(owner any) (any, error) {
	rv := reflect.ValueOf(owner)
	if !rv.IsValid() {
		return nil, fmt.Errorf("nil handler object: %w", event.ErrUnsupportedHandler)
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Chan, reflect.Map, reflect.Slice, reflect.UnsafePointer:
		if rv.IsNil() {
			return nil, fmt.Errorf("nil handler object: %w", event.ErrUnsupportedHandler)
		}
		return rv.Pointer(), nil
	default:
		if !rv.Comparable() {
			return nil, fmt.Errorf("handler object %T is not comparable: %w", owner, event.ErrUnsupportedHandler)
		}
		return owner, nil
	}
}
