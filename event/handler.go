// Package event implements a priority-ordered callback registry. Handlers are
// registered on an Event and invoked when it fires, either synchronously in
// canonical order or concurrently with a choice of aggregation policies.
package event

import (
	"context"
	"fmt"
	"reflect"
)

// Handler is a registered callable invoked when its owning Event fires.
type Handler interface {
	Handle(ctx context.Context, args ...any) (any, error)
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(ctx context.Context, args ...any) (any, error)

// Handle calls f(ctx, args...).
func (f HandlerFunc) Handle(ctx context.Context, args ...any) (any, error) {
	return f(ctx, args...)
}

// boundHandler ties a handler to an owner object so that every handler
// belonging to the owner can be detached at once.
type boundHandler struct {
	owner   any
	source  any
	handler Handler
}

func (b *boundHandler) Handle(ctx context.Context, args ...any) (any, error) {
	return b.handler.Handle(ctx, args...)
}

// Bind adapts callable into a Handler owned by owner. RemoveAllBoundTo(owner)
// removes every handler registered through Bind with the same owner.
func Bind(owner, callable any) (Handler, error) {
	h, err := Adapt(callable)
	if err != nil {
		return nil, err
	}
	return &boundHandler{owner: owner, source: callable, handler: h}, nil
}

// Adapt normalizes a callable into a Handler. The classification happens once,
// at registration time, not on every fire. Accepted shapes:
//
//	Handler
//	func(context.Context, ...any) (any, error)
//	func(context.Context, ...any) error
//	func(context.Context, ...any)
//	func(...any) (any, error)
//	func(...any) error
//	func(...any) any
//	func(...any)
//
// Anything else fails with ErrUnsupportedHandler.
func Adapt(callable any) (Handler, error) {
	switch fn := callable.(type) {
	case nil:
		return nil, fmt.Errorf("nil callable: %w", ErrUnsupportedHandler)
	case Handler:
		return fn, nil
	case func(context.Context, ...any) (any, error):
		return HandlerFunc(fn), nil
	case func(context.Context, ...any) error:
		return HandlerFunc(func(ctx context.Context, args ...any) (any, error) {
			return nil, fn(ctx, args...)
		}), nil
	case func(context.Context, ...any):
		return HandlerFunc(func(ctx context.Context, args ...any) (any, error) {
			fn(ctx, args...)
			return nil, nil
		}), nil
	case func(...any) (any, error):
		return HandlerFunc(func(_ context.Context, args ...any) (any, error) {
			return fn(args...)
		}), nil
	case func(...any) error:
		return HandlerFunc(func(_ context.Context, args ...any) (any, error) {
			return nil, fn(args...)
		}), nil
	case func(...any) any:
		return HandlerFunc(func(_ context.Context, args ...any) (any, error) {
			return fn(args...), nil
		}), nil
	case func(...any):
		return HandlerFunc(func(_ context.Context, args ...any) (any, error) {
			fn(args...)
			return nil, nil
		}), nil
	default:
		return nil, fmt.Errorf("%T: %w", callable, ErrUnsupportedHandler)
	}
}

// boundKey is the registration identity of a bound handler: the owner's
// identity combined with the wrapped callable's identity.
type boundKey struct {
	owner any
	fn    any
}

// identityOf derives the registration identity of a callable. Functions key by
// code pointer, reference types by pointer value, other comparable values by
// value. Note that closures created from the same function literal share a
// code pointer and therefore an identity; wrap them with Bind (using distinct
// owners) when that matters.
func identityOf(v any) (any, error) {
	if b, ok := v.(*boundHandler); ok {
		ownerKey, err := identityOf(b.owner)
		if err != nil {
			return nil, fmt.Errorf("bound handler owner: %w", err)
		}
		fnKey, err := identityOf(b.source)
		if err != nil {
			return nil, fmt.Errorf("bound handler callable: %w", err)
		}
		return boundKey{owner: ownerKey, fn: fnKey}, nil
	}

	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, fmt.Errorf("nil value: %w", ErrUnsupportedHandler)
	}
	switch rv.Kind() {
	case reflect.Func, reflect.Pointer, reflect.Chan, reflect.Map, reflect.Slice, reflect.UnsafePointer:
		if rv.IsNil() {
			return nil, fmt.Errorf("nil %s: %w", rv.Kind(), ErrUnsupportedHandler)
		}
		return rv.Pointer(), nil
	default:
		if !rv.Comparable() {
			return nil, fmt.Errorf("identity of %T is not comparable: %w", v, ErrUnsupportedHandler)
		}
		return v, nil
	}
}

// invoke runs a single handler to completion, converting a returned error or
// a recovered panic into a failed Result.
func invoke(ctx context.Context, h Handler, args []any) (res Result) {
	res.Handler = h
	defer func() {
		if r := recover(); r != nil {
			res.Value = nil
			res.Err = &InvocationError{Handler: h, Err: fmt.Errorf("%v", r), Panicked: true}
		}
	}()
	v, err := h.Handle(ctx, args...)
	if err != nil {
		res.Err = &InvocationError{Handler: h, Err: err}
		return res
	}
	res.Value = v
	return res
}
