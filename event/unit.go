package event

import (
	"context"
)

// Unit is the in-flight representation of one handler invocation during an
// asynchronous fire. It starts pending and resolves exactly once, to a value
// or a captured error. Units are created per fire and never reused.
type Unit struct {
	handler Handler
	done    chan struct{}
	value   any
	err     error
}

func newUnit(h Handler) *Unit {
	return &Unit{handler: h, done: make(chan struct{})}
}

// Handler returns the handler this unit invokes.
func (u *Unit) Handler() Handler { return u.handler }

// Done is closed once the unit reaches a terminal state. It is the handle a
// caller can select on to apply its own timeout or cancellation policy.
func (u *Unit) Done() <-chan struct{} { return u.done }

// Result returns the terminal result. Only valid after Done is closed.
func (u *Unit) Result() Result {
	return Result{Handler: u.handler, Value: u.value, Err: u.err}
}

// Wait suspends until the unit is terminal or ctx expires.
func (u *Unit) Wait(ctx context.Context) (Result, error) {
	select {
	case <-u.done:
		return u.Result(), nil
	case <-ctx.Done():
		return Result{Handler: u.handler}, ctx.Err()
	}
}

// resolve transitions the unit to its terminal state. Called exactly once.
func (u *Unit) resolve(value any, err error) {
	u.value = value
	u.err = err
	close(u.done)
}
