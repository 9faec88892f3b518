package event

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateHandler is returned by Add when the handler is already
	// registered and duplicates are disallowed.
	ErrDuplicateHandler = errors.New("handler already registered")

	// ErrHandlerNotFound is returned by Remove when the handler is not
	// currently registered.
	ErrHandlerNotFound = errors.New("handler not registered")

	// ErrUnsupportedHandler is returned when a callable cannot be adapted
	// into a Handler.
	ErrUnsupportedHandler = errors.New("unsupported handler")
)

// InvocationError wraps an error raised (or a panic recovered) while invoking
// a single handler. It is captured inside the handler's Result and never
// propagated across sibling handlers.
type InvocationError struct {
	Handler  Handler
	Err      error
	Panicked bool
}

func (e *InvocationError) Error() string {
	if e.Panicked {
		return fmt.Sprintf("handler panicked: %v", e.Err)
	}
	return fmt.Sprintf("handler failed: %v", e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// AggregationError is returned by Firing.Gather in fail-fast mode. First holds
// the failed result that aborted the gather; Partial holds the results
// collected before it, in submission order.
type AggregationError struct {
	First   Result
	Partial []Result
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("gather aborted after %d results: %v", len(e.Partial), e.First.Err)
}

func (e *AggregationError) Unwrap() error { return e.First.Err }
