package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// delayed builds a handler resolving to its label after the given delay.
// Closures from this literal share identity, so async tests allow duplicates.
func delayed(s string, d time.Duration) func(context.Context, ...any) (any, error) {
	return func(ctx context.Context, _ ...any) (any, error) {
		select {
		case <-time.After(d):
			return s, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func newTestAsyncEvent(opts ...Option) *AsyncEvent {
	return NewAsyncEvent(append([]Option{WithAllowDuplicates(true)}, opts...)...)
}

func TestAsyncFireDoesNotBlockOnSlowHandlers(t *testing.T) {
	e := newTestAsyncEvent()
	require.NoError(t, e.Add(delayed("slow", 300*time.Millisecond)))

	start := time.Now()
	f := e.Fire(context.Background())
	assert.Less(t, time.Since(start), 100*time.Millisecond,
		"Fire must schedule, not run to completion")

	require.NoError(t, f.Wait(context.Background()))
}

func TestWaitForAllToleratesFailures(t *testing.T) {
	errBoom := errors.New("boom")
	e := newTestAsyncEvent()
	require.NoError(t, e.Add(delayed("ok", 10*time.Millisecond)))
	require.NoError(t, e.Add(func(_ context.Context, _ ...any) (any, error) {
		return nil, errBoom
	}))

	f := e.Fire(context.Background())
	require.NoError(t, f.Wait(context.Background()), "Wait never raises on handler failure")

	units := f.Units()
	require.Len(t, units, 2)
	assert.Equal(t, "ok", units[0].Result().Value)
	assert.ErrorIs(t, units[1].Result().Err, errBoom)
}

func TestGatherSubmissionOrder(t *testing.T) {
	e := newTestAsyncEvent()
	require.NoError(t, e.Add(delayed("a", 50*time.Millisecond)))
	require.NoError(t, e.Add(delayed("b", 10*time.Millisecond)))
	require.NoError(t, e.Add(delayed("c", 30*time.Millisecond)))

	results, err := e.Fire(context.Background()).Gather(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b", "c"}, valuesOf(results),
		"gather returns submission order, not completion order")
}

func TestGatherCollectAllKeepsFailures(t *testing.T) {
	errBoom := errors.New("boom")
	e := newTestAsyncEvent()
	require.NoError(t, e.Add(delayed("ok", 5*time.Millisecond)))
	require.NoError(t, e.Add(func(_ context.Context, _ ...any) (any, error) {
		return nil, errBoom
	}))

	results, err := e.Fire(context.Background()).Gather(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "ok", results[0].Value)
	assert.ErrorIs(t, results[1].Err, errBoom)
}

func TestGatherFailFast(t *testing.T) {
	errBoom := errors.New("boom")
	e := newTestAsyncEvent(WithFailFast(true))
	require.NoError(t, e.Add(delayed("ok", 5*time.Millisecond)))
	require.NoError(t, e.Add(func(_ context.Context, _ ...any) (any, error) {
		return nil, errBoom
	}))
	require.NoError(t, e.Add(delayed("ok-2", 5*time.Millisecond)))

	_, err := e.Fire(context.Background()).Gather(context.Background())

	var aggErr *AggregationError
	require.ErrorAs(t, err, &aggErr)
	assert.ErrorIs(t, aggErr.First.Err, errBoom)
	require.Len(t, aggErr.Partial, 1, "results before the failure are preserved")
	assert.Equal(t, "ok", aggErr.Partial[0].Value)
}

func TestAsCompletedYieldsCompletionOrder(t *testing.T) {
	e := newTestAsyncEvent()
	require.NoError(t, e.Add(delayed("slowest", 100*time.Millisecond)))
	require.NoError(t, e.Add(delayed("fastest", 10*time.Millisecond)))
	require.NoError(t, e.Add(delayed("middle", 50*time.Millisecond)))

	var order []any
	for r := range e.Fire(context.Background()).AsCompleted(context.Background()) {
		require.NoError(t, r.Err)
		order = append(order, r.Value)
	}
	assert.Equal(t, []any{"fastest", "middle", "slowest"}, order)
}

func TestAsCompletedIsSinglePass(t *testing.T) {
	e := newTestAsyncEvent()
	require.NoError(t, e.Add(delayed("a", time.Millisecond)))

	f := e.Fire(context.Background())
	n := 0
	seq := f.AsCompleted(context.Background())
	for range seq {
		n++
	}
	for range seq {
		n++
	}
	assert.Equal(t, 1, n)
}

func TestResultsSubmissionOrderAndRestartable(t *testing.T) {
	e := newTestAsyncEvent()
	require.NoError(t, e.Add(delayed("a", 30*time.Millisecond)))
	require.NoError(t, e.Add(delayed("b", 5*time.Millisecond)))

	f := e.Fire(context.Background())

	var pass1, pass2 []any
	for r := range f.Results(context.Background()) {
		pass1 = append(pass1, r.Value)
	}
	for r := range f.Results(context.Background()) {
		pass2 = append(pass2, r.Value)
	}
	assert.Equal(t, []any{"a", "b"}, pass1)
	assert.Equal(t, pass1, pass2, "re-iterating re-reads outcomes, never re-invokes")
}

func TestPlainHandlerParticipatesInAllPolicies(t *testing.T) {
	e := newTestAsyncEvent()
	require.NoError(t, e.Add(func(_ ...any) any { return "plain" }))
	require.NoError(t, e.Add(delayed("ctx-aware", 10*time.Millisecond)))

	f := e.Fire(context.Background())
	results, err := f.Gather(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []any{"plain", "ctx-aware"}, valuesOf(results))
}

func TestConcurrentFiresAreIndependent(t *testing.T) {
	e := newTestAsyncEvent()
	require.NoError(t, e.Add(func(_ context.Context, args ...any) (any, error) {
		return args[0], nil
	}))

	f1 := e.Fire(context.Background(), 1)
	f2 := e.Fire(context.Background(), 2)

	r1, err := f1.Gather(context.Background())
	require.NoError(t, err)
	r2, err := f2.Gather(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []any{1}, valuesOf(r1))
	assert.Equal(t, []any{2}, valuesOf(r2))
	assert.NotEqual(t, f1.ID(), f2.ID())
}

func TestFiringCancellation(t *testing.T) {
	e := newTestAsyncEvent()
	require.NoError(t, e.Add(delayed("never", time.Minute)))

	ctx, cancel := context.WithCancel(context.Background())
	f := e.Fire(ctx)
	cancel()

	require.NoError(t, f.Wait(context.Background()))
	r := f.Units()[0].Result()
	require.True(t, r.Failed())
	assert.ErrorIs(t, r.Err, context.Canceled)
}

func TestAsyncPanicIsCaptured(t *testing.T) {
	e := newTestAsyncEvent()
	require.NoError(t, e.Add(func(_ context.Context, _ ...any) (any, error) {
		panic("kaboom")
	}))

	results, err := e.Fire(context.Background()).Gather(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)

	var invErr *InvocationError
	require.ErrorAs(t, results[0].Err, &invErr)
	assert.True(t, invErr.Panicked)
}

func TestAsyncPriorityCanonicalSubmissionOrder(t *testing.T) {
	e := NewAsyncPriorityEvent(WithAllowDuplicates(true))
	require.NoError(t, e.AddWithPriority(delayed("late", 5*time.Millisecond), 20))
	require.NoError(t, e.AddWithPriority(delayed("early", 5*time.Millisecond), 1))

	results, err := e.Fire(context.Background()).Gather(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []any{"early", "late"}, valuesOf(results))
}

func TestAsyncFireByPriorityGroups(t *testing.T) {
	e := NewAsyncPriorityEvent(WithAllowDuplicates(true))
	require.NoError(t, e.AddWithPriority(delayed("a", 5*time.Millisecond), 1))
	require.NoError(t, e.AddWithPriority(delayed("b", 5*time.Millisecond), 1))
	require.NoError(t, e.AddWithPriority(delayed("c", 5*time.Millisecond), 2))

	groups := e.FireByPriority(context.Background())
	require.Len(t, groups, 2)

	for _, g := range groups {
		require.NoError(t, g.Firing.Wait(context.Background()))
	}

	r1, err := groups[0].Firing.Gather(context.Background())
	require.NoError(t, err)
	r2, err := groups[1].Firing.Gather(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, groups[0].Priority)
	assert.Equal(t, []any{"a", "b"}, valuesOf(r1))
	assert.Equal(t, 2, groups[1].Priority)
	assert.Equal(t, []any{"c"}, valuesOf(r2))
}

func TestDrain(t *testing.T) {
	e := newTestAsyncEvent()
	require.NoError(t, e.Add(delayed("a", 20*time.Millisecond)))

	e.Fire(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, e.Drain(ctx))
}

func TestAggregationErrorMessage(t *testing.T) {
	err := &AggregationError{
		First:   Result{Err: errors.New("boom")},
		Partial: []Result{{Value: "ok"}},
	}
	assert.Equal(t, "gather aborted after 1 results: boom", err.Error())
	assert.EqualError(t, errors.Unwrap(err), "boom")
}

func TestUnitWaitHonorsContext(t *testing.T) {
	e := newTestAsyncEvent()
	require.NoError(t, e.Add(delayed("slow", time.Minute)))

	f := e.Fire(context.Background())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Units()[0].Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
