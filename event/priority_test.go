package event

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// label builds closures sharing one code pointer, so tests using it allow
// duplicates.
func label(s string) func(context.Context, ...any) (any, error) {
	return func(_ context.Context, _ ...any) (any, error) {
		return s, nil
	}
}

func TestFireAscendingPriorityThenInsertionOrder(t *testing.T) {
	e := NewPriorityEvent(WithAllowDuplicates(true))
	require.NoError(t, e.AddWithPriority(label("late"), 500))
	require.NoError(t, e.AddWithPriority(label("first"), 0))
	require.NoError(t, e.AddWithPriority(label("mid-1"), 10))
	require.NoError(t, e.AddWithPriority(label("mid-2"), 10))

	results := e.Fire(context.Background())
	assert.Equal(t, []any{"first", "mid-1", "mid-2", "late"}, valuesOf(results))
}

func TestAddUsesDefaultPriority(t *testing.T) {
	e := NewPriorityEvent(WithDefaultPriority(5), WithAllowDuplicates(true))
	require.NoError(t, e.Add(label("default")))
	require.NoError(t, e.AddWithPriority(label("before"), 1))
	require.NoError(t, e.AddWithPriority(label("after"), 9))

	results := e.Fire(context.Background())
	assert.Equal(t, []any{"before", "default", "after"}, valuesOf(results))
}

func TestFireByPriorityGroups(t *testing.T) {
	e := NewPriorityEvent(WithAllowDuplicates(true))
	require.NoError(t, e.AddWithPriority(label("a"), 1))
	require.NoError(t, e.AddWithPriority(label("b"), 1))
	require.NoError(t, e.AddWithPriority(label("c"), 2))

	groups := e.FireByPriority(context.Background())
	require.Len(t, groups, 2)
	assert.Equal(t, 1, groups[0].Priority)
	assert.Equal(t, []any{"a", "b"}, valuesOf(groups[0].Results))
	assert.Equal(t, 2, groups[1].Priority)
	assert.Equal(t, []any{"c"}, valuesOf(groups[1].Results))
}

func TestFireByPriorityFlattensToFireOrder(t *testing.T) {
	build := func() *PriorityEvent {
		e := NewPriorityEvent(WithAllowDuplicates(true))
		require.NoError(t, e.AddWithPriority(label("z"), 30))
		require.NoError(t, e.AddWithPriority(label("a"), 10))
		require.NoError(t, e.AddWithPriority(label("m"), 20))
		require.NoError(t, e.AddWithPriority(label("a2"), 10))
		return e
	}

	flat := valuesOf(build().Fire(context.Background()))

	var grouped []any
	for _, g := range build().FireByPriority(context.Background()) {
		grouped = append(grouped, valuesOf(g.Results)...)
	}
	assert.Equal(t, flat, grouped)
}

func TestFireByPriorityLazily(t *testing.T) {
	invoked := 0
	counting := func(s string) func(context.Context, ...any) (any, error) {
		return func(_ context.Context, _ ...any) (any, error) {
			invoked++
			return s, nil
		}
	}

	e := NewPriorityEvent(WithAllowDuplicates(true))
	require.NoError(t, e.AddWithPriority(counting("a"), 1))
	require.NoError(t, e.AddWithPriority(counting("b"), 2))
	require.NoError(t, e.AddWithPriority(counting("c"), 3))

	var priorities []int
	for p, results := range e.FireByPriorityLazily(context.Background()) {
		priorities = append(priorities, p)
		if p == 1 {
			for r := range results {
				assert.Equal(t, "a", r.Value)
			}
		}
		if p == 2 {
			break
		}
	}

	assert.Equal(t, []int{1, 2}, priorities)
	// Bucket 2's handlers were never consumed and bucket 3 never reached.
	assert.Equal(t, 1, invoked)
}

func TestReaddHandlerAtDifferentPriority(t *testing.T) {
	e := NewPriorityEvent()
	require.NoError(t, e.AddWithPriority(namedHandler, 10))
	require.NoError(t, e.AddWithPriority(otherHandler, 5))

	assert.ErrorIs(t, e.AddWithPriority(namedHandler, 1), ErrDuplicateHandler)

	require.NoError(t, e.Remove(namedHandler))
	require.NoError(t, e.AddWithPriority(namedHandler, 1))

	results := e.Fire(context.Background())
	require.Len(t, results, 2)
}
