package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdaptShapes(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name      string
		callable  any
		wantValue any
		wantErr   error
	}{
		{
			name: "full signature",
			callable: func(_ context.Context, args ...any) (any, error) {
				return args[0], nil
			},
			wantValue: "x",
		},
		{
			name: "ctx and error only",
			callable: func(_ context.Context, _ ...any) error {
				return errBoom
			},
			wantErr: errBoom,
		},
		{
			name:     "ctx no returns",
			callable: func(_ context.Context, _ ...any) {},
		},
		{
			name: "plain with value and error",
			callable: func(args ...any) (any, error) {
				return args[0], nil
			},
			wantValue: "x",
		},
		{
			name: "plain error only",
			callable: func(_ ...any) error {
				return errBoom
			},
			wantErr: errBoom,
		},
		{
			name: "plain value only",
			callable: func(args ...any) any {
				return args[0]
			},
			wantValue: "x",
		},
		{
			name:     "plain no returns",
			callable: func(_ ...any) {},
		},
		{
			name: "handler implementation",
			callable: HandlerFunc(func(_ context.Context, args ...any) (any, error) {
				return args[0], nil
			}),
			wantValue: "x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := Adapt(tt.callable)
			require.NoError(t, err)

			v, err := h.Handle(context.Background(), "x")
			assert.Equal(t, tt.wantValue, v)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAdaptRejectsUnsupported(t *testing.T) {
	for _, callable := range []any{
		nil,
		42,
		"handler",
		func(s string) {},
		func() int { return 0 },
	} {
		_, err := Adapt(callable)
		assert.ErrorIs(t, err, ErrUnsupportedHandler)
	}
}

func namedHandler(_ context.Context, _ ...any) (any, error) { return nil, nil }
func otherHandler(_ context.Context, _ ...any) (any, error) { return nil, nil }

func TestIdentityOfFunctions(t *testing.T) {
	k1, err := identityOf(namedHandler)
	require.NoError(t, err)
	k2, err := identityOf(namedHandler)
	require.NoError(t, err)
	k3, err := identityOf(otherHandler)
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
}

func TestIdentityOfBoundHandlers(t *testing.T) {
	ownerA := &struct{ name string }{name: "a"}
	ownerB := &struct{ name string }{name: "b"}

	ha, err := Bind(ownerA, namedHandler)
	require.NoError(t, err)
	hb, err := Bind(ownerB, namedHandler)
	require.NoError(t, err)
	ha2, err := Bind(ownerA, namedHandler)
	require.NoError(t, err)

	ka, err := identityOf(ha)
	require.NoError(t, err)
	kb, err := identityOf(hb)
	require.NoError(t, err)
	ka2, err := identityOf(ha2)
	require.NoError(t, err)

	// Same owner and callable collapse to one identity; a different owner
	// keeps its own.
	assert.Equal(t, ka, ka2)
	assert.NotEqual(t, ka, kb)
}

func TestInvokeCapturesPanic(t *testing.T) {
	h := HandlerFunc(func(_ context.Context, _ ...any) (any, error) {
		panic("kaboom")
	})

	r := invoke(context.Background(), h, nil)
	require.True(t, r.Failed())

	var invErr *InvocationError
	require.ErrorAs(t, r.Err, &invErr)
	assert.True(t, invErr.Panicked)
	assert.Contains(t, invErr.Error(), "kaboom")
}

func TestInvokeWrapsHandlerError(t *testing.T) {
	errBoom := errors.New("boom")
	h := HandlerFunc(func(_ context.Context, _ ...any) (any, error) {
		return nil, errBoom
	})

	r := invoke(context.Background(), h, nil)
	require.True(t, r.Failed())

	var invErr *InvocationError
	require.ErrorAs(t, r.Err, &invErr)
	assert.False(t, invErr.Panicked)
	assert.ErrorIs(t, r.Err, errBoom)
}
