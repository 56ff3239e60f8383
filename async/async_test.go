package async_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fsmkit/async"
)

func TestAsync(t *testing.T) {
	t.Parallel()

	t.Run("returns the computed result", func(t *testing.T) {
		t.Parallel()

		future := async.Async(context.Background(), 21, func(_ context.Context, n int) (int, error) {
			return n * 2, nil
		})

		result, err := future.Await()
		require.NoError(t, err)
		assert.Equal(t, 42, result)
	})

	t.Run("propagates the computation error", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("load failed")
		future := async.Async(context.Background(), "req", func(_ context.Context, _ string) (string, error) {
			return "", wantErr
		})

		result, err := future.Await()
		require.ErrorIs(t, err, wantErr)
		assert.Empty(t, result)
	})

	t.Run("skips the computation when context is already cancelled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		invoked := false
		future := async.Async(ctx, 0, func(_ context.Context, _ int) (int, error) {
			invoked = true
			return 1, nil
		})

		result, err := future.Await()
		require.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, result)
		assert.False(t, invoked)
	})
}

func TestAwaitWithTimeout(t *testing.T) {
	t.Parallel()

	t.Run("returns the result when it completes in time", func(t *testing.T) {
		t.Parallel()

		future := async.Async(context.Background(), "value", func(_ context.Context, s string) (string, error) {
			return s, nil
		})

		result, err := future.AwaitWithTimeout(time.Second)
		require.NoError(t, err)
		assert.Equal(t, "value", result)
	})

	t.Run("returns ErrTimeout when the deadline passes first", func(t *testing.T) {
		t.Parallel()

		gate := make(chan struct{})
		future := async.Async(context.Background(), 0, func(_ context.Context, _ int) (int, error) {
			<-gate
			return 7, nil
		})

		result, err := future.AwaitWithTimeout(10 * time.Millisecond)
		require.ErrorIs(t, err, async.ErrTimeout)
		assert.Zero(t, result)

		// The computation keeps running and can still be awaited.
		close(gate)
		result, err = future.Await()
		require.NoError(t, err)
		assert.Equal(t, 7, result)
	})
}

func TestIsComplete(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	future := async.Async(context.Background(), 0, func(_ context.Context, _ int) (int, error) {
		<-gate
		return 1, nil
	})

	assert.False(t, future.IsComplete())

	close(gate)
	_, err := future.Await()
	require.NoError(t, err)
	assert.True(t, future.IsComplete())
}
