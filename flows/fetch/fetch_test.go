package fetch_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fsmkit"
	"github.com/dmitrymomot/fsmkit/flows/fetch"
)

type MockLoader struct {
	mock.Mock
}

func (m *MockLoader) Load(ctx context.Context, query string) (any, error) {
	args := m.Called(ctx, query)
	return args.Get(0), args.Error(1)
}

// gatedLoader blocks each query on its gate; queries without a gate resolve
// immediately.
type gatedLoader struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
}

func newGatedLoader() *gatedLoader {
	return &gatedLoader{gates: make(map[string]chan struct{})}
}

func (l *gatedLoader) gateFor(query string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	gate := make(chan struct{})
	l.gates[query] = gate
	return gate
}

func (l *gatedLoader) Load(_ context.Context, query string) (any, error) {
	l.mu.Lock()
	gate := l.gates[query]
	l.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return "data:" + query, nil
}

func watchStates(machine *fsmkit.Machine) <-chan fsmkit.Snapshot {
	ch := make(chan fsmkit.Snapshot, 16)
	machine.Subscribe(func(snap fsmkit.Snapshot) { ch <- snap })
	return ch
}

// awaitState drains ch until a snapshot with the wanted state arrives, then
// waits for the dispatch that committed it to drain, so a Send issued right
// after cannot be rejected as reentrant.
func awaitState(t *testing.T, flow *fetch.Flow, ch <-chan fsmkit.Snapshot, want fsmkit.StateID) fsmkit.Snapshot {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-ch:
			if snap.Value != want {
				continue
			}
			for flow.Machine().Dispatching() {
				time.Sleep(time.Millisecond)
			}
			return snap
		case <-deadline:
			t.Fatalf("timed out waiting for state %q", want)
		}
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("starts idle", func(t *testing.T) {
		t.Parallel()

		flow, err := fetch.New(new(MockLoader))
		require.NoError(t, err)

		snap := flow.Snapshot()
		assert.Equal(t, fetch.StateIdle, snap.Value)
		assert.Equal(t, 0, snap.Context[fetch.KeyRetries])
	})

	t.Run("requires a loader", func(t *testing.T) {
		t.Parallel()

		flow, err := fetch.New(nil)
		require.ErrorIs(t, err, fetch.ErrLoaderRequired)
		assert.Nil(t, flow)

		assert.Panics(t, func() { fetch.MustNew(nil) })
	})

	t.Run("invalid options panic", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() { fetch.WithTimeout(-time.Second) })
		assert.Panics(t, func() { fetch.WithMaxRetries(-1) })
	})
}

func TestFetch(t *testing.T) {
	t.Parallel()

	t.Run("loads and resolves", func(t *testing.T) {
		t.Parallel()

		loader := new(MockLoader)
		loader.On("Load", mock.Anything, "user/42").Return("payload", nil).Once()

		flow := fetch.MustNew(loader)
		ch := watchStates(flow.Machine())

		snap, err := flow.Fetch("user/42")
		require.NoError(t, err)
		assert.Equal(t, fetch.StateLoading, snap.Value)
		assert.Equal(t, "user/42", snap.Context[fetch.KeyQuery])

		snap = awaitState(t, flow, ch, fetch.StateSuccess)
		assert.Equal(t, "payload", snap.Context[fetch.KeyData])
		assert.Equal(t, "", snap.Context[fetch.KeyError])

		loader.AssertExpectations(t)
	})

	t.Run("rejection carries the error", func(t *testing.T) {
		t.Parallel()

		loader := new(MockLoader)
		loader.On("Load", mock.Anything, "user/42").Return(nil, errors.New("backend down")).Once()

		flow := fetch.MustNew(loader)
		ch := watchStates(flow.Machine())

		_, err := flow.Fetch("user/42")
		require.NoError(t, err)

		snap := awaitState(t, flow, ch, fetch.StateFailure)
		assert.Equal(t, "backend down", snap.Context[fetch.KeyError])
		assert.Nil(t, snap.Context[fetch.KeyData])
		assert.True(t, snap.Can(fetch.EventRetry))

		loader.AssertExpectations(t)
	})

	t.Run("cancel drops the late result", func(t *testing.T) {
		t.Parallel()

		loader := newGatedLoader()
		gate := loader.gateFor("slow")

		flow := fetch.MustNew(loader)

		_, err := flow.Fetch("slow")
		require.NoError(t, err)

		snap, err := flow.Cancel()
		require.NoError(t, err)
		require.Equal(t, fetch.StateIdle, snap.Value)

		close(gate)
		time.Sleep(100 * time.Millisecond)

		snap = flow.Snapshot()
		assert.Equal(t, fetch.StateIdle, snap.Value)
		assert.Nil(t, snap.Context[fetch.KeyData])
	})

	t.Run("result from a superseded request is ignored", func(t *testing.T) {
		t.Parallel()

		loader := newGatedLoader()
		firstGate := loader.gateFor("first")
		secondGate := loader.gateFor("second")

		stale := make(chan fsmkit.Event, 4)
		flow := fetch.MustNew(loader, fetch.WithMachineOptions(
			fsmkit.WithNoMatchHandler(func(_ fsmkit.Snapshot, evt fsmkit.Event) {
				if evt.Type == fetch.EventResolve {
					stale <- evt
				}
			}),
		))
		ch := watchStates(flow.Machine())

		_, err := flow.Fetch("first")
		require.NoError(t, err)
		_, err = flow.Cancel()
		require.NoError(t, err)
		_, err = flow.Fetch("second")
		require.NoError(t, err)

		// The first request resolves while the machine is loading the
		// second; its request id no longer matches.
		close(firstGate)

		select {
		case <-stale:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for the stale result to be rejected")
		}

		snap := flow.Snapshot()
		assert.Equal(t, fetch.StateLoading, snap.Value)
		assert.Nil(t, snap.Context[fetch.KeyData])

		close(secondGate)
		snap = awaitState(t, flow, ch, fetch.StateSuccess)
		assert.Equal(t, "data:second", snap.Context[fetch.KeyData])
		assert.Equal(t, "second", snap.Context[fetch.KeyQuery])
	})
}

func TestRetry(t *testing.T) {
	t.Parallel()

	t.Run("repeats the query until it succeeds", func(t *testing.T) {
		t.Parallel()

		loader := new(MockLoader)
		loader.On("Load", mock.Anything, "flaky").Return(nil, errors.New("transient")).Once()
		loader.On("Load", mock.Anything, "flaky").Return("recovered", nil).Once()

		flow := fetch.MustNew(loader)
		ch := watchStates(flow.Machine())

		_, err := flow.Fetch("flaky")
		require.NoError(t, err)
		awaitState(t, flow, ch, fetch.StateFailure)

		_, err = flow.Retry()
		require.NoError(t, err)

		snap := awaitState(t, flow, ch, fetch.StateSuccess)
		assert.Equal(t, "recovered", snap.Context[fetch.KeyData])
		assert.Equal(t, 1, snap.Context[fetch.KeyRetries])

		loader.AssertExpectations(t)
	})

	t.Run("stops once the limit is spent", func(t *testing.T) {
		t.Parallel()

		loader := new(MockLoader)
		loader.On("Load", mock.Anything, "down").Return(nil, errors.New("down")).Times(2)

		flow := fetch.MustNew(loader, fetch.WithMaxRetries(1))
		ch := watchStates(flow.Machine())

		_, err := flow.Fetch("down")
		require.NoError(t, err)
		snap := awaitState(t, flow, ch, fetch.StateFailure)
		assert.True(t, snap.Can(fetch.EventRetry))

		_, err = flow.Retry()
		require.NoError(t, err)
		snap = awaitState(t, flow, ch, fetch.StateFailure)
		assert.False(t, snap.Can(fetch.EventRetry))

		// The spent limit turns further retries into no-ops.
		snap, err = flow.Retry()
		require.NoError(t, err)
		assert.Equal(t, fetch.StateFailure, snap.Value)
		assert.Equal(t, 1, snap.Context[fetch.KeyRetries])

		loader.AssertExpectations(t)
	})

	t.Run("a fresh fetch resets the counter", func(t *testing.T) {
		t.Parallel()

		loader := new(MockLoader)
		loader.On("Load", mock.Anything, "q").Return(nil, errors.New("one")).Once()
		loader.On("Load", mock.Anything, "q").Return(nil, errors.New("two")).Once()
		loader.On("Load", mock.Anything, "q").Return("fine", nil).Once()

		flow := fetch.MustNew(loader)
		ch := watchStates(flow.Machine())

		_, err := flow.Fetch("q")
		require.NoError(t, err)
		awaitState(t, flow, ch, fetch.StateFailure)

		_, err = flow.Retry()
		require.NoError(t, err)
		snap := awaitState(t, flow, ch, fetch.StateFailure)
		assert.Equal(t, 1, snap.Context[fetch.KeyRetries])

		_, err = flow.Fetch("q")
		require.NoError(t, err)
		snap = awaitState(t, flow, ch, fetch.StateSuccess)
		assert.Equal(t, 0, snap.Context[fetch.KeyRetries])
		assert.Equal(t, "fine", snap.Context[fetch.KeyData])

		loader.AssertExpectations(t)
	})
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	loader := fetch.LoaderFunc(func(ctx context.Context, _ string) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	flow := fetch.MustNew(loader, fetch.WithTimeout(20*time.Millisecond))
	ch := watchStates(flow.Machine())

	_, err := flow.Fetch("anything")
	require.NoError(t, err)

	snap := awaitState(t, flow, ch, fetch.StateFailure)
	assert.Contains(t, snap.Context[fetch.KeyError], "deadline")
}
