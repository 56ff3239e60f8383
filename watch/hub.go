package watch

import (
	"context"
	"sync"

	"github.com/dmitrymomot/fsmkit"
)

// Hub relays committed machine snapshots to any number of watchers. It
// drops updates for slow consumers rather than blocking the dispatch that
// produced them. All methods are safe for concurrent use.
type Hub struct {
	watchers   map[*watcher]struct{}
	bufferSize int
	closed     bool
	mu         sync.RWMutex
	cleanupWg  sync.WaitGroup // tracks context-cancellation cleanup goroutines
}

// Option configures a hub during construction.
type Option func(*Hub)

// WithBuffer sets the per-watcher channel buffer. A watcher whose buffer
// fills up is closed on the next publish. Defaults to 8.
func WithBuffer(size int) Option {
	if size < 1 {
		panic("WithBuffer: size must be >= 1")
	}
	return func(h *Hub) { h.bufferSize = size }
}

// NewHub creates a hub with no watchers attached.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		watchers:   make(map[*watcher]struct{}),
		bufferSize: 8,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Attach subscribes the hub to a machine so every committed snapshot is
// published to the hub's watchers, tagged with the machine's id. The
// returned function detaches the machine; calling it more than once is
// harmless.
func (h *Hub) Attach(machine *fsmkit.Machine) func() {
	if machine == nil {
		panic("Attach: machine cannot be nil")
	}
	id := machine.ID()
	return machine.Subscribe(func(snap fsmkit.Snapshot) {
		h.Publish(Update{MachineID: id, Snapshot: snap})
	})
}

// Watch creates a watcher that receives all subsequently published
// updates. The watcher is cleaned up automatically when ctx is cancelled.
// If the hub is already closed, the returned watcher's channel is closed.
func (h *Hub) Watch(ctx context.Context) Watcher {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		w := newWatcher(h.bufferSize)
		_ = w.Close()
		return w
	}

	w := newWatcher(h.bufferSize)
	h.watchers[w] = struct{}{}

	if ctx.Done() != nil {
		h.cleanupWg.Add(1)
		go func() {
			defer h.cleanupWg.Done()
			select {
			case <-ctx.Done():
				h.remove(w)
			case <-w.done:
				// Already closed by the hub or a slow-consumer drop.
			}
		}()
	}

	return w
}

// Publish delivers an update to all watchers without blocking. A watcher
// whose buffer is full misses the update and is closed, signalling the
// consumer to resynchronize from the machine and watch again.
func (h *Hub) Publish(update Update) {
	// Publishes happen on every dispatch; watcher churn is rare. RLock keeps
	// the hot path shared.
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}

	for w := range h.watchers {
		if !w.send(update) {
			// Removal takes the write lock, so it runs outside this publish.
			go h.remove(w)
		}
	}
}

// Close shuts down the hub and closes every watcher. It is safe to call
// multiple times. After Close, Watch returns closed watchers and Publish
// has no effect.
func (h *Hub) Close() error {
	h.mu.Lock()

	if h.closed {
		h.mu.Unlock()
		return nil
	}

	h.closed = true
	for w := range h.watchers {
		_ = w.Close()
	}
	clear(h.watchers)
	h.mu.Unlock()

	// Wait out pending cleanup goroutines so Close leaves nothing racing.
	h.cleanupWg.Wait()

	return nil
}

func (h *Hub) remove(w *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.watchers, w)
	_ = w.Close()
}
