package watch

import (
	"sync"

	"github.com/dmitrymomot/fsmkit"
)

// Update is one committed snapshot delivered to watchers, tagged with the
// id of the machine that produced it so a single hub can relay several
// machines.
type Update struct {
	MachineID string
	Snapshot  fsmkit.Snapshot
}

// Watcher receives updates from a Hub.
type Watcher interface {
	// Updates returns the channel updates arrive on. The channel is closed
	// when the watcher is closed, the hub shuts down, or the watcher falls
	// too far behind.
	Updates() <-chan Update

	// Close detaches the watcher and closes its channel. Close is
	// idempotent and safe to call multiple times.
	Close() error
}

type watcher struct {
	ch     chan Update
	done   chan struct{} // closed together with ch; releases the hub's cleanup goroutine
	closed bool
	mu     sync.RWMutex
}

func newWatcher(bufferSize int) *watcher {
	return &watcher{
		ch:   make(chan Update, bufferSize),
		done: make(chan struct{}),
	}
}

func (w *watcher) Updates() <-chan Update {
	return w.ch
}

func (w *watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.closed {
		close(w.ch)
		close(w.done)
		w.closed = true
	}
	return nil
}

func (w *watcher) send(update Update) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return false
	}

	select {
	case w.ch <- update:
		return true
	default:
		return false
	}
}
