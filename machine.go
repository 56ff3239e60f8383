package fsmkit

import (
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Machine is a running instance of a Definition. It owns the current
// Snapshot and advances it through Send. The execution model is
// single-threaded and synchronous: every Send fully resolves, runs hooks,
// and commits (or rolls back) before returning, and at most one dispatch is
// ever in flight. A Send issued while another dispatch is running, whether
// from an action on the same goroutine or from another goroutine, is
// rejected with *ErrReentrantDispatch rather than queued.
//
// Snapshot reads are safe from any goroutine at any time.
type Machine struct {
	id      string
	def     *Definition
	logger  *slog.Logger
	noMatch func(Snapshot, Event)

	mu          sync.Mutex  // closes the race window between the flag check and the dispatch
	dispatching atomic.Bool // set for the full duration of a dispatch, including listener notification

	snapMu   sync.RWMutex
	snapshot Snapshot

	subsMu  sync.RWMutex
	subs    map[uint64]Listener
	nextSub uint64
}

// New creates a machine from a built definition, positioned at the
// definition's initial state with a copy of its initial context.
func New(def *Definition, opts ...Option) (*Machine, error) {
	if def == nil {
		return nil, ErrNilDefinition
	}
	if len(def.states) == 0 {
		return nil, NewErrInvalidDefinition("", "", "definition has no states")
	}

	m := &Machine{
		def:    def,
		logger: newNoopLogger(),
		subs:   make(map[uint64]Listener),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.id == "" {
		m.id = uuid.NewString()
	}
	m.logger = m.logger.With(slog.String("machine_id", m.id))
	m.snapshot = Snapshot{Value: def.Initial(), Context: def.InitialContext(), def: def}
	return m, nil
}

// MustNew is like New but panics if construction fails.
func MustNew(def *Definition, opts ...Option) *Machine {
	m, err := New(def, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create machine: %v", err))
	}
	return m
}

// ID returns the machine's identifier.
func (m *Machine) ID() string {
	return m.id
}

// Definition returns the immutable definition the machine runs.
func (m *Machine) Definition() *Definition {
	return m.def
}

// Snapshot returns the current snapshot. The returned value is frozen; the
// machine replaces its snapshot on every successful transition instead of
// mutating it, so the result stays consistent however long it is held.
func (m *Machine) Snapshot() Snapshot {
	m.snapMu.RLock()
	defer m.snapMu.RUnlock()
	return m.snapshot
}

// Dispatching reports whether a dispatch is currently in flight. The
// snapshot a running dispatch will commit is not visible until it finishes,
// so callers that act on Snapshot from another goroutine can use this to
// tell a settled snapshot from one about to be replaced.
func (m *Machine) Dispatching() bool {
	return m.dispatching.Load()
}

// Send dispatches one event and returns the resulting snapshot.
//
// The dispatch is atomic: the transition is resolved first (declaration
// order, first passing guard wins), then the source state's exit actions
// run with the pre-update context, then the transition's context updates
// fold into a new context, then the target state's entry actions run with
// the new context, and only then is the snapshot swapped and every
// subscribed listener notified. If any update or action panics the machine
// keeps its pre-dispatch snapshot and Send returns *ErrActionFailed.
//
// An event that matches no transition for the current state is not an
// error: Send returns the unchanged snapshot and a nil error, reporting the
// event to the logger and the no-match handler, if one is configured.
func (m *Machine) Send(evt Event) (Snapshot, error) {
	if m.dispatching.Load() {
		return m.Snapshot(), NewErrReentrantDispatch(evt.Type)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatching.Store(true)
	defer m.dispatching.Store(false)

	snap := m.Snapshot()
	tr, ok := m.def.resolve(snap.Value, snap.Context, evt)
	if !ok {
		m.logger.Debug("no transition matched",
			slog.String("state", string(snap.Value)),
			slog.String("event", string(evt.Type)))
		if m.noMatch != nil {
			m.noMatch(snap, evt)
		}
		return snap, nil
	}

	source, _ := m.def.node(snap.Value)
	target, _ := m.def.node(tr.target)

	if err := runHooks(HookExit, source.exit, snap.Value, snap.Context, evt); err != nil {
		m.logDispatchError(snap.Value, evt, err)
		return snap, err
	}
	next, err := reduceContext(snap.Context, tr.updates, evt, snap.Value)
	if err != nil {
		m.logDispatchError(snap.Value, evt, err)
		return snap, err
	}
	if err := runHooks(HookEntry, target.entry, tr.target, next, evt); err != nil {
		m.logDispatchError(snap.Value, evt, err)
		return snap, err
	}

	committed := Snapshot{Value: tr.target, Context: next, def: m.def}
	m.snapMu.Lock()
	m.snapshot = committed
	m.snapMu.Unlock()

	m.logger.Debug("transition",
		slog.String("from", string(snap.Value)),
		slog.String("to", string(committed.Value)),
		slog.String("event", string(evt.Type)))
	m.notify(committed)
	return committed, nil
}

// Subscribe registers a listener invoked synchronously after every
// successful transition, with the committed snapshot. The returned function
// removes the listener; calling it more than once is harmless. Listeners
// run while the dispatch is still in flight, so a listener must not call
// Send synchronously; hosts that need to react with another event hand it
// off to their own scheduling instead. A panicking listener is logged and
// does not affect the already committed dispatch.
func (m *Machine) Subscribe(listener Listener) func() {
	if listener == nil {
		panic("Subscribe: listener cannot be nil")
	}
	m.subsMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = listener
	m.subsMu.Unlock()

	return func() {
		m.subsMu.Lock()
		delete(m.subs, id)
		m.subsMu.Unlock()
	}
}

func (m *Machine) notify(snap Snapshot) {
	m.subsMu.RLock()
	listeners := make([]Listener, 0, len(m.subs))
	for _, listener := range m.subs {
		listeners = append(listeners, listener)
	}
	m.subsMu.RUnlock()

	for _, listener := range listeners {
		m.safeNotify(listener, snap)
	}
}

func (m *Machine) safeNotify(listener Listener, snap Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("listener panicked", slog.Any("panic", r))
		}
	}()
	listener(snap)
}

func (m *Machine) logDispatchError(state StateID, evt Event, err error) {
	m.logger.Error("dispatch rolled back",
		slog.String("state", string(state)),
		slog.String("event", string(evt.Type)),
		slog.Any("error", err))
}

// runHooks executes one hook list in order, converting a panic in any
// action into an *ErrActionFailed that identifies the failing callback.
func runHooks(hook string, actions []ActionFunc, state StateID, ctx Context, evt Event) error {
	for i, action := range actions {
		if err := safeAction(action, ctx, evt); err != nil {
			return NewErrActionFailed(hook, state, evt.Type, i, err)
		}
	}
	return nil
}

func safeAction(action ActionFunc, ctx Context, evt Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoveredError(r)
		}
	}()
	action(ctx, evt)
	return nil
}

// reduceContext folds the transition's updates left to right: each update
// sees the context accumulated so far and contributes a partial that is
// shallow-merged over it. Every merge allocates a fresh map and the input
// map is never written, so snapshots handed out earlier stay frozen.
func reduceContext(ctx Context, updates []ContextUpdate, evt Event, state StateID) (Context, error) {
	next := ctx
	for i, update := range updates {
		partial, err := safeUpdate(update, next, evt)
		if err != nil {
			return nil, NewErrActionFailed(HookUpdate, state, evt.Type, i, err)
		}
		if len(partial) == 0 {
			continue
		}
		merged := make(Context, len(next)+len(partial))
		maps.Copy(merged, next)
		maps.Copy(merged, partial)
		next = merged
	}
	return next, nil
}

func safeUpdate(update ContextUpdate, ctx Context, evt Event) (partial Context, err error) {
	defer func() {
		if r := recover(); r != nil {
			partial, err = nil, recoveredError(r)
		}
	}()
	return update(ctx, evt), nil
}

func recoveredError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", r)
}
