package fsmkit

import "maps"

// StateID identifies a declared state within a machine definition.
type StateID string

// EventType is the string discriminator of an event.
type EventType string

// Event is a typed signal dispatched to a machine. Payload carries optional
// caller-defined data that guards, context updates, and actions may inspect.
type Event struct {
	Type    EventType
	Payload any
}

// Context is the caller-defined key-value data a machine carries between
// transitions. The engine never inspects its shape; it only shallow-merges
// partial updates produced by ContextUpdate functions. Contexts handed out
// in snapshots are frozen views: callers must treat them as read-only.
type Context map[string]any

// Clone returns a shallow copy of the context. Cloning a nil context
// returns nil.
func (c Context) Clone() Context {
	return maps.Clone(c)
}

// ContextUpdate computes a partial context from the accumulated context and
// the triggering event. The returned map is shallow-merged over the
// accumulated context; keys it does not mention are preserved. Updates must
// be pure: no I/O and no in-place mutation of the context argument. A nil
// return is treated as an empty partial.
type ContextUpdate func(ctx Context, evt Event) Context

// Guard gates a transition. It must be a pure predicate over the current
// context and the incoming event; the engine evaluates guards both during
// dispatch and during dry-run queries such as Snapshot.Can, so side effects
// in guards produce double-execution bugs. Purity is an API requirement,
// not an enforced invariant.
type Guard func(ctx Context, evt Event) bool

// ActionFunc is a side-effecting entry or exit hook. It receives the context
// and the triggering event and returns nothing; all context changes belong
// in ContextUpdate functions on transitions. An action that panics aborts
// the dispatch and surfaces an *ErrActionFailed to the Send caller.
//
// Actions must not call Send on the same machine synchronously; nested
// dispatch is rejected with *ErrReentrantDispatch. Asynchronous work started
// by an action reports back by calling Send later with a result event.
type ActionFunc func(ctx Context, evt Event)

// Listener observes committed snapshots. It is invoked synchronously at the
// end of every successful transition, after the snapshot has been swapped.
type Listener func(snap Snapshot)
