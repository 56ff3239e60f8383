// Package fsmkit provides a small, declarative finite-state-machine runtime
// for Go applications: statechart-style definitions with guarded
// transitions, ordered context reduction, entry/exit hooks, and an
// immutable snapshot API.
//
// The package separates the static description of a machine from its
// execution:
//  1. A Definition declares states, transitions, guards, context updates,
//     and entry/exit actions; it is validated once at Build time and is
//     immutable afterwards.
//  2. A Machine runs a Definition: it owns the current Snapshot and
//     advances it one atomic dispatch at a time via Send.
//  3. A Snapshot is a frozen (state, context) pair with derived queries
//     Matches and Can; it is replaced on every transition, never mutated.
//
// # Architecture
//
// Transition lookup is a map of states to per-event candidate lists,
// checked in declaration order with the first passing guard winning, so
// several guarded transitions may compete for the same event. Context is an
// opaque map the engine never inspects; transitions change it by folding an
// ordered list of pure update functions, each contributing a partial that
// is shallow-merged over the accumulated context. Entry and exit actions
// are side-effect-only hooks and cannot change context.
//
// A dispatch runs resolve, exit actions, context reduction, entry actions,
// snapshot swap, and listener notification in that fixed order. If any
// update or action panics the dispatch rolls back: the machine keeps its
// pre-dispatch snapshot and Send surfaces an *ErrActionFailed. An event
// that resolves to no transition is a legitimate no-op, not an error.
//
// # Usage
//
//	import "github.com/dmitrymomot/fsmkit"
//
//	def, err := fsmkit.NewDefinition("idle").
//		InitialContext(fsmkit.Context{"count": 0}).
//		State("idle").
//		State("running").
//		Transition("idle", "START", "running", fsmkit.WithUpdates(
//			func(ctx fsmkit.Context, evt fsmkit.Event) fsmkit.Context {
//				return fsmkit.Context{"count": ctx["count"].(int) + 1}
//			},
//		)).
//		Transition("running", "STOP", "idle").
//		Build()
//	if err != nil {
//		// malformed definition, fails before any dispatch
//	}
//
//	machine := fsmkit.MustNew(def)
//	snap, _ := machine.Send(fsmkit.Event{Type: "START"})
//	snap.Matches("running") // true
//	snap.Can("STOP")        // true
//
// # Guards and Hooks
//
// A guard gates a single transition and must be a pure predicate; it is
// evaluated both during dispatch and during Snapshot.Can dry runs:
//
//	hasToken := func(ctx fsmkit.Context, evt fsmkit.Event) bool {
//		_, ok := ctx["token"]
//		return ok
//	}
//
// Entry and exit actions perform side effects such as starting network
// calls. They run synchronously inside the dispatch and must not call Send
// on the same machine; asynchronous work reports back by calling Send later
// with a result event once it settles.
//
// # Error Handling
//
// Construction problems surface as *ErrInvalidDefinition from Build, never
// mid-dispatch. Runtime failures surface from Send and can be inspected
// with helper predicates:
//
//	if fsmkit.IsActionFailedError(err)      { /* dispatch rolled back */ }
//	if fsmkit.IsReentrantDispatchError(err) { /* nested Send rejected */ }
//
// # Concurrency
//
// The execution model is single-threaded and cooperative, matching an
// event-loop host: Send is synchronous, at most one dispatch is in flight,
// and a Send issued while one is running is rejected rather than queued.
// Snapshot reads are safe from any goroutine because snapshots are
// replaced, never mutated. For fan-out of snapshots to concurrent
// consumers, see the watch subpackage.
package fsmkit
