// Package async bridges asynchronous side effects back into synchronous
// state machines.
//
// Entry and exit actions must return immediately, so blocking work is started
// in its own goroutine. Async wraps that pattern in a generic Future the
// caller can Await, poll with IsComplete, or bound with AwaitWithTimeout.
// Settle closes the loop: it waits for a Future, turns its outcome into an
// event, and sends that event to the machine, discarding results that arrive
// after the machine has left the state that started the work.
//
// # Usage
//
//	func startLoad(machine *fsmkit.Machine, req Request) {
//	    future := async.Async(context.Background(), req, fetchData)
//
//	    go async.Settle(machine, "loading", future, func(res Response, err error) fsmkit.Event {
//	        if err != nil {
//	            return fsmkit.Event{Type: "REJECT", Payload: err}
//	        }
//	        return fsmkit.Event{Type: "RESOLVE", Payload: res}
//	    })
//	}
//
// # Stale Results
//
// A machine can leave the originating state while the work is still running,
// for example when the caller cancels or starts over. Settle drops such
// results instead of dispatching them, so a response from an abandoned
// request never overwrites newer state. The occupancy check and the send are
// two steps; machines that restart work within the same state should carry a
// request marker in their context and reject mismatched payloads with a
// guard.
//
// A result that completes while the dispatch that started the work is still
// running collides with it; Settle waits the dispatch out and looks again,
// so a snapshot the dispatch has not yet committed never counts as the
// machine having moved on. Settle therefore blocks and belongs in its own
// goroutine, never inside an action.
//
// # Error Handling
//
// Await returns the error produced by the computation, or the context error
// when the context was already cancelled at start. AwaitWithTimeout returns
// ErrTimeout when the deadline passes first. Settle passes delivery errors
// from Send through unchanged.
package async
