package async

import (
	"time"

	"github.com/dmitrymomot/fsmkit"
)

// settleRetryInterval is how long Settle waits before redelivering an event
// that collided with an in-flight dispatch.
const settleRetryInterval = time.Millisecond

// Outcome maps a settled future to the event delivered back to the machine.
// It receives the future's result and error exactly as Await would return
// them, and is called once per settled future.
type Outcome[U any] func(result U, err error) fsmkit.Event

// Settle waits for the future to complete, builds an event from its outcome,
// and sends that event to the machine only while the machine still occupies
// origin. A result that arrives after the machine has moved on is dropped.
//
// A machine accepts one dispatch at a time, and a result often completes
// while the dispatch that started the work is still running its hooks.
// Settle absorbs that: when delivery collides with an in-flight dispatch it
// waits for the machine to drain and tries again. The occupancy check
// tolerates the same window: a dispatch commits its snapshot only after its
// hooks finish, so a miss on origin is final only when no dispatch is
// running. For both reasons Settle blocks and must not be called from inside
// an action; run it in its own goroutine.
//
// The returned snapshot reflects the machine after delivery, or its current
// state when the result was dropped. The boolean reports whether the event
// was sent; the error is the delivery error from Send, if any.
func Settle[U any](machine *fsmkit.Machine, origin fsmkit.StateID, future *Future[U], outcome Outcome[U]) (fsmkit.Snapshot, bool, error) {
	if machine == nil {
		panic("async: machine cannot be nil")
	}
	if future == nil {
		panic("async: future cannot be nil")
	}
	if outcome == nil {
		panic("async: outcome cannot be nil")
	}

	result, err := future.Await()
	evt := outcome(result, err)

	for {
		snap := machine.Snapshot()
		if snap.Matches(origin) {
			next, sendErr := machine.Send(evt)
			if fsmkit.IsReentrantDispatchError(sendErr) {
				time.Sleep(settleRetryInterval)
				continue
			}
			return next, true, sendErr
		}

		if machine.Dispatching() {
			time.Sleep(settleRetryInterval)
			continue
		}
		// The dispatch that missed above has since drained; only a miss
		// confirmed against a settled snapshot means the machine moved on.
		if snap = machine.Snapshot(); !snap.Matches(origin) {
			return snap, false, nil
		}
	}
}
