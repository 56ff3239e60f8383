// Package auth provides a ready-made login lifecycle machine: credential
// verification against a bcrypt-hashed store, failed-attempt counting, and
// a lockout once the attempt limit is reached.
//
// The machine has three states. From StateSignedOut a SUBMIT event carrying
// Credentials either signs the user in, locks the account when the limit is
// hit, or stays signed out with the attempt counter bumped. Candidates are
// tried in that order, so a correct password on the final attempt still wins
// over the lockout. StateLockedOut ignores further submissions until an
// UNLOCK event resets the counter.
//
//	machine := auth.MustNew(store)
//
//	snap, _ := machine.Send(fsmkit.Event{
//	    Type:    auth.EventSubmit,
//	    Payload: auth.Credentials{Email: "joe@example.com", Password: "secret"},
//	})
//	if snap.Matches(auth.StateSignedIn) {
//	    user := snap.Context[auth.KeyUser].(string)
//	    ...
//	}
//
// Verification runs inside a guard, so Store implementations must be
// deterministic lookups with no I/O; MemoryStore satisfies this and is the
// intended backing for the flow. A SUBMIT whose payload is not Credentials,
// or whose credentials do not verify, counts as a failed attempt.
package auth
