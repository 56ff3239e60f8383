// Package fetch provides an asynchronous data-loading lifecycle machine:
// idle, loading, success, and failure states with retry counting and
// stale-result protection.
//
// A FETCH event carrying a query string moves the machine to loading, whose
// entry action starts the Loader in its own goroutine and settles the result
// back as a RESOLVE or REJECT event through the async package. Each request
// carries a sequence number; results from superseded requests are dropped,
// so a slow response never overwrites a newer one. From failure, RETRY
// repeats the same query until the retry limit is spent, and FETCH always
// starts over with a fresh counter.
//
//	flow := fetch.MustNew(loader, fetch.WithTimeout(5*time.Second))
//
//	flow.Fetch("user/42")
//	flow.Machine().Subscribe(func(snap fsmkit.Snapshot) {
//	    switch {
//	    case snap.Matches(fetch.StateSuccess):
//	        render(snap.Context[fetch.KeyData])
//	    case snap.Matches(fetch.StateFailure):
//	        showRetry(snap.Can(fetch.EventRetry))
//	    }
//	})
//
// Whether another attempt is available is answered by the machine itself:
// snap.Can(fetch.EventRetry) is false once the limit is spent.
package fetch
