package fetch

import (
	"context"
	"time"

	"github.com/dmitrymomot/fsmkit"
	"github.com/dmitrymomot/fsmkit/async"
)

const (
	StateIdle    = fsmkit.StateID("idle")
	StateLoading = fsmkit.StateID("loading")
	StateSuccess = fsmkit.StateID("success")
	StateFailure = fsmkit.StateID("failure")
)

const (
	EventFetch   = fsmkit.EventType("FETCH")
	EventResolve = fsmkit.EventType("RESOLVE")
	EventReject  = fsmkit.EventType("REJECT")
	EventRetry   = fsmkit.EventType("RETRY")
	EventCancel  = fsmkit.EventType("CANCEL")
)

// Context keys maintained by the flow.
const (
	KeyQuery     = "query"      // string, query of the current request
	KeyData      = "data"       // payload of the last successful load
	KeyError     = "error"      // string, message of the last failed load
	KeyRetries   = "retries"    // int, retry attempts for the current query
	KeyRequestID = "request_id" // int, sequence number of the current request
)

const defaultMaxRetries = 3

// Loader performs the actual data retrieval. Load runs in its own goroutine
// and may block; the context carries the configured timeout.
type Loader interface {
	Load(ctx context.Context, query string) (any, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, query string) (any, error)

func (f LoaderFunc) Load(ctx context.Context, query string) (any, error) {
	return f(ctx, query)
}

// outcome is the payload RESOLVE and REJECT events carry back from the
// loader goroutine. The id ties the result to the request that produced it.
type outcome struct {
	id   int
	data any
	err  error
}

// Option configures the flow during construction.
type Option func(*config)

type config struct {
	timeout     time.Duration
	maxRetries  int
	machineOpts []fsmkit.Option
}

// WithTimeout bounds each load. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	if d < 0 {
		panic("WithTimeout: duration must not be negative")
	}
	return func(c *config) { c.timeout = d }
}

// WithMaxRetries sets how many RETRY attempts a failed query allows.
// Defaults to 3; zero disables retries.
func WithMaxRetries(n int) Option {
	if n < 0 {
		panic("WithMaxRetries: n must not be negative")
	}
	return func(c *config) { c.maxRetries = n }
}

// WithMachineOptions passes options through to the underlying machine.
func WithMachineOptions(opts ...fsmkit.Option) Option {
	return func(c *config) { c.machineOpts = append(c.machineOpts, opts...) }
}

// Flow couples a loading machine with the Loader that feeds it.
type Flow struct {
	machine *fsmkit.Machine
	loader  Loader
	timeout time.Duration
}

// New builds a fetch flow around the given loader.
func New(loader Loader, opts ...Option) (*Flow, error) {
	if loader == nil {
		return nil, ErrLoaderRequired
	}

	cfg := &config{maxRetries: defaultMaxRetries}
	for _, opt := range opts {
		opt(cfg)
	}

	f := &Flow{loader: loader, timeout: cfg.timeout}

	def := fsmkit.NewDefinition(StateIdle).
		InitialContext(fsmkit.Context{
			KeyQuery:     "",
			KeyData:      nil,
			KeyError:     "",
			KeyRetries:   0,
			KeyRequestID: 0,
		}).
		State(StateIdle).
		State(StateLoading, fsmkit.WithEntry(f.startLoad)).
		State(StateSuccess).
		State(StateFailure).
		Transition(StateIdle, EventFetch, StateLoading,
			fsmkit.WithUpdates(startRequest),
		).
		Transition(StateLoading, EventResolve, StateSuccess,
			fsmkit.WithGuard(currentRequest),
			fsmkit.WithUpdates(storeData),
		).
		Transition(StateLoading, EventReject, StateFailure,
			fsmkit.WithGuard(currentRequest),
			fsmkit.WithUpdates(storeError),
		).
		Transition(StateLoading, EventCancel, StateIdle).
		Transition(StateSuccess, EventFetch, StateLoading,
			fsmkit.WithUpdates(startRequest),
		).
		Transition(StateFailure, EventFetch, StateLoading,
			fsmkit.WithUpdates(startRequest),
		).
		Transition(StateFailure, EventRetry, StateLoading,
			fsmkit.WithGuard(retriesLeft(cfg.maxRetries)),
			fsmkit.WithUpdates(countRetry),
		).
		MustBuild()

	machine, err := fsmkit.New(def, cfg.machineOpts...)
	if err != nil {
		return nil, err
	}
	f.machine = machine

	return f, nil
}

// MustNew is like New but panics on error.
func MustNew(loader Loader, opts ...Option) *Flow {
	f, err := New(loader, opts...)
	if err != nil {
		panic("fetch: " + err.Error())
	}
	return f
}

// Machine exposes the underlying machine for subscriptions and queries.
func (f *Flow) Machine() *fsmkit.Machine {
	return f.machine
}

// Snapshot returns the machine's current snapshot.
func (f *Flow) Snapshot() fsmkit.Snapshot {
	return f.machine.Snapshot()
}

// Fetch starts loading the given query, replacing whatever request was
// current before.
func (f *Flow) Fetch(query string) (fsmkit.Snapshot, error) {
	return f.machine.Send(fsmkit.Event{Type: EventFetch, Payload: query})
}

// Retry repeats the failed query if attempts remain; otherwise it is a
// no-op.
func (f *Flow) Retry() (fsmkit.Snapshot, error) {
	return f.machine.Send(fsmkit.Event{Type: EventRetry})
}

// Cancel abandons the in-flight request. Its late result is dropped.
func (f *Flow) Cancel() (fsmkit.Snapshot, error) {
	return f.machine.Send(fsmkit.Event{Type: EventCancel})
}

// startLoad is the loading state's entry action: it launches the loader and
// settles its result back into the machine, tagged with the request id the
// load was started for.
func (f *Flow) startLoad(ctx fsmkit.Context, _ fsmkit.Event) {
	query, _ := ctx[KeyQuery].(string)
	id, _ := ctx[KeyRequestID].(int)

	loadCtx := context.Background()
	cancel := context.CancelFunc(func() {})
	if f.timeout > 0 {
		loadCtx, cancel = context.WithTimeout(loadCtx, f.timeout)
	}

	future := async.Async(loadCtx, query, f.loader.Load)

	go func() {
		defer cancel()
		async.Settle(f.machine, StateLoading, future, func(data any, err error) fsmkit.Event {
			if err != nil {
				return fsmkit.Event{Type: EventReject, Payload: outcome{id: id, err: err}}
			}
			return fsmkit.Event{Type: EventResolve, Payload: outcome{id: id, data: data}}
		})
	}()
}

// startRequest begins a fresh request. A non-string payload repeats the
// current query.
func startRequest(ctx fsmkit.Context, evt fsmkit.Event) fsmkit.Context {
	query, ok := evt.Payload.(string)
	if !ok {
		query, _ = ctx[KeyQuery].(string)
	}
	id, _ := ctx[KeyRequestID].(int)

	return fsmkit.Context{
		KeyQuery:     query,
		KeyData:      nil,
		KeyError:     "",
		KeyRetries:   0,
		KeyRequestID: id + 1,
	}
}

// currentRequest admits only results belonging to the request the machine
// is waiting on. Settle already drops results that arrive after the loading
// state was left; this guard additionally drops results from a previous
// visit to it.
func currentRequest(ctx fsmkit.Context, evt fsmkit.Event) bool {
	o, ok := evt.Payload.(outcome)
	if !ok {
		return false
	}
	id, _ := ctx[KeyRequestID].(int)
	return o.id == id
}

func storeData(_ fsmkit.Context, evt fsmkit.Event) fsmkit.Context {
	o, _ := evt.Payload.(outcome)
	return fsmkit.Context{KeyData: o.data, KeyError: ""}
}

func storeError(_ fsmkit.Context, evt fsmkit.Event) fsmkit.Context {
	o, _ := evt.Payload.(outcome)
	return fsmkit.Context{KeyError: o.err.Error()}
}

func retriesLeft(maxRetries int) fsmkit.Guard {
	return func(ctx fsmkit.Context, _ fsmkit.Event) bool {
		retries, _ := ctx[KeyRetries].(int)
		return retries < maxRetries
	}
}

func countRetry(ctx fsmkit.Context, _ fsmkit.Event) fsmkit.Context {
	retries, _ := ctx[KeyRetries].(int)
	id, _ := ctx[KeyRequestID].(int)

	return fsmkit.Context{
		KeyRetries:   retries + 1,
		KeyRequestID: id + 1,
		KeyError:     "",
	}
}
