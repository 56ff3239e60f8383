package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/fsmkit"
)

const (
	StateSignedOut = fsmkit.StateID("signed_out")
	StateSignedIn  = fsmkit.StateID("signed_in")
	StateLockedOut = fsmkit.StateID("locked_out")
)

const (
	EventSubmit  = fsmkit.EventType("SUBMIT")
	EventSignOut = fsmkit.EventType("SIGN_OUT")
	EventUnlock  = fsmkit.EventType("UNLOCK")
)

// Context keys maintained by the flow.
const (
	KeyUser     = "user"     // email of the signed-in user, "" otherwise
	KeyAttempts = "attempts" // failed submissions since the last reset
	KeyError    = "error"    // last failure message, "" otherwise
)

const defaultMaxAttempts = 3

// Credentials is the expected payload of an EventSubmit event.
type Credentials struct {
	Email    string
	Password string
}

// Option configures the login machine during construction.
type Option func(*config)

type config struct {
	maxAttempts int
	machineOpts []fsmkit.Option
}

// WithMaxAttempts sets how many failed submissions lock the account.
// Defaults to 3.
func WithMaxAttempts(n int) Option {
	if n < 1 {
		panic("WithMaxAttempts: n must be >= 1")
	}
	return func(c *config) { c.maxAttempts = n }
}

// WithMachineOptions passes options through to the underlying machine.
func WithMachineOptions(opts ...fsmkit.Option) Option {
	return func(c *config) { c.machineOpts = append(c.machineOpts, opts...) }
}

// New builds a login machine backed by the given credential store.
func New(store Store, opts ...Option) (*fsmkit.Machine, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	cfg := &config{maxAttempts: defaultMaxAttempts}
	for _, opt := range opts {
		opt(cfg)
	}

	def, err := fsmkit.NewDefinition(StateSignedOut).
		InitialContext(fsmkit.Context{KeyUser: "", KeyAttempts: 0, KeyError: ""}).
		State(StateSignedOut).
		State(StateSignedIn).
		State(StateLockedOut).
		// Order matters: a verified submission wins even on the last attempt.
		Transition(StateSignedOut, EventSubmit, StateSignedIn,
			fsmkit.WithGuard(credentialsValid(store)),
			fsmkit.WithUpdates(signIn),
		).
		Transition(StateSignedOut, EventSubmit, StateLockedOut,
			fsmkit.WithGuard(lastAttempt(cfg.maxAttempts)),
			fsmkit.WithUpdates(recordFailure),
		).
		Transition(StateSignedOut, EventSubmit, StateSignedOut,
			fsmkit.WithUpdates(recordFailure),
		).
		Transition(StateSignedIn, EventSignOut, StateSignedOut,
			fsmkit.WithUpdates(reset),
		).
		Transition(StateLockedOut, EventUnlock, StateSignedOut,
			fsmkit.WithUpdates(reset),
		).
		Build()
	if err != nil {
		return nil, err
	}

	return fsmkit.New(def, cfg.machineOpts...)
}

// MustNew is like New but panics on error.
func MustNew(store Store, opts ...Option) *fsmkit.Machine {
	machine, err := New(store, opts...)
	if err != nil {
		panic("auth: " + err.Error())
	}
	return machine
}

// credentialsValid verifies the submitted password against the stored hash.
// Any malformed payload or unknown email fails verification.
func credentialsValid(store Store) fsmkit.Guard {
	return func(_ fsmkit.Context, evt fsmkit.Event) bool {
		creds, ok := evt.Payload.(Credentials)
		if !ok {
			return false
		}

		hash, ok := store.PasswordHash(creds.Email)
		if !ok {
			return false
		}

		return bcrypt.CompareHashAndPassword(hash, []byte(creds.Password)) == nil
	}
}

// lastAttempt reports whether this failed submission exhausts the limit.
func lastAttempt(maxAttempts int) fsmkit.Guard {
	return func(ctx fsmkit.Context, _ fsmkit.Event) bool {
		attempts, _ := ctx[KeyAttempts].(int)
		return attempts+1 >= maxAttempts
	}
}

func signIn(_ fsmkit.Context, evt fsmkit.Event) fsmkit.Context {
	creds, _ := evt.Payload.(Credentials)
	return fsmkit.Context{KeyUser: creds.Email, KeyAttempts: 0, KeyError: ""}
}

func recordFailure(ctx fsmkit.Context, _ fsmkit.Event) fsmkit.Context {
	attempts, _ := ctx[KeyAttempts].(int)
	return fsmkit.Context{KeyAttempts: attempts + 1, KeyError: "invalid credentials"}
}

func reset(_ fsmkit.Context, _ fsmkit.Event) fsmkit.Context {
	return fsmkit.Context{KeyUser: "", KeyAttempts: 0, KeyError: ""}
}
