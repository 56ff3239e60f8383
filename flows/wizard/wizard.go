package wizard

import (
	"maps"

	"github.com/dmitrymomot/fsmkit"
)

// Terminal states appended after the configured steps.
const (
	StateCompleted = fsmkit.StateID("completed")
	StateAborted   = fsmkit.StateID("aborted")
)

const (
	EventNext   = fsmkit.EventType("NEXT")
	EventBack   = fsmkit.EventType("BACK")
	EventCancel = fsmkit.EventType("CANCEL")
)

// Context keys maintained by the wizard. They are stripped from incoming
// payloads so submitted answers cannot clobber them.
const (
	KeyRetries      = "retries"       // rejected submissions across the whole run
	KeyRejectedStep = "rejected_step" // step that rejected the last NEXT, "" otherwise
)

// Step describes one wizard screen. A nil Validate accepts every
// submission.
type Step struct {
	ID       fsmkit.StateID
	Validate fsmkit.Guard
}

// Option configures the definition during construction.
type Option func(*config)

type config struct {
	answers map[string]any
}

// WithInitialAnswers seeds the machine context with prefilled answers.
func WithInitialAnswers(answers map[string]any) Option {
	return func(c *config) { c.answers = answers }
}

// NewDefinition builds a wizard definition from the ordered steps. Step ids
// must be unique, non-empty, and distinct from StateCompleted and
// StateAborted; violations surface as definition errors.
func NewDefinition(steps []Step, opts ...Option) (*fsmkit.Definition, error) {
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}

	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	initial := fsmkit.Context{}
	for key, value := range cfg.answers {
		initial[key] = value
	}
	initial[KeyRetries] = 0
	initial[KeyRejectedStep] = ""

	builder := fsmkit.NewDefinition(steps[0].ID).InitialContext(initial)

	for _, step := range steps {
		builder.State(step.ID)
	}
	builder.State(StateCompleted)
	builder.State(StateAborted)

	for i, step := range steps {
		next := StateCompleted
		if i < len(steps)-1 {
			next = steps[i+1].ID
		}

		// A valid submission advances; the rejection fallback keeps the
		// machine on the step. With a nil guard the fallback is unreachable.
		builder.Transition(step.ID, EventNext, next,
			fsmkit.WithGuard(step.Validate),
			fsmkit.WithUpdates(saveAnswers, clearRejection),
		)
		builder.Transition(step.ID, EventNext, step.ID,
			fsmkit.WithUpdates(recordRejection(step.ID)),
		)

		if i > 0 {
			builder.Transition(step.ID, EventBack, steps[i-1].ID)
		}

		builder.Transition(step.ID, EventCancel, StateAborted)
	}

	return builder.Build()
}

// MustNewDefinition is like NewDefinition but panics on error.
func MustNewDefinition(steps []Step, opts ...Option) *fsmkit.Definition {
	def, err := NewDefinition(steps, opts...)
	if err != nil {
		panic("wizard: " + err.Error())
	}
	return def
}

// StepIndex returns the position of id among the steps, or -1 when id is
// not a step.
func StepIndex(steps []Step, id fsmkit.StateID) int {
	for i, step := range steps {
		if step.ID == id {
			return i
		}
	}
	return -1
}

// saveAnswers merges the submitted payload into the context. Non-map
// payloads and reserved keys are ignored.
func saveAnswers(_ fsmkit.Context, evt fsmkit.Event) fsmkit.Context {
	input, ok := evt.Payload.(map[string]any)
	if !ok || len(input) == 0 {
		return nil
	}

	answers := maps.Clone(input)
	delete(answers, KeyRetries)
	delete(answers, KeyRejectedStep)

	return fsmkit.Context(answers)
}

func clearRejection(_ fsmkit.Context, _ fsmkit.Event) fsmkit.Context {
	return fsmkit.Context{KeyRejectedStep: ""}
}

func recordRejection(id fsmkit.StateID) fsmkit.ContextUpdate {
	return func(ctx fsmkit.Context, _ fsmkit.Event) fsmkit.Context {
		retries, _ := ctx[KeyRetries].(int)
		return fsmkit.Context{KeyRetries: retries + 1, KeyRejectedStep: string(id)}
	}
}
