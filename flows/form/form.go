package form

import (
	"fmt"
	"maps"

	"github.com/dmitrymomot/fsmkit"
)

const (
	StatePristine   = fsmkit.StateID("pristine")
	StateEditing    = fsmkit.StateID("editing")
	StateSubmitting = fsmkit.StateID("submitting")
	StateSubmitted  = fsmkit.StateID("submitted")
)

const (
	EventChange  = fsmkit.EventType("CHANGE")
	EventSubmit  = fsmkit.EventType("SUBMIT")
	EventResolve = fsmkit.EventType("RESOLVE")
	EventReject  = fsmkit.EventType("REJECT")
	EventReset   = fsmkit.EventType("RESET")
)

// Context keys maintained by the flow.
const (
	KeyValues  = "values"  // map[string]any field values
	KeyErrors  = "errors"  // map[string]string per-field validation messages
	KeyDirty   = "dirty"   // bool, true once any CHANGE was applied
	KeyFailure = "failure" // string, message from the last rejected submission
)

// Validator checks field values and returns per-field messages. An empty or
// nil result means the values are valid. Validators must be pure: they run
// both inside the submit guard and when errors are recorded.
type Validator func(values map[string]any) map[string]string

// Option configures the form machine during construction.
type Option func(*config)

type config struct {
	validator     Validator
	initialValues map[string]any
	machineOpts   []fsmkit.Option
}

// WithValidator sets the validator gating submission. Without one every
// submission is accepted.
func WithValidator(v Validator) Option {
	return func(c *config) { c.validator = v }
}

// WithInitialValues sets the field values the form starts with and returns
// to on RESET.
func WithInitialValues(values map[string]any) Option {
	return func(c *config) { c.initialValues = values }
}

// WithMachineOptions passes options through to the underlying machine.
func WithMachineOptions(opts ...fsmkit.Option) Option {
	return func(c *config) { c.machineOpts = append(c.machineOpts, opts...) }
}

// New builds a form machine. The configuration is static, so construction
// cannot fail.
func New(opts ...Option) *fsmkit.Machine {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	valid := valuesValid(cfg.validator)
	record := recordErrors(cfg.validator)
	restore := resetAll(cfg.initialValues)

	def := fsmkit.NewDefinition(StatePristine).
		InitialContext(fsmkit.Context{
			KeyValues:  cloneValues(cfg.initialValues),
			KeyErrors:  map[string]string{},
			KeyDirty:   false,
			KeyFailure: "",
		}).
		State(StatePristine).
		State(StateEditing).
		State(StateSubmitting).
		State(StateSubmitted).
		Transition(StatePristine, EventChange, StateEditing,
			fsmkit.WithUpdates(mergeValues, markDirty),
		).
		Transition(StatePristine, EventSubmit, StateSubmitting,
			fsmkit.WithGuard(valid),
			fsmkit.WithUpdates(clearErrors),
		).
		Transition(StatePristine, EventSubmit, StateEditing,
			fsmkit.WithUpdates(record),
		).
		Transition(StateEditing, EventChange, StateEditing,
			fsmkit.WithUpdates(mergeValues, markDirty),
		).
		Transition(StateEditing, EventSubmit, StateSubmitting,
			fsmkit.WithGuard(valid),
			fsmkit.WithUpdates(clearErrors),
		).
		Transition(StateEditing, EventSubmit, StateEditing,
			fsmkit.WithUpdates(record),
		).
		Transition(StateEditing, EventReset, StatePristine,
			fsmkit.WithUpdates(restore),
		).
		Transition(StateSubmitting, EventResolve, StateSubmitted).
		Transition(StateSubmitting, EventReject, StateEditing,
			fsmkit.WithUpdates(recordFailure),
		).
		Transition(StateSubmitted, EventReset, StatePristine,
			fsmkit.WithUpdates(restore),
		).
		MustBuild()

	return fsmkit.MustNew(def, cfg.machineOpts...)
}

// Values returns the snapshot's current field values.
func Values(snap fsmkit.Snapshot) map[string]any {
	values, _ := snap.Context[KeyValues].(map[string]any)
	return values
}

// FieldErrors returns the per-field messages recorded by the last rejected
// submission.
func FieldErrors(snap fsmkit.Snapshot) map[string]string {
	errs, _ := snap.Context[KeyErrors].(map[string]string)
	return errs
}

// mergeValues overlays the CHANGE payload onto the current values. Non-map
// payloads leave the values unchanged.
func mergeValues(ctx fsmkit.Context, evt fsmkit.Event) fsmkit.Context {
	input, ok := evt.Payload.(map[string]any)
	if !ok || len(input) == 0 {
		return nil
	}

	current, _ := ctx[KeyValues].(map[string]any)
	merged := make(map[string]any, len(current)+len(input))
	maps.Copy(merged, current)
	maps.Copy(merged, input)

	return fsmkit.Context{KeyValues: merged}
}

func markDirty(_ fsmkit.Context, _ fsmkit.Event) fsmkit.Context {
	return fsmkit.Context{KeyDirty: true}
}

func valuesValid(v Validator) fsmkit.Guard {
	return func(ctx fsmkit.Context, _ fsmkit.Event) bool {
		if v == nil {
			return true
		}
		values, _ := ctx[KeyValues].(map[string]any)
		return len(v(values)) == 0
	}
}

func recordErrors(v Validator) fsmkit.ContextUpdate {
	return func(ctx fsmkit.Context, _ fsmkit.Event) fsmkit.Context {
		if v == nil {
			return nil
		}
		values, _ := ctx[KeyValues].(map[string]any)
		return fsmkit.Context{KeyErrors: v(values)}
	}
}

func clearErrors(_ fsmkit.Context, _ fsmkit.Event) fsmkit.Context {
	return fsmkit.Context{KeyErrors: map[string]string{}, KeyFailure: ""}
}

func recordFailure(_ fsmkit.Context, evt fsmkit.Event) fsmkit.Context {
	switch p := evt.Payload.(type) {
	case nil:
		return fsmkit.Context{KeyFailure: "submission failed"}
	case error:
		return fsmkit.Context{KeyFailure: p.Error()}
	case string:
		return fsmkit.Context{KeyFailure: p}
	default:
		return fsmkit.Context{KeyFailure: fmt.Sprint(p)}
	}
}

func resetAll(initial map[string]any) fsmkit.ContextUpdate {
	return func(_ fsmkit.Context, _ fsmkit.Event) fsmkit.Context {
		return fsmkit.Context{
			KeyValues:  cloneValues(initial),
			KeyErrors:  map[string]string{},
			KeyDirty:   false,
			KeyFailure: "",
		}
	}
}

func cloneValues(values map[string]any) map[string]any {
	if values == nil {
		return map[string]any{}
	}
	return maps.Clone(values)
}
