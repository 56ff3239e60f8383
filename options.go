package fsmkit

import "log/slog"

// Option configures a machine during construction.
type Option func(*Machine)

// WithID sets the machine identifier used in logs and introspection.
// Defaults to a random UUID.
func WithID(id string) Option {
	if id == "" {
		panic("WithID: id cannot be empty")
	}
	return func(m *Machine) { m.id = id }
}

// WithLogger sets the logger for dispatch diagnostics. Transitions and
// unmatched events log at debug level, rolled-back dispatches at error
// level. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	if logger == nil {
		panic("WithLogger: logger cannot be nil")
	}
	return func(m *Machine) { m.logger = logger }
}

// WithNoMatchHandler sets a diagnostic callback invoked when a dispatched
// event matches no transition for the current state. The handler receives
// the unchanged snapshot and the ignored event. It runs while the dispatch
// is still in flight, so it must not call Send synchronously.
func WithNoMatchHandler(handler func(snap Snapshot, evt Event)) Option {
	if handler == nil {
		panic("WithNoMatchHandler: handler cannot be nil")
	}
	return func(m *Machine) { m.noMatch = handler }
}
