package fsmkit

import (
	"errors"
	"fmt"
)

var (
	// ErrNilDefinition indicates a machine was constructed without a definition.
	ErrNilDefinition = errors.New("definition cannot be nil")
	// ErrBuilderConsumed indicates Build was called twice on the same builder.
	ErrBuilderConsumed = errors.New("definition builder already consumed")
)

// Hook names identify which phase of a dispatch an action belongs to.
// They appear in ErrActionFailed to pinpoint the failing callback.
const (
	HookExit   = "exit"
	HookUpdate = "update"
	HookEntry  = "entry"
)

// ErrInvalidDefinition indicates a machine definition violates a structural
// invariant. It is returned from Build, never mid-dispatch: a definition
// that constructs successfully cannot produce an undeclared state at runtime.
type ErrInvalidDefinition struct {
	State  StateID   // state under which the problem was found, empty for definition-wide problems
	Event  EventType // event key under which the problem was found, if any
	Reason string
}

func (e *ErrInvalidDefinition) Error() string {
	switch {
	case e.State != "" && e.Event != "":
		return fmt.Sprintf("invalid definition: state '%s', event '%s': %s", e.State, e.Event, e.Reason)
	case e.State != "":
		return fmt.Sprintf("invalid definition: state '%s': %s", e.State, e.Reason)
	default:
		return fmt.Sprintf("invalid definition: %s", e.Reason)
	}
}

func NewErrInvalidDefinition(state StateID, event EventType, reason string) *ErrInvalidDefinition {
	return &ErrInvalidDefinition{
		State:  state,
		Event:  event,
		Reason: reason,
	}
}

// ErrActionFailed indicates a context update or an entry/exit action panicked
// during a dispatch. The dispatch is rolled back: the machine keeps its
// pre-dispatch snapshot and no partial context change is observable.
type ErrActionFailed struct {
	Hook  string    // HookExit, HookUpdate, or HookEntry
	State StateID   // state whose callback failed (target state for entry hooks)
	Event EventType // event that triggered the dispatch
	Index int       // position of the failing callback within its hook list
	Err   error     // recovered panic value
}

func (e *ErrActionFailed) Error() string {
	return fmt.Sprintf("%s action %d in state '%s' failed on event '%s': %v", e.Hook, e.Index, e.State, e.Event, e.Err)
}

func (e *ErrActionFailed) Unwrap() error {
	return e.Err
}

func NewErrActionFailed(hook string, state StateID, event EventType, index int, err error) *ErrActionFailed {
	return &ErrActionFailed{
		Hook:  hook,
		State: state,
		Event: event,
		Index: index,
		Err:   err,
	}
}

// ErrReentrantDispatch indicates Send was called while another dispatch on
// the same machine was still in flight, typically from inside an entry or
// exit action. The nested call is rejected; the outer dispatch continues
// unaffected.
type ErrReentrantDispatch struct {
	Event EventType // event whose dispatch was rejected
}

func (e *ErrReentrantDispatch) Error() string {
	return fmt.Sprintf("send of event '%s' rejected: another dispatch is in flight", e.Event)
}

func NewErrReentrantDispatch(event EventType) *ErrReentrantDispatch {
	return &ErrReentrantDispatch{Event: event}
}

func IsInvalidDefinitionError(err error) bool {
	var e *ErrInvalidDefinition
	return errors.As(err, &e)
}

func IsActionFailedError(err error) bool {
	var e *ErrActionFailed
	return errors.As(err, &e)
}

func IsReentrantDispatchError(err error) bool {
	var e *ErrReentrantDispatch
	return errors.As(err, &e)
}
