package fsmkit

import "slices"

// transition is a single candidate edge out of a state for one event type.
type transition struct {
	target  StateID
	guard   Guard
	updates []ContextUpdate
}

// stateNode holds the per-state configuration: entry/exit hooks and the
// ordered transition candidates keyed by event type. eventOrder preserves
// the declaration order of event keys for deterministic introspection.
type stateNode struct {
	id          StateID
	entry       []ActionFunc
	exit        []ActionFunc
	transitions map[EventType][]transition
	eventOrder  []EventType
}

// Definition is the static, immutable description of a machine: its states,
// transitions, guards, hooks, and initial configuration. A Definition is
// assembled through a DefinitionBuilder, validated once at Build time, and
// never changes afterwards, so any number of machines can share one
// Definition concurrently.
type Definition struct {
	initial        StateID
	initialContext Context
	states         map[StateID]*stateNode
	order          []StateID
}

// Initial returns the state the machine starts in.
func (d *Definition) Initial() StateID {
	return d.initial
}

// InitialContext returns a copy of the context the machine starts with.
// The copy keeps the definition immutable when callers modify the result.
func (d *Definition) InitialContext() Context {
	if d.initialContext == nil {
		return Context{}
	}
	return d.initialContext.Clone()
}

// States returns all declared state ids in declaration order.
func (d *Definition) States() []StateID {
	return slices.Clone(d.order)
}

// Events returns the event types the given state declares transitions for,
// in declaration order. It returns nil for an undeclared state. A declared
// event type does not guarantee a transition will fire; guards may still
// reject every candidate at dispatch time.
func (d *Definition) Events(state StateID) []EventType {
	node, ok := d.states[state]
	if !ok {
		return nil
	}
	return slices.Clone(node.eventOrder)
}

func (d *Definition) node(id StateID) (*stateNode, bool) {
	node, ok := d.states[id]
	return node, ok
}

// resolve finds the transition a dispatch of evt from state would take.
// Candidates for the event type are tried in declaration order and the
// first whose guard is absent or passes wins. The second return is false
// when no candidate matches, which callers treat as a no-op, not an error.
func (d *Definition) resolve(state StateID, ctx Context, evt Event) (*transition, bool) {
	node, ok := d.states[state]
	if !ok {
		return nil, false
	}
	candidates := node.transitions[evt.Type]
	for i := range candidates {
		t := &candidates[i]
		if t.guard == nil || t.guard(ctx, evt) {
			return t, true
		}
	}
	return nil, false
}

// validate checks the structural invariants that make dispatch total: the
// initial state is declared, every transition target is declared, and no
// event key maps to an empty candidate list. Violations surface as
// *ErrInvalidDefinition at construction time, never mid-dispatch.
func (d *Definition) validate() error {
	if d.initial == "" {
		return NewErrInvalidDefinition("", "", "initial state cannot be empty")
	}
	if len(d.states) == 0 {
		return NewErrInvalidDefinition("", "", "at least one state must be declared")
	}
	if _, ok := d.states[d.initial]; !ok {
		return NewErrInvalidDefinition(d.initial, "", "initial state is not declared")
	}
	for _, id := range d.order {
		if id == "" {
			return NewErrInvalidDefinition("", "", "state id cannot be empty")
		}
		node := d.states[id]
		for _, eventType := range node.eventOrder {
			if eventType == "" {
				return NewErrInvalidDefinition(id, "", "event type cannot be empty")
			}
			candidates := node.transitions[eventType]
			if len(candidates) == 0 {
				return NewErrInvalidDefinition(id, eventType, "event declares no transitions")
			}
			for _, t := range candidates {
				if t.target == "" {
					return NewErrInvalidDefinition(id, eventType, "transition target cannot be empty")
				}
				if _, ok := d.states[t.target]; !ok {
					return NewErrInvalidDefinition(id, eventType, "transition target '"+string(t.target)+"' is not a declared state")
				}
			}
		}
	}
	return nil
}
