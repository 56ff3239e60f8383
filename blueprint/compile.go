package blueprint

import (
	"fmt"
	"maps"
	"slices"

	"github.com/dmitrymomot/fsmkit"
)

// Compile resolves a document's named behavior against the registry and
// builds the definition it describes. A nil registry is treated as empty,
// which only works for documents referencing no guards, updates, or
// actions. States and event types are visited in sorted order so repeated
// compiles of one document produce identical definitions; the candidate
// order within each event type follows the document.
//
// Name-resolution failures wrap ErrUnknownGuard, ErrUnknownUpdate, or
// ErrUnknownAction. Structural problems, such as an undeclared transition
// target, surface as fsmkit's *ErrInvalidDefinition.
func Compile(doc *Document, reg *Registry) (*fsmkit.Definition, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	if reg == nil {
		reg = NewRegistry()
	}

	builder := fsmkit.NewDefinition(fsmkit.StateID(doc.Initial))
	if doc.Context != nil {
		builder.InitialContext(fsmkit.Context(doc.Context))
	}

	for _, stateID := range slices.Sorted(maps.Keys(doc.States)) {
		state := doc.States[stateID]

		opts := make([]fsmkit.StateOption, 0, 2)
		entry, err := resolveActions(reg, state.Entry, stateID, "entry")
		if err != nil {
			return nil, err
		}
		if len(entry) > 0 {
			opts = append(opts, fsmkit.WithEntry(entry...))
		}
		exit, err := resolveActions(reg, state.Exit, stateID, "exit")
		if err != nil {
			return nil, err
		}
		if len(exit) > 0 {
			opts = append(opts, fsmkit.WithExit(exit...))
		}
		builder.State(fsmkit.StateID(stateID), opts...)

		for _, eventType := range slices.Sorted(maps.Keys(state.On)) {
			candidates := state.On[eventType]
			if len(candidates) == 0 {
				return nil, fmt.Errorf("%w: state %q, event %q", ErrEmptyTransitions, stateID, eventType)
			}
			for _, candidate := range candidates {
				topts, err := resolveTransition(reg, candidate, stateID)
				if err != nil {
					return nil, err
				}
				builder.Transition(
					fsmkit.StateID(stateID),
					fsmkit.EventType(eventType),
					fsmkit.StateID(candidate.Target),
					topts...,
				)
			}
		}
	}
	return builder.Build()
}

func resolveTransition(reg *Registry, candidate TransitionDoc, stateID string) ([]fsmkit.TransitionOption, error) {
	var topts []fsmkit.TransitionOption
	if candidate.Guard != "" {
		guard, ok := reg.guard(candidate.Guard)
		if !ok {
			return nil, fmt.Errorf("%w: %q in state %q", ErrUnknownGuard, candidate.Guard, stateID)
		}
		topts = append(topts, fsmkit.WithGuard(guard))
	}
	if len(candidate.Updates) > 0 {
		updates := make([]fsmkit.ContextUpdate, 0, len(candidate.Updates))
		for _, name := range candidate.Updates {
			update, ok := reg.update(name)
			if !ok {
				return nil, fmt.Errorf("%w: %q in state %q", ErrUnknownUpdate, name, stateID)
			}
			updates = append(updates, update)
		}
		topts = append(topts, fsmkit.WithUpdates(updates...))
	}
	return topts, nil
}

func resolveActions(reg *Registry, names NameList, stateID, hook string) ([]fsmkit.ActionFunc, error) {
	if len(names) == 0 {
		return nil, nil
	}
	actions := make([]fsmkit.ActionFunc, 0, len(names))
	for _, name := range names {
		action, ok := reg.action(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q (%s of state %q)", ErrUnknownAction, name, hook, stateID)
		}
		actions = append(actions, action)
	}
	return actions, nil
}
