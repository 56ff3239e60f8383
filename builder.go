package fsmkit

// StateOption configures a state declaration.
type StateOption func(*stateNode)

// WithEntry appends side-effecting hooks that run when the state is entered.
// Nil actions are ignored.
func WithEntry(actions ...ActionFunc) StateOption {
	return func(node *stateNode) {
		for _, action := range actions {
			if action != nil {
				node.entry = append(node.entry, action)
			}
		}
	}
}

// WithExit appends side-effecting hooks that run when the state is departed.
// Nil actions are ignored.
func WithExit(actions ...ActionFunc) StateOption {
	return func(node *stateNode) {
		for _, action := range actions {
			if action != nil {
				node.exit = append(node.exit, action)
			}
		}
	}
}

// TransitionOption configures a single transition declaration.
type TransitionOption func(*transition)

// WithGuard sets the predicate gating the transition. A transition carries
// at most one guard; a later WithGuard replaces an earlier one.
func WithGuard(guard Guard) TransitionOption {
	return func(t *transition) {
		t.guard = guard
	}
}

// WithUpdates appends context updates applied, in order, when the transition
// is taken. Nil updates are ignored.
func WithUpdates(updates ...ContextUpdate) TransitionOption {
	return func(t *transition) {
		for _, update := range updates {
			if update != nil {
				t.updates = append(t.updates, update)
			}
		}
	}
}

// stateDecl records one State call until Build assembles the definition.
type stateDecl struct {
	id   StateID
	opts []StateOption
}

// transitionDecl records one Transition call until Build assembles the
// definition.
type transitionDecl struct {
	from  StateID
	event EventType
	opts  []TransitionOption
	t     transition
}

// DefinitionBuilder assembles an immutable Definition through a fluent API.
// Declaration order is significant: transitions declared for the same state
// and event type are tried in declaration order at dispatch time, with the
// first passing guard winning. All structural validation happens in Build,
// so calls may arrive in any order; a transition may be declared before the
// states it connects.
type DefinitionBuilder struct {
	initial        StateID
	initialContext Context
	states         []stateDecl
	transitions    []transitionDecl
	consumed       bool
}

// NewDefinition starts a definition with the given initial state.
//
//	def, err := fsmkit.NewDefinition("idle").
//		State("idle").
//		State("running").
//		Transition("idle", "START", "running").
//		Transition("running", "STOP", "idle").
//		Build()
func NewDefinition(initial StateID) *DefinitionBuilder {
	return &DefinitionBuilder{initial: initial}
}

// InitialContext sets the context the machine starts with. The map is
// copied at Build time; later changes by the caller do not leak into the
// definition. When omitted the machine starts with an empty context.
func (b *DefinitionBuilder) InitialContext(ctx Context) *DefinitionBuilder {
	b.initialContext = ctx
	return b
}

// State declares a state. Declaring the same id twice is a Build error.
func (b *DefinitionBuilder) State(id StateID, opts ...StateOption) *DefinitionBuilder {
	b.states = append(b.states, stateDecl{id: id, opts: opts})
	return b
}

// Transition declares a candidate transition from a state to a target on an
// event type. Both states must be declared via State by Build time.
func (b *DefinitionBuilder) Transition(from StateID, event EventType, target StateID, opts ...TransitionOption) *DefinitionBuilder {
	b.transitions = append(b.transitions, transitionDecl{
		from:  from,
		event: event,
		opts:  opts,
		t:     transition{target: target},
	})
	return b
}

// Build assembles the declarations into an immutable Definition, validating
// every structural invariant. It fails with *ErrInvalidDefinition when the
// initial state or a transition endpoint is undeclared, a state is declared
// twice, or an id is empty. The builder is consumed by a successful or
// failed Build; further Build calls return ErrBuilderConsumed.
func (b *DefinitionBuilder) Build() (*Definition, error) {
	if b.consumed {
		return nil, ErrBuilderConsumed
	}
	b.consumed = true

	def := &Definition{
		initial:        b.initial,
		initialContext: b.initialContext.Clone(),
		states:         make(map[StateID]*stateNode, len(b.states)),
		order:          make([]StateID, 0, len(b.states)),
	}
	for _, decl := range b.states {
		if _, exists := def.states[decl.id]; exists {
			return nil, NewErrInvalidDefinition(decl.id, "", "state declared twice")
		}
		node := &stateNode{
			id:          decl.id,
			transitions: make(map[EventType][]transition),
		}
		for _, opt := range decl.opts {
			opt(node)
		}
		def.states[decl.id] = node
		def.order = append(def.order, decl.id)
	}
	for _, decl := range b.transitions {
		node, ok := def.states[decl.from]
		if !ok {
			return nil, NewErrInvalidDefinition(decl.from, decl.event, "transition declared for undeclared state")
		}
		t := decl.t
		for _, opt := range decl.opts {
			opt(&t)
		}
		if _, seen := node.transitions[decl.event]; !seen {
			node.eventOrder = append(node.eventOrder, decl.event)
		}
		node.transitions[decl.event] = append(node.transitions[decl.event], t)
	}
	if err := def.validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// MustBuild is like Build but panics on error. Intended for static machine
// configurations whose validity is covered by tests.
func (b *DefinitionBuilder) MustBuild() *Definition {
	def, err := b.Build()
	if err != nil {
		panic("fsmkit: " + err.Error())
	}
	return def
}
