package fsmkit

// Snapshot is the immutable pair of current state id and current context at
// a point in time. Snapshots are replaced, never mutated in place: a
// snapshot obtained from a machine stays frozen while the machine moves on,
// so holding one across an asynchronous boundary is safe. The Context map
// must be treated as read-only by callers.
type Snapshot struct {
	Value   StateID
	Context Context

	def *Definition
}

// Matches reports whether the snapshot's current state equals id.
func (s Snapshot) Matches(id StateID) bool {
	return s.Value == id
}

// Can reports whether dispatching an event of the given type from this
// snapshot would take a transition: the current state declares at least one
// candidate for the type whose guard, if any, passes against the snapshot's
// context. The resolution is a dry run; nothing is mutated and no actions
// run, but guards are evaluated, which is why guards must be pure. The
// zero Snapshot can do nothing.
func (s Snapshot) Can(eventType EventType) bool {
	if s.def == nil {
		return false
	}
	_, ok := s.def.resolve(s.Value, s.Context, Event{Type: eventType})
	return ok
}
