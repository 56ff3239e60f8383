package main

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/fsmkit"
	"github.com/dmitrymomot/fsmkit/watch"
)

// session is one visitor's walk through the signup wizard: a dedicated
// machine identified by the session id, attached to the hub for streaming.
type session struct {
	ID      string
	Machine *fsmkit.Machine
	detach  func()
}

// sessionStore creates and tracks wizard sessions. All sessions run the same
// compiled definition; every machine keeps its own snapshot.
type sessionStore struct {
	def    *fsmkit.Definition
	hub    *watch.Hub
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*session
}

func newSessionStore(def *fsmkit.Definition, hub *watch.Hub, logger *slog.Logger) *sessionStore {
	return &sessionStore{
		def:      def,
		hub:      hub,
		logger:   logger,
		sessions: make(map[string]*session),
	}
}

// Create starts a new session at the wizard's first step.
func (s *sessionStore) Create() (*session, error) {
	id := uuid.NewString()
	machine, err := fsmkit.New(s.def,
		fsmkit.WithID(id),
		fsmkit.WithLogger(s.logger),
	)
	if err != nil {
		return nil, err
	}

	sess := &session{
		ID:      id,
		Machine: machine,
		detach:  s.hub.Attach(machine),
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	return sess, nil
}

// Get looks up a session by id.
func (s *sessionStore) Get(id string) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Remove detaches and forgets a session. It reports whether the session
// existed.
func (s *sessionStore) Remove(id string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		sess.detach()
	}
	return ok
}

// Len reports how many sessions are active.
func (s *sessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
