package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/dmitrymomot/fsmkit"
	"github.com/dmitrymomot/fsmkit/watch"
)

type server struct {
	sessions *sessionStore
	hub      *watch.Hub
	logger   *slog.Logger
}

func (s *server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleSnapshot)
			r.Delete("/", s.handleDelete)
			r.Post("/events", s.handleEvent)
			r.Get("/watch", s.handleWatch)
		})
	})

	return r
}

type eventRequest struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type snapshotResponse struct {
	SessionID string         `json:"session_id"`
	Value     string         `json:"value"`
	Context   map[string]any `json:"context"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ALIVE"))
}

func (s *server) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create()
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to create session", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	s.logger.InfoContext(r.Context(), "session created", slog.String("session_id", sess.ID))
	writeJSON(w, http.StatusCreated, newSnapshotResponse(sess))
}

func (s *server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, newSnapshotResponse(sess))
}

func (s *server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Remove(chi.URLParam(r, "sessionID")) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	s.logger.InfoContext(r.Context(), "session removed",
		slog.String("session_id", chi.URLParam(r, "sessionID")))
	w.WriteHeader(http.StatusNoContent)
}

// handleEvent dispatches one event to the session's machine. An event that
// matches no transition is not an error; the unchanged snapshot comes back
// with 200. A dispatch colliding with one already in flight maps to 409.
func (s *server) handleEvent(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Type == "" {
		writeError(w, http.StatusBadRequest, "event type is required")
		return
	}

	snap, err := sess.Machine.Send(fsmkit.Event{
		Type:    fsmkit.EventType(req.Type),
		Payload: req.Payload,
	})
	switch {
	case fsmkit.IsReentrantDispatchError(err):
		writeError(w, http.StatusConflict, "another event is being processed")
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "event dispatch failed",
			slog.String("session_id", sess.ID),
			slog.String("event", req.Type),
			slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "event dispatch failed")
		return
	}

	writeJSON(w, http.StatusOK, snapshotResponse{
		SessionID: sess.ID,
		Value:     string(snap.Value),
		Context:   snap.Context,
	})
}

// handleWatch streams the session's snapshots over SSE as datastar signal
// patches. The current snapshot goes out first, then every committed
// transition until the client disconnects.
func (s *server) handleWatch(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	ctx := r.Context()
	sse := datastar.NewSSE(w, r)

	// A closed update channel means this watcher fell behind and was
	// dropped by the hub; resynchronize from the machine and watch again.
	for ctx.Err() == nil {
		watcher := s.hub.Watch(ctx)
		if err := patchSnapshot(sse, sess.Machine.Snapshot()); err != nil {
			watcher.Close()
			return
		}
		if !s.relay(ctx, watcher, sess.ID, sse) {
			return
		}
	}
}

// relay forwards the session's updates until the stream ends. It reports
// whether the caller should resynchronize and relay again.
func (s *server) relay(ctx context.Context, watcher watch.Watcher, sessionID string, sse *datastar.ServerSentEventGenerator) bool {
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return false
		case update, ok := <-watcher.Updates():
			if !ok {
				return true
			}
			if update.MachineID != sessionID {
				continue
			}
			if err := patchSnapshot(sse, update.Snapshot); err != nil {
				s.logger.Debug("watch stream ended",
					slog.String("session_id", sessionID),
					slog.Any("error", err))
				return false
			}
		}
	}
}

func patchSnapshot(sse *datastar.ServerSentEventGenerator, snap fsmkit.Snapshot) error {
	signals, err := json.Marshal(map[string]any{
		"value":   snap.Value,
		"context": snap.Context,
	})
	if err != nil {
		return err
	}
	return sse.PatchSignals(signals)
}

func newSnapshotResponse(sess *session) snapshotResponse {
	snap := sess.Machine.Snapshot()
	return snapshotResponse{
		SessionID: sess.ID,
		Value:     string(snap.Value),
		Context:   snap.Context,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
