// Package server exposes the LifeOS core over a JSON HTTP API: timer
// control, calendar events with recurrence expansion, and the gamification
// dashboard read side.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/lifeos-app/lifeos/recurrence"
	"github.com/lifeos-app/lifeos/store"
	"github.com/lifeos-app/lifeos/timer"
)

const (
	// HTTP headers
	headerContentType = "Content-Type"

	// MIME types
	mimeTypeJSON     = "application/json; charset=utf-8"
	mimeTypeCalendar = "text/calendar; charset=utf-8"
)

// Stats is the dashboard read side, usually backed by the SQLite store.
type Stats interface {
	Profile(ctx context.Context) (timer.XPResult, error)
	Sessions(ctx context.Context, limit int) ([]timer.FocusSession, error)
}

// Server is the LifeOS HTTP API.
type Server struct {
	timer    *timer.Engine
	events   store.EventStore
	expander *recurrence.Engine
	stats    Stats
	logger   *slog.Logger
	mux      *http.ServeMux
}

// New creates a new API server. stats may be nil, in which case the
// dashboard endpoints report service unavailable.
func New(engine *timer.Engine, events store.EventStore, expander *recurrence.Engine, stats Stats, logger *slog.Logger) (*Server, error) {
	if engine == nil {
		return nil, fmt.Errorf("timer engine is required")
	}
	if events == nil {
		return nil, fmt.Errorf("event store is required")
	}
	if expander == nil {
		return nil, fmt.Errorf("recurrence engine is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		timer:    engine,
		events:   events,
		expander: expander,
		stats:    stats,
		logger:   logger,
		mux:      http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /healthz", s.handleHealthz)

	s.mux.HandleFunc("GET /timer", s.handleTimerState)
	s.mux.HandleFunc("POST /timer/start", s.handleTimerStart)
	s.mux.HandleFunc("POST /timer/pause", s.handleTimerPause)
	s.mux.HandleFunc("POST /timer/reset", s.handleTimerReset)
	s.mux.HandleFunc("PUT /timer/duration", s.handleTimerDuration)
	s.mux.HandleFunc("PUT /timer/task", s.handleTimerTask)

	s.mux.HandleFunc("GET /profile", s.handleProfile)
	s.mux.HandleFunc("GET /sessions", s.handleSessions)

	s.mux.HandleFunc("GET /events", s.handleListEvents)
	s.mux.HandleFunc("POST /events", s.handleCreateEvent)
	s.mux.HandleFunc("GET /events/{id}", s.handleGetEvent)
	s.mux.HandleFunc("PUT /events/{id}", s.handleUpdateEvent)
	s.mux.HandleFunc("DELETE /events/{id}", s.handleDeleteEvent)
	s.mux.HandleFunc("POST /events/{id}/exceptions", s.handleAddException)
	s.mux.HandleFunc("GET /events/{id}/instances", s.handleEventInstances)
	s.mux.HandleFunc("GET /events/{id}/ics", s.handleEventICS)

	s.mux.HandleFunc("POST /rules/generate", s.handleGenerateRule)

	return s, nil
}

// ServeHTTP implements http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("received request",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set(headerContentType, mimeTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// storeStatus maps a storage error to an HTTP status.
func storeStatus(err error) int {
	storeErr, ok := err.(*store.Error)
	if !ok {
		return http.StatusInternalServerError
	}
	switch storeErr.Type {
	case store.ErrNotFound:
		return http.StatusNotFound
	case store.ErrAlreadyExists:
		return http.StatusConflict
	case store.ErrInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, into any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(into)
}
