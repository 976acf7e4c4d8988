package server

import (
	"net/http"
	"strconv"

	"github.com/samber/mo"

	"github.com/lifeos-app/lifeos/timer"
)

// timerStateJSON is the wire form of a timer snapshot.
type timerStateJSON struct {
	Active   bool    `json:"active"`
	TimeLeft int     `json:"timeLeft"`
	Duration int     `json:"duration"`
	TaskID   *string `json:"taskId"`
}

func toTimerStateJSON(state timer.State) timerStateJSON {
	out := timerStateJSON{
		Active:   state.Active,
		TimeLeft: state.TimeLeft,
		Duration: state.Duration,
	}
	if id, ok := state.TaskID.Get(); ok {
		out.TaskID = &id
	}
	return out
}

func (s *Server) handleTimerState(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, toTimerStateJSON(s.timer.Snapshot()))
}

func (s *Server) handleTimerStart(w http.ResponseWriter, _ *http.Request) {
	s.timer.Start()
	s.writeJSON(w, http.StatusOK, toTimerStateJSON(s.timer.Snapshot()))
}

func (s *Server) handleTimerPause(w http.ResponseWriter, _ *http.Request) {
	s.timer.Pause()
	s.writeJSON(w, http.StatusOK, toTimerStateJSON(s.timer.Snapshot()))
}

func (s *Server) handleTimerReset(w http.ResponseWriter, _ *http.Request) {
	s.timer.Reset()
	s.writeJSON(w, http.StatusOK, toTimerStateJSON(s.timer.Snapshot()))
}

func (s *Server) handleTimerDuration(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Minutes int `json:"minutes"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !s.timer.SetDuration(body.Minutes) {
		s.writeError(w, http.StatusConflict, "cannot change duration while a session is running")
		return
	}
	s.writeJSON(w, http.StatusOK, toTimerStateJSON(s.timer.Snapshot()))
}

func (s *Server) handleTimerTask(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TaskID *string `json:"taskId"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	taskID := mo.None[string]()
	if body.TaskID != nil && *body.TaskID != "" {
		taskID = mo.Some(*body.TaskID)
	}
	s.timer.SetTaskID(taskID)
	s.writeJSON(w, http.StatusOK, toTimerStateJSON(s.timer.Snapshot()))
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		s.writeError(w, http.StatusServiceUnavailable, "stats backend not configured")
		return
	}
	profile, err := s.stats.Profile(r.Context())
	if err != nil {
		s.logger.Error("failed to load profile", "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{
		"xp":    profile.NewTotal,
		"level": profile.NewLevel,
	})
}

const defaultSessionLimit = 50

type sessionJSON struct {
	ID          string  `json:"id"`
	Minutes     int     `json:"minutes"`
	TaskID      *string `json:"taskId"`
	StartedAt   string  `json:"startedAt"`
	CompletedAt string  `json:"completedAt"`
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		s.writeError(w, http.StatusServiceUnavailable, "stats backend not configured")
		return
	}
	limit := defaultSessionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	sessions, err := s.stats.Sessions(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list focus sessions", "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	out := make([]sessionJSON, 0, len(sessions))
	for _, sess := range sessions {
		item := sessionJSON{
			ID:          sess.ID,
			Minutes:     sess.Minutes,
			StartedAt:   sess.StartedAt.Format(timeLayout),
			CompletedAt: sess.CompletedAt.Format(timeLayout),
		}
		if id, ok := sess.TaskID.Get(); ok {
			item.TaskID = &id
		}
		out = append(out, item)
	}
	s.writeJSON(w, http.StatusOK, out)
}
