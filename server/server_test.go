package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lifeos-app/lifeos/recurrence"
	"github.com/lifeos-app/lifeos/store"
	"github.com/lifeos-app/lifeos/store/memory"
	"github.com/lifeos-app/lifeos/timer"
)

// stubStats is a fixed-response Stats backend for handler tests.
type stubStats struct {
	profile  timer.XPResult
	sessions []timer.FocusSession
	err      error
}

func (s *stubStats) Profile(_ context.Context) (timer.XPResult, error) {
	return s.profile, s.err
}

func (s *stubStats) Sessions(_ context.Context, limit int) ([]timer.FocusSession, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit < len(s.sessions) {
		return s.sessions[:limit], nil
	}
	return s.sessions, nil
}

func newTestServer(t *testing.T, stats Stats) *Server {
	t.Helper()
	engine := timer.New(timer.Deps{}, timer.Options{
		Clock: timer.NewManualClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)),
	})
	t.Cleanup(engine.Close)

	srv, err := New(engine, memory.New(), recurrence.NewEngine(nil), stats, nil)
	require.NoError(t, err)
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestNew_RequiresCollaborators(t *testing.T) {
	engine := timer.New(timer.Deps{}, timer.Options{})
	defer engine.Close()

	_, err := New(nil, memory.New(), recurrence.NewEngine(nil), nil, nil)
	assert.Error(t, err)
	_, err = New(engine, nil, recurrence.NewEngine(nil), nil, nil)
	assert.Error(t, err)
	_, err = New(engine, memory.New(), nil, nil, nil)
	assert.Error(t, err)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := doJSON(t, srv, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestTimerLifecycle(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodGet, "/timer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var state timerStateJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.False(t, state.Active)
	assert.Equal(t, 1500, state.TimeLeft)
	assert.Equal(t, 1500, state.Duration)
	assert.Nil(t, state.TaskID)

	rec = doJSON(t, srv, http.MethodPut, "/timer/duration", `{"minutes":50}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, 3000, state.Duration)
	assert.Equal(t, 3000, state.TimeLeft)

	rec = doJSON(t, srv, http.MethodPut, "/timer/task", `{"taskId":"task-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	require.NotNil(t, state.TaskID)
	assert.Equal(t, "task-1", *state.TaskID)

	rec = doJSON(t, srv, http.MethodPost, "/timer/start", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.True(t, state.Active)

	// Duration edits are rejected while the countdown runs.
	rec = doJSON(t, srv, http.MethodPut, "/timer/duration", `{"minutes":10}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/timer/pause", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.False(t, state.Active)

	rec = doJSON(t, srv, http.MethodPost, "/timer/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, state.Duration, state.TimeLeft)

	// A null task id clears the link.
	rec = doJSON(t, srv, http.MethodPut, "/timer/task", `{"taskId":null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Nil(t, state.TaskID)
}

func TestTimerDuration_BadBody(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := doJSON(t, srv, http.MethodPut, "/timer/duration", `{"minutes":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventCRUD(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodPost, "/events", `{
		"title": "Standup",
		"start": "2024-06-03T09:00:00Z",
		"end": "2024-06-03T09:15:00Z",
		"recurrenceRule": "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created eventJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "Standup", created.Title)

	rec = doJSON(t, srv, http.MethodGet, "/events/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/events", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []eventJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)

	rec = doJSON(t, srv, http.MethodPut, "/events/"+created.ID, `{
		"title": "Standup (remote)",
		"start": "2024-06-03T09:30:00Z",
		"end": "2024-06-03T09:45:00Z"
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated eventJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Standup (remote)", updated.Title)
	assert.Empty(t, updated.RecurrenceRule)

	rec = doJSON(t, srv, http.MethodPut, "/events/nope", `{
		"title": "Ghost",
		"start": "2024-06-03T09:30:00Z",
		"end": "2024-06-03T09:45:00Z"
	}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, srv, http.MethodDelete, "/events/"+created.ID, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/events/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateEvent_Validation(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{
			name: "missing title",
			body: `{"title":"","start":"2024-06-03T09:00:00Z","end":"2024-06-03T10:00:00Z"}`,
		},
		{
			name: "bad start",
			body: `{"title":"X","start":"yesterday","end":"2024-06-03T10:00:00Z"}`,
		},
		{
			name: "end before start",
			body: `{"title":"X","start":"2024-06-03T10:00:00Z","end":"2024-06-03T09:00:00Z"}`,
		},
		{
			name: "invalid rrule",
			body: `{"title":"X","start":"2024-06-03T09:00:00Z","end":"2024-06-03T10:00:00Z","recurrenceRule":"FREQ=SOMETIMES"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/events", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestEventInstances_WithException(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodPost, "/events", `{
		"title": "Daily review",
		"start": "2024-06-03T09:00:00Z",
		"end": "2024-06-03T09:30:00Z",
		"recurrenceRule": "FREQ=DAILY;COUNT=5"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created eventJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	// Cancel the second occurrence.
	rec = doJSON(t, srv, http.MethodPost, "/events/"+created.ID+"/exceptions",
		`{"originalStart":"2024-06-04T09:00:00Z","status":"cancelled"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodGet,
		"/events/"+created.ID+"/instances?start=2024-06-01T00:00:00Z&end=2024-06-30T00:00:00Z", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var instances []instanceJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &instances))
	require.Len(t, instances, 4)
	for _, inst := range instances {
		assert.True(t, inst.IsRecurringInstance)
		assert.Equal(t, created.ID, inst.ParentEventID)
		assert.NotEqual(t, "2024-06-04T09:00:00Z", inst.Start)
	}
}

func TestEventInstances_BadRange(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodGet, "/events/nope/instances", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodGet,
		"/events/nope/instances?start=2024-06-01T00:00:00Z&end=2024-06-30T00:00:00Z", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddException_UnknownEvent(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := doJSON(t, srv, http.MethodPost, "/events/nope/exceptions",
		`{"originalStart":"2024-06-04T09:00:00Z"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventICS(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodPost, "/events", `{
		"title": "Gym",
		"start": "2024-06-03T18:00:00Z",
		"end": "2024-06-03T19:00:00Z",
		"recurrenceRule": "FREQ=WEEKLY;BYDAY=MO"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created eventJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, srv, http.MethodGet, "/events/"+created.ID+"/ics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, mimeTypeCalendar, rec.Header().Get(headerContentType))
	body := rec.Body.String()
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "SUMMARY:Gym")
	assert.Contains(t, body, "RRULE:FREQ=WEEKLY;BYDAY=MO")
}

func TestGenerateRule(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodPost, "/rules/generate", `{
		"preset": "WEEKLY",
		"start": "2024-06-03T09:00:00Z",
		"endMode": "AFTER_COUNT",
		"count": 10
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=MO;COUNT=10", resp["rule"])
	assert.NotEmpty(t, resp["description"])

	rec = doJSON(t, srv, http.MethodPost, "/rules/generate", `{
		"preset": "SOMETIMES",
		"start": "2024-06-03T09:00:00Z"
	}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfileAndSessions(t *testing.T) {
	stats := &stubStats{
		profile: timer.XPResult{NewTotal: 1250, NewLevel: 2},
		sessions: []timer.FocusSession{
			{
				ID:          "s1",
				Minutes:     25,
				StartedAt:   time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
				CompletedAt: time.Date(2024, 5, 1, 9, 25, 0, 0, time.UTC),
			},
			{
				ID:          "s2",
				Minutes:     50,
				StartedAt:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
				CompletedAt: time.Date(2024, 5, 1, 10, 50, 0, 0, time.UTC),
			},
		},
	}
	srv := newTestServer(t, stats)

	rec := doJSON(t, srv, http.MethodGet, "/profile", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"xp":1250,"level":2}`, rec.Body.String())

	rec = doJSON(t, srv, http.MethodGet, "/sessions?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sessions []sessionJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
	require.Len(t, sessions, 1)
	assert.Equal(t, "s1", sessions[0].ID)

	rec = doJSON(t, srv, http.MethodGet, "/sessions?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEvents_StorageFailure(t *testing.T) {
	mockStore := new(store.MockEventStore)
	mockStore.On("ListEvents", mock.Anything).
		Return(nil, &store.Error{Type: "backend_down", Message: "connection lost"})
	mockStore.On("GetEvent", mock.Anything, "ev-1").
		Return(&recurrence.Event{
			ID:    "ev-1",
			Title: "Planning",
			Start: time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC),
		}, nil)
	mockStore.On("ListExceptions", mock.Anything, "ev-1").
		Return(nil, &store.Error{Type: "backend_down", Message: "connection lost"})

	engine := timer.New(timer.Deps{}, timer.Options{})
	t.Cleanup(engine.Close)
	srv, err := New(engine, mockStore, recurrence.NewEngine(nil), nil, nil)
	require.NoError(t, err)

	rec := doJSON(t, srv, http.MethodGet, "/events", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = doJSON(t, srv, http.MethodGet,
		"/events/ev-1/instances?start=2024-06-01T00:00:00Z&end=2024-06-30T00:00:00Z", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	mockStore.AssertExpectations(t)
}

func TestProfile_NoStatsBackend(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := doJSON(t, srv, http.MethodGet, "/profile", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec = doJSON(t, srv, http.MethodGet, "/sessions", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
