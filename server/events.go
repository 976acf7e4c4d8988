package server

import (
	"net/http"
	"time"

	"github.com/lifeos-app/lifeos/ics"
	"github.com/lifeos-app/lifeos/recurrence"
)

const timeLayout = time.RFC3339

// eventJSON is the wire form of a base event.
type eventJSON struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Start          string `json:"start"`
	End            string `json:"end"`
	RecurrenceRule string `json:"recurrenceRule,omitempty"`
	AllDay         bool   `json:"allDay"`
}

func toEventJSON(event recurrence.Event) eventJSON {
	return eventJSON{
		ID:             event.ID,
		Title:          event.Title,
		Start:          event.Start.Format(timeLayout),
		End:            event.End.Format(timeLayout),
		RecurrenceRule: event.RecurrenceRule,
		AllDay:         event.AllDay,
	}
}

type instanceJSON struct {
	ID                  string `json:"id"`
	Title               string `json:"title"`
	Start               string `json:"start"`
	End                 string `json:"end"`
	AllDay              bool   `json:"allDay"`
	IsRecurringInstance bool   `json:"isRecurringInstance"`
	ParentEventID       string `json:"parentEventId,omitempty"`
	OccurrenceStart     string `json:"occurrenceStart,omitempty"`
}

func toInstanceJSON(inst recurrence.Instance) instanceJSON {
	out := instanceJSON{
		ID:                  inst.ID,
		Title:               inst.Title,
		Start:               inst.Start.Format(timeLayout),
		End:                 inst.End.Format(timeLayout),
		AllDay:              inst.AllDay,
		IsRecurringInstance: inst.IsRecurringInstance,
		ParentEventID:       inst.ParentEventID,
	}
	if inst.IsRecurringInstance {
		out.OccurrenceStart = inst.OccurrenceStart.Format(timeLayout)
	}
	return out
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.events.ListEvents(r.Context())
	if err != nil {
		s.logger.Error("failed to list events", "err", err)
		s.writeError(w, storeStatus(err), "failed to list events")
		return
	}
	out := make([]eventJSON, 0, len(events))
	for _, event := range events {
		out = append(out, toEventJSON(event))
	}
	s.writeJSON(w, http.StatusOK, out)
}

// parseEventBody decodes and validates an event payload. A non-empty second
// return value is the client-facing rejection reason.
func parseEventBody(r *http.Request) (recurrence.Event, string) {
	var body struct {
		Title          string `json:"title"`
		Start          string `json:"start"`
		End            string `json:"end"`
		RecurrenceRule string `json:"recurrenceRule"`
		AllDay         bool   `json:"allDay"`
	}
	if err := decodeBody(r, &body); err != nil {
		return recurrence.Event{}, "invalid request body"
	}
	if body.Title == "" {
		return recurrence.Event{}, "title is required"
	}
	start, err := time.Parse(timeLayout, body.Start)
	if err != nil {
		return recurrence.Event{}, "start must be an RFC 3339 timestamp"
	}
	end, err := time.Parse(timeLayout, body.End)
	if err != nil {
		return recurrence.Event{}, "end must be an RFC 3339 timestamp"
	}
	if !end.After(start) {
		return recurrence.Event{}, "end must be after start"
	}
	if body.RecurrenceRule != "" && !recurrence.IsValidRule(body.RecurrenceRule) {
		return recurrence.Event{}, "recurrenceRule is not a valid RRULE"
	}
	return recurrence.Event{
		Title:          body.Title,
		Start:          start,
		End:            end,
		RecurrenceRule: body.RecurrenceRule,
		AllDay:         body.AllDay,
	}, ""
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	event, reason := parseEventBody(r)
	if reason != "" {
		s.writeError(w, http.StatusBadRequest, reason)
		return
	}
	if err := s.events.CreateEvent(r.Context(), &event); err != nil {
		s.logger.Error("failed to create event", "title", event.Title, "err", err)
		s.writeError(w, storeStatus(err), "failed to create event")
		return
	}
	s.writeJSON(w, http.StatusCreated, toEventJSON(event))
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	event, reason := parseEventBody(r)
	if reason != "" {
		s.writeError(w, http.StatusBadRequest, reason)
		return
	}
	event.ID = r.PathValue("id")
	if err := s.events.UpdateEvent(r.Context(), &event); err != nil {
		s.writeError(w, storeStatus(err), "failed to update event")
		return
	}
	s.writeJSON(w, http.StatusOK, toEventJSON(event))
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := s.events.GetEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, storeStatus(err), "event not found")
		return
	}
	s.writeJSON(w, http.StatusOK, toEventJSON(*event))
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.events.DeleteEvent(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, storeStatus(err), "event not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddException(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var body struct {
		OriginalStart string `json:"originalStart"`
		Status        string `json:"status"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	originalStart, err := time.Parse(timeLayout, body.OriginalStart)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "originalStart must be an RFC 3339 timestamp")
		return
	}
	status := recurrence.ExceptionStatus(body.Status)
	if body.Status == "" {
		status = recurrence.ExceptionCancelled
	}
	if status != recurrence.ExceptionCancelled && status != recurrence.ExceptionOverridden {
		s.writeError(w, http.StatusBadRequest, "status must be cancelled or overridden")
		return
	}

	// Exceptions only make sense against an existing event.
	if _, err := s.events.GetEvent(r.Context(), id); err != nil {
		s.writeError(w, storeStatus(err), "event not found")
		return
	}
	exc := recurrence.Exception{
		ParentEventID: id,
		OriginalStart: originalStart,
		Status:        status,
	}
	if err := s.events.AddException(r.Context(), exc); err != nil {
		s.logger.Error("failed to add exception", "event_id", id, "err", err)
		s.writeError(w, storeStatus(err), "failed to add exception")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEventInstances(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rangeStart, err := time.Parse(timeLayout, r.URL.Query().Get("start"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "start query parameter must be an RFC 3339 timestamp")
		return
	}
	rangeEnd, err := time.Parse(timeLayout, r.URL.Query().Get("end"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "end query parameter must be an RFC 3339 timestamp")
		return
	}
	if !rangeEnd.After(rangeStart) {
		s.writeError(w, http.StatusBadRequest, "end must be after start")
		return
	}

	event, err := s.events.GetEvent(r.Context(), id)
	if err != nil {
		s.writeError(w, storeStatus(err), "event not found")
		return
	}
	exceptions, err := s.events.ListExceptions(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to list exceptions", "event_id", id, "err", err)
		s.writeError(w, storeStatus(err), "failed to list exceptions")
		return
	}

	instances := s.expander.Expand(*event, rangeStart, rangeEnd, exceptions)
	out := make([]instanceJSON, 0, len(instances))
	for _, inst := range instances {
		out = append(out, toInstanceJSON(inst))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleEventICS(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	event, err := s.events.GetEvent(r.Context(), id)
	if err != nil {
		s.writeError(w, storeStatus(err), "event not found")
		return
	}
	exceptions, err := s.events.ListExceptions(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to list exceptions", "event_id", id, "err", err)
		s.writeError(w, storeStatus(err), "failed to list exceptions")
		return
	}
	payload, err := ics.EncodeEvent(*event, exceptions)
	if err != nil {
		s.logger.Error("failed to encode calendar", "event_id", id, "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to encode calendar")
		return
	}
	w.Header().Set(headerContentType, mimeTypeCalendar)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(payload)); err != nil {
		s.logger.Error("failed to write calendar response", "err", err)
	}
}

func (s *Server) handleGenerateRule(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Preset  string `json:"preset"`
		Start   string `json:"start"`
		EndMode string `json:"endMode"`
		Until   string `json:"until"`
		Count   int    `json:"count"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	start, err := time.Parse(timeLayout, body.Start)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "start must be an RFC 3339 timestamp")
		return
	}
	end := recurrence.EndPolicy{
		Mode:  recurrence.EndMode(body.EndMode),
		Count: body.Count,
	}
	if end.Mode == recurrence.EndUntil {
		until, err := time.Parse(timeLayout, body.Until)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "until must be an RFC 3339 timestamp")
			return
		}
		end.Until = until
	}

	rule, err := recurrence.GenerateRule(recurrence.Preset(body.Preset), start, end)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"rule":        rule,
		"description": recurrence.Describe(rule, start),
	})
}
