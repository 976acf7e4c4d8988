// Package ics converts calendar events to and from iCalendar payloads, the
// interchange format external calendar providers speak. Only the fields the
// application consumes are mapped; everything else in a foreign calendar is
// ignored.
package ics

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/lifeos-app/lifeos/recurrence"
)

const (
	productID = "-//LifeOS//Calendar//EN"

	dateTimeUTCLayout = "20060102T150405Z"
	dateLayout        = "20060102"
)

// EncodeEvent renders a base event as a VCALENDAR with a single VEVENT.
// Cancelled exceptions become EXDATE entries so the receiving calendar
// suppresses the same occurrences; overridden occurrences are excluded the
// same way, since the override itself lives in a separate event.
func EncodeEvent(event recurrence.Event, exceptions []recurrence.Exception) (string, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	ve := ical.NewEvent()
	ve.Props.SetText(ical.PropUID, event.ID)
	ve.Props.SetText(ical.PropSummary, event.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, event.Start)
	ve.Props.SetDateTime(ical.PropDateTimeEnd, event.End)
	if event.RecurrenceRule != "" {
		// Raw value: RRULE is not a TEXT property, SetText would escape
		// the semicolons.
		prop := ical.NewProp(ical.PropRecurrenceRule)
		prop.Value = event.RecurrenceRule
		ve.Props.Set(prop)
	}

	if exdates := exdateValues(event.ID, exceptions); len(exdates) > 0 {
		prop := ical.NewProp(ical.PropExceptionDates)
		prop.Value = strings.Join(exdates, ",")
		ve.Props.Set(prop)
	}

	cal.Children = append(cal.Children, ve.Component)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return "", fmt.Errorf("failed to encode calendar: %w", err)
	}
	return buf.String(), nil
}

// DecodeEvents parses an ICS payload into base events and exceptions.
// Components that are not events, or events missing the fields LifeOS
// consumes, are skipped rather than failing the whole payload.
func DecodeEvents(ics string) ([]recurrence.Event, []recurrence.Exception, error) {
	cal, err := ical.NewDecoder(strings.NewReader(ics)).Decode()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode calendar: %w", err)
	}

	var (
		events     []recurrence.Event
		exceptions []recurrence.Exception
	)
	for _, ve := range cal.Events() {
		event, ok := decodeEvent(ve)
		if !ok {
			continue
		}
		events = append(events, event)
		exceptions = append(exceptions, decodeExceptions(ve, event.ID)...)
	}
	return events, exceptions, nil
}

func decodeEvent(ve ical.Event) (recurrence.Event, bool) {
	uid, err := ve.Props.Text(ical.PropUID)
	if err != nil || uid == "" {
		return recurrence.Event{}, false
	}
	start, err := ve.Props.DateTime(ical.PropDateTimeStart, nil)
	if err != nil || start.IsZero() {
		return recurrence.Event{}, false
	}
	end, err := ve.Props.DateTime(ical.PropDateTimeEnd, nil)
	if err != nil || end.IsZero() {
		// DTEND is optional; an all-day date start spans one day, anything
		// else is instantaneous.
		if isMidnight(start) {
			end = start.AddDate(0, 0, 1)
		} else {
			end = start
		}
	}

	event := recurrence.Event{
		ID:     uid,
		Start:  start,
		End:    end,
		AllDay: isMidnight(start) && isMidnight(end),
	}
	if summary, err := ve.Props.Text(ical.PropSummary); err == nil {
		event.Title = summary
	}
	if rruleProp := ve.Props.Get(ical.PropRecurrenceRule); rruleProp != nil && rruleProp.Value != "" {
		event.RecurrenceRule = rruleProp.Value
	}
	return event, true
}

func decodeExceptions(ve ical.Event, parentID string) []recurrence.Exception {
	var out []recurrence.Exception
	for _, prop := range ve.Props[ical.PropExceptionDates] {
		for _, value := range strings.Split(prop.Value, ",") {
			ts, err := parseICalTime(strings.TrimSpace(value))
			if err != nil {
				continue
			}
			out = append(out, recurrence.Exception{
				ParentEventID: parentID,
				OriginalStart: ts,
				Status:        recurrence.ExceptionCancelled,
			})
		}
	}
	return out
}

func exdateValues(parentID string, exceptions []recurrence.Exception) []string {
	var out []string
	for _, exc := range exceptions {
		if exc.ParentEventID != parentID {
			continue
		}
		out = append(out, exc.OriginalStart.UTC().Format(dateTimeUTCLayout))
	}
	return out
}

// parseICalTime accepts the two EXDATE shapes seen in the wild: a full UTC
// timestamp and a bare date. Bare dates become midnight UTC, which the
// recurrence engine treats as matching the whole day.
func parseICalTime(value string) (time.Time, error) {
	if t, err := time.Parse(dateTimeUTCLayout, value); err == nil {
		return t, nil
	}
	return time.Parse(dateLayout, value)
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0
}
