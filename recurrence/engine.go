// Package recurrence expands recurring calendar events into concrete
// instances. Calendar math (RFC 5545 RRULE evaluation) is delegated to
// github.com/teambition/rrule-go; this package orchestrates windowing,
// exception handling and instance synthesis around it.
package recurrence

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// Engine performs recurrence expansion. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	opts   ExpandOptions
	logger *slog.Logger
}

// NewEngine creates an Engine with DefaultExpandOptions.
func NewEngine(logger *slog.Logger) *Engine {
	return NewEngineWithOptions(logger, DefaultExpandOptions)
}

// NewEngineWithOptions creates an Engine with custom expansion options.
// Zero option fields fall back to the defaults.
func NewEngineWithOptions(logger *slog.Logger, opts ExpandOptions) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxInstances <= 0 {
		opts.MaxInstances = DefaultExpandOptions.MaxInstances
	}
	if opts.CountHorizon <= 0 {
		opts.CountHorizon = DefaultExpandOptions.CountHorizon
	}
	if opts.OpenEndedHorizon <= 0 {
		opts.OpenEndedHorizon = DefaultExpandOptions.OpenEndedHorizon
	}
	return &Engine{opts: opts, logger: logger}
}

// Expand produces the concrete instances of event that start within
// [rangeStart, rangeEnd], honoring exceptions.
//
// A non-recurring event always yields exactly one instance equal to the base
// event, regardless of the window. A malformed rule degrades the same way:
// a broken recurrence definition must not break calendar rendering entirely.
func (e *Engine) Expand(event Event, rangeStart, rangeEnd time.Time, exceptions []Exception) []Instance {
	if event.RecurrenceRule == "" {
		return []Instance{baseInstance(event)}
	}

	rule, err := rrule.StrToRRule(normalizeRule(event.RecurrenceRule))
	if err != nil {
		e.logger.Warn("malformed recurrence rule, treating event as non-recurring",
			"event_id", event.ID,
			"rrule", event.RecurrenceRule,
			"err", err)
		return []Instance{baseInstance(event)}
	}
	rule.DTStart(event.Start)

	windowEnd := e.generationEnd(rule.OrigOptions, event.Start, rangeEnd)

	// rrule-go cares about locations; keep the window in the event's zone.
	loc := event.Start.Location()
	occurrences := rule.Between(rangeStart.In(loc), windowEnd.In(loc), true)
	if len(occurrences) > e.opts.MaxInstances {
		occurrences = occurrences[:e.opts.MaxInstances]
	}

	duration := event.End.Sub(event.Start)
	instances := make([]Instance, 0, len(occurrences))
	for _, start := range occurrences {
		if excluded(event.ID, start, exceptions) {
			continue
		}
		instances = append(instances, Instance{
			ID:                  instanceID(event.ID, start),
			Title:               event.Title,
			Start:               start,
			End:                 start.Add(duration),
			AllDay:              event.AllDay,
			IsRecurringInstance: true,
			ParentEventID:       event.ID,
			OccurrenceStart:     start,
		})
	}
	return instances
}

// generationEnd computes how far occurrence enumeration must run. An
// explicit UNTIL bounds it naturally; a COUNT-limited rule gets a long
// horizon and lets the count truncate; an open-ended rule is generated
// through the later of one year past the event start and the caller's
// window end, so the window is always covered even for far-future queries.
// The result never exceeds the requested window.
func (e *Engine) generationEnd(opts rrule.ROption, eventStart, rangeEnd time.Time) time.Time {
	var end time.Time
	switch {
	case !opts.Until.IsZero():
		end = opts.Until
	case opts.Count > 0:
		end = eventStart.Add(e.opts.CountHorizon)
	default:
		end = eventStart.Add(e.opts.OpenEndedHorizon)
		if rangeEnd.After(end) {
			end = rangeEnd
		}
	}
	if end.After(rangeEnd) {
		end = rangeEnd
	}
	return end
}

// excluded reports whether an occurrence matches an exception for the given
// parent. Exact timestamp equality always matches; a date-only exception
// (midnight UTC) matches any occurrence on that calendar day, since synced
// calendars record cancellations of all-day occurrences that way.
func excluded(parentID string, occurrence time.Time, exceptions []Exception) bool {
	for _, exc := range exceptions {
		if exc.ParentEventID != parentID {
			continue
		}
		if occurrence.Equal(exc.OriginalStart) {
			return true
		}
		orig := exc.OriginalStart
		if orig.Hour() == 0 && orig.Minute() == 0 && orig.Second() == 0 && orig.Location() == time.UTC {
			dayStart := time.Date(
				occurrence.Year(), occurrence.Month(), occurrence.Day(),
				0, 0, 0, 0, time.UTC,
			)
			if dayStart.Equal(orig) {
				return true
			}
		}
	}
	return false
}

func baseInstance(event Event) Instance {
	return Instance{
		ID:              event.ID,
		Title:           event.Title,
		Start:           event.Start,
		End:             event.End,
		AllDay:          event.AllDay,
		ParentEventID:   event.ID,
		OccurrenceStart: event.Start,
	}
}

func instanceID(parentID string, occurrence time.Time) string {
	return fmt.Sprintf("%s-%d", parentID, occurrence.Unix())
}

// normalizeRule strips an optional "RRULE:" prefix so both raw bodies and
// full property lines are accepted.
func normalizeRule(rule string) string {
	return strings.TrimPrefix(strings.TrimSpace(rule), "RRULE:")
}
