package recurrence

import (
	"time"
)

// ExceptionStatus describes what happened to one occurrence of a series.
type ExceptionStatus string

const (
	// ExceptionCancelled means the occurrence was deleted from the series.
	ExceptionCancelled ExceptionStatus = "cancelled"
	// ExceptionOverridden means the occurrence was replaced by a standalone
	// edited event; the generated instance must be suppressed so the two
	// never render side by side.
	ExceptionOverridden ExceptionStatus = "overridden"
)

// Event is the base entity a series is expanded from. Start and End define
// one canonical occurrence and its duration. RecurrenceRule holds the RRULE
// body (without the "RRULE:" prefix); an empty string means the event does
// not repeat.
type Event struct {
	ID             string
	Title          string
	Start          time.Time
	End            time.Time
	RecurrenceRule string
	AllDay         bool
}

// Exception suppresses one generated occurrence of a recurring event.
type Exception struct {
	ParentEventID string
	OriginalStart time.Time
	Status        ExceptionStatus
}

// Instance is a single concrete occurrence produced by expansion. It is a
// view, not a stored entity: it is rebuilt on every call and carries enough
// linkage (ParentEventID, OccurrenceStart) for the caller to tell "edit this
// instance" apart from "edit the series".
type Instance struct {
	ID                  string
	Title               string
	Start               time.Time
	End                 time.Time
	AllDay              bool
	IsRecurringInstance bool
	ParentEventID       string
	OccurrenceStart     time.Time
}

// ExpandOptions controls how recurrence expansion behaves.
type ExpandOptions struct {
	// MaxInstances is a hard safety bound against runaway generation.
	MaxInstances int
	// CountHorizon bounds generation for COUNT-limited rules; the count
	// itself truncates the series well before this in practice.
	CountHorizon time.Duration
	// OpenEndedHorizon is the minimum look-ahead past the event's own start
	// for rules with no UNTIL and no COUNT.
	OpenEndedHorizon time.Duration
}

// DefaultExpandOptions provides sensible defaults for expansion.
var DefaultExpandOptions = ExpandOptions{
	MaxInstances:     365,
	CountHorizon:     5 * 365 * 24 * time.Hour,
	OpenEndedHorizon: 365 * 24 * time.Hour,
}
