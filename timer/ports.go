package timer

import (
	"context"
	"time"

	"github.com/samber/mo"
)

// FocusSession is an immutable record of one completed focus session. The
// engine only ever creates these (through a SessionLedger) when a running
// countdown reaches zero; it never mutates or deletes them.
type FocusSession struct {
	ID          string
	Minutes     int
	TaskID      mo.Option[string]
	StartedAt   time.Time
	CompletedAt time.Time
}

// XPResult is the profile state after an XP award.
type XPResult struct {
	NewTotal int
	NewLevel int
}

// SessionLedger persists completed focus sessions.
type SessionLedger interface {
	// Record stores a completed session of the given length, optionally
	// linked to a task, and returns the stored record.
	Record(ctx context.Context, minutes int, taskID mo.Option[string]) (FocusSession, error)
}

// ProfileStore accumulates experience points and derives the user's level.
// Totals are cumulative and the level must be monotonic: a higher XP total
// never yields a lower level.
type ProfileStore interface {
	AddXP(ctx context.Context, amount int) (XPResult, error)
}

// Notifier delivers a user-facing message. Best effort: implementations may
// silently no-op (for instance when the user has not granted notification
// permission) and the engine tolerates any error.
type Notifier interface {
	Notify(title, body string) error
}
