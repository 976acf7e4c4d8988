// Package timer implements the persistent focus-timer engine: a single
// countdown state machine that survives navigation, records a focus session
// and awards experience points when it completes. The engine is an
// explicitly owned object meant to be injected wherever it is needed; it is
// not a package-level singleton, so tests and multi-user setups can hold
// independent instances.
package timer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/mo"
)

// DefaultDuration is the session length a fresh engine starts with.
const DefaultDuration = 25 * time.Minute

// MinDuration is the floor SetDuration clamps to.
const MinDuration = time.Minute

// State is a read-only snapshot of the countdown.
type State struct {
	Active   bool
	TimeLeft int // seconds
	Duration int // seconds
	TaskID   mo.Option[string]
}

// EventType identifies what an Event reports.
type EventType string

const (
	EventStarted   EventType = "started"
	EventPaused    EventType = "paused"
	EventReset     EventType = "reset"
	EventTick      EventType = "tick"
	EventCompleted EventType = "completed"
)

// Event is a timer update delivered to observers.
type Event struct {
	Type      EventType
	State     State
	Minutes   int // completed sessions only
	XPAwarded int // completed sessions only
	At        time.Time
}

// Deps are the external collaborators the engine drives on completion.
// A nil field disables that side effect.
type Deps struct {
	Ledger   SessionLedger
	Profile  ProfileStore
	Notifier Notifier
}

// Options contains runtime options for the engine.
type Options struct {
	// DefaultDuration is the initial session length. Defaults to 25 minutes.
	DefaultDuration time.Duration
	// TickInterval is how often one countdown second elapses. Defaults to
	// one wall-clock second; tests compress it.
	TickInterval time.Duration
	// XPPerMinute overrides the reward rate. Defaults to DefaultXPPerMinute.
	XPPerMinute int
	// Clock defaults to the wall clock.
	Clock Clock
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Engine is the focus-timer state machine. All methods are safe for
// concurrent use.
type Engine struct {
	mu          sync.Mutex
	active      bool
	completing  bool
	timeLeft    int
	duration    int
	taskID      mo.Option[string]
	tickStop    chan struct{}
	subscribers []chan Event
	closed      bool

	deps         Deps
	clock        Clock
	tickInterval time.Duration
	xpPerMinute  int
	logger       *slog.Logger
}

// New creates an Engine in the paused state with a full countdown.
func New(deps Deps, opts Options) *Engine {
	if opts.DefaultDuration < MinDuration {
		opts.DefaultDuration = DefaultDuration
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.XPPerMinute <= 0 {
		opts.XPPerMinute = DefaultXPPerMinute
	}
	if opts.Clock == nil {
		opts.Clock = NewWallClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	seconds := int(opts.DefaultDuration / time.Second)
	return &Engine{
		timeLeft:     seconds,
		duration:     seconds,
		deps:         deps,
		clock:        opts.Clock,
		tickInterval: opts.TickInterval,
		xpPerMinute:  opts.XPPerMinute,
		logger:       opts.Logger,
	}
}

// Subscribe registers a new observer channel. Events are dropped rather than
// blocking a slow observer.
func (e *Engine) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	e.mu.Lock()
	e.subscribers = append(e.subscribers, ch)
	e.mu.Unlock()
	return ch
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

// Start begins or resumes the countdown. No-op when already running, when
// nothing is left to count down, or after Close.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.closed || e.active || e.completing || e.timeLeft <= 0 {
		e.mu.Unlock()
		return
	}
	e.active = true
	e.scheduleLocked()
	state := e.stateLocked()
	e.mu.Unlock()

	e.emit(Event{Type: EventStarted, State: state, At: e.clock.Now()})
}

// Pause freezes the countdown at its current remaining time. Idempotent.
func (e *Engine) Pause() {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return
	}
	e.active = false
	e.unscheduleLocked()
	state := e.stateLocked()
	e.mu.Unlock()

	e.emit(Event{Type: EventPaused, State: state, At: e.clock.Now()})
}

// Reset stops the countdown and restores the full configured duration, from
// any state. It also clears an in-flight completion guard.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.active = false
	e.completing = false
	e.unscheduleLocked()
	e.timeLeft = e.duration
	state := e.stateLocked()
	e.mu.Unlock()

	e.emit(Event{Type: EventReset, State: state, At: e.clock.Now()})
}

// SetDuration changes the configured session length, in minutes. Rejected
// while the countdown is running so an in-progress session cannot be
// corrupted; the caller sees false and the state is unchanged. Non-positive
// input clamps to one minute. While paused, duration and remaining time
// update together.
func (e *Engine) SetDuration(minutes int) bool {
	if minutes < 1 {
		minutes = 1
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active || e.completing {
		return false
	}
	e.duration = minutes * 60
	e.timeLeft = e.duration
	return true
}

// SetTaskID links the current session to a task, or clears the link with
// mo.None. Pure metadata; allowed in any state.
func (e *Engine) SetTaskID(taskID mo.Option[string]) {
	e.mu.Lock()
	e.taskID = taskID
	e.mu.Unlock()
}

// Close stops the tick source and closes all observer channels. The engine
// must not be used afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.active = false
	e.unscheduleLocked()
	subs := e.subscribers
	e.subscribers = nil
	e.mu.Unlock()

	for _, ch := range subs {
		close(ch)
	}
}

// scheduleLocked starts the single tick source for the current run. Any
// prior source is torn down first, so state flips can never leave two
// tickers decrementing the same countdown.
func (e *Engine) scheduleLocked() {
	e.unscheduleLocked()
	stop := make(chan struct{})
	e.tickStop = stop
	ticker := e.clock.NewTicker(e.tickInterval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C():
				e.tick(now)
			}
		}
	}()
}

func (e *Engine) unscheduleLocked() {
	if e.tickStop != nil {
		close(e.tickStop)
		e.tickStop = nil
	}
}

// tick elapses one countdown second. It is the only operation that can
// trigger completion.
func (e *Engine) tick(now time.Time) {
	e.mu.Lock()
	if !e.active || e.completing {
		e.mu.Unlock()
		return
	}
	if e.timeLeft > 0 {
		e.timeLeft--
	}
	if e.timeLeft > 0 {
		state := e.stateLocked()
		e.mu.Unlock()
		e.emit(Event{Type: EventTick, State: state, At: now})
		return
	}

	// Zero-crossing. The completing flag makes the completion fire exactly
	// once even if a stale tick arrives while side effects run; it is
	// cleared synchronously when the transition finishes.
	e.completing = true
	e.active = false
	e.unscheduleLocked()
	minutes := e.duration / 60
	taskID := e.taskID
	e.mu.Unlock()

	xpAwarded := e.finishSession(minutes, taskID)

	e.mu.Lock()
	e.timeLeft = e.duration
	e.completing = false
	state := e.stateLocked()
	e.mu.Unlock()

	e.emit(Event{
		Type:      EventCompleted,
		State:     state,
		Minutes:   minutes,
		XPAwarded: xpAwarded,
		At:        now,
	})
}

// finishSession runs the completion side effects: record the session, award
// XP, notify the user. Failures are logged and swallowed; a stats or
// notification failure must never leave the timer stuck.
func (e *Engine) finishSession(minutes int, taskID mo.Option[string]) int {
	ctx := context.Background()

	if e.deps.Ledger != nil {
		if _, err := e.deps.Ledger.Record(ctx, minutes, taskID); err != nil {
			e.logger.Error("failed to record focus session",
				"minutes", minutes,
				"task_id", taskID.OrElse(""),
				"err", err)
		}
	}

	reward := RewardAt(minutes, e.xpPerMinute)
	if e.deps.Profile != nil {
		if res, err := e.deps.Profile.AddXP(ctx, reward); err != nil {
			e.logger.Error("failed to award xp", "amount", reward, "err", err)
		} else {
			e.logger.Info("focus session complete",
				"minutes", minutes,
				"xp_awarded", reward,
				"xp_total", res.NewTotal,
				"level", res.NewLevel)
		}
	}

	if e.deps.Notifier != nil {
		body := fmt.Sprintf("You focused for %d minutes and earned %d XP.", minutes, reward)
		if err := e.deps.Notifier.Notify("Focus session complete", body); err != nil {
			e.logger.Warn("failed to send completion notification", "err", err)
		}
	}

	return reward
}

func (e *Engine) stateLocked() State {
	return State{
		Active:   e.active,
		TimeLeft: e.timeLeft,
		Duration: e.duration,
		TaskID:   e.taskID,
	}
}

func (e *Engine) emit(event Event) {
	e.mu.Lock()
	subs := make([]chan Event, len(e.subscribers))
	copy(subs, e.subscribers)
	e.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}
