// Package sqlite provides SQLite-backed persistence for focus sessions and
// the gamification profile. It implements the timer engine's SessionLedger
// and ProfileStore ports.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
	_ "modernc.org/sqlite"

	"github.com/lifeos-app/lifeos/timer"
)

// Store provides access to the LifeOS SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Open with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS focus_sessions (
		id TEXT PRIMARY KEY,
		minutes INTEGER NOT NULL,
		task_id TEXT,
		started_at DATETIME NOT NULL,
		completed_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_focus_sessions_completed_at
		ON focus_sessions(completed_at);

	CREATE TABLE IF NOT EXISTS profile (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		xp INTEGER NOT NULL DEFAULT 0,
		level INTEGER NOT NULL DEFAULT 1
	);

	INSERT OR IGNORE INTO profile (id, xp, level) VALUES (1, 0, 1);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("exec schema: %w", err)
	}
	return nil
}

// Record implements timer.SessionLedger.
func (s *Store) Record(ctx context.Context, minutes int, taskID mo.Option[string]) (timer.FocusSession, error) {
	if minutes < 0 {
		minutes = 0
	}

	completedAt := time.Now().UTC()
	session := timer.FocusSession{
		ID:          uuid.NewString(),
		Minutes:     minutes,
		TaskID:      taskID,
		StartedAt:   completedAt.Add(-time.Duration(minutes) * time.Minute),
		CompletedAt: completedAt,
	}

	var task *string
	if v, ok := taskID.Get(); ok {
		task = &v
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO focus_sessions (id, minutes, task_id, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?)`,
		session.ID, session.Minutes, task, session.StartedAt, session.CompletedAt)
	if err != nil {
		return timer.FocusSession{}, fmt.Errorf("insert focus session: %w", err)
	}
	return session, nil
}

// AddXP implements timer.ProfileStore. Negative amounts are treated as zero
// so the running total never decreases.
func (s *Store) AddXP(ctx context.Context, amount int) (timer.XPResult, error) {
	if amount < 0 {
		amount = 0
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return timer.XPResult{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var total int
	err = tx.QueryRowContext(ctx,
		`UPDATE profile SET xp = xp + ? WHERE id = 1 RETURNING xp`, amount).Scan(&total)
	if err != nil {
		return timer.XPResult{}, fmt.Errorf("update xp: %w", err)
	}

	level := timer.LevelForXP(total)
	if _, err := tx.ExecContext(ctx,
		`UPDATE profile SET level = ? WHERE id = 1`, level); err != nil {
		return timer.XPResult{}, fmt.Errorf("update level: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return timer.XPResult{}, fmt.Errorf("commit: %w", err)
	}
	return timer.XPResult{NewTotal: total, NewLevel: level}, nil
}

// Profile returns the current XP total and level.
func (s *Store) Profile(ctx context.Context) (timer.XPResult, error) {
	var res timer.XPResult
	err := s.db.QueryRowContext(ctx,
		`SELECT xp, level FROM profile WHERE id = 1`).Scan(&res.NewTotal, &res.NewLevel)
	if err != nil {
		return timer.XPResult{}, fmt.Errorf("query profile: %w", err)
	}
	return res, nil
}

// Sessions lists recorded focus sessions, most recent first.
func (s *Store) Sessions(ctx context.Context, limit int) ([]timer.FocusSession, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, minutes, task_id, started_at, completed_at
		 FROM focus_sessions ORDER BY completed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query focus sessions: %w", err)
	}
	defer rows.Close()

	var sessions []timer.FocusSession
	for rows.Next() {
		var (
			session timer.FocusSession
			task    sql.NullString
		)
		if err := rows.Scan(&session.ID, &session.Minutes, &task,
			&session.StartedAt, &session.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan focus session: %w", err)
		}
		if task.Valid {
			session.TaskID = mo.Some(task.String)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}
