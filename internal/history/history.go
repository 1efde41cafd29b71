// Package history persists a per-step record of every build in SQLite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Status values recorded for a step or a whole build.
const (
	StatusStarted  = "started"
	StatusSuccess  = "success"
	StatusSkipped  = "skipped"
	StatusFailed   = "failed"
	StatusCanceled = "canceled"
)

// StepBuild is the pseudo-step used for the overall build outcome.
const StepBuild = "build-run"

// ErrClosed is returned when the store is used after Close.
var ErrClosed = errors.New("history store closed")

// Event is one history row.
type Event struct {
	ID      int64
	BuildID string
	Project string
	Version string
	Format  string
	Step    string
	Status  string
	Message string
	Time    time.Time
}

// Store implements build history on top of SQLite.
type Store struct {
	mu sync.RWMutex
	db *sql.DB
}

// NewBuildID returns a fresh random build identifier.
func NewBuildID() string {
	return uuid.NewString()
}

// Open opens (creating if needed) the history database at path.
// Use ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if path == ":memory:" {
		// each connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS build_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		project TEXT NOT NULL,
		version TEXT NOT NULL,
		format TEXT NOT NULL,
		step TEXT NOT NULL,
		status TEXT NOT NULL,
		message TEXT,
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_build_events_build_id ON build_events(build_id);
	CREATE INDEX IF NOT EXISTS idx_build_events_timestamp ON build_events(timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append stores e. A zero Time is replaced by the current time.
func (s *Store) Append(ctx context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}
	if e.BuildID == "" {
		return errors.New("history event requires a build id")
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO build_events (build_id, project, version, format, step, status, message, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.BuildID, e.Project, e.Version, e.Format, e.Step, e.Status, e.Message, e.Time.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ByBuild returns every event of one build in insertion order.
func (s *Store) ByBuild(ctx context.Context, buildID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, build_id, project, version, format, step, status, message, timestamp
		 FROM build_events WHERE build_id = ? ORDER BY id`,
		buildID,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// Recent returns the build-level outcome events of the last limit builds,
// newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, build_id, project, version, format, step, status, message, timestamp
		 FROM build_events WHERE step = ? AND status != ? ORDER BY id DESC LIMIT ?`,
		StepBuild, StatusStarted, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var e Event
		var msg sql.NullString
		var ts int64
		if err := rows.Scan(&e.ID, &e.BuildID, &e.Project, &e.Version, &e.Format, &e.Step, &e.Status, &msg, &ts); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Message = msg.String
		e.Time = time.Unix(0, ts)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return events, nil
}

// Close closes the database connection. Closing twice is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
