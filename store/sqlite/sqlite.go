/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements every persistence interface of the service (users, leaves,
  holidays, feedback) on a single SQLite database.

INTERFACES IMPLEMENTED:
  generic.UserStore:       Accounts
  generic.LeaveStore:      Leave records, read by the quota checker
  generic.HolidayStore:    Holidays (also a generic.HolidayCalendar)
  generic.FeedbackStore:   Feedback entries

KEY TABLES:
  users:    one row per account; email and roll_number unique
  leaves:   one row per request; selected_dates is a JSON array of days
  holidays: one row per date (date is unique)
  feedback: one row per submission

ENCODING:
  Timestamps are fixed-width RFC3339 strings in UTC with nanoseconds,
  calendar days are "2006-01-02". Both sort lexically in time order.

INDEXES:
  - idx_leaves_user_status: the quota checker's per-user scan (hot path)
  - idx_leaves_status_submitted: admin listings

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. An in-memory database is limited to
  one connection, since every connection to ":memory:" is a separate
  database.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/eleave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
  - store/mongo: Alternative leave store
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/eleave/leave-engine/generic"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ generic.UserStore     = (*Store)(nil)
	_ generic.LeaveStore    = (*Store)(nil)
	_ generic.HolidayStore  = (*Store)(nil)
	_ generic.FeedbackStore = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", generic.ErrStoreUnavailable, err)
	}
	return nil
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('student', 'admin')),
		stream TEXT,
		roll_number TEXT UNIQUE,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS leaves (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		user_name TEXT NOT NULL,
		user_email TEXT,
		roll_number TEXT,
		stream TEXT,
		leave_type TEXT,
		reason TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending'
			CHECK (status IN ('pending', 'approved', 'rejected')),
		kind TEXT NOT NULL CHECK (kind IN ('range', 'calendar')),
		start_date TEXT,
		end_date TEXT,
		selected_dates TEXT,
		submitted_at TEXT NOT NULL,
		decided_at TEXT,
		decided_by TEXT
	);

	-- Quota checks scan one user's approved leaves (hot path)
	CREATE INDEX IF NOT EXISTS idx_leaves_user_status
		ON leaves(user_id, status, decided_at);

	-- Admin listings filter by status and sort by submission
	CREATE INDEX IF NOT EXISTS idx_leaves_status_submitted
		ON leaves(status, submitted_at DESC);

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		description TEXT,
		recurring BOOLEAN NOT NULL DEFAULT FALSE,
		created_by TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS feedback (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		user_name TEXT NOT NULL,
		user_role TEXT NOT NULL,
		category TEXT NOT NULL,
		rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
		subject TEXT NOT NULL,
		message TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'new',
		admin_response TEXT,
		responded_by TEXT,
		responded_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_feedback_user
		ON feedback(user_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_feedback_status
		ON feedback(status, created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Reset removes all data.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"feedback", "holidays", "leaves", "users"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return nil
}

// Helper functions

// timeLayout is RFC3339Nano without trailing-zero trimming, so stored
// values have a fixed width.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func formatTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timeLayout), Valid: true}
}

func parseTime(ns sql.NullString) time.Time {
	if !ns.Valid || ns.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, ns.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatDay(tp generic.TimePoint) sql.NullString {
	return nullString(tp.String())
}

func parseDay(ns sql.NullString) generic.TimePoint {
	if !ns.Valid {
		return generic.TimePoint{}
	}
	tp, err := generic.ParseDate(ns.String)
	if err != nil {
		return generic.TimePoint{}
	}
	return tp
}

// uniqueViolation reports whether err is a UNIQUE constraint failure,
// and on which "table.column".
func uniqueViolation(err error) (string, bool) {
	var se sqlite3.Error
	if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
		msg := se.Error()
		if i := strings.Index(msg, "failed: "); i >= 0 {
			return msg[i+len("failed: "):], true
		}
		return "", true
	}
	return "", false
}

// wrapUnavailable tags driver errors so callers may retry them.
func wrapUnavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, generic.ErrStoreUnavailable, err)
}
