// Package store is the SQLite move journal: every per-file outcome of a
// tracking session is recorded so status and history queries work without
// the daemon having to keep anything in memory.
package store

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver.

	"autosort/internal/watcher"
)

// Store wraps the SQLite journal.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the journal at dbPath with WAL mode and a 5-second
// busy timeout, then runs any pending migrations.
func New(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("check journal mode: %w", err)
	}
	if journalMode != "wal" {
		_ = db.Close()
		return nil, fmt.Errorf("expected WAL journal mode, got %q", journalMode)
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// MoveRecord is one journal row.
type MoveRecord struct {
	ID        int64
	SessionID string
	Dir       string
	Source    string
	Dest      string
	Extension string
	Outcome   string
	ErrorKind string
	Error     string
	Timestamp time.Time
}

// Record writes one outcome under the given session id.
func (s *Store) Record(sessionID string, o watcher.Outcome) error {
	errText := ""
	if o.Err != nil {
		errText = o.Err.Error()
	}
	ts := o.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO moves (session_id, tracked_dir, source, dest, extension, outcome, error_kind, error, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, o.Dir, o.Source, o.Dest,
		strings.ToLower(filepath.Ext(o.Source)),
		string(o.Kind), string(o.ErrKind), errText,
		ts.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert move: %w", err)
	}
	return nil
}

// Counts returns the number of journal rows per outcome kind.
func (s *Store) Counts() (map[string]int64, error) {
	rows, err := s.db.Query(`SELECT outcome, COUNT(*) FROM moves GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("count moves: %w", err)
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var outcome string
		var n int64
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		counts[outcome] = n
	}
	return counts, rows.Err()
}

// Recent returns the newest journal rows, most recent first.
func (s *Store) Recent(limit int) ([]MoveRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, session_id, tracked_dir, source, dest, extension, outcome, error_kind, error, timestamp
		 FROM moves ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query moves: %w", err)
	}
	defer rows.Close()

	var records []MoveRecord
	for rows.Next() {
		var r MoveRecord
		var ts string
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Dir, &r.Source, &r.Dest,
			&r.Extension, &r.Outcome, &r.ErrorKind, &r.Error, &ts); err != nil {
			return nil, err
		}
		r.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		records = append(records, r)
	}
	return records, rows.Err()
}

// DBSizeBytes approximates the journal size as page_count * page_size.
func (s *Store) DBSizeBytes() (int64, error) {
	var pageCount, pageSize int64
	if err := s.db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0, err
	}
	if err := s.db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0, err
	}
	return pageCount * pageSize, nil
}

// SessionJournal binds a Store to one tracking session so it satisfies the
// logging.Journal interface.
type SessionJournal struct {
	store     *Store
	sessionID string
}

// Journal returns a journal scoped to sessionID.
func (s *Store) Journal(sessionID string) *SessionJournal {
	return &SessionJournal{store: s, sessionID: sessionID}
}

// RecordOutcome writes one outcome for the bound session.
func (j *SessionJournal) RecordOutcome(o watcher.Outcome) error {
	return j.store.Record(j.sessionID, o)
}
