package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

// schemaVersion is the current schema version. Increment when adding
// migrations.
const schemaVersion = 1

// migrations maps version numbers to SQL bringing the schema from
// (version-1) to (version).
var migrations = map[int]string{
	1: `
-- Per-file sorting outcomes, one row per detected file.
CREATE TABLE IF NOT EXISTS moves (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT    NOT NULL DEFAULT '',
	tracked_dir TEXT    NOT NULL,
	source      TEXT    NOT NULL,
	dest        TEXT    NOT NULL DEFAULT '',
	extension   TEXT    NOT NULL DEFAULT '',
	outcome     TEXT    NOT NULL,
	error_kind  TEXT    NOT NULL DEFAULT '',
	error       TEXT    NOT NULL DEFAULT '',
	timestamp   TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_moves_outcome ON moves(outcome);
CREATE INDEX IF NOT EXISTS idx_moves_session ON moves(session_id);
CREATE INDEX IF NOT EXISTS idx_moves_timestamp ON moves(timestamp);
`,
}

// runMigrations applies all pending schema migrations, tracking the current
// version in app_state.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS app_state (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("create app_state: %w", err)
	}

	current, err := currentVersion(db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for v := current + 1; v <= schemaVersion; v++ {
		stmt, ok := migrations[v]
		if !ok {
			return fmt.Errorf("missing migration for version %d", v)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", v, err)
		}
		if _, err := tx.Exec(stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d: %w", v, err)
		}

		now := time.Now().UTC().Format(time.RFC3339)
		_, err = tx.Exec(
			`INSERT INTO app_state (key, value, updated_at) VALUES ('schema_version', ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			strconv.Itoa(v), now,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("update schema version to %d: %w", v, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", v, err)
		}
	}
	return nil
}

func currentVersion(db *sql.DB) (int, error) {
	var value string
	err := db.QueryRow(`SELECT value FROM app_state WHERE key = 'schema_version'`).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(value)
}
