package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// Open opens the SQLite database at path with production-safe pragmas and
// the schema applied. Parent directories are created as needed. The caller
// must blank-import the driver:
//
//	import _ "modernc.org/sqlite"
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", p, err)
		}
	}

	if err := ApplySchema(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return db, nil
}

// OpenMemory opens an in-memory database for testing. MaxOpenConns(1)
// keeps every query on the same connection (each ":memory:" connection is a
// separate database). Closed automatically via t.Cleanup.
func OpenMemory(t testing.TB) *sql.DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("store.OpenMemory: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

// ApplySchema creates the tables and indexes if they don't exist.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS operation (
			id               INTEGER PRIMARY KEY CHECK (id = 1),
			entry_id         TEXT NOT NULL,
			action           TEXT NOT NULL,
			processed_users  TEXT NOT NULL DEFAULT '[]',
			total_user_count INTEGER NOT NULL,
			updated_at       INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS job_events (
			event_id   TEXT PRIMARY KEY,
			run_id     TEXT NOT NULL,
			entry_id   TEXT NOT NULL,
			action     TEXT NOT NULL,
			event_type TEXT NOT NULL,
			username   TEXT NOT NULL DEFAULT '',
			detail     TEXT NOT NULL DEFAULT '',
			success    INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_job_events_created ON job_events (created_at);
		CREATE INDEX IF NOT EXISTS idx_job_events_run ON job_events (run_id);
	`)
	if err != nil {
		return fmt.Errorf("store: apply schema: %w", err)
	}
	return nil
}
