// Package store persists the batch-job state in SQLite: the single
// operation record that makes a run resumable, plus the job event log.
package store

import (
	"database/sql"
	"log/slog"
)

// Store wraps a database handle with the job persistence queries.
type Store struct {
	DB     *sql.DB
	logger *slog.Logger
}

// NewStore creates a Store over an opened database. A nil logger means
// slog.Default().
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{DB: db, logger: logger}
}
