package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Operation is the persisted record of an in-flight (or interrupted) batch
// job. At most one exists: the table is constrained to a single row, which
// is the run lock's durable counterpart. Completion deletes the row; an
// existing row at startup means a job was interrupted and can be resumed.
type Operation struct {
	// EntryID identifies the entry whose favoriters are being processed.
	EntryID string
	// Action is the relation applied to each user ("mute" or "block").
	Action string
	// ProcessedUsers holds folded usernames in completion order.
	ProcessedUsers []string
	// TotalUserCount is the size of the full target list, fixed at start.
	TotalUserCount int
	// UpdatedAt is the last write time in epoch milliseconds. Display and
	// debugging only; the runner never expires on it.
	UpdatedAt int64
}

// Processed reports whether a folded username is already in the record.
func (o *Operation) Processed(username string) bool {
	for _, u := range o.ProcessedUsers {
		if u == username {
			return true
		}
	}
	return false
}

// SaveOperation upserts the single operation row.
func (s *Store) SaveOperation(ctx context.Context, op *Operation) error {
	users, err := json.Marshal(op.ProcessedUsers)
	if err != nil {
		return fmt.Errorf("store: marshal processed users: %w", err)
	}
	op.UpdatedAt = time.Now().UnixMilli()

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO operation (id, entry_id, action, processed_users, total_user_count, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			entry_id = excluded.entry_id,
			action = excluded.action,
			processed_users = excluded.processed_users,
			total_user_count = excluded.total_user_count,
			updated_at = excluded.updated_at`,
		op.EntryID, op.Action, string(users), op.TotalUserCount, op.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("store: save operation: %w", err)
	}
	return nil
}

// LoadOperation reads the saved operation. Returns nil, nil when none exists.
func (s *Store) LoadOperation(ctx context.Context) (*Operation, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT entry_id, action, processed_users, total_user_count, updated_at
		FROM operation WHERE id = 1`)

	var op Operation
	var users string
	err := row.Scan(&op.EntryID, &op.Action, &users, &op.TotalUserCount, &op.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: load operation: %w", err)
	}
	if err := json.Unmarshal([]byte(users), &op.ProcessedUsers); err != nil {
		return nil, fmt.Errorf("store: corrupt processed users: %w", err)
	}
	return &op, nil
}

// ClearOperation deletes the saved operation, if any.
func (s *Store) ClearOperation(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM operation WHERE id = 1`); err != nil {
		return fmt.Errorf("store: clear operation: %w", err)
	}
	return nil
}
