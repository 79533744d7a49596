package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is a job-level audit record: a state transition or a per-user action.
type Event struct {
	RunID    string
	EntryID  string
	Action   string
	Type     string // started, resumed, user_blocked, user_failed, aborted, completed, failed
	Username string
	Detail   string
	Success  bool
}

// LogEvent records a job event. Non-blocking: write failures are logged but
// never propagate, so a failing event log cannot stall the job.
func (s *Store) LogEvent(ctx context.Context, ev Event) {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO job_events (event_id, run_id, entry_id, action, event_type, username, detail, success, created_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		uuid.NewString(), ev.RunID, ev.EntryID, ev.Action, ev.Type, ev.Username, ev.Detail, ev.Success,
		time.Now().UnixMilli(),
	)
	if err != nil {
		s.logger.Error("job event log failed", "error", err, "event_type", ev.Type)
	}
}

// CountEvents returns the number of events for a run, optionally filtered by
// type ("" counts all).
func (s *Store) CountEvents(ctx context.Context, runID, eventType string) (int, error) {
	var n int
	var err error
	if eventType == "" {
		err = s.DB.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM job_events WHERE run_id = ?`, runID).Scan(&n)
	} else {
		err = s.DB.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM job_events WHERE run_id = ? AND event_type = ?`, runID, eventType).Scan(&n)
	}
	return n, err
}

// CleanupEvents deletes events older than the retention window. Zero or
// negative days disables cleanup.
func (s *Store) CleanupEvents(ctx context.Context, days int) error {
	if days <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -days).UnixMilli()
	if _, err := s.DB.ExecContext(ctx,
		`DELETE FROM job_events WHERE created_at < ?`, cutoff); err != nil {
		return fmt.Errorf("store: cleanup events: %w", err)
	}
	return nil
}
