// Package blok batch-blocks (or mutes) every user who favorited an Ekşi
// Sözlük entry. The heart is a resumable, rate-limited sequential job:
// progress is persisted after every user, so an interrupted run (crash,
// restart, or explicit stop) picks up where it left off. At most one job
// runs per process, and the control API plus an SSE stream stand in for the
// original foreground messaging.
package blok

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/sozlukcu/eksiblok/blok/internal/notify"
	"github.com/sozlukcu/eksiblok/blok/internal/runner"
	"github.com/sozlukcu/eksiblok/blok/internal/site"
	"github.com/sozlukcu/eksiblok/blok/internal/store"
)

// Service owns the single-job run lock and wires the site client, the
// persistence layer, and the notification fan-out together.
type Service struct {
	site      *site.Client
	store     *store.Store
	broadcast *notify.Broadcaster
	notifier  notify.Notifier
	logger    *slog.Logger
	config    *Config

	ownsDB bool

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// ServiceOption customises Service construction.
type ServiceOption func(*Service)

// WithDB injects an opened database instead of opening Config.DBPath.
// The caller keeps ownership; Close will not close an injected handle.
func WithDB(db *sql.DB) ServiceOption {
	return func(s *Service) { s.store = store.NewStore(db, s.logger) }
}

// WithNotifier adds a notifier alongside the built-in SSE broadcaster.
func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

// New creates a Service. The database is opened (and its schema applied)
// unless WithDB is given.
func New(cfg *Config, logger *slog.Logger, opts ...ServiceOption) (*Service, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		site:      site.NewClient(cfg.Site),
		broadcast: notify.NewBroadcaster(),
		logger:    logger,
		config:    cfg,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		db, err := store.Open(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		s.store = store.NewStore(db, s.logger)
		s.ownsDB = true
	}

	if cfg.EventRetentionDays > 0 {
		if err := s.store.CleanupEvents(context.Background(), cfg.EventRetentionDays); err != nil {
			logger.Warn("event log cleanup failed", "error", err)
		}
	}
	return s, nil
}

// Close releases the database handle, unless it was injected via WithDB.
func (s *Service) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.store.DB.Close()
}

// notifyAll fans out to the SSE broadcaster and any configured notifier.
func (s *Service) notifyAll(ctx context.Context, n Notification) {
	s.broadcast.Notify(ctx, n)
	if s.notifier != nil {
		s.notifier.Notify(ctx, n)
	}
}

// StartRequest describes a fresh batch job.
type StartRequest struct {
	EntryID   string
	Action    Action
	PostTitle string
	// UserURLs overrides the favorites fetch; when empty the list is
	// fetched from the site.
	UserURLs []string
}

// Start begins a fresh batch job. It fetches the favorites list (unless
// provided), persists the initial operation record, and launches the loop in
// the background. Rejected with ErrAlreadyRunning while a job is in flight
// and with ErrUnfinishedOperation while an interrupted record exists.
func (s *Service) Start(ctx context.Context, req StartRequest) error {
	if !req.Action.Valid() {
		return ErrInvalidAction
	}
	if !s.acquire() {
		s.rejectBusy(ctx)
		return ErrAlreadyRunning
	}

	saved, err := s.store.LoadOperation(ctx)
	if err != nil {
		s.release()
		return err
	}
	if saved != nil {
		s.release()
		return ErrUnfinishedOperation
	}

	userURLs := req.UserURLs
	if len(userURLs) == 0 {
		userURLs, err = s.site.FavoriteAuthors(ctx, req.EntryID)
		if err != nil {
			s.release()
			return err
		}
	}
	if len(userURLs) == 0 {
		s.release()
		return ErrNoUsers
	}

	op := &store.Operation{
		EntryID:        req.EntryID,
		Action:         string(req.Action),
		TotalUserCount: len(userURLs),
	}
	if err := s.store.SaveOperation(ctx, op); err != nil {
		s.release()
		return err
	}

	runID := uuid.NewString()
	s.store.LogEvent(ctx, store.Event{
		RunID: runID, EntryID: op.EntryID, Action: op.Action, Type: "started", Success: true,
	})
	s.launch(runID, op, userURLs, req.PostTitle)
	return nil
}

// Resume continues an interrupted job. The favorites list is re-fetched,
// since it may have grown since the interruption, and the pending queue is the
// fresh list minus the already-processed set. A re-fetch failure fails the
// whole resume.
func (s *Service) Resume(ctx context.Context, postTitle string) error {
	if !s.acquire() {
		s.rejectBusy(ctx)
		return ErrAlreadyRunning
	}

	op, err := s.store.LoadOperation(ctx)
	if err != nil {
		s.release()
		return err
	}
	if op == nil {
		s.release()
		return ErrNoSavedOperation
	}

	userURLs, err := s.site.FavoriteAuthors(ctx, op.EntryID)
	if err != nil {
		s.release()
		return err
	}

	runID := uuid.NewString()
	s.store.LogEvent(ctx, store.Event{
		RunID: runID, EntryID: op.EntryID, Action: op.Action, Type: "resumed", Success: true,
	})
	s.launch(runID, op, userURLs, postTitle)
	return nil
}

// Stop requests a cooperative stop of the running job. The loop observes the
// cancellation at its next checkpoint; an in-flight HTTP call is cancelled
// along with the run and counts as part of the stop, never as a failure of
// the user being processed. Returns false (a no-op) when nothing is running.
func (s *Service) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.cancel == nil {
		return false
	}
	s.cancel()
	return true
}

// Wait blocks until the current run finishes. Returns immediately when no
// job is running.
func (s *Service) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Favorites lists the profile URLs of everyone who favorited an entry.
// This is a dry run of what Start would process.
func (s *Service) Favorites(ctx context.Context, entryID string) ([]string, error) {
	return s.site.FavoriteAuthors(ctx, entryID)
}

// ClearSaved discards an interrupted operation record, abandoning its resume.
func (s *Service) ClearSaved(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}
	return s.store.ClearOperation(ctx)
}

// Status is a snapshot of the job state.
type Status struct {
	Running bool `json:"running"`
	// Resumable is true when an interrupted operation is saved and no job
	// is running.
	Resumable bool   `json:"resumable"`
	EntryID   string `json:"entryId,omitempty"`
	Action    string `json:"action,omitempty"`
	Processed int    `json:"processed,omitempty"`
	Total     int    `json:"total,omitempty"`
	// UpdatedAt is the last state write in epoch milliseconds.
	UpdatedAt int64 `json:"updatedAt,omitempty"`
}

// Status reports whether a job is running and the persisted progress. The
// persisted record is the single source of truth for counts: the loop is its
// only writer.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	st := &Status{Running: running}
	op, err := s.store.LoadOperation(ctx)
	if err != nil {
		return nil, err
	}
	if op != nil {
		st.Resumable = !running
		st.EntryID = op.EntryID
		st.Action = op.Action
		st.Processed = len(op.ProcessedUsers)
		st.Total = op.TotalUserCount
		st.UpdatedAt = op.UpdatedAt
	}
	return st, nil
}

// acquire takes the run lock. Returns false if a job is already running.
func (s *Service) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *Service) release() {
	s.mu.Lock()
	s.running = false
	s.cancel = nil
	s.mu.Unlock()
}

func (s *Service) rejectBusy(ctx context.Context) {
	s.notifyAll(ctx, Notification{
		Action:  "batch-rejected",
		Message: "zaten devam eden bir işlem var",
		Type:    notify.TypeWarning,
		Timeout: 5,
	})
}

// launch starts the processing loop in the background. The run lock must be
// held; launch installs the cancel func and done channel before spawning.
func (s *Service) launch(runID string, op *store.Operation, userURLs []string, postTitle string) {
	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer s.release()
		defer cancel()

		r := runner.New(s.site, s.store, notify.Func(s.notifyAll), s.config.Runner, s.logger)
		res, err := r.Run(runCtx, runID, op, userURLs, postTitle)
		if err != nil {
			// Job-level failure outside the per-user handling: persist
			// whatever we have and tell the user. Best effort on both.
			saveCtx := context.WithoutCancel(runCtx)
			if serr := s.store.SaveOperation(saveCtx, op); serr != nil {
				s.logger.Error("state save after run failure failed", "run_id", runID, "error", serr)
			}
			s.notifyAll(saveCtx, Notification{
				Action:  "batch-error",
				Message: "işlem beklenmedik bir hatayla durdu: " + err.Error(),
				Type:    notify.TypeError,
			})
			s.logger.Error("batch run died", "run_id", runID, "error", err)
			return
		}
		s.logger.Info("batch run finished",
			"run_id", runID, "outcome", res.Outcome.String(),
			"processed", res.Processed, "errors", res.Errors)
	}()
}
