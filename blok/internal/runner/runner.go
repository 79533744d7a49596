// Package runner drives the sequential batch loop: one user at a time,
// profile fetch → block → note, with persisted progress after every user so
// an interrupted run can resume. Processing is strictly sequential to stay
// under the site's rate limits.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sozlukcu/eksiblok/blok/internal/notify"
	"github.com/sozlukcu/eksiblok/blok/internal/site"
	"github.com/sozlukcu/eksiblok/blok/internal/store"
	"github.com/sozlukcu/eksiblok/retry"
)

// Site is the slice of the site client the runner needs.
type Site interface {
	ProfileUserID(ctx context.Context, userURL string) (int64, error)
	Block(ctx context.Context, userID int64, action site.Action) error
	AddNote(ctx context.Context, username string, userID int64, note string) error
	EntryLink(entryID string) string
}

// StateStore persists the operation record and the event log.
type StateStore interface {
	SaveOperation(ctx context.Context, op *store.Operation) error
	ClearOperation(ctx context.Context) error
	LogEvent(ctx context.Context, ev store.Event)
}

// Config tunes the loop.
type Config struct {
	// RequestDelay is the pause between users. Default: 7s.
	RequestDelay time.Duration `yaml:"request_delay"`
	// RetryDelay is the backoff base for remote calls and the cooldown
	// after a failed user. Default: 5s.
	RetryDelay time.Duration `yaml:"retry_delay"`
	// MaxRetries is the attempt count per remote call. Default: 3.
	MaxRetries int `yaml:"max_retries"`
	// MaxErrors is the cumulative per-user failure budget before the whole
	// job gives up. Default: 10.
	MaxErrors int `yaml:"max_errors"`
	// SettleDelay is the pause between announcing the job and starting the
	// loop. Default: 2s.
	SettleDelay time.Duration `yaml:"settle_delay"`
	// NoteTemplate is the annotation template. Default: site.DefaultNoteTemplate.
	NoteTemplate string `yaml:"note_template"`

	// Now and Sleep are test hooks. Defaults: time.Now and a context-aware
	// timer sleep.
	Now   func() time.Time                                 `yaml:"-"`
	Sleep func(ctx context.Context, d time.Duration) error `yaml:"-"`
}

func (c *Config) defaults() {
	if c.RequestDelay <= 0 {
		c.RequestDelay = 7 * time.Second
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 5 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.MaxErrors <= 0 {
		c.MaxErrors = 10
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 2 * time.Second
	}
	if c.NoteTemplate == "" {
		c.NoteTemplate = site.DefaultNoteTemplate
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Sleep == nil {
		c.Sleep = sleep
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Outcome is how a run ended.
type Outcome int

const (
	// Completed: the queue was exhausted; the saved state is cleared.
	Completed Outcome = iota
	// Aborted: stop was requested; the saved state remains for resume.
	Aborted
	// Failed: the error budget ran out; the saved state remains for resume.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Result summarises a finished run.
type Result struct {
	Outcome Outcome
	// Processed is the total size of the processed set, including users
	// carried over from a resumed record.
	Processed int
	// Errors is the number of users that failed in this run.
	Errors int
}

// Runner executes one batch job. It holds no cross-run state; the service
// layer owns the run lock and constructs a Runner per run.
type Runner struct {
	site   Site
	store  StateStore
	notify notify.Notifier
	logger *slog.Logger
	config Config
}

// New creates a Runner.
func New(s Site, st StateStore, n notify.Notifier, cfg Config, logger *slog.Logger) *Runner {
	cfg.defaults()
	if n == nil {
		n = notify.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{site: s, store: st, notify: n, logger: logger, config: cfg}
}

// Run processes every URL in userURLs that is not already in op's processed
// set, in list order. op must be persisted by the caller before Run; Run
// persists it again after each completed user. Cancel ctx to stop the run
// cooperatively: the cancellation is observed at iteration boundaries and
// around delays, never mid-call.
//
// A non-nil error means the run died unexpectedly (persistence failure); the
// caller owns last-resort state saving and user notification for that case.
func (r *Runner) Run(ctx context.Context, runID string, op *store.Operation, userURLs []string, postTitle string) (Result, error) {
	cfg := r.config
	action := site.Action(op.Action)

	pending := 0
	for _, u := range userURLs {
		if !op.Processed(site.FoldUsername(site.UsernameFromURL(u))) {
			pending++
		}
	}

	r.notify.Notify(ctx, notify.Notification{
		Action:         "batch-start",
		Message:        fmt.Sprintf("%d kullanıcı işlenecek", pending),
		Type:           notify.TypeInfo,
		Progress:       &notify.Progress{Processed: len(op.ProcessedUsers), Total: op.TotalUserCount},
		ShowStopButton: true,
	})
	r.logger.Info("batch run starting",
		"run_id", runID, "entry_id", op.EntryID, "action", op.Action,
		"pending", pending, "already_processed", len(op.ProcessedUsers))

	if err := cfg.Sleep(ctx, cfg.SettleDelay); err != nil {
		return r.finishAborted(ctx, runID, op)
	}

	errors := 0
	remaining := pending

	for _, userURL := range userURLs {
		if ctx.Err() != nil {
			return r.finishAborted(ctx, runID, op)
		}

		rawName := site.UsernameFromURL(userURL)
		foldedName := site.FoldUsername(rawName)
		if op.Processed(foldedName) {
			continue
		}
		remaining--

		countdown := int(cfg.RequestDelay / time.Second)
		r.notify.Notify(ctx, notify.Notification{
			Action:         "batch-progress",
			Message:        fmt.Sprintf("@%s işleniyor (%d/%d)", rawName, len(op.ProcessedUsers)+1, op.TotalUserCount),
			Type:           notify.TypeInfo,
			Progress:       &notify.Progress{Processed: len(op.ProcessedUsers), Total: op.TotalUserCount},
			Countdown:      &countdown,
			ShowStopButton: true,
		})

		if err := r.processUser(ctx, op, userURL, rawName, postTitle); err != nil {
			// A cancelled run interrupts the in-flight call; that is the
			// stop being observed, not a failure of this user.
			if ctx.Err() != nil {
				return r.finishAborted(ctx, runID, op)
			}
			errors++
			r.logger.Warn("user failed", "run_id", runID, "user", rawName, "errors", errors, "error", err)
			r.store.LogEvent(ctx, store.Event{
				RunID: runID, EntryID: op.EntryID, Action: op.Action,
				Type: "user_failed", Username: foldedName, Detail: err.Error(),
			})
			r.notify.Notify(ctx, notify.Notification{
				Action:  "batch-progress",
				Message: fmt.Sprintf("@%s işlenemedi, devam ediliyor (%d. hata)", rawName, errors),
				Type:    notify.TypeWarning,
				Timeout: 5,
			})

			if errors >= cfg.MaxErrors {
				return r.finishFailed(ctx, runID, op, errors)
			}
			if err := cfg.Sleep(ctx, cfg.RetryDelay); err != nil {
				return r.finishAborted(ctx, runID, op)
			}
			continue
		}

		op.ProcessedUsers = append(op.ProcessedUsers, foldedName)
		if err := r.store.SaveOperation(ctx, op); err != nil {
			return Result{Outcome: Aborted, Processed: len(op.ProcessedUsers), Errors: errors},
				fmt.Errorf("runner: persist progress: %w", err)
		}
		r.store.LogEvent(ctx, store.Event{
			RunID: runID, EntryID: op.EntryID, Action: op.Action,
			Type: "user_blocked", Username: foldedName, Success: true,
		})
		r.notify.Notify(ctx, notify.Notification{
			Action:         "batch-progress",
			Message:        fmt.Sprintf("@%s %s (%d/%d)", rawName, action.Label(), len(op.ProcessedUsers), op.TotalUserCount),
			Type:           notify.TypeInfo,
			Progress:       &notify.Progress{Processed: len(op.ProcessedUsers), Total: op.TotalUserCount},
			ShowStopButton: true,
		})

		if remaining > 0 {
			r.notify.Notify(ctx, notify.Notification{
				Action:         "batch-countdown",
				Message:        fmt.Sprintf("sonraki kullanıcı %d saniye içinde", countdown),
				Type:           notify.TypeInfo,
				Countdown:      &countdown,
				ShowStopButton: true,
			})
			if err := cfg.Sleep(ctx, cfg.RequestDelay); err != nil {
				return r.finishAborted(ctx, runID, op)
			}
			if ctx.Err() != nil {
				return r.finishAborted(ctx, runID, op)
			}
		}
	}

	return r.finishCompleted(ctx, runID, op, errors)
}

// processUser performs the two-step remote action for one user. Only the
// block and note calls are retried; the profile fetch failing fails the user.
func (r *Runner) processUser(ctx context.Context, op *store.Operation, userURL, username, postTitle string) error {
	action := site.Action(op.Action)

	userID, err := r.site.ProfileUserID(ctx, userURL)
	if err != nil {
		return err
	}

	rcfg := retry.Config{
		MaxAttempts: r.config.MaxRetries,
		BaseDelay:   r.config.RetryDelay,
		Logger:      r.logger,
		Sleep:       r.config.Sleep,
	}

	if _, err := retry.Do(ctx, rcfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.site.Block(ctx, userID, action)
	}); err != nil {
		return fmt.Errorf("block %s: %w", username, err)
	}

	note := site.RenderNote(r.config.NoteTemplate, postTitle, action, r.site.EntryLink(op.EntryID), r.config.Now())
	if _, err := retry.Do(ctx, rcfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.site.AddNote(ctx, username, userID, note)
	}); err != nil {
		return fmt.Errorf("note %s: %w", username, err)
	}
	return nil
}

func (r *Runner) finishCompleted(ctx context.Context, runID string, op *store.Operation, errors int) (Result, error) {
	action := site.Action(op.Action)
	if err := r.store.ClearOperation(ctx); err != nil {
		return Result{Outcome: Completed, Processed: len(op.ProcessedUsers), Errors: errors},
			fmt.Errorf("runner: clear state: %w", err)
	}
	r.store.LogEvent(ctx, store.Event{
		RunID: runID, EntryID: op.EntryID, Action: op.Action, Type: "completed", Success: true,
	})
	r.notify.Notify(ctx, notify.Notification{
		Action:  "batch-complete",
		Message: fmt.Sprintf("işlem tamamlandı: %d kullanıcı %s", len(op.ProcessedUsers), action.Label()),
		Type:    notify.TypeSuccess,
		Timeout: 10,
	})
	r.logger.Info("batch run completed", "run_id", runID, "processed", len(op.ProcessedUsers), "errors", errors)
	return Result{Outcome: Completed, Processed: len(op.ProcessedUsers), Errors: errors}, nil
}

// finishAborted persists state for a later resume. The save uses a fresh
// context: the run's context is already cancelled.
func (r *Runner) finishAborted(ctx context.Context, runID string, op *store.Operation) (Result, error) {
	saveCtx := context.WithoutCancel(ctx)
	if err := r.store.SaveOperation(saveCtx, op); err != nil {
		return Result{Outcome: Aborted, Processed: len(op.ProcessedUsers)},
			fmt.Errorf("runner: persist on abort: %w", err)
	}
	r.store.LogEvent(saveCtx, store.Event{
		RunID: runID, EntryID: op.EntryID, Action: op.Action, Type: "aborted",
	})
	r.notify.Notify(saveCtx, notify.Notification{
		Action:  "batch-stopped",
		Message: fmt.Sprintf("işlem durduruldu, %d/%d kullanıcıda kaldı; devam edilebilir", len(op.ProcessedUsers), op.TotalUserCount),
		Type:    notify.TypeWarning,
		Timeout: 10,
	})
	r.logger.Info("batch run aborted", "run_id", runID, "processed", len(op.ProcessedUsers))
	return Result{Outcome: Aborted, Processed: len(op.ProcessedUsers)}, nil
}

func (r *Runner) finishFailed(ctx context.Context, runID string, op *store.Operation, errors int) (Result, error) {
	saveCtx := context.WithoutCancel(ctx)
	if err := r.store.SaveOperation(saveCtx, op); err != nil {
		return Result{Outcome: Failed, Processed: len(op.ProcessedUsers), Errors: errors},
			fmt.Errorf("runner: persist on failure: %w", err)
	}
	r.store.LogEvent(saveCtx, store.Event{
		RunID: runID, EntryID: op.EntryID, Action: op.Action, Type: "failed",
		Detail: fmt.Sprintf("%d hata", errors),
	})
	r.notify.Notify(saveCtx, notify.Notification{
		Action:  "batch-error",
		Message: fmt.Sprintf("çok fazla hata (%d), işlem durduruldu; devam edilebilir", errors),
		Type:    notify.TypeError,
	})
	r.logger.Error("batch run failed: error budget exhausted", "run_id", runID, "errors", errors)
	return Result{Outcome: Failed, Processed: len(op.ProcessedUsers), Errors: errors}, nil
}
