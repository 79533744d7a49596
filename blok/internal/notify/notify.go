// Package notify carries best-effort progress notifications from the job
// runner to whoever is watching: stdout, SSE subscribers, or test callbacks.
// Delivery is at-most-once and never blocks the runner.
package notify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Message types, themed for the receiving UI.
const (
	TypeInfo    = "info"
	TypeSuccess = "success"
	TypeWarning = "warning"
	TypeError   = "error"
)

// Progress reports how far along the batch is.
type Progress struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
}

// Notification is a single progress/status message.
type Notification struct {
	Action  string `json:"action"`
	Message string `json:"message"`
	Type    string `json:"messageType"`
	// Timeout is a display hint in seconds; zero means sticky.
	Timeout int `json:"timeout,omitempty"`
	// Progress is present while users are being processed.
	Progress *Progress `json:"progress,omitempty"`
	// Countdown is the upcoming delay in seconds, when one is about to start.
	Countdown *int `json:"countdown,omitempty"`
	// ShowStopButton hints that the job is stoppable right now.
	ShowStopButton bool `json:"showStopButton,omitempty"`
}

// Notifier receives notifications. Implementations must not block.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Func adapts a function to the Notifier interface.
type Func func(ctx context.Context, n Notification)

// Notify implements Notifier.
func (f Func) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Discard drops every notification.
var Discard Notifier = Func(func(context.Context, Notification) {})

// Multi fans a notification out to all given notifiers.
func Multi(notifiers ...Notifier) Notifier {
	return Func(func(ctx context.Context, n Notification) {
		for _, t := range notifiers {
			t.Notify(ctx, n)
		}
	})
}

type stdoutSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewStdout creates a JSON-lines sink. A nil writer means os.Stdout.
func NewStdout(w io.Writer) Notifier {
	if w == nil {
		w = os.Stdout
	}
	return &stdoutSink{enc: json.NewEncoder(w)}
}

func (s *stdoutSink) Notify(ctx context.Context, n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(n); err != nil {
		slog.Warn("notify: stdout sink write failed", "error", err)
	}
}
