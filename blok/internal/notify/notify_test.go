package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestStdoutSinkWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewStdout(&buf)

	cd := 7
	sink.Notify(context.Background(), Notification{
		Action:    "batch-status",
		Message:   "pena işleniyor",
		Type:      TypeInfo,
		Progress:  &Progress{Processed: 1, Total: 3},
		Countdown: &cd,
	})

	var got Notification
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Message != "pena işleniyor" || got.Progress == nil || got.Progress.Total != 3 {
		t.Errorf("got %+v", got)
	}
	if got.Countdown == nil || *got.Countdown != 7 {
		t.Errorf("countdown: got %v", got.Countdown)
	}
}

func TestMultiFansOut(t *testing.T) {
	var a, b int
	m := Multi(
		Func(func(context.Context, Notification) { a++ }),
		Func(func(context.Context, Notification) { b++ }),
	)
	m.Notify(context.Background(), Notification{Message: "x"})
	if a != 1 || b != 1 {
		t.Errorf("fan-out: a=%d b=%d, want 1 1", a, b)
	}
}

func TestBroadcasterDelivers(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Notify(context.Background(), Notification{Message: "hello"})

	select {
	case n := <-ch:
		if n.Message != "hello" {
			t.Errorf("message: got %q", n.Message)
		}
	default:
		t.Fatal("no notification delivered")
	}
}

func TestBroadcasterDropsWhenFull(t *testing.T) {
	// WHAT: A slow subscriber loses messages instead of blocking the sender.
	b := NewBroadcaster()
	ch, cancel := b.Subscribe()
	defer cancel()

	for i := 0; i < 100; i++ {
		b.Notify(context.Background(), Notification{Message: "burst"})
	}
	if len(ch) != cap(ch) {
		t.Errorf("buffered: got %d, want %d", len(ch), cap(ch))
	}
}

func TestBroadcasterCancelClosesChannel(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe()
	cancel()
	cancel() // second cancel is a no-op

	if _, ok := <-ch; ok {
		t.Error("channel should be closed")
	}

	// Notifying with no subscribers must not panic.
	b.Notify(context.Background(), Notification{Message: "x"})
}
