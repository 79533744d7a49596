package notify

import (
	"context"
	"sync"
)

// Broadcaster fans notifications out to any number of subscribers. A slow
// subscriber loses messages rather than stalling the runner: channel sends
// are non-blocking drops.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[int]chan Notification
	next int
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan Notification)}
}

// Subscribe registers a new subscriber. The returned cancel func must be
// called when the subscriber goes away; it closes the channel.
func (b *Broadcaster) Subscribe() (<-chan Notification, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Notification, 16)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Notify implements Notifier.
func (b *Broadcaster) Notify(ctx context.Context, n Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- n:
		default: // subscriber too slow, drop
		}
	}
}
