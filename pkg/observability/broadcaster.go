package observability

import (
	"context"
	"sync"

	"github.com/aretw0/tilbot/pkg/domain"
)

// Broadcaster fans state diffs out to any number of subscribers.
// Slow subscribers lose diffs rather than stall the sessions.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[chan *domain.StateDiff]struct{}
	buffer int
}

// NewBroadcaster creates a Broadcaster whose subscriber channels hold buffer diffs.
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = 16
	}
	return &Broadcaster{
		subs:   make(map[chan *domain.StateDiff]struct{}),
		buffer: buffer,
	}
}

// Subscribe returns a channel of diffs that is closed when ctx is done.
func (b *Broadcaster) Subscribe(ctx context.Context) <-chan *domain.StateDiff {
	ch := make(chan *domain.StateDiff, b.buffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	context.AfterFunc(ctx, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
	})
	return ch
}

// Publish sends diff to every subscriber without blocking.
func (b *Broadcaster) Publish(diff *domain.StateDiff) {
	if diff == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- diff:
		default:
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Hooks returns lifecycle hooks that publish every state change.
func (b *Broadcaster) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnChange: func(_ context.Context, e *domain.ChangeEvent) {
			b.Publish(domain.Diff(e.Old, e.New))
		},
	}
}
