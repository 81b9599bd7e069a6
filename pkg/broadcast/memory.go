package broadcast

import (
	"context"
	"sync"
)

// Option configures a MemoryBroadcaster.
type Option func(*config)

type config struct {
	bufferSize int
	overflow   OverflowPolicy
	replay     bool
}

// WithBufferSize sets each subscriber's channel capacity. Minimum 1.
func WithBufferSize(n int) Option {
	return func(c *config) {
		c.bufferSize = max(n, 1)
	}
}

// WithOverflow sets the policy applied when a subscriber's buffer is full.
// The default is Evict.
func WithOverflow(p OverflowPolicy) Option {
	return func(c *config) {
		c.overflow = p
	}
}

// WithReplayLatest delivers the most recent message to new subscribers.
func WithReplayLatest() Option {
	return func(c *config) {
		c.replay = true
	}
}

// MemoryBroadcaster is an in-process Broadcaster. Safe for concurrent use.
type MemoryBroadcaster[T any] struct {
	cfg         config
	subscribers map[*subscriber[T]]struct{}
	latest      *Message[T]
	closed      bool
	done        chan struct{}
	mu          sync.RWMutex
}

// NewMemoryBroadcaster creates a broadcaster with a 16-slot buffer per
// subscriber and the Evict policy unless options say otherwise.
func NewMemoryBroadcaster[T any](opts ...Option) *MemoryBroadcaster[T] {
	cfg := config{bufferSize: 16, overflow: Evict}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &MemoryBroadcaster[T]{
		cfg:         cfg,
		subscribers: make(map[*subscriber[T]]struct{}),
		done:        make(chan struct{}),
	}
}

// Subscribe creates a subscriber that is removed when ctx is cancelled.
// If the broadcaster is closed, the returned subscriber is already closed.
func (b *MemoryBroadcaster[T]) Subscribe(ctx context.Context) Subscriber[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := newSubscriber[T](b.cfg.bufferSize)
	if b.closed {
		_ = sub.Close()
		return sub
	}

	if b.cfg.replay && b.latest != nil {
		sub.send(*b.latest, DropOldest)
	}
	b.subscribers[sub] = struct{}{}

	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				b.unsubscribe(sub)
			case <-b.done:
			}
		}()
	}

	return sub
}

// Broadcast delivers msg to every subscriber without blocking.
func (b *MemoryBroadcaster[T]) Broadcast(_ context.Context, msg Message[T]) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if b.cfg.replay {
		b.latest = &msg
	}

	for sub := range b.subscribers {
		if !sub.send(msg, b.cfg.overflow) {
			delete(b.subscribers, sub)
			_ = sub.Close()
		}
	}
	return nil
}

// Latest returns the last broadcast message when replay is enabled.
func (b *MemoryBroadcaster[T]) Latest() (Message[T], bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.latest == nil {
		return Message[T]{}, false
	}
	return *b.latest, true
}

// Len returns the number of active subscribers.
func (b *MemoryBroadcaster[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close shuts down the broadcaster and closes all subscribers. Idempotent.
func (b *MemoryBroadcaster[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.done)
	for sub := range b.subscribers {
		_ = sub.Close()
	}
	clear(b.subscribers)
	b.mu.Unlock()

	return nil
}

func (b *MemoryBroadcaster[T]) unsubscribe(sub *subscriber[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, sub)
	_ = sub.Close()
}
