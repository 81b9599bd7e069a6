package events

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// Dispatcher maps event types to their subscribers. Safe for concurrent use.
type Dispatcher struct {
	mu     sync.RWMutex
	byType map[string][]*Subscription
	logger *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used to report handler panics.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates an empty dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		byType: make(map[string][]*Subscription),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SubscribeOption configures a single registration.
type SubscribeOption func(*Subscription)

// WithKey sets the identity of a registration. Subscribing again with the
// same event type and key returns the existing subscription untouched.
func WithKey(key string) SubscribeOption {
	return func(s *Subscription) {
		s.key = key
	}
}

// Subscribe registers h for eventType and returns its handle.
// A nil handler yields an already-cancelled subscription.
func (d *Dispatcher) Subscribe(eventType string, h Handler, opts ...SubscribeOption) *Subscription {
	sub := &Subscription{
		id:        uuid.NewString(),
		eventType: eventType,
		handler:   h,
		owner:     d,
	}
	for _, opt := range opts {
		opt(sub)
	}

	if h == nil {
		sub.cancelled = true
		return sub
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if sub.key != "" {
		for _, existing := range d.byType[eventType] {
			if existing.key == sub.key {
				return existing
			}
		}
	}

	d.byType[eventType] = append(d.byType[eventType], sub)
	return sub
}

// Dispatch delivers ev to every handler registered for ev.Type when the call
// starts. Handlers run synchronously; a panic in one is logged and skipped.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	d.mu.RLock()
	subs := slices.Clone(d.byType[ev.Type])
	d.mu.RUnlock()

	for _, sub := range subs {
		d.invoke(ctx, sub, ev)
	}
}

// Len returns the number of handlers registered for eventType.
func (d *Dispatcher) Len(eventType string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byType[eventType])
}

// Types returns the event types that currently have subscribers.
func (d *Dispatcher) Types() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	types := make([]string, 0, len(d.byType))
	for t := range d.byType {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// Clear cancels every subscription.
func (d *Dispatcher) Clear() {
	d.mu.Lock()
	all := d.byType
	d.byType = make(map[string][]*Subscription)
	d.mu.Unlock()

	for _, subs := range all {
		for _, sub := range subs {
			sub.markCancelled()
		}
	}
}

func (d *Dispatcher) invoke(ctx context.Context, sub *Subscription, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.LogAttrs(ctx, slog.LevelError, "event handler panicked",
				logger.Component("events"),
				logger.EventType(ev.Type),
				slog.String("subscription_id", sub.id),
				logger.Error(fmt.Errorf("panic: %v", r)),
			)
		}
	}()
	sub.handler(ctx, ev)
}

func (d *Dispatcher) remove(sub *Subscription) {
	d.mu.Lock()
	defer d.mu.Unlock()

	subs := d.byType[sub.eventType]
	idx := slices.Index(subs, sub)
	if idx < 0 {
		return
	}
	subs = slices.Delete(subs, idx, idx+1)
	if len(subs) == 0 {
		delete(d.byType, sub.eventType)
		return
	}
	d.byType[sub.eventType] = subs
}
