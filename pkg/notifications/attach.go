package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/notifykit/pkg/events"
	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// EventSource is satisfied by *events.Dispatcher and *realtime.Client.
type EventSource interface {
	Subscribe(eventType string, h events.Handler, opts ...events.SubscribeOption) *events.Subscription
}

// Attach feeds notification events from src into the store and turns
// connect_error events into warning toasts. Attaching the same store to the
// same source twice has no additional effect. The returned function detaches.
func (s *Store) Attach(src EventSource) func() {
	key := fmt.Sprintf("notifications.store.%p", s)

	push := src.Subscribe(events.TypeNotification, func(ctx context.Context, ev events.Event) {
		var n Notification
		if err := ev.Decode(&n); err != nil {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "undecodable notification event", logger.Error(err))
			return
		}
		s.HandlePush(ctx, n)
	}, events.WithKey(key))

	connErr := src.Subscribe(events.TypeConnectError, func(ctx context.Context, ev events.Event) {
		msg := "connection to the notification server failed"
		if ev.Err != nil {
			msg = ev.Err.Error()
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		s.toastLocked(Toast{Title: "Connection problem", Message: msg, Severity: SeverityWarning})
	}, events.WithKey(key))

	return func() {
		push.Cancel()
		connErr.Cancel()
	}
}
