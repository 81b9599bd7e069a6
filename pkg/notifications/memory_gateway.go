package notifications

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryGateway is an in-memory Gateway holding a single user's history.
// Suitable for development, demos and testing.
type MemoryGateway struct {
	notifications []Notification
	now           func() time.Time
	mu            sync.RWMutex
}

// NewMemoryGateway creates a gateway seeded with the given notifications.
func NewMemoryGateway(seed ...Notification) *MemoryGateway {
	g := &MemoryGateway{now: time.Now}
	for _, n := range seed {
		_ = g.Create(context.Background(), n)
	}
	return g
}

// Create stores a notification as if the server had produced it.
func (g *MemoryGateway) Create(_ context.Context, n Notification) error {
	if n.ID == "" {
		return ErrInvalidNotification
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if n.CreatedAt.IsZero() {
		n.CreatedAt = g.now()
	}
	if n.Severity == "" {
		n.Severity = SeverityInfo
	}
	g.notifications = slices.DeleteFunc(g.notifications, func(x Notification) bool { return x.ID == n.ID })
	g.notifications = append(g.notifications, n)
	return nil
}

// live returns non-expired notifications, newest first.
// Must be called with lock held.
func (g *MemoryGateway) live() []Notification {
	now := g.now()
	out := make([]Notification, 0, len(g.notifications))
	for _, n := range g.notifications {
		if !n.IsExpired(now) {
			out = append(out, n)
		}
	}
	slices.SortStableFunc(out, func(a, b Notification) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

func (g *MemoryGateway) List(_ context.Context, page, limit int) (Page, error) {
	if page < 1 {
		return Page{}, ErrInvalidPage
	}
	limit = cmp.Or(max(limit, 0), 10)

	g.mu.RLock()
	defer g.mu.RUnlock()

	all := g.live()
	start := min((page-1)*limit, len(all))
	end := min(start+limit, len(all))

	return Page{
		Notifications:      slices.Clone(all[start:end]),
		CurrentPage:        page,
		TotalPages:         (len(all) + limit - 1) / limit,
		TotalNotifications: len(all),
	}, nil
}

func (g *MemoryGateway) ListUnread(context.Context) ([]Notification, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return slices.DeleteFunc(g.live(), func(n Notification) bool { return n.Read }), nil
}

func (g *MemoryGateway) MarkAsRead(_ context.Context, id string) (Notification, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := range g.notifications {
		if g.notifications[i].ID == id {
			g.notifications[i].Read = true
			return g.notifications[i], nil
		}
	}
	return Notification{}, ErrNotificationNotFound
}

func (g *MemoryGateway) MarkAllAsRead(context.Context) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	count := 0
	for i := range g.notifications {
		if !g.notifications[i].Read {
			g.notifications[i].Read = true
			count++
		}
	}
	return count, nil
}

func (g *MemoryGateway) Delete(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	before := len(g.notifications)
	g.notifications = slices.DeleteFunc(g.notifications, func(n Notification) bool { return n.ID == id })
	if len(g.notifications) == before {
		return ErrNotificationNotFound
	}
	return nil
}

func (g *MemoryGateway) DeleteRead(context.Context) (DeleteResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	before := len(g.notifications)
	g.notifications = slices.DeleteFunc(g.notifications, func(n Notification) bool { return n.Read })
	count := before - len(g.notifications)
	return DeleteResult{Count: count, Message: "read notifications deleted"}, nil
}

// Len returns the number of stored notifications, including expired ones.
func (g *MemoryGateway) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.notifications)
}

var _ Gateway = (*MemoryGateway)(nil)
