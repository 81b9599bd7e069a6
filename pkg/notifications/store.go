package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/broadcast"
	"github.com/dmitrymomot/notifykit/pkg/cache"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/statemachine"
)

const (
	defaultPageSize     = 10
	defaultSeenCapacity = 1024
	defaultToastBuffer  = 16
)

// Snapshot is an immutable copy of the read model.
type Snapshot struct {
	Notifications      []Notification
	UnreadCount        int
	Loading            bool
	CurrentPage        int
	TotalPages         int
	TotalNotifications int
}

// HasMore reports whether pages beyond CurrentPage exist.
func (s Snapshot) HasMore() bool {
	return s.CurrentPage < s.TotalPages
}

// StoreOption configures a Store.
type StoreOption func(*Store)

func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPageSize sets the limit sent with every page request.
func WithPageSize(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithClock overrides time.Now for expiry checks.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSeenCapacity sets how many pushed IDs are remembered for deduplication.
func WithSeenCapacity(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.seenCapacity = n
		}
	}
}

type removedEntry struct {
	n     Notification
	index int
}

// Store is the single source of truth for notification data shown to the
// user. It merges pushed notifications with pages fetched from a Gateway and
// applies user mutations optimistically, rolling them back when the server
// rejects them. Safe for concurrent use.
type Store struct {
	gateway      Gateway
	logger       *slog.Logger
	pageSize     int
	now          func() time.Time
	seenCapacity int
	seen         *cache.LRU[string, struct{}]
	snapshots    *broadcast.MemoryBroadcaster[Snapshot]
	toasts       *broadcast.MemoryBroadcaster[Toast]

	mu          sync.Mutex
	list        []Notification
	states      map[string]entryState
	known       map[string]Notification // last server-confirmed version
	removed     map[string]removedEntry // optimistically deleted, awaiting the server
	pushedAt    map[string]uint64       // generation a pushed entry arrived in
	elsewhere   map[string]struct{}     // unread on the server but not loaded
	bulkRead    int                     // MarkAllAsRead calls in flight
	currentPage int
	totalPages  int
	total       int
	inflight    int
	seq         map[int]uint64
	generation  uint64
	closed      bool
}

// NewStore creates an empty store backed by gw.
func NewStore(gw Gateway, opts ...StoreOption) *Store {
	s := &Store{
		gateway:      gw,
		logger:       slog.Default(),
		pageSize:     defaultPageSize,
		now:          time.Now,
		seenCapacity: defaultSeenCapacity,
		states:       make(map[string]entryState),
		known:        make(map[string]Notification),
		removed:      make(map[string]removedEntry),
		pushedAt:     make(map[string]uint64),
		elsewhere:    make(map[string]struct{}),
		seq:          make(map[int]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("notifications"))
	s.seen = cache.New[string, struct{}](s.seenCapacity)
	s.snapshots = broadcast.NewMemoryBroadcaster[Snapshot](
		broadcast.WithBufferSize(1),
		broadcast.WithOverflow(broadcast.DropOldest),
		broadcast.WithReplayLatest(),
	)
	s.toasts = broadcast.NewMemoryBroadcaster[Toast](
		broadcast.WithBufferSize(defaultToastBuffer),
		broadcast.WithOverflow(broadcast.DropOldest),
	)
	s.publishLocked()
	return s
}

// Snapshot returns a copy of the current read model.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe streams read model changes. The latest snapshot is delivered
// first; intermediate snapshots may be skipped for slow readers.
func (s *Store) Subscribe(ctx context.Context) broadcast.Subscriber[Snapshot] {
	return s.snapshots.Subscribe(ctx)
}

// Toasts streams transient messages: one per new push and one per failed
// action.
func (s *Store) Toasts(ctx context.Context) broadcast.Subscriber[Toast] {
	return s.toasts.Subscribe(ctx)
}

// HasMore reports whether LoadMore would fetch another page.
func (s *Store) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentPage < s.totalPages
}

// Pending reports whether id has an unconfirmed local change.
func (s *Store) Pending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[id]
	return ok && st != stateSynced
}

// Close ends all feeds. Mutations after Close still work but publish nothing.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	_ = s.snapshots.Close()
	_ = s.toasts.Close()
	return nil
}

// FetchPage loads page from the gateway. Page 1 replaces the list, later
// pages append entries not already present. A response is dropped when a
// newer request for the same page was issued meanwhile, or when a newer
// page 1 request invalidated the list it would extend.
func (s *Store) FetchPage(ctx context.Context, page int) error {
	if page < 1 {
		return ErrInvalidPage
	}

	s.mu.Lock()
	s.seq[page]++
	seq := s.seq[page]
	if page == 1 {
		s.generation++
	}
	gen := s.generation
	s.inflight++
	s.publishLocked()
	s.mu.Unlock()

	res, err := s.gateway.List(ctx, page, s.pageSize)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	defer s.publishLocked()

	stale := seq != s.seq[page] || gen != s.generation
	if err != nil {
		if !stale {
			s.logger.LogAttrs(ctx, slog.LevelError, "fetch failed", logger.Page(page), logger.Error(err))
			s.toastLocked(errorToast("Could not load notifications", err))
		}
		return fmt.Errorf("fetch page %d: %w", page, err)
	}
	if stale {
		s.logger.LogAttrs(ctx, slog.LevelDebug, "discarding stale page", logger.Page(page))
		return nil
	}

	if page == 1 {
		s.replaceLocked(res.Notifications, gen)
	} else {
		s.appendLocked(res.Notifications)
	}
	s.currentPage = page
	s.totalPages = res.TotalPages
	s.total = res.TotalNotifications
	return nil
}

// LoadMore fetches the page after CurrentPage.
func (s *Store) LoadMore(ctx context.Context) error {
	s.mu.Lock()
	if s.currentPage >= s.totalPages {
		s.mu.Unlock()
		return ErrNoMorePages
	}
	next := s.currentPage + 1
	s.mu.Unlock()

	return s.FetchPage(ctx, next)
}

// RefreshUnreadCount learns which unread notifications exist on the server
// beyond the loaded list and returns the resulting unread count. Loaded
// entries keep their local read flag, so pending changes are respected.
func (s *Store) RefreshUnreadCount(ctx context.Context) (int, error) {
	list, err := s.gateway.ListUnread(ctx)
	if err != nil {
		return 0, fmt.Errorf("refresh unread count: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	elsewhere := make(map[string]struct{})
	// a bulk read in flight will mark everything read on the server
	if s.bulkRead == 0 {
		for _, n := range list {
			if n.ID == "" || n.Read || n.IsExpired(now) {
				continue
			}
			if _, pending := s.removed[n.ID]; pending || s.indexLocked(n.ID) >= 0 {
				continue
			}
			elsewhere[n.ID] = struct{}{}
		}
	}
	s.elsewhere = elsewhere
	s.publishLocked()
	return s.unreadLocked(), nil
}

// HandlePush merges a pushed notification at the head of the list, counts
// it as unread and emits a toast. Repeated deliveries of the same ID are
// ignored; it reports whether n was added.
func (s *Store) HandlePush(ctx context.Context, n Notification) bool {
	if n.ID == "" {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "ignoring push without id")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(n.ID) >= 0 {
		s.seen.Add(n.ID, struct{}{})
		return false
	}
	if _, pending := s.removed[n.ID]; pending || s.seen.Contains(n.ID) {
		s.logger.LogAttrs(ctx, slog.LevelDebug, "duplicate push", logger.NotificationID(n.ID))
		return false
	}
	if n.IsExpired(s.now()) {
		return false
	}
	s.seen.Add(n.ID, struct{}{})

	n.Read = false
	if n.Severity == "" {
		n.Severity = SeverityInfo
	}
	s.list = slices.Insert(s.list, 0, n)
	s.known[n.ID] = n
	s.states[n.ID] = stateSynced
	s.pushedAt[n.ID] = s.generation
	delete(s.elsewhere, n.ID)
	s.total++

	s.logger.LogAttrs(ctx, slog.LevelInfo, "notification received",
		logger.NotificationID(n.ID), logger.EventType(n.Type))
	s.publishLocked()
	s.toastLocked(pushToast(n))
	return true
}

// MarkAsRead marks id read locally, then on the server. On failure the entry
// is restored and the error wraps ErrReconcileFailed.
func (s *Store) MarkAsRead(ctx context.Context, id string) error {
	s.mu.Lock()
	i, err := s.mutableLocked(id)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.fireLocked(ctx, id, eventMarkRead, s.list[i]); err != nil {
		s.mu.Unlock()
		if statemachine.IsTransitionRejectedError(err) {
			// already read
			return nil
		}
		return err
	}
	s.list[i].Read = true
	s.publishLocked()
	s.mu.Unlock()

	updated, gwErr := s.gateway.MarkAsRead(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.publishLocked()

	if gwErr != nil {
		_ = s.fireLocked(ctx, id, eventRevert, nil)
		if i := s.indexLocked(id); i >= 0 && !s.known[id].Read {
			s.list[i].Read = false
		}
		return s.failLocked(ctx, "Could not mark notification as read", id, gwErr)
	}

	_ = s.fireLocked(ctx, id, eventConfirm, nil)
	if updated.ID != id {
		updated = s.known[id]
	}
	updated.Read = true
	s.known[id] = updated
	if i := s.indexLocked(id); i >= 0 {
		s.list[i] = updated
	}
	return nil
}

// MarkAllAsRead marks every loaded entry read, then calls the bulk endpoint
// and returns the server's count.
func (s *Store) MarkAllAsRead(ctx context.Context) (int, error) {
	s.mu.Lock()
	var flipped []string
	for i, n := range s.list {
		if !reconcile.CanFire(ctx, s.stateLocked(n.ID), eventMarkRead, n) {
			continue
		}
		if err := s.fireLocked(ctx, n.ID, eventMarkRead, n); err != nil {
			continue
		}
		s.list[i].Read = true
		flipped = append(flipped, n.ID)
	}
	prevElsewhere := s.elsewhere
	s.elsewhere = make(map[string]struct{})
	s.bulkRead++
	s.publishLocked()
	s.mu.Unlock()

	count, gwErr := s.gateway.MarkAllAsRead(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.publishLocked()
	s.bulkRead--

	if gwErr != nil {
		for _, id := range flipped {
			_ = s.fireLocked(ctx, id, eventRevert, nil)
			if i := s.indexLocked(id); i >= 0 {
				s.list[i].Read = s.known[id].Read
			}
		}
		for id := range prevElsewhere {
			if _, pending := s.removed[id]; !pending && s.indexLocked(id) < 0 {
				s.elsewhere[id] = struct{}{}
			}
		}
		return 0, s.failLocked(ctx, "Could not mark notifications as read", "", gwErr)
	}

	for _, id := range flipped {
		_ = s.fireLocked(ctx, id, eventConfirm, nil)
		n := s.known[id]
		n.Read = true
		s.known[id] = n
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "marked all as read", logger.Count(count))
	return count, nil
}

// DeleteNotification removes id locally, then on the server. On failure the
// entry is put back at its previous position.
func (s *Store) DeleteNotification(ctx context.Context, id string) error {
	s.mu.Lock()
	i, err := s.mutableLocked(id)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.fireLocked(ctx, id, eventDelete, s.list[i]); err != nil {
		s.mu.Unlock()
		return err
	}
	s.removeAtLocked(i)
	s.publishLocked()
	s.mu.Unlock()

	gwErr := s.gateway.Delete(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.publishLocked()

	if gwErr != nil {
		s.restoreLocked(ctx, id)
		return s.failLocked(ctx, "Could not delete notification", id, gwErr)
	}
	s.forgetLocked(ctx, id)
	return nil
}

// DeleteReadNotifications removes every loaded read entry, then calls the
// bulk endpoint and returns the server's count.
func (s *Store) DeleteReadNotifications(ctx context.Context) (int, error) {
	s.mu.Lock()
	var ids []string
	for i := 0; i < len(s.list); {
		n := s.list[i]
		if !n.Read || !reconcile.CanFire(ctx, s.stateLocked(n.ID), eventDelete, n) {
			i++
			continue
		}
		if err := s.fireLocked(ctx, n.ID, eventDelete, n); err != nil {
			i++
			continue
		}
		s.removed[n.ID] = removedEntry{n: n, index: i + len(ids)}
		s.list = slices.Delete(s.list, i, i+1)
		s.total = max(s.total-1, 0)
		ids = append(ids, n.ID)
	}
	s.publishLocked()
	s.mu.Unlock()

	res, gwErr := s.gateway.DeleteRead(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.publishLocked()

	if gwErr != nil {
		for _, id := range ids {
			s.restoreLocked(ctx, id)
		}
		return 0, s.failLocked(ctx, "Could not delete read notifications", "", gwErr)
	}
	for _, id := range ids {
		s.forgetLocked(ctx, id)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "deleted read notifications", logger.Count(res.Count))
	return res.Count, nil
}

// Filter returns the loaded notifications in category c.
func (s *Store) Filter(c Category) []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Filter(s.list, c)
}

// CountCategory returns the number of loaded notifications in c.
func (s *Store) CountCategory(c Category) int {
	return s.CategoryCounts(c)[c]
}

// CategoryCounts counts loaded notifications per category, using
// DefaultCategories when none are given.
func (s *Store) CategoryCounts(cats ...Category) map[Category]int {
	if len(cats) == 0 {
		cats = DefaultCategories
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return CountByCategory(s.list, cats...)
}

func (s *Store) replaceLocked(fetched []Notification, gen uint64) {
	now := s.now()
	inResponse := make(map[string]struct{}, len(fetched))
	fresh := make([]Notification, 0, len(fetched))
	for _, n := range fetched {
		if n.ID == "" || n.IsExpired(now) {
			continue
		}
		if _, dup := inResponse[n.ID]; dup {
			continue
		}
		inResponse[n.ID] = struct{}{}
		s.known[n.ID] = n

		switch s.stateLocked(n.ID) {
		case statePendingDelete:
			continue
		case statePendingRead:
			n.Read = true
		}
		fresh = append(fresh, n)
	}

	// Only a full page can have pushed older entries onto later pages; on a
	// short page a missing entry is gone from the server.
	var oldest time.Time
	if len(fetched) >= s.pageSize && len(fetched) > 0 {
		oldest = fetched[len(fetched)-1].CreatedAt
	}

	// Pushes that arrived after this request was issued are newer than the
	// response and stay on top.
	var survivors []Notification
	pushedAt := make(map[string]uint64)
	for _, n := range s.list {
		if _, ok := inResponse[n.ID]; ok {
			continue
		}
		if g, ok := s.pushedAt[n.ID]; ok && g >= gen {
			survivors = append(survivors, n)
			pushedAt[n.ID] = g
			continue
		}
		if !n.Read && s.stateLocked(n.ID) == stateSynced && !oldest.IsZero() && !n.CreatedAt.After(oldest) {
			s.elsewhere[n.ID] = struct{}{}
		}
	}
	s.pushedAt = pushedAt
	s.list = append(survivors, fresh...)
	for _, n := range s.list {
		delete(s.elsewhere, n.ID)
	}
	s.pruneLocked()
}

func (s *Store) appendLocked(fetched []Notification) {
	now := s.now()
	for _, n := range fetched {
		if n.ID == "" || n.IsExpired(now) || s.indexLocked(n.ID) >= 0 {
			continue
		}
		if _, pending := s.removed[n.ID]; pending {
			continue
		}
		s.known[n.ID] = n
		s.states[n.ID] = stateSynced
		s.list = append(s.list, n)
		delete(s.elsewhere, n.ID)
	}
}

// pruneLocked drops bookkeeping for entries no longer loaded.
func (s *Store) pruneLocked() {
	present := make(map[string]struct{}, len(s.list))
	for _, n := range s.list {
		present[n.ID] = struct{}{}
		if _, ok := s.states[n.ID]; !ok {
			s.states[n.ID] = stateSynced
		}
	}
	for id, st := range s.states {
		if _, ok := present[id]; ok || st != stateSynced {
			continue
		}
		delete(s.states, id)
		delete(s.known, id)
	}
}

func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.list, func(n Notification) bool { return n.ID == id })
}

func (s *Store) stateLocked(id string) entryState {
	if st, ok := s.states[id]; ok {
		return st
	}
	return stateSynced
}

// mutableLocked finds id and checks it has no pending change.
func (s *Store) mutableLocked(id string) (int, error) {
	if _, ok := s.removed[id]; ok {
		return -1, ErrOperationPending
	}
	i := s.indexLocked(id)
	if i < 0 {
		return -1, ErrNotificationNotFound
	}
	if s.stateLocked(id) != stateSynced {
		return -1, ErrOperationPending
	}
	return i, nil
}

// fireLocked moves id through the reconciliation table. data is the entry
// the guards inspect.
func (s *Store) fireLocked(ctx context.Context, id string, ev entryEvent, data any) error {
	next, err := reconcile.Fire(ctx, s.stateLocked(id), ev, data)
	if statemachine.IsNoTransitionAvailableError(err) {
		return fmt.Errorf("%w: %w", ErrOperationPending, err)
	}
	if err != nil {
		return err
	}
	s.states[id] = next
	return nil
}

func (s *Store) removeAtLocked(i int) {
	n := s.list[i]
	s.removed[n.ID] = removedEntry{n: n, index: i}
	s.list = slices.Delete(s.list, i, i+1)
	s.total = max(s.total-1, 0)
}

// restoreLocked puts an optimistically deleted entry back.
func (s *Store) restoreLocked(ctx context.Context, id string) {
	entry, ok := s.removed[id]
	if !ok {
		return
	}
	delete(s.removed, id)
	_ = s.fireLocked(ctx, id, eventRevert, nil)

	n := entry.n
	if good, ok := s.known[id]; ok {
		n = good
	}
	if s.indexLocked(id) >= 0 {
		return
	}
	s.list = slices.Insert(s.list, min(entry.index, len(s.list)), n)
	s.total++
}

// forgetLocked completes a confirmed delete.
func (s *Store) forgetLocked(ctx context.Context, id string) {
	_ = s.fireLocked(ctx, id, eventConfirm, nil)
	delete(s.removed, id)
	delete(s.states, id)
	delete(s.known, id)
	delete(s.pushedAt, id)
}

func (s *Store) failLocked(ctx context.Context, title, id string, gwErr error) error {
	s.logger.LogAttrs(ctx, slog.LevelError, title,
		logger.NotificationID(id), logger.Error(gwErr))
	s.toastLocked(errorToast(title, gwErr))
	if id != "" {
		return fmt.Errorf("%s: %w: %w", id, ErrReconcileFailed, gwErr)
	}
	return fmt.Errorf("%w: %w", ErrReconcileFailed, gwErr)
}

// unreadLocked counts unread loaded entries plus unread ones known to exist
// only on the server.
func (s *Store) unreadLocked() int {
	n := len(s.elsewhere)
	for _, e := range s.list {
		if !e.Read {
			n++
		}
	}
	return n
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Notifications:      slices.Clone(s.list),
		UnreadCount:        s.unreadLocked(),
		Loading:            s.inflight > 0,
		CurrentPage:        s.currentPage,
		TotalPages:         s.totalPages,
		TotalNotifications: s.total,
	}
}

func (s *Store) publishLocked() {
	if s.closed {
		return
	}
	_ = s.snapshots.Broadcast(context.Background(), broadcast.Message[Snapshot]{Data: s.snapshotLocked()})
}

func (s *Store) toastLocked(t Toast) {
	if s.closed {
		return
	}
	_ = s.toasts.Broadcast(context.Background(), broadcast.Message[Toast]{Data: t})
}
