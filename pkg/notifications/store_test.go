package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/events"
	"github.com/dmitrymomot/notifykit/pkg/logger"
)

var errServer = errors.New("server unavailable")

// MockGateway for testing Store
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) List(ctx context.Context, page, limit int) (Page, error) {
	args := m.Called(ctx, page, limit)
	return args.Get(0).(Page), args.Error(1)
}

func (m *MockGateway) ListUnread(ctx context.Context) ([]Notification, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Notification), args.Error(1)
}

func (m *MockGateway) MarkAsRead(ctx context.Context, id string) (Notification, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Notification), args.Error(1)
}

func (m *MockGateway) MarkAllAsRead(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockGateway) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockGateway) DeleteRead(ctx context.Context) (DeleteResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(DeleteResult), args.Error(1)
}

// listCall is a List request held until the test replies.
type listCall struct {
	page  int
	reply chan Page
}

// controlledGateway lets tests decide when and in which order List returns.
type controlledGateway struct {
	*MemoryGateway
	calls chan listCall
}

func newControlledGateway() *controlledGateway {
	return &controlledGateway{MemoryGateway: NewMemoryGateway(), calls: make(chan listCall, 8)}
}

func (g *controlledGateway) List(ctx context.Context, page, _ int) (Page, error) {
	call := listCall{page: page, reply: make(chan Page, 1)}
	g.calls <- call
	select {
	case p := <-call.reply:
		return p, nil
	case <-ctx.Done():
		return Page{}, ctx.Err()
	}
}

func (g *controlledGateway) next(t *testing.T) listCall {
	t.Helper()
	select {
	case c := <-g.calls:
		return c
	case <-time.After(time.Second):
		t.Fatal("no List call")
		return listCall{}
	}
}

var baseTime = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func notif(id, typ string, read bool) Notification {
	return Notification{
		ID:        id,
		Type:      typ,
		Title:     "Title " + id,
		Message:   "Message " + id,
		Severity:  SeverityInfo,
		Read:      read,
		CreatedAt: baseTime,
	}
}

func pageOf(page, totalPages int, list ...Notification) Page {
	return Page{Notifications: list, CurrentPage: page, TotalPages: totalPages, TotalNotifications: len(list)}
}

func newTestStore(gw Gateway, opts ...StoreOption) *Store {
	opts = append([]StoreOption{WithLogger(logger.Discard()), WithClock(func() time.Time { return baseTime })}, opts...)
	return NewStore(gw, opts...)
}

// loadedStore returns a store whose first page was fetched from a mock.
func loadedStore(t *testing.T, list ...Notification) (*Store, *MockGateway) {
	t.Helper()
	gw := new(MockGateway)
	gw.On("List", mock.Anything, 1, defaultPageSize).Return(pageOf(1, 1, list...), nil).Once()

	s := newTestStore(gw)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.FetchPage(context.Background(), 1))
	return s, gw
}

func ids(list []Notification) []string {
	out := make([]string, len(list))
	for i, n := range list {
		out[i] = n.ID
	}
	return out
}

func nextToast(t *testing.T, ch <-chan Toast) Toast {
	t.Helper()
	select {
	case toast := <-ch:
		return toast
	case <-time.After(time.Second):
		t.Fatal("no toast")
		return Toast{}
	}
}

func toastChan(t *testing.T, s *Store) <-chan Toast {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	out := make(chan Toast, 16)
	sub := s.Toasts(ctx)
	go func() {
		for msg := range sub.Receive(ctx) {
			out <- msg.Data
		}
	}()
	return out
}

func TestStore_HandlePushIsIdempotent(t *testing.T) {
	t.Parallel()

	s, _ := loadedStore(t, notif("a", "CLIENT_CREATED", true))
	toasts := toastChan(t, s)

	pushed := notif("p1", "INVOICE_PAID", false)
	pushed.Severity = SeveritySuccess
	assert.True(t, s.HandlePush(context.Background(), pushed))
	assert.False(t, s.HandlePush(context.Background(), pushed))

	snap := s.Snapshot()
	assert.Equal(t, []string{"p1", "a"}, ids(snap.Notifications))
	assert.Equal(t, 1, snap.UnreadCount)

	toast := nextToast(t, toasts)
	assert.Equal(t, Toast{Title: "Title p1", Message: "Message p1", Severity: SeveritySuccess, NotificationID: "p1"}, toast)
	select {
	case extra := <-toasts:
		t.Fatalf("duplicate toast %+v", extra)
	case <-time.After(30 * time.Millisecond):
	}
}

func TestStore_HandlePushRejectsInvalid(t *testing.T) {
	t.Parallel()

	s, _ := loadedStore(t)
	past := baseTime.Add(-time.Minute)

	assert.False(t, s.HandlePush(context.Background(), Notification{}))
	expired := notif("old", "CLIENT_CREATED", false)
	expired.ExpiresAt = &past
	assert.False(t, s.HandlePush(context.Background(), expired))

	read := notif("r", "CLIENT_CREATED", true)
	read.Severity = ""
	require.True(t, s.HandlePush(context.Background(), read))
	snap := s.Snapshot()
	assert.False(t, snap.Notifications[0].Read, "pushed entries start unread")
	assert.Equal(t, SeverityInfo, snap.Notifications[0].Severity)
}

func TestStore_PushRememberedAfterRefetch(t *testing.T) {
	t.Parallel()

	gw := new(MockGateway)
	gw.On("List", mock.Anything, 1, defaultPageSize).Return(pageOf(1, 1, notif("a", "X", false)), nil)
	s := newTestStore(gw)
	defer s.Close()
	ctx := context.Background()

	require.True(t, s.HandlePush(ctx, notif("p1", "X", false)))
	require.NoError(t, s.FetchPage(ctx, 1))
	assert.Equal(t, []string{"a"}, ids(s.Snapshot().Notifications))

	assert.False(t, s.HandlePush(ctx, notif("p1", "X", false)), "redelivery after refetch ignored")
	assert.Equal(t, 1, s.Snapshot().UnreadCount)
}

func TestStore_FetchPage(t *testing.T) {
	t.Parallel()

	gw := new(MockGateway)
	gw.On("List", mock.Anything, 1, 5).Return(Page{
		Notifications:      []Notification{notif("a", "X", false), notif("b", "X", true), notif("a", "X", false)},
		CurrentPage:        1,
		TotalPages:         2,
		TotalNotifications: 7,
	}, nil).Once()
	gw.On("List", mock.Anything, 2, 5).Return(Page{
		Notifications:      []Notification{notif("b", "X", true), notif("c", "X", false)},
		CurrentPage:        2,
		TotalPages:         2,
		TotalNotifications: 7,
	}, nil).Once()

	s := newTestStore(gw, WithPageSize(5))
	defer s.Close()
	ctx := context.Background()

	assert.ErrorIs(t, s.LoadMore(ctx), ErrNoMorePages)
	assert.ErrorIs(t, s.FetchPage(ctx, 0), ErrInvalidPage)

	require.NoError(t, s.FetchPage(ctx, 1))
	snap := s.Snapshot()
	assert.Equal(t, []string{"a", "b"}, ids(snap.Notifications))
	assert.Equal(t, 1, snap.UnreadCount)
	assert.Equal(t, 1, snap.CurrentPage)
	assert.Equal(t, 2, snap.TotalPages)
	assert.Equal(t, 7, snap.TotalNotifications)
	assert.True(t, snap.HasMore())
	assert.True(t, s.HasMore())

	require.NoError(t, s.LoadMore(ctx))
	snap = s.Snapshot()
	assert.Equal(t, []string{"a", "b", "c"}, ids(snap.Notifications))
	assert.Equal(t, 2, snap.UnreadCount)
	assert.Equal(t, 2, snap.CurrentPage)
	assert.False(t, s.HasMore())
	assert.False(t, snap.Loading)

	assert.ErrorIs(t, s.LoadMore(ctx), ErrNoMorePages)
	gw.AssertExpectations(t)
}

func TestStore_FetchPageSkipsExpired(t *testing.T) {
	t.Parallel()

	past := baseTime.Add(-time.Second)
	expired := notif("old", "X", false)
	expired.ExpiresAt = &past

	s, _ := loadedStore(t, expired, notif("a", "X", false))
	assert.Equal(t, []string{"a"}, ids(s.Snapshot().Notifications))
	assert.Equal(t, 1, s.Snapshot().UnreadCount)
}

func TestStore_FetchPageError(t *testing.T) {
	t.Parallel()

	gw := new(MockGateway)
	gw.On("List", mock.Anything, 1, defaultPageSize).Return(Page{}, errServer)
	s := newTestStore(gw)
	defer s.Close()
	toasts := toastChan(t, s)

	err := s.FetchPage(context.Background(), 1)
	assert.ErrorIs(t, err, errServer)
	assert.False(t, s.Snapshot().Loading)

	toast := nextToast(t, toasts)
	assert.Equal(t, SeverityError, toast.Severity)
}

func TestStore_StaleResponseRejected(t *testing.T) {
	t.Parallel()

	gw := newControlledGateway()
	s := newTestStore(gw)
	defer s.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	fetch := func() {
		defer wg.Done()
		assert.NoError(t, s.FetchPage(ctx, 1))
	}

	wg.Add(1)
	go fetch()
	first := gw.next(t)

	wg.Add(1)
	go fetch()
	second := gw.next(t)

	assert.True(t, s.Snapshot().Loading)

	second.reply <- pageOf(1, 1, notif("new", "X", false))
	require.Eventually(t, func() bool {
		return len(s.Snapshot().Notifications) == 1
	}, time.Second, 5*time.Millisecond)

	first.reply <- pageOf(1, 1, notif("old1", "X", false), notif("old2", "X", false))
	wg.Wait()

	snap := s.Snapshot()
	assert.Equal(t, []string{"new"}, ids(snap.Notifications))
	assert.False(t, snap.Loading)
}

func TestStore_PageOneInvalidatesPendingAppend(t *testing.T) {
	t.Parallel()

	gw := newControlledGateway()
	s := newTestStore(gw)
	defer s.Close()
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, s.FetchPage(ctx, 1))
	}()
	gw.next(t).reply <- pageOf(1, 2, notif("a", "X", false))
	<-done

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, s.LoadMore(ctx))
	}()
	appendCall := gw.next(t)
	assert.Equal(t, 2, appendCall.page)

	go func() {
		defer wg.Done()
		assert.NoError(t, s.FetchPage(ctx, 1))
	}()
	gw.next(t).reply <- pageOf(1, 2, notif("b", "X", false))
	appendCall.reply <- pageOf(2, 2, notif("stale", "X", false))
	wg.Wait()

	snap := s.Snapshot()
	assert.Equal(t, []string{"b"}, ids(snap.Notifications))
	assert.Equal(t, 1, snap.CurrentPage)
}

func TestStore_PushDuringRefetchSurvives(t *testing.T) {
	t.Parallel()

	gw := newControlledGateway()
	s := newTestStore(gw)
	defer s.Close()
	ctx := context.Background()

	require.True(t, s.HandlePush(ctx, notif("before", "X", false)))

	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, s.FetchPage(ctx, 1))
	}()
	call := gw.next(t)

	require.True(t, s.HandlePush(ctx, notif("during", "X", false)))
	call.reply <- pageOf(1, 1, notif("a", "X", true))
	<-done

	snap := s.Snapshot()
	assert.Equal(t, []string{"during", "a"}, ids(snap.Notifications))
	assert.Equal(t, 1, snap.UnreadCount)
}

func TestStore_MarkAsRead(t *testing.T) {
	t.Parallel()

	s, gw := loadedStore(t, notif("a", "X", false), notif("b", "X", false))
	updated := notif("a", "X", true)
	updated.Title = "Server title"
	gw.On("MarkAsRead", mock.Anything, "a").Return(updated, nil).Once()

	require.NoError(t, s.MarkAsRead(context.Background(), "a"))

	snap := s.Snapshot()
	assert.True(t, snap.Notifications[0].Read)
	assert.Equal(t, "Server title", snap.Notifications[0].Title)
	assert.Equal(t, 1, snap.UnreadCount)
	assert.False(t, s.Pending("a"))

	require.NoError(t, s.MarkAsRead(context.Background(), "a"), "already read is a no-op")
	gw.AssertNumberOfCalls(t, "MarkAsRead", 1)
}

func TestStore_MarkAsReadRollback(t *testing.T) {
	t.Parallel()

	s, gw := loadedStore(t, notif("a", "X", false))
	toasts := toastChan(t, s)
	gw.On("MarkAsRead", mock.Anything, "a").Return(Notification{}, errServer).Once()

	err := s.MarkAsRead(context.Background(), "a")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReconcileFailed)
	assert.ErrorIs(t, err, errServer)

	snap := s.Snapshot()
	assert.False(t, snap.Notifications[0].Read)
	assert.Equal(t, 1, snap.UnreadCount)
	assert.False(t, s.Pending("a"))

	toast := nextToast(t, toasts)
	assert.Equal(t, SeverityError, toast.Severity)
	assert.Contains(t, toast.Message, errServer.Error())
}

func TestStore_MutationWhilePending(t *testing.T) {
	t.Parallel()

	s, gw := loadedStore(t, notif("a", "X", false))
	release := make(chan struct{})
	entered := make(chan struct{})
	gw.On("MarkAsRead", mock.Anything, "a").Run(func(mock.Arguments) {
		close(entered)
		<-release
	}).Return(notif("a", "X", true), nil).Once()

	done := make(chan error, 1)
	go func() { done <- s.MarkAsRead(context.Background(), "a") }()
	<-entered

	assert.True(t, s.Pending("a"))
	assert.ErrorIs(t, s.DeleteNotification(context.Background(), "a"), ErrOperationPending)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, s.Pending("a"))
}

func TestStore_UnknownID(t *testing.T) {
	t.Parallel()

	s, gw := loadedStore(t, notif("a", "X", false))
	ctx := context.Background()

	assert.ErrorIs(t, s.MarkAsRead(ctx, "missing"), ErrNotificationNotFound)
	assert.ErrorIs(t, s.DeleteNotification(ctx, "missing"), ErrNotificationNotFound)
	gw.AssertNotCalled(t, "MarkAsRead", mock.Anything, mock.Anything)
	gw.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestStore_MarkAllAsRead(t *testing.T) {
	t.Parallel()

	gw := NewMemoryGateway(
		notif("a", "X", false),
		notif("b", "X", true),
		notif("c", "X", false),
	)
	s := newTestStore(gw)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.FetchPage(ctx, 1))
	require.Equal(t, 2, s.Snapshot().UnreadCount)

	count, err := s.MarkAllAsRead(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	snap := s.Snapshot()
	assert.Zero(t, snap.UnreadCount)
	for _, n := range snap.Notifications {
		assert.True(t, n.Read, n.ID)
		assert.False(t, s.Pending(n.ID))
	}
}

func TestStore_MarkAllAsReadRollback(t *testing.T) {
	t.Parallel()

	s, gw := loadedStore(t, notif("a", "X", false), notif("b", "X", true), notif("c", "X", false))
	gw.On("MarkAllAsRead", mock.Anything).Return(0, errServer).Once()

	_, err := s.MarkAllAsRead(context.Background())
	assert.ErrorIs(t, err, ErrReconcileFailed)

	snap := s.Snapshot()
	assert.Equal(t, 2, snap.UnreadCount)
	read := map[string]bool{}
	for _, n := range snap.Notifications {
		read[n.ID] = n.Read
	}
	assert.Equal(t, map[string]bool{"a": false, "b": true, "c": false}, read)
}

func TestStore_DeleteNotification(t *testing.T) {
	t.Parallel()

	s, gw := loadedStore(t, notif("a", "X", false), notif("b", "X", true))
	gw.On("Delete", mock.Anything, "a").Return(nil).Once()

	require.NoError(t, s.DeleteNotification(context.Background(), "a"))

	snap := s.Snapshot()
	assert.Equal(t, []string{"b"}, ids(snap.Notifications))
	assert.Zero(t, snap.UnreadCount)
	assert.False(t, s.Pending("a"))
	assert.False(t, s.HandlePush(context.Background(), notif("b", "X", false)), "still listed")
	gw.AssertExpectations(t)
}

func TestStore_DeleteNotificationRollback(t *testing.T) {
	t.Parallel()

	s, gw := loadedStore(t, notif("a", "X", true), notif("b", "X", false), notif("c", "X", true))
	gw.On("Delete", mock.Anything, "b").Return(errServer).Once()

	err := s.DeleteNotification(context.Background(), "b")
	assert.ErrorIs(t, err, ErrReconcileFailed)
	assert.ErrorIs(t, err, errServer)

	snap := s.Snapshot()
	assert.Equal(t, []string{"a", "b", "c"}, ids(snap.Notifications), "restored at its position")
	assert.Equal(t, 1, snap.UnreadCount)
	assert.Equal(t, 3, snap.TotalNotifications)
	assert.False(t, s.Pending("b"))
}

func TestStore_DeleteReadNotifications(t *testing.T) {
	t.Parallel()

	gw := NewMemoryGateway()
	for i, read := range []bool{true, false, true, false, true} {
		n := notif(fmt.Sprintf("n%d", i+1), "X", read)
		n.CreatedAt = baseTime.Add(time.Duration(-i) * time.Minute)
		require.NoError(t, gw.Create(context.Background(), n))
	}
	s := newTestStore(gw)
	defer s.Close()
	ctx := context.Background()
	require.NoError(t, s.FetchPage(ctx, 1))

	count, err := s.DeleteReadNotifications(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	snap := s.Snapshot()
	assert.Equal(t, []string{"n2", "n4"}, ids(snap.Notifications))
	for _, n := range snap.Notifications {
		assert.False(t, n.Read)
	}
	assert.Equal(t, 2, snap.UnreadCount)
}

func TestStore_DeleteReadNotificationsRollback(t *testing.T) {
	t.Parallel()

	s, gw := loadedStore(t,
		notif("n1", "X", true),
		notif("n2", "X", false),
		notif("n3", "X", true),
		notif("n4", "X", true),
	)
	gw.On("DeleteRead", mock.Anything).Return(DeleteResult{}, errServer).Once()

	_, err := s.DeleteReadNotifications(context.Background())
	assert.ErrorIs(t, err, ErrReconcileFailed)
	assert.Equal(t, []string{"n1", "n2", "n3", "n4"}, ids(s.Snapshot().Notifications))
}

func TestStore_RefreshUnreadCount(t *testing.T) {
	t.Parallel()

	s, gw := loadedStore(t, notif("a", "X", false))
	gw.On("ListUnread", mock.Anything).Return([]Notification{
		notif("a", "X", false),
		notif("x", "X", false),
		notif("y", "X", false),
	}, nil).Once()
	gw.On("ListUnread", mock.Anything).Return(nil, errServer).Once()

	count, err := s.RefreshUnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, 3, s.Snapshot().UnreadCount)

	_, err = s.RefreshUnreadCount(context.Background())
	assert.ErrorIs(t, err, errServer)
	assert.Equal(t, 3, s.Snapshot().UnreadCount)
}

func TestStore_UnreadCountAcrossPages(t *testing.T) {
	t.Parallel()

	seed := func() *MemoryGateway {
		list := make([]Notification, 15)
		for i := range list {
			list[i] = notif(fmt.Sprintf("n%02d", i), "X", false)
			list[i].CreatedAt = baseTime.Add(-time.Duration(i) * time.Minute)
		}
		return NewMemoryGateway(list...)
	}
	serverUnread := func(t *testing.T, gw *MemoryGateway) int {
		t.Helper()
		list, err := gw.ListUnread(context.Background())
		require.NoError(t, err)
		return len(list)
	}
	ctx := context.Background()

	t.Run("refresh before first page", func(t *testing.T) {
		t.Parallel()

		s := newTestStore(seed())
		defer s.Close()

		count, err := s.RefreshUnreadCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 15, count)
		require.NoError(t, s.FetchPage(ctx, 1))
		assert.Equal(t, 15, s.Snapshot().UnreadCount)
	})

	t.Run("mark read then load more", func(t *testing.T) {
		t.Parallel()

		gw := seed()
		s := newTestStore(gw)
		defer s.Close()

		require.NoError(t, s.FetchPage(ctx, 1))
		count, err := s.RefreshUnreadCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 15, count)

		require.NoError(t, s.MarkAsRead(ctx, "n00"))
		assert.Equal(t, 14, s.Snapshot().UnreadCount)

		require.NoError(t, s.LoadMore(ctx))
		snap := s.Snapshot()
		assert.Len(t, snap.Notifications, 15)
		assert.Equal(t, 14, snap.UnreadCount)
		assert.Equal(t, serverUnread(t, gw), snap.UnreadCount)

		// entries pushed off the first page are still unread on the server
		require.NoError(t, s.FetchPage(ctx, 1))
		snap = s.Snapshot()
		assert.Len(t, snap.Notifications, 10)
		assert.Equal(t, 14, snap.UnreadCount)

		_, err = s.MarkAllAsRead(ctx)
		require.NoError(t, err)
		assert.Zero(t, s.Snapshot().UnreadCount)
		assert.Zero(t, serverUnread(t, gw))
	})

	t.Run("push of an entry counted elsewhere", func(t *testing.T) {
		t.Parallel()

		s := newTestStore(seed())
		defer s.Close()

		_, err := s.RefreshUnreadCount(ctx)
		require.NoError(t, err)

		n := notif("n14", "X", false)
		require.True(t, s.HandlePush(ctx, n))
		assert.Equal(t, 15, s.Snapshot().UnreadCount)
	})
}

func TestStore_Categories(t *testing.T) {
	t.Parallel()

	s, _ := loadedStore(t,
		notif("1", "APPOINTMENT_REMINDER", false),
		notif("2", "CLIENT_CREATED", false),
		notif("3", "INVOICE_PAID", false),
		notif("4", "DOCUMENT_UPLOADED", false),
	)

	assert.Equal(t, []string{"1"}, ids(s.Filter(CategoryAppointment)))
	assert.Equal(t, []string{"3"}, ids(s.Filter(CategoryInvoice)))
	assert.Equal(t, 1, s.CountCategory(CategoryDocument))
	assert.Equal(t, map[Category]int{
		CategoryAppointment: 1,
		CategoryClient:      1,
		CategoryInvoice:     1,
		CategoryDocument:    1,
	}, s.CategoryCounts())
}

func TestStore_SubscribeReplaysSnapshot(t *testing.T) {
	t.Parallel()

	s, _ := loadedStore(t, notif("a", "X", false))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := s.Subscribe(ctx)
	select {
	case msg := <-sub.Receive(ctx):
		assert.Equal(t, []string{"a"}, ids(msg.Data.Notifications))
		assert.Equal(t, 1, msg.Data.UnreadCount)
	case <-time.After(time.Second):
		t.Fatal("no snapshot")
	}

	s.HandlePush(ctx, notif("b", "X", false))
	select {
	case msg := <-sub.Receive(ctx):
		assert.Equal(t, 2, msg.Data.UnreadCount)
	case <-time.After(time.Second):
		t.Fatal("no update")
	}

	require.NoError(t, s.Close())
	_, ok := <-sub.Receive(ctx)
	assert.False(t, ok)
}

func TestStore_Attach(t *testing.T) {
	t.Parallel()

	s, _ := loadedStore(t)
	toasts := toastChan(t, s)
	d := events.New(events.WithLogger(logger.Discard()))
	ctx := context.Background()

	detach := s.Attach(d)
	s.Attach(d)
	assert.Equal(t, 1, d.Len(events.TypeNotification))
	assert.Equal(t, 1, d.Len(events.TypeConnectError))

	d.Dispatch(ctx, events.Event{
		Type: events.TypeNotification,
		Data: []byte(`{"_id":"p1","type":"INVOICE_PAID","title":"Paid","message":"Invoice paid","severity":"success","createdAt":"2024-05-01T07:00:00Z"}`),
	})
	d.Dispatch(ctx, events.Event{Type: events.TypeNotification, Data: []byte(`not json`)})

	snap := s.Snapshot()
	require.Len(t, snap.Notifications, 1)
	assert.Equal(t, "p1", snap.Notifications[0].ID)
	assert.Equal(t, SeveritySuccess, nextToast(t, toasts).Severity)

	d.Dispatch(ctx, events.Event{Type: events.TypeConnectError, Err: errors.New("dial refused")})
	toast := nextToast(t, toasts)
	assert.Equal(t, SeverityWarning, toast.Severity)
	assert.Equal(t, "dial refused", toast.Message)

	detach()
	assert.Empty(t, d.Types())

	d.Dispatch(ctx, events.Event{
		Type: events.TypeNotification,
		Data: []byte(`{"_id":"p2","type":"X"}`),
	})
	assert.Len(t, s.Snapshot().Notifications, 1)
}
