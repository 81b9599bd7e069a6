// Package notifications keeps a client-side view of a user's notifications
// consistent with both server pushes and paginated REST history.
//
// The Store is the single source of truth for what the user sees. It merges
// two sources into one ordered list, most recent first:
//
//   - pushes delivered over the realtime connection (HandlePush, usually
//     wired with Attach), which are prepended, counted as unread and
//     announced on the toast feed;
//   - pages fetched through a Gateway (FetchPage, LoadMore), where page 1
//     replaces the list and later pages append.
//
// # Consistency
//
// Push handling is idempotent by notification ID. Each page request carries
// a sequence number and only the latest request for a page is applied; a
// newer page 1 request also invalidates appends still in flight. Pushes that
// arrive while page 1 is loading survive the replace.
//
// # Optimistic mutations
//
// MarkAsRead, MarkAllAsRead, DeleteNotification and DeleteReadNotifications
// update the list immediately and then call the Gateway. Each affected entry
// moves through a small state machine:
//
//	synced --mark_read--> pending_read   --confirm/revert--> synced
//	synced --delete-----> pending_delete --confirm--> removed
//	                                     --revert---> synced
//
// When the Gateway fails, the entry is restored from its last
// server-confirmed version, which the unread count follows, an error toast
// is published and the returned error wraps ErrReconcileFailed. A second
// mutation of an entry that is still pending returns ErrOperationPending.
//
// # Read model
//
//	store := notifications.NewStore(gw)
//	detach := store.Attach(client)
//	defer detach()
//
//	feed := store.Subscribe(ctx)
//	for msg := range feed.Receive(ctx) {
//		render(msg.Data.Notifications, msg.Data.UnreadCount)
//	}
//
// Categories are case-insensitive substrings of the notification type, so
// "appointment" matches APPOINTMENT_REMINDER and APPOINTMENT_RESCHEDULED.
package notifications
