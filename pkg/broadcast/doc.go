// Package broadcast provides type-safe in-process fan-out of values to
// any number of subscribers.
//
// A MemoryBroadcaster never blocks the publisher. What happens when a
// subscriber's buffer is full is decided by its overflow policy: the new
// message is dropped, the oldest buffered message is discarded to make room,
// or the slow subscriber is evicted.
//
// With WithReplayLatest, a new subscriber first receives the most recently
// broadcast message, which makes a broadcaster with a one-slot buffer and
// DropOldest a conflating "current value" feed:
//
//	feed := broadcast.NewMemoryBroadcaster[Snapshot](
//		broadcast.WithBufferSize(1),
//		broadcast.WithOverflow(broadcast.DropOldest),
//		broadcast.WithReplayLatest(),
//	)
//	defer feed.Close()
//
//	sub := feed.Subscribe(ctx)
//	for msg := range sub.Receive(ctx) {
//		render(msg.Data)
//	}
//
// Subscriptions end when the subscribe context is cancelled, when Close is
// called on the subscriber, or when the broadcaster is closed.
package broadcast
