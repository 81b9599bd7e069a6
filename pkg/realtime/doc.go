// Package realtime owns the client's single WebSocket connection to the
// notification server.
//
// A Client dials with an Authorization bearer header obtained from an
// auth.TokenProvider, forwards every inbound {"type", "data"} frame to an
// events.Dispatcher unchanged, and reconnects with exponential back-off
// when the connection fails or drops while the application still wants to
// be connected.
//
// # Lifecycle
//
//	client := realtime.New(wsURL, tokens, realtime.WithLogger(log))
//	sub := client.Subscribe(events.TypeNotification, onNotification)
//	client.Connect(ctx)
//	...
//	sub.Cancel()
//	client.Disconnect()
//
// Connect and Send never block on the network. Connection failures are
// reported to subscribers as connect_error events; unexpected closes as
// disconnect events; each scheduled retry as a reconnecting event. After
// the configured number of consecutive failed attempts (5 by default) the
// client stops retrying and dispatches connect_error with
// ErrReconnectExhausted; a later explicit Connect starts over.
//
// # Outbound queue
//
// Frames sent while disconnected are queued in FIFO order and flushed as
// soon as a connection is established. Liveness probe types ("ping" by
// default) are dropped instead of queued. A frame whose write fails stays
// at the head of the queue and is retried on the next connection.
//
// Disconnect closes the connection, cancels any pending retry, clears the
// queue and removes every subscription.
package realtime
