package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/dmitrymomot/notifykit/pkg/auth"
	"github.com/dmitrymomot/notifykit/pkg/events"
	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// Client is a reconnecting WebSocket connection. Safe for concurrent use.
type Client struct {
	url          string
	tokens       auth.TokenProvider
	dispatcher   *events.Dispatcher
	backoff      BackoffStrategy
	maxAttempts  int
	probes       map[string]struct{}
	probeOrder   []string
	dialTimeout  time.Duration
	writeTimeout time.Duration
	readLimit    int64
	heartbeat    time.Duration
	httpClient   *http.Client
	logger       *slog.Logger
	afterFunc    func(time.Duration, func()) timer

	mu       sync.Mutex
	state    State
	want     bool
	attempts int
	queue    [][]byte
	conn     *websocket.Conn
	wake     chan struct{}
	gen      uint64
	base     context.Context
	cancel   context.CancelFunc
	retry    timer
	retrySeq uint64
}

// New creates a disconnected client for url. Nothing is dialed until Connect.
func New(url string, tokens auth.TokenProvider, opts ...Option) *Client {
	c := &Client{
		url:          url,
		tokens:       tokens,
		backoff:      DefaultBackoff(),
		maxAttempts:  defaultMaxAttempts,
		probes:       map[string]struct{}{"ping": {}},
		probeOrder:   []string{"ping"},
		dialTimeout:  defaultDialTimeout,
		writeTimeout: defaultWriteTimeout,
		readLimit:    defaultReadLimit,
		logger:       slog.Default(),
		afterFunc:    realAfterFunc,
		state:        StateDisconnected,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.dispatcher == nil {
		c.dispatcher = events.New(events.WithLogger(c.logger))
	}
	c.logger = c.logger.With(logger.Component("realtime"))
	return c
}

// Dispatcher returns the dispatcher inbound events are delivered to.
func (c *Client) Dispatcher() *events.Dispatcher { return c.dispatcher }

// Subscribe registers h for eventType. See events.Dispatcher.Subscribe.
func (c *Client) Subscribe(eventType string, h events.Handler, opts ...events.SubscribeOption) *events.Subscription {
	return c.dispatcher.Subscribe(eventType, h, opts...)
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempts returns the number of consecutive failed connection attempts.
func (c *Client) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// QueueLen returns the number of frames waiting to be written.
func (c *Client) QueueLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Connect starts connecting in the background and returns immediately.
// It is a no-op while already connected or connecting. ctx supplies values
// for the connection's lifetime; its cancellation is ignored, use Disconnect.
func (c *Client) Connect(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.want = true
	if c.state != StateDisconnected {
		return
	}
	c.base = context.WithoutCancel(ctx)
	c.attempts = 0
	c.startAttemptLocked()
}

// Disconnect closes the connection, cancels a pending retry, drops queued
// frames and removes all subscriptions. Safe to call more than once.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.want = false
	c.gen++
	c.stopRetryLocked()
	conn, cancel := c.conn, c.cancel
	wasActive := c.state != StateDisconnected
	base := c.base
	c.conn, c.cancel, c.wake = nil, nil, nil
	c.state = StateDisconnected
	c.queue = nil
	c.attempts = 0
	c.mu.Unlock()

	switch {
	case conn != nil:
		go func() {
			_ = conn.Close(websocket.StatusNormalClosure, "client disconnect")
			cancel()
		}()
	case cancel != nil:
		cancel()
	}

	if wasActive {
		if base == nil {
			base = context.Background()
		}
		c.logger.LogAttrs(base, slog.LevelInfo, "disconnected by client")
		c.dispatcher.Dispatch(base, events.Event{Type: events.TypeDisconnect})
	}
	c.dispatcher.Clear()
}

// Send writes a {"type", "data"} frame. While connected the frame is handed
// to the writer at once; otherwise it is queued, unless msgType is a probe
// type, in which case it is dropped. The only errors are encoding errors.
func (c *Client) Send(msgType string, payload any) error {
	if msgType == "" {
		return ErrEmptyType
	}

	env := envelope{Type: msgType}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return errors.Join(ErrEncodePayload, err)
		}
		env.Data = data
	}
	frame, err := json.Marshal(env)
	if err != nil {
		return errors.Join(ErrEncodePayload, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateConnected && c.isProbe(msgType) {
		c.logger.Debug("probe dropped while disconnected", logger.EventType(msgType))
		return nil
	}
	c.queue = append(c.queue, frame)
	c.signalLocked()
	return nil
}

func (c *Client) isProbe(msgType string) bool {
	_, ok := c.probes[msgType]
	return ok
}

func (c *Client) signalLocked() {
	if c.state != StateConnected || c.wake == nil {
		return
	}
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Client) startAttemptLocked() {
	c.stopRetryLocked()
	c.gen++
	c.state = StateConnecting

	ctx, cancel := context.WithCancel(c.base)
	c.cancel = cancel
	go c.dial(ctx, c.gen)
}

func (c *Client) dial(ctx context.Context, gen uint64) {
	if c.tokens == nil {
		c.dialFailed(ctx, gen, ErrAuthToken)
		return
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		c.dialFailed(ctx, gen, errors.Join(ErrAuthToken, err))
		return
	}

	dialCtx, cancelDial := context.WithTimeout(ctx, c.dialTimeout)
	conn, _, err := websocket.Dial(dialCtx, c.url, &websocket.DialOptions{
		HTTPClient: c.httpClient,
		HTTPHeader: http.Header{"Authorization": []string{auth.BearerHeader(token)}},
	})
	cancelDial()
	if err != nil {
		c.dialFailed(ctx, gen, errors.Join(ErrDial, err))
		return
	}
	conn.SetReadLimit(c.readLimit)

	c.mu.Lock()
	if gen != c.gen || !c.want {
		c.mu.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "superseded")
		return
	}
	wake := make(chan struct{}, 1)
	c.conn = conn
	c.wake = wake
	c.state = StateConnected
	c.attempts = 0
	c.mu.Unlock()

	c.logger.LogAttrs(ctx, slog.LevelInfo, "connected")

	go c.writeLoop(ctx, conn, gen, wake)
	go c.readLoop(ctx, conn, gen)

	c.dispatcher.Dispatch(ctx, events.Event{Type: events.TypeConnect})
}

func (c *Client) dialFailed(ctx context.Context, gen uint64, err error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.state = StateDisconnected
	cancel := c.cancel
	c.cancel = nil
	next, exhausted := c.scheduleRetryLocked()
	c.mu.Unlock()
	if cancel != nil {
		defer cancel()
	}

	c.logger.LogAttrs(ctx, slog.LevelWarn, "connection attempt failed", logger.Error(err))
	c.dispatchError(ctx, events.TypeConnectError, err)
	c.afterFailure(ctx, next, exhausted)
}

// connectionLost tears down an established connection of generation gen.
// Both loops may report the same loss; only the first one counts.
func (c *Client) connectionLost(ctx context.Context, gen uint64, cause error) {
	c.mu.Lock()
	if gen != c.gen || c.state != StateConnected {
		c.mu.Unlock()
		return
	}
	c.gen++
	conn, cancel := c.conn, c.cancel
	c.conn, c.cancel, c.wake = nil, nil, nil
	c.state = StateDisconnected
	c.dropProbesLocked()
	next, exhausted := c.scheduleRetryLocked()
	c.mu.Unlock()

	if cancel != nil {
		defer cancel()
	}
	if conn != nil {
		_ = conn.CloseNow()
	}

	err := errors.Join(ErrConnectionLost, cause)
	c.logger.LogAttrs(ctx, slog.LevelWarn, "connection lost", logger.Error(cause))
	c.dispatchError(ctx, events.TypeDisconnect, err)
	c.afterFailure(ctx, next, exhausted)
}

func (c *Client) afterFailure(ctx context.Context, next *ReconnectInfo, exhausted bool) {
	switch {
	case next != nil:
		c.logger.LogAttrs(ctx, slog.LevelInfo, "reconnect scheduled",
			logger.Attempt(next.Attempt), logger.Delay(next.Delay))
		data, _ := json.Marshal(next)
		c.dispatcher.Dispatch(ctx, events.Event{Type: events.TypeReconnecting, Data: data})
	case exhausted:
		c.logger.LogAttrs(ctx, slog.LevelError, "giving up reconnecting",
			logger.Attempt(c.Attempts()))
		c.dispatchError(ctx, events.TypeConnectError, ErrReconnectExhausted)
	}
}

// scheduleRetryLocked arms the retry timer for the next attempt. It returns
// the scheduled attempt, or exhausted=true when the attempt budget is spent.
func (c *Client) scheduleRetryLocked() (*ReconnectInfo, bool) {
	if !c.want {
		return nil, false
	}
	c.attempts++
	if c.attempts > c.maxAttempts {
		c.want = false
		return nil, true
	}

	delay := c.backoff.NextInterval(c.attempts)
	c.state = StateConnecting
	c.retrySeq++
	seq := c.retrySeq
	c.retry = c.afterFunc(delay, func() { c.fireRetry(seq) })
	return &ReconnectInfo{Attempt: c.attempts, Delay: delay}, false
}

func (c *Client) fireRetry(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.retrySeq || !c.want || c.state != StateConnecting {
		return
	}
	c.retry = nil
	c.startAttemptLocked()
}

func (c *Client) stopRetryLocked() {
	c.retrySeq++
	if c.retry != nil {
		c.retry.Stop()
		c.retry = nil
	}
}

// dropProbesLocked discards probes that were accepted while connected but
// not yet written.
func (c *Client) dropProbesLocked() {
	kept := c.queue[:0]
	for _, frame := range c.queue {
		var env envelope
		if err := json.Unmarshal(frame, &env); err == nil && c.isProbe(env.Type) {
			continue
		}
		kept = append(kept, frame)
	}
	c.queue = kept
}

func (c *Client) dispatchError(ctx context.Context, eventType string, err error) {
	data, _ := json.Marshal(ErrorInfo{Message: err.Error()})
	c.dispatcher.Dispatch(ctx, events.Event{Type: eventType, Data: data, Err: err})
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn, gen uint64) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			c.connectionLost(ctx, gen, err)
			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Type == "" {
			c.logger.LogAttrs(ctx, slog.LevelWarn, "dropping malformed frame",
				logger.Error(err), slog.Int("size", len(data)))
			continue
		}
		c.dispatcher.Dispatch(ctx, events.Event{Type: env.Type, Data: env.Data})
	}
}

func (c *Client) writeLoop(ctx context.Context, conn *websocket.Conn, gen uint64, wake <-chan struct{}) {
	var tick <-chan time.Time
	if c.heartbeat > 0 {
		t := time.NewTicker(c.heartbeat)
		defer t.Stop()
		tick = t.C
	}

	for {
		if !c.drain(ctx, conn, gen) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-wake:
		case <-tick:
			if err := c.sendProbe(); err != nil {
				c.logger.LogAttrs(ctx, slog.LevelWarn, "heartbeat failed", logger.Error(err))
			}
		}
	}
}

// sendProbe queues the first configured probe type.
func (c *Client) sendProbe() error {
	if len(c.probeOrder) == 0 {
		return nil
	}
	return c.Send(c.probeOrder[0], nil)
}

// drain writes queued frames in order until the queue is empty. A frame is
// removed only after its write succeeded. Returns false once the connection
// of generation gen is gone.
func (c *Client) drain(ctx context.Context, conn *websocket.Conn, gen uint64) bool {
	for {
		c.mu.Lock()
		if gen != c.gen || c.state != StateConnected {
			c.mu.Unlock()
			return false
		}
		if len(c.queue) == 0 {
			c.mu.Unlock()
			return true
		}
		frame := c.queue[0]
		c.mu.Unlock()

		writeCtx, cancel := context.WithTimeout(ctx, c.writeTimeout)
		err := conn.Write(writeCtx, websocket.MessageText, frame)
		cancel()
		if err != nil {
			c.connectionLost(ctx, gen, fmt.Errorf("write: %w", err))
			return false
		}

		c.mu.Lock()
		if gen == c.gen && len(c.queue) > 0 {
			c.queue[0] = nil
			c.queue = c.queue[1:]
		}
		c.mu.Unlock()
	}
}
