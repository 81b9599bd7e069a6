package realtime

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/events"
)

const (
	defaultMaxAttempts  = 5
	defaultDialTimeout  = 10 * time.Second
	defaultWriteTimeout = 10 * time.Second
	defaultReadLimit    = 1 << 20
)

// Option configures a Client.
type Option func(*Client)

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDispatcher shares an existing dispatcher instead of creating one.
func WithDispatcher(d *events.Dispatcher) Option {
	return func(c *Client) {
		if d != nil {
			c.dispatcher = d
		}
	}
}

func WithBackoff(b BackoffStrategy) Option {
	return func(c *Client) {
		if b != nil {
			c.backoff = b
		}
	}
}

// WithMaxReconnectAttempts sets how many consecutive failed attempts are
// retried automatically. Zero disables automatic reconnection.
func WithMaxReconnectAttempts(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxAttempts = n
		}
	}
}

// WithProbeTypes replaces the set of liveness message types that are never
// queued while disconnected.
func WithProbeTypes(types ...string) Option {
	return func(c *Client) {
		c.probes = make(map[string]struct{}, len(types))
		c.probeOrder = types
		for _, t := range types {
			c.probes[t] = struct{}{}
		}
	}
}

func WithDialTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.dialTimeout = d
		}
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.writeTimeout = d
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithHeartbeat sends the first probe type every interval while connected.
func WithHeartbeat(interval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.heartbeat = interval
		}
	}
}

// WithReadLimit caps the size of a single inbound frame.
func WithReadLimit(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.readLimit = n
		}
	}
}
