package realtime

import (
	"encoding/json"
	"time"
)

// State is the observable connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	// StateConnecting covers both an in-flight dial and the wait before a retry.
	StateConnecting State = "connecting"
	StateConnected  State = "connected"
)

func (s State) String() string { return string(s) }

// envelope is the wire format of every frame in both directions.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ReconnectInfo is the payload of reconnecting events.
type ReconnectInfo struct {
	Attempt int           `json:"attempt"`
	Delay   time.Duration `json:"delay"`
}

// ErrorInfo is the payload of connect_error and disconnect events.
type ErrorInfo struct {
	Message string `json:"message"`
}

// timer is the subset of *time.Timer the reconnect scheduler uses.
type timer interface {
	Stop() bool
}

func realAfterFunc(d time.Duration, f func()) timer {
	return time.AfterFunc(d, f)
}
