package realtime

import "errors"

var (
	ErrDial               = errors.New("realtime: dial failed")
	ErrAuthToken          = errors.New("realtime: could not obtain bearer token")
	ErrConnectionLost     = errors.New("realtime: connection lost")
	ErrReconnectExhausted = errors.New("realtime: reconnect attempts exhausted")
	ErrEncodePayload      = errors.New("realtime: failed to encode payload")
	ErrEmptyType          = errors.New("realtime: message type is required")
)
