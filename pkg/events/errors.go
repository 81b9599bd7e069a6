package events

import "errors"

var ErrEmptyPayload = errors.New("events: empty payload")
