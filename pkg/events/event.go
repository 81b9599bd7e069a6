package events

import (
	"context"
	"encoding/json"
)

// Event types produced by the realtime transport.
const (
	TypeConnect           = "connect"
	TypeDisconnect        = "disconnect"
	TypeConnectError      = "connect_error"
	TypeReconnecting      = "reconnecting"
	TypeNotification      = "notification"
	TypeAppointmentUpdate = "appointmentUpdate"
)

// Event is a single inbound message or lifecycle signal.
// Data holds the raw JSON payload as received from the server; Err is set
// for connect_error and disconnect events.
type Event struct {
	Type string
	Data json.RawMessage
	Err  error
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	if len(e.Data) == 0 {
		return ErrEmptyPayload
	}
	return json.Unmarshal(e.Data, v)
}

// Handler receives dispatched events.
type Handler func(ctx context.Context, ev Event)
