package notifications

import (
	"context"

	"github.com/dmitrymomot/notifykit/pkg/statemachine"
)

// entryState tracks whether a local entry agrees with the server.
type entryState string

const (
	stateSynced        entryState = "synced"
	statePendingRead   entryState = "pending_read"
	statePendingDelete entryState = "pending_delete"
	stateRemoved       entryState = "removed"
)

type entryEvent string

const (
	eventMarkRead entryEvent = "mark_read"
	eventDelete   entryEvent = "delete"
	eventConfirm  entryEvent = "confirm"
	eventRevert   entryEvent = "revert"
)

// reconcile is shared by every entry; the store keeps each entry's state.
var reconcile = mustReconcileMachine()

func mustReconcileMachine() *statemachine.Machine[entryState, entryEvent] {
	m, err := statemachine.NewBuilder[entryState, entryEvent]().
		From(stateSynced).When(eventMarkRead).To(statePendingRead).Guard(unread).Add().
		From(stateSynced).When(eventDelete).To(statePendingDelete).Add().
		From(statePendingRead).When(eventConfirm).To(stateSynced).Add().
		From(statePendingRead).When(eventRevert).To(stateSynced).Add().
		From(statePendingDelete).When(eventConfirm).To(stateRemoved).Add().
		From(statePendingDelete).When(eventRevert).To(stateSynced).Add().
		Build()
	if err != nil {
		panic(err)
	}
	return m
}

// unread rejects mark_read for an entry that is already read.
func unread(_ context.Context, _ entryState, _ entryEvent, data any) bool {
	n, ok := data.(Notification)
	return ok && !n.Read
}
