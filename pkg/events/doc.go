// Package events is the in-process publish/subscribe registry that sits
// between the realtime transport and its consumers.
//
// Handlers are registered per event type and receive every Event of that
// type synchronously, in the goroutine that called Dispatch. Subscribe
// returns a *Subscription handle; calling its Cancel method is the only way
// to unsubscribe, so a consumer can never "remove" a handler it did not
// register.
//
//	d := events.New()
//	sub := d.Subscribe(events.TypeNotification, func(ctx context.Context, ev events.Event) {
//	    // decode ev.Data
//	})
//	defer sub.Cancel()
//
// Dispatch works on a snapshot of the handlers registered when it starts:
// a handler cancelled mid-dispatch still receives the event being
// delivered, and a handler that panics is recovered and logged without
// affecting the remaining handlers.
//
// WithKey gives a registration an identity. Subscribing twice with the same
// type and key returns the original handle, so repeated registration of the
// same logical handler has no additional effect.
package events
