package events

import "sync"

// Subscription is the handle returned by Dispatcher.Subscribe.
type Subscription struct {
	id        string
	key       string
	eventType string
	handler   Handler
	owner     *Dispatcher

	mu        sync.Mutex
	cancelled bool
}

// ID returns the unique identifier of the registration.
func (s *Subscription) ID() string { return s.id }

// Type returns the event type the handler is registered for.
func (s *Subscription) Type() string { return s.eventType }

// Cancel unregisters the handler. Safe to call more than once.
func (s *Subscription) Cancel() {
	if !s.markCancelled() {
		return
	}
	s.owner.remove(s)
}

// Cancelled reports whether the subscription has been cancelled.
func (s *Subscription) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// markCancelled flips the flag and reports whether this call did it.
func (s *Subscription) markCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled {
		return false
	}
	s.cancelled = true
	return true
}
