package notifications

import "errors"

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrOperationPending     = errors.New("notification has a pending operation")
	ErrReconcileFailed      = errors.New("server rejected local change, state restored")
	ErrInvalidPage          = errors.New("page must be positive")
	ErrNoMorePages          = errors.New("no more pages")
	ErrInvalidNotification  = errors.New("notification ID is required")
)
