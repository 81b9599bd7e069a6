package notifications

import "context"

// Page is one page of the server-side history.
type Page struct {
	Notifications      []Notification `json:"notifications"`
	CurrentPage        int            `json:"currentPage"`
	TotalPages         int            `json:"totalPages"`
	TotalNotifications int            `json:"totalNotifications"`
}

// DeleteResult is the response of a bulk delete.
type DeleteResult struct {
	Count   int    `json:"count"`
	Message string `json:"message,omitempty"`
}

// Gateway is the REST collaborator that owns the authoritative history.
type Gateway interface {
	// List returns page (1-based) of at most limit notifications, newest first.
	List(ctx context.Context, page, limit int) (Page, error)

	// ListUnread returns every unread notification.
	ListUnread(ctx context.Context) ([]Notification, error)

	// MarkAsRead persists the read flag and returns the updated notification.
	MarkAsRead(ctx context.Context, id string) (Notification, error)

	// MarkAllAsRead marks every notification read and returns how many changed.
	MarkAllAsRead(ctx context.Context) (int, error)

	// Delete removes a single notification.
	Delete(ctx context.Context, id string) error

	// DeleteRead removes every read notification.
	DeleteRead(ctx context.Context) (DeleteResult, error)
}
