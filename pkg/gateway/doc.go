// Package gateway is the REST client for the notification service.
//
// Client implements notifications.Gateway over plain JSON endpoints:
//
//	GET    /notifications?page=&limit=
//	GET    /notifications/unread
//	PUT    /notifications/{id}/read
//	PUT    /notifications/read-all
//	DELETE /notifications/{id}
//	DELETE /notifications/read
//
// Every request carries "Authorization: Bearer <token>" obtained from an
// auth.TokenProvider. Non-2xx responses come back as *APIError, which
// matches ErrUnexpectedStatus with errors.Is.
//
// An optional CircuitBreaker fails requests fast with ErrCircuitOpen after
// repeated transport or 5xx failures.
//
//	gw := gateway.New("https://api.example.com/api", auth.Static(token),
//		gateway.WithCircuitBreaker(gateway.NewCircuitBreaker(5, 2, 30*time.Second)),
//	)
//	page, err := gw.List(ctx, 1, 10)
package gateway
