package notifications

// Toast is a transient message for the presentation layer.
type Toast struct {
	Title          string
	Message        string
	Severity       Severity
	NotificationID string
}

func pushToast(n Notification) Toast {
	return Toast{
		Title:          n.Title,
		Message:        n.Message,
		Severity:       n.Severity,
		NotificationID: n.ID,
	}
}

func errorToast(title string, err error) Toast {
	return Toast{Title: title, Message: err.Error(), Severity: SeverityError}
}
