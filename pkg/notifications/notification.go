package notifications

import (
	"encoding/json"
	"maps"
	"strings"
	"time"
)

// Severity is the visual weight of a notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// ParseSeverity normalises s; unknown values become SeverityInfo.
func ParseSeverity(s string) Severity {
	switch sev := Severity(strings.ToLower(strings.TrimSpace(s))); sev {
	case SeverityInfo, SeverityWarning, SeveritySuccess, SeverityError:
		return sev
	default:
		return SeverityInfo
	}
}

func (s *Severity) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = ParseSeverity(raw)
	return nil
}

// Data is the optional domain payload attached to a notification.
// Keys without a dedicated field are kept in Extra and written back on marshal.
type Data struct {
	AppointmentID string     `json:"appointmentId,omitempty"`
	InvoiceID     string     `json:"invoiceId,omitempty"`
	ClientID      string     `json:"clientId,omitempty"`
	DocumentID    string     `json:"documentId,omitempty"`
	Amount        *float64   `json:"amount,omitempty"`
	Date          *time.Time `json:"date,omitempty"`
	OldDate       *time.Time `json:"oldDate,omitempty"`
	NewDate       *time.Time `json:"newDate,omitempty"`

	Extra map[string]any `json:"-"`
}

var dataKeys = []string{
	"appointmentId", "invoiceId", "clientId", "documentId",
	"amount", "date", "oldDate", "newDate",
}

type dataFields Data

func (d *Data) UnmarshalJSON(b []byte) error {
	var fields dataFields
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}

	var all map[string]any
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	for _, k := range dataKeys {
		delete(all, k)
	}

	*d = Data(fields)
	if len(all) > 0 {
		d.Extra = all
	}
	return nil
}

func (d Data) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(dataFields(d))
	if err != nil || len(d.Extra) == 0 {
		return known, err
	}

	merged := make(map[string]any, len(d.Extra)+len(dataKeys))
	maps.Copy(merged, d.Extra)
	var fields map[string]any
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	maps.Copy(merged, fields)
	return json.Marshal(merged)
}

// Notification is one user-facing event.
type Notification struct {
	ID        string     `json:"_id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Severity  Severity   `json:"severity"`
	Data      *Data      `json:"data,omitempty"`
	Read      bool       `json:"read"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type notificationFields Notification

// UnmarshalJSON accepts the identifier as either "_id" or "id" and defaults
// a missing severity to info.
func (n *Notification) UnmarshalJSON(b []byte) error {
	var wire struct {
		notificationFields
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}

	*n = Notification(wire.notificationFields)
	if n.ID == "" {
		n.ID = wire.AltID
	}
	if n.Severity == "" {
		n.Severity = SeverityInfo
	}
	return nil
}

// IsExpired reports whether the notification expired at or before now.
func (n Notification) IsExpired(now time.Time) bool {
	return n.ExpiresAt != nil && !now.Before(*n.ExpiresAt)
}

// InCategory reports whether the notification's type belongs to c.
func (n Notification) InCategory(c Category) bool {
	return c.Match(n.Type)
}
