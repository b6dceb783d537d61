package models

import "time"

// NotificationKind classifies user-facing events.
type NotificationKind string

const (
	KindSuccess NotificationKind = "success"
	KindError   NotificationKind = "error"
	KindInfo    NotificationKind = "info"
	KindWarning NotificationKind = "warning"
)

// Notification is a locally generated, user-facing event. IDs are assigned
// client-side at creation time. ScanID is an optional back-reference to the
// scan that triggered the event, not an ownership relation.
type Notification struct {
	ID        string           `json:"id"`
	Kind      NotificationKind `json:"kind"`
	Title     string           `json:"title"`
	Message   string           `json:"message,omitempty"`
	ScanID    string           `json:"scan_id,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	Read      bool             `json:"read"`
}
