package entity

import "time"

// NotificationKind is the severity of a UI notification.
type NotificationKind string

const (
	NoteInfo    NotificationKind = "info"
	NoteSuccess NotificationKind = "success"
	NoteError   NotificationKind = "error"
)

// NotificationDuration is how long the UI should display a notification.
const NotificationDuration = 5 * time.Second

// Notification is the only UI-facing signal the core emits.
type Notification struct {
	Message    string           `json:"message"`
	Kind       NotificationKind `json:"kind"`
	DurationMs int64            `json:"durationMs"`
}

// NewNotification builds a notification with the fixed display duration.
func NewNotification(message string, kind NotificationKind) Notification {
	return Notification{
		Message:    message,
		Kind:       kind,
		DurationMs: NotificationDuration.Milliseconds(),
	}
}
