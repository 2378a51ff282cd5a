package event_bus

import "time"

const (
	// CalendarStateChanged carries a calendar store state snapshot.
	CalendarStateChanged EventType = "calendar.state.changed"
	// NotificationPublished carries a Notification meant for the user.
	NotificationPublished EventType = "notification.published"
)

type NotificationLevel string

const (
	NotificationSuccess NotificationLevel = "success"
	NotificationError   NotificationLevel = "error"
)

type Notification struct {
	Level   NotificationLevel `json:"level"`
	Message string            `json:"message"`
	At      time.Time         `json:"at"`
}
