package model

// NotificationKind is the action announced back to an event's channel.
type NotificationKind string

const (
	NotifyCreated NotificationKind = "created"
	NotifyJoined  NotificationKind = "joined"
	NotifyLeft    NotificationKind = "left"
)

// Notification is a snapshot of an event right after an RSVP change.
// Event is copied by value so later mutations can't leak into the message.
type Notification struct {
	Kind  NotificationKind
	Actor string
	Event Event
}
