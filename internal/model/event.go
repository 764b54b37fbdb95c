package model

import "fmt"

// CloseReason represents the reason for closing a notification.
// Values match the freedesktop.org notification protocol.
type CloseReason uint32

const (
	// CloseReasonExpired indicates the notification expired (timeout reached).
	CloseReasonExpired CloseReason = 1
	// CloseReasonDismissed indicates the user dismissed the notification.
	CloseReasonDismissed CloseReason = 2
	// CloseReasonClosed indicates the notification was closed via CloseNotification.
	CloseReasonClosed CloseReason = 3
	// CloseReasonUndefined is reserved by the protocol.
	CloseReasonUndefined CloseReason = 4
)

// String returns the string representation of the close reason.
func (r CloseReason) String() string {
	switch r {
	case CloseReasonExpired:
		return "expired"
	case CloseReasonDismissed:
		return "dismissed"
	case CloseReasonClosed:
		return "closed"
	case CloseReasonUndefined:
		return "undefined"
	default:
		return "unknown"
	}
}

// EventKind discriminates domain events.
type EventKind int

const (
	// EventNotify carries a new or replacing notification.
	EventNotify EventKind = iota
	// EventClosed carries the id of a notification that went away.
	EventClosed
)

// String returns the string representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventNotify:
		return "notify"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event is an already-validated state change produced by the protocol layer.
type Event struct {
	Kind         EventKind
	Notification *Notification // set for EventNotify
	ID           uint32
	Reason       CloseReason // set for EventClosed
}

// NotifyEvent returns a Notify domain event for n.
func NotifyEvent(n *Notification) Event {
	return Event{Kind: EventNotify, Notification: n, ID: n.ID}
}

// ClosedEvent returns a Closed domain event.
func ClosedEvent(id uint32, reason CloseReason) Event {
	return Event{Kind: EventClosed, ID: id, Reason: reason}
}

func (e Event) String() string {
	if e.Kind == EventClosed {
		return fmt.Sprintf("closed(%d, %s)", e.ID, e.Reason)
	}
	return fmt.Sprintf("%s(%d)", e.Kind, e.ID)
}
