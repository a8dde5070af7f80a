package chat

import "time"

// State is the request lifecycle of a session.
type State string

const (
	StateIdle     State = "idle"
	StateAwaiting State = "awaiting"
)

// Snapshot is a point-in-time copy of a session.
type Snapshot struct {
	SessionID    string    `json:"sessionId"`
	ChatbotID    string    `json:"chatbotId"`
	Messages     []Message `json:"messages"`
	PendingInput string    `json:"pendingInput"`
	State        State     `json:"state"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Awaiting reports whether a request is in flight.
func (s Snapshot) Awaiting() bool {
	return s.State == StateAwaiting
}

// EventType enumerates session notifications.
type EventType string

const (
	EventMessage  EventType = "message"
	EventState    EventType = "state"
	EventClosed   EventType = "closed"
	EventSnapshot EventType = "snapshot"
)

// Event is pushed to session subscribers in the order changes happen.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"sessionId"`
	Message   *Message  `json:"message,omitempty"`
	State     State     `json:"state,omitempty"`
	Snapshot  *Snapshot `json:"snapshot,omitempty"`
}
