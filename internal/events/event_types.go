package events

import (
	"time"

	"github.com/spec-kit/inventory-console/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSessionChanged       EventType = "session_changed"
	EventRequestStatusChanged EventType = "request_status_changed"
	EventChatReplied          EventType = "chat_replied"
	EventChatDeleted          EventType = "chat_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Subject   string      `json:"subject"`
	Actor     string      `json:"actor,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SessionChangedPayload carries the identity after a sign-in, restore or sign-out.
// Identity is nil when the session ended.
type SessionChangedPayload struct {
	SessionID string           `json:"session_id"`
	Identity  *domain.Identity `json:"identity,omitempty"`
}

// RequestStatusChangedPayload payload.
type RequestStatusChangedPayload struct {
	Owner     string        `json:"owner"`
	RequestID string        `json:"request_id"`
	Timestamp string        `json:"timestamp"`
	NewStatus domain.Status `json:"new_status"`
}

// ChatRepliedPayload payload.
type ChatRepliedPayload struct {
	Owner           string `json:"owner"`
	MessageTS       string `json:"message_ts"`
	SolutionPreview string `json:"solution_preview"`
}

// ChatDeletedPayload payload.
type ChatDeletedPayload struct {
	Owner string `json:"owner"`
}
