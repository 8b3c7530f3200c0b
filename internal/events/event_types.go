package events

import (
	"time"

	"github.com/spec-kit/ticket-manager/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketModified      EventType = "ticket_modified"
	EventTicketCommented     EventType = "ticket_commented"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	UserID    int64       `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Type     domain.TicketType `json:"type"`
	Title    string            `json:"title"`
	CritID   int64             `json:"crit_id"`
	ToolID   int64             `json:"tool_id"`
	CenterID *int64            `json:"center_id,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.StatusCode `json:"old_status"`
	NewStatus domain.StatusCode `json:"new_status"`
}

// TicketModifiedPayload payload.
type TicketModifiedPayload struct {
	Fields []string `json:"fields"`
}

// TicketCommentedPayload payload.
type TicketCommentedPayload struct {
	CommentID int64 `json:"comment_id"`
}
