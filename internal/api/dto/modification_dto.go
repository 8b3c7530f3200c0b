package dto

import (
	"time"

	"github.com/spec-kit/ticket-manager/internal/domain"
)

// ModificationGroupResponse is one grouped change-log entry: every
// field change a user saved in a single update, rendered as sentences.
type ModificationGroupResponse struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Date         time.Time `json:"date"`
	User         string    `json:"user"`
	Changes      []string  `json:"changes"`
	TotalChanges int       `json:"total_changes"`
}

// ModificationListResponse wraps a ticket's change log.
type ModificationListResponse struct {
	TicketID      string                      `json:"ticket_id"`
	Modifications []ModificationGroupResponse `json:"modifications"`
}

// CreateNoteRequest appends a manual annotation to the change log.
type CreateNoteRequest struct {
	Reason string `json:"reason"`
}

// NewModificationGroups maps grouped ledger entries.
func NewModificationGroups(groups []domain.GroupedModification) []ModificationGroupResponse {
	out := make([]ModificationGroupResponse, 0, len(groups))
	for _, g := range groups {
		name := "Unknown user"
		if g.User != nil {
			name = g.User.DisplayName()
		}
		out = append(out, ModificationGroupResponse{
			ID:           g.ID,
			UserID:       g.UserID,
			Date:         g.Date,
			User:         name,
			Changes:      g.Changes,
			TotalChanges: g.TotalChanges,
		})
	}
	return out
}
