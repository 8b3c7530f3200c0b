package dto

import (
	"time"

	"github.com/spec-kit/ticket-manager/internal/domain"
)

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// CommentResponse is one discussion entry.
type CommentResponse struct {
	ID        int64     `json:"id"`
	TicketID  string    `json:"ticket_id"`
	UserID    int64     `json:"user_id"`
	User      string    `json:"user"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCommentResponse maps a domain comment.
func NewCommentResponse(c *domain.Comment) CommentResponse {
	name := "Unknown user"
	if c.User != nil {
		name = c.User.DisplayName()
	}
	return CommentResponse{
		ID:        c.ID,
		TicketID:  c.TicketID,
		UserID:    c.UserID,
		User:      name,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}
