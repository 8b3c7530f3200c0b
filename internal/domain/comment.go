package domain

import "time"

// Comment is a discussion entry on a ticket, separate from the audit trail.
type Comment struct {
	ID        int64
	TicketID  string
	UserID    int64
	Content   string
	CreatedAt time.Time
	User      *User
}
