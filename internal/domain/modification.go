package domain

import "time"

// Modification is one immutable audit-trail entry. Field-level entries
// carry (FieldName, OldValue, NewValue) as display strings; manual notes
// leave FieldName empty and put the free text in Reason.
type Modification struct {
	ID        int64
	TicketID  string
	UserID    int64
	Date      time.Time
	Reason    string
	FieldName string
	OldValue  string
	NewValue  string
}

// Note reports whether the entry is a manual annotation rather than a
// tracked field change.
func (m *Modification) Note() bool {
	return m.FieldName == ""
}

// FieldChange is one pending (field, old, new) delta produced by an
// update before it is persisted as Modification rows.
type FieldChange struct {
	Field    string
	OldValue string
	NewValue string
	Reason   string
}

// GroupedModification is the read model for the audit endpoint: all
// entries sharing the same (user, timestamp) collapse into one group of
// human-readable sentences. Derived on read, never persisted.
type GroupedModification struct {
	ID           int64
	UserID       int64
	Date         time.Time
	User         *User
	Changes      []string
	TotalChanges int
}

// ModificationOrder selects audit listing direction.
type ModificationOrder string

const (
	OrderChronological        ModificationOrder = "asc"
	OrderReverseChronological ModificationOrder = "desc"
)
