package domain

import "time"

// TicketType distinguishes incident reports from suggestions.
type TicketType string

const (
	TicketTypeIncidence  TicketType = "incidence"
	TicketTypeSuggestion TicketType = "suggestion"
)

// Pathway records how a ticket entered the system.
type Pathway string

const (
	PathwayWeb      Pathway = "web"
	PathwayMobile   Pathway = "mobile"
	PathwayEmail    Pathway = "email"
	PathwayPhone    Pathway = "phone"
	PathwayInPerson Pathway = "in_person"
)

// AttachmentMeta stores metadata for a file attached to a ticket. The
// file bytes live outside this service; tickets only carry the record.
type AttachmentMeta struct {
	Filename     string  `json:"filename"`
	OriginalName string  `json:"original_name"`
	Path         string  `json:"path"`
	Size         int64   `json:"size"`
	Hash         string  `json:"hash"`
	UploadedBy   string  `json:"uploaded_by"`
	UploadedAt   string  `json:"uploaded_at"`
	FileType     string  `json:"file_type"`
	ContentType  string  `json:"content_type"`
	TicketID     string  `json:"ticket_id"`
	LastModified *string `json:"last_modified,omitempty"`
}

// Ticket is the aggregate for healthcare-support requests. IDs are
// hex-suffixed strings (INCXXXXXX or SUGXXXXXX) assigned at creation.
type Ticket struct {
	ID             string
	TicketNum      *string
	Type           TicketType
	Title          string
	Description    string
	URL            *string
	StatusID       int64
	CritID         int64
	CenterID       *int64
	ToolID         int64
	NotifierID     *int64
	People         []string
	Pathway        Pathway
	CreatorID      int64
	CreationDate   time.Time
	ModifyDate     *time.Time
	ResolutionDate *time.Time
	DeleteDate     *time.Time
	Attached       []AttachmentMeta
}

// Deleted reports whether the ticket has been soft-deleted. Deleted
// tickets stay in storage with their full modification history.
func (t *Ticket) Deleted() bool {
	return t.DeleteDate != nil
}
