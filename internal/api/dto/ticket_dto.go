package dto

import (
	"time"

	"github.com/spec-kit/ticket-manager/internal/domain"
	"github.com/spec-kit/ticket-manager/internal/service"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	TicketNum   *string           `json:"ticket_num"`
	Type        domain.TicketType `json:"type"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	URL         *string           `json:"url"`
	CritID      int64             `json:"crit_id"`
	CenterID    *int64            `json:"center_id"`
	ToolID      int64             `json:"tool_id"`
	NotifierID  *int64            `json:"notifier_id"`
	People      []string          `json:"people"`
	Pathway     domain.Pathway    `json:"pathway"`
}

// UpdateTicketRequest payload. Absent fields stay unchanged; a zero
// center_id or notifier_id clears the reference.
type UpdateTicketRequest struct {
	TicketNum   *string                  `json:"ticket_num"`
	Type        *domain.TicketType       `json:"type"`
	Title       *string                  `json:"title"`
	Description *string                  `json:"description"`
	URL         *string                  `json:"url"`
	StatusID    *int64                   `json:"status_id"`
	CritID      *int64                   `json:"crit_id"`
	CenterID    *int64                   `json:"center_id"`
	ToolID      *int64                   `json:"tool_id"`
	NotifierID  *int64                   `json:"notifier_id"`
	People      *[]string                `json:"people"`
	Pathway     *domain.Pathway          `json:"pathway"`
	Attached    *[]domain.AttachmentMeta `json:"attached"`
}

// TicketSummary is the listing row.
type TicketSummary struct {
	ID           string            `json:"id"`
	TicketNum    *string           `json:"ticket_num"`
	Type         domain.TicketType `json:"type"`
	Title        string            `json:"title"`
	StatusID     int64             `json:"status_id"`
	CritID       int64             `json:"crit_id"`
	CenterID     *int64            `json:"center_id"`
	ToolID       int64             `json:"tool_id"`
	Pathway      domain.Pathway    `json:"pathway"`
	CreationDate time.Time         `json:"creation_date"`
	ModifyDate   *time.Time        `json:"modify_date"`
}

// ReferenceItemResponse is one resolved reference row.
type ReferenceItemResponse struct {
	ID    int64  `json:"id"`
	Value string `json:"value"`
	Desc  string `json:"desc"`
}

// TicketDetailResponse provides full ticket info with resolved
// reference rows.
type TicketDetailResponse struct {
	ID             string                  `json:"id"`
	TicketNum      *string                 `json:"ticket_num"`
	Type           domain.TicketType       `json:"type"`
	Title          string                  `json:"title"`
	Description    string                  `json:"description"`
	URL            *string                 `json:"url"`
	Status         *ReferenceItemResponse  `json:"status"`
	Crit           *ReferenceItemResponse  `json:"crit"`
	Center         *ReferenceItemResponse  `json:"center"`
	Tool           *ReferenceItemResponse  `json:"tool"`
	Creator        *UserResponse           `json:"creator"`
	Notifier       *UserResponse           `json:"notifier"`
	People         []string                `json:"people"`
	Pathway        domain.Pathway          `json:"pathway"`
	CreationDate   time.Time               `json:"creation_date"`
	ModifyDate     *time.Time              `json:"modify_date"`
	ResolutionDate *time.Time              `json:"resolution_date"`
	DeleteDate     *time.Time              `json:"delete_date"`
	Attached       []domain.AttachmentMeta `json:"attached"`
}

// TicketListResponse wraps one page of tickets.
type TicketListResponse struct {
	Tickets  []TicketSummary `json:"tickets"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// ValidStatusesResponse lists the legal next statuses for a ticket.
type ValidStatusesResponse struct {
	TicketID string                  `json:"ticket_id"`
	Statuses []ReferenceItemResponse `json:"statuses"`
}

// NewTicketSummary maps a domain ticket to its listing row.
func NewTicketSummary(t *domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:           t.ID,
		TicketNum:    t.TicketNum,
		Type:         t.Type,
		Title:        t.Title,
		StatusID:     t.StatusID,
		CritID:       t.CritID,
		CenterID:     t.CenterID,
		ToolID:       t.ToolID,
		Pathway:      t.Pathway,
		CreationDate: t.CreationDate,
		ModifyDate:   t.ModifyDate,
	}
}

// NewTicketDetail maps a ticket plus its resolved relations.
func NewTicketDetail(t *domain.Ticket, rel *service.TicketRelations) TicketDetailResponse {
	resp := TicketDetailResponse{
		ID:             t.ID,
		TicketNum:      t.TicketNum,
		Type:           t.Type,
		Title:          t.Title,
		Description:    t.Description,
		URL:            t.URL,
		People:         t.People,
		Pathway:        t.Pathway,
		CreationDate:   t.CreationDate,
		ModifyDate:     t.ModifyDate,
		ResolutionDate: t.ResolutionDate,
		DeleteDate:     t.DeleteDate,
		Attached:       t.Attached,
	}
	if rel == nil {
		return resp
	}
	if rel.Status != nil {
		resp.Status = &ReferenceItemResponse{ID: rel.Status.ID, Value: string(rel.Status.Value), Desc: rel.Status.Desc}
	}
	if rel.Crit != nil {
		resp.Crit = &ReferenceItemResponse{ID: rel.Crit.ID, Value: rel.Crit.Value, Desc: rel.Crit.Desc}
	}
	if rel.Center != nil {
		resp.Center = &ReferenceItemResponse{ID: rel.Center.ID, Value: rel.Center.Value, Desc: rel.Center.Desc}
	}
	if rel.Tool != nil {
		resp.Tool = &ReferenceItemResponse{ID: rel.Tool.ID, Value: rel.Tool.Value, Desc: rel.Tool.Desc}
	}
	if rel.Creator != nil {
		creator := NewUserResponse(rel.Creator)
		resp.Creator = &creator
	}
	if rel.Notifier != nil {
		notifier := NewUserResponse(rel.Notifier)
		resp.Notifier = &notifier
	}
	return resp
}
