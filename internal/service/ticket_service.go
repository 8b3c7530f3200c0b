package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-manager/internal/domain"
	"github.com/spec-kit/ticket-manager/internal/events"
	"github.com/spec-kit/ticket-manager/internal/repository"
	"github.com/spec-kit/ticket-manager/internal/workflow"
	apperrors "github.com/spec-kit/ticket-manager/pkg/util"
)

// errNoChanges aborts the update transaction when no field differs; the
// caller treats it as a successful no-op (nothing written, no ledger
// entry).
var errNoChanges = errors.New("no field changes")

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	refs       repository.ReferenceRepository
	users      repository.UserRepository
	comments   repository.CommentRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo    repository.TicketRepository
	ReferenceRepo repository.ReferenceRepository
	UserRepo      repository.UserRepository
	CommentRepo   repository.CommentRepository
	Dispatcher    events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		refs:       deps.ReferenceRepo,
		users:      deps.UserRepo,
		comments:   deps.CommentRepo,
		dispatcher: deps.Dispatcher,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	TicketNum   *string
	Type        domain.TicketType
	Title       string
	Description string
	URL         *string
	CritID      int64
	CenterID    *int64
	ToolID      int64
	NotifierID  *int64
	People      []string
	Pathway     domain.Pathway
}

// TicketUpdateInput carries the optional fields of an update request.
// Nil means "leave unchanged"; a zero ID on CenterID/NotifierID clears
// the reference.
type TicketUpdateInput struct {
	TicketNum   *string
	Type        *domain.TicketType
	Title       *string
	Description *string
	URL         *string
	StatusID    *int64
	CritID      *int64
	CenterID    *int64
	ToolID      *int64
	NotifierID  *int64
	People      *[]string
	Pathway     *domain.Pathway
	Attached    *[]domain.AttachmentMeta
}

// TicketListInput mirrors the listing query parameters.
type TicketListInput struct {
	StatusID   *int64
	Type       *domain.TicketType
	CritID     *int64
	ToolID     *int64
	CenterID   *int64
	DateFrom   *time.Time
	DateTo     *time.Time
	Search     *string
	ShowHidden bool
	SortBy     string
	SortOrder  string
	Page       int
	PageSize   int
}

// TicketRelations carries the reference rows a ticket points at,
// resolved for presentation.
type TicketRelations struct {
	Status   *domain.Status
	Crit     *domain.Crit
	Center   *domain.Center
	Tool     *domain.Tool
	Creator  *domain.User
	Notifier *domain.User
}

// CreateTicket creates a ticket in the initial `created` status with a
// freshly generated INC/SUG identifier.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if !actor.Can(domain.PermissionEditor) {
		return nil, apperrors.NewForbidden("insufficient permission to create tickets")
	}
	if input.Title == "" || input.Description == "" {
		return nil, apperrors.NewValidationError("title and description required", nil)
	}
	if _, ok := ticketTypePrefix[input.Type]; !ok {
		return nil, apperrors.NewValidationError("type must be incidence or suggestion", nil)
	}

	if _, err := s.refs.GetCritByID(ctx, input.CritID); err != nil {
		return nil, apperrors.NewValidationError("invalid crit id", map[string]any{"crit_id": input.CritID})
	}
	if _, err := s.refs.GetToolByID(ctx, input.ToolID); err != nil {
		return nil, apperrors.NewValidationError("invalid tool id", map[string]any{"tool_id": input.ToolID})
	}
	if input.CenterID != nil {
		if _, err := s.refs.GetCenterByID(ctx, *input.CenterID); err != nil {
			return nil, apperrors.NewValidationError("invalid center id", map[string]any{"center_id": *input.CenterID})
		}
	}

	// Tickets always enter the workflow at `created`; the status is a
	// one-way entry point, never reachable again.
	initial, err := s.refs.GetStatusByValue(ctx, domain.StatusCreated)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	id, err := GenerateTicketID(ctx, input.Type, s.tickets.Exists)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	people := input.People
	if people == nil {
		people = []string{}
	}
	ticket := &domain.Ticket{
		ID:          id,
		TicketNum:   input.TicketNum,
		Type:        input.Type,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		URL:         input.URL,
		StatusID:    initial.ID,
		CritID:      input.CritID,
		CenterID:    input.CenterID,
		ToolID:      input.ToolID,
		NotifierID:  input.NotifierID,
		People:      people,
		Pathway:     input.Pathway,
		CreatorID:   actor.ID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewPersistenceFailure(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		UserID:   actor.ID,
		Payload: events.TicketCreatedPayload{
			Type:     ticket.Type,
			Title:    ticket.Title,
			CritID:   ticket.CritID,
			ToolID:   ticket.ToolID,
			CenterID: ticket.CenterID,
		},
	})
	return ticket, nil
}

// GetTicket fetches a single ticket.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// ListTickets returns one page of tickets plus the total match count.
func (s *TicketService) ListTickets(ctx context.Context, input TicketListInput) ([]domain.Ticket, int64, error) {
	page := input.Page
	if page <= 0 {
		page = 1
	}
	pageSize := input.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 10
	}
	filter := repository.TicketFilter{
		StatusID:   input.StatusID,
		Type:       input.Type,
		CritID:     input.CritID,
		ToolID:     input.ToolID,
		CenterID:   input.CenterID,
		DateFrom:   input.DateFrom,
		DateTo:     input.DateTo,
		Search:     input.Search,
		ShowHidden: input.ShowHidden,
		SortBy:     input.SortBy,
		SortOrder:  input.SortOrder,
		Limit:      pageSize,
		Offset:     (page - 1) * pageSize,
	}
	tickets, total, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.NewPersistenceFailure(err)
	}
	return tickets, total, nil
}

// Relations resolves the reference rows a ticket points at.
func (s *TicketService) Relations(ctx context.Context, ticket *domain.Ticket) (*TicketRelations, error) {
	rel := &TicketRelations{}
	var err error
	if rel.Status, err = s.refs.GetStatusByID(ctx, ticket.StatusID); err != nil {
		return nil, apperrors.MapError(err)
	}
	if rel.Crit, err = s.refs.GetCritByID(ctx, ticket.CritID); err != nil {
		return nil, apperrors.MapError(err)
	}
	if rel.Tool, err = s.refs.GetToolByID(ctx, ticket.ToolID); err != nil {
		return nil, apperrors.MapError(err)
	}
	if ticket.CenterID != nil {
		if rel.Center, err = s.refs.GetCenterByID(ctx, *ticket.CenterID); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	if rel.Creator, err = s.users.GetByID(ctx, ticket.CreatorID); err != nil {
		return nil, apperrors.MapError(err)
	}
	if ticket.NotifierID != nil {
		if rel.Notifier, err = s.users.GetByID(ctx, *ticket.NotifierID); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	return rel, nil
}

// UpdateTicket applies an update inside one transaction: the current
// row is locked, the status transition re-validated against the fresh
// state, the mutation applied and the ledger entries appended. Either
// everything commits or nothing does.
func (s *TicketService) UpdateTicket(ctx context.Context, actor *domain.User, ticketID string, input TicketUpdateInput) (*domain.Ticket, error) {
	if !actor.Can(domain.PermissionEditor) {
		return nil, apperrors.NewForbidden("insufficient permission to modify tickets")
	}

	var statusEvent *events.TicketStatusChangedPayload
	var changedFields []string

	updated, err := s.tickets.ApplyUpdate(ctx, ticketID, func(ticket *domain.Ticket) ([]*domain.Modification, error) {
		changes, statusChange, err := s.applyInput(ctx, ticket, input)
		if err != nil {
			return nil, err
		}
		if len(changes) == 0 {
			return nil, errNoChanges
		}
		if statusChange != nil {
			statusEvent = statusChange
		}
		for _, change := range changes {
			changedFields = append(changedFields, change.Field)
		}
		return BuildModifications(ticket.ID, actor.ID, changes), nil
	})
	if errors.Is(err, errNoChanges) {
		// Nothing differed: no write, no ledger noise.
		return s.GetTicket(ctx, ticketID)
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if statusEvent != nil {
		s.publish(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: updated.ID,
			UserID:   actor.ID,
			Payload:  *statusEvent,
		})
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketModified,
		TicketID: updated.ID,
		UserID:   actor.ID,
		Payload:  events.TicketModifiedPayload{Fields: changedFields},
	})
	return updated, nil
}

// DeleteTicket soft-deletes through the workflow: the status moves to
// `deleted` (legal from every non-terminal status) and the delete date
// is stamped. History survives; nothing is removed from storage.
func (s *TicketService) DeleteTicket(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	if !actor.Can(domain.PermissionAdmin) {
		return nil, apperrors.NewForbidden("only administrators can delete tickets")
	}
	deletedStatus, err := s.refs.GetStatusByValue(ctx, domain.StatusDeleted)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.UpdateTicket(ctx, actor, ticketID, TicketUpdateInput{StatusID: &deletedStatus.ID})
}

// ValidNextStatuses resolves the legal targets for a ticket's current
// status, for client-side option hinting.
func (s *TicketService) ValidNextStatuses(ctx context.Context, ticketID string) ([]domain.Status, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	current, err := s.refs.GetStatusByID(ctx, ticket.StatusID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	result := []domain.Status{}
	for _, code := range workflow.ValidNextStatuses(current.Value) {
		status, err := s.refs.GetStatusByValue(ctx, code)
		if err != nil {
			continue // code not seeded yet; skip rather than fail the listing
		}
		result = append(result, *status)
	}
	return result, nil
}

// AddComment appends a discussion entry to a ticket.
func (s *TicketService) AddComment(ctx context.Context, actor *domain.User, ticketID, content string) (*domain.Comment, error) {
	if !actor.Can(domain.PermissionEditor) {
		return nil, apperrors.NewForbidden("insufficient permission to comment")
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.NewValidationError("content required", nil)
	}
	exists, err := s.tickets.Exists(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NewPersistenceFailure(err)
	}
	if !exists {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}

	comment := &domain.Comment{
		TicketID: ticketID,
		UserID:   actor.ID,
		Content:  strings.TrimSpace(content),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.NewPersistenceFailure(err)
	}
	comment.User = actor

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCommented,
		TicketID: ticketID,
		UserID:   actor.ID,
		Payload:  events.TicketCommentedPayload{CommentID: comment.ID},
	})
	return comment, nil
}

// ListComments returns the discussion thread for a ticket.
func (s *TicketService) ListComments(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	exists, err := s.tickets.Exists(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NewPersistenceFailure(err)
	}
	if !exists {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	comments, err := s.comments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NewPersistenceFailure(err)
	}
	return comments, nil
}

// applyInput mutates the locked ticket according to input and returns
// the resulting field changes, in a stable field order.
func (s *TicketService) applyInput(ctx context.Context, ticket *domain.Ticket, input TicketUpdateInput) ([]domain.FieldChange, *events.TicketStatusChangedPayload, error) {
	changes := []domain.FieldChange{}
	var statusChange *events.TicketStatusChangedPayload

	if input.StatusID != nil && *input.StatusID != ticket.StatusID {
		current, err := s.refs.GetStatusByID(ctx, ticket.StatusID)
		if err != nil {
			return nil, nil, apperrors.MapError(err)
		}
		target, err := s.refs.GetStatusByID(ctx, *input.StatusID)
		if err != nil {
			return nil, nil, apperrors.NewValidationError("invalid status id", map[string]any{"status_id": *input.StatusID})
		}
		if err := workflow.Decide(current.Value, target.Value); err != nil {
			return nil, nil, err
		}
		changes = append(changes, domain.FieldChange{
			Field:    "status_id",
			OldValue: formatID(&ticket.StatusID),
			NewValue: formatID(input.StatusID),
		})
		ticket.StatusID = target.ID
		now := time.Now().UTC()
		switch target.Value {
		case domain.StatusSolved:
			ticket.ResolutionDate = &now
		case domain.StatusDeleted:
			ticket.DeleteDate = &now
		}
		statusChange = &events.TicketStatusChangedPayload{
			OldStatus: current.Value,
			NewStatus: target.Value,
		}
	}

	if input.TicketNum != nil && !strPtrEqual(input.TicketNum, ticket.TicketNum) {
		changes = append(changes, domain.FieldChange{
			Field:    "ticket_num",
			OldValue: strPtrValue(ticket.TicketNum),
			NewValue: strPtrValue(input.TicketNum),
		})
		ticket.TicketNum = input.TicketNum
	}
	if input.Type != nil && *input.Type != ticket.Type {
		if _, ok := ticketTypePrefix[*input.Type]; !ok {
			return nil, nil, apperrors.NewValidationError("type must be incidence or suggestion", nil)
		}
		changes = append(changes, domain.FieldChange{
			Field:    "type",
			OldValue: string(ticket.Type),
			NewValue: string(*input.Type),
		})
		ticket.Type = *input.Type
	}
	if input.Title != nil && *input.Title != ticket.Title {
		changes = append(changes, domain.FieldChange{
			Field:    "title",
			OldValue: ticket.Title,
			NewValue: *input.Title,
		})
		ticket.Title = *input.Title
	}
	if input.Description != nil && *input.Description != ticket.Description {
		changes = append(changes, domain.FieldChange{
			Field:    "description",
			OldValue: ticket.Description,
			NewValue: *input.Description,
		})
		ticket.Description = *input.Description
	}
	if input.URL != nil && !strPtrEqual(input.URL, ticket.URL) {
		changes = append(changes, domain.FieldChange{
			Field:    "url",
			OldValue: strPtrValue(ticket.URL),
			NewValue: strPtrValue(input.URL),
		})
		ticket.URL = input.URL
	}
	if input.CritID != nil && *input.CritID != ticket.CritID {
		if _, err := s.refs.GetCritByID(ctx, *input.CritID); err != nil {
			return nil, nil, apperrors.NewValidationError("invalid crit id", map[string]any{"crit_id": *input.CritID})
		}
		changes = append(changes, domain.FieldChange{
			Field:    "crit_id",
			OldValue: formatID(&ticket.CritID),
			NewValue: formatID(input.CritID),
		})
		ticket.CritID = *input.CritID
	}
	if input.CenterID != nil {
		// Zero clears the optional center.
		newCenter := input.CenterID
		if *newCenter == 0 {
			newCenter = nil
		}
		if !idPtrEqual(newCenter, ticket.CenterID) {
			if newCenter != nil {
				if _, err := s.refs.GetCenterByID(ctx, *newCenter); err != nil {
					return nil, nil, apperrors.NewValidationError("invalid center id", map[string]any{"center_id": *newCenter})
				}
			}
			changes = append(changes, domain.FieldChange{
				Field:    "center_id",
				OldValue: formatID(ticket.CenterID),
				NewValue: formatID(newCenter),
			})
			ticket.CenterID = newCenter
		}
	}
	if input.ToolID != nil && *input.ToolID != ticket.ToolID {
		if _, err := s.refs.GetToolByID(ctx, *input.ToolID); err != nil {
			return nil, nil, apperrors.NewValidationError("invalid tool id", map[string]any{"tool_id": *input.ToolID})
		}
		changes = append(changes, domain.FieldChange{
			Field:    "tool_id",
			OldValue: formatID(&ticket.ToolID),
			NewValue: formatID(input.ToolID),
		})
		ticket.ToolID = *input.ToolID
	}
	if input.NotifierID != nil {
		newNotifier := input.NotifierID
		if *newNotifier == 0 {
			newNotifier = nil
		}
		if !idPtrEqual(newNotifier, ticket.NotifierID) {
			changes = append(changes, domain.FieldChange{
				Field:    "notifier_id",
				OldValue: formatID(ticket.NotifierID),
				NewValue: formatID(newNotifier),
			})
			ticket.NotifierID = newNotifier
		}
	}
	if input.People != nil {
		newPeople := *input.People
		if newPeople == nil {
			newPeople = []string{}
		}
		if !strSliceEqual(newPeople, ticket.People) {
			changes = append(changes, domain.FieldChange{
				Field:    "people",
				OldValue: strings.Join(ticket.People, ", "),
				NewValue: strings.Join(newPeople, ", "),
			})
			ticket.People = newPeople
		}
	}
	if input.Pathway != nil && *input.Pathway != ticket.Pathway {
		changes = append(changes, domain.FieldChange{
			Field:    "pathway",
			OldValue: string(ticket.Pathway),
			NewValue: string(*input.Pathway),
		})
		ticket.Pathway = *input.Pathway
	}
	if input.Attached != nil {
		oldCount := len(ticket.Attached)
		newCount := len(*input.Attached)
		if oldCount != newCount {
			reason := attachmentChangeReason(ticket.Attached, *input.Attached)
			changes = append(changes, domain.FieldChange{
				Field:    "attached",
				OldValue: strconv.Itoa(oldCount),
				NewValue: strconv.Itoa(newCount),
				Reason:   reason,
			})
			ticket.Attached = *input.Attached
		}
	}

	return changes, statusChange, nil
}

// attachmentChangeReason summarizes which files were added or removed.
func attachmentChangeReason(oldSet, newSet []domain.AttachmentMeta) string {
	if len(newSet) > len(oldSet) {
		oldPaths := make(map[string]struct{}, len(oldSet))
		for _, att := range oldSet {
			oldPaths[att.Path] = struct{}{}
		}
		var added []string
		for _, att := range newSet {
			if _, ok := oldPaths[att.Path]; !ok {
				name := att.OriginalName
				if name == "" {
					name = att.Filename
				}
				added = append(added, name)
			}
		}
		if len(added) > 0 {
			return "Files added: " + strings.Join(added, ", ")
		}
		return "Files added (" + strconv.Itoa(len(newSet)-len(oldSet)) + " files)"
	}
	return "Files removed (" + strconv.Itoa(len(oldSet)-len(newSet)) + " files)"
}

func formatID(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

func strPtrValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func idPtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func strSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
