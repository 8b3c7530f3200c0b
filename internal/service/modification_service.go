package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-manager/internal/domain"
	"github.com/spec-kit/ticket-manager/internal/events"
	"github.com/spec-kit/ticket-manager/internal/repository"
	apperrors "github.com/spec-kit/ticket-manager/pkg/util"
)

// ErrEmptyChangeSet rejects ledger writes that would record nothing.
// An update with no deltas is a no-op, not an audit entry.
var ErrEmptyChangeSet = errors.New("update produced no field changes")

// ModificationService is the audit ledger: it records field-level diffs
// and exposes them grouped into human-readable change log entries.
type ModificationService struct {
	mods       repository.ModificationRepository
	tickets    repository.TicketRepository
	users      repository.UserRepository
	resolver   ReferenceResolver
	dispatcher events.Dispatcher
}

// ModificationDependencies bundles requirements for the ledger service.
type ModificationDependencies struct {
	ModificationRepo repository.ModificationRepository
	TicketRepo       repository.TicketRepository
	UserRepo         repository.UserRepository
	Resolver         ReferenceResolver
	Dispatcher       events.Dispatcher
}

// NewModificationService constructs the service.
func NewModificationService(deps ModificationDependencies) *ModificationService {
	return &ModificationService{
		mods:       deps.ModificationRepo,
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		resolver:   deps.Resolver,
		dispatcher: deps.Dispatcher,
	}
}

// BuildModifications turns pending field changes into ledger rows. The
// shared timestamp is assigned by the repository on insert.
func BuildModifications(ticketID string, userID int64, changes []domain.FieldChange) []*domain.Modification {
	mods := make([]*domain.Modification, 0, len(changes))
	for _, change := range changes {
		reason := change.Reason
		if reason == "" {
			reason = "Updated " + change.Field
		}
		mods = append(mods, &domain.Modification{
			TicketID:  ticketID,
			UserID:    userID,
			Reason:    reason,
			FieldName: change.Field,
			OldValue:  change.OldValue,
			NewValue:  change.NewValue,
		})
	}
	return mods
}

// Record appends one immutable ledger entry per field change, all
// sharing a single server-assigned timestamp. An empty change set
// returns ErrEmptyChangeSet and persists nothing.
func (s *ModificationService) Record(ctx context.Context, ticketID string, userID int64, changes []domain.FieldChange) ([]*domain.Modification, error) {
	if len(changes) == 0 {
		return nil, ErrEmptyChangeSet
	}
	exists, err := s.tickets.Exists(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NewPersistenceFailure(err)
	}
	if !exists {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}

	mods := BuildModifications(ticketID, userID, changes)
	if err := s.mods.CreateBatch(ctx, mods); err != nil {
		return nil, apperrors.NewPersistenceFailure(err)
	}

	fields := make([]string, 0, len(mods))
	for _, mod := range mods {
		fields = append(fields, mod.FieldName)
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketModified,
		TicketID: ticketID,
		UserID:   userID,
		Payload:  events.TicketModifiedPayload{Fields: fields},
	})
	return mods, nil
}

// RecordManualNote appends a free-text annotation. The field name is
// left empty as the reserved marker distinguishing notes from diffs.
func (s *ModificationService) RecordManualNote(ctx context.Context, ticketID string, userID int64, reason string) (*domain.Modification, error) {
	if reason == "" {
		return nil, apperrors.NewValidationError("reason required", nil)
	}
	exists, err := s.tickets.Exists(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NewPersistenceFailure(err)
	}
	if !exists {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}

	mod := &domain.Modification{
		TicketID: ticketID,
		UserID:   userID,
		Reason:   reason,
	}
	if err := s.mods.CreateBatch(ctx, []*domain.Modification{mod}); err != nil {
		return nil, apperrors.NewPersistenceFailure(err)
	}
	return mod, nil
}

// ListForTicket returns the grouped change log, recomputed fresh on
// every call. Consecutive entries sharing (user, timestamp) merge into
// one group; rendering resolves reference IDs to their current display
// descriptions so renamed reference data improves old history.
func (s *ModificationService) ListForTicket(ctx context.Context, ticketID string, order domain.ModificationOrder) ([]domain.GroupedModification, error) {
	exists, err := s.tickets.Exists(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NewPersistenceFailure(err)
	}
	if !exists {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}

	mods, err := s.mods.ListByTicket(ctx, ticketID, order)
	if err != nil {
		return nil, apperrors.NewPersistenceFailure(err)
	}

	userCache := map[int64]*domain.User{}
	lookupUser := func(id int64) *domain.User {
		if user, ok := userCache[id]; ok {
			return user
		}
		user, err := s.users.GetByID(ctx, id)
		if err != nil {
			user = nil
		}
		userCache[id] = user
		return user
	}

	groups := []domain.GroupedModification{}
	var current *domain.GroupedModification
	for i := range mods {
		mod := &mods[i]
		if current == nil || current.UserID != mod.UserID || !current.Date.Equal(mod.Date) {
			groups = append(groups, domain.GroupedModification{
				ID:     mod.ID,
				UserID: mod.UserID,
				Date:   mod.Date,
				User:   lookupUser(mod.UserID),
			})
			current = &groups[len(groups)-1]
		}
		current.Changes = append(current.Changes, renderChange(ctx, s.resolver, mod))
		current.TotalChanges++
	}
	return groups, nil
}

func (s *ModificationService) publish(ctx context.Context, event events.Event) {
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
