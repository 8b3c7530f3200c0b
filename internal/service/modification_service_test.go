package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-manager/internal/domain"
	apperrors "github.com/spec-kit/ticket-manager/pkg/util"
)

func TestRecordRejectsEmptyChangeSet(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)

	_, err := f.mods.Record(context.Background(), ticket.ID, f.editor.ID, nil)
	require.ErrorIs(t, err, ErrEmptyChangeSet)

	groups, err := f.mods.ListForTicket(context.Background(), ticket.ID, domain.OrderChronological)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestRecordUnknownTicket(t *testing.T) {
	f := newTicketFixture(t)
	_, err := f.mods.Record(context.Background(), "INC123456", f.editor.ID, []domain.FieldChange{
		{Field: "title", OldValue: "a", NewValue: "b"},
	})
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestRecordBatchSharesTimestamp(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)
	ctx := context.Background()

	mods, err := f.mods.Record(ctx, ticket.ID, f.editor.ID, []domain.FieldChange{
		{Field: "title", OldValue: "a", NewValue: "b"},
		{Field: "description", OldValue: "x", NewValue: "y"},
		{Field: "url", OldValue: "", NewValue: "https://intranet/kb/42"},
	})
	require.NoError(t, err)
	require.Len(t, mods, 3)
	for _, mod := range mods[1:] {
		assert.True(t, mod.Date.Equal(mods[0].Date))
	}

	groups, err := f.mods.ListForTicket(ctx, ticket.ID, domain.OrderChronological)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 3, groups[0].TotalChanges)
}

func TestGroupingSplitsByUserAndBatch(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)
	ctx := context.Background()

	_, err := f.mods.Record(ctx, ticket.ID, f.editor.ID, []domain.FieldChange{
		{Field: "title", OldValue: "a", NewValue: "b"},
	})
	require.NoError(t, err)
	_, err = f.mods.Record(ctx, ticket.ID, f.admin.ID, []domain.FieldChange{
		{Field: "description", OldValue: "x", NewValue: "y"},
		{Field: "people", OldValue: "", NewValue: "Dr. Vila"},
	})
	require.NoError(t, err)

	groups, err := f.mods.ListForTicket(ctx, ticket.ID, domain.OrderChronological)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, f.editor.ID, groups[0].UserID)
	assert.Equal(t, 1, groups[0].TotalChanges)
	assert.Equal(t, f.admin.ID, groups[1].UserID)
	assert.Equal(t, 2, groups[1].TotalChanges)
	require.NotNil(t, groups[1].User)
	assert.Equal(t, "admin", groups[1].User.Username)
}

func TestListOrderReverseChronological(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)
	ctx := context.Background()

	_, err := f.mods.Record(ctx, ticket.ID, f.editor.ID, []domain.FieldChange{
		{Field: "title", OldValue: "a", NewValue: "first"},
	})
	require.NoError(t, err)
	_, err = f.mods.Record(ctx, ticket.ID, f.admin.ID, []domain.FieldChange{
		{Field: "title", OldValue: "first", NewValue: "second"},
	})
	require.NoError(t, err)

	asc, err := f.mods.ListForTicket(ctx, ticket.ID, domain.OrderChronological)
	require.NoError(t, err)
	desc, err := f.mods.ListForTicket(ctx, ticket.ID, domain.OrderReverseChronological)
	require.NoError(t, err)

	require.Len(t, asc, 2)
	require.Len(t, desc, 2)
	assert.Equal(t, asc[0].ID, desc[len(desc)-1].ID)
	assert.Equal(t, asc[len(asc)-1].ID, desc[0].ID)
}

func TestManualNoteRendersVerbatim(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)
	ctx := context.Background()

	note, err := f.mods.RecordManualNote(ctx, ticket.ID, f.editor.ID, "Called the ward; issue confirmed on site.")
	require.NoError(t, err)
	assert.True(t, note.Note())

	groups, err := f.mods.ListForTicket(ctx, ticket.ID, domain.OrderChronological)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"Called the ward; issue confirmed on site."}, groups[0].Changes)
}

func TestManualNoteRequiresReason(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)

	_, err := f.mods.RecordManualNote(context.Background(), ticket.ID, f.editor.ID, "")
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
}

func TestStatusChangeRendersWithDescriptions(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)
	ctx := context.Background()

	reviewed := f.refs.statusID(domain.StatusReviewed)
	_, err := f.svc.UpdateTicket(ctx, f.editor, ticket.ID, TicketUpdateInput{StatusID: &reviewed})
	require.NoError(t, err)

	groups, err := f.mods.ListForTicket(ctx, ticket.ID, domain.OrderChronological)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"Status changed from Created to Reviewed"}, groups[0].Changes)
}

func TestRenderingResolvesRenamedReferences(t *testing.T) {
	// The ledger stores raw IDs; renaming a reference later changes how
	// old history renders.
	f := newTicketFixture(t)
	ticket := f.createTicket(t)
	ctx := context.Background()

	crit := int64(3)
	_, err := f.svc.UpdateTicket(ctx, f.editor, ticket.ID, TicketUpdateInput{CritID: &crit})
	require.NoError(t, err)

	f.refs.crits[2].Desc = "Critical"

	groups, err := f.mods.ListForTicket(ctx, ticket.ID, domain.OrderChronological)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"The priority changed to Critical"}, groups[0].Changes)
}

func TestRenderingFallsBackToRawValue(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)
	ctx := context.Background()

	// Entry referencing a crit that no longer exists in reference data.
	_, err := f.mods.Record(ctx, ticket.ID, f.editor.ID, []domain.FieldChange{
		{Field: "crit_id", OldValue: "2", NewValue: "77"},
	})
	require.NoError(t, err)

	groups, err := f.mods.ListForTicket(ctx, ticket.ID, domain.OrderChronological)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"The priority changed to 77"}, groups[0].Changes)
}

func TestListForTicketUnknownTicket(t *testing.T) {
	f := newTicketFixture(t)
	_, err := f.mods.ListForTicket(context.Background(), "SUG000001", domain.OrderChronological)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}
