package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-manager/internal/domain"
)

func neverExists(ctx context.Context, id string) (bool, error) { return false, nil }

func TestGenerateTicketIDFormat(t *testing.T) {
	ctx := context.Background()

	incID, err := GenerateTicketID(ctx, domain.TicketTypeIncidence, neverExists)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(incID, "INC"))
	assert.Len(t, incID, 9)
	assert.True(t, ValidTicketID(incID))

	sugID, err := GenerateTicketID(ctx, domain.TicketTypeSuggestion, neverExists)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sugID, "SUG"))
	assert.True(t, ValidTicketID(sugID))
}

func TestGenerateTicketIDInvalidType(t *testing.T) {
	_, err := GenerateTicketID(context.Background(), domain.TicketType("complaint"), neverExists)
	require.Error(t, err)
}

func TestGenerateTicketIDRetriesOnCollision(t *testing.T) {
	calls := 0
	exists := func(ctx context.Context, id string) (bool, error) {
		calls++
		return calls <= 3, nil
	}
	id, err := GenerateTicketID(context.Background(), domain.TicketTypeIncidence, exists)
	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	assert.True(t, ValidTicketID(id))
}

func TestGenerateTicketIDExhaustedFallsBack(t *testing.T) {
	alwaysTaken := func(ctx context.Context, id string) (bool, error) { return true, nil }
	id, err := GenerateTicketID(context.Background(), domain.TicketTypeIncidence, alwaysTaken)
	require.NoError(t, err)
	assert.True(t, ValidTicketID(id))
}

func TestValidTicketID(t *testing.T) {
	assert.True(t, ValidTicketID("INC1A2B3C"))
	assert.True(t, ValidTicketID("SUG000000"))
	assert.False(t, ValidTicketID("TIC123456"))
	assert.False(t, ValidTicketID("INC123"))
	assert.False(t, ValidTicketID("INC12345Z"))
	assert.False(t, ValidTicketID(""))
}

func TestTicketTypeFromID(t *testing.T) {
	typ, err := TicketTypeFromID("INCABCDEF")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketTypeIncidence, typ)

	typ, err = TicketTypeFromID("SUG123456")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketTypeSuggestion, typ)

	_, err = TicketTypeFromID("nonsense")
	require.Error(t, err)
}
