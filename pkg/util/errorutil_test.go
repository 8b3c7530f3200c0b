package util

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-manager/internal/workflow"
)

func TestToDomainErrorPassesThrough(t *testing.T) {
	orig := NewForbidden("nope")
	mapped := ToDomainError(orig)
	assert.Equal(t, "FORBIDDEN", mapped.Code)
	assert.Equal(t, http.StatusForbidden, mapped.HTTPStatus)
}

func TestToDomainErrorMapsUnknownStatus(t *testing.T) {
	err := &workflow.UnknownStatusError{Code: "archived"}
	mapped := ToDomainError(err)
	assert.Equal(t, "INVALID_STATUS_CODE", mapped.Code)
	assert.Equal(t, http.StatusBadRequest, mapped.HTTPStatus)
	assert.Equal(t, "archived", mapped.Details["status"])
}

func TestToDomainErrorMapsTransitionError(t *testing.T) {
	err := workflow.Decide("created", "closed")
	require.Error(t, err)

	mapped := ToDomainError(err)
	assert.Equal(t, "ILLEGAL_TRANSITION", mapped.Code)
	assert.Equal(t, http.StatusBadRequest, mapped.HTTPStatus)
	alts, ok := mapped.Details["valid_next_statuses"].([]string)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"reviewed", "notified", "deleted"}, alts)
}

func TestToDomainErrorMapsFiberError(t *testing.T) {
	mapped := ToDomainError(fiber.NewError(http.StatusForbidden, "insufficient permission"))
	assert.Equal(t, "FORBIDDEN", mapped.Code)
	assert.Equal(t, http.StatusForbidden, mapped.HTTPStatus)
	assert.Equal(t, "insufficient permission", mapped.Message)

	mapped = ToDomainError(fiber.NewError(http.StatusMethodNotAllowed, "Method Not Allowed"))
	assert.Equal(t, "VALIDATION_FAILED", mapped.Code)
	assert.Equal(t, http.StatusMethodNotAllowed, mapped.HTTPStatus)

	mapped = ToDomainError(fiber.NewError(http.StatusBadGateway, "upstream"))
	assert.Equal(t, "INTERNAL_ERROR", mapped.Code)
	assert.Equal(t, http.StatusBadGateway, mapped.HTTPStatus)
}

func TestToDomainErrorMapsNoRows(t *testing.T) {
	mapped := ToDomainError(pgx.ErrNoRows)
	assert.Equal(t, "NOT_FOUND", mapped.Code)
	assert.Equal(t, http.StatusNotFound, mapped.HTTPStatus)
}

func TestToDomainErrorWrapsUnknown(t *testing.T) {
	mapped := ToDomainError(errors.New("boom"))
	assert.Equal(t, "INTERNAL_ERROR", mapped.Code)
	assert.Equal(t, http.StatusInternalServerError, mapped.HTTPStatus)
}

func TestToDomainErrorNil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
}
