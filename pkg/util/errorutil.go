package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-manager/internal/workflow"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

// NewInvalidStatusCode signals a status outside the known enumeration.
func NewInvalidStatusCode(code string) error {
	return NewDomainError("INVALID_STATUS_CODE",
		fmt.Sprintf("unknown status code %q", code),
		http.StatusBadRequest,
		map[string]any{"status": code})
}

// NewIllegalTransition signals a forbidden status move and carries the
// legal next statuses so clients can present only valid options.
func NewIllegalTransition(message string, alternatives []string) error {
	return NewDomainError("ILLEGAL_TRANSITION", message, http.StatusBadRequest,
		map[string]any{"valid_next_statuses": alternatives})
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewPersistenceFailure wraps a failed storage round trip. The whole
// operation may be retried by the caller; re-validation from the
// now-current state keeps a retry safe.
func NewPersistenceFailure(err error) error {
	return &DomainError{
		Code:       "PERSISTENCE_FAILURE",
		Message:    "storage operation failed",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError, mapping workflow
// guard failures and missing rows to client errors.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	var unknownStatus *workflow.UnknownStatusError
	if errors.As(err, &unknownStatus) {
		return NewInvalidStatusCode(unknownStatus.Code).(*DomainError)
	}
	var transitionErr *workflow.TransitionError
	if errors.As(err, &transitionErr) {
		alts := make([]string, 0, len(transitionErr.Alternatives))
		for _, s := range transitionErr.Alternatives {
			alts = append(alts, string(s))
		}
		return NewIllegalTransition(transitionErr.Error(), alts).(*DomainError)
	}

	// Errors raised by fiber itself (routing 404/405, body limits) keep
	// their status instead of collapsing into a 500.
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code := "INTERNAL_ERROR"
		switch {
		case fiberErr.Code == http.StatusUnauthorized:
			code = "UNAUTHORIZED"
		case fiberErr.Code == http.StatusForbidden:
			code = "FORBIDDEN"
		case fiberErr.Code == http.StatusNotFound:
			code = "NOT_FOUND"
		case fiberErr.Code >= 400 && fiberErr.Code < 500:
			code = "VALIDATION_FAILED"
		}
		return NewDomainError(code, fiberErr.Message, fiberErr.Code, nil)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
