package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-manager/internal/api/dto"
	"github.com/spec-kit/ticket-manager/internal/auth"
	"github.com/spec-kit/ticket-manager/internal/domain"
	"github.com/spec-kit/ticket-manager/internal/service"
	apperrors "github.com/spec-kit/ticket-manager/pkg/util"
)

// ModificationsHandler exposes the ticket change log.
type ModificationsHandler struct {
	service *service.ModificationService
}

// NewModificationsHandler constructs handler.
func NewModificationsHandler(modService *service.ModificationService) *ModificationsHandler {
	return &ModificationsHandler{service: modService}
}

// ListModifications GET /tickets/:id/modifications.
func (h *ModificationsHandler) ListModifications(c *fiber.Ctx) error {
	if _, ok := auth.UserFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID := c.Params("id")

	order := domain.OrderReverseChronological
	if strings.EqualFold(c.Query("order"), string(domain.OrderChronological)) {
		order = domain.OrderChronological
	}

	groups, err := h.service.ListForTicket(c.Context(), ticketID, order)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ModificationListResponse{
		TicketID:      ticketID,
		Modifications: dto.NewModificationGroups(groups),
	}})
}

// AddNote POST /tickets/:id/modifications.
func (h *ModificationsHandler) AddNote(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if !user.Can(domain.PermissionEditor) {
		return apperrors.NewForbidden("insufficient permission to annotate tickets")
	}
	var req dto.CreateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Reason) == "" {
		return apperrors.NewValidationError("reason required", nil)
	}

	mod, err := h.service.RecordManualNote(c.Context(), c.Params("id"), user.ID, strings.TrimSpace(req.Reason))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"id":        mod.ID,
		"ticket_id": mod.TicketID,
		"user_id":   mod.UserID,
		"date":      mod.Date,
		"reason":    mod.Reason,
	}})
}
