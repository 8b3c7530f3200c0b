package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-manager/internal/auth"
	"github.com/spec-kit/ticket-manager/internal/service"
	apperrors "github.com/spec-kit/ticket-manager/pkg/util"
)

// DashboardHandler serves aggregate ticket statistics.
type DashboardHandler struct {
	service *service.TicketService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(ticketService *service.TicketService) *DashboardHandler {
	return &DashboardHandler{service: ticketService}
}

// Statistics GET /dashboard/statistics.
func (h *DashboardHandler) Statistics(c *fiber.Ctx) error {
	if _, ok := auth.UserFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	stats, err := h.service.DashboardStatistics(c.Context(), c.QueryInt("months", 12))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}
