package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-manager/internal/api/dto"
	"github.com/spec-kit/ticket-manager/internal/auth"
	"github.com/spec-kit/ticket-manager/internal/domain"
	"github.com/spec-kit/ticket-manager/internal/service"
	apperrors "github.com/spec-kit/ticket-manager/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Title == "" || req.Description == "" {
		return apperrors.NewValidationError("title and description required", nil)
	}

	input := service.TicketCreateInput{
		TicketNum:   req.TicketNum,
		Type:        req.Type,
		Title:       req.Title,
		Description: req.Description,
		URL:         req.URL,
		CritID:      req.CritID,
		CenterID:    req.CenterID,
		ToolID:      req.ToolID,
		NotifierID:  req.NotifierID,
		People:      req.People,
		Pathway:     req.Pathway,
	}
	ticket, err := h.service.CreateTicket(c.Context(), user, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	if _, ok := auth.UserFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	input := parseTicketListQuery(c)
	tickets, total, err := h.service.ListTickets(c.Context(), input)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": dto.TicketListResponse{
		Tickets:  items,
		Total:    total,
		Page:     input.Page,
		PageSize: input.PageSize,
	}})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	if _, ok := auth.UserFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.service.GetTicket(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	rel, err := h.service.Relations(c.Context(), ticket)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket, rel)})
}

// UpdateTicket PUT /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TicketUpdateInput{
		TicketNum:   req.TicketNum,
		Type:        req.Type,
		Title:       req.Title,
		Description: req.Description,
		URL:         req.URL,
		StatusID:    req.StatusID,
		CritID:      req.CritID,
		CenterID:    req.CenterID,
		ToolID:      req.ToolID,
		NotifierID:  req.NotifierID,
		People:      req.People,
		Pathway:     req.Pathway,
		Attached:    req.Attached,
	}
	ticket, err := h.service.UpdateTicket(c.Context(), user, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.service.DeleteTicket(c.Context(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// ValidStatuses GET /tickets/:id/statuses.
func (h *TicketsHandler) ValidStatuses(c *fiber.Ctx) error {
	if _, ok := auth.UserFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID := c.Params("id")
	statuses, err := h.service.ValidNextStatuses(c.Context(), ticketID)
	if err != nil {
		return err
	}
	items := make([]dto.ReferenceItemResponse, 0, len(statuses))
	for _, status := range statuses {
		items = append(items, dto.ReferenceItemResponse{
			ID:    status.ID,
			Value: string(status.Value),
			Desc:  status.Desc,
		})
	}
	return c.JSON(fiber.Map{"data": dto.ValidStatusesResponse{TicketID: ticketID, Statuses: items}})
}

func parseTicketListQuery(c *fiber.Ctx) service.TicketListInput {
	input := service.TicketListInput{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 10),
	}
	if v := c.Query("status_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			input.StatusID = &id
		}
	}
	if v := c.Query("type"); v != "" {
		t := domain.TicketType(strings.ToLower(v))
		input.Type = &t
	}
	if v := c.Query("crit_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			input.CritID = &id
		}
	}
	if v := c.Query("tool_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			input.ToolID = &id
		}
	}
	if v := c.Query("center_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			input.CenterID = &id
		}
	}
	if v := c.Query("date_from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			input.DateFrom = &t
		}
	}
	if v := c.Query("date_to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			input.DateTo = &t
		}
	}
	if v := strings.TrimSpace(c.Query("search")); v != "" {
		input.Search = &v
	}
	input.ShowHidden = c.QueryBool("show_hidden", false)
	input.SortBy = c.Query("sort_by")
	input.SortOrder = c.Query("sort_order")
	return input
}
