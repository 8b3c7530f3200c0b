package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-manager/internal/api/dto"
	"github.com/spec-kit/ticket-manager/internal/auth"
	"github.com/spec-kit/ticket-manager/internal/service"
	apperrors "github.com/spec-kit/ticket-manager/pkg/util"
)

// CommentsHandler manages ticket discussion endpoints.
type CommentsHandler struct {
	service *service.TicketService
}

// NewCommentsHandler constructs handler.
func NewCommentsHandler(ticketService *service.TicketService) *CommentsHandler {
	return &CommentsHandler{service: ticketService}
}

// AddComment POST /tickets/:id/comments.
func (h *CommentsHandler) AddComment(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	comment, err := h.service.AddComment(c.Context(), user, c.Params("id"), req.Content)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCommentResponse(comment)})
}

// ListComments GET /tickets/:id/comments.
func (h *CommentsHandler) ListComments(c *fiber.Ctx) error {
	if _, ok := auth.UserFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	comments, err := h.service.ListComments(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, dto.NewCommentResponse(&comments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
