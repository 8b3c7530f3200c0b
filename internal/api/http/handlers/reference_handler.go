package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-manager/internal/api/dto"
	"github.com/spec-kit/ticket-manager/internal/auth"
	"github.com/spec-kit/ticket-manager/internal/repository"
	apperrors "github.com/spec-kit/ticket-manager/pkg/util"
)

// ReferenceHandler serves the reference catalogs (statuses, crits,
// centers, tools).
type ReferenceHandler struct {
	refs repository.ReferenceRepository
}

// NewReferenceHandler constructs handler.
func NewReferenceHandler(refs repository.ReferenceRepository) *ReferenceHandler {
	return &ReferenceHandler{refs: refs}
}

// ListStatuses GET /references/statuses.
func (h *ReferenceHandler) ListStatuses(c *fiber.Ctx) error {
	if _, ok := auth.UserFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	statuses, err := h.refs.ListStatuses(c.Context())
	if err != nil {
		return apperrors.NewPersistenceFailure(err)
	}
	items := make([]dto.ReferenceItemResponse, 0, len(statuses))
	for _, s := range statuses {
		items = append(items, dto.ReferenceItemResponse{ID: s.ID, Value: string(s.Value), Desc: s.Desc})
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListCrits GET /references/crits.
func (h *ReferenceHandler) ListCrits(c *fiber.Ctx) error {
	if _, ok := auth.UserFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	crits, err := h.refs.ListCrits(c.Context())
	if err != nil {
		return apperrors.NewPersistenceFailure(err)
	}
	items := make([]dto.ReferenceItemResponse, 0, len(crits))
	for _, cr := range crits {
		items = append(items, dto.ReferenceItemResponse{ID: cr.ID, Value: cr.Value, Desc: cr.Desc})
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListCenters GET /references/centers.
func (h *ReferenceHandler) ListCenters(c *fiber.Ctx) error {
	if _, ok := auth.UserFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	centers, err := h.refs.ListCenters(c.Context())
	if err != nil {
		return apperrors.NewPersistenceFailure(err)
	}
	items := make([]dto.ReferenceItemResponse, 0, len(centers))
	for _, ce := range centers {
		items = append(items, dto.ReferenceItemResponse{ID: ce.ID, Value: ce.Value, Desc: ce.Desc})
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListTools GET /references/tools.
func (h *ReferenceHandler) ListTools(c *fiber.Ctx) error {
	if _, ok := auth.UserFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	tools, err := h.refs.ListTools(c.Context())
	if err != nil {
		return apperrors.NewPersistenceFailure(err)
	}
	items := make([]dto.ReferenceItemResponse, 0, len(tools))
	for _, t := range tools {
		items = append(items, dto.ReferenceItemResponse{ID: t.ID, Value: t.Value, Desc: t.Desc})
	}
	return c.JSON(fiber.Map{"data": items})
}
