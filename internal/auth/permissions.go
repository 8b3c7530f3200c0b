package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/ticket-manager/pkg/util"
)

// RequirePermission ensures the caller holds at least the given
// permission level. Lower level numbers grant more access. Denials go
// through the DomainError taxonomy so the error middleware renders
// proper 401/403 responses.
func RequirePermission(level int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := UserFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !user.Can(level) {
			return apperrors.NewForbidden("insufficient permission")
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures a user is logged in, any level.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := UserFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
