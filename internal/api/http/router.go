package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-manager/internal/api/http/handlers"
	"github.com/spec-kit/ticket-manager/internal/auth"
	"github.com/spec-kit/ticket-manager/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Modifications  *handlers.ModificationsHandler
	Comments       *handlers.CommentsHandler
	References     *handlers.ReferenceHandler
	Dashboard      *handlers.DashboardHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/token", cfg.Users.Login)
	authGroup.Post("/password/reset", cfg.Users.ResetPassword)

	protected := app.Group("", cfg.AuthMiddleware.Handle)

	protected.Post("/auth/password/change", cfg.Users.ChangePassword)

	users := protected.Group("/users")
	users.Get("/me", cfg.Users.Me)
	users.Get("", cfg.Users.ListUsers)
	users.Post("", auth.RequirePermission(domain.PermissionAdmin), cfg.Users.Register)
	users.Get("/:id", cfg.Users.GetUser)
	users.Put("/:id", cfg.Users.UpdateUser)
	users.Delete("/:id", auth.RequirePermission(domain.PermissionAdmin), cfg.Users.DeactivateUser)
	users.Post("/:id/password-reset", auth.RequirePermission(domain.PermissionAdmin), cfg.Users.CreateResetToken)

	tickets := protected.Group("/tickets")
	tickets.Post("", auth.RequirePermission(domain.PermissionEditor), cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id", auth.RequirePermission(domain.PermissionEditor), cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", auth.RequirePermission(domain.PermissionAdmin), cfg.Tickets.DeleteTicket)
	tickets.Get("/:id/statuses", cfg.Tickets.ValidStatuses)
	tickets.Get("/:id/modifications", cfg.Modifications.ListModifications)
	tickets.Post("/:id/modifications", auth.RequirePermission(domain.PermissionEditor), cfg.Modifications.AddNote)
	tickets.Get("/:id/comments", cfg.Comments.ListComments)
	tickets.Post("/:id/comments", auth.RequirePermission(domain.PermissionEditor), cfg.Comments.AddComment)

	references := protected.Group("/references")
	references.Get("/statuses", cfg.References.ListStatuses)
	references.Get("/crits", cfg.References.ListCrits)
	references.Get("/centers", cfg.References.ListCenters)
	references.Get("/tools", cfg.References.ListTools)

	protected.Get("/dashboard/statistics", cfg.Dashboard.Statistics)
}
