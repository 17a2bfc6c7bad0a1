package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-io/helpdesk-service/internal/api/http/handlers"
	"github.com/helpdesk-io/helpdesk-service/internal/auth"
	"github.com/helpdesk-io/helpdesk-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Assignment     *handlers.AssignmentHandler
	Analysis       *handlers.AnalysisHandler
	Categories     *handlers.CategoriesHandler
	SLA            *handlers.SLAHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), cfg.Auth.ChangePassword)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())

	tickets := api.Group("/tickets")
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id/status", cfg.Tickets.UpdateStatus)

	// Assignment and similarity tooling is staff-only.
	staff := api.Group("", auth.RequireRole(domain.RoleAgent))
	staff.Post("/tickets/:id/assign", cfg.Assignment.Assign)
	staff.Post("/tickets/:id/reassign", cfg.Assignment.Reassign)
	staff.Get("/agents/:id/workload", cfg.Assignment.Workload)
	staff.Get("/agents/workloads", cfg.Assignment.AllWorkloads)
	staff.Get("/analysis/similar", cfg.Analysis.SimilarTickets)
	staff.Get("/analysis/suggestion", cfg.Analysis.Suggestion)
	staff.Get("/analysis/recurring", cfg.Analysis.RecurringIssues)

	api.Get("/categories", cfg.Categories.List)
	api.Post("/categories", auth.RequireRole(domain.RoleAdmin), cfg.Categories.Create)

	lead := api.Group("/sla", auth.RequireRole(domain.RoleTeamLead))
	lead.Post("/sweep", cfg.SLA.RunSweep)
	lead.Get("/sweep/last", cfg.SLA.LastSweep)
}
