package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/case-service/internal/api/http/handlers"
	"github.com/spec-kit/case-service/internal/auth"
	"github.com/spec-kit/case-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health              *handlers.HealthHandler
	Citizens            *handlers.CitizensHandler
	Officers            *handlers.OfficersHandler
	Applications        *handlers.ApplicationsHandler
	OfficerApplications *handlers.OfficerApplicationsHandler
	AuthMiddleware      *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Get("/departments", cfg.Officers.ListDepartments)

	authGroup := app.Group("/auth")
	authGroup.Post("/citizens/register", cfg.Citizens.Register)
	authGroup.Post("/citizens/login", cfg.Citizens.Login)

	authGroup.Post("/officers/login", cfg.Officers.Login)
	authGroup.Post("/password/reset/request", cfg.Officers.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Officers.ConfirmPasswordReset)

	protectedAuth := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	protectedAuth.Post("/password/change", cfg.Officers.ChangePassword)

	citizenGroup := app.Group("/applications", cfg.AuthMiddleware.Handle, auth.RequireCitizen())
	citizenGroup.Post("", cfg.Applications.Submit)
	citizenGroup.Get("", cfg.Applications.List)
	citizenGroup.Get("/:id", cfg.Applications.Get)
	citizenGroup.Get("/:id/history", cfg.Applications.History)
	citizenGroup.Post("/:id/solved", cfg.Applications.MarkSolved)

	officerGroup := app.Group("/officer/applications", cfg.AuthMiddleware.Handle, auth.RequireOfficerRole())
	officerGroup.Get("", cfg.OfficerApplications.ListQueue)
	officerGroup.Get("/:id", cfg.OfficerApplications.Get)
	officerGroup.Get("/:id/history", cfg.OfficerApplications.History)
	officerGroup.Post("/:id/status", cfg.OfficerApplications.UpdateStatus)
	officerGroup.Post("/:id/assign",
		auth.RequireOfficerRole(domain.OfficerRoleSupervisor, domain.OfficerRoleAdmin),
		cfg.OfficerApplications.Assign)

	adminGroup := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireOfficerRole(domain.OfficerRoleAdmin))
	adminGroup.Post("/departments", cfg.Officers.CreateDepartment)
	adminGroup.Put("/departments/:id", cfg.Officers.UpdateDepartment)
	adminGroup.Post("/officers", cfg.Officers.CreateOfficer)
	adminGroup.Get("/officers", cfg.Officers.ListOfficers)
	adminGroup.Get("/officers/:id", cfg.Officers.GetOfficer)
	adminGroup.Put("/officers/:id", cfg.Officers.UpdateOfficer)
}
