package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/booking-service/internal/api/http/handlers"
	"github.com/spec-kit/booking-service/internal/auth"
	"github.com/spec-kit/booking-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Staff          *handlers.StaffHandler
	Appointments   *handlers.AppointmentsHandler
	Availability   *handlers.AvailabilityHandler
	Dispatch       *handlers.DispatchHandler
	Sales          *handlers.SalesHandler
	Metrics        *handlers.MetricsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Get("/availability", cfg.Availability.Day)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/users/login", cfg.Users.Login)

	authGroup.Post("/staff/login", cfg.Staff.Login)
	authGroup.Post("/password/reset/request", cfg.Staff.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Staff.ConfirmPasswordReset)

	protected := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	protected.Post("/password/change", cfg.Staff.ChangePassword)
	protected.Get("/users/me", cfg.Users.Me)

	customer := app.Group("/appointments", cfg.AuthMiddleware.Handle, auth.RequireUser())
	customer.Post("", cfg.Appointments.Create)
	customer.Get("", cfg.Appointments.List)
	customer.Get("/:id", cfg.Appointments.Get)

	dispatch := app.Group("/dispatch/appointments", cfg.AuthMiddleware.Handle, auth.RequireStaffRole(domain.StaffRoleAgent, domain.StaffRoleAdmin))
	dispatch.Get("", cfg.Dispatch.Queue)
	dispatch.Get("/:id", cfg.Dispatch.Get)
	dispatch.Post("/:id/assign", cfg.Dispatch.Assign)
	dispatch.Post("/:id/cancel", cfg.Dispatch.Cancel)
	dispatch.Post("/:id/complete", cfg.Dispatch.Complete)
	dispatch.Post("/:id/no-show", cfg.Dispatch.NoShow)

	sales := app.Group("/sales/appointments", cfg.AuthMiddleware.Handle, auth.RequireStaffRole(domain.StaffRoleSales))
	sales.Get("", cfg.Sales.ListMine)
	sales.Post("/:id/accept", cfg.Sales.Accept)
	sales.Post("/:id/reassignment-request", cfg.Sales.RequestReassignment)
	sales.Post("/:id/complete", cfg.Sales.Complete)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireStaffRole(domain.StaffRoleAdmin))
	admin.Post("/staff", cfg.Staff.Create)
	admin.Get("/staff", cfg.Staff.List)
	admin.Get("/staff/:id", cfg.Staff.Get)
	admin.Patch("/staff/:id", cfg.Staff.Update)
	admin.Get("/metrics", cfg.Metrics.Snapshot)
}
