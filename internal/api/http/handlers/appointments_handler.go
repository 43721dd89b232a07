package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/booking-service/internal/api/dto"
	"github.com/spec-kit/booking-service/internal/auth"
	"github.com/spec-kit/booking-service/internal/service"
	"github.com/spec-kit/booking-service/pkg/apperrors"
)

// AppointmentsHandler exposes the customer-facing booking endpoints.
type AppointmentsHandler struct {
	appointments *service.AppointmentService
}

// NewAppointmentsHandler constructs the handler.
func NewAppointmentsHandler(appointmentService *service.AppointmentService) *AppointmentsHandler {
	return &AppointmentsHandler{appointments: appointmentService}
}

// Create handles POST /appointments.
func (h *AppointmentsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("customer account required")
	}

	var req dto.CreateAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	appt, err := h.appointments.Create(c.Context(), principal.User.ID, service.AppointmentCreateInput{
		Type:        req.Type,
		ScheduledAt: req.ScheduledAt,
		Description: req.Description,
		Notes:       req.Notes,
		SiteAddress: siteAddressFromPayload(req.SiteAddress),
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": appointmentSummary(appt)})
}

// List handles GET /appointments for the authenticated customer.
func (h *AppointmentsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("customer account required")
	}

	appts, err := h.appointments.ListForCustomer(c.Context(), principal.User.ID, c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentSummaries(appts)})
}

// Get handles GET /appointments/:id for the owning customer.
func (h *AppointmentsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("customer account required")
	}

	appt, err := h.appointments.GetForCustomer(c.Context(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentSummary(appt)})
}
