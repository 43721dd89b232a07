package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/booking-service/internal/api/dto"
	"github.com/spec-kit/booking-service/internal/service"
	"github.com/spec-kit/booking-service/pkg/apperrors"
)

// SalesHandler exposes the assigned-staff endpoints.
type SalesHandler struct {
	appointments *service.AppointmentService
	assignments  *service.AssignmentService
}

// NewSalesHandler constructs the handler.
func NewSalesHandler(appointmentService *service.AppointmentService, assignmentService *service.AssignmentService) *SalesHandler {
	return &SalesHandler{appointments: appointmentService, assignments: assignmentService}
}

// ListMine handles GET /sales/appointments.
func (h *SalesHandler) ListMine(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}

	appts, err := h.appointments.ListForStaff(c.Context(), staff.ID, c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentSummaries(appts)})
}

// Accept handles POST /sales/appointments/:id/accept.
func (h *SalesHandler) Accept(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}

	appt, err := h.assignments.Accept(c.Context(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentSummary(appt)})
}

// RequestReassignment handles POST /sales/appointments/:id/reassignment-request.
func (h *SalesHandler) RequestReassignment(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}

	var req dto.ReassignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	appt, err := h.assignments.RequestReassignment(c.Context(), staff, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentSummary(appt)})
}

// Complete handles POST /sales/appointments/:id/complete.
func (h *SalesHandler) Complete(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}

	appt, err := h.appointments.Complete(c.Context(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentSummary(appt)})
}
