package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/booking-service/internal/api/dto"
	"github.com/spec-kit/booking-service/internal/domain"
	"github.com/spec-kit/booking-service/internal/schedule"
	"github.com/spec-kit/booking-service/internal/service"
	"github.com/spec-kit/booking-service/pkg/apperrors"
)

// DispatchHandler exposes the dispatcher console endpoints.
type DispatchHandler struct {
	appointments *service.AppointmentService
	assignments  *service.AssignmentService
}

// NewDispatchHandler constructs the handler.
func NewDispatchHandler(appointmentService *service.AppointmentService, assignmentService *service.AssignmentService) *DispatchHandler {
	return &DispatchHandler{appointments: appointmentService, assignments: assignmentService}
}

// Queue handles GET /dispatch/appointments.
func (h *DispatchHandler) Queue(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}

	filter := service.AppointmentQueueFilter{
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}
	for _, s := range splitCSV(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.AppointmentStatus(s))
	}
	for _, t := range splitCSV(c.Query("type")) {
		filter.Types = append(filter.Types, domain.AppointmentType(t))
	}
	if from := c.Query("from"); from != "" {
		parsed, err := time.Parse(schedule.DateLayout, from)
		if err != nil {
			return apperrors.NewValidationError("invalid from date, expected YYYY-MM-DD", nil)
		}
		filter.ScheduledFrom = &parsed
	}
	if to := c.Query("to"); to != "" {
		parsed, err := time.Parse(schedule.DateLayout, to)
		if err != nil {
			return apperrors.NewValidationError("invalid to date, expected YYYY-MM-DD", nil)
		}
		end := parsed.AddDate(0, 0, 1)
		filter.ScheduledTo = &end
	}

	appts, err := h.appointments.ListQueue(c.Context(), staff, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentSummaries(appts)})
}

// Get handles GET /dispatch/appointments/:id with audit trail and customer.
func (h *DispatchHandler) Get(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}

	appt, trail, customer, err := h.appointments.GetForDispatch(c.Context(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentDetail(appt, trail, customer)})
}

// Assign handles POST /dispatch/appointments/:id/assign.
func (h *DispatchHandler) Assign(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}

	var req dto.AssignAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	appt, err := h.assignments.Assign(c.Context(), staff, c.Params("id"), req.StaffID, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentSummary(appt)})
}

// Cancel handles POST /dispatch/appointments/:id/cancel.
func (h *DispatchHandler) Cancel(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}

	var req dto.CancelAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	appt, err := h.appointments.Cancel(c.Context(), staff, c.Params("id"), req.Reason, req.Message)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentSummary(appt)})
}

// Complete handles POST /dispatch/appointments/:id/complete.
func (h *DispatchHandler) Complete(c *fiber.Ctx) error {
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

// NoShow handles POST /dispatch/appointments/:id/no-show.
func (h *DispatchHandler) NoShow(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}

	appt, err := h.appointments.MarkNoShow(c.Context(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentSummary(appt)})
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
