package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/booking-service/internal/service"
	"github.com/spec-kit/booking-service/pkg/apperrors"
)

// AvailabilityHandler serves the public slot calendar.
type AvailabilityHandler struct {
	availability *service.AvailabilityService
}

// NewAvailabilityHandler constructs the handler.
func NewAvailabilityHandler(availabilityService *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availabilityService}
}

// Day handles GET /availability?date=YYYY-MM-DD.
func (h *AvailabilityHandler) Day(c *fiber.Ctx) error {
	dateStr := c.Query("date")
	if dateStr == "" {
		return apperrors.NewValidationError("date query parameter is required", nil)
	}

	day, err := h.availability.DayAvailability(c.Context(), dateStr)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": day})
}
