package service

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/booking-service/internal/domain"
	"github.com/spec-kit/booking-service/internal/events"
	"github.com/spec-kit/booking-service/internal/repository"
	"github.com/spec-kit/booking-service/pkg/apperrors"
)

func userActor(userID string) events.Actor {
	return events.Actor{Type: domain.SubjectTypeUser, UserID: &userID}
}

func staffActor(staffID string) events.Actor {
	return events.Actor{Type: domain.SubjectTypeStaff, StaffID: &staffID}
}

func newEvent(eventType events.EventType, appt *domain.Appointment, actor events.Actor, payload interface{}) events.Event {
	return events.Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		AppointmentID: appt.ID,
		ScheduledFor:  appt.ScheduledAt,
		Actor:         actor,
		Timestamp:     time.Now(),
		Payload:       payload,
	}
}

// mapWriteError translates guarded-update failures into caller-facing errors.
func mapWriteError(err error) error {
	switch {
	case errors.Is(err, repository.ErrStale):
		return apperrors.NewInvalidState("appointment was modified concurrently, reload and retry", nil)
	case errors.Is(err, repository.ErrSlotTaken):
		return apperrors.NewConflict("staff member already booked for this slot", nil)
	default:
		return apperrors.MapError(err)
	}
}

func ptrBool(v bool) *bool {
	return &v
}
