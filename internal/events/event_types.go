package events

import (
	"time"

	"github.com/spec-kit/booking-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAppointmentCreated    EventType = "appointment_created"
	EventAppointmentAssigned   EventType = "appointment_assigned"
	EventAppointmentAccepted   EventType = "appointment_accepted"
	EventReassignmentRequested EventType = "reassignment_requested"
	EventAppointmentCancelled  EventType = "appointment_cancelled"
	EventAppointmentCompleted  EventType = "appointment_completed"
	EventAppointmentNoShow     EventType = "appointment_no_show"
)

// AllTypes lists every event type, for subscribers that want the full stream.
func AllTypes() []EventType {
	return []EventType{
		EventAppointmentCreated,
		EventAppointmentAssigned,
		EventAppointmentAccepted,
		EventReassignmentRequested,
		EventAppointmentCancelled,
		EventAppointmentCompleted,
		EventAppointmentNoShow,
	}
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type    domain.SubjectType `json:"type"`
	UserID  *string            `json:"user_id,omitempty"`
	StaffID *string            `json:"staff_id,omitempty"`
}

// Event represents a domain event emitted by services. ScheduledFor carries
// the appointment's slot instant so availability caches can invalidate the
// affected date.
type Event struct {
	ID            string      `json:"id"`
	Type          EventType   `json:"type"`
	AppointmentID string      `json:"appointment_id"`
	ScheduledFor  time.Time   `json:"scheduled_for"`
	Actor         Actor       `json:"actor"`
	Timestamp     time.Time   `json:"timestamp"`
	Payload       interface{} `json:"payload"`
}

// AppointmentCreatedPayload payload.
type AppointmentCreatedPayload struct {
	CustomerID string                 `json:"customer_id"`
	Type       domain.AppointmentType `json:"appointment_type"`
}

// AppointmentAssignedPayload payload.
type AppointmentAssignedPayload struct {
	StaffID    string `json:"staff_id"`
	Note       string `json:"note,omitempty"`
	Reassigned bool   `json:"reassigned"`
}

// AppointmentAcceptedPayload payload.
type AppointmentAcceptedPayload struct {
	StaffID    string    `json:"staff_id"`
	AcceptedAt time.Time `json:"accepted_at"`
}

// ReassignmentRequestedPayload payload.
type ReassignmentRequestedPayload struct {
	StaffID string `json:"staff_id"`
	Reason  string `json:"reason"`
}

// AppointmentCancelledPayload payload.
type AppointmentCancelledPayload struct {
	Reason  domain.CancellationReason `json:"reason"`
	Message string                    `json:"message"`
}

// AppointmentCompletedPayload payload.
type AppointmentCompletedPayload struct {
	StaffID *string `json:"staff_id,omitempty"`
}

// AppointmentNoShowPayload payload.
type AppointmentNoShowPayload struct{}
