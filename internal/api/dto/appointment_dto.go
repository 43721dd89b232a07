package dto

import (
	"time"

	"github.com/spec-kit/booking-service/internal/domain"
)

// SiteAddressPayload carries the physical location for ocular visits.
type SiteAddressPayload struct {
	Street    string   `json:"street"`
	Barangay  string   `json:"barangay"`
	City      string   `json:"city"`
	Province  string   `json:"province"`
	Zip       string   `json:"zip"`
	Landmark  string   `json:"landmark"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// CreateAppointmentRequest payload.
type CreateAppointmentRequest struct {
	Type        domain.AppointmentType `json:"type" validate:"required,oneof=OFFICE_CONSULTATION OCULAR_VISIT"`
	ScheduledAt time.Time              `json:"scheduled_at" validate:"required"`
	Description string                 `json:"description"`
	Notes       string                 `json:"notes"`
	SiteAddress *SiteAddressPayload    `json:"site_address"`
}

// CancelAppointmentRequest payload for dispatcher cancellation.
type CancelAppointmentRequest struct {
	Reason  domain.CancellationReason `json:"reason" validate:"required"`
	Message string                    `json:"message"`
}

// AssignAppointmentRequest payload for dispatching to staff.
type AssignAppointmentRequest struct {
	StaffID string `json:"staff_id" validate:"required"`
	Note    string `json:"note"`
}

// ReassignmentRequest payload for the assigned staff's reschedule flag.
type ReassignmentRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// AcceptancePayload is the assignment handshake view.
type AcceptancePayload struct {
	State            domain.AcceptanceState `json:"state"`
	AcceptedAt       *time.Time             `json:"accepted_at,omitempty"`
	RescheduleReason string                 `json:"reschedule_reason,omitempty"`
}

// CancellationPayload is the structured cancellation view.
type CancellationPayload struct {
	Reason  domain.CancellationReason `json:"reason"`
	Message string                    `json:"message"`
}

// AppointmentSummary response.
type AppointmentSummary struct {
	ID              string                   `json:"id"`
	CustomerID      string                   `json:"customer_id"`
	Type            domain.AppointmentType   `json:"type"`
	ScheduledAt     time.Time                `json:"scheduled_at"`
	Status          domain.AppointmentStatus `json:"status"`
	AssignedStaffID *string                  `json:"assigned_staff_id,omitempty"`
	DispatchNote    string                   `json:"dispatch_note,omitempty"`
	Acceptance      AcceptancePayload        `json:"acceptance"`
	Cancellation    *CancellationPayload     `json:"cancellation,omitempty"`
	SiteAddress     *SiteAddressPayload      `json:"site_address,omitempty"`
	Description     string                   `json:"description,omitempty"`
	Notes           string                   `json:"notes,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

// CustomerResponse is the normalized customer view for dispatch screens.
type CustomerResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
}

// HistoryEntryResponse is one audit trail entry.
type HistoryEntryResponse struct {
	ID            string                   `json:"id"`
	ChangedByType domain.SubjectType       `json:"changed_by_type"`
	ChangedByID   *string                  `json:"changed_by_id,omitempty"`
	ChangeType    domain.HistoryChangeType `json:"change_type"`
	OldValue      map[string]any           `json:"old_value,omitempty"`
	NewValue      map[string]any           `json:"new_value,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
}

// AppointmentDetailResponse is the dispatch view with trail and customer.
type AppointmentDetailResponse struct {
	AppointmentSummary
	Customer *CustomerResponse      `json:"customer,omitempty"`
	History  []HistoryEntryResponse `json:"history"`
}
