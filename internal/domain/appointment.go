package domain

import (
	"sort"
	"time"
)

// AppointmentStatus enumerates lifecycle states for appointments.
type AppointmentStatus string

const (
	AppointmentStatusPending  AppointmentStatus = "PENDING"
	AppointmentStatusAssigned AppointmentStatus = "ASSIGNED"
	// AppointmentStatusScheduled is a legacy state carried by rows booked
	// through the old flow. It filters like ASSIGNED and is never re-entered.
	AppointmentStatusScheduled  AppointmentStatus = "SCHEDULED"
	AppointmentStatusConfirmed  AppointmentStatus = "CONFIRMED"
	AppointmentStatusInProgress AppointmentStatus = "IN_PROGRESS"
	AppointmentStatusCompleted  AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelled  AppointmentStatus = "CANCELLED"
	AppointmentStatusNoShow     AppointmentStatus = "NO_SHOW"
)

// AppointmentType enumerates consultation modes.
type AppointmentType string

const (
	AppointmentTypeOfficeConsultation AppointmentType = "OFFICE_CONSULTATION"
	AppointmentTypeOcularVisit        AppointmentType = "OCULAR_VISIT"
)

// Valid reports whether the type is one of the supported modes.
func (t AppointmentType) Valid() bool {
	return t == AppointmentTypeOfficeConsultation || t == AppointmentTypeOcularVisit
}

// AcceptanceState models the assignment sub-state as an explicit variant
// instead of boolean flags layered on top of status.
type AcceptanceState string

const (
	AcceptanceUnassigned            AcceptanceState = "UNASSIGNED"
	AcceptanceAwaiting              AcceptanceState = "AWAITING_ACCEPTANCE"
	AcceptanceReassignmentRequested AcceptanceState = "REASSIGNMENT_REQUESTED"
	AcceptanceAccepted              AcceptanceState = "ACCEPTED"
)

// Acceptance tracks the assigned staff member's response to a dispatch.
// AcceptedAt is set only in ACCEPTED; RescheduleReason only in
// REASSIGNMENT_REQUESTED.
type Acceptance struct {
	State            AcceptanceState
	AcceptedAt       *time.Time
	RescheduleReason string
}

// Accepted reports whether the assigned staff has confirmed the dispatch.
func (a Acceptance) Accepted() bool {
	return a.State == AcceptanceAccepted
}

// SiteAddress is the physical location for ocular visits. Coordinates are
// stored opaquely when a geocoding client supplied them; the service never
// computes them.
type SiteAddress struct {
	Street    string
	Barangay  string
	City      string
	Province  string
	Zip       string
	Landmark  string
	Latitude  *float64
	Longitude *float64
}

// Cancellation records the structured reason shown to the customer.
// Present if and only if the appointment is CANCELLED.
type Cancellation struct {
	Reason  CancellationReason
	Message string
}

// Appointment is the aggregate for booking requests.
type Appointment struct {
	ID              string
	CustomerID      string
	Type            AppointmentType
	ScheduledAt     time.Time
	Status          AppointmentStatus
	AssignedStaffID *string
	DispatchNote    string
	Acceptance      Acceptance
	SiteAddress     *SiteAddress
	Cancellation    *Cancellation
	Description     string
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Terminal reports whether the appointment accepts no further transitions.
func (a *Appointment) Terminal() bool {
	switch a.Status {
	case AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}

// ActiveStatuses are the states that count against the one-active-future-
// appointment-per-customer rule. SCHEDULED is included because it filters
// like ASSIGNED.
func ActiveStatuses() []AppointmentStatus {
	return []AppointmentStatus{
		AppointmentStatusPending,
		AppointmentStatusAssigned,
		AppointmentStatusScheduled,
		AppointmentStatusConfirmed,
	}
}

var allowedTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusPending:    {AppointmentStatusAssigned, AppointmentStatusCancelled},
	AppointmentStatusAssigned:   {AppointmentStatusConfirmed, AppointmentStatusCancelled},
	AppointmentStatusScheduled:  {AppointmentStatusCancelled},
	AppointmentStatusConfirmed:  {AppointmentStatusCompleted, AppointmentStatusNoShow, AppointmentStatusCancelled},
	AppointmentStatusInProgress: {AppointmentStatusCompleted, AppointmentStatusCancelled},
	AppointmentStatusCompleted:  {},
	AppointmentStatusCancelled:  {},
	AppointmentStatusNoShow:     {},
}

// CanTransition reports whether moving from current to next is legal.
func CanTransition(current, next AppointmentStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// statusPriority orders queue views so actionable states come first.
var statusPriority = map[AppointmentStatus]int{
	AppointmentStatusPending:    0,
	AppointmentStatusScheduled:  1,
	AppointmentStatusAssigned:   2,
	AppointmentStatusConfirmed:  3,
	AppointmentStatusInProgress: 4,
	AppointmentStatusCompleted:  5,
	AppointmentStatusCancelled:  6,
	AppointmentStatusNoShow:     7,
}

// SortForQueue orders appointments by status priority, newest schedule first
// within the same priority. The sort is stable so repeated calls are
// deterministic.
func SortForQueue(appointments []Appointment) {
	sort.SliceStable(appointments, func(i, j int) bool {
		pi := statusPriority[appointments[i].Status]
		pj := statusPriority[appointments[j].Status]
		if pi != pj {
			return pi < pj
		}
		return appointments[i].ScheduledAt.After(appointments[j].ScheduledAt)
	})
}
