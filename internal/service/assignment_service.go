package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/booking-service/internal/domain"
	"github.com/spec-kit/booking-service/internal/events"
	"github.com/spec-kit/booking-service/internal/repository"
	"github.com/spec-kit/booking-service/pkg/apperrors"
)

// AssignmentService handles dispatching appointments to sales staff and the
// staff acceptance handshake.
type AssignmentService struct {
	appointments repository.AppointmentRepository
	staff        repository.StaffRepository
	history      repository.HistoryRepository
	dispatcher   events.Dispatcher
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	AppointmentRepo repository.AppointmentRepository
	StaffRepo       repository.StaffRepository
	HistoryRepo     repository.HistoryRepository
	Dispatcher      events.Dispatcher
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		appointments: deps.AppointmentRepo,
		staff:        deps.StaffRepo,
		history:      deps.HistoryRepo,
		dispatcher:   deps.Dispatcher,
	}
}

// Assign dispatches the appointment to a sales staff member. Legal for a
// pending appointment, or for an assigned one whose staff requested
// reassignment. The guarded update keeps two dispatchers from both winning.
func (s *AssignmentService) Assign(ctx context.Context, actor *domain.StaffMember, appointmentID, staffID, note string) (*domain.Appointment, error) {
	if !actor.IsDispatcher() {
		return nil, apperrors.NewForbidden("dispatcher role required")
	}

	assignee, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff", map[string]any{"staff_id": staffID})
		}
		return nil, apperrors.MapError(err)
	}
	if !assignee.Active {
		return nil, apperrors.NewConflict("staff member inactive", map[string]any{"staff_id": staffID})
	}
	if assignee.Role != domain.StaffRoleSales {
		return nil, apperrors.NewValidationError("appointments can only be assigned to sales staff", map[string]any{"role": assignee.Role})
	}

	appt, err := s.getAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	firstAssign := appt.Status == domain.AppointmentStatusPending && appt.Acceptance.State == domain.AcceptanceUnassigned
	reassign := appt.Status == domain.AppointmentStatusAssigned && appt.Acceptance.State == domain.AcceptanceReassignmentRequested
	if !firstAssign && !reassign {
		return nil, apperrors.NewInvalidState("appointment is not awaiting assignment", map[string]any{
			"status":           appt.Status,
			"acceptance_state": appt.Acceptance.State,
		})
	}

	booked, err := s.appointments.HasStaffBooking(ctx, staffID, appt.ScheduledAt)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if booked {
		return nil, apperrors.NewConflict("staff member already booked for this slot", map[string]any{"staff_id": staffID})
	}

	oldStatus := appt.Status
	oldStaff := appt.AssignedStaffID
	expAcceptance := appt.Acceptance.State

	appt.Status = domain.AppointmentStatusAssigned
	appt.AssignedStaffID = &assignee.ID
	appt.DispatchNote = strings.TrimSpace(note)
	appt.Acceptance = domain.Acceptance{State: domain.AcceptanceAwaiting}

	if err := s.appointments.UpdateCAS(ctx, appt, oldStatus, expAcceptance); err != nil {
		return nil, mapWriteError(err)
	}

	if err := s.recordAssignmentChange(ctx, actor.ID, appt.ID, oldStaff, appt.AssignedStaffID); err != nil {
		return nil, apperrors.MapError(err)
	}
	if oldStatus != appt.Status {
		if err := s.recordStatusChange(ctx, actor.ID, appt.ID, oldStatus, appt.Status); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	s.publishEvent(ctx, events.EventAppointmentAssigned, appt, staffActor(actor.ID), events.AppointmentAssignedPayload{
		StaffID:    assignee.ID,
		Note:       appt.DispatchNote,
		Reassigned: reassign,
	})
	return appt, nil
}

// Accept confirms the dispatch. Only the assigned staff member may accept,
// and only while the appointment is assigned and not yet accepted.
func (s *AssignmentService) Accept(ctx context.Context, actor *domain.StaffMember, appointmentID string) (*domain.Appointment, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}

	appt, err := s.getAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.AssignedStaffID == nil || *appt.AssignedStaffID != actor.ID {
		return nil, apperrors.NewForbidden("only the assigned staff member may accept")
	}
	if appt.Status != domain.AppointmentStatusAssigned || appt.Acceptance.Accepted() {
		return nil, apperrors.NewInvalidState("appointment is not awaiting acceptance", map[string]any{
			"status":           appt.Status,
			"acceptance_state": appt.Acceptance.State,
		})
	}

	oldStatus := appt.Status
	oldAcceptance := appt.Acceptance.State
	now := time.Now()

	appt.Status = domain.AppointmentStatusConfirmed
	appt.Acceptance = domain.Acceptance{State: domain.AcceptanceAccepted, AcceptedAt: &now}

	if err := s.appointments.UpdateCAS(ctx, appt, oldStatus, oldAcceptance); err != nil {
		return nil, mapWriteError(err)
	}

	if err := s.recordAcceptanceChange(ctx, actor.ID, appt.ID, oldAcceptance, appt.Acceptance.State); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.recordStatusChange(ctx, actor.ID, appt.ID, oldStatus, appt.Status); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.EventAppointmentAccepted, appt, staffActor(actor.ID), events.AppointmentAcceptedPayload{
		StaffID:    actor.ID,
		AcceptedAt: now,
	})
	return appt, nil
}

// RequestReassignment flags that the assigned staff member cannot take the
// appointment. The appointment stays assigned to them until the dispatcher
// reassigns it.
func (s *AssignmentService) RequestReassignment(ctx context.Context, actor *domain.StaffMember, appointmentID, reason string) (*domain.Appointment, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("reassignment requests require a reason", nil)
	}

	appt, err := s.getAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.AssignedStaffID == nil || *appt.AssignedStaffID != actor.ID {
		return nil, apperrors.NewForbidden("only the assigned staff member may request reassignment")
	}
	if appt.Status != domain.AppointmentStatusAssigned || appt.Acceptance.State != domain.AcceptanceAwaiting {
		return nil, apperrors.NewInvalidState("reassignment can only be requested while awaiting acceptance", map[string]any{
			"status":           appt.Status,
			"acceptance_state": appt.Acceptance.State,
		})
	}

	oldAcceptance := appt.Acceptance.State
	appt.Acceptance = domain.Acceptance{State: domain.AcceptanceReassignmentRequested, RescheduleReason: reason}

	if err := s.appointments.UpdateCAS(ctx, appt, appt.Status, oldAcceptance); err != nil {
		return nil, mapWriteError(err)
	}

	if err := s.recordAcceptanceChange(ctx, actor.ID, appt.ID, oldAcceptance, appt.Acceptance.State); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.EventReassignmentRequested, appt, staffActor(actor.ID), events.ReassignmentRequestedPayload{
		StaffID: actor.ID,
		Reason:  reason,
	})
	return appt, nil
}

func (s *AssignmentService) getAppointment(ctx context.Context, id string) (*domain.Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("appointment", map[string]any{"appointment_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return appt, nil
}

func (s *AssignmentService) recordAssignmentChange(ctx context.Context, actorID, appointmentID string, oldStaff, newStaff *string) error {
	return s.history.Create(ctx, &domain.AppointmentHistory{
		AppointmentID: appointmentID,
		ChangedByType: domain.SubjectTypeStaff,
		ChangedByID:   &actorID,
		ChangeType:    domain.ChangeTypeAssignment,
		OldValue:      map[string]any{"assigned_staff_id": oldStaff},
		NewValue:      map[string]any{"assigned_staff_id": newStaff},
	})
}

func (s *AssignmentService) recordAcceptanceChange(ctx context.Context, actorID, appointmentID string, oldState, newState domain.AcceptanceState) error {
	return s.history.Create(ctx, &domain.AppointmentHistory{
		AppointmentID: appointmentID,
		ChangedByType: domain.SubjectTypeStaff,
		ChangedByID:   &actorID,
		ChangeType:    domain.ChangeTypeAcceptance,
		OldValue:      map[string]any{"acceptance_state": oldState},
		NewValue:      map[string]any{"acceptance_state": newState},
	})
}

func (s *AssignmentService) recordStatusChange(ctx context.Context, actorID, appointmentID string, oldStatus, newStatus domain.AppointmentStatus) error {
	return s.history.Create(ctx, &domain.AppointmentHistory{
		AppointmentID: appointmentID,
		ChangedByType: domain.SubjectTypeStaff,
		ChangedByID:   &actorID,
		ChangeType:    domain.ChangeTypeStatus,
		OldValue:      map[string]any{"status": oldStatus},
		NewValue:      map[string]any{"status": newStatus},
	})
}

func (s *AssignmentService) publishEvent(ctx context.Context, eventType events.EventType, appt *domain.Appointment, actor events.Actor, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, newEvent(eventType, appt, actor, payload))
}
