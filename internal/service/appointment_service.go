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
	"github.com/spec-kit/booking-service/internal/schedule"
	"github.com/spec-kit/booking-service/pkg/apperrors"
)

// AppointmentService coordinates booking, cancellation, and fulfilment
// workflows.
type AppointmentService struct {
	appointments repository.AppointmentRepository
	users        repository.UserRepository
	staff        repository.StaffRepository
	history      repository.HistoryRepository
	dispatcher   events.Dispatcher
	slots        []schedule.SlotTime
	loc          *time.Location
}

// AppointmentDependencies bundles collaborators for the appointment service.
type AppointmentDependencies struct {
	AppointmentRepo repository.AppointmentRepository
	UserRepo        repository.UserRepository
	StaffRepo       repository.StaffRepository
	HistoryRepo     repository.HistoryRepository
	Dispatcher      events.Dispatcher
	Slots           []schedule.SlotTime
	Location        *time.Location
}

// AppointmentCreateInput describes a booking request.
type AppointmentCreateInput struct {
	Type        domain.AppointmentType
	ScheduledAt time.Time
	Description string
	Notes       string
	SiteAddress *domain.SiteAddress
}

// AppointmentQueueFilter describes dispatcher listing filters.
type AppointmentQueueFilter struct {
	Statuses      []domain.AppointmentStatus
	Types         []domain.AppointmentType
	ScheduledFrom *time.Time
	ScheduledTo   *time.Time
	Limit         int
	Offset        int
}

// NewAppointmentService constructs the service.
func NewAppointmentService(deps AppointmentDependencies) *AppointmentService {
	return &AppointmentService{
		appointments: deps.AppointmentRepo,
		users:        deps.UserRepo,
		staff:        deps.StaffRepo,
		history:      deps.HistoryRepo,
		dispatcher:   deps.Dispatcher,
		slots:        deps.Slots,
		loc:          deps.Location,
	}
}

// Create books an appointment for the customer. The request must land on a
// future business-day slot with at least one sales staff member still free,
// and the customer may hold at most one active future appointment.
func (s *AppointmentService) Create(ctx context.Context, customerID string, input AppointmentCreateInput) (*domain.Appointment, error) {
	if !input.Type.Valid() {
		return nil, apperrors.NewValidationError("unsupported appointment type", map[string]any{"type": input.Type})
	}

	at := input.ScheduledAt.In(s.loc)
	if !at.After(time.Now()) {
		return nil, apperrors.NewValidationError("appointment must be scheduled in the future", nil)
	}
	if !schedule.IsBusinessDay(at) {
		return nil, apperrors.NewValidationError("appointments are only available Monday through Friday", nil)
	}
	if !schedule.MatchesSlot(input.ScheduledAt, s.slots, s.loc) {
		return nil, apperrors.NewValidationError("requested time does not fall on a bookable slot", map[string]any{"time": at.Format("15:04")})
	}

	if input.Type == domain.AppointmentTypeOcularVisit {
		addr := input.SiteAddress
		if addr == nil || strings.TrimSpace(addr.Street) == "" || strings.TrimSpace(addr.City) == "" {
			return nil, apperrors.NewValidationError("ocular visits require a site address with street and city", nil)
		}
	}

	if _, err := s.users.GetCustomer(ctx, customerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("customer", map[string]any{"customer_id": customerID})
		}
		return nil, apperrors.MapError(err)
	}

	free, err := s.anyStaffFree(ctx, input.ScheduledAt)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !free {
		return nil, apperrors.NewConflict("no staff available for the requested slot", map[string]any{
			"scheduled_at": input.ScheduledAt,
		})
	}

	appt := &domain.Appointment{
		CustomerID:  customerID,
		Type:        input.Type,
		ScheduledAt: input.ScheduledAt,
		Status:      domain.AppointmentStatusPending,
		Acceptance:  domain.Acceptance{State: domain.AcceptanceUnassigned},
		SiteAddress: input.SiteAddress,
		Description: strings.TrimSpace(input.Description),
		Notes:       strings.TrimSpace(input.Notes),
	}
	if err := s.appointments.Create(ctx, appt); err != nil {
		if errors.Is(err, repository.ErrActiveAppointmentExists) {
			return nil, apperrors.NewConflict("customer already has an active appointment", nil)
		}
		return nil, apperrors.MapError(err)
	}

	if err := s.recordStatusChange(ctx, domain.SubjectTypeUser, &customerID, appt.ID, "", appt.Status); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.EventAppointmentCreated, appt, userActor(customerID), events.AppointmentCreatedPayload{
		CustomerID: customerID,
		Type:       appt.Type,
	})
	return appt, nil
}

// Cancel moves the appointment to CANCELLED with a structured reason.
// Dispatcher operation; template reasons fill in their default message.
func (s *AppointmentService) Cancel(ctx context.Context, actor *domain.StaffMember, appointmentID string, reason domain.CancellationReason, message string) (*domain.Appointment, error) {
	if !actor.IsDispatcher() {
		return nil, apperrors.NewForbidden("dispatcher role required")
	}
	if !reason.Known() {
		return nil, apperrors.NewValidationError("unknown cancellation reason", map[string]any{"reason": reason})
	}
	message = strings.TrimSpace(message)
	if message == "" {
		if reason == domain.CancelReasonCustom {
			return nil, apperrors.NewValidationError("custom cancellations require a message", nil)
		}
		message = reason.DefaultMessage()
	}

	appt, err := s.getAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(appt.Status, domain.AppointmentStatusCancelled) {
		return nil, apperrors.NewInvalidState("appointment cannot be cancelled in its current state", map[string]any{"status": appt.Status})
	}

	oldStatus := appt.Status
	expAcceptance := appt.Acceptance.State
	appt.Status = domain.AppointmentStatusCancelled
	appt.Cancellation = &domain.Cancellation{Reason: reason, Message: message}

	if err := s.appointments.UpdateCAS(ctx, appt, oldStatus, expAcceptance); err != nil {
		return nil, mapWriteError(err)
	}
	if err := s.recordStatusChange(ctx, domain.SubjectTypeStaff, &actor.ID, appt.ID, oldStatus, appt.Status); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.EventAppointmentCancelled, appt, staffActor(actor.ID), events.AppointmentCancelledPayload{
		Reason:  reason,
		Message: message,
	})
	return appt, nil
}

// Complete marks a confirmed appointment as fulfilled. Allowed for the
// assigned staff member or a dispatcher.
func (s *AppointmentService) Complete(ctx context.Context, actor *domain.StaffMember, appointmentID string) (*domain.Appointment, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}

	appt, err := s.getAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	assignedToActor := appt.AssignedStaffID != nil && *appt.AssignedStaffID == actor.ID
	if !actor.IsDispatcher() && !assignedToActor {
		return nil, apperrors.NewForbidden("only the assigned staff member or a dispatcher may complete")
	}
	if !domain.CanTransition(appt.Status, domain.AppointmentStatusCompleted) {
		return nil, apperrors.NewInvalidState("appointment cannot be completed in its current state", map[string]any{"status": appt.Status})
	}

	oldStatus := appt.Status
	expAcceptance := appt.Acceptance.State
	appt.Status = domain.AppointmentStatusCompleted

	if err := s.appointments.UpdateCAS(ctx, appt, oldStatus, expAcceptance); err != nil {
		return nil, mapWriteError(err)
	}
	if err := s.recordStatusChange(ctx, domain.SubjectTypeStaff, &actor.ID, appt.ID, oldStatus, appt.Status); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.EventAppointmentCompleted, appt, staffActor(actor.ID), events.AppointmentCompletedPayload{
		StaffID: appt.AssignedStaffID,
	})
	return appt, nil
}

// MarkNoShow records that the customer did not appear. Dispatcher operation.
func (s *AppointmentService) MarkNoShow(ctx context.Context, actor *domain.StaffMember, appointmentID string) (*domain.Appointment, error) {
	if !actor.IsDispatcher() {
		return nil, apperrors.NewForbidden("dispatcher role required")
	}

	appt, err := s.getAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(appt.Status, domain.AppointmentStatusNoShow) {
		return nil, apperrors.NewInvalidState("no-show can only be recorded for confirmed appointments", map[string]any{"status": appt.Status})
	}

	oldStatus := appt.Status
	expAcceptance := appt.Acceptance.State
	appt.Status = domain.AppointmentStatusNoShow

	if err := s.appointments.UpdateCAS(ctx, appt, oldStatus, expAcceptance); err != nil {
		return nil, mapWriteError(err)
	}
	if err := s.recordStatusChange(ctx, domain.SubjectTypeStaff, &actor.ID, appt.ID, oldStatus, appt.Status); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.EventAppointmentNoShow, appt, staffActor(actor.ID), events.AppointmentNoShowPayload{})
	return appt, nil
}

// ListQueue returns the dispatch work queue, actionable states first.
func (s *AppointmentService) ListQueue(ctx context.Context, actor *domain.StaffMember, filter AppointmentQueueFilter) ([]domain.Appointment, error) {
	if !actor.IsDispatcher() {
		return nil, apperrors.NewForbidden("dispatcher role required")
	}
	appts, err := s.appointments.ListWithFilter(ctx, repository.AppointmentFilter{
		Statuses:      filter.Statuses,
		Types:         filter.Types,
		ScheduledFrom: filter.ScheduledFrom,
		ScheduledTo:   filter.ScheduledTo,
		Limit:         filter.Limit,
		Offset:        filter.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	domain.SortForQueue(appts)
	return appts, nil
}

// ListForCustomer returns the customer's own appointments.
func (s *AppointmentService) ListForCustomer(ctx context.Context, customerID string, limit, offset int) ([]domain.Appointment, error) {
	appts, err := s.appointments.ListWithFilter(ctx, repository.AppointmentFilter{
		CustomerID: &customerID,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	domain.SortForQueue(appts)
	return appts, nil
}

// ListForStaff returns the appointments assigned to the staff member.
func (s *AppointmentService) ListForStaff(ctx context.Context, staffID string, limit, offset int) ([]domain.Appointment, error) {
	appts, err := s.appointments.ListWithFilter(ctx, repository.AppointmentFilter{
		AssignedStaffID: &staffID,
		Limit:           limit,
		Offset:          offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	domain.SortForQueue(appts)
	return appts, nil
}

// GetForCustomer fetches an appointment ensuring ownership.
func (s *AppointmentService) GetForCustomer(ctx context.Context, customerID, appointmentID string) (*domain.Appointment, error) {
	appt, err := s.getAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.CustomerID != customerID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return appt, nil
}

// GetForDispatch fetches an appointment with its audit trail and the
// customer read model. Allowed for dispatchers and the assigned staff.
func (s *AppointmentService) GetForDispatch(ctx context.Context, actor *domain.StaffMember, appointmentID string) (*domain.Appointment, []domain.AppointmentHistory, *domain.Customer, error) {
	if actor == nil {
		return nil, nil, nil, apperrors.NewUnauthorized("staff required")
	}
	appt, err := s.getAppointment(ctx, appointmentID)
	if err != nil {
		return nil, nil, nil, err
	}
	assignedToActor := appt.AssignedStaffID != nil && *appt.AssignedStaffID == actor.ID
	if !actor.IsDispatcher() && !assignedToActor {
		return nil, nil, nil, apperrors.NewForbidden("access denied")
	}

	trail, err := s.history.ListByAppointment(ctx, appt.ID)
	if err != nil {
		return nil, nil, nil, apperrors.MapError(err)
	}
	customer, err := s.users.GetCustomer(ctx, appt.CustomerID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, nil, apperrors.MapError(err)
	}
	return appt, trail, customer, nil
}

func (s *AppointmentService) getAppointment(ctx context.Context, id string) (*domain.Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("appointment", map[string]any{"appointment_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return appt, nil
}

// anyStaffFree reports whether at least one active sales staff member has no
// booking at the slot. This is a pre-check; the unique slot index is the
// authority under concurrency.
func (s *AppointmentService) anyStaffFree(ctx context.Context, at time.Time) (bool, error) {
	role := domain.StaffRoleSales
	staffList, err := s.staff.List(ctx, repository.StaffFilter{
		Role:   &role,
		Active: ptrBool(true),
		Limit:  500,
	})
	if err != nil {
		return false, err
	}
	for _, member := range staffList {
		booked, err := s.appointments.HasStaffBooking(ctx, member.ID, at)
		if err != nil {
			return false, err
		}
		if !booked {
			return true, nil
		}
	}
	return false, nil
}

func (s *AppointmentService) recordStatusChange(ctx context.Context, actorType domain.SubjectType, actorID *string, appointmentID string, oldStatus, newStatus domain.AppointmentStatus) error {
	oldValue := map[string]any{}
	if oldStatus != "" {
		oldValue["status"] = oldStatus
	}
	return s.history.Create(ctx, &domain.AppointmentHistory{
		AppointmentID: appointmentID,
		ChangedByType: actorType,
		ChangedByID:   actorID,
		ChangeType:    domain.ChangeTypeStatus,
		OldValue:      oldValue,
		NewValue:      map[string]any{"status": newStatus},
	})
}

func (s *AppointmentService) publishEvent(ctx context.Context, eventType events.EventType, appt *domain.Appointment, actor events.Actor, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, newEvent(eventType, appt, actor, payload))
}
