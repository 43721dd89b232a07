package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/booking-service/internal/domain"
	"github.com/spec-kit/booking-service/internal/events"
	"github.com/spec-kit/booking-service/internal/schedule"
	"github.com/spec-kit/booking-service/pkg/apperrors"
)

var testLoc = time.UTC

func testSlots(t *testing.T) []schedule.SlotTime {
	t.Helper()
	slots, err := schedule.ParseSlotTimes([]string{"09:00", "10:00", "11:00", "13:00", "14:00", "15:00", "16:00", "17:00"})
	require.NoError(t, err)
	return slots
}

// futureSlot returns the next business day at the given hour.
func futureSlot(hour int) time.Time {
	day := time.Now().In(testLoc).AddDate(0, 0, 1)
	for !schedule.IsBusinessDay(day) {
		day = day.AddDate(0, 0, 1)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, testLoc)
}

func futureWeekendSlot(hour int) time.Time {
	day := time.Now().In(testLoc).AddDate(0, 0, 1)
	for schedule.IsBusinessDay(day) {
		day = day.AddDate(0, 0, 1)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, testLoc)
}

type fixture struct {
	appts      *fakeAppointmentRepo
	staff      *fakeStaffRepo
	users      *fakeUserRepo
	history    *fakeHistoryRepo
	dispatcher *recordingDispatcher
	svc        *AppointmentService
	assign     *AssignmentService

	agent  domain.StaffMember
	admin  domain.StaffMember
	sales1 domain.StaffMember
	sales2 domain.StaffMember
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		appts:      newFakeAppointmentRepo(),
		history:    &fakeHistoryRepo{},
		dispatcher: newRecordingDispatcher(),
		agent:      domain.StaffMember{ID: "agent-1", Name: "Dispatcher One", Role: domain.StaffRoleAgent, Active: true},
		admin:      domain.StaffMember{ID: "admin-1", Name: "Admin One", Role: domain.StaffRoleAdmin, Active: true},
		sales1:     domain.StaffMember{ID: "sales-1", Name: "Sales One", Role: domain.StaffRoleSales, Active: true},
		sales2:     domain.StaffMember{ID: "sales-2", Name: "Sales Two", Role: domain.StaffRoleSales, Active: true},
	}
	f.staff = newFakeStaffRepo(f.agent, f.admin, f.sales1, f.sales2)
	f.users = newFakeUserRepo(domain.User{
		ID:        "cust-1",
		FirstName: "Maria",
		LastName:  "Santos",
		Email:     "maria@example.com",
		Status:    domain.UserStatusActive,
	})
	f.svc = NewAppointmentService(AppointmentDependencies{
		AppointmentRepo: f.appts,
		UserRepo:        f.users,
		StaffRepo:       f.staff,
		HistoryRepo:     f.history,
		Dispatcher:      f.dispatcher,
		Slots:           testSlots(t),
		Location:        testLoc,
	})
	f.assign = NewAssignmentService(AssignmentDependencies{
		AppointmentRepo: f.appts,
		StaffRepo:       f.staff,
		HistoryRepo:     f.history,
		Dispatcher:      f.dispatcher,
	})
	return f
}

func requireErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr), "expected DomainError, got %v", err)
	require.Equal(t, code, domainErr.Code)
}

func TestCreateAppointment(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.Create(context.Background(), "cust-1", AppointmentCreateInput{
		Type:        domain.AppointmentTypeOfficeConsultation,
		ScheduledAt: futureSlot(10),
		Description: "initial consultation",
	})
	require.NoError(t, err)
	require.Equal(t, domain.AppointmentStatusPending, appt.Status)
	require.Equal(t, domain.AcceptanceUnassigned, appt.Acceptance.State)
	require.Nil(t, appt.AssignedStaffID)
	require.NotEmpty(t, appt.ID)

	require.Equal(t, []events.EventType{events.EventAppointmentCreated}, f.dispatcher.eventTypes())

	trail, err := f.history.ListByAppointment(context.Background(), appt.ID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	require.Equal(t, domain.ChangeTypeStatus, trail[0].ChangeType)
}

func TestCreateAppointmentRejectsWeekend(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), "cust-1", AppointmentCreateInput{
		Type:        domain.AppointmentTypeOfficeConsultation,
		ScheduledAt: futureWeekendSlot(10),
	})
	requireErrorCode(t, err, "VALIDATION_FAILED")
}

func TestCreateAppointmentRejectsOffSlotTime(t *testing.T) {
	f := newFixture(t)

	at := futureSlot(10).Add(30 * time.Minute)
	_, err := f.svc.Create(context.Background(), "cust-1", AppointmentCreateInput{
		Type:        domain.AppointmentTypeOfficeConsultation,
		ScheduledAt: at,
	})
	requireErrorCode(t, err, "VALIDATION_FAILED")
}

func TestCreateAppointmentRejectsSubSlotPrecision(t *testing.T) {
	f := newFixture(t)

	// A timestamp inside the slot but off its boundary would dodge the
	// instant-equality occupancy checks and double-book the staff member.
	for _, offset := range []time.Duration{30 * time.Second, 500 * time.Millisecond} {
		_, err := f.svc.Create(context.Background(), "cust-1", AppointmentCreateInput{
			Type:        domain.AppointmentTypeOfficeConsultation,
			ScheduledAt: futureSlot(10).Add(offset),
		})
		requireErrorCode(t, err, "VALIDATION_FAILED")
	}
}

func TestCreateAppointmentRejectsPast(t *testing.T) {
	f := newFixture(t)

	past := futureSlot(10).AddDate(0, 0, -14)
	_, err := f.svc.Create(context.Background(), "cust-1", AppointmentCreateInput{
		Type:        domain.AppointmentTypeOfficeConsultation,
		ScheduledAt: past,
	})
	requireErrorCode(t, err, "VALIDATION_FAILED")
}

func TestCreateOcularVisitRequiresAddress(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), "cust-1", AppointmentCreateInput{
		Type:        domain.AppointmentTypeOcularVisit,
		ScheduledAt: futureSlot(10),
	})
	requireErrorCode(t, err, "VALIDATION_FAILED")

	_, err = f.svc.Create(context.Background(), "cust-1", AppointmentCreateInput{
		Type:        domain.AppointmentTypeOcularVisit,
		ScheduledAt: futureSlot(10),
		SiteAddress: &domain.SiteAddress{Street: "123 Mabini St", Barangay: "Poblacion", City: "Quezon City"},
	})
	require.NoError(t, err)
}

func TestCreateSecondActiveAppointmentConflicts(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), "cust-1", AppointmentCreateInput{
		Type:        domain.AppointmentTypeOfficeConsultation,
		ScheduledAt: futureSlot(10),
	})
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), "cust-1", AppointmentCreateInput{
		Type:        domain.AppointmentTypeOfficeConsultation,
		ScheduledAt: futureSlot(11),
	})
	requireErrorCode(t, err, "CONFLICT")
}

func TestCreateConflictsWhenAllStaffBooked(t *testing.T) {
	f := newFixture(t)
	at := futureSlot(10)

	s1 := f.sales1.ID
	s2 := f.sales2.ID
	f.appts.seed(domain.Appointment{
		ID: "busy-1", CustomerID: "other-1", Type: domain.AppointmentTypeOfficeConsultation,
		ScheduledAt: at, Status: domain.AppointmentStatusConfirmed, AssignedStaffID: &s1,
		Acceptance: domain.Acceptance{State: domain.AcceptanceAccepted},
	})
	f.appts.seed(domain.Appointment{
		ID: "busy-2", CustomerID: "other-2", Type: domain.AppointmentTypeOfficeConsultation,
		ScheduledAt: at, Status: domain.AppointmentStatusConfirmed, AssignedStaffID: &s2,
		Acceptance: domain.Acceptance{State: domain.AcceptanceAccepted},
	})

	_, err := f.svc.Create(context.Background(), "cust-1", AppointmentCreateInput{
		Type:        domain.AppointmentTypeOfficeConsultation,
		ScheduledAt: at,
	})
	requireErrorCode(t, err, "CONFLICT")
}

func TestCancelFillsTemplateMessage(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.Create(context.Background(), "cust-1", AppointmentCreateInput{
		Type:        domain.AppointmentTypeOfficeConsultation,
		ScheduledAt: futureSlot(10),
	})
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(context.Background(), &f.agent, appt.ID, domain.CancelReasonStaffUnavailable, "")
	require.NoError(t, err)
	require.Equal(t, domain.AppointmentStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.Cancellation)
	require.Equal(t, domain.CancelReasonStaffUnavailable.DefaultMessage(), cancelled.Cancellation.Message)
}

func TestCancelCustomReasonRequiresMessage(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.Create(context.Background(), "cust-1", AppointmentCreateInput{
		Type:        domain.AppointmentTypeOfficeConsultation,
		ScheduledAt: futureSlot(10),
	})
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), &f.agent, appt.ID, domain.CancelReasonCustom, "  ")
	requireErrorCode(t, err, "VALIDATION_FAILED")

	cancelled, err := f.svc.Cancel(context.Background(), &f.agent, appt.ID, domain.CancelReasonCustom, "typhoon warning in the area")
	require.NoError(t, err)
	require.Equal(t, "typhoon warning in the area", cancelled.Cancellation.Message)
}

func TestCancelRequiresDispatcherRole(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.Create(context.Background(), "cust-1", AppointmentCreateInput{
		Type:        domain.AppointmentTypeOfficeConsultation,
		ScheduledAt: futureSlot(10),
	})
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), &f.sales1, appt.ID, domain.CancelReasonSchedulingConflict, "")
	requireErrorCode(t, err, "FORBIDDEN")
}

func TestCancelTerminalAppointmentRejected(t *testing.T) {
	f := newFixture(t)
	id := f.appts.seed(domain.Appointment{
		CustomerID: "cust-1", Type: domain.AppointmentTypeOfficeConsultation,
		ScheduledAt: futureSlot(10), Status: domain.AppointmentStatusCompleted,
		Acceptance: domain.Acceptance{State: domain.AcceptanceAccepted},
	})

	_, err := f.svc.Cancel(context.Background(), &f.agent, id, domain.CancelReasonSchedulingConflict, "")
	requireErrorCode(t, err, "INVALID_STATE")
}

func TestCompleteByAssignedStaff(t *testing.T) {
	f := newFixture(t)
	s1 := f.sales1.ID
	id := f.appts.seed(domain.Appointment{
		CustomerID: "cust-1", Type: domain.AppointmentTypeOfficeConsultation,
		ScheduledAt: futureSlot(10), Status: domain.AppointmentStatusConfirmed,
		AssignedStaffID: &s1,
		Acceptance:      domain.Acceptance{State: domain.AcceptanceAccepted},
	})

	done, err := f.svc.Complete(context.Background(), &f.sales1, id)
	require.NoError(t, err)
	require.Equal(t, domain.AppointmentStatusCompleted, done.Status)
}

func TestCompleteByUnrelatedStaffForbidden(t *testing.T) {
	f := newFixture(t)
	s1 := f.sales1.ID
	id := f.appts.seed(domain.Appointment{
		CustomerID: "cust-1", Type: domain.AppointmentTypeOfficeConsultation,
		ScheduledAt: futureSlot(10), Status: domain.AppointmentStatusConfirmed,
		AssignedStaffID: &s1,
		Acceptance:      domain.Acceptance{State: domain.AcceptanceAccepted},
	})

	_, err := f.svc.Complete(context.Background(), &f.sales2, id)
	requireErrorCode(t, err, "FORBIDDEN")
}

func TestMarkNoShowOnlyFromConfirmed(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.Create(context.Background(), "cust-1", AppointmentCreateInput{
		Type:        domain.AppointmentTypeOfficeConsultation,
		ScheduledAt: futureSlot(10),
	})
	require.NoError(t, err)

	_, err = f.svc.MarkNoShow(context.Background(), &f.agent, appt.ID)
	requireErrorCode(t, err, "INVALID_STATE")

	s1 := f.sales1.ID
	confirmed := f.appts.seed(domain.Appointment{
		CustomerID: "cust-2", Type: domain.AppointmentTypeOfficeConsultation,
		ScheduledAt: futureSlot(11), Status: domain.AppointmentStatusConfirmed,
		AssignedStaffID: &s1,
		Acceptance:      domain.Acceptance{State: domain.AcceptanceAccepted},
	})
	done, err := f.svc.MarkNoShow(context.Background(), &f.admin, confirmed)
	require.NoError(t, err)
	require.Equal(t, domain.AppointmentStatusNoShow, done.Status)
}

func TestListForCustomerOrdersByStatusPriority(t *testing.T) {
	f := newFixture(t)

	f.appts.seed(domain.Appointment{
		ID: "done", CustomerID: "cust-1", Type: domain.AppointmentTypeOfficeConsultation,
		ScheduledAt: futureSlot(9), Status: domain.AppointmentStatusCompleted,
	})
	f.appts.seed(domain.Appointment{
		ID: "confirmed", CustomerID: "cust-1", Type: domain.AppointmentTypeOfficeConsultation,
		ScheduledAt: futureSlot(10), Status: domain.AppointmentStatusConfirmed,
	})
	f.appts.seed(domain.Appointment{
		ID: "pending", CustomerID: "cust-1", Type: domain.AppointmentTypeOfficeConsultation,
		ScheduledAt: futureSlot(11), Status: domain.AppointmentStatusPending,
	})

	appts, err := f.svc.ListForCustomer(context.Background(), "cust-1", 50, 0)
	require.NoError(t, err)
	require.Len(t, appts, 3)
	require.Equal(t, "pending", appts[0].ID)
	require.Equal(t, "confirmed", appts[1].ID)
	require.Equal(t, "done", appts[2].ID)
}

func TestListForStaffOrdersByStatusPriority(t *testing.T) {
	f := newFixture(t)

	s1 := f.sales1.ID
	f.appts.seed(domain.Appointment{
		ID: "done", CustomerID: "other-1", Type: domain.AppointmentTypeOfficeConsultation,
		ScheduledAt: futureSlot(9), Status: domain.AppointmentStatusCompleted, AssignedStaffID: &s1,
	})
	f.appts.seed(domain.Appointment{
		ID: "assigned", CustomerID: "other-2", Type: domain.AppointmentTypeOfficeConsultation,
		ScheduledAt: futureSlot(10), Status: domain.AppointmentStatusAssigned, AssignedStaffID: &s1,
	})

	appts, err := f.svc.ListForStaff(context.Background(), s1, 50, 0)
	require.NoError(t, err)
	require.Len(t, appts, 2)
	require.Equal(t, "assigned", appts[0].ID)
	require.Equal(t, "done", appts[1].ID)
}

func TestGetForCustomerEnforcesOwnership(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.Create(context.Background(), "cust-1", AppointmentCreateInput{
		Type:        domain.AppointmentTypeOfficeConsultation,
		ScheduledAt: futureSlot(10),
	})
	require.NoError(t, err)

	fetched, err := f.svc.GetForCustomer(context.Background(), "cust-1", appt.ID)
	require.NoError(t, err)
	require.Equal(t, appt.ID, fetched.ID)

	_, err = f.svc.GetForCustomer(context.Background(), "cust-2", appt.ID)
	requireErrorCode(t, err, "FORBIDDEN")
}

func TestListQueueRequiresDispatcher(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ListQueue(context.Background(), &f.sales1, AppointmentQueueFilter{})
	requireErrorCode(t, err, "FORBIDDEN")

	queue, err := f.svc.ListQueue(context.Background(), &f.agent, AppointmentQueueFilter{})
	require.NoError(t, err)
	require.Empty(t, queue)
}

func TestGetForDispatchReturnsTrailAndCustomer(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.Create(context.Background(), "cust-1", AppointmentCreateInput{
		Type:        domain.AppointmentTypeOfficeConsultation,
		ScheduledAt: futureSlot(10),
	})
	require.NoError(t, err)

	fetched, trail, customer, err := f.svc.GetForDispatch(context.Background(), &f.agent, appt.ID)
	require.NoError(t, err)
	require.Equal(t, appt.ID, fetched.ID)
	require.NotEmpty(t, trail)
	require.NotNil(t, customer)
	require.Equal(t, "Maria Santos", customer.FullName())
}
