package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/booking-service/internal/domain"
	"github.com/spec-kit/booking-service/internal/events"
)

func createPending(t *testing.T, f *fixture, hour int) *domain.Appointment {
	t.Helper()
	appt, err := f.svc.Create(context.Background(), "cust-1", AppointmentCreateInput{
		Type:        domain.AppointmentTypeOfficeConsultation,
		ScheduledAt: futureSlot(hour),
	})
	require.NoError(t, err)
	return appt
}

func TestAssignPendingAppointment(t *testing.T) {
	f := newFixture(t)
	appt := createPending(t, f, 10)

	assigned, err := f.assign.Assign(context.Background(), &f.agent, appt.ID, f.sales1.ID, "bring the site survey kit")
	require.NoError(t, err)
	require.Equal(t, domain.AppointmentStatusAssigned, assigned.Status)
	require.Equal(t, domain.AcceptanceAwaiting, assigned.Acceptance.State)
	require.NotNil(t, assigned.AssignedStaffID)
	require.Equal(t, f.sales1.ID, *assigned.AssignedStaffID)
	require.Equal(t, "bring the site survey kit", assigned.DispatchNote)

	types := f.dispatcher.eventTypes()
	require.Contains(t, types, events.EventAppointmentAssigned)
}

func TestAssignRequiresDispatcher(t *testing.T) {
	f := newFixture(t)
	appt := createPending(t, f, 10)

	_, err := f.assign.Assign(context.Background(), &f.sales2, appt.ID, f.sales1.ID, "")
	requireErrorCode(t, err, "FORBIDDEN")
}

func TestAssignRejectsNonSalesAssignee(t *testing.T) {
	f := newFixture(t)
	appt := createPending(t, f, 10)

	_, err := f.assign.Assign(context.Background(), &f.agent, appt.ID, f.admin.ID, "")
	requireErrorCode(t, err, "VALIDATION_FAILED")
}

func TestAssignRejectsInactiveAssignee(t *testing.T) {
	f := newFixture(t)
	appt := createPending(t, f, 10)

	inactive := domain.StaffMember{ID: "sales-3", Role: domain.StaffRoleSales, Active: false}
	require.NoError(t, f.staff.Create(context.Background(), &inactive))

	_, err := f.assign.Assign(context.Background(), &f.agent, appt.ID, inactive.ID, "")
	requireErrorCode(t, err, "CONFLICT")
}

func TestAssignSlotConflict(t *testing.T) {
	f := newFixture(t)
	at := futureSlot(10)
	s1 := f.sales1.ID
	f.appts.seed(domain.Appointment{
		ID: "busy-1", CustomerID: "other-1", Type: domain.AppointmentTypeOfficeConsultation,
		ScheduledAt: at, Status: domain.AppointmentStatusConfirmed, AssignedStaffID: &s1,
		Acceptance: domain.Acceptance{State: domain.AcceptanceAccepted},
	})
	appt := createPending(t, f, 10)

	_, err := f.assign.Assign(context.Background(), &f.agent, appt.ID, f.sales1.ID, "")
	requireErrorCode(t, err, "CONFLICT")

	// the other sales member is still free
	assigned, err := f.assign.Assign(context.Background(), &f.agent, appt.ID, f.sales2.ID, "")
	require.NoError(t, err)
	require.Equal(t, f.sales2.ID, *assigned.AssignedStaffID)
}

func TestAcceptConfirmsAppointment(t *testing.T) {
	f := newFixture(t)
	appt := createPending(t, f, 10)

	_, err := f.assign.Assign(context.Background(), &f.agent, appt.ID, f.sales1.ID, "")
	require.NoError(t, err)

	accepted, err := f.assign.Accept(context.Background(), &f.sales1, appt.ID)
	require.NoError(t, err)
	require.Equal(t, domain.AppointmentStatusConfirmed, accepted.Status)
	require.Equal(t, domain.AcceptanceAccepted, accepted.Acceptance.State)
	require.NotNil(t, accepted.Acceptance.AcceptedAt)
}

func TestAcceptByOtherStaffForbidden(t *testing.T) {
	f := newFixture(t)
	appt := createPending(t, f, 10)

	_, err := f.assign.Assign(context.Background(), &f.agent, appt.ID, f.sales1.ID, "")
	require.NoError(t, err)

	_, err = f.assign.Accept(context.Background(), &f.sales2, appt.ID)
	requireErrorCode(t, err, "FORBIDDEN")
}

func TestSecondAcceptRejected(t *testing.T) {
	f := newFixture(t)
	appt := createPending(t, f, 10)

	_, err := f.assign.Assign(context.Background(), &f.agent, appt.ID, f.sales1.ID, "")
	require.NoError(t, err)
	_, err = f.assign.Accept(context.Background(), &f.sales1, appt.ID)
	require.NoError(t, err)

	_, err = f.assign.Accept(context.Background(), &f.sales1, appt.ID)
	requireErrorCode(t, err, "INVALID_STATE")
}

func TestReassignmentRoundTrip(t *testing.T) {
	f := newFixture(t)
	appt := createPending(t, f, 10)

	_, err := f.assign.Assign(context.Background(), &f.agent, appt.ID, f.sales1.ID, "")
	require.NoError(t, err)

	flagged, err := f.assign.RequestReassignment(context.Background(), &f.sales1, appt.ID, "on leave that day")
	require.NoError(t, err)
	require.Equal(t, domain.AppointmentStatusAssigned, flagged.Status)
	require.Equal(t, domain.AcceptanceReassignmentRequested, flagged.Acceptance.State)
	require.Equal(t, "on leave that day", flagged.Acceptance.RescheduleReason)

	// still assigned to the original staff until the dispatcher acts
	require.Equal(t, f.sales1.ID, *flagged.AssignedStaffID)

	reassigned, err := f.assign.Assign(context.Background(), &f.agent, appt.ID, f.sales2.ID, "covering for sales one")
	require.NoError(t, err)
	require.Equal(t, f.sales2.ID, *reassigned.AssignedStaffID)
	require.Equal(t, domain.AcceptanceAwaiting, reassigned.Acceptance.State)
	require.Empty(t, reassigned.Acceptance.RescheduleReason)

	accepted, err := f.assign.Accept(context.Background(), &f.sales2, appt.ID)
	require.NoError(t, err)
	require.Equal(t, domain.AppointmentStatusConfirmed, accepted.Status)
}

func TestRequestReassignmentRequiresReason(t *testing.T) {
	f := newFixture(t)
	appt := createPending(t, f, 10)

	_, err := f.assign.Assign(context.Background(), &f.agent, appt.ID, f.sales1.ID, "")
	require.NoError(t, err)

	_, err = f.assign.RequestReassignment(context.Background(), &f.sales1, appt.ID, "   ")
	requireErrorCode(t, err, "VALIDATION_FAILED")
}

func TestRequestReassignmentAfterAcceptRejected(t *testing.T) {
	f := newFixture(t)
	appt := createPending(t, f, 10)

	_, err := f.assign.Assign(context.Background(), &f.agent, appt.ID, f.sales1.ID, "")
	require.NoError(t, err)
	_, err = f.assign.Accept(context.Background(), &f.sales1, appt.ID)
	require.NoError(t, err)

	_, err = f.assign.RequestReassignment(context.Background(), &f.sales1, appt.ID, "changed my mind")
	requireErrorCode(t, err, "INVALID_STATE")
}

func TestSecondReassignmentRequestRejected(t *testing.T) {
	f := newFixture(t)
	appt := createPending(t, f, 10)

	_, err := f.assign.Assign(context.Background(), &f.agent, appt.ID, f.sales1.ID, "")
	require.NoError(t, err)
	_, err = f.assign.RequestReassignment(context.Background(), &f.sales1, appt.ID, "on leave")
	require.NoError(t, err)

	_, err = f.assign.RequestReassignment(context.Background(), &f.sales1, appt.ID, "still on leave")
	requireErrorCode(t, err, "INVALID_STATE")
}

func TestAssignUnassignedAcceptanceGuard(t *testing.T) {
	f := newFixture(t)
	appt := createPending(t, f, 10)

	_, err := f.assign.Assign(context.Background(), &f.agent, appt.ID, f.sales1.ID, "")
	require.NoError(t, err)

	// re-dispatch while the first assignee is still deciding is not legal
	_, err = f.assign.Assign(context.Background(), &f.agent, appt.ID, f.sales2.ID, "")
	requireErrorCode(t, err, "INVALID_STATE")
}
