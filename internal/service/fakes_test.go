package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/booking-service/internal/domain"
	"github.com/spec-kit/booking-service/internal/events"
	"github.com/spec-kit/booking-service/internal/repository"
)

// fakeAppointmentRepo mirrors the Postgres repository's guard semantics:
// the active-appointment check on insert, compare-and-set on update, and
// the staff slot uniqueness constraint.
type fakeAppointmentRepo struct {
	mu    sync.Mutex
	seq   int
	store map[string]domain.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{store: make(map[string]domain.Appointment)}
}

func (f *fakeAppointmentRepo) seed(appt domain.Appointment) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	if appt.ID == "" {
		appt.ID = fmt.Sprintf("appt-%d", f.seq)
	}
	f.store[appt.ID] = appt
	return appt.ID
}

func (f *fakeAppointmentRepo) Create(ctx context.Context, appt *domain.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	for _, existing := range f.store {
		if existing.CustomerID != appt.CustomerID || !existing.ScheduledAt.After(now) {
			continue
		}
		for _, status := range domain.ActiveStatuses() {
			if existing.Status == status {
				return repository.ErrActiveAppointmentExists
			}
		}
	}

	f.seq++
	appt.ID = fmt.Sprintf("appt-%d", f.seq)
	appt.CreatedAt = now
	appt.UpdatedAt = now
	f.store[appt.ID] = *appt
	return nil
}

func (f *fakeAppointmentRepo) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	appt, ok := f.store[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := appt
	return &copied, nil
}

func (f *fakeAppointmentRepo) UpdateCAS(ctx context.Context, appt *domain.Appointment, expectedStatus domain.AppointmentStatus, expectedAcceptance domain.AcceptanceState) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.store[appt.ID]
	if !ok || stored.Status != expectedStatus || stored.Acceptance.State != expectedAcceptance {
		return repository.ErrStale
	}
	if appt.AssignedStaffID != nil && appt.Status != domain.AppointmentStatusCancelled {
		for id, other := range f.store {
			if id == appt.ID || other.AssignedStaffID == nil {
				continue
			}
			if *other.AssignedStaffID == *appt.AssignedStaffID &&
				other.ScheduledAt.Equal(appt.ScheduledAt) &&
				other.Status != domain.AppointmentStatusCancelled {
				return repository.ErrSlotTaken
			}
		}
	}

	appt.UpdatedAt = time.Now()
	f.store[appt.ID] = *appt
	return nil
}

func (f *fakeAppointmentRepo) ListWithFilter(ctx context.Context, filter repository.AppointmentFilter) ([]domain.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []domain.Appointment
	for _, appt := range f.store {
		if filter.CustomerID != nil && appt.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.AssignedStaffID != nil && (appt.AssignedStaffID == nil || *appt.AssignedStaffID != *filter.AssignedStaffID) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, appt.Status) {
			continue
		}
		if filter.ScheduledFrom != nil && appt.ScheduledAt.Before(*filter.ScheduledFrom) {
			continue
		}
		if filter.ScheduledTo != nil && appt.ScheduledAt.After(*filter.ScheduledTo) {
			continue
		}
		result = append(result, appt)
	}
	return result, nil
}

func (f *fakeAppointmentRepo) HasStaffBooking(ctx context.Context, staffID string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, appt := range f.store {
		if appt.AssignedStaffID != nil && *appt.AssignedStaffID == staffID &&
			appt.ScheduledAt.Equal(at) && appt.Status != domain.AppointmentStatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func containsStatus(statuses []domain.AppointmentStatus, status domain.AppointmentStatus) bool {
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}

type fakeStaffRepo struct {
	mu    sync.Mutex
	store map[string]domain.StaffMember
}

func newFakeStaffRepo(members ...domain.StaffMember) *fakeStaffRepo {
	repo := &fakeStaffRepo{store: make(map[string]domain.StaffMember)}
	for _, member := range members {
		repo.store[member.ID] = member
	}
	return repo
}

func (f *fakeStaffRepo) Create(ctx context.Context, staff *domain.StaffMember) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if staff.ID == "" {
		staff.ID = fmt.Sprintf("staff-%d", len(f.store)+1)
	}
	staff.CreatedAt = time.Now()
	staff.UpdatedAt = staff.CreatedAt
	f.store[staff.ID] = *staff
	return nil
}

func (f *fakeStaffRepo) Update(ctx context.Context, staff *domain.StaffMember) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.store[staff.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.store[staff.ID] = *staff
	return nil
}

func (f *fakeStaffRepo) GetByID(ctx context.Context, id string) (*domain.StaffMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	member, ok := f.store[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := member
	return &copied, nil
}

func (f *fakeStaffRepo) GetByEmail(ctx context.Context, email string) (*domain.StaffMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, member := range f.store {
		if member.Email == email {
			copied := member
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeStaffRepo) List(ctx context.Context, filter repository.StaffFilter) ([]domain.StaffMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.StaffMember
	for _, member := range f.store {
		if filter.Role != nil && member.Role != *filter.Role {
			continue
		}
		if filter.Active != nil && member.Active != *filter.Active {
			continue
		}
		result = append(result, member)
	}
	return result, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	store map[string]domain.User
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{store: make(map[string]domain.User)}
	for _, user := range users {
		repo.store[user.ID] = user
	}
	return repo
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", len(f.store)+1)
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	f.store[user.ID] = *user
	return nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.store[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.store[user.ID] = *user
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.store[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := user
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.store {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	user, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.Customer{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Phone:     user.Phone,
	}, nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []domain.AppointmentHistory
}

func (f *fakeHistoryRepo) Create(ctx context.Context, history *domain.AppointmentHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	history.ID = fmt.Sprintf("hist-%d", len(f.entries)+1)
	history.CreatedAt = time.Now()
	f.entries = append(f.entries, *history)
	return nil
}

func (f *fakeHistoryRepo) ListByAppointment(ctx context.Context, appointmentID string) ([]domain.AppointmentHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.AppointmentHistory
	for _, entry := range f.entries {
		if entry.AppointmentID == appointmentID {
			result = append(result, entry)
		}
	}
	return result, nil
}

// recordingDispatcher captures published events and still delivers them to
// subscribers.
type recordingDispatcher struct {
	mu        sync.Mutex
	published []events.Event
	handlers  map[events.EventType][]events.EventHandler
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{handlers: make(map[events.EventType][]events.EventHandler)}
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	d.published = append(d.published, event)
	handlers := append([]events.EventHandler{}, d.handlers[event.Type]...)
	d.mu.Unlock()
	for _, handler := range handlers {
		_ = handler(ctx, event)
	}
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

func (d *recordingDispatcher) eventTypes() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	types := make([]events.EventType, 0, len(d.published))
	for _, event := range d.published {
		types = append(types, event.Type)
	}
	return types
}
