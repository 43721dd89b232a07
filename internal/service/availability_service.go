package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/booking-service/internal/domain"
	"github.com/spec-kit/booking-service/internal/events"
	"github.com/spec-kit/booking-service/internal/repository"
	"github.com/spec-kit/booking-service/internal/schedule"
	"github.com/spec-kit/booking-service/pkg/apperrors"
)

// AvailabilityService computes and caches the bookable slot grid per date.
type AvailabilityService struct {
	appointments repository.AppointmentRepository
	staff        repository.StaffRepository
	cache        *schedule.Cache
	slots        []schedule.SlotTime
	loc          *time.Location
	logger       *zap.Logger
}

// AvailabilityDependencies bundles collaborators.
type AvailabilityDependencies struct {
	AppointmentRepo repository.AppointmentRepository
	StaffRepo       repository.StaffRepository
	Cache           *schedule.Cache
	Slots           []schedule.SlotTime
	Location        *time.Location
	Logger          *zap.Logger
}

// NewAvailabilityService constructs the service.
func NewAvailabilityService(deps AvailabilityDependencies) *AvailabilityService {
	return &AvailabilityService{
		appointments: deps.AppointmentRepo,
		staff:        deps.StaffRepo,
		cache:        deps.Cache,
		slots:        deps.Slots,
		loc:          deps.Location,
		logger:       deps.Logger,
	}
}

// DayAvailability returns the slot grid for the given date string. Weekends
// return the date with no slots rather than an error.
func (s *AvailabilityService) DayAvailability(ctx context.Context, dateStr string) (*schedule.DayAvailability, error) {
	date, err := time.ParseInLocation(schedule.DateLayout, dateStr, s.loc)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid date, expected YYYY-MM-DD", map[string]any{"date": dateStr})
	}

	if cached, ok := s.cache.Get(ctx, dateStr); ok {
		return cached, nil
	}

	role := domain.StaffRoleSales
	staffList, err := s.staff.List(ctx, repository.StaffFilter{
		Role:   &role,
		Active: ptrBool(true),
		Limit:  500,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	dayStart := date
	dayEnd := date.AddDate(0, 0, 1)
	appts, err := s.appointments.ListWithFilter(ctx, repository.AppointmentFilter{
		ScheduledFrom: &dayStart,
		ScheduledTo:   &dayEnd,
		Limit:         1000,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	day := schedule.DaySchedule(date, s.slots, staffList, appts, s.loc)
	s.cache.Put(ctx, day)
	return &day, nil
}

// RegisterInvalidation subscribes cache invalidation to every lifecycle
// event. The event carries the slot instant, so only the affected date is
// dropped.
func (s *AvailabilityService) RegisterInvalidation(dispatcher events.Dispatcher) {
	if dispatcher == nil || s.cache == nil {
		return
	}
	for _, eventType := range events.AllTypes() {
		dispatcher.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
			date := event.ScheduledFor.In(s.loc).Format(schedule.DateLayout)
			s.cache.Invalidate(ctx, date)
			return nil
		})
	}
}
