package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/booking-service/internal/domain"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// SlotTime is a fixed time-of-day bucket within office hours.
type SlotTime struct {
	Hour   int
	Minute int
}

func (s SlotTime) String() string {
	return fmt.Sprintf("%02d:%02d", s.Hour, s.Minute)
}

// At anchors the slot on the given calendar date in loc.
func (s SlotTime) At(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), s.Hour, s.Minute, 0, 0, loc)
}

// ParseSlotTimes parses "HH:MM" entries into an ordered slot grid.
func ParseSlotTimes(entries []string) ([]SlotTime, error) {
	slots := make([]SlotTime, 0, len(entries))
	for _, entry := range entries {
		parts := strings.SplitN(strings.TrimSpace(entry), ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid slot time %q", entry)
		}
		hour, err := strconv.Atoi(parts[0])
		if err != nil || hour < 0 || hour > 23 {
			return nil, fmt.Errorf("invalid slot hour %q", entry)
		}
		minute, err := strconv.Atoi(parts[1])
		if err != nil || minute < 0 || minute > 59 {
			return nil, fmt.Errorf("invalid slot minute %q", entry)
		}
		slots = append(slots, SlotTime{Hour: hour, Minute: minute})
	}
	return slots, nil
}

// SlotAvailability lists the staff free to take one slot.
type SlotAvailability struct {
	Time     string    `json:"time"`
	Start    time.Time `json:"start"`
	StaffIDs []string  `json:"available_staff_ids"`
}

// Available reports whether at least one staff member is free.
func (s SlotAvailability) Available() bool {
	return len(s.StaffIDs) > 0
}

// DayAvailability is the bookable view of one calendar date.
type DayAvailability struct {
	Date  string             `json:"date"`
	Slots []SlotAvailability `json:"slots"`
}

// IsBusinessDay reports whether appointments may fall on t's weekday.
func IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// DaySchedule computes, for each configured slot on date, the staff members
// free to take it. A staff member is free unless they hold a non-cancelled
// appointment in the same slot on that date. Weekends yield no slots. The
// computation is pure: no clock reads, no I/O.
func DaySchedule(date time.Time, slots []SlotTime, staff []domain.StaffMember, appointments []domain.Appointment, loc *time.Location) DayAvailability {
	day := DayAvailability{Date: date.In(loc).Format(DateLayout)}
	if !IsBusinessDay(date.In(loc)) {
		return day
	}

	busy := make(map[string]map[SlotTime]bool)
	for _, appt := range appointments {
		if appt.Status == domain.AppointmentStatusCancelled {
			continue
		}
		if appt.AssignedStaffID == nil {
			continue
		}
		at := appt.ScheduledAt.In(loc)
		if at.Format(DateLayout) != day.Date {
			continue
		}
		slot := SlotTime{Hour: at.Hour(), Minute: at.Minute()}
		if busy[*appt.AssignedStaffID] == nil {
			busy[*appt.AssignedStaffID] = make(map[SlotTime]bool)
		}
		busy[*appt.AssignedStaffID][slot] = true
	}

	day.Slots = make([]SlotAvailability, 0, len(slots))
	for _, slot := range slots {
		entry := SlotAvailability{
			Time:     slot.String(),
			Start:    slot.At(date.In(loc), loc),
			StaffIDs: []string{},
		}
		for _, member := range staff {
			if busy[member.ID][slot] {
				continue
			}
			entry.StaffIDs = append(entry.StaffIDs, member.ID)
		}
		day.Slots = append(day.Slots, entry)
	}
	return day
}

// MatchesSlot reports whether t falls exactly on one of the configured slots.
// Any sub-minute component disqualifies t: stored appointment times must be
// exact slot boundaries so occupancy checks can compare instants directly.
func MatchesSlot(t time.Time, slots []SlotTime, loc *time.Location) bool {
	at := t.In(loc)
	if at.Second() != 0 || at.Nanosecond() != 0 {
		return false
	}
	for _, slot := range slots {
		if at.Hour() == slot.Hour && at.Minute() == slot.Minute {
			return true
		}
	}
	return false
}
