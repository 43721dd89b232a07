package schedule

import (
	"testing"
	"time"

	"github.com/spec-kit/booking-service/internal/domain"
)

func defaultSlots(t *testing.T) []SlotTime {
	t.Helper()
	slots, err := ParseSlotTimes([]string{"09:00", "10:00", "11:00", "13:00", "14:00", "15:00", "16:00", "17:00"})
	if err != nil {
		t.Fatalf("parse slots: %v", err)
	}
	return slots
}

func TestParseSlotTimes(t *testing.T) {
	slots, err := ParseSlotTimes([]string{"09:00", "13:30"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if slots[0].String() != "09:00" || slots[1].String() != "13:30" {
		t.Fatalf("unexpected slots: %v", slots)
	}

	if _, err := ParseSlotTimes([]string{"9am"}); err == nil {
		t.Fatal("expected error for malformed slot")
	}
	if _, err := ParseSlotTimes([]string{"25:00"}); err == nil {
		t.Fatal("expected error for out-of-range hour")
	}
}

func TestDayScheduleBusyStaff(t *testing.T) {
	loc := time.UTC
	// 2025-03-10 is a Monday.
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)
	staff := []domain.StaffMember{{ID: "s1"}, {ID: "s2"}}
	s1 := "s1"
	appointments := []domain.Appointment{
		{
			ID:              "a1",
			Status:          domain.AppointmentStatusConfirmed,
			AssignedStaffID: &s1,
			ScheduledAt:     time.Date(2025, 3, 10, 10, 0, 0, 0, loc),
		},
	}

	day := DaySchedule(date, defaultSlots(t), staff, appointments, loc)
	if day.Date != "2025-03-10" {
		t.Fatalf("unexpected date: %s", day.Date)
	}

	slot := findSlot(t, day, "10:00")
	if len(slot.StaffIDs) != 1 || slot.StaffIDs[0] != "s2" {
		t.Fatalf("expected only s2 free at 10:00, got %v", slot.StaffIDs)
	}
	if !slot.Available() {
		t.Fatal("expected 10:00 to stay available system-wide")
	}

	other := findSlot(t, day, "09:00")
	if len(other.StaffIDs) != 2 {
		t.Fatalf("expected both staff free at 09:00, got %v", other.StaffIDs)
	}
}

func TestDayScheduleCancelledDoesNotBlock(t *testing.T) {
	loc := time.UTC
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)
	s1 := "s1"
	appointments := []domain.Appointment{
		{
			Status:          domain.AppointmentStatusCancelled,
			AssignedStaffID: &s1,
			ScheduledAt:     time.Date(2025, 3, 10, 10, 0, 0, 0, loc),
		},
	}

	day := DaySchedule(date, defaultSlots(t), []domain.StaffMember{{ID: "s1"}}, appointments, loc)
	slot := findSlot(t, day, "10:00")
	if len(slot.StaffIDs) != 1 {
		t.Fatalf("cancelled appointment must not occupy the slot, got %v", slot.StaffIDs)
	}
}

func TestDayScheduleEmptyRoster(t *testing.T) {
	loc := time.UTC
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)

	day := DaySchedule(date, defaultSlots(t), nil, nil, loc)
	if len(day.Slots) != 8 {
		t.Fatalf("expected 8 slots, got %d", len(day.Slots))
	}
	for _, slot := range day.Slots {
		if slot.Available() {
			t.Fatalf("slot %s must be unavailable with zero staff", slot.Time)
		}
	}
}

func TestDayScheduleNoBookings(t *testing.T) {
	loc := time.UTC
	date := time.Date(2025, 3, 11, 0, 0, 0, 0, loc)
	staff := []domain.StaffMember{{ID: "s1"}, {ID: "s2"}, {ID: "s3"}}

	day := DaySchedule(date, defaultSlots(t), staff, nil, loc)
	for _, slot := range day.Slots {
		if len(slot.StaffIDs) != len(staff) {
			t.Fatalf("slot %s: expected all staff free, got %v", slot.Time, slot.StaffIDs)
		}
	}
}

func TestDayScheduleWeekend(t *testing.T) {
	loc := time.UTC
	// 2025-03-08 is a Saturday.
	date := time.Date(2025, 3, 8, 0, 0, 0, 0, loc)

	day := DaySchedule(date, defaultSlots(t), []domain.StaffMember{{ID: "s1"}}, nil, loc)
	if len(day.Slots) != 0 {
		t.Fatalf("expected no slots on a weekend, got %d", len(day.Slots))
	}
}

func TestIsBusinessDay(t *testing.T) {
	monday := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	saturday := time.Date(2025, 3, 8, 9, 0, 0, 0, time.UTC)
	sunday := time.Date(2025, 3, 9, 9, 0, 0, 0, time.UTC)

	if !IsBusinessDay(monday) {
		t.Error("monday must be a business day")
	}
	if IsBusinessDay(saturday) || IsBusinessDay(sunday) {
		t.Error("weekend must not be a business day")
	}
}

func TestMatchesSlot(t *testing.T) {
	loc := time.UTC
	slots := defaultSlots(t)

	if !MatchesSlot(time.Date(2025, 3, 10, 10, 0, 0, 0, loc), slots, loc) {
		t.Error("10:00 must match the grid")
	}
	if MatchesSlot(time.Date(2025, 3, 10, 10, 30, 0, 0, loc), slots, loc) {
		t.Error("10:30 must not match the grid")
	}
	if MatchesSlot(time.Date(2025, 3, 10, 12, 0, 0, 0, loc), slots, loc) {
		t.Error("the lunch gap must not match the grid")
	}
	if MatchesSlot(time.Date(2025, 3, 10, 10, 0, 30, 0, loc), slots, loc) {
		t.Error("a time with seconds must not match the grid")
	}
	if MatchesSlot(time.Date(2025, 3, 10, 10, 0, 0, 500_000_000, loc), slots, loc) {
		t.Error("a time with sub-second precision must not match the grid")
	}
}

func findSlot(t *testing.T, day DayAvailability, at string) SlotAvailability {
	t.Helper()
	for _, slot := range day.Slots {
		if slot.Time == at {
			return slot
		}
	}
	t.Fatalf("slot %s not found in %v", at, day.Slots)
	return SlotAvailability{}
}
