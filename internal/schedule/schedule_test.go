package schedule

import (
	"testing"
	"time"
)

// date returns a fixed date falling on the given weekday (week of
// 2025-06-01, a Sunday).
func date(d time.Weekday) time.Time {
	return time.Date(2025, 6, 1+int(d), 0, 0, 0, 0, time.UTC)
}

func TestIsHourOpen(t *testing.T) {
	overnight := WorkingHours{
		"monday":  nil,
		"tuesday": {Open: "14:00", Close: "06:00"},
	}

	tests := []struct {
		name string
		wh   WorkingHours
		day  time.Weekday
		hour int
		want bool
	}{
		{"nil schedule defaults open", nil, time.Monday, 12, true},
		{"same-day range inside", WorkingHours{"monday": {Open: "10:00", Close: "22:00"}}, time.Monday, 10, true},
		{"same-day range last open hour", WorkingHours{"monday": {Open: "10:00", Close: "22:00"}}, time.Monday, 21, true},
		{"same-day range at close", WorkingHours{"monday": {Open: "10:00", Close: "22:00"}}, time.Monday, 22, false},
		{"same-day range before open", WorkingHours{"monday": {Open: "10:00", Close: "22:00"}}, time.Monday, 9, false},

		{"full 24h day", WorkingHours{"monday": {Open: "00:00", Close: "00:00", Is24h: true}}, time.Monday, 4, true},
		{"continuous start open after", WorkingHours{"friday": {Open: "14:00", Is24h: true}}, time.Friday, 15, true},
		{"continuous start closed before, no carryover", WorkingHours{"friday": {Open: "14:00", Is24h: true}}, time.Friday, 10, false},

		{"overnight same day after open", overnight, time.Tuesday, 23, true},
		{"overnight same day before open", overnight, time.Tuesday, 10, false},
		{"overnight carryover into next day", overnight, time.Wednesday, 3, true},
		{"overnight carryover past close", overnight, time.Wednesday, 7, false},
		{"overnight carryover at close", overnight, time.Wednesday, 6, false},

		{"24h carryover before cutoff", WorkingHours{"sunday": {Open: "00:00", Is24h: true}}, time.Monday, 5, true},
		{"24h carryover at cutoff", WorkingHours{"sunday": {Open: "00:00", Is24h: true}}, time.Monday, 6, false},

		{"closed day no carryover", WorkingHours{"monday": nil}, time.Monday, 12, false},
		{"prev same-day range never carries", WorkingHours{"sunday": {Open: "10:00", Close: "22:00"}}, time.Monday, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsHourOpen(tt.wh, date(tt.day), tt.hour); got != tt.want {
				t.Errorf("IsHourOpen(%s, %d) = %v, want %v", tt.day, tt.hour, got, tt.want)
			}
		})
	}
}

func TestIsDayFullyClosed(t *testing.T) {
	wh := WorkingHours{
		"monday":  nil,
		"tuesday": {Open: "14:00", Close: "06:00"},
	}

	// Monday has no shift and Sunday is absent, so 9..23 is fully closed.
	if !IsDayFullyClosed(wh, date(time.Monday), 9, 23) {
		t.Error("expected Monday 9-23 fully closed")
	}
	// Tuesday opens at 14:00.
	if IsDayFullyClosed(wh, date(time.Tuesday), 9, 23) {
		t.Error("expected Tuesday not fully closed")
	}
	// Wednesday morning is covered by Tuesday's carryover.
	if IsDayFullyClosed(wh, date(time.Wednesday), 0, 5) {
		t.Error("expected Wednesday early hours open via carryover")
	}
	if !IsDayFullyClosed(wh, date(time.Wednesday), 6, 23) {
		t.Error("expected Wednesday closed from 06:00")
	}
	// Nil working hours renders as not-closed.
	if IsDayFullyClosed(nil, date(time.Monday), 9, 23) {
		t.Error("nil working hours should not report a day off")
	}
}
