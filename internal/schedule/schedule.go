// Package schedule resolves branch operating hours, including shifts that
// run past midnight into the next calendar day.
package schedule

import (
	"strconv"
	"strings"
	"time"
)

// CarryoverCutoffHour is how far a 24h shift from the previous day extends
// into the next calendar day ("Monday closed from 6 AM" rule).
const CarryoverCutoffHour = 6

// DaySchedule describes one weekday's opening window. Close at or before
// Open (as hour of day) means the shift spans midnight.
type DaySchedule struct {
	Open  string `json:"open"`  // "HH:MM"
	Close string `json:"close"` // "HH:MM"
	Is24h bool   `json:"is24h"`
}

// WorkingHours maps lowercase weekday names ("monday" ... "sunday") to a
// day's schedule. A missing or nil entry means no shift starts that day,
// though the previous day's shift may still carry over into its early hours.
type WorkingHours map[string]*DaySchedule

var dayNames = [7]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// DayName returns the lowercase key used in WorkingHours for a weekday.
func DayName(d time.Weekday) string {
	return dayNames[int(d)]
}

// hourOf parses the hour component out of "HH:MM". Malformed values read
// as hour 0.
func hourOf(hhmm string) int {
	h, _, ok := strings.Cut(hhmm, ":")
	if !ok {
		h = hhmm
	}
	n, err := strconv.Atoi(h)
	if err != nil || n < 0 || n > 23 {
		return 0
	}
	return n
}

// IsHourOpen reports whether the branch is open at the given hour on the
// given calendar day.
//
// Venues that operate past midnight attribute early-morning hours to the
// previous business day's shift, so an hour not covered by the day's own
// schedule is checked against the previous day's overnight carryover:
// a 24h previous day stays open until CarryoverCutoffHour, and a
// midnight-spanning previous day stays open until its close hour.
func IsHourOpen(wh WorkingHours, day time.Time, hour int) bool {
	if wh == nil {
		return true
	}

	dow := day.Weekday()
	if ds := wh[DayName(dow)]; ds != nil {
		if ds.Is24h {
			openH := hourOf(ds.Open)
			if openH == 0 {
				return true
			}
			// Continuous start ("opens at 14:00 and runs through"):
			// earlier hours may still be covered by yesterday's shift.
			if hour >= openH {
				return true
			}
		} else {
			openH := hourOf(ds.Open)
			closeH := hourOf(ds.Close)
			if closeH <= openH {
				// Spans midnight, e.g. 14:00-06:00.
				if hour >= openH {
					return true
				}
			} else if hour >= openH && hour < closeH {
				return true
			}
		}
	}

	prev := wh[DayName((dow+6)%7)]
	if prev == nil {
		return false
	}
	if prev.Is24h {
		return hour < CarryoverCutoffHour
	}
	prevOpenH := hourOf(prev.Open)
	prevCloseH := hourOf(prev.Close)
	if prevCloseH <= prevOpenH {
		return hour < prevCloseH
	}
	return false
}

// IsDayFullyClosed reports whether every hour in [fromHour, toHour]
// resolves closed. Used to render a day-off banner; it carries no
// booking-blocking role of its own.
func IsDayFullyClosed(wh WorkingHours, day time.Time, fromHour, toHour int) bool {
	if wh == nil {
		return false
	}
	for h := fromHour; h <= toHour; h++ {
		if IsHourOpen(wh, day, h) {
			return false
		}
	}
	return true
}
