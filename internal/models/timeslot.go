package models

import (
	"fmt"
	"strings"
)

const (
	DaysPerWeek   = 5
	PeriodsPerDay = 10
)

// TimeSlot is the starting (day, period) of a session. Days and periods are 1-based.
type TimeSlot struct {
	Day    int `json:"day" validate:"min=1,max=5"`
	Period int `json:"period" validate:"min=1,max=10"`
}

// Valid reports whether the slot lies on the weekly grid.
func (t TimeSlot) Valid() bool {
	return t.Day >= 1 && t.Day <= DaysPerWeek && t.Period >= 1 && t.Period <= PeriodsPerDay
}

// Compare orders slots by day then period.
func (t TimeSlot) Compare(o TimeSlot) int {
	switch {
	case t.Day != o.Day:
		return t.Day - o.Day
	default:
		return t.Period - o.Period
	}
}

// Index maps the slot to 0..DaysPerWeek*PeriodsPerDay-1.
func (t TimeSlot) Index() int {
	return (t.Day-1)*PeriodsPerDay + t.Period - 1
}

func (t TimeSlot) String() string {
	return fmt.Sprintf("%s-P%d", DayName(t.Day), t.Period)
}

// AllTimeSlots enumerates the grid in total order.
func AllTimeSlots() []TimeSlot {
	slots := make([]TimeSlot, 0, DaysPerWeek*PeriodsPerDay)
	for day := 1; day <= DaysPerWeek; day++ {
		for period := 1; period <= PeriodsPerDay; period++ {
			slots = append(slots, TimeSlot{Day: day, Period: period})
		}
	}
	return slots
}

var dayIndexMap = map[int]string{
	1: "MONDAY",
	2: "TUESDAY",
	3: "WEDNESDAY",
	4: "THURSDAY",
	5: "FRIDAY",
}

var dayNameIndex = map[string]int{
	"MONDAY":    1,
	"TUESDAY":   2,
	"WEDNESDAY": 3,
	"THURSDAY":  4,
	"FRIDAY":    5,
}

// DayName returns the upper-case weekday name, or "DAY<n>" when off-grid.
func DayName(day int) string {
	if name, ok := dayIndexMap[day]; ok {
		return name
	}
	return fmt.Sprintf("DAY%d", day)
}

// DayIndex parses a weekday name; 0 means unknown.
func DayIndex(name string) int {
	return dayNameIndex[strings.ToUpper(strings.TrimSpace(name))]
}

// MaxShifts is the largest supported number of shifts per day.
const MaxShifts = 3

// ShiftWindows splits the teaching day into inclusive period ranges.
// Unknown shift counts fall back to the whole day.
func ShiftWindows(shifts int) [][2]int {
	switch shifts {
	case 2:
		return [][2]int{{1, 5}, {6, 10}}
	case 3:
		return [][2]int{{1, 3}, {4, 7}, {8, 10}}
	default:
		return [][2]int{{1, PeriodsPerDay}}
	}
}

// FitsShift reports whether a session of duration periods starting at period
// stays inside a single shift window.
func FitsShift(period, duration, shifts int) bool {
	if duration < 1 {
		return false
	}
	last := period + duration - 1
	for _, window := range ShiftWindows(shifts) {
		if period >= window[0] && last <= window[1] {
			return true
		}
	}
	return false
}

// LongestShift is the longest session that fits any window.
func LongestShift(shifts int) int {
	longest := 0
	for _, window := range ShiftWindows(shifts) {
		if span := window[1] - window[0] + 1; span > longest {
			longest = span
		}
	}
	return longest
}
