// Package schedule parses weekly course meeting strings such as
// "MWF 10:00-10:50 AM" and decides whether two meetings collide.
package schedule

import (
	"strings"
	"time"
)

// DaySet is a set of weekdays stored as a bitmask indexed by time.Weekday.
type DaySet uint8

// NewDaySet returns a set holding the given days.
func NewDaySet(days ...time.Weekday) DaySet {
	var set DaySet
	for _, day := range days {
		set = set.Add(day)
	}
	return set
}

func (s DaySet) Add(day time.Weekday) DaySet {
	return s | 1<<uint(day)
}

func (s DaySet) Has(day time.Weekday) bool {
	return s&(1<<uint(day)) != 0
}

// Intersects reports whether the two sets share at least one day.
func (s DaySet) Intersects(other DaySet) bool {
	return s&other != 0
}

func (s DaySet) Empty() bool {
	return s == 0
}

// Days lists the members in calendar order starting from Sunday.
func (s DaySet) Days() []time.Weekday {
	var days []time.Weekday
	for day := time.Sunday; day <= time.Saturday; day++ {
		if s.Has(day) {
			days = append(days, day)
		}
	}
	return days
}

func (s DaySet) String() string {
	names := make([]string, 0, 5)
	for _, day := range s.Days() {
		names = append(names, day.String()[:3])
	}
	return strings.Join(names, ",")
}

// TimeSlot is a parsed weekly meeting. Start and End are minutes since
// midnight; the parser does not guarantee Start < End.
type TimeSlot struct {
	Days  DaySet
	Start int
	End   int
}
