package schedule

import (
	"errors"
	"fmt"
	"strings"
)

// Conflicts reports whether two slots share a weekday and overlap in time.
// Intervals are half-open, so a class ending at 10:50 does not collide with
// one starting at 10:50.
func Conflicts(a, b TimeSlot) bool {
	if !a.Days.Intersects(b.Days) {
		return false
	}
	return !(a.End <= b.Start || b.End <= a.Start)
}

// ParsePolicy decides what an unparsable schedule means for conflict checks.
type ParsePolicy int

const (
	// FailOpen treats an unparsable schedule as never conflicting.
	FailOpen ParsePolicy = iota
	// FailClosed treats an unparsable schedule as conflicting with everything.
	FailClosed
)

func (p ParsePolicy) String() string {
	switch p {
	case FailClosed:
		return "fail_closed"
	default:
		return "fail_open"
	}
}

// ParsePolicyFromString accepts "fail_open" or "fail_closed"; empty means FailOpen.
func ParsePolicyFromString(value string) (ParsePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "fail_open":
		return FailOpen, nil
	case "fail_closed":
		return FailClosed, nil
	default:
		return FailOpen, fmt.Errorf("unknown schedule conflict policy %q", value)
	}
}

// ConflictsRaw parses both schedules and compares them. When either side
// fails to parse, the policy decides the answer and the parse error is
// returned alongside it so callers can report the unknown schedule.
func ConflictsRaw(a, b string, policy ParsePolicy) (bool, error) {
	slotA, errA := Parse(a)
	slotB, errB := Parse(b)
	if err := errors.Join(errA, errB); err != nil {
		return policy == FailClosed, err
	}
	return Conflicts(slotA, slotB), nil
}
