package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrParse is returned for any schedule string that does not follow the
// "<days> <start>-<end> <AM|PM>" layout.
var ErrParse = errors.New("unparsable schedule")

const minutesPerDay = 24 * 60

// Parse converts a meeting string like "TR 11:00-11:50 AM" into a TimeSlot.
//
// Days are scanned left to right: "TR" means Tuesday and Thursday, "Th"
// means Thursday, a single M, T, W or F means that day, and anything else
// is skipped. The end time's
// meridiem applies to the start time unless the start carries its own.
func Parse(raw string) (TimeSlot, error) {
	parts := strings.Fields(raw)
	if len(parts) < 2 {
		return TimeSlot{}, fmt.Errorf("%w: %q needs days and a time range", ErrParse, raw)
	}

	days := parseDays(parts[0])
	timeRange := strings.Join(parts[1:], " ")

	pieces := strings.Split(timeRange, "-")
	if len(pieces) != 2 {
		return TimeSlot{}, fmt.Errorf("%w: %q must have one start-end range", ErrParse, raw)
	}
	startToken := strings.TrimSpace(pieces[0])
	endToken := strings.TrimSpace(pieces[1])

	endMeridiem, endClock := splitMeridiem(endToken)
	endIsPM := endMeridiem == "PM"

	startIsPM := endIsPM
	startMeridiem, startClock := splitMeridiem(startToken)
	if startMeridiem != "" {
		startIsPM = startMeridiem == "PM"
	}

	start, err := clockMinutes(startClock, startIsPM)
	if err != nil {
		return TimeSlot{}, fmt.Errorf("%w: start of %q: %v", ErrParse, raw, err)
	}
	end, err := clockMinutes(endClock, endIsPM)
	if err != nil {
		return TimeSlot{}, fmt.Errorf("%w: end of %q: %v", ErrParse, raw, err)
	}

	return TimeSlot{Days: days, Start: start, End: end}, nil
}

func parseDays(token string) DaySet {
	var days DaySet
	for i := 0; i < len(token); {
		if i+1 < len(token) {
			switch token[i : i+2] {
			case "TR":
				days = days.Add(time.Tuesday).Add(time.Thursday)
				i += 2
				continue
			case "Th":
				days = days.Add(time.Thursday)
				i += 2
				continue
			}
		}
		switch token[i] {
		case 'M':
			days = days.Add(time.Monday)
		case 'T':
			days = days.Add(time.Tuesday)
		case 'W':
			days = days.Add(time.Wednesday)
		case 'F':
			days = days.Add(time.Friday)
		}
		i++
	}
	return days
}

// splitMeridiem returns "AM", "PM" or "" and the token with any meridiem
// text removed. PM wins when both appear.
func splitMeridiem(token string) (string, string) {
	upper := strings.ToUpper(token)
	meridiem := ""
	switch {
	case strings.Contains(upper, "PM"):
		meridiem = "PM"
	case strings.Contains(upper, "AM"):
		meridiem = "AM"
	}
	if meridiem == "" {
		return "", strings.TrimSpace(token)
	}
	clock := strings.NewReplacer("AM", "", "PM", "", "am", "", "pm", "", "Am", "", "Pm", "", "aM", "", "pM", "").Replace(token)
	return meridiem, strings.TrimSpace(clock)
}

func clockMinutes(clock string, pm bool) (int, error) {
	hourText, minuteText, ok := strings.Cut(clock, ":")
	if !ok {
		return 0, fmt.Errorf("missing colon in %q", clock)
	}
	hour, err := strconv.Atoi(strings.TrimSpace(hourText))
	if err != nil {
		return 0, fmt.Errorf("hour: %w", err)
	}
	minute, err := strconv.Atoi(strings.TrimSpace(minuteText))
	if err != nil {
		return 0, fmt.Errorf("minute: %w", err)
	}
	if hour < 0 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock %q out of range", clock)
	}

	switch {
	case pm && hour != 12:
		hour += 12
	case !pm && hour == 12:
		hour = 0
	}

	total := hour*60 + minute
	if total >= minutesPerDay {
		return 0, fmt.Errorf("clock %q out of range", clock)
	}
	return total, nil
}
