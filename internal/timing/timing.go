// Package timing computes when a reminder for a calendar event should fire
// and what its message says. Everything here is pure; callers decide what to
// do with the instants.
package timing

import (
	"fmt"
	"strings"
	"time"
)

// Timing is a named offset before an event's start at which a reminder fires.
type Timing string

const (
	Week        Timing = "1_WEEK"
	ThreeDays   Timing = "3_DAYS"
	Day         Timing = "1_DAY"
	TwelveHours Timing = "12_HOURS"
)

// All returns the supported timings, earliest offset first.
func All() []Timing {
	return []Timing{Week, ThreeDays, Day, TwelveHours}
}

// Valid reports whether t is a known timing.
func (t Timing) Valid() bool {
	switch t {
	case Week, ThreeDays, Day, TwelveHours:
		return true
	}
	return false
}

// FireInstant returns the absolute instant a reminder with this timing fires
// for an event starting at start. The day-granularity timings pin the
// time-of-day: a week and three days out fire at 10:00 local, the day-before
// reminder fires at 18:00 local regardless of the event's own start time.
// TwelveHours subtracts exactly twelve hours from the event start.
func (t Timing) FireInstant(start time.Time) time.Time {
	switch t {
	case Week:
		return pinHour(start.AddDate(0, 0, -7), 10)
	case ThreeDays:
		return pinHour(start.AddDate(0, 0, -3), 10)
	case Day:
		return pinHour(start.AddDate(0, 0, -1), 18)
	case TwelveHours:
		return start.Add(-12 * time.Hour)
	}
	return time.Time{}
}

func pinHour(t time.Time, hour int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, t.Location())
}

// Message builds the reminder title and body for an event. A custom message
// authored by the admin is used verbatim as the body with the event name as
// title; otherwise a canned body is built from the timing and the
// service-type label.
func Message(eventName, serviceLabel string, t Timing, custom string) (title, body string) {
	title = eventName
	if custom != "" {
		return title, custom
	}
	switch t {
	case Week:
		body = fmt.Sprintf("%s %q is one week away", serviceLabel, eventName)
	case ThreeDays:
		body = fmt.Sprintf("%s %q is in three days", serviceLabel, eventName)
	case Day:
		body = fmt.Sprintf("%s %q is tomorrow", serviceLabel, eventName)
	case TwelveHours:
		body = fmt.Sprintf("%s %q starts in twelve hours", serviceLabel, eventName)
	default:
		body = fmt.Sprintf("%s %q is coming up", serviceLabel, eventName)
	}
	return title, body
}

// Parse parses the comma-separated storage form ("1_WEEK,1_DAY") into a
// timing slice. Unknown names are rejected.
func Parse(s string) ([]Timing, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	timings := make([]Timing, 0, len(parts))
	for _, p := range parts {
		t := Timing(strings.TrimSpace(p))
		if !t.Valid() {
			return nil, fmt.Errorf("unknown timing %q", p)
		}
		timings = append(timings, t)
	}
	return timings, nil
}

// Join renders timings in their comma-separated storage form.
func Join(timings []Timing) string {
	parts := make([]string, len(timings))
	for i, t := range timings {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}
