package model

import "github.com/avoytenko/steeple/internal/timing"

// NotificationSettings holds the global reminder switches: a master enabled
// flag plus the three timing defaults the admin can toggle. Changing any of
// them triggers a full cancel-and-reschedule pass.
type NotificationSettings struct {
	Enabled           bool `json:"enabled"`
	WeekBefore        bool `json:"week_before"`
	DayBefore         bool `json:"day_before"`
	TwelveHoursBefore bool `json:"twelve_hours_before"`
}

// DefaultNotificationSettings returns the out-of-the-box settings: reminders
// on, all timing defaults on.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		Enabled:           true,
		WeekBefore:        true,
		DayBefore:         true,
		TwelveHoursBefore: true,
	}
}

// Allows reports whether a timing is permitted by the global defaults. The
// day-before switch also governs the three-day reminder, which is the same
// kind of day-granularity advance notice.
func (s NotificationSettings) Allows(t timing.Timing) bool {
	switch t {
	case timing.Week:
		return s.WeekBefore
	case timing.ThreeDays, timing.Day:
		return s.DayBefore
	case timing.TwelveHours:
		return s.TwelveHoursBefore
	}
	return false
}
