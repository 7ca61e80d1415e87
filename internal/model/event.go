package model

import (
	"fmt"
	"time"
)

// ServiceType classifies a parish calendar event.
type ServiceType string

const (
	ServiceLiturgy ServiceType = "LITURGY"
	ServiceEvening ServiceType = "EVENING_SERVICE"
	ServiceOpen    ServiceType = "CHURCH_OPEN"
	ServicePicnic  ServiceType = "PICNIC"
)

// Valid reports whether s is a known service type.
func (s ServiceType) Valid() bool {
	switch s {
	case ServiceLiturgy, ServiceEvening, ServiceOpen, ServicePicnic:
		return true
	}
	return false
}

// Label returns the display label used in notification copy.
func (s ServiceType) Label() string {
	switch s {
	case ServiceLiturgy:
		return "Divine Liturgy"
	case ServiceEvening:
		return "Evening Service"
	case ServiceOpen:
		return "Church Open"
	case ServicePicnic:
		return "Parish Picnic"
	}
	return "Service"
}

// CalendarEvent is one occurrence of a recurring parish service, materialized
// for a specific year. Events are immutable once materialized; the yearly
// rollover produces a fresh set from the templates.
type CalendarEvent struct {
	ID          int64       `json:"id"`
	EventKey    string      `json:"event_key"`
	Name        string      `json:"name"`
	StartTime   time.Time   `json:"start_time"`
	ServiceType ServiceType `json:"service_type"`
	Description string      `json:"description"`
	TemplateID  *int64      `json:"template_id"`
	CreatedAt   time.Time   `json:"created_at"`
}

// EventKey derives the logical event identity from its date and name. Two
// events in different years occupy the same recurring slot when this key is
// reapplied with a shifted year.
func EventKey(start time.Time, name string) string {
	return fmt.Sprintf("%s_%s", start.Format("2006-01-02"), name)
}

// EventTemplate is a yearly-recurring event with a stable identity. Yearly
// calendar events are derived from templates rather than cloned from last
// year's instances, so the recurring slot survives renames of a single year.
type EventTemplate struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Month       time.Month  `json:"month"`
	Day         int         `json:"day"`
	Hour        int         `json:"hour"`
	Minute      int         `json:"minute"`
	ServiceType ServiceType `json:"service_type"`
	Description string      `json:"description"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Materialize returns the calendar event this template produces for the given
// year in the given location.
func (t EventTemplate) Materialize(year int, loc *time.Location) CalendarEvent {
	start := time.Date(year, t.Month, t.Day, t.Hour, t.Minute, 0, 0, loc)
	return CalendarEvent{
		EventKey:    EventKey(start, t.Name),
		Name:        t.Name,
		StartTime:   start,
		ServiceType: t.ServiceType,
		Description: t.Description,
		TemplateID:  &t.ID,
	}
}
