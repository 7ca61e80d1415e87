package model

import (
	"fmt"
	"time"

	"github.com/avoytenko/steeple/internal/timing"
)

// NotificationConfig is an admin-authored reminder configuration for one
// calendar event. At most one config exists per event key.
type NotificationConfig struct {
	ID            int64           `json:"id"`
	EventKey      string          `json:"event_key"`
	EventName     string          `json:"event_name"`
	EventDate     time.Time       `json:"event_date"`
	ServiceType   ServiceType     `json:"service_type"`
	Timings       []timing.Timing `json:"timings"`
	Enabled       bool            `json:"enabled"`
	CustomMessage string          `json:"custom_message,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ScheduleStatus tracks the lifecycle of one scheduled trigger.
type ScheduleStatus string

const (
	SchedulePending ScheduleStatus = "PENDING"
	ScheduleSent    ScheduleStatus = "SENT"
	ScheduleFailed  ScheduleStatus = "FAILED"
)

// ScheduleLogEntry records that a (config, timing) pair has been handed to
// the trigger scheduler. Its key is the planner's idempotency gate: the row
// is inserted before the trigger is submitted, and a pair with an existing
// row is never submitted again.
type ScheduleLogEntry struct {
	ID           int64          `json:"id"`
	Key          string         `json:"key"`
	ConfigID     int64          `json:"config_id"`
	EventKey     string         `json:"event_key"`
	Timing       timing.Timing  `json:"timing"`
	ScheduledFor time.Time      `json:"scheduled_for"`
	SentAt       *time.Time     `json:"sent_at,omitempty"`
	Status       ScheduleStatus `json:"status"`
	Error        string         `json:"error,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// ScheduleKey builds the idempotency key for a (config, timing) pair.
func ScheduleKey(configID int64, t timing.Timing) string {
	return fmt.Sprintf("%d_%s", configID, t)
}
