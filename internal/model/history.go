package model

import "time"

// Category classifies a delivery-history record.
type Category string

const (
	CategoryReminder  Category = "REMINDER"
	CategoryUrgent    Category = "URGENT"
	CategoryInfo      Category = "INFO"
	CategoryEvent     Category = "EVENT"
	CategoryAutomated Category = "AUTOMATED"
)

// DeliveryStatus is the aggregate outcome of one push fan-out dispatch.
type DeliveryStatus string

const (
	DeliverySent    DeliveryStatus = "SENT"
	DeliveryFailed  DeliveryStatus = "FAILED"
	DeliveryPartial DeliveryStatus = "PARTIAL"
)

// DeriveDeliveryStatus computes the record status from the dispatch counts:
// SENT when nothing failed, FAILED when nothing succeeded, PARTIAL otherwise.
// A dispatch that never reached any device (all counts zero) is FAILED, so a
// relay outage stays distinguishable from a clean send in the history view.
func DeriveDeliveryStatus(recipients, successes, failures int) DeliveryStatus {
	switch {
	case recipients == 0 && successes == 0 && failures == 0:
		return DeliveryFailed
	case failures == 0:
		return DeliverySent
	case successes == 0:
		return DeliveryFailed
	}
	return DeliveryPartial
}

// NotificationRecord is one row of delivery history, written once per push
// fan-out dispatch. Records expire 30 days after they are written.
type NotificationRecord struct {
	ID             int64          `json:"id"`
	Title          string         `json:"title"`
	Body           string         `json:"body"`
	Category       Category       `json:"category"`
	Status         DeliveryStatus `json:"status"`
	SentAt         time.Time      `json:"sent_at"`
	ExpiresAt      time.Time      `json:"expires_at"`
	RecipientCount int            `json:"recipient_count"`
	SuccessCount   int            `json:"success_count"`
	FailureCount   int            `json:"failure_count"`
	SentBy         string         `json:"sent_by,omitempty"`
	EventKey       string         `json:"event_key,omitempty"`
	Automated      bool           `json:"automated"`
	Errors         []string       `json:"errors,omitempty"`
}
