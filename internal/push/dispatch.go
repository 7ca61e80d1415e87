package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/avoytenko/steeple/internal/store"
)

// ErrNoDevices is returned when no device token is registered, so the admin
// console can tell "nobody to notify" apart from a relay outage.
var ErrNoDevices = errors.New("no registered devices")

// Dispatcher fans one message out to every registered device. Recording the
// outcome to delivery history is the caller's responsibility, so manual
// blasts and automated reminders can decide their own logging metadata.
type Dispatcher struct {
	client  *Client
	devices *store.DeviceStore
	logger  *slog.Logger
}

func NewDispatcher(client *Client, devices *store.DeviceStore, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{client: client, devices: devices, logger: logger}
}

// Result is the aggregate outcome of one dispatch.
type Result struct {
	Success    bool     `json:"success"`
	Recipients int      `json:"recipients"`
	SentCount  int      `json:"sent_count"`
	Errors     []string `json:"errors,omitempty"`
}

// Dispatch sends title/body to every unique registered token as a single
// relay batch. Registration races can leave the same token on several rows;
// the batch is built from the deduplicated set so no device gets the message
// twice.
func (d *Dispatcher) Dispatch(ctx context.Context, title, body string, urgent bool) (Result, error) {
	devices, err := d.devices.List()
	if err != nil {
		return Result{}, fmt.Errorf("list devices: %w", err)
	}

	seen := make(map[string]struct{}, len(devices))
	var tokens []string
	for _, dev := range devices {
		if _, dup := seen[dev.Token]; dup {
			continue
		}
		seen[dev.Token] = struct{}{}
		tokens = append(tokens, dev.Token)
	}

	if len(tokens) == 0 {
		return Result{}, ErrNoDevices
	}

	priority, channel := "default", "default"
	if urgent {
		priority, channel = "high", "urgent"
	}

	msgs := make([]Message, len(tokens))
	for i, token := range tokens {
		msgs[i] = Message{
			To:       token,
			Title:    title,
			Body:     body,
			Priority: priority,
			Channel:  channel,
		}
	}

	receipts, err := d.client.SendBatch(ctx, msgs)
	if err != nil {
		return Result{}, err
	}

	result := Result{Recipients: len(tokens)}
	for i, r := range receipts {
		if r.OK() {
			result.SentCount++
			continue
		}
		msg := r.Message
		if msg == "" {
			msg = "rejected"
		}
		result.Errors = append(result.Errors, fmt.Sprintf("token %d: %s", i, msg))
	}
	result.Success = result.SentCount > 0

	d.logger.Info("push dispatch",
		"recipients", result.Recipients,
		"sent", result.SentCount,
		"failed", result.Recipients-result.SentCount,
		"urgent", urgent,
	)
	return result, nil
}
