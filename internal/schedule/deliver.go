package schedule

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/avoytenko/steeple/internal/history"
	"github.com/avoytenko/steeple/internal/model"
	"github.com/avoytenko/steeple/internal/push"
	"github.com/avoytenko/steeple/internal/store"
)

const deliverTimeout = time.Minute

// Deliverer handles fired triggers: it fans the reminder out through the
// push dispatcher, records the outcome to delivery history, and settles the
// schedule-log row. It is the FireFunc wired into the timer scheduler.
type Deliverer struct {
	dispatcher *push.Dispatcher
	recorder   *history.Recorder
	logs       *store.ScheduleLogStore
	logger     *slog.Logger
}

func NewDeliverer(dispatcher *push.Dispatcher, recorder *history.Recorder, logs *store.ScheduleLogStore, logger *slog.Logger) *Deliverer {
	return &Deliverer{dispatcher: dispatcher, recorder: recorder, logs: logs, logger: logger}
}

// HandleFire runs at a trigger's fire time. Failures are terminal for this
// trigger: there is no retry beyond what the next planning cycle re-submits.
func (d *Deliverer) HandleFire(identifier string, n Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()

	eventKey := n.Data["event_key"]
	result, err := d.dispatcher.Dispatch(ctx, n.Title, n.Body, false)

	entry := history.Entry{
		Title:     n.Title,
		Body:      n.Body,
		Category:  model.CategoryAutomated,
		EventKey:  eventKey,
		Automated: true,
	}

	if err != nil {
		// Distinguish "nobody to notify" from a relay outage in the record.
		entry.Errors = []string{err.Error()}
		if errors.Is(err, push.ErrNoDevices) {
			d.logger.Warn("reminder fired with no registered devices", "identifier", identifier)
		} else {
			d.logger.Error("reminder dispatch", "identifier", identifier, "error", err)
		}
		if _, recErr := d.recorder.Record(entry); recErr != nil {
			d.logger.Error("record reminder outcome", "identifier", identifier, "error", recErr)
		}
		if logErr := d.logs.MarkFailed(identifier, err.Error()); logErr != nil {
			d.logger.Error("mark schedule entry failed", "identifier", identifier, "error", logErr)
		}
		return
	}

	entry.RecipientCount = result.Recipients
	entry.SuccessCount = result.SentCount
	entry.FailureCount = result.Recipients - result.SentCount
	entry.Errors = result.Errors

	if _, err := d.recorder.Record(entry); err != nil {
		d.logger.Error("record reminder outcome", "identifier", identifier, "error", err)
	}
	if err := d.logs.MarkSent(identifier); err != nil {
		d.logger.Error("mark schedule entry sent", "identifier", identifier, "error", err)
	}
}
