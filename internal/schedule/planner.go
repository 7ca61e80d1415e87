package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avoytenko/steeple/internal/model"
	"github.com/avoytenko/steeple/internal/store"
	"github.com/avoytenko/steeple/internal/timing"
)

// planHorizon bounds how far ahead triggers are submitted. Configs beyond it
// are picked up by a later daily check.
const planHorizon = 366 * 24 * time.Hour

// Planner converges the trigger scheduler with the set of triggers implied
// by (enabled configs × timings) without double-scheduling or submitting
// past-dated triggers. The schedule-log insert is the atomic gate: a pair is
// only submitted after winning the insert, and the row is rolled back when
// the submit fails, so the pair is retried on the next cycle.
type Planner struct {
	configs   *store.ConfigStore
	events    *store.EventStore
	logs      *store.ScheduleLogStore
	settings  *store.SettingsStore
	scheduler TriggerScheduler
	logger    *slog.Logger
	now       func() time.Time
}

func NewPlanner(configs *store.ConfigStore, events *store.EventStore, logs *store.ScheduleLogStore, settings *store.SettingsStore, scheduler TriggerScheduler, logger *slog.Logger) *Planner {
	return &Planner{
		configs:   configs,
		events:    events,
		logs:      logs,
		settings:  settings,
		scheduler: scheduler,
		logger:    logger,
		now:       time.Now,
	}
}

// PlanStats summarizes one planning cycle.
type PlanStats struct {
	Scheduled int `json:"scheduled"`
	Skipped   int `json:"skipped"`
	Purged    int `json:"purged"`
	Failed    int `json:"failed"`
}

// Plan runs one best-effort convergence cycle. A failure reading configs or
// settings aborts the cycle; a failure submitting one pair is logged and the
// loop continues.
func (p *Planner) Plan(ctx context.Context) (PlanStats, error) {
	var stats PlanStats

	settings, err := p.settings.Notification()
	if err != nil {
		return stats, fmt.Errorf("load notification settings: %w", err)
	}
	if !settings.Enabled {
		p.logger.Debug("notifications globally disabled, skipping plan")
		return stats, nil
	}

	configs, err := p.configs.List()
	if err != nil {
		return stats, fmt.Errorf("list notification configs: %w", err)
	}

	byID := make(map[int64]model.NotificationConfig, len(configs))
	for _, cfg := range configs {
		byID[cfg.ID] = cfg
	}
	if err := p.purgeOrphans(byID, &stats); err != nil {
		p.logger.Error("purge orphaned schedule entries", "error", err)
	}

	now := p.now()
	horizon := now.Add(planHorizon)

	for _, cfg := range configs {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		if !cfg.Enabled || cfg.EventDate.Before(now) || cfg.EventDate.After(horizon) {
			continue
		}

		for _, t := range cfg.Timings {
			if !settings.Allows(t) {
				continue
			}

			fireAt := t.FireInstant(cfg.EventDate)
			if !fireAt.After(now) {
				// Past-dated pair: not an error, simply never scheduled.
				stats.Skipped++
				continue
			}

			key := model.ScheduleKey(cfg.ID, t)
			inserted, err := p.logs.TryInsert(model.ScheduleLogEntry{
				Key:          key,
				ConfigID:     cfg.ID,
				EventKey:     cfg.EventKey,
				Timing:       t,
				ScheduledFor: fireAt,
			})
			if err != nil {
				p.logger.Error("schedule log insert", "key", key, "error", err)
				stats.Failed++
				continue
			}
			if !inserted {
				// Already scheduled by an earlier cycle.
				stats.Skipped++
				continue
			}

			title, body := p.message(cfg, t)
			err = p.scheduler.ScheduleOneShot(fireAt, Notification{
				Title: title,
				Body:  body,
				Data: map[string]string{
					"event_key": cfg.EventKey,
					"timing":    string(t),
				},
			}, key)
			if err != nil {
				// Roll the gate back so the pair is retried next cycle.
				if delErr := p.logs.Delete(key); delErr != nil {
					p.logger.Error("roll back schedule log entry", "key", key, "error", delErr)
				}
				p.logger.Error("submit trigger", "key", key, "error", err)
				stats.Failed++
				continue
			}

			stats.Scheduled++
		}
	}

	p.logger.Info("plan cycle complete",
		"scheduled", stats.Scheduled,
		"skipped", stats.Skipped,
		"purged", stats.Purged,
		"failed", stats.Failed,
	)
	return stats, nil
}

// message resolves the concrete calendar event for the config and builds the
// reminder text. When the event row is gone the config's own snapshot of the
// event fields is used.
func (p *Planner) message(cfg model.NotificationConfig, t timing.Timing) (string, string) {
	name, label := cfg.EventName, cfg.ServiceType.Label()
	if ev, err := p.events.GetByKey(cfg.EventKey); err == nil && ev != nil {
		name, label = ev.Name, ev.ServiceType.Label()
	}
	return timing.Message(name, label, t, cfg.CustomMessage)
}

// purgeOrphans cancels triggers that no longer correspond to a live
// (config, timing) pair and removes their gate rows: the config was deleted
// or disabled, the timing was removed from the config, or an event-date edit
// moved the fire instant away from what the entry was armed with. Clearing
// the gate row lets the same cycle re-submit the corrected pair.
func (p *Planner) purgeOrphans(configs map[int64]model.NotificationConfig, stats *PlanStats) error {
	pending, err := p.logs.ListPending()
	if err != nil {
		return err
	}

	for _, entry := range pending {
		cfg, ok := configs[entry.ConfigID]
		if ok && cfg.Enabled && timingCurrent(cfg, entry) {
			continue
		}
		if err := p.scheduler.Cancel(entry.Key); err != nil {
			p.logger.Error("cancel orphaned trigger", "key", entry.Key, "error", err)
			continue
		}
		if err := p.logs.Delete(entry.Key); err != nil {
			p.logger.Error("delete orphaned schedule entry", "key", entry.Key, "error", err)
			continue
		}
		stats.Purged++
	}
	return nil
}

// timingCurrent reports whether a pending entry still matches its config:
// the timing is in the config's set and the armed instant equals the one the
// config's event date implies now.
func timingCurrent(cfg model.NotificationConfig, entry model.ScheduleLogEntry) bool {
	for _, t := range cfg.Timings {
		if t == entry.Timing {
			return entry.ScheduledFor.Equal(t.FireInstant(cfg.EventDate))
		}
	}
	return false
}

// RescheduleAll clears every outstanding trigger and the PENDING gate rows,
// then re-plans from scratch. Deleting the gate rows together with the
// cancel-all keeps the two consistent: a stale row would otherwise suppress
// the very reschedule that follows the cancellation. Invoked when the admin
// toggles the global enabled flag or changes the timing defaults.
func (p *Planner) RescheduleAll(ctx context.Context) (PlanStats, error) {
	if err := p.scheduler.CancelAll(); err != nil {
		return PlanStats{}, fmt.Errorf("cancel all triggers: %w", err)
	}
	if err := p.logs.DeletePending(); err != nil {
		return PlanStats{}, fmt.Errorf("clear schedule log: %w", err)
	}
	return p.Plan(ctx)
}
