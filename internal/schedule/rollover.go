package schedule

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/avoytenko/steeple/internal/history"
	"github.com/avoytenko/steeple/internal/store"
)

// logRetention is how long settled schedule-log rows are kept past their
// fire time before the daily sweep removes them.
const logRetention = 30 * 24 * time.Hour

// Rollover is the yearly-rollover driver: a daily check at local midnight
// plus a catch-up check at startup. In December it materializes next year's
// events from the templates; every check re-runs the planner and the
// retention sweeps. Checks are single-flight: a tick that lands while a
// check is still running is dropped.
type Rollover struct {
	planner   *Planner
	events    *store.EventStore
	templates *store.TemplateStore
	settings  *store.SettingsStore
	recorder  *history.Recorder
	logs      *store.ScheduleLogStore
	cron      *cron.Cron
	logger    *slog.Logger
	loc       *time.Location
	now       func() time.Time
	checking  atomic.Bool
}

func NewRollover(planner *Planner, events *store.EventStore, templates *store.TemplateStore, settings *store.SettingsStore, recorder *history.Recorder, logs *store.ScheduleLogStore, loc *time.Location, logger *slog.Logger) *Rollover {
	return &Rollover{
		planner:   planner,
		events:    events,
		templates: templates,
		settings:  settings,
		recorder:  recorder,
		logs:      logs,
		cron:      cron.New(cron.WithLocation(loc)),
		logger:    logger,
		loc:       loc,
		now:       time.Now,
	}
}

// Start schedules the daily midnight check and runs a catch-up check in the
// background when the persisted last-check stamp is missing or stale.
func (r *Rollover) Start() error {
	if _, err := r.cron.AddFunc("0 0 * * *", r.Check); err != nil {
		return err
	}
	r.cron.Start()

	go r.checkIfDue()

	r.logger.Info("rollover driver started")
	return nil
}

// Stop halts the daily timer and waits for a running check to finish.
func (r *Rollover) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("rollover driver stopped")
}

// checkIfDue runs a check at startup when no check has ever completed or the
// last one is more than a year old.
func (r *Rollover) checkIfDue() {
	last, err := r.settings.LastRolloverCheck()
	if err != nil {
		r.logger.Error("read last rollover check", "error", err)
		return
	}
	if !last.IsZero() && r.now().Sub(last) < 365*24*time.Hour {
		return
	}
	r.Check()
}

// Check is one Idle→Checking transition. It materializes the current year's
// events from the templates (and next year's when the check lands in
// December), converges the schedule, runs the retention sweeps, and persists
// the check timestamp.
func (r *Rollover) Check() {
	if !r.checking.CompareAndSwap(false, true) {
		r.logger.Warn("rollover check already in progress, skipping")
		return
	}
	defer r.checking.Store(false)

	now := r.now().In(r.loc)
	r.logger.Info("rollover check started", "month", now.Month().String())

	r.materializeYear(now.Year())
	if now.Month() == time.December {
		r.materializeYear(now.Year() + 1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := r.planner.Plan(ctx); err != nil {
		// Terminal for this tick; the next daily check retries.
		r.logger.Error("rollover plan cycle", "error", err)
		return
	}

	if _, err := r.recorder.CleanupExpired(); err != nil {
		r.logger.Error("history retention sweep", "error", err)
	}
	if n, err := r.logs.DeleteOlderThan(now.Add(-logRetention)); err != nil {
		r.logger.Error("schedule log sweep", "error", err)
	} else if n > 0 {
		r.logger.Info("schedule log sweep", "deleted", n)
	}

	if err := r.settings.SetLastRolloverCheck(now); err != nil {
		r.logger.Error("persist rollover check timestamp", "error", err)
	}
}

// materializeYear derives the year's calendar events from the templates.
// Events already materialized are left alone, so repeating a December check
// is harmless.
func (r *Rollover) materializeYear(year int) {
	templates, err := r.templates.List()
	if err != nil {
		r.logger.Error("list event templates", "error", err)
		return
	}

	created := 0
	for _, t := range templates {
		ev := t.Materialize(year, r.loc)
		inserted, err := r.events.CreateIfAbsent(ev)
		if err != nil {
			r.logger.Error("materialize event", "event_key", ev.EventKey, "error", err)
			continue
		}
		if inserted {
			created++
		}
	}

	if created > 0 {
		r.logger.Info("materialized events", "year", year, "created", created)
	}
}
