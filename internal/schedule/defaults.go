package schedule

import (
	"context"
	"fmt"
	"strings"

	"github.com/avoytenko/steeple/internal/model"
	"github.com/avoytenko/steeple/internal/timing"
)

// Major feasts whose events get a reminder config out of the box. Matched as
// case-insensitive name substrings; every picnic qualifies regardless of
// name.
var bigEventNames = []string{
	"Pascha",
	"Nativity",
	"Theophany",
	"Annunciation",
	"Palm Sunday",
	"Ascension",
	"Pentecost",
	"Transfiguration",
	"Dormition",
}

func isBigEvent(ev model.CalendarEvent) bool {
	if ev.ServiceType == model.ServicePicnic {
		return true
	}
	for _, name := range bigEventNames {
		if strings.Contains(strings.ToLower(ev.Name), strings.ToLower(name)) {
			return true
		}
	}
	return false
}

// defaultTimings is the per-service-type timing set used when configs are
// created in bulk.
func defaultTimings(s model.ServiceType) []timing.Timing {
	switch s {
	case model.ServicePicnic:
		return []timing.Timing{timing.Week, timing.ThreeDays, timing.Day}
	case model.ServiceLiturgy:
		return []timing.Timing{timing.Day, timing.TwelveHours}
	}
	return []timing.Timing{timing.Day}
}

// InitializeDefaults creates an enabled config for every upcoming big event
// that does not have one yet and returns how many were created. Existing
// configs are left untouched, so the operation is safe to repeat.
func (p *Planner) InitializeDefaults(ctx context.Context) (int, error) {
	now := p.now()
	events, err := p.events.ListBetween(now, now.Add(planHorizon))
	if err != nil {
		return 0, fmt.Errorf("list upcoming events: %w", err)
	}

	created := 0
	for _, ev := range events {
		if ctx.Err() != nil {
			return created, ctx.Err()
		}
		if !isBigEvent(ev) {
			continue
		}

		existing, err := p.configs.GetByEventKey(ev.EventKey)
		if err != nil {
			return created, fmt.Errorf("look up config for %q: %w", ev.EventKey, err)
		}
		if existing != nil {
			continue
		}

		_, err = p.configs.Upsert(model.NotificationConfig{
			EventKey:    ev.EventKey,
			EventName:   ev.Name,
			EventDate:   ev.StartTime,
			ServiceType: ev.ServiceType,
			Timings:     defaultTimings(ev.ServiceType),
			Enabled:     true,
		})
		if err != nil {
			return created, fmt.Errorf("create default config for %q: %w", ev.EventKey, err)
		}
		created++
	}

	p.logger.Info("default configs initialized", "created", created)
	return created, nil
}
