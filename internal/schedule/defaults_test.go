package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/avoytenko/steeple/internal/model"
	"github.com/avoytenko/steeple/internal/timing"
)

func (f *plannerFixture) addEvent(t *testing.T, name string, start time.Time, service model.ServiceType) model.CalendarEvent {
	t.Helper()
	ev, err := f.events.Create(model.CalendarEvent{
		EventKey:    model.EventKey(start, name),
		Name:        name,
		StartTime:   start,
		ServiceType: service,
	})
	if err != nil {
		t.Fatalf("add event: %v", err)
	}
	return *ev
}

func TestInitializeDefaultsCreatesBigEventConfigs(t *testing.T) {
	f := setupPlanner(t)

	f.addEvent(t, "Nativity of the Lord", f.now.AddDate(0, 6, 0), model.ServiceLiturgy)
	f.addEvent(t, "Summer Parish Picnic", f.now.AddDate(0, 1, 0), model.ServicePicnic)
	f.addEvent(t, "Ordinary Vespers", f.now.AddDate(0, 0, 7), model.ServiceEvening)

	created, err := f.planner.InitializeDefaults(context.Background())
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if created != 2 {
		t.Fatalf("created = %d, want 2 (ordinary vespers is not a big event)", created)
	}

	configs, err := f.configs.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, cfg := range configs {
		if !cfg.Enabled {
			t.Errorf("config %q should be enabled", cfg.EventKey)
		}
		switch cfg.ServiceType {
		case model.ServicePicnic:
			want := []timing.Timing{timing.Week, timing.ThreeDays, timing.Day}
			if len(cfg.Timings) != len(want) {
				t.Errorf("picnic timings = %v", cfg.Timings)
			}
		case model.ServiceLiturgy:
			if len(cfg.Timings) != 2 || cfg.Timings[1] != timing.TwelveHours {
				t.Errorf("liturgy timings = %v", cfg.Timings)
			}
		}
	}
}

func TestInitializeDefaultsIsIdempotent(t *testing.T) {
	f := setupPlanner(t)
	f.addEvent(t, "Pascha Liturgy", f.now.AddDate(0, 2, 0), model.ServiceLiturgy)

	created, err := f.planner.InitializeDefaults(context.Background())
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if created != 1 {
		t.Fatalf("created = %d, want 1", created)
	}

	created, err = f.planner.InitializeDefaults(context.Background())
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if created != 0 {
		t.Errorf("second run created = %d, want 0", created)
	}
}

func TestInitializeDefaultsSkipsPastEvents(t *testing.T) {
	f := setupPlanner(t)
	f.addEvent(t, "Pascha Liturgy", f.now.AddDate(0, -2, 0), model.ServiceLiturgy)

	created, err := f.planner.InitializeDefaults(context.Background())
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if created != 0 {
		t.Errorf("created = %d for past event, want 0", created)
	}
}

func TestIsBigEventMatching(t *testing.T) {
	tests := []struct {
		name    string
		service model.ServiceType
		want    bool
	}{
		{"Pascha Midnight Liturgy", model.ServiceLiturgy, true},
		{"dormition vigil", model.ServiceEvening, true},
		{"Any Old Picnic", model.ServicePicnic, true},
		{"Sunday Liturgy", model.ServiceLiturgy, false},
	}
	for _, tc := range tests {
		ev := model.CalendarEvent{Name: tc.name, ServiceType: tc.service}
		if got := isBigEvent(ev); got != tc.want {
			t.Errorf("isBigEvent(%q, %s) = %v, want %v", tc.name, tc.service, got, tc.want)
		}
	}
}
