package store

import (
	"testing"
	"time"

	"github.com/avoytenko/steeple/internal/database"
	"github.com/avoytenko/steeple/internal/model"
	"github.com/avoytenko/steeple/internal/timing"
)

func setupConfigTestDB(t *testing.T) *ConfigStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewConfigStore(db)
}

func testConfig(name string, date time.Time) model.NotificationConfig {
	return model.NotificationConfig{
		EventKey:    model.EventKey(date, name),
		EventName:   name,
		EventDate:   date,
		ServiceType: model.ServiceLiturgy,
		Timings:     []timing.Timing{timing.Day, timing.TwelveHours},
		Enabled:     true,
	}
}

func TestConfigUpsertCreate(t *testing.T) {
	cs := setupConfigTestDB(t)
	date := time.Date(2026, time.September, 6, 9, 0, 0, 0, time.UTC)

	cfg, err := cs.Upsert(testConfig("Sunday Liturgy", date))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if cfg.ID == 0 {
		t.Error("expected assigned id")
	}
	if len(cfg.Timings) != 2 || cfg.Timings[0] != timing.Day {
		t.Errorf("timings = %v", cfg.Timings)
	}
	if !cfg.Enabled {
		t.Error("expected enabled")
	}
	if cfg.CreatedAt.IsZero() || cfg.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestConfigUpsertUpdatePreservesCreatedAt(t *testing.T) {
	cs := setupConfigTestDB(t)
	date := time.Date(2026, time.September, 6, 9, 0, 0, 0, time.UTC)

	created, err := cs.Upsert(testConfig("Sunday Liturgy", date))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	created.Timings = []timing.Timing{timing.Week}
	created.CustomMessage = "Special service this week"
	updated, err := cs.Upsert(*created)
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.ID != created.ID {
		t.Errorf("id changed: %d -> %d", created.ID, updated.ID)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("created_at changed: %v -> %v", created.CreatedAt, updated.CreatedAt)
	}
	if len(updated.Timings) != 1 || updated.Timings[0] != timing.Week {
		t.Errorf("timings = %v", updated.Timings)
	}
	if updated.CustomMessage != "Special service this week" {
		t.Errorf("custom message = %q", updated.CustomMessage)
	}
}

func TestConfigUniquePerEventKey(t *testing.T) {
	cs := setupConfigTestDB(t)
	date := time.Date(2026, time.September, 6, 9, 0, 0, 0, time.UTC)

	if _, err := cs.Upsert(testConfig("Sunday Liturgy", date)); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if _, err := cs.Upsert(testConfig("Sunday Liturgy", date)); err == nil {
		t.Error("expected unique constraint violation for duplicate event key")
	}
}

func TestConfigGetByEventKeyMissing(t *testing.T) {
	cs := setupConfigTestDB(t)

	cfg, err := cs.GetByEventKey("2026-01-01_Nothing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cfg != nil {
		t.Errorf("expected nil for missing config, got %+v", cfg)
	}
}

func TestConfigSetEnabled(t *testing.T) {
	cs := setupConfigTestDB(t)
	date := time.Date(2026, time.September, 6, 9, 0, 0, 0, time.UTC)

	cfg, err := cs.Upsert(testConfig("Sunday Liturgy", date))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := cs.SetEnabled(cfg.ID, false); err != nil {
		t.Fatalf("set enabled: %v", err)
	}

	got, err := cs.GetByID(cfg.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Enabled {
		t.Error("expected disabled")
	}
}

func TestConfigDelete(t *testing.T) {
	cs := setupConfigTestDB(t)
	date := time.Date(2026, time.September, 6, 9, 0, 0, 0, time.UTC)

	cfg, err := cs.Upsert(testConfig("Sunday Liturgy", date))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := cs.Delete(cfg.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := cs.GetByID(cfg.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expected config gone after delete")
	}
}
