package store

import (
	"testing"
	"time"

	"github.com/avoytenko/steeple/internal/database"
	"github.com/avoytenko/steeple/internal/model"
)

func setupEventTestDB(t *testing.T) (*EventStore, *TemplateStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewEventStore(db), NewTemplateStore(db)
}

func TestEventCreateAndGetByKey(t *testing.T) {
	es, _ := setupEventTestDB(t)
	start := time.Date(2026, time.December, 25, 9, 0, 0, 0, time.UTC)

	ev, err := es.Create(model.CalendarEvent{
		EventKey:    model.EventKey(start, "Nativity Liturgy"),
		Name:        "Nativity Liturgy",
		StartTime:   start,
		ServiceType: model.ServiceLiturgy,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ev.EventKey != "2026-12-25_Nativity Liturgy" {
		t.Errorf("event key = %q", ev.EventKey)
	}

	got, err := es.GetByKey(ev.EventKey)
	if err != nil {
		t.Fatalf("get by key: %v", err)
	}
	if got == nil || got.ID != ev.ID {
		t.Errorf("get by key = %+v", got)
	}
}

func TestEventCreateIfAbsent(t *testing.T) {
	es, _ := setupEventTestDB(t)
	start := time.Date(2026, time.December, 25, 9, 0, 0, 0, time.UTC)
	ev := model.CalendarEvent{
		EventKey:    model.EventKey(start, "Nativity Liturgy"),
		Name:        "Nativity Liturgy",
		StartTime:   start,
		ServiceType: model.ServiceLiturgy,
	}

	created, err := es.CreateIfAbsent(ev)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if !created {
		t.Fatal("first insert should create")
	}

	created, err = es.CreateIfAbsent(ev)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if created {
		t.Error("second insert of same key should be a no-op")
	}
}

func TestEventListBetween(t *testing.T) {
	es, _ := setupEventTestDB(t)
	year := func(m time.Month, d int) time.Time {
		return time.Date(2026, m, d, 9, 0, 0, 0, time.UTC)
	}
	for _, name := range []string{"A", "B", "C"} {
		var start time.Time
		switch name {
		case "A":
			start = year(time.January, 7)
		case "B":
			start = year(time.June, 15)
		case "C":
			start = year(time.December, 25)
		}
		if _, err := es.Create(model.CalendarEvent{
			EventKey: model.EventKey(start, name), Name: name, StartTime: start, ServiceType: model.ServiceLiturgy,
		}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	got, err := es.ListBetween(year(time.March, 1), year(time.December, 25))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	// End is exclusive: only B falls in the window.
	if len(got) != 1 || got[0].Name != "B" {
		t.Errorf("listed %v", got)
	}
}

func TestTemplateMaterializeYear(t *testing.T) {
	es, ts := setupEventTestDB(t)

	tpl, err := ts.Create(model.EventTemplate{
		Name:        "Theophany Liturgy",
		Month:       time.January,
		Day:         6,
		Hour:        9,
		Minute:      30,
		ServiceType: model.ServiceLiturgy,
	})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}

	ev := tpl.Materialize(2027, time.UTC)
	if ev.EventKey != "2027-01-06_Theophany Liturgy" {
		t.Errorf("event key = %q", ev.EventKey)
	}
	if ev.StartTime.Hour() != 9 || ev.StartTime.Minute() != 30 {
		t.Errorf("start time = %v", ev.StartTime)
	}
	if ev.TemplateID == nil || *ev.TemplateID != tpl.ID {
		t.Errorf("template id = %v", ev.TemplateID)
	}

	created, err := es.CreateIfAbsent(ev)
	if err != nil {
		t.Fatalf("materialize insert: %v", err)
	}
	if !created {
		t.Error("materialized event should insert")
	}
}
