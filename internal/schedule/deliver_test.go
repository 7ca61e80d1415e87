package schedule

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/avoytenko/steeple/internal/database"
	"github.com/avoytenko/steeple/internal/history"
	"github.com/avoytenko/steeple/internal/model"
	"github.com/avoytenko/steeple/internal/push"
	"github.com/avoytenko/steeple/internal/store"
	"github.com/avoytenko/steeple/internal/timing"
)

func setupDeliverer(t *testing.T, relayURL string) (*Deliverer, *store.ScheduleLogStore, *store.HistoryStore, *store.DeviceStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.Default()
	logs := store.NewScheduleLogStore(db)
	historyStore := store.NewHistoryStore(db)
	devices := store.NewDeviceStore(db)
	dispatcher := push.NewDispatcher(push.NewClient(relayURL), devices, logger)
	recorder := history.NewRecorder(historyStore, logger)
	return NewDeliverer(dispatcher, recorder, logs, logger), logs, historyStore, devices
}

func pendingEntry(t *testing.T, logs *store.ScheduleLogStore) string {
	t.Helper()
	key := model.ScheduleKey(1, timing.Day)
	if _, err := logs.TryInsert(model.ScheduleLogEntry{
		Key:          key,
		ConfigID:     1,
		EventKey:     "2026-09-06_Sunday Liturgy",
		Timing:       timing.Day,
		ScheduledFor: time.Now(),
	}); err != nil {
		t.Fatalf("insert log entry: %v", err)
	}
	return key
}

func TestHandleFireMarksSentAndRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []push.Receipt{{Status: "ok"}}})
	}))
	t.Cleanup(srv.Close)

	d, logs, historyStore, devices := setupDeliverer(t, srv.URL)
	if _, err := devices.Register("tok-1", "ios"); err != nil {
		t.Fatalf("register: %v", err)
	}
	key := pendingEntry(t, logs)

	d.HandleFire(key, Notification{
		Title: "Sunday Liturgy",
		Body:  "tomorrow",
		Data:  map[string]string{"event_key": "2026-09-06_Sunday Liturgy"},
	})

	entry, err := logs.GetByKey(key)
	if err != nil {
		t.Fatalf("get log: %v", err)
	}
	if entry.Status != model.ScheduleSent {
		t.Errorf("log status = %s, want SENT", entry.Status)
	}

	records, err := historyStore.ListActive(time.Now().Add(-time.Hour), time.Now())
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("history records = %d, want 1", len(records))
	}
	rec := records[0]
	if rec.Category != model.CategoryAutomated || !rec.Automated {
		t.Errorf("record = %+v", rec)
	}
	if rec.EventKey != "2026-09-06_Sunday Liturgy" {
		t.Errorf("event key = %q", rec.EventKey)
	}
	if rec.Status != model.DeliverySent {
		t.Errorf("status = %s, want SENT", rec.Status)
	}
}

func TestHandleFireNoDevicesMarksFailed(t *testing.T) {
	d, logs, historyStore, _ := setupDeliverer(t, "http://relay.invalid")
	key := pendingEntry(t, logs)

	d.HandleFire(key, Notification{Title: "t", Body: "b"})

	entry, err := logs.GetByKey(key)
	if err != nil {
		t.Fatalf("get log: %v", err)
	}
	if entry.Status != model.ScheduleFailed {
		t.Errorf("log status = %s, want FAILED", entry.Status)
	}

	// The outcome is still written to history as a failed dispatch.
	records, err := historyStore.ListActive(time.Now().Add(-time.Hour), time.Now())
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(records) != 1 || records[0].Status != model.DeliveryFailed {
		t.Fatalf("history = %v", records)
	}
}

func TestHandleFireRelayErrorMarksFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	d, logs, _, devices := setupDeliverer(t, srv.URL)
	if _, err := devices.Register("tok-1", "ios"); err != nil {
		t.Fatalf("register: %v", err)
	}
	key := pendingEntry(t, logs)

	d.HandleFire(key, Notification{Title: "t", Body: "b"})

	entry, err := logs.GetByKey(key)
	if err != nil {
		t.Fatalf("get log: %v", err)
	}
	if entry.Status != model.ScheduleFailed {
		t.Errorf("log status = %s, want FAILED", entry.Status)
	}
	if entry.Error == "" {
		t.Error("expected relay error recorded on the entry")
	}
}
