package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/avoytenko/steeple/internal/database"
	"github.com/avoytenko/steeple/internal/history"
	"github.com/avoytenko/steeple/internal/model"
	"github.com/avoytenko/steeple/internal/push"
	"github.com/avoytenko/steeple/internal/store"
	ws "github.com/avoytenko/steeple/internal/websocket"
)

func setupNotifyHandler(t *testing.T, relayURL string) (*NotifyHandler, *store.DeviceStore, *store.HistoryStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.Default()
	devices := store.NewDeviceStore(db)
	historyStore := store.NewHistoryStore(db)
	dispatcher := push.NewDispatcher(push.NewClient(relayURL), devices, logger)
	recorder := history.NewRecorder(historyStore, logger)
	h := NewNotifyHandler(dispatcher, recorder, historyStore, ws.NewHub(logger), logger)
	return h, devices, historyStore
}

func okRelay(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msgs []push.Message
		if err := json.NewDecoder(r.Body).Decode(&msgs); err != nil {
			t.Errorf("decode batch: %v", err)
		}
		receipts := make([]push.Receipt, len(msgs))
		for i := range receipts {
			receipts[i] = push.Receipt{Status: "ok"}
		}
		json.NewEncoder(w).Encode(map[string]any{"data": receipts})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSendBlast(t *testing.T) {
	srv := okRelay(t)
	h, devices, historyStore := setupNotifyHandler(t, srv.URL)

	if _, err := devices.Register("tok-1", "ios"); err != nil {
		t.Fatalf("register: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/notifications/send",
		strings.NewReader(`{"title":"Schedule change","body":"Vespers moved to 5pm","urgent":true,"sent_by":"fr.john"}`))
	rec := httptest.NewRecorder()
	h.Send(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["success"] != true {
		t.Errorf("success = %v", resp["success"])
	}

	records, err := historyStore.ListActive(time.Now().Add(-time.Hour), time.Now())
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("history = %d records, want 1", len(records))
	}
	if records[0].Category != model.CategoryUrgent {
		t.Errorf("category = %s, want URGENT", records[0].Category)
	}
	if records[0].SentBy != "fr.john" {
		t.Errorf("sent_by = %q", records[0].SentBy)
	}
}

func TestSendBlastNoDevices(t *testing.T) {
	srv := okRelay(t)
	h, _, historyStore := setupNotifyHandler(t, srv.URL)

	req := httptest.NewRequest("POST", "/api/notifications/send",
		strings.NewReader(`{"title":"t","body":"b"}`))
	rec := httptest.NewRecorder()
	h.Send(rec, req)

	// No devices is not an HTTP error; the admin console shows the outcome.
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["success"] != false {
		t.Errorf("success = %v, want false", resp["success"])
	}

	// The failed attempt still lands in history.
	records, err := historyStore.ListActive(time.Now().Add(-time.Hour), time.Now())
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(records) != 1 || records[0].Status != model.DeliveryFailed {
		t.Fatalf("history = %v", records)
	}
}

func TestSendBlastRelayOutage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	h, devices, _ := setupNotifyHandler(t, srv.URL)

	if _, err := devices.Register("tok-1", "ios"); err != nil {
		t.Fatalf("register: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/notifications/send",
		strings.NewReader(`{"title":"t","body":"b"}`))
	rec := httptest.NewRecorder()
	h.Send(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestSendBlastValidation(t *testing.T) {
	srv := okRelay(t)
	h, _, _ := setupNotifyHandler(t, srv.URL)

	req := httptest.NewRequest("POST", "/api/notifications/send",
		strings.NewReader(`{"title":"","body":""}`))
	rec := httptest.NewRecorder()
	h.Send(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHistoryBadDaysParam(t *testing.T) {
	srv := okRelay(t)
	h, _, _ := setupNotifyHandler(t, srv.URL)

	req := httptest.NewRequest("GET", "/api/notifications/history?days=-1", nil)
	rec := httptest.NewRecorder()
	h.History(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
