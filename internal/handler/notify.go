package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/avoytenko/steeple/internal/history"
	"github.com/avoytenko/steeple/internal/model"
	"github.com/avoytenko/steeple/internal/push"
	"github.com/avoytenko/steeple/internal/store"
	ws "github.com/avoytenko/steeple/internal/websocket"
)

// NotifyHandler serves manual push blasts and the delivery-history views.
type NotifyHandler struct {
	dispatcher *push.Dispatcher
	recorder   *history.Recorder
	historyDB  *store.HistoryStore
	hub        *ws.Hub
	logger     *slog.Logger
}

func NewNotifyHandler(dispatcher *push.Dispatcher, recorder *history.Recorder, historyDB *store.HistoryStore, hub *ws.Hub, logger *slog.Logger) *NotifyHandler {
	return &NotifyHandler{dispatcher: dispatcher, recorder: recorder, historyDB: historyDB, hub: hub, logger: logger}
}

type sendRequest struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Urgent bool   `json:"urgent"`
	SentBy string `json:"sent_by"`
}

// Send handles POST /api/notifications/send: a manual admin blast. The
// outcome is recorded to delivery history whatever happens, including total
// failures where nothing was attempted.
func (h *NotifyHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Title == "" || req.Body == "" {
		writeError(w, http.StatusBadRequest, "title and body are required")
		return
	}

	category := model.CategoryInfo
	if req.Urgent {
		category = model.CategoryUrgent
	}
	entry := history.Entry{
		Title:    req.Title,
		Body:     req.Body,
		Category: category,
		SentBy:   req.SentBy,
	}

	result, err := h.dispatcher.Dispatch(r.Context(), req.Title, req.Body, req.Urgent)
	if err != nil {
		entry.Errors = []string{err.Error()}
		if _, recErr := h.recorder.Record(entry); recErr != nil {
			h.logger.Error("record failed blast", "error", recErr)
		}

		if errors.Is(err, push.ErrNoDevices) {
			writeJSON(w, http.StatusOK, map[string]any{
				"success": false, "sent_count": 0, "error": "no registered devices",
			})
			return
		}
		h.logger.Error("dispatch blast", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"success": false, "sent_count": 0, "error": "push relay failure",
		})
		return
	}

	entry.RecipientCount = result.Recipients
	entry.SuccessCount = result.SentCount
	entry.FailureCount = result.Recipients - result.SentCount
	entry.Errors = result.Errors
	rec, err := h.recorder.Record(entry)
	if err != nil {
		h.logger.Error("record blast", "error", err)
	}

	extra := map[string]any{"sent": result.SentCount, "recipients": result.Recipients}
	h.hub.Broadcast(ws.NewMessage("notification", "dispatched", req.Title, extra))

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    result.Success,
		"sent_count": result.SentCount,
		"recipients": result.Recipients,
		"record":     rec,
	})
}

// History handles GET /api/notifications/history?days=N
func (h *NotifyHandler) History(w http.ResponseWriter, r *http.Request) {
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = n
	}

	now := time.Now()
	records, err := h.historyDB.ListActive(now.Add(-time.Duration(days)*24*time.Hour), now)
	if err != nil {
		h.logger.Error("list history", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}
	if records == nil {
		records = []model.NotificationRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// Stats handles GET /api/notifications/stats?days=N
func (h *NotifyHandler) Stats(w http.ResponseWriter, r *http.Request) {
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = n
	}

	stats, err := h.recorder.Compute(days)
	if err != nil {
		h.logger.Error("compute stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
