package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/avoytenko/steeple/internal/model"
	"github.com/avoytenko/steeple/internal/schedule"
	"github.com/avoytenko/steeple/internal/store"
	ws "github.com/avoytenko/steeple/internal/websocket"
)

// SettingsHandler serves the global notification settings. Saving them runs
// a full cancel-and-reschedule so the trigger table reflects the new
// defaults immediately.
type SettingsHandler struct {
	settings *store.SettingsStore
	planner  *schedule.Planner
	hub      *ws.Hub
	logger   *slog.Logger
}

func NewSettingsHandler(settings *store.SettingsStore, planner *schedule.Planner, hub *ws.Hub, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, planner: planner, hub: hub, logger: logger}
}

// Get handles GET /api/settings/notifications
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Notification()
	if err != nil {
		h.logger.Error("load notification settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// Put handles PUT /api/settings/notifications
func (h *SettingsHandler) Put(w http.ResponseWriter, r *http.Request) {
	var settings model.NotificationSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := h.settings.SetNotification(settings); err != nil {
		h.logger.Error("save notification settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}

	stats, err := h.planner.RescheduleAll(r.Context())
	if err != nil {
		h.logger.Error("reschedule after settings change", "error", err)
		writeError(w, http.StatusInternalServerError, "settings saved but rescheduling failed")
		return
	}

	h.hub.Broadcast(ws.NewMessage("settings", "saved", "", map[string]any{"enabled": settings.Enabled}))
	writeJSON(w, http.StatusOK, map[string]any{"settings": settings, "plan": stats})
}
