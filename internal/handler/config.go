package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/avoytenko/steeple/internal/model"
	"github.com/avoytenko/steeple/internal/schedule"
	"github.com/avoytenko/steeple/internal/store"
	"github.com/avoytenko/steeple/internal/timing"
	ws "github.com/avoytenko/steeple/internal/websocket"
)

// ConfigHandler serves the notification-config CRUD surface. Every write
// runs a planning cycle synchronously so the admin sees scheduling errors in
// the response instead of discovering them at the next daily check.
type ConfigHandler struct {
	configs *store.ConfigStore
	planner *schedule.Planner
	hub     *ws.Hub
	logger  *slog.Logger
}

func NewConfigHandler(configs *store.ConfigStore, planner *schedule.Planner, hub *ws.Hub, logger *slog.Logger) *ConfigHandler {
	return &ConfigHandler{configs: configs, planner: planner, hub: hub, logger: logger}
}

// List handles GET /api/configs
func (h *ConfigHandler) List(w http.ResponseWriter, r *http.Request) {
	configs, err := h.configs.List()
	if err != nil {
		h.logger.Error("list configs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list configs")
		return
	}
	if configs == nil {
		configs = []model.NotificationConfig{}
	}
	writeJSON(w, http.StatusOK, configs)
}

type configRequest struct {
	EventKey      string   `json:"event_key"`
	EventName     string   `json:"event_name"`
	EventDate     string   `json:"event_date"`
	ServiceType   string   `json:"service_type"`
	Timings       []string `json:"timings"`
	Enabled       bool     `json:"enabled"`
	CustomMessage string   `json:"custom_message"`
}

func (req configRequest) toModel(id int64) (model.NotificationConfig, string) {
	if req.EventKey == "" || req.EventName == "" {
		return model.NotificationConfig{}, "event_key and event_name are required"
	}

	svc := model.ServiceType(req.ServiceType)
	if !svc.Valid() {
		return model.NotificationConfig{}, "unknown service_type"
	}

	date, err := time.Parse(time.RFC3339, req.EventDate)
	if err != nil {
		return model.NotificationConfig{}, "event_date must be RFC 3339"
	}

	timings := make([]timing.Timing, 0, len(req.Timings))
	for _, raw := range req.Timings {
		t := timing.Timing(raw)
		if !t.Valid() {
			return model.NotificationConfig{}, "unknown timing " + raw
		}
		timings = append(timings, t)
	}

	return model.NotificationConfig{
		ID:            id,
		EventKey:      req.EventKey,
		EventName:     req.EventName,
		EventDate:     date,
		ServiceType:   svc,
		Timings:       timings,
		Enabled:       req.Enabled,
		CustomMessage: req.CustomMessage,
	}, ""
}

// Create handles POST /api/configs
func (h *ConfigHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.upsert(w, r, 0)
}

// Update handles PUT /api/configs/{id}
func (h *ConfigHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	h.upsert(w, r, id)
}

func (h *ConfigHandler) upsert(w http.ResponseWriter, r *http.Request, id int64) {
	var req configRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	cfg, problem := req.toModel(id)
	if problem != "" {
		writeError(w, http.StatusBadRequest, problem)
		return
	}

	saved, err := h.configs.Upsert(cfg)
	if err != nil {
		h.logger.Error("upsert config", "event_key", cfg.EventKey, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save config")
		return
	}

	stats, err := h.planner.Plan(r.Context())
	if err != nil {
		h.logger.Error("plan after config save", "error", err)
		writeError(w, http.StatusInternalServerError, "config saved but scheduling failed")
		return
	}

	h.hub.Broadcast(ws.NewMessage("config", "saved", saved.EventKey, nil))

	status := http.StatusOK
	if id == 0 {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{"config": saved, "plan": stats})
}

// Delete handles DELETE /api/configs/{id}
func (h *ConfigHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.configs.Delete(id); err != nil {
		h.logger.Error("delete config", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete config")
		return
	}

	// The next plan cycle purges the deleted config's pending triggers.
	if _, err := h.planner.Plan(r.Context()); err != nil {
		h.logger.Error("plan after config delete", "error", err)
	}

	h.hub.Broadcast(ws.NewMessage("config", "deleted", "", nil))
	w.WriteHeader(http.StatusNoContent)
}

type enabledRequest struct {
	Enabled bool `json:"enabled"`
}

// SetEnabled handles PUT /api/configs/{id}/enabled
func (h *ConfigHandler) SetEnabled(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req enabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := h.configs.SetEnabled(id, req.Enabled); err != nil {
		h.logger.Error("set config enabled", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update config")
		return
	}

	stats, err := h.planner.Plan(r.Context())
	if err != nil {
		h.logger.Error("plan after toggle", "error", err)
		writeError(w, http.StatusInternalServerError, "config updated but scheduling failed")
		return
	}

	h.hub.Broadcast(ws.NewMessage("config", "toggled", "", map[string]any{"enabled": req.Enabled}))
	writeJSON(w, http.StatusOK, map[string]any{"plan": stats})
}

// InitializeDefaults handles POST /api/configs/defaults
func (h *ConfigHandler) InitializeDefaults(w http.ResponseWriter, r *http.Request) {
	created, err := h.planner.InitializeDefaults(r.Context())
	if err != nil {
		h.logger.Error("initialize default configs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to initialize defaults")
		return
	}

	stats, err := h.planner.Plan(r.Context())
	if err != nil {
		h.logger.Error("plan after defaults init", "error", err)
		writeError(w, http.StatusInternalServerError, "defaults created but scheduling failed")
		return
	}

	h.hub.Broadcast(ws.NewMessage("config", "defaults_initialized", "", map[string]any{"created": created}))
	writeJSON(w, http.StatusOK, map[string]any{"created": created, "plan": stats})
}
