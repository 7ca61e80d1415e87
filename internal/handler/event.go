package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/avoytenko/steeple/internal/model"
	"github.com/avoytenko/steeple/internal/store"
	ws "github.com/avoytenko/steeple/internal/websocket"
)

type EventHandler struct {
	events    *store.EventStore
	templates *store.TemplateStore
	loc       *time.Location
	hub       *ws.Hub
	logger    *slog.Logger
}

func NewEventHandler(events *store.EventStore, templates *store.TemplateStore, loc *time.Location, hub *ws.Hub, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, templates: templates, loc: loc, hub: hub, logger: logger}
}

// List handles GET /api/events?from=...&to=...
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	now := time.Now().In(h.loc)
	from, to := now, now.AddDate(1, 0, 0)

	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.ParseInLocation("2006-01-02", raw, h.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
			return
		}
		from = t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.ParseInLocation("2006-01-02", raw, h.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
			return
		}
		to = t
	}

	events, err := h.events.ListBetween(from, to)
	if err != nil {
		h.logger.Error("list events", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	if events == nil {
		events = []model.CalendarEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

type eventRequest struct {
	Name        string `json:"name"`
	StartTime   string `json:"start_time"`
	ServiceType string `json:"service_type"`
	Description string `json:"description"`
}

// Create handles POST /api/events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	svc := model.ServiceType(req.ServiceType)
	if !svc.Valid() {
		writeError(w, http.StatusBadRequest, "unknown service_type")
		return
	}
	start, err := time.ParseInLocation(time.RFC3339, req.StartTime, h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_time must be RFC 3339")
		return
	}

	ev, err := h.events.Create(model.CalendarEvent{
		EventKey:    model.EventKey(start, req.Name),
		Name:        req.Name,
		StartTime:   start,
		ServiceType: svc,
		Description: req.Description,
	})
	if err != nil {
		h.logger.Error("create event", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create event")
		return
	}

	h.hub.Broadcast(ws.NewMessage("event", "created", ev.EventKey, nil))
	writeJSON(w, http.StatusCreated, ev)
}

// Delete handles DELETE /api/events/{id}
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.events.Delete(id); err != nil {
		h.logger.Error("delete event", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete event")
		return
	}

	h.hub.Broadcast(ws.NewMessage("event", "deleted", "", nil))
	w.WriteHeader(http.StatusNoContent)
}

// ListTemplates handles GET /api/templates
func (h *EventHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.templates.List()
	if err != nil {
		h.logger.Error("list templates", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list templates")
		return
	}
	if templates == nil {
		templates = []model.EventTemplate{}
	}
	writeJSON(w, http.StatusOK, templates)
}

type templateRequest struct {
	Name        string `json:"name"`
	Month       int    `json:"month"`
	Day         int    `json:"day"`
	Hour        int    `json:"hour"`
	Minute      int    `json:"minute"`
	ServiceType string `json:"service_type"`
	Description string `json:"description"`
}

// CreateTemplate handles POST /api/templates
func (h *EventHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Month < 1 || req.Month > 12 || req.Day < 1 || req.Day > 31 {
		writeError(w, http.StatusBadRequest, "month/day out of range")
		return
	}
	svc := model.ServiceType(req.ServiceType)
	if !svc.Valid() {
		writeError(w, http.StatusBadRequest, "unknown service_type")
		return
	}

	t, err := h.templates.Create(model.EventTemplate{
		Name:        req.Name,
		Month:       time.Month(req.Month),
		Day:         req.Day,
		Hour:        req.Hour,
		Minute:      req.Minute,
		ServiceType: svc,
		Description: req.Description,
	})
	if err != nil {
		h.logger.Error("create template", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create template")
		return
	}

	h.hub.Broadcast(ws.NewMessage("template", "created", t.Name, nil))
	writeJSON(w, http.StatusCreated, t)
}

// DeleteTemplate handles DELETE /api/templates/{id}
func (h *EventHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.templates.Delete(id); err != nil {
		h.logger.Error("delete template", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete template")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
