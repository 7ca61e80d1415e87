package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/avoytenko/steeple/internal/store"
)

type DeviceHandler struct {
	devices *store.DeviceStore
	logger  *slog.Logger
}

func NewDeviceHandler(devices *store.DeviceStore, logger *slog.Logger) *DeviceHandler {
	return &DeviceHandler{devices: devices, logger: logger}
}

type registerRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

// Register handles POST /api/devices
func (h *DeviceHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	dev, err := h.devices.Register(req.Token, req.Platform)
	if err != nil {
		h.logger.Error("register device", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register device")
		return
	}
	writeJSON(w, http.StatusCreated, dev)
}

// Unregister handles DELETE /api/devices/{token}
func (h *DeviceHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	if err := h.devices.DeleteByToken(token); err != nil {
		h.logger.Error("unregister device", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to unregister device")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
