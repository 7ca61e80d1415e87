// Package server wires the stores, the scheduling engine, and the admin API
// together.
package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/avoytenko/steeple/internal/blob"
	"github.com/avoytenko/steeple/internal/config"
	"github.com/avoytenko/steeple/internal/handler"
	"github.com/avoytenko/steeple/internal/history"
	"github.com/avoytenko/steeple/internal/middleware"
	"github.com/avoytenko/steeple/internal/push"
	"github.com/avoytenko/steeple/internal/schedule"
	"github.com/avoytenko/steeple/internal/store"
	ws "github.com/avoytenko/steeple/internal/websocket"
)

type Server struct {
	cfg       config.Config
	hub       *ws.Hub
	configH   *handler.ConfigHandler
	eventH    *handler.EventHandler
	notifyH   *handler.NotifyHandler
	deviceH   *handler.DeviceHandler
	settingsH *handler.SettingsHandler
	uploadH   *handler.UploadHandler
	planner   *schedule.Planner
	scheduler *schedule.TimerScheduler
	rollover  *schedule.Rollover
	logger    *slog.Logger
}

func New(db *sql.DB, cfg config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	eventStore := store.NewEventStore(db)
	templateStore := store.NewTemplateStore(db)
	configStore := store.NewConfigStore(db)
	logStore := store.NewScheduleLogStore(db)
	historyStore := store.NewHistoryStore(db)
	deviceStore := store.NewDeviceStore(db)
	settingsStore := store.NewSettingsStore(db)

	pushLogger := logger.With("component", "push")
	relay := push.NewClient(cfg.RelayURL)
	dispatcher := push.NewDispatcher(relay, deviceStore, pushLogger)
	recorder := history.NewRecorder(historyStore, logger.With("component", "history"))

	deliverer := schedule.NewDeliverer(dispatcher, recorder, logStore, logger.With("component", "deliver"))
	scheduler := schedule.NewTimerScheduler(deliverer.HandleFire, logger.With("component", "scheduler"))
	planner := schedule.NewPlanner(configStore, eventStore, logStore, settingsStore, scheduler, logger.With("component", "planner"))
	rollover := schedule.NewRollover(planner, eventStore, templateStore, settingsStore, recorder, logStore, cfg.Location, logger.With("component", "rollover"))

	uploader := blob.NewUploader(cfg.S3)

	return &Server{
		cfg:       cfg,
		hub:       hub,
		configH:   handler.NewConfigHandler(configStore, planner, hub, logger.With("component", "config_handler")),
		eventH:    handler.NewEventHandler(eventStore, templateStore, cfg.Location, hub, logger.With("component", "event_handler")),
		notifyH:   handler.NewNotifyHandler(dispatcher, recorder, historyStore, hub, logger.With("component", "notify_handler")),
		deviceH:   handler.NewDeviceHandler(deviceStore, logger.With("component", "device_handler")),
		settingsH: handler.NewSettingsHandler(settingsStore, planner, hub, logger.With("component", "settings_handler")),
		uploadH:   handler.NewUploadHandler(uploader, logger.With("component", "upload_handler")),
		planner:   planner,
		scheduler: scheduler,
		rollover:  rollover,
		logger:    logger,
	}
}

// Rollover returns the yearly rollover driver for lifecycle management.
func (s *Server) Rollover() *schedule.Rollover {
	return s.rollover
}

// Scheduler returns the trigger scheduler for shutdown.
func (s *Server) Scheduler() *schedule.TimerScheduler {
	return s.scheduler
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Device registration is called by the parish app on every phone, not
	// by the admin console, so it sits outside the admin token check.
	mux.HandleFunc("POST /api/devices", s.deviceH.Register)
	mux.HandleFunc("DELETE /api/devices/{token}", s.deviceH.Unregister)

	api := http.NewServeMux()
	s.registerAPIRoutes(api)

	adminAuth := middleware.RequireAdmin(s.cfg.AdminTokenHash)
	mux.Handle("/api/", adminAuth(api))
	mux.Handle("GET /ws", adminAuth(ws.Handle(s.hub, s.logger.With("component", "websocket"))))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) registerAPIRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/configs", s.configH.List)
	mux.HandleFunc("POST /api/configs", s.configH.Create)
	mux.HandleFunc("POST /api/configs/defaults", s.configH.InitializeDefaults)
	mux.HandleFunc("PUT /api/configs/{id}", s.configH.Update)
	mux.HandleFunc("DELETE /api/configs/{id}", s.configH.Delete)
	mux.HandleFunc("PUT /api/configs/{id}/enabled", s.configH.SetEnabled)

	mux.HandleFunc("GET /api/events", s.eventH.List)
	mux.HandleFunc("POST /api/events", s.eventH.Create)
	mux.HandleFunc("DELETE /api/events/{id}", s.eventH.Delete)

	mux.HandleFunc("GET /api/templates", s.eventH.ListTemplates)
	mux.HandleFunc("POST /api/templates", s.eventH.CreateTemplate)
	mux.HandleFunc("DELETE /api/templates/{id}", s.eventH.DeleteTemplate)

	mux.HandleFunc("POST /api/notifications/send", s.notifyH.Send)
	mux.HandleFunc("GET /api/notifications/history", s.notifyH.History)
	mux.HandleFunc("GET /api/notifications/stats", s.notifyH.Stats)

	mux.HandleFunc("GET /api/settings/notifications", s.settingsH.Get)
	mux.HandleFunc("PUT /api/settings/notifications", s.settingsH.Put)

	mux.HandleFunc("POST /api/uploads", s.uploadH.Upload)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
