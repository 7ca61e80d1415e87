package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avoytenko/steeple/internal/model"
)

const (
	keyNotificationSettings = "notification_settings"
	keyLastRolloverCheck    = "last_rollover_check"
)

type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SettingsStore) set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// Notification returns the global notification settings, falling back to the
// defaults when none have been saved yet.
func (s *SettingsStore) Notification() (model.NotificationSettings, error) {
	value, ok, err := s.get(keyNotificationSettings)
	if err != nil {
		return model.NotificationSettings{}, err
	}
	if !ok {
		return model.DefaultNotificationSettings(), nil
	}

	var settings model.NotificationSettings
	if err := json.Unmarshal([]byte(value), &settings); err != nil {
		return model.NotificationSettings{}, fmt.Errorf("parse notification settings: %w", err)
	}
	return settings, nil
}

func (s *SettingsStore) SetNotification(settings model.NotificationSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal notification settings: %w", err)
	}
	return s.set(keyNotificationSettings, string(data))
}

// LastRolloverCheck returns the persisted timestamp of the last completed
// rollover check, or the zero time when no check has run yet.
func (s *SettingsStore) LastRolloverCheck() (time.Time, error) {
	value, ok, err := s.get(keyLastRolloverCheck)
	if err != nil || !ok {
		return time.Time{}, err
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse last rollover check: %w", err)
	}
	return t, nil
}

func (s *SettingsStore) SetLastRolloverCheck(t time.Time) error {
	return s.set(keyLastRolloverCheck, t.UTC().Format(time.RFC3339))
}
