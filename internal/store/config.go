package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/avoytenko/steeple/internal/model"
	"github.com/avoytenko/steeple/internal/timing"
)

// ConfigStore persists admin-authored notification configurations. The
// event_key column carries a UNIQUE constraint, so "at most one config per
// event" holds even when two admins save concurrently.
type ConfigStore struct {
	db *sql.DB
}

func NewConfigStore(db *sql.DB) *ConfigStore {
	return &ConfigStore{db: db}
}

// Upsert creates the config when cfg.ID is zero and otherwise performs a
// merge-style update that preserves created_at.
func (s *ConfigStore) Upsert(cfg model.NotificationConfig) (*model.NotificationConfig, error) {
	enabled := 0
	if cfg.Enabled {
		enabled = 1
	}
	now := time.Now().UTC()

	if cfg.ID == 0 {
		result, err := s.db.Exec(
			`INSERT INTO notification_configs (event_key, event_name, event_date, service_type, timings, enabled, custom_message, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			cfg.EventKey, cfg.EventName, cfg.EventDate.UTC(), string(cfg.ServiceType), timing.Join(cfg.Timings), enabled, cfg.CustomMessage, now, now,
		)
		if err != nil {
			return nil, fmt.Errorf("insert notification config: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		return s.GetByID(id)
	}

	_, err := s.db.Exec(
		`UPDATE notification_configs
		 SET event_key = ?, event_name = ?, event_date = ?, service_type = ?, timings = ?, enabled = ?, custom_message = ?, updated_at = ?
		 WHERE id = ?`,
		cfg.EventKey, cfg.EventName, cfg.EventDate.UTC(), string(cfg.ServiceType), timing.Join(cfg.Timings), enabled, cfg.CustomMessage, now, cfg.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update notification config: %w", err)
	}
	return s.GetByID(cfg.ID)
}

func (s *ConfigStore) GetByID(id int64) (*model.NotificationConfig, error) {
	row := s.db.QueryRow(
		`SELECT id, event_key, event_name, event_date, service_type, timings, enabled, custom_message, created_at, updated_at
		 FROM notification_configs WHERE id = ?`, id,
	)
	return scanConfig(row)
}

func (s *ConfigStore) GetByEventKey(key string) (*model.NotificationConfig, error) {
	row := s.db.QueryRow(
		`SELECT id, event_key, event_name, event_date, service_type, timings, enabled, custom_message, created_at, updated_at
		 FROM notification_configs WHERE event_key = ?`, key,
	)
	return scanConfig(row)
}

func (s *ConfigStore) List() ([]model.NotificationConfig, error) {
	rows, err := s.db.Query(
		`SELECT id, event_key, event_name, event_date, service_type, timings, enabled, custom_message, created_at, updated_at
		 FROM notification_configs ORDER BY event_date ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list notification configs: %w", err)
	}
	defer rows.Close()

	var configs []model.NotificationConfig
	for rows.Next() {
		cfg, err := scanConfigFrom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification config: %w", err)
		}
		configs = append(configs, *cfg)
	}
	return configs, rows.Err()
}

func (s *ConfigStore) SetEnabled(id int64, enabled bool) error {
	v := 0
	if enabled {
		v = 1
	}
	_, err := s.db.Exec(
		`UPDATE notification_configs SET enabled = ?, updated_at = ? WHERE id = ?`,
		v, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set notification config enabled: %w", err)
	}
	return nil
}

func (s *ConfigStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM notification_configs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete notification config: %w", err)
	}
	return nil
}

func scanConfig(row *sql.Row) (*model.NotificationConfig, error) {
	cfg, err := scanConfigFrom(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query notification config: %w", err)
	}
	return cfg, nil
}

func scanConfigFrom(r rowScanner) (*model.NotificationConfig, error) {
	var cfg model.NotificationConfig
	var serviceType, timings string
	var enabled int

	err := r.Scan(&cfg.ID, &cfg.EventKey, &cfg.EventName, &cfg.EventDate, &serviceType, &timings, &enabled, &cfg.CustomMessage, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		return nil, err
	}

	cfg.ServiceType = model.ServiceType(serviceType)
	cfg.Enabled = enabled != 0
	parsed, err := timing.Parse(timings)
	if err != nil {
		return nil, fmt.Errorf("parse timings: %w", err)
	}
	cfg.Timings = parsed
	return &cfg, nil
}
