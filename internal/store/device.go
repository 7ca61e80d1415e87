package store

import (
	"database/sql"
	"fmt"

	"github.com/avoytenko/steeple/internal/model"
)

type DeviceStore struct {
	db *sql.DB
}

func NewDeviceStore(db *sql.DB) *DeviceStore {
	return &DeviceStore{db: db}
}

// Register inserts a device token row. Duplicate tokens are allowed here;
// the dispatcher deduplicates before building a relay batch.
func (s *DeviceStore) Register(token, platform string) (*model.Device, error) {
	result, err := s.db.Exec(
		`INSERT INTO devices (token, platform) VALUES (?, ?)`,
		token, platform,
	)
	if err != nil {
		return nil, fmt.Errorf("register device: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	var d model.Device
	err = s.db.QueryRow(
		`SELECT id, token, platform, registered_at FROM devices WHERE id = ?`, id,
	).Scan(&d.ID, &d.Token, &d.Platform, &d.RegisteredAt)
	if err != nil {
		return nil, fmt.Errorf("get device: %w", err)
	}
	return &d, nil
}

func (s *DeviceStore) List() ([]model.Device, error) {
	rows, err := s.db.Query(`SELECT id, token, platform, registered_at FROM devices ORDER BY registered_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	var devices []model.Device
	for rows.Next() {
		var d model.Device
		if err := rows.Scan(&d.ID, &d.Token, &d.Platform, &d.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

// DeleteByToken removes every row carrying the token, including duplicates
// produced by registration races.
func (s *DeviceStore) DeleteByToken(token string) error {
	_, err := s.db.Exec(`DELETE FROM devices WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("delete device by token: %w", err)
	}
	return nil
}
