package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/avoytenko/steeple/internal/model"
)

type TemplateStore struct {
	db *sql.DB
}

func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

func (s *TemplateStore) Create(t model.EventTemplate) (*model.EventTemplate, error) {
	result, err := s.db.Exec(
		`INSERT INTO event_templates (name, month, day, hour, minute, service_type, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.Name, int(t.Month), t.Day, t.Hour, t.Minute, string(t.ServiceType), t.Description,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event template: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TemplateStore) GetByID(id int64) (*model.EventTemplate, error) {
	var t model.EventTemplate
	var month int
	var serviceType string

	err := s.db.QueryRow(
		`SELECT id, name, month, day, hour, minute, service_type, description, created_at
		 FROM event_templates WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &month, &t.Day, &t.Hour, &t.Minute, &serviceType, &t.Description, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query event template: %w", err)
	}

	t.Month = time.Month(month)
	t.ServiceType = model.ServiceType(serviceType)
	return &t, nil
}

// List returns all templates in calendar order.
func (s *TemplateStore) List() ([]model.EventTemplate, error) {
	rows, err := s.db.Query(
		`SELECT id, name, month, day, hour, minute, service_type, description, created_at
		 FROM event_templates ORDER BY month, day, hour, minute`,
	)
	if err != nil {
		return nil, fmt.Errorf("list event templates: %w", err)
	}
	defer rows.Close()

	var templates []model.EventTemplate
	for rows.Next() {
		var t model.EventTemplate
		var month int
		var serviceType string
		if err := rows.Scan(&t.ID, &t.Name, &month, &t.Day, &t.Hour, &t.Minute, &serviceType, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event template: %w", err)
		}
		t.Month = time.Month(month)
		t.ServiceType = model.ServiceType(serviceType)
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (s *TemplateStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM event_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event template: %w", err)
	}
	return nil
}
