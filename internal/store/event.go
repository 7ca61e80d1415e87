package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/avoytenko/steeple/internal/model"
)

type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

// Create inserts a calendar event. The event key must be unique; use
// CreateIfAbsent when materializing from templates.
func (s *EventStore) Create(ev model.CalendarEvent) (*model.CalendarEvent, error) {
	var templateID sql.NullInt64
	if ev.TemplateID != nil {
		templateID = sql.NullInt64{Int64: *ev.TemplateID, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO calendar_events (event_key, name, start_time, service_type, description, template_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.EventKey, ev.Name, ev.StartTime.UTC(), string(ev.ServiceType), ev.Description, templateID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert calendar event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// CreateIfAbsent inserts the event unless one with the same key already
// exists. Returns true when a row was inserted.
func (s *EventStore) CreateIfAbsent(ev model.CalendarEvent) (bool, error) {
	var templateID sql.NullInt64
	if ev.TemplateID != nil {
		templateID = sql.NullInt64{Int64: *ev.TemplateID, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT OR IGNORE INTO calendar_events (event_key, name, start_time, service_type, description, template_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.EventKey, ev.Name, ev.StartTime.UTC(), string(ev.ServiceType), ev.Description, templateID,
	)
	if err != nil {
		return false, fmt.Errorf("insert calendar event: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *EventStore) GetByID(id int64) (*model.CalendarEvent, error) {
	row := s.db.QueryRow(
		`SELECT id, event_key, name, start_time, service_type, description, template_id, created_at
		 FROM calendar_events WHERE id = ?`, id,
	)
	return scanEvent(row)
}

func (s *EventStore) GetByKey(key string) (*model.CalendarEvent, error) {
	row := s.db.QueryRow(
		`SELECT id, event_key, name, start_time, service_type, description, template_id, created_at
		 FROM calendar_events WHERE event_key = ?`, key,
	)
	return scanEvent(row)
}

// ListBetween returns events starting within [start, end), earliest first.
func (s *EventStore) ListBetween(start, end time.Time) ([]model.CalendarEvent, error) {
	rows, err := s.db.Query(
		`SELECT id, event_key, name, start_time, service_type, description, template_id, created_at
		 FROM calendar_events
		 WHERE start_time >= ? AND start_time < ?
		 ORDER BY start_time ASC`,
		start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	defer rows.Close()

	var events []model.CalendarEvent
	for rows.Next() {
		ev, err := scanEventRow(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

func (s *EventStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM calendar_events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete calendar event: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row *sql.Row) (*model.CalendarEvent, error) {
	ev, err := scanEventFrom(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query calendar event: %w", err)
	}
	return ev, nil
}

func scanEventRow(rows *sql.Rows) (*model.CalendarEvent, error) {
	ev, err := scanEventFrom(rows)
	if err != nil {
		return nil, fmt.Errorf("scan calendar event: %w", err)
	}
	return ev, nil
}

func scanEventFrom(r rowScanner) (*model.CalendarEvent, error) {
	var ev model.CalendarEvent
	var serviceType string
	var templateID sql.NullInt64

	err := r.Scan(&ev.ID, &ev.EventKey, &ev.Name, &ev.StartTime, &serviceType, &ev.Description, &templateID, &ev.CreatedAt)
	if err != nil {
		return nil, err
	}

	ev.ServiceType = model.ServiceType(serviceType)
	if templateID.Valid {
		ev.TemplateID = &templateID.Int64
	}
	return &ev, nil
}
