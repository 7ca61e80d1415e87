package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/avoytenko/steeple/internal/model"
)

// HistoryStore persists delivery-history records, one per push fan-out
// dispatch.
type HistoryStore struct {
	db *sql.DB
}

func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

func (s *HistoryStore) Insert(rec model.NotificationRecord) (*model.NotificationRecord, error) {
	automated := 0
	if rec.Automated {
		automated = 1
	}

	result, err := s.db.Exec(
		`INSERT INTO notification_history (title, body, category, status, sent_at, expires_at, recipient_count, success_count, failure_count, sent_by, event_key, automated, errors)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Title, rec.Body, string(rec.Category), string(rec.Status), rec.SentAt.UTC(), rec.ExpiresAt.UTC(),
		rec.RecipientCount, rec.SuccessCount, rec.FailureCount, rec.SentBy, rec.EventKey, automated, joinErrors(rec.Errors),
	)
	if err != nil {
		return nil, fmt.Errorf("insert notification record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *HistoryStore) GetByID(id int64) (*model.NotificationRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, title, body, category, status, sent_at, expires_at, recipient_count, success_count, failure_count, sent_by, event_key, automated, errors
		 FROM notification_history WHERE id = ?`, id,
	)
	rec, err := scanRecordFrom(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query notification record: %w", err)
	}
	return rec, nil
}

// ListActive returns non-expired records sent at or after since, newest
// first.
func (s *HistoryStore) ListActive(since, now time.Time) ([]model.NotificationRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, title, body, category, status, sent_at, expires_at, recipient_count, success_count, failure_count, sent_by, event_key, automated, errors
		 FROM notification_history
		 WHERE sent_at >= ? AND expires_at >= ?
		 ORDER BY sent_at DESC`,
		since.UTC(), now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list notification records: %w", err)
	}
	defer rows.Close()

	var records []model.NotificationRecord
	for rows.Next() {
		rec, err := scanRecordFrom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification record: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// DeleteExpired removes every record whose expiry is strictly before now and
// returns the count. Safe to run concurrently: a row already deleted by
// another sweep simply does not match.
func (s *HistoryStore) DeleteExpired(now time.Time) (int, error) {
	result, err := s.db.Exec(`DELETE FROM notification_history WHERE expires_at < ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired notification records: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

func scanRecordFrom(r rowScanner) (*model.NotificationRecord, error) {
	var rec model.NotificationRecord
	var category, status, errs string
	var automated int

	err := r.Scan(&rec.ID, &rec.Title, &rec.Body, &category, &status, &rec.SentAt, &rec.ExpiresAt,
		&rec.RecipientCount, &rec.SuccessCount, &rec.FailureCount, &rec.SentBy, &rec.EventKey, &automated, &errs)
	if err != nil {
		return nil, err
	}

	rec.Category = model.Category(category)
	rec.Status = model.DeliveryStatus(status)
	rec.Automated = automated != 0
	rec.Errors = splitErrors(errs)
	return &rec, nil
}

// Error strings are stored newline-joined; relay errors never contain
// newlines.
func joinErrors(errs []string) string {
	return strings.Join(errs, "\n")
}

func splitErrors(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
