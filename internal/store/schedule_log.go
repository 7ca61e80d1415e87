package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/avoytenko/steeple/internal/model"
	"github.com/avoytenko/steeple/internal/timing"
)

// ScheduleLogStore persists the planner's idempotency log: one row per
// (config, timing) pair handed to the trigger scheduler.
type ScheduleLogStore struct {
	db *sql.DB
}

func NewScheduleLogStore(db *sql.DB) *ScheduleLogStore {
	return &ScheduleLogStore{db: db}
}

// TryInsert inserts a PENDING entry unless one with the same key exists.
// Returns true when the row was inserted. The UNIQUE constraint on the key
// makes this the atomic gate that prevents double-scheduling: the caller only
// submits a trigger after winning the insert.
func (s *ScheduleLogStore) TryInsert(e model.ScheduleLogEntry) (bool, error) {
	result, err := s.db.Exec(
		`INSERT OR IGNORE INTO schedule_log (schedule_key, config_id, event_key, timing, scheduled_for, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Key, e.ConfigID, e.EventKey, string(e.Timing), e.ScheduledFor.UTC(), string(model.SchedulePending),
	)
	if err != nil {
		return false, fmt.Errorf("insert schedule log entry: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *ScheduleLogStore) GetByKey(key string) (*model.ScheduleLogEntry, error) {
	var e model.ScheduleLogEntry
	var timingStr, status string
	var sentAt sql.NullTime

	err := s.db.QueryRow(
		`SELECT id, schedule_key, config_id, event_key, timing, scheduled_for, sent_at, status, error, created_at
		 FROM schedule_log WHERE schedule_key = ?`, key,
	).Scan(&e.ID, &e.Key, &e.ConfigID, &e.EventKey, &timingStr, &e.ScheduledFor, &sentAt, &status, &e.Error, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query schedule log entry: %w", err)
	}

	e.Timing = timing.Timing(timingStr)
	e.Status = model.ScheduleStatus(status)
	if sentAt.Valid {
		e.SentAt = &sentAt.Time
	}
	return &e, nil
}

// ListPending returns all PENDING entries, soonest first.
func (s *ScheduleLogStore) ListPending() ([]model.ScheduleLogEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, schedule_key, config_id, event_key, timing, scheduled_for, sent_at, status, error, created_at
		 FROM schedule_log WHERE status = ? ORDER BY scheduled_for ASC`,
		string(model.SchedulePending),
	)
	if err != nil {
		return nil, fmt.Errorf("list pending schedule log entries: %w", err)
	}
	defer rows.Close()

	var entries []model.ScheduleLogEntry
	for rows.Next() {
		var e model.ScheduleLogEntry
		var timingStr, status string
		var sentAt sql.NullTime
		if err := rows.Scan(&e.ID, &e.Key, &e.ConfigID, &e.EventKey, &timingStr, &e.ScheduledFor, &sentAt, &status, &e.Error, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan schedule log entry: %w", err)
		}
		e.Timing = timing.Timing(timingStr)
		e.Status = model.ScheduleStatus(status)
		if sentAt.Valid {
			e.SentAt = &sentAt.Time
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes the entry with the given key. Used to roll the gate back
// when the trigger submit fails after the insert won.
func (s *ScheduleLogStore) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM schedule_log WHERE schedule_key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete schedule log entry: %w", err)
	}
	return nil
}

// DeletePending clears every PENDING entry. Runs as part of the mass
// cancel-and-reschedule flow so stale gate rows cannot suppress the
// reschedule that follows a cancel-all.
func (s *ScheduleLogStore) DeletePending() error {
	_, err := s.db.Exec(`DELETE FROM schedule_log WHERE status = ?`, string(model.SchedulePending))
	if err != nil {
		return fmt.Errorf("delete pending schedule log entries: %w", err)
	}
	return nil
}

func (s *ScheduleLogStore) MarkSent(key string) error {
	_, err := s.db.Exec(
		`UPDATE schedule_log SET status = ?, sent_at = ? WHERE schedule_key = ?`,
		string(model.ScheduleSent), time.Now().UTC(), key,
	)
	if err != nil {
		return fmt.Errorf("mark schedule log entry sent: %w", err)
	}
	return nil
}

func (s *ScheduleLogStore) MarkFailed(key, errMsg string) error {
	_, err := s.db.Exec(
		`UPDATE schedule_log SET status = ?, error = ? WHERE schedule_key = ?`,
		string(model.ScheduleFailed), errMsg, key,
	)
	if err != nil {
		return fmt.Errorf("mark schedule log entry failed: %w", err)
	}
	return nil
}

// DeleteOlderThan removes entries whose scheduled_for is before the cutoff
// and returns how many were removed. The daily retention sweep keeps the log
// from growing without bound.
func (s *ScheduleLogStore) DeleteOlderThan(cutoff time.Time) (int, error) {
	result, err := s.db.Exec(`DELETE FROM schedule_log WHERE scheduled_for < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("sweep schedule log: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}
