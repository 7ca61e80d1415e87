// Package history records the outcome of push dispatches and computes rollup
// statistics over the 30-day retention window.
package history

import (
	"log/slog"
	"math"
	"time"

	"github.com/avoytenko/steeple/internal/model"
	"github.com/avoytenko/steeple/internal/store"
)

const retention = 30 * 24 * time.Hour

// Recorder writes one delivery-history record per dispatch and serves the
// retention sweep and the stats rollup.
type Recorder struct {
	store  *store.HistoryStore
	logger *slog.Logger
	now    func() time.Time
}

func NewRecorder(s *store.HistoryStore, logger *slog.Logger) *Recorder {
	return &Recorder{store: s, logger: logger, now: time.Now}
}

// Entry holds the caller-supplied fields of one delivery record. Status and
// expiry are derived here, never passed in.
type Entry struct {
	Title          string
	Body           string
	Category       model.Category
	RecipientCount int
	SuccessCount   int
	FailureCount   int
	SentBy         string
	EventKey       string
	Automated      bool
	Errors         []string
}

// Record writes one history record for a dispatch attempt. It is called
// after every attempt, including total failures where nothing was attempted
// (all counts zero).
func (r *Recorder) Record(e Entry) (*model.NotificationRecord, error) {
	now := r.now().UTC()
	rec := model.NotificationRecord{
		Title:          e.Title,
		Body:           e.Body,
		Category:       e.Category,
		Status:         model.DeriveDeliveryStatus(e.RecipientCount, e.SuccessCount, e.FailureCount),
		SentAt:         now,
		ExpiresAt:      now.Add(retention),
		RecipientCount: e.RecipientCount,
		SuccessCount:   e.SuccessCount,
		FailureCount:   e.FailureCount,
		SentBy:         e.SentBy,
		EventKey:       e.EventKey,
		Automated:      e.Automated,
		Errors:         e.Errors,
	}
	return r.store.Insert(rec)
}

// CleanupExpired deletes records past their expiry and returns the count.
// Safe to call frequently and concurrently.
func (r *Recorder) CleanupExpired() (int, error) {
	n, err := r.store.DeleteExpired(r.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.logger.Info("history retention sweep", "deleted", n)
	}
	return n, nil
}

// Stats is the delivery rollup over a window of recent records.
type Stats struct {
	TotalSent       int                    `json:"total_sent"`
	TotalRecipients int                    `json:"total_recipients"`
	SuccessRate     int                    `json:"success_rate"`
	ByCategory      map[model.Category]int `json:"by_category"`
	Last7Days       int                    `json:"last_7_days"`
}

// Compute aggregates non-expired records from the last windowDays days. The
// success rate is a rounded percentage of successes over recipients, and 100
// when nothing was attempted: an empty window is vacuously successful, not an
// error.
func (r *Recorder) Compute(windowDays int) (Stats, error) {
	if windowDays <= 0 {
		windowDays = 30
	}
	now := r.now()
	since := now.Add(-time.Duration(windowDays) * 24 * time.Hour)

	records, err := r.store.ListActive(since, now)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		SuccessRate: 100,
		ByCategory:  make(map[model.Category]int),
	}
	weekAgo := now.Add(-7 * 24 * time.Hour)

	var successes int
	for _, rec := range records {
		stats.TotalSent++
		stats.TotalRecipients += rec.RecipientCount
		successes += rec.SuccessCount
		stats.ByCategory[rec.Category]++
		if !rec.SentAt.Before(weekAgo) {
			stats.Last7Days++
		}
	}

	if stats.TotalRecipients > 0 {
		stats.SuccessRate = int(math.Round(float64(successes) / float64(stats.TotalRecipients) * 100))
	}
	return stats, nil
}
