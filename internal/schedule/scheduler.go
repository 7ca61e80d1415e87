// Package schedule decides when reminder notifications fire for the parish
// calendar: the planner converges one-shot triggers with the admin-authored
// configs, and the rollover driver materializes next year's events and keeps
// the schedule fresh on a daily tick.
package schedule

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Notification is the payload carried by a scheduled trigger.
type Notification struct {
	Title string
	Body  string
	Data  map[string]string
}

// TriggerScheduler is the one-shot trigger table the planner converges
// against. The production implementation runs in-process timers; tests
// inject a fake.
type TriggerScheduler interface {
	// ScheduleOneShot registers a trigger firing at fireAt. Past-dated
	// triggers are rejected.
	ScheduleOneShot(fireAt time.Time, n Notification, identifier string) error
	Cancel(identifier string) error
	CancelAll() error
}

// FireFunc handles a trigger at its fire time.
type FireFunc func(identifier string, n Notification)

// TimerScheduler is an in-process TriggerScheduler backed by one-shot
// timers. Triggers do not survive a restart; the planner's next run
// re-submits anything whose gate row was rolled back, and RescheduleAll
// rebuilds the table from scratch at startup.
type TimerScheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	fire   FireFunc
	logger *slog.Logger
}

func NewTimerScheduler(fire FireFunc, logger *slog.Logger) *TimerScheduler {
	return &TimerScheduler{
		timers: make(map[string]*time.Timer),
		fire:   fire,
		logger: logger,
	}
}

func (s *TimerScheduler) ScheduleOneShot(fireAt time.Time, n Notification, identifier string) error {
	delay := time.Until(fireAt)
	if delay <= 0 {
		return fmt.Errorf("trigger %q is past-dated", identifier)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.timers[identifier]; ok {
		old.Stop()
	}
	s.timers[identifier] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, identifier)
		s.mu.Unlock()
		s.fire(identifier, n)
	})

	s.logger.Debug("trigger scheduled", "identifier", identifier, "fire_at", fireAt)
	return nil
}

func (s *TimerScheduler) Cancel(identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[identifier]; ok {
		t.Stop()
		delete(s.timers, identifier)
	}
	return nil
}

func (s *TimerScheduler) CancelAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	return nil
}

// Pending returns the number of outstanding triggers.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels all outstanding triggers. Called on shutdown.
func (s *TimerScheduler) Stop() {
	s.CancelAll()
}
