package schedule

import (
	"log/slog"
	"testing"
	"time"
)

func TestTimerSchedulerRejectsPastDated(t *testing.T) {
	s := NewTimerScheduler(func(string, Notification) {}, slog.Default())
	t.Cleanup(s.Stop)

	err := s.ScheduleOneShot(time.Now().Add(-time.Minute), Notification{}, "late")
	if err == nil {
		t.Fatal("expected error for past-dated trigger")
	}
	if s.Pending() != 0 {
		t.Errorf("pending = %d, want 0", s.Pending())
	}
}

func TestTimerSchedulerFires(t *testing.T) {
	fired := make(chan string, 1)
	s := NewTimerScheduler(func(id string, n Notification) { fired <- id }, slog.Default())
	t.Cleanup(s.Stop)

	if err := s.ScheduleOneShot(time.Now().Add(20*time.Millisecond), Notification{Title: "t"}, "soon"); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if s.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", s.Pending())
	}

	select {
	case id := <-fired:
		if id != "soon" {
			t.Errorf("fired id = %q", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("trigger never fired")
	}
	if s.Pending() != 0 {
		t.Errorf("pending after fire = %d, want 0", s.Pending())
	}
}

func TestTimerSchedulerCancel(t *testing.T) {
	fired := make(chan string, 1)
	s := NewTimerScheduler(func(id string, n Notification) { fired <- id }, slog.Default())
	t.Cleanup(s.Stop)

	if err := s.ScheduleOneShot(time.Now().Add(50*time.Millisecond), Notification{}, "doomed"); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := s.Cancel("doomed"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	select {
	case id := <-fired:
		t.Fatalf("cancelled trigger %q fired", id)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestTimerSchedulerReplaceSameIdentifier(t *testing.T) {
	s := NewTimerScheduler(func(string, Notification) {}, slog.Default())
	t.Cleanup(s.Stop)

	if err := s.ScheduleOneShot(time.Now().Add(time.Hour), Notification{}, "k"); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := s.ScheduleOneShot(time.Now().Add(2*time.Hour), Notification{}, "k"); err != nil {
		t.Fatalf("second: %v", err)
	}
	if s.Pending() != 1 {
		t.Errorf("pending = %d, resubmission should replace", s.Pending())
	}
}

func TestTimerSchedulerCancelAll(t *testing.T) {
	s := NewTimerScheduler(func(string, Notification) {}, slog.Default())
	t.Cleanup(s.Stop)

	for _, id := range []string{"a", "b", "c"} {
		if err := s.ScheduleOneShot(time.Now().Add(time.Hour), Notification{}, id); err != nil {
			t.Fatalf("schedule %s: %v", id, err)
		}
	}
	if err := s.CancelAll(); err != nil {
		t.Fatalf("cancel all: %v", err)
	}
	if s.Pending() != 0 {
		t.Errorf("pending = %d, want 0", s.Pending())
	}
}
