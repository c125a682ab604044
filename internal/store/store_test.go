package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/iltoga/businesssuite-desktop/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordDeliveryAndHistory(t *testing.T) {
	s := openTestStore(t)

	now := time.Now()
	if err := s.RecordDelivery(models.Reminder{ID: 7, Title: "Visa", Content: "Renew"}, now); err != nil {
		t.Fatalf("RecordDelivery: %v", err)
	}
	if err := s.RecordDelivery(models.Reminder{ID: 8}, now.Add(time.Minute)); err != nil {
		t.Fatalf("RecordDelivery: %v", err)
	}

	history, err := s.History(10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history rows = %d, want 2", len(history))
	}
	if history[0].ReminderID != 8 {
		t.Errorf("newest first: got reminder %d", history[0].ReminderID)
	}
	// Blank fields are stored with their render-time fallbacks.
	if history[0].Title != "Reminder" || history[0].Body != "You have a reminder." {
		t.Errorf("fallbacks not applied: %+v", history[0])
	}
}

func TestSnoozeLifecycle(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()

	r := models.Reminder{ID: 7, Title: "Visa", Content: "Renew"}
	if err := s.AddSnooze(r, now.Add(15*time.Minute)); err != nil {
		t.Fatalf("AddSnooze: %v", err)
	}

	// Not due yet.
	due, err := s.TakeDueSnoozes(now)
	if err != nil {
		t.Fatalf("TakeDueSnoozes: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("premature due snoozes: %v", due)
	}

	// Due after the snooze window; taking removes it.
	due, err = s.TakeDueSnoozes(now.Add(16 * time.Minute))
	if err != nil {
		t.Fatalf("TakeDueSnoozes: %v", err)
	}
	if len(due) != 1 || due[0].ID != 7 || due[0].Title != "Visa" {
		t.Fatalf("due snoozes = %v", due)
	}

	due, err = s.TakeDueSnoozes(now.Add(17 * time.Minute))
	if err != nil {
		t.Fatalf("TakeDueSnoozes: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("snooze not consumed: %v", due)
	}
}

func TestSnoozeReplacesPrevious(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()
	r := models.Reminder{ID: 7, Content: "x"}

	if err := s.AddSnooze(r, now.Add(5*time.Minute)); err != nil {
		t.Fatalf("AddSnooze: %v", err)
	}
	if err := s.AddSnooze(r, now.Add(30*time.Minute)); err != nil {
		t.Fatalf("AddSnooze: %v", err)
	}

	due, err := s.TakeDueSnoozes(now.Add(10 * time.Minute))
	if err != nil {
		t.Fatalf("TakeDueSnoozes: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("snooze fired at superseded due time: %v", due)
	}
}
