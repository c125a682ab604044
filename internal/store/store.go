// Package store persists notification history and pending snoozes in a
// local SQLite database so a snoozed reminder survives a daemon restart.
package store

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/iltoga/businesssuite-desktop/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS notification_history (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	reminder_id INTEGER NOT NULL,
	title       TEXT NOT NULL,
	body        TEXT NOT NULL,
	delivered_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS snoozes (
	reminder_id INTEGER PRIMARY KEY,
	title       TEXT NOT NULL,
	body        TEXT NOT NULL,
	due_at      DATETIME NOT NULL
);
`

// DeliveredNotification is one row of local notification history.
type DeliveredNotification struct {
	ID          int64     `db:"id"`
	ReminderID  int       `db:"reminder_id"`
	Title       string    `db:"title"`
	Body        string    `db:"body"`
	DeliveredAt time.Time `db:"delivered_at"`
}

// Store wraps the local SQLite database.
type Store struct {
	db *sqlx.DB
}

// Open opens (and migrates) the database at the given path.
func Open(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordDelivery appends a delivered notification to the history.
func (s *Store) RecordDelivery(r models.Reminder, at time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO notification_history (reminder_id, title, body, delivered_at) VALUES (?, ?, ?, ?)`,
		r.ID, r.DisplayTitle(), r.DisplayBody(), at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record delivery: %w", err)
	}
	return nil
}

// History returns the most recent deliveries, newest first.
func (s *Store) History(limit int) ([]DeliveredNotification, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []DeliveredNotification
	err := s.db.Select(&rows,
		`SELECT id, reminder_id, title, body, delivered_at
		 FROM notification_history ORDER BY delivered_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return rows, nil
}

// AddSnooze schedules a reminder to be re-notified at dueAt. Snoozing an
// already-snoozed reminder replaces the previous due time.
func (s *Store) AddSnooze(r models.Reminder, dueAt time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO snoozes (reminder_id, title, body, due_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(reminder_id) DO UPDATE SET title=excluded.title, body=excluded.body, due_at=excluded.due_at`,
		r.ID, r.DisplayTitle(), r.DisplayBody(), dueAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("add snooze: %w", err)
	}
	return nil
}

// TakeDueSnoozes removes and returns every snooze due at or before now.
func (s *Store) TakeDueSnoozes(now time.Time) ([]models.Reminder, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("begin snooze sweep: %w", err)
	}
	defer tx.Rollback()

	var rows []struct {
		ReminderID int    `db:"reminder_id"`
		Title      string `db:"title"`
		Body       string `db:"body"`
	}
	if err := tx.Select(&rows,
		`SELECT reminder_id, title, body FROM snoozes WHERE due_at <= ?`, now.UTC()); err != nil {
		return nil, fmt.Errorf("load due snoozes: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	if _, err := tx.Exec(`DELETE FROM snoozes WHERE due_at <= ?`, now.UTC()); err != nil {
		return nil, fmt.Errorf("clear due snoozes: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit snooze sweep: %w", err)
	}

	reminders := make([]models.Reminder, 0, len(rows))
	for _, row := range rows {
		reminders = append(reminders, models.Reminder{
			ID:      row.ReminderID,
			Title:   row.Title,
			Content: row.Body,
		})
	}
	return reminders, nil
}
