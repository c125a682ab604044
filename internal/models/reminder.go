// Package models defines the data types shared between the daemon's services.
package models

import "strings"

// Fallback strings used when a reminder arrives with blank display fields.
// Applied at notification-render time only, never at ingestion.
const (
	DefaultReminderTitle = "Reminder"
	DefaultReminderBody  = "You have a reminder."
)

// Reminder is a task notification observed from the backend's unread list
// or pushed directly by a connected renderer.
type Reminder struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// DisplayTitle returns the notification title, falling back to the default
// when the stored title is blank.
func (r Reminder) DisplayTitle() string {
	if strings.TrimSpace(r.Title) == "" {
		return DefaultReminderTitle
	}
	return r.Title
}

// DisplayBody returns the notification body, falling back to a generic
// message when the stored content is blank.
func (r Reminder) DisplayBody() string {
	if strings.TrimSpace(r.Content) == "" {
		return DefaultReminderBody
	}
	return r.Content
}

// UnreadSnapshot is the result of one successful poll against the backend:
// the authoritative unread count plus any unread reminders eligible for
// local notification delivery.
type UnreadSnapshot struct {
	Count     int        `json:"count"`
	Reminders []Reminder `json:"reminders"`
}
