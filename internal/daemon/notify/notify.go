// Package notify renders reminders as native notifications and translates
// OS-level interaction events into semantic callbacks.
package notify

import (
	"log"
	"sync"

	"github.com/iltoga/businesssuite-desktop/internal/models"
)

// Action identifiers attached to notifications on platforms that support
// notification actions.
const (
	ActionMarkRead = "mark-read"
	ActionSnooze   = "snooze"
)

// SnoozeMinutes is the fixed snooze duration offered on a notification.
const SnoozeMinutes = 15

// RemindersRoute is the in-app route a notification click navigates to.
const RemindersRoute = "/reminders"

// Notification is what a presenter is asked to display.
type Notification struct {
	ReminderID int
	Title      string
	Body       string
	Actions    []string
}

// EventKind classifies a presenter interaction event.
type EventKind int

// Interaction event kinds.
const (
	EventClicked EventKind = iota
	EventAction
	EventClosed
)

// Event is an OS-level interaction with a shown notification.
type Event struct {
	ReminderID int
	Kind       EventKind
	Action     string // set when Kind == EventAction
}

// Presenter abstracts the OS notification backend so the service can be
// tested against a fake.
type Presenter interface {
	// Supported reports whether notifications can be shown at all.
	Supported() bool

	// ActionsSupported reports whether action buttons are available.
	ActionsSupported() bool

	// Show displays the notification. Interaction events, if the platform
	// produces any, arrive on the emit function passed at construction.
	Show(n Notification) error
}

// OpenRequest is passed to OnClick when the user activates a notification.
type OpenRequest struct {
	ReminderID int
	Route      string
}

// Callbacks receive semantic interaction events. All are fire-and-forget:
// the service never waits on their result.
type Callbacks struct {
	OnClick    func(OpenRequest)
	OnMarkRead func(reminderID int)
	OnSnooze   func(reminderID, minutes int)
	OnClose    func(reminderID int)
}

// Service shows one OS notification per reminder.
type Service struct {
	presenter Presenter
	cb        Callbacks

	mu          sync.Mutex
	actionTaken map[int]bool
}

// NewService creates a notification service over the given presenter.
func NewService(presenter Presenter, cb Callbacks) *Service {
	return &Service{
		presenter:   presenter,
		cb:          cb,
		actionTaken: make(map[int]bool),
	}
}

// ShowReminderNotification displays a native notification for the reminder.
// Returns false without side effects when notifications are unsupported.
func (s *Service) ShowReminderNotification(reminder models.Reminder) bool {
	if s.presenter == nil || !s.presenter.Supported() {
		return false
	}

	n := Notification{
		ReminderID: reminder.ID,
		Title:      reminder.DisplayTitle(),
		Body:       reminder.DisplayBody(),
	}
	if s.presenter.ActionsSupported() {
		n.Actions = []string{ActionMarkRead, ActionSnooze}
	}

	s.mu.Lock()
	delete(s.actionTaken, reminder.ID)
	s.mu.Unlock()

	if err := s.presenter.Show(n); err != nil {
		log.Printf("[notify] show reminder %d failed: %v", reminder.ID, err)
		return false
	}
	return true
}

// HandleEvent maps a presenter interaction event to the semantic callbacks.
// A close that follows an action on the same notification is swallowed so
// the action is not double-reported.
func (s *Service) HandleEvent(ev Event) {
	switch ev.Kind {
	case EventClicked:
		s.mu.Lock()
		taken := s.actionTaken[ev.ReminderID]
		s.mu.Unlock()
		if taken {
			return
		}
		if s.cb.OnClick != nil {
			s.cb.OnClick(OpenRequest{ReminderID: ev.ReminderID, Route: RemindersRoute})
		}

	case EventAction:
		s.mu.Lock()
		s.actionTaken[ev.ReminderID] = true
		s.mu.Unlock()
		switch ev.Action {
		case ActionMarkRead:
			if s.cb.OnMarkRead != nil {
				s.cb.OnMarkRead(ev.ReminderID)
			}
		case ActionSnooze:
			if s.cb.OnSnooze != nil {
				s.cb.OnSnooze(ev.ReminderID, SnoozeMinutes)
			}
		default:
			log.Printf("[notify] unknown notification action %q", ev.Action)
		}

	case EventClosed:
		s.mu.Lock()
		taken := s.actionTaken[ev.ReminderID]
		delete(s.actionTaken, ev.ReminderID)
		s.mu.Unlock()
		if taken {
			return
		}
		if s.cb.OnClose != nil {
			s.cb.OnClose(ev.ReminderID)
		}
	}
}
