package notify

import (
	"errors"
	"testing"

	"github.com/iltoga/businesssuite-desktop/internal/models"
)

type fakePresenter struct {
	supported bool
	actions   bool
	showErr   error
	shown     []Notification
}

func (f *fakePresenter) Supported() bool        { return f.supported }
func (f *fakePresenter) ActionsSupported() bool { return f.actions }

func (f *fakePresenter) Show(n Notification) error {
	if f.showErr != nil {
		return f.showErr
	}
	f.shown = append(f.shown, n)
	return nil
}

func TestShowReminderNotification(t *testing.T) {
	tests := []struct {
		name      string
		reminder  models.Reminder
		wantTitle string
		wantBody  string
	}{
		{
			name:      "full reminder",
			reminder:  models.Reminder{ID: 7, Title: "Visa", Content: "Renew"},
			wantTitle: "Visa",
			wantBody:  "Renew",
		},
		{
			name:      "blank title falls back",
			reminder:  models.Reminder{ID: 8, Title: "  ", Content: "Renew"},
			wantTitle: "Reminder",
			wantBody:  "Renew",
		},
		{
			name:      "blank body falls back",
			reminder:  models.Reminder{ID: 9, Title: "Visa"},
			wantTitle: "Visa",
			wantBody:  "You have a reminder.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePresenter{supported: true, actions: true}
			s := NewService(p, Callbacks{})

			if !s.ShowReminderNotification(tt.reminder) {
				t.Fatal("ShowReminderNotification returned false")
			}
			if len(p.shown) != 1 {
				t.Fatalf("presenter shown %d notifications, want 1", len(p.shown))
			}
			n := p.shown[0]
			if n.Title != tt.wantTitle || n.Body != tt.wantBody {
				t.Errorf("shown title/body = %q/%q, want %q/%q", n.Title, n.Body, tt.wantTitle, tt.wantBody)
			}
			if len(n.Actions) != 2 {
				t.Errorf("actions = %v, want mark-read and snooze", n.Actions)
			}
		})
	}
}

func TestShowUnsupportedIsNoOp(t *testing.T) {
	p := &fakePresenter{supported: false}
	s := NewService(p, Callbacks{})

	if s.ShowReminderNotification(models.Reminder{ID: 1}) {
		t.Error("expected false when notifications unsupported")
	}
	if len(p.shown) != 0 {
		t.Errorf("presenter shown %d notifications, want 0", len(p.shown))
	}
}

func TestShowErrorReturnsFalse(t *testing.T) {
	p := &fakePresenter{supported: true, showErr: errors.New("dbus unavailable")}
	s := NewService(p, Callbacks{})

	if s.ShowReminderNotification(models.Reminder{ID: 1, Content: "x"}) {
		t.Error("expected false when presenter fails")
	}
}

func TestActionsOmittedWhenUnsupported(t *testing.T) {
	p := &fakePresenter{supported: true, actions: false}
	s := NewService(p, Callbacks{})

	s.ShowReminderNotification(models.Reminder{ID: 1, Content: "x"})
	if len(p.shown[0].Actions) != 0 {
		t.Errorf("actions attached on platform without action support: %v", p.shown[0].Actions)
	}
}

func TestClickInvokesOnClick(t *testing.T) {
	var opened []OpenRequest
	s := NewService(&fakePresenter{supported: true}, Callbacks{
		OnClick: func(req OpenRequest) { opened = append(opened, req) },
	})
	s.ShowReminderNotification(models.Reminder{ID: 7, Content: "x"})

	s.HandleEvent(Event{ReminderID: 7, Kind: EventClicked})

	if len(opened) != 1 || opened[0].ReminderID != 7 || opened[0].Route != "/reminders" {
		t.Errorf("OnClick got %v", opened)
	}
}

func TestActionSuppressesFollowingClose(t *testing.T) {
	markRead := 0
	closed := 0
	s := NewService(&fakePresenter{supported: true, actions: true}, Callbacks{
		OnMarkRead: func(int) { markRead++ },
		OnClose:    func(int) { closed++ },
	})
	s.ShowReminderNotification(models.Reminder{ID: 7, Content: "x"})

	s.HandleEvent(Event{ReminderID: 7, Kind: EventAction, Action: ActionMarkRead})
	s.HandleEvent(Event{ReminderID: 7, Kind: EventClosed})

	if markRead != 1 {
		t.Errorf("OnMarkRead called %d times, want 1", markRead)
	}
	if closed != 0 {
		t.Errorf("OnClose called %d times after action, want 0", closed)
	}
}

func TestSnoozeCarriesMinutes(t *testing.T) {
	var gotID, gotMinutes int
	s := NewService(&fakePresenter{supported: true, actions: true}, Callbacks{
		OnSnooze: func(id, minutes int) { gotID, gotMinutes = id, minutes },
	})
	s.ShowReminderNotification(models.Reminder{ID: 7, Content: "x"})

	s.HandleEvent(Event{ReminderID: 7, Kind: EventAction, Action: ActionSnooze})

	if gotID != 7 || gotMinutes != 15 {
		t.Errorf("OnSnooze got (%d, %d), want (7, 15)", gotID, gotMinutes)
	}
}

func TestUnassistedCloseInvokesOnClose(t *testing.T) {
	closed := 0
	s := NewService(&fakePresenter{supported: true}, Callbacks{
		OnClose: func(int) { closed++ },
	})
	s.ShowReminderNotification(models.Reminder{ID: 7, Content: "x"})

	s.HandleEvent(Event{ReminderID: 7, Kind: EventClosed})

	if closed != 1 {
		t.Errorf("OnClose called %d times, want 1", closed)
	}
}
