package bridge

import (
	"encoding/json"
	"testing"

	"github.com/iltoga/businesssuite-desktop/internal/models"
)

func TestNormalizeToken(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected string
		ok       bool
	}{
		{name: "plain token", payload: `"abc"`, expected: "abc", ok: true},
		{name: "trimmed", payload: `"  abc  "`, expected: "abc", ok: true},
		{name: "empty string", payload: `""`, ok: false},
		{name: "whitespace only", payload: `"   "`, ok: false},
		{name: "null", payload: `null`, ok: false},
		{name: "number", payload: `42`, ok: false},
		{name: "object", payload: `{"token":"x"}`, ok: false},
		{name: "missing payload", payload: ``, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeToken(json.RawMessage(tt.payload))
			if ok != tt.ok {
				t.Fatalf("NormalizeToken(%s) ok = %v, want %v", tt.payload, ok, tt.ok)
			}
			if ok && got != tt.expected {
				t.Errorf("NormalizeToken(%s) = %q, want %q", tt.payload, got, tt.expected)
			}
		})
	}
}

func TestCoerceCount(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected int
	}{
		{name: "positive", payload: `5`, expected: 5},
		{name: "zero", payload: `0`, expected: 0},
		{name: "negative", payload: `-3`, expected: 0},
		{name: "float truncated", payload: `2.9`, expected: 2},
		{name: "string", payload: `"many"`, expected: 0},
		{name: "null", payload: `null`, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CoerceCount(json.RawMessage(tt.payload)); got != tt.expected {
				t.Errorf("CoerceCount(%s) = %d, want %d", tt.payload, got, tt.expected)
			}
		})
	}
}

func TestParseReminderID(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected int
		ok       bool
	}{
		{name: "positive", payload: `7`, expected: 7, ok: true},
		{name: "zero", payload: `0`, ok: false},
		{name: "negative", payload: `-1`, ok: false},
		{name: "fractional", payload: `7.5`, ok: false},
		{name: "string", payload: `"7"`, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseReminderID(json.RawMessage(tt.payload))
			if ok != tt.ok {
				t.Fatalf("ParseReminderID(%s) ok = %v, want %v", tt.payload, ok, tt.ok)
			}
			if ok && got != tt.expected {
				t.Errorf("ParseReminderID(%s) = %d, want %d", tt.payload, got, tt.expected)
			}
		})
	}
}

func TestHandleFrameDispatch(t *testing.T) {
	var gotToken string
	var gotTokenOK bool
	var gotCount = -1
	var gotReceipt int
	var gotFocus bool

	s := New("https://crm.example.com", Handlers{
		OnAuthToken:   func(tok string, ok bool) { gotToken, gotTokenOK = tok, ok },
		OnUnreadCount: func(n int) { gotCount = n },
		OnPushReceipt: func(id int) { gotReceipt = id },
		OnFocus:       func(f bool) { gotFocus = f },
	}, false)

	s.handleFrame(nil, Frame{Channel: ChannelAuthToken, Payload: json.RawMessage(`"  abc  "`)})
	if gotToken != "abc" || !gotTokenOK {
		t.Errorf("auth-token handler got (%q, %v), want (abc, true)", gotToken, gotTokenOK)
	}

	s.handleFrame(nil, Frame{Channel: ChannelAuthToken, Payload: json.RawMessage(`""`)})
	if gotTokenOK {
		t.Error("empty token should normalize to logged-out")
	}

	s.handleFrame(nil, Frame{Channel: ChannelUnreadCount, Payload: json.RawMessage(`-5`)})
	if gotCount != 0 {
		t.Errorf("unread-count handler got %d, want 0", gotCount)
	}

	s.handleFrame(nil, Frame{Channel: ChannelPushReceipt, Payload: json.RawMessage(`7`)})
	if gotReceipt != 7 {
		t.Errorf("push-receipt handler got %d, want 7", gotReceipt)
	}

	// Invalid receipt id never reaches the handler.
	gotReceipt = 0
	s.handleFrame(nil, Frame{Channel: ChannelPushReceipt, Payload: json.RawMessage(`0`)})
	if gotReceipt != 0 {
		t.Errorf("invalid push-receipt dispatched: %d", gotReceipt)
	}

	s.handleFrame(nil, Frame{Channel: ChannelFocus, Payload: json.RawMessage(`true`)})
	if !gotFocus {
		t.Error("focus handler not invoked")
	}

	// Unknown channels are ignored without panicking.
	s.handleFrame(nil, Frame{Channel: "desktop:unknown", Payload: json.RawMessage(`1`)})
}

func TestHandleFramePushReminder(t *testing.T) {
	var got *models.Reminder
	s := New("https://crm.example.com", Handlers{
		OnPushReminder: func(r models.Reminder) { got = &r },
	}, false)

	s.handleFrame(nil, Frame{
		Channel: ChannelPushReminder,
		Payload: json.RawMessage(`{"reminderId":9,"title":"Visa","body":"Renew today"}`),
	})
	if got == nil {
		t.Fatal("push-reminder handler not invoked")
	}
	if got.ID != 9 || got.Title != "Visa" || got.Content != "Renew today" {
		t.Errorf("push-reminder mapped to %+v", got)
	}

	// Missing or invalid reminder id is dropped before the handler.
	got = nil
	s.handleFrame(nil, Frame{
		Channel: ChannelPushReminder,
		Payload: json.RawMessage(`{"body":"no id"}`),
	})
	if got != nil {
		t.Errorf("invalid push-reminder dispatched: %+v", got)
	}
}
