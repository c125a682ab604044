package bridge

import (
	"encoding/json"
	"strings"
)

// Channel names shared with the renderer. These are the wire contract; the
// frontend's desktop bridge uses the same strings.
const (
	ChannelAuthToken        = "desktop:auth-token"
	ChannelUnreadCount      = "desktop:unread-count"
	ChannelPushReceipt      = "desktop:push-receipt"
	ChannelPushReminder     = "desktop:push-reminder"
	ChannelReminderOpen     = "desktop:reminder-open"
	ChannelFocus            = "desktop:focus"
	ChannelLaunchAtLoginGet = "desktop:launch-at-login:get"
	ChannelLaunchAtLoginSet = "desktop:launch-at-login:set"
)

// Frame is one bridge message in either direction. Invoke-style channels
// carry an ID the reply echoes back.
type Frame struct {
	Channel string          `json:"channel"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// PushReminderPayload is the renderer's desktop:push-reminder payload.
type PushReminderPayload struct {
	ReminderID int    `json:"reminderId"`
	Title      string `json:"title,omitempty"`
	Body       string `json:"body"`
}

// ReminderOpenPayload is sent to the renderer on desktop:reminder-open.
type ReminderOpenPayload struct {
	ReminderID int    `json:"reminderId"`
	Route      string `json:"route"`
}

// NormalizeToken coerces a raw auth-token payload to a usable bearer token.
// Non-string payloads, null, and blank strings all mean logged out.
func NormalizeToken(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// CoerceCount coerces a raw unread-count payload to a non-negative integer.
// Anything non-numeric or negative becomes 0.
func CoerceCount(raw json.RawMessage) int {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0
	}
	n := int(f)
	if n < 0 {
		return 0
	}
	return n
}

// ParseReminderID extracts a positive reminder id, rejecting anything else.
func ParseReminderID(raw json.RawMessage) (int, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	n := int(f)
	if n <= 0 || float64(n) != f {
		return 0, false
	}
	return n, true
}

// ParseBool extracts a boolean payload, defaulting to false.
func ParseBool(raw json.RawMessage) bool {
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false
	}
	return b
}
