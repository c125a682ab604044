package tray

import (
	"bytes"
	"runtime"
	"testing"
)

func TestClampCount(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{name: "negative", input: -1, expected: 0},
		{name: "large negative", input: -9999, expected: 0},
		{name: "zero", input: 0, expected: 0},
		{name: "positive", input: 12, expected: 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampCount(tt.input); got != tt.expected {
				t.Errorf("clampCount(%d) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFormatTooltip(t *testing.T) {
	if got := formatTooltip(0); got != "BusinessSuite: no unread reminders" {
		t.Errorf("formatTooltip(0) = %q", got)
	}
	if got := formatTooltip(3); got != "BusinessSuite: 3 unread reminders" {
		t.Errorf("formatTooltip(3) = %q", got)
	}
}

func TestGetOverlayIcon(t *testing.T) {
	s := NewService(Callbacks{})

	got := s.GetOverlayIcon()
	if runtime.GOOS != "windows" {
		if got != nil {
			t.Errorf("overlay icon on %s = %d bytes, want nil", runtime.GOOS, len(got))
		}
		return
	}
	if !bytes.Equal(got, iconUnread) {
		t.Error("overlay icon does not match the unread badge asset")
	}
}

func TestFormatStatus(t *testing.T) {
	tests := []struct {
		input    int
		expected string
	}{
		{0, "No unread reminders"},
		{1, "1 unread reminder"},
		{5, "5 unread reminders"},
	}
	for _, tt := range tests {
		if got := formatStatus(tt.input); got != tt.expected {
			t.Errorf("formatStatus(%d) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
