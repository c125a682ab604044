package daemon

import (
	"testing"
	"time"
)

func TestApplyRendererClampsNegative(t *testing.T) {
	var s unreadState
	now := time.Now()

	if got := s.applyRenderer(-5, now); got != 0 {
		t.Errorf("applyRenderer(-5) = %d, want 0", got)
	}
	if got := s.applyRenderer(4, now); got != 4 {
		t.Errorf("applyRenderer(4) = %d, want 4", got)
	}
}

func TestPollDiscardedInsideRendererWindow(t *testing.T) {
	var s unreadState
	t0 := time.Now()

	s.applyRenderer(2, t0)

	// Disagreeing poll inside the window is discarded.
	resolved, applied := s.applyPoll(5, t0.Add(5*time.Second))
	if applied {
		t.Error("disagreeing poll applied inside renderer-wins window")
	}
	if resolved != 2 {
		t.Errorf("resolved = %d, want renderer value 2", resolved)
	}

	// Agreeing poll inside the window is applied (no visible change).
	resolved, applied = s.applyPoll(2, t0.Add(6*time.Second))
	if !applied || resolved != 2 {
		t.Errorf("agreeing poll: resolved=%d applied=%v", resolved, applied)
	}
}

func TestPollAppliedAtWindowBoundary(t *testing.T) {
	var s unreadState
	t0 := time.Now()

	s.applyRenderer(2, t0)

	// Exactly at T+20s the renderer no longer wins.
	resolved, applied := s.applyPoll(5, t0.Add(rendererWinsTTL))
	if !applied {
		t.Error("poll at TTL boundary was discarded")
	}
	if resolved != 5 {
		t.Errorf("resolved = %d, want 5", resolved)
	}
}

func TestPollAppliedWithoutRendererHistory(t *testing.T) {
	var s unreadState

	resolved, applied := s.applyPoll(3, time.Now())
	if !applied || resolved != 3 {
		t.Errorf("first poll: resolved=%d applied=%v, want 3/true", resolved, applied)
	}

	resolved, applied = s.applyPoll(-1, time.Now())
	if !applied || resolved != 0 {
		t.Errorf("negative poll: resolved=%d applied=%v, want 0/true", resolved, applied)
	}
}

func TestResetClearsWindow(t *testing.T) {
	var s unreadState
	t0 := time.Now()

	s.applyRenderer(2, t0)
	s.reset()

	resolved, applied := s.applyPoll(7, t0.Add(time.Second))
	if !applied || resolved != 7 {
		t.Errorf("poll after reset: resolved=%d applied=%v, want 7/true", resolved, applied)
	}
}
