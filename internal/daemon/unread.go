package daemon

import "time"

// rendererWinsTTL is how long an explicit renderer-pushed count outranks a
// disagreeing poll result. The backend's read replica can lag a user's
// mark-as-read by a few seconds; without this window the badge would
// visibly revert right after the user acted.
const rendererWinsTTL = 20 * time.Second

// unreadState arbitrates the unread counter between its two writers: the
// renderer (explicit user intent) and the poller (passive observation).
// Mutation happens only under the coordinator's lock.
type unreadState struct {
	rendererCount int
	rendererAt    time.Time
	polledCount   int
	resolved      int
}

// applyRenderer records a renderer-pushed count. Renderer values are
// always applied and stamp the TTL window.
func (s *unreadState) applyRenderer(count int, now time.Time) int {
	if count < 0 {
		count = 0
	}
	s.rendererCount = count
	s.rendererAt = now
	s.resolved = count
	return count
}

// applyPoll records a polled count. The poll is discarded when it arrives
// inside the renderer-wins window and disagrees with the last renderer
// value. Returns the resolved count and whether the poll was applied.
func (s *unreadState) applyPoll(count int, now time.Time) (int, bool) {
	if count < 0 {
		count = 0
	}
	s.polledCount = count
	if !s.rendererAt.IsZero() && now.Sub(s.rendererAt) < rendererWinsTTL && count != s.rendererCount {
		return s.resolved, false
	}
	s.resolved = count
	return count, true
}

// reset clears all counters, e.g. on logout.
func (s *unreadState) reset() {
	*s = unreadState{}
}
