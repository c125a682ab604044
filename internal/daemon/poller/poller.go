// Package poller implements the reminder fallback poller: a repeating timer
// that fetches unread-reminder state from the backend so reminders still
// surface as system notifications when the renderer's own live connection
// is down.
package poller

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/iltoga/businesssuite-desktop/internal/models"
)

// DefaultInterval is the poll interval used when none is configured.
const DefaultInterval = 15 * time.Second

// Backend is the subset of the CRM backend the poller talks to.
type Backend interface {
	// FetchUnread returns the unread count and unread reminder list.
	FetchUnread(ctx context.Context, token string) (*models.UnreadSnapshot, error)

	// MarkRead marks a reminder as read server-side.
	MarkRead(ctx context.Context, token string, id int, metadata map[string]string) error
}

// Callbacks are invoked from poll ticks. OnReminder reports whether the
// reminder was delivered as a system notification; the poller itself does
// not care, delivery policy belongs to the coordinator.
type Callbacks struct {
	OnUnreadCount func(count int)
	OnReminder    func(reminder models.Reminder) bool
}

// Poller periodically fetches unread reminders and dispatches the ones not
// seen before. All exported methods are safe for concurrent use.
type Poller struct {
	backend Backend
	cb      Callbacks
	debug   bool

	mu        sync.Mutex
	interval  time.Duration
	token     string
	seen      map[int]struct{}
	stopCh    chan struct{}
	started   bool
	destroyed bool
}

// New creates a poller. A non-positive interval falls back to DefaultInterval.
func New(backend Backend, interval time.Duration, cb Callbacks, debug bool) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		backend:  backend,
		cb:       cb,
		debug:    debug,
		interval: interval,
		seen:     make(map[int]struct{}),
	}
}

// Start begins the repeating poll timer. Idempotent: calling twice never
// creates a second timer.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.destroyed {
		return
	}
	p.started = true
	p.stopCh = make(chan struct{})
	go p.loop(p.stopCh, p.interval)
	log.Printf("[poller] started (interval %s)", p.interval)
}

// Stop cancels the timer. Safe to call when not started.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Poller) stopLocked() {
	if !p.started {
		return
	}
	p.started = false
	close(p.stopCh)
	p.stopCh = nil
	log.Printf("[poller] stopped")
}

// Destroy stops the timer and releases resources. Terminal: the poller
// cannot be restarted afterwards.
func (p *Poller) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.destroyed = true
}

// SetAuthToken updates the bearer credential. An empty token means logged
// out: subsequent ticks skip network calls entirely and emit nothing.
func (p *Poller) SetAuthToken(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = token
}

// SetInterval retunes the repeating timer, restarting it if running.
// Non-positive values are ignored.
func (p *Poller) SetInterval(interval time.Duration) {
	if interval <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if interval == p.interval {
		return
	}
	p.interval = interval
	if p.started {
		close(p.stopCh)
		p.stopCh = make(chan struct{})
		go p.loop(p.stopCh, p.interval)
	}
	log.Printf("[poller] interval set to %s", interval)
}

// MarkReminderSeen records a reminder as already delivered without any
// network call. Used for renderer push-receipts so the next tick does not
// show a duplicate OS notification.
func (p *Poller) MarkReminderSeen(id int) {
	if id <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen[id] = struct{}{}
}

// MarkReminderRead issues an authenticated mark-read call. Failures are
// logged, never retried synchronously: the next poll reconciles the count.
func (p *Poller) MarkReminderRead(ctx context.Context, id int, metadata map[string]string) {
	p.mu.Lock()
	token := p.token
	p.seen[id] = struct{}{}
	p.mu.Unlock()

	if token == "" {
		log.Printf("[poller] mark-read %d skipped: no auth token", id)
		return
	}
	if err := p.backend.MarkRead(ctx, token, id, metadata); err != nil {
		log.Printf("[poller] mark-read %d failed: %v", id, err)
	}
}

func (p *Poller) loop(stopCh chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			p.tick(context.Background())
		}
	}
}

// tick performs one poll cycle. A failed tick never stops the timer and
// never panics out of the loop.
func (p *Poller) tick(ctx context.Context) {
	p.mu.Lock()
	token := p.token
	p.mu.Unlock()

	if token == "" {
		if p.debug {
			log.Printf("[poller] tick skipped: no auth token")
		}
		return
	}

	snapshot, err := p.backend.FetchUnread(ctx, token)
	if err != nil {
		log.Printf("[poller] fetch unread failed: %v", err)
		return
	}
	if snapshot == nil {
		return
	}

	// Count first, then per-reminder dispatch. A stale count must never
	// trail freshly delivered notifications.
	if p.cb.OnUnreadCount != nil {
		p.cb.OnUnreadCount(snapshot.Count)
	}

	for _, reminder := range snapshot.Reminders {
		if reminder.ID <= 0 {
			continue
		}

		// Mark seen before dispatching so an overlapping tick cannot
		// deliver the same reminder twice.
		p.mu.Lock()
		if _, ok := p.seen[reminder.ID]; ok {
			p.mu.Unlock()
			continue
		}
		p.seen[reminder.ID] = struct{}{}
		p.mu.Unlock()

		if p.cb.OnReminder != nil {
			delivered := p.cb.OnReminder(reminder)
			if p.debug {
				log.Printf("[poller] reminder %d dispatched (delivered=%v)", reminder.ID, delivered)
			}
		}
	}
}
