// Package daemon wires the poller, notifier, tray, bridge, updater, and
// stores into one process. It owns the shared state the services must not
// touch directly: the unread counter, the focus flag, and the quitting flag.
package daemon

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"github.com/iltoga/businesssuite-desktop/internal/autostart"
	"github.com/iltoga/businesssuite-desktop/internal/buildinfo"
	"github.com/iltoga/businesssuite-desktop/internal/config"
	"github.com/iltoga/businesssuite-desktop/internal/daemon/bridge"
	"github.com/iltoga/businesssuite-desktop/internal/daemon/notify"
	"github.com/iltoga/businesssuite-desktop/internal/daemon/poller"
	"github.com/iltoga/businesssuite-desktop/internal/daemon/tray"
	"github.com/iltoga/businesssuite-desktop/internal/daemon/update"
	"github.com/iltoga/businesssuite-desktop/internal/keychain"
	"github.com/iltoga/businesssuite-desktop/internal/models"
	"github.com/iltoga/businesssuite-desktop/internal/store"
)

// snoozeSweepInterval is how often due snoozes are re-delivered.
const snoozeSweepInterval = 30 * time.Second

// consentTimeout is how long an update consent menu item stays clickable
// before the prompt counts as declined.
const consentTimeout = 5 * time.Minute

// Coordinator composes the daemon's services and mediates between them.
type Coordinator struct {
	cfg config.Config

	store    *store.Store
	keys     *keychain.Keychain
	poller   *poller.Poller
	notifier *notify.Service
	tray     *tray.Service
	bridge   *bridge.Server
	updates  *update.Orchestrator
	watcher  *settingsWatcher

	mu       sync.Mutex
	unread   unreadState
	focused  bool
	quitting bool
	recent   map[int]models.Reminder // reminders shown recently, for snooze re-delivery

	stopCh chan struct{}
}

// New creates a coordinator for the resolved configuration. Start boots it.
func New(cfg config.Config) *Coordinator {
	return &Coordinator{
		cfg:    cfg,
		recent: make(map[int]models.Reminder),
		stopCh: make(chan struct{}),
	}
}

// Start boots every service. Must be called from the tray's onReady
// callback. Optional services (history store, keychain) log and degrade
// instead of failing the boot; only the bridge is load-bearing.
func (c *Coordinator) Start() error {
	if err := config.EnsureGlobalDir(); err != nil {
		return err
	}

	if path, err := config.GlobalHistoryDB(); err == nil {
		if s, err := store.Open(path); err != nil {
			log.Printf("[daemon] history store unavailable: %v", err)
		} else {
			c.store = s
		}
	}

	if dir, err := config.GlobalKeyringDir(); err == nil {
		if k, err := keychain.Open(dir); err != nil {
			log.Printf("[daemon] keychain unavailable: %v", err)
		} else {
			c.keys = k
		}
	}

	c.notifier = notify.NewService(notify.NewBeeepPresenter("BusinessSuite"), notify.Callbacks{
		OnClick:    c.handleNotificationClick,
		OnMarkRead: c.handleMarkRead,
		OnSnooze:   c.handleSnooze,
		OnClose: func(id int) {
			if c.cfg.Debug {
				log.Printf("[daemon] notification for reminder %d dismissed", id)
			}
		},
	})

	c.poller = poller.New(
		poller.NewHTTPBackend(c.cfg.AllowedOrigin, nil),
		c.cfg.PollInterval,
		poller.Callbacks{
			OnUnreadCount: c.handlePolledCount,
			OnReminder:    c.handleReminder,
		},
		c.cfg.Debug,
	)

	c.tray = tray.NewService(tray.Callbacks{
		OnOpen: func() { c.openURL(c.cfg.StartURL) },
		OnCheckUpdates: func() {
			// The tray comes up before the orchestrator during boot.
			if c.updates != nil {
				c.updates.CheckNow()
			}
		},
		OnToggleLaunchAtLogin: func(enable bool) bool {
			return autostart.Set(enable)
		},
		OnQuit:                 c.RequestQuit,
		LaunchAtLoginSupported: autostart.Supported,
		LaunchAtLoginEnabled:   autostart.Enabled,
	})
	c.tray.Initialize()

	// Resume polling with the persisted token; the renderer re-publishes a
	// fresh one once it connects.
	if c.keys != nil {
		if token, err := c.keys.Token(); err != nil {
			log.Printf("[daemon] stored token unavailable: %v", err)
		} else if token != "" {
			c.poller.SetAuthToken(token)
		}
	}

	c.bridge = bridge.New(c.cfg.AllowedOrigin, bridge.Handlers{
		OnAuthToken:      c.handleAuthToken,
		OnUnreadCount:    c.handleRendererCount,
		OnPushReceipt:    c.handlePushReceipt,
		OnPushReminder:   c.handlePushReminder,
		OnFocus:          c.handleFocus,
		GetLaunchAtLogin: autostart.Enabled,
		SetLaunchAtLogin: autostart.Set,
		OnOpenRequest:    func() { c.openURL(c.cfg.StartURL) },
		OnDisconnect:     c.handleRendererGone,
		Status:           c.status,
	}, c.cfg.Debug)

	port, err := c.bridge.Start(c.cfg.BridgePort)
	if err != nil {
		return err
	}

	if err := config.SaveDaemonInfo(models.NewDaemonInfo("127.0.0.1", port, os.Getpid())); err != nil {
		log.Printf("[daemon] failed to write daemon file: %v", err)
	}

	c.updates = update.New(update.GitHubSource{}, &trayPrompter{c: c}, update.Config{
		Disabled: c.cfg.AutoUpdateDisabled,
		DevBuild: buildinfo.IsDev(),
		FirstRun: config.FirstRunMarkerPresent(),
	}, update.Hooks{
		OnInstallBegin: c.beginInstallTeardown,
		Relaunch:       update.Relaunch,
	})
	c.updates.Start()

	c.poller.Start()
	go c.snoozeLoop()

	if w, err := startSettingsWatcher(c); err != nil {
		log.Printf("[daemon] settings watcher unavailable: %v", err)
	} else {
		c.watcher = w
	}

	log.Printf("[daemon] started v%s, bridge on port %d", buildinfo.Version, port)
	return nil
}

// RequestQuit flips the quitting flag and exits the tray loop. The actual
// teardown runs in Shutdown via the tray's onExit callback.
func (c *Coordinator) RequestQuit() {
	c.mu.Lock()
	already := c.quitting
	c.quitting = true
	c.mu.Unlock()
	if already {
		return
	}
	tray.Quit()
}

// Quitting reports whether shutdown has been requested.
func (c *Coordinator) Quitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quitting
}

// Shutdown tears the daemon down. Called from the tray's onExit callback,
// so it must not call tray.Quit itself.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	c.quitting = true
	c.mu.Unlock()

	close(c.stopCh)

	if c.watcher != nil {
		c.watcher.stop()
	}
	if c.poller != nil {
		c.poller.Destroy()
	}
	if c.updates != nil {
		c.updates.Stop()
		c.updates.InstallStagedOnQuit()
	}
	if c.bridge != nil {
		c.bridge.Stop(context.Background())
	}
	if c.tray != nil {
		c.tray.Destroy()
	}
	if c.store != nil {
		_ = c.store.Close()
	}
	if err := config.RemoveDaemonInfo(); err != nil {
		log.Printf("[daemon] failed to remove daemon file: %v", err)
	}
	log.Printf("[daemon] stopped")

	// An immediate install ends by starting the new binary; this call does
	// not return in that case.
	if c.updates != nil {
		c.updates.RelaunchIfInstalling()
	}
}

// beginInstallTeardown is the orchestrator's OnInstallBegin hook: the
// process is now committed to exiting for the update.
func (c *Coordinator) beginInstallTeardown() {
	c.mu.Lock()
	c.quitting = true
	c.mu.Unlock()
	c.poller.Stop()
	tray.Quit()
}

// status snapshots the daemon for GET /status.
func (c *Coordinator) status() bridge.Status {
	c.mu.Lock()
	unread := c.unread.resolved
	c.mu.Unlock()
	staged := ""
	if c.updates != nil {
		staged = c.updates.StagedVersion()
	}
	return bridge.Status{
		Version:           buildinfo.Version,
		Unread:            unread,
		RendererConnected: c.bridge.ConnectedCount() > 0,
		StagedUpdate:      staged,
	}
}

// --- unread count plumbing ---

func (c *Coordinator) handlePolledCount(count int) {
	c.mu.Lock()
	resolved, applied := c.unread.applyPoll(count, time.Now())
	c.mu.Unlock()
	if !applied {
		if c.cfg.Debug {
			log.Printf("[daemon] polled count %d discarded, renderer value is fresher", count)
		}
		return
	}
	c.applyResolvedCount(resolved)
}

func (c *Coordinator) handleRendererCount(count int) {
	c.mu.Lock()
	resolved := c.unread.applyRenderer(count, time.Now())
	c.mu.Unlock()
	c.applyResolvedCount(resolved)
}

// applyResolvedCount pushes the arbitrated count to every surface at once.
func (c *Coordinator) applyResolvedCount(count int) {
	c.tray.SetUnreadCount(count)
	c.bridge.Broadcast(bridge.ChannelUnreadCount, count)
}

// --- auth ---

// handleAuthToken reacts to the renderer publishing or clearing its bearer
// token. A cleared token means logout: polling pauses and the badge resets.
func (c *Coordinator) handleAuthToken(token string, ok bool) {
	if !ok {
		log.Printf("[daemon] auth token cleared, pausing reminder polling")
		c.poller.SetAuthToken("")
		if c.keys != nil {
			if err := c.keys.Clear(); err != nil {
				log.Printf("[daemon] failed to clear stored token: %v", err)
			}
		}
		c.mu.Lock()
		c.unread.reset()
		c.mu.Unlock()
		c.applyResolvedCount(0)
		return
	}

	c.poller.SetAuthToken(token)
	if c.keys != nil {
		if err := c.keys.SaveToken(token); err != nil {
			log.Printf("[daemon] failed to persist token: %v", err)
		}
	}
}

// --- reminder delivery ---

// handleReminder decides whether a newly seen reminder becomes an OS
// notification. Suppressed while the CRM tab is focused: the user is
// already looking at the app.
func (c *Coordinator) handleReminder(reminder models.Reminder) bool {
	c.mu.Lock()
	c.recent[reminder.ID] = reminder
	suppressed := c.focused && c.bridge.ConnectedCount() > 0
	c.mu.Unlock()

	if suppressed {
		if c.cfg.Debug {
			log.Printf("[daemon] reminder %d suppressed, renderer focused", reminder.ID)
		}
		return false
	}
	return c.deliver(reminder)
}

func (c *Coordinator) deliver(reminder models.Reminder) bool {
	delivered := c.notifier.ShowReminderNotification(reminder)
	if delivered && c.store != nil {
		if err := c.store.RecordDelivery(reminder, time.Now()); err != nil {
			log.Printf("[daemon] failed to record delivery: %v", err)
		}
	}
	return delivered
}

// handlePushReminder shows a reminder the renderer received over its own
// push channel. Marking it seen keeps the poller from delivering it again.
func (c *Coordinator) handlePushReminder(reminder models.Reminder) {
	c.poller.MarkReminderSeen(reminder.ID)
	c.handleReminder(reminder)
}

// handlePushReceipt records that the renderer already surfaced a reminder,
// so the fallback poller must stay quiet about it.
func (c *Coordinator) handlePushReceipt(reminderID int) {
	c.poller.MarkReminderSeen(reminderID)
}

func (c *Coordinator) handleFocus(focused bool) {
	c.mu.Lock()
	c.focused = focused
	c.mu.Unlock()
}

func (c *Coordinator) handleRendererGone() {
	c.mu.Lock()
	c.focused = false
	c.mu.Unlock()
	log.Printf("[daemon] last renderer disconnected")
}

// --- notification interactions ---

// handleNotificationClick surfaces the app at the reminders view. With a
// renderer attached the navigation happens in place; otherwise the default
// browser opens the CRM.
func (c *Coordinator) handleNotificationClick(req notify.OpenRequest) {
	if c.bridge.ConnectedCount() > 0 {
		c.bridge.Broadcast(bridge.ChannelReminderOpen, bridge.ReminderOpenPayload{
			ReminderID: req.ReminderID,
			Route:      req.Route,
		})
		return
	}
	c.openURL(c.cfg.StartURL + req.Route)
}

func (c *Coordinator) handleMarkRead(reminderID int) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		c.poller.MarkReminderRead(ctx, reminderID, map[string]string{
			"source": "notification",
			"action": notify.ActionMarkRead,
		})
	}()
}

func (c *Coordinator) handleSnooze(reminderID, minutes int) {
	if c.store == nil {
		log.Printf("[daemon] snooze for reminder %d dropped, no history store", reminderID)
		return
	}
	c.mu.Lock()
	reminder, ok := c.recent[reminderID]
	c.mu.Unlock()
	if !ok {
		reminder = models.Reminder{ID: reminderID}
	}
	due := time.Now().Add(time.Duration(minutes) * time.Minute)
	if err := c.store.AddSnooze(reminder, due); err != nil {
		log.Printf("[daemon] failed to snooze reminder %d: %v", reminderID, err)
		return
	}
	log.Printf("[daemon] reminder %d snoozed until %s", reminderID, due.Format(time.Kitchen))
}

// snoozeLoop re-delivers snoozed reminders once their due time passes.
func (c *Coordinator) snoozeLoop() {
	if c.store == nil {
		return
	}
	ticker := time.NewTicker(snoozeSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			due, err := c.store.TakeDueSnoozes(time.Now())
			if err != nil {
				log.Printf("[daemon] snooze sweep failed: %v", err)
				continue
			}
			for _, reminder := range due {
				c.deliver(reminder)
			}
		}
	}
}

// --- update consent ---

// trayPrompter answers update consent prompts through the tray menu: a
// temporary menu item appears and a click within the timeout means yes.
type trayPrompter struct {
	c *Coordinator
}

func (p *trayPrompter) ConfirmDownload(version string) bool {
	p.c.notifier.ShowReminderNotification(models.Reminder{
		ID:      -1,
		Title:   "Update available",
		Content: "BusinessSuite Desktop v" + version + " is available. Open the tray menu to download it.",
	})
	return p.c.tray.PromptConsent("Download update v"+version, consentTimeout)
}

func (p *trayPrompter) ConfirmInstall(version string) bool {
	return p.c.tray.PromptConsent("Restart to install v"+version, consentTimeout)
}
