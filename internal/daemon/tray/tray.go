// Package tray implements the system tray icon and menu for the daemon.
package tray

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/getlantern/systray"
)

// Callbacks wire tray interactions back to the coordinator. The tray never
// touches shared state directly.
type Callbacks struct {
	OnOpen                 func()
	OnCheckUpdates         func()
	OnToggleLaunchAtLogin  func(enable bool) bool // returns resulting OS state
	OnQuit                 func()
	LaunchAtLoginSupported func() bool
	LaunchAtLoginEnabled   func() bool
}

// Run starts the system tray event loop. This blocks the calling goroutine
// and must run on main (Cocoa requirement on macOS). onReady is where the
// rest of the daemon boots.
func Run(onReady, onExit func()) {
	systray.Run(onReady, onExit)
}

// Quit signals the tray loop to exit.
func Quit() {
	systray.Quit()
}

// Service owns the tray icon, tooltip, and context menu.
type Service struct {
	cb Callbacks

	mu          sync.Mutex
	initialized bool
	destroyed   bool
	unread      int

	statusItem  *systray.MenuItem
	openItem    *systray.MenuItem
	updatesItem *systray.MenuItem
	launchItem  *systray.MenuItem
	consentItem *systray.MenuItem
	quitItem    *systray.MenuItem

	stopCh chan struct{}
}

// NewService creates the tray service. Initialize must be called from
// within the tray's onReady callback.
func NewService(cb Callbacks) *Service {
	return &Service{cb: cb}
}

// Initialize creates the tray icon and menu. Idempotent.
func (s *Service) Initialize() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized || s.destroyed {
		return
	}
	s.initialized = true
	s.stopCh = make(chan struct{})

	systray.SetTemplateIcon(iconDefault, iconDefault)
	systray.SetTooltip(formatTooltip(0))

	header := systray.AddMenuItem("BusinessSuite Desktop", "")
	header.Disable()

	s.statusItem = systray.AddMenuItem(formatStatus(0), "")
	s.statusItem.Disable()

	systray.AddSeparator()

	s.openItem = systray.AddMenuItem("Open BusinessSuite", "Open the CRM in your browser")
	s.updatesItem = systray.AddMenuItem("Check for Updates", "Check for a new version now")
	s.launchItem = systray.AddMenuItemCheckbox("Launch at Login", "Start the desktop agent when you log in", false)

	// Hidden consent slot, shown while an update prompt is pending.
	s.consentItem = systray.AddMenuItem("", "")
	s.consentItem.Hide()

	systray.AddSeparator()
	s.quitItem = systray.AddMenuItem("Quit", "Shut down the desktop agent")

	s.refreshLaunchItemLocked()

	go s.handleClicks(s.stopCh)
}

// SetUnreadCount updates every unread surface at once: tooltip, icon
// variant, macOS badge title, and the menu count line. Negative or invalid
// input is clamped to zero.
func (s *Service) SetUnreadCount(n int) {
	n = clampCount(n)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.unread = n
	if !s.initialized || s.destroyed {
		return
	}

	systray.SetTooltip(formatTooltip(n))
	switch {
	case n > 0 && runtime.GOOS == "windows":
		// Windows gets the overlay badge variant as a plain icon;
		// template icons are a macOS concept.
		systray.SetIcon(s.GetOverlayIcon())
	case n > 0:
		systray.SetTemplateIcon(iconUnread, iconUnread)
	default:
		systray.SetTemplateIcon(iconDefault, iconDefault)
	}
	if runtime.GOOS == "darwin" {
		if n > 0 {
			systray.SetTitle(fmt.Sprintf("%d", n))
		} else {
			systray.SetTitle("")
		}
	}
	s.statusItem.SetTitle(formatStatus(n))
}

// GetOverlayIcon returns the badge icon for platforms with a taskbar
// overlay (Windows). Nil elsewhere.
func (s *Service) GetOverlayIcon() []byte {
	if runtime.GOOS != "windows" {
		return nil
	}
	return iconUnread
}

// RefreshMenu re-syncs menu state that can change behind the tray's back,
// currently the launch-at-login checkbox.
func (s *Service) RefreshMenu() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized || s.destroyed {
		return
	}
	s.refreshLaunchItemLocked()
}

func (s *Service) refreshLaunchItemLocked() {
	supported := s.cb.LaunchAtLoginSupported != nil && s.cb.LaunchAtLoginSupported()
	if !supported {
		s.launchItem.Disable()
		return
	}
	s.launchItem.Enable()
	if s.cb.LaunchAtLoginEnabled != nil && s.cb.LaunchAtLoginEnabled() {
		s.launchItem.Check()
	} else {
		s.launchItem.Uncheck()
	}
}

// PromptConsent surfaces a clickable menu item (e.g. "Download update
// v2.0") and waits for a click or the timeout. A click means consent.
func (s *Service) PromptConsent(title string, timeout time.Duration) bool {
	s.mu.Lock()
	if !s.initialized || s.destroyed {
		s.mu.Unlock()
		return false
	}
	item := s.consentItem
	s.mu.Unlock()

	item.SetTitle(title)
	item.Show()
	defer item.Hide()

	select {
	case <-item.ClickedCh:
		return true
	case <-time.After(timeout):
		return false
	case <-s.stopCh:
		return false
	}
}

// Destroy tears down the tray service. Terminal and idempotent. The icon
// itself is removed when the surrounding systray loop exits.
func (s *Service) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	s.destroyed = true
	if s.initialized {
		close(s.stopCh)
	}
}

func (s *Service) handleClicks(stopCh chan struct{}) {
	for {
		select {
		case <-stopCh:
			return

		case <-s.openItem.ClickedCh:
			if s.cb.OnOpen != nil {
				s.cb.OnOpen()
			}

		case <-s.updatesItem.ClickedCh:
			if s.cb.OnCheckUpdates != nil {
				s.cb.OnCheckUpdates()
			}

		case <-s.launchItem.ClickedCh:
			s.toggleLaunchAtLogin()

		case <-s.quitItem.ClickedCh:
			log.Printf("[tray] quit requested")
			if s.cb.OnQuit != nil {
				s.cb.OnQuit()
			}
		}
	}
}

func (s *Service) toggleLaunchAtLogin() {
	if s.cb.OnToggleLaunchAtLogin == nil {
		return
	}
	enable := !s.launchItem.Checked()
	result := s.cb.OnToggleLaunchAtLogin(enable)
	if result {
		s.launchItem.Check()
	} else {
		s.launchItem.Uncheck()
	}
}

// clampCount coerces an unread count to a non-negative integer.
func clampCount(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func formatTooltip(unread int) string {
	if unread == 0 {
		return "BusinessSuite: no unread reminders"
	}
	return fmt.Sprintf("BusinessSuite: %d unread reminders", unread)
}

func formatStatus(unread int) string {
	if unread == 0 {
		return "No unread reminders"
	}
	if unread == 1 {
		return "1 unread reminder"
	}
	return fmt.Sprintf("%d unread reminders", unread)
}
