package notify

import (
	"github.com/gen2brain/beeep"
)

// BeeepPresenter shows notifications through the system notification
// daemon via gen2brain/beeep. It is display-only: beeep exposes no
// click or action events, so ActionsSupported is always false and the
// service's interaction mapping only fires for renderer-driven events.
type BeeepPresenter struct {
	appName string
}

// NewBeeepPresenter creates the production presenter.
func NewBeeepPresenter(appName string) *BeeepPresenter {
	beeep.AppName = appName
	return &BeeepPresenter{appName: appName}
}

// Supported reports whether notifications can be shown. beeep degrades
// gracefully everywhere it compiles, so this is always true; Show errors
// are still treated as a failed (false) delivery by the service.
func (p *BeeepPresenter) Supported() bool { return true }

// ActionsSupported is false: beeep cannot report button interaction.
func (p *BeeepPresenter) ActionsSupported() bool { return false }

// Show displays the notification, fire-and-forget.
func (p *BeeepPresenter) Show(n Notification) error {
	return beeep.Notify(n.Title, n.Body, "")
}
