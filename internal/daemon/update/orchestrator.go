// Package update drives the auto-update state machine: scheduled checks,
// user consent, download, install, and the forced-relaunch fallback.
package update

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/iltoga/businesssuite-desktop/internal/updater"
)

// Default scheduling values.
const (
	DefaultStartupDelay  = 10 * time.Second
	DefaultCheckInterval = 4 * time.Hour
	DefaultExitGrace     = 5 * time.Second
)

// Flags is the update lifecycle state. At most one of each is true;
// InstallInProgress is terminal for the process once set.
type Flags struct {
	CheckInProgress    bool
	DownloadInProgress bool
	PromptInProgress   bool
	InstallInProgress  bool
}

// Prompter asks the user for consent. Implementations may block (they run
// on the orchestrator's goroutine, never the caller's).
type Prompter interface {
	ConfirmDownload(version string) bool
	ConfirmInstall(version string) bool
}

// Source abstracts the release feed and binary replacement so tests can
// run the full state machine without the network.
type Source interface {
	Check() (*updater.UpdateResult, error)
	Download(release *updater.ReleaseInfo) (string, error)
	Apply(stagedPath string) error
}

// Hooks let the coordinator participate in terminal teardown.
type Hooks struct {
	// OnInstallBegin runs once when an immediate install starts: the
	// coordinator stops the poller, flips its quitting flag, and begins
	// shutting the process down.
	OnInstallBegin func()

	// Relaunch starts the freshly installed binary and terminates this
	// process. Called at the end of a clean install teardown, or by the
	// safety timer if that teardown hangs.
	Relaunch func()
}

// Config controls scheduling and skip rules.
type Config struct {
	Disabled      bool // env flag or settings
	DevBuild      bool // unpackaged builds never update
	FirstRun      bool // installer first-run marker present
	StartupDelay  time.Duration
	CheckInterval time.Duration
	ExitGrace     time.Duration
}

func (c Config) withDefaults() Config {
	if c.StartupDelay <= 0 {
		c.StartupDelay = DefaultStartupDelay
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = DefaultCheckInterval
	}
	if c.ExitGrace <= 0 {
		c.ExitGrace = DefaultExitGrace
	}
	return c
}

// Orchestrator owns the update lifecycle for the process.
type Orchestrator struct {
	source   Source
	prompter Prompter
	hooks    Hooks
	cfg      Config

	mu            sync.Mutex
	flags         Flags
	staged        string // downloaded binary path, empty until downloaded
	stagedVersion string
	stopCh        chan struct{}
	started       bool
	safety        *time.Timer
	applyDone     chan struct{} // closed once InstallNow finished the binary swap
}

// New creates an orchestrator. Start must be called to begin scheduling.
func New(source Source, prompter Prompter, cfg Config, hooks Hooks) *Orchestrator {
	return &Orchestrator{
		source:   source,
		prompter: prompter,
		hooks:    hooks,
		cfg:      cfg.withDefaults(),
	}
}

// Start arms the check schedule: first check after the startup delay, then
// on a fixed interval. Skipped entirely for dev builds, disabled installs,
// and the first launch after install.
func (o *Orchestrator) Start() {
	switch {
	case o.cfg.Disabled:
		log.Printf("[update] auto-update disabled, scheduler not started")
		return
	case o.cfg.DevBuild:
		log.Printf("[update] dev build, scheduler not started")
		return
	case o.cfg.FirstRun:
		log.Printf("[update] first run after install, scheduler not started")
		return
	}

	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return
	}
	o.started = true
	o.stopCh = make(chan struct{})
	stopCh := o.stopCh
	o.mu.Unlock()

	go func() {
		select {
		case <-stopCh:
			return
		case <-time.After(o.cfg.StartupDelay):
		}
		o.runCheck()

		ticker := time.NewTicker(o.cfg.CheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				o.runCheck()
			}
		}
	}()
}

// Stop cancels the check schedule. Mid-install the safety timer stays
// armed: it is the hung-teardown fallback, and RelaunchIfInstalling
// disarms it once the teardown completes cleanly.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started {
		o.started = false
		close(o.stopCh)
		o.stopCh = nil
	}
	if o.safety != nil && !o.flags.InstallInProgress {
		o.safety.Stop()
		o.safety = nil
	}
}

// CheckNow runs a check outside the schedule (tray menu). Non-blocking.
func (o *Orchestrator) CheckNow() {
	go o.runCheck()
}

// CurrentFlags returns a snapshot of the lifecycle flags.
func (o *Orchestrator) CurrentFlags() Flags {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.flags
}

// StagedVersion returns the downloaded-but-not-installed version, if any.
func (o *Orchestrator) StagedVersion() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stagedVersion
}

func (o *Orchestrator) runCheck() {
	o.mu.Lock()
	if o.flags.CheckInProgress || o.flags.InstallInProgress {
		o.mu.Unlock()
		return
	}
	o.flags.CheckInProgress = true
	o.mu.Unlock()

	result, err := o.source.Check()

	o.mu.Lock()
	o.flags.CheckInProgress = false
	o.mu.Unlock()

	if err != nil {
		log.Printf("[update] check failed: %v", err)
		return
	}
	if !result.Available {
		log.Printf("[update] up to date (v%s)", result.CurrentVersion)
		return
	}
	log.Printf("[update] update available: v%s → v%s", result.CurrentVersion, result.LatestVersion)
	o.handleAvailable(result)
}

func (o *Orchestrator) handleAvailable(result *updater.UpdateResult) {
	o.mu.Lock()
	// A duplicate "available" while downloading or installing is ignored;
	// one already staged waits for install consent or quit.
	if o.flags.DownloadInProgress || o.flags.InstallInProgress || o.staged != "" {
		o.mu.Unlock()
		return
	}
	if o.flags.PromptInProgress {
		o.mu.Unlock()
		return
	}
	o.flags.PromptInProgress = true
	o.mu.Unlock()

	consent := o.prompter.ConfirmDownload(result.LatestVersion)

	o.mu.Lock()
	o.flags.PromptInProgress = false
	o.mu.Unlock()

	if !consent {
		// State stays "available": the next scheduled check may re-prompt.
		log.Printf("[update] download of v%s postponed", result.LatestVersion)
		return
	}
	o.download(result)
}

func (o *Orchestrator) download(result *updater.UpdateResult) {
	o.mu.Lock()
	o.flags.DownloadInProgress = true
	o.mu.Unlock()

	path, err := o.source.Download(result.Release)

	o.mu.Lock()
	o.flags.DownloadInProgress = false
	o.mu.Unlock()

	if err != nil {
		log.Printf("[update] download of v%s failed: %v", result.LatestVersion, err)
		return
	}

	o.mu.Lock()
	o.staged = path
	o.stagedVersion = result.LatestVersion
	o.mu.Unlock()
	log.Printf("[update] v%s downloaded, asking to install", result.LatestVersion)

	o.promptInstall(result.LatestVersion)
}

func (o *Orchestrator) promptInstall(version string) {
	o.mu.Lock()
	if o.flags.PromptInProgress || o.flags.InstallInProgress {
		o.mu.Unlock()
		return
	}
	o.flags.PromptInProgress = true
	o.mu.Unlock()

	consent := o.prompter.ConfirmInstall(version)

	o.mu.Lock()
	o.flags.PromptInProgress = false
	o.mu.Unlock()

	if !consent {
		// Stays staged; applied on quit without forcing a restart now.
		log.Printf("[update] install of v%s postponed, will apply on quit", version)
		return
	}
	o.InstallNow()
}

// InstallNow performs the immediate-install teardown: terminal install
// flag, coordinator teardown hook, a safety timer that force-relaunches if
// the teardown hangs past the grace period, and the binary replacement.
// The relaunch into the new binary happens at the end of the clean
// teardown, via RelaunchIfInstalling.
func (o *Orchestrator) InstallNow() {
	o.mu.Lock()
	if o.flags.InstallInProgress {
		o.mu.Unlock()
		return
	}
	o.flags.InstallInProgress = true
	o.applyDone = make(chan struct{})
	staged := o.staged
	version := o.stagedVersion
	if o.started {
		o.started = false
		close(o.stopCh)
		o.stopCh = nil
	}
	o.mu.Unlock()

	log.Printf("[update] installing v%s", version)

	if o.hooks.OnInstallBegin != nil {
		o.hooks.OnInstallBegin()
	}

	o.mu.Lock()
	o.safety = time.AfterFunc(o.cfg.ExitGrace, func() {
		log.Printf("[update] process still alive after %s, forcing relaunch", o.cfg.ExitGrace)
		if o.hooks.Relaunch != nil {
			o.hooks.Relaunch()
		}
	})
	o.mu.Unlock()

	if staged != "" {
		if err := o.applyStaged(staged); err != nil {
			// The one failure that triggers a corrective action instead of
			// just logging: the relaunch still happens and restarts the
			// old binary.
			log.Printf("[update] apply failed: %v", err)
		}
	}

	o.mu.Lock()
	close(o.applyDone)
	o.mu.Unlock()
}

// RelaunchIfInstalling finishes an immediate install once the clean
// teardown is done: it waits for the binary swap, disarms the safety
// timer, and starts the new binary. No-op when no install is in progress;
// otherwise it does not return.
func (o *Orchestrator) RelaunchIfInstalling() {
	o.mu.Lock()
	installing := o.flags.InstallInProgress
	applyDone := o.applyDone
	o.mu.Unlock()
	if !installing {
		return
	}

	if applyDone != nil {
		<-applyDone
	}

	o.mu.Lock()
	if o.safety != nil {
		o.safety.Stop()
		o.safety = nil
	}
	o.mu.Unlock()

	log.Printf("[update] teardown complete, starting new binary")
	if o.hooks.Relaunch != nil {
		o.hooks.Relaunch()
	}
}

// InstallStagedOnQuit applies a staged update during normal shutdown, the
// equivalent of the platform updater's own exit hook. No prompting, no
// relaunch.
func (o *Orchestrator) InstallStagedOnQuit() {
	o.mu.Lock()
	staged := o.staged
	version := o.stagedVersion
	installing := o.flags.InstallInProgress
	o.mu.Unlock()

	if staged == "" || installing {
		return
	}
	log.Printf("[update] applying staged v%s on quit", version)
	if err := o.applyStaged(staged); err != nil {
		log.Printf("[update] staged apply failed: %v", err)
	}
}

func (o *Orchestrator) applyStaged(staged string) error {
	if err := o.source.Apply(staged); err != nil {
		return err
	}
	o.mu.Lock()
	o.staged = ""
	o.mu.Unlock()
	return nil
}

// Relaunch spawns a fresh copy of the current binary and terminates this
// process. Used both as the safety-timer fallback and by hooks.
func Relaunch() {
	self, err := os.Executable()
	if err != nil {
		log.Printf("[update] relaunch failed to locate binary: %v", err)
		os.Exit(1)
	}
	cmd := exec.Command(self, os.Args[1:]...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil
	if err := cmd.Start(); err != nil {
		log.Printf("[update] relaunch failed: %v", err)
		os.Exit(1)
	}
	os.Exit(0)
}

// GitHubSource is the production Source over the GitHub releases feed.
type GitHubSource struct{}

// Check queries the release feed.
func (GitHubSource) Check() (*updater.UpdateResult, error) {
	return updater.CheckForUpdate()
}

// Download fetches the daemon asset for this platform to a temp file.
func (GitHubSource) Download(release *updater.ReleaseInfo) (string, error) {
	asset := updater.FindAsset(release, updater.DaemonAssetName())
	if asset == nil {
		return "", fmt.Errorf("daemon binary not found in release (expected %s)", updater.DaemonAssetName())
	}
	return updater.DownloadAsset(asset)
}

// Apply replaces the running binary with the staged one.
func (GitHubSource) Apply(stagedPath string) error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate current binary: %w", err)
	}
	return updater.ReplaceBinary(self, stagedPath)
}
