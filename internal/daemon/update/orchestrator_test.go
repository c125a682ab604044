package update

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iltoga/businesssuite-desktop/internal/updater"
)

type fakeSource struct {
	mu        sync.Mutex
	result    *updater.UpdateResult
	checkErr  error
	dlErr     error
	applyErr  error
	downloads int
	applies   int
}

func (f *fakeSource) Check() (*updater.UpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.checkErr != nil {
		return nil, f.checkErr
	}
	return f.result, nil
}

func (f *fakeSource) Download(release *updater.ReleaseInfo) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads++
	if f.dlErr != nil {
		return "", f.dlErr
	}
	return "/tmp/staged-binary", nil
}

func (f *fakeSource) Apply(stagedPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applies++
	return f.applyErr
}

type fakePrompter struct {
	download bool
	install  bool

	downloadPrompts int
	installPrompts  int
}

func (f *fakePrompter) ConfirmDownload(version string) bool {
	f.downloadPrompts++
	return f.download
}

func (f *fakePrompter) ConfirmInstall(version string) bool {
	f.installPrompts++
	return f.install
}

func availableResult(version string) *updater.UpdateResult {
	return &updater.UpdateResult{
		Available:      true,
		CurrentVersion: "1.0.0",
		LatestVersion:  version,
		Release:        &updater.ReleaseInfo{TagName: "v" + version},
	}
}

func TestDeclineDownloadLeavesStateAvailable(t *testing.T) {
	source := &fakeSource{result: availableResult("2.0.0")}
	prompter := &fakePrompter{download: false}
	o := New(source, prompter, Config{}, Hooks{})

	o.runCheck()

	if source.downloads != 0 {
		t.Errorf("download called %d times after decline, want 0", source.downloads)
	}
	if flags := o.CurrentFlags(); flags != (Flags{}) {
		t.Errorf("flags after decline = %+v, want all clear", flags)
	}

	// Next scheduled check re-prompts.
	o.runCheck()
	if prompter.downloadPrompts != 2 {
		t.Errorf("download prompted %d times across two checks, want 2", prompter.downloadPrompts)
	}
}

func TestAcceptDownloadDeclineInstallStages(t *testing.T) {
	source := &fakeSource{result: availableResult("2.0.0")}
	prompter := &fakePrompter{download: true, install: false}
	o := New(source, prompter, Config{}, Hooks{})

	o.runCheck()

	if source.downloads != 1 {
		t.Fatalf("downloads = %d, want 1", source.downloads)
	}
	if o.StagedVersion() != "2.0.0" {
		t.Errorf("staged version = %q, want 2.0.0", o.StagedVersion())
	}
	if o.CurrentFlags().InstallInProgress {
		t.Error("install flag set after declined install prompt")
	}

	// A later "available" for the same staged update does not re-download.
	o.runCheck()
	if source.downloads != 1 {
		t.Errorf("downloads after second check = %d, want 1", source.downloads)
	}

	// Staged update applies during normal quit.
	o.InstallStagedOnQuit()
	if source.applies != 1 {
		t.Errorf("applies on quit = %d, want 1", source.applies)
	}
}

func TestImmediateInstallTerminalTeardown(t *testing.T) {
	source := &fakeSource{result: availableResult("2.0.0")}
	prompter := &fakePrompter{download: true, install: true}

	installBegan := make(chan struct{})
	relaunched := make(chan struct{})
	o := New(source, prompter, Config{ExitGrace: 50 * time.Millisecond}, Hooks{
		OnInstallBegin: func() { close(installBegan) },
		Relaunch:       func() { close(relaunched) },
	})

	o.runCheck()

	select {
	case <-installBegan:
	default:
		t.Fatal("OnInstallBegin not called")
	}
	if !o.CurrentFlags().InstallInProgress {
		t.Error("InstallInProgress not set")
	}
	if source.applies != 1 {
		t.Errorf("applies = %d, want 1", source.applies)
	}

	// Safety timer fires because the fake process never exits.
	select {
	case <-relaunched:
	case <-time.After(time.Second):
		t.Fatal("forced relaunch did not fire within grace period")
	}

	// InstallInProgress is terminal: a second install attempt is a no-op.
	o.InstallNow()
	if source.applies != 1 {
		t.Errorf("applies after repeat InstallNow = %d, want 1", source.applies)
	}
}

func TestCleanTeardownRelaunchesIntoNewBinary(t *testing.T) {
	source := &fakeSource{result: availableResult("2.0.0")}
	prompter := &fakePrompter{download: true, install: true}

	relaunched := make(chan struct{}, 2)
	torndown := make(chan struct{})
	var o *Orchestrator
	o = New(source, prompter, Config{ExitGrace: 50 * time.Millisecond}, Hooks{
		OnInstallBegin: func() {
			// The daemon tears down on another goroutine, as the real
			// shutdown path does, then hands control back for the relaunch.
			go func() {
				o.Stop()
				o.RelaunchIfInstalling()
				close(torndown)
			}()
		},
		Relaunch: func() { relaunched <- struct{}{} },
	})

	o.runCheck()

	select {
	case <-torndown:
	case <-time.After(time.Second):
		t.Fatal("teardown never completed")
	}

	source.mu.Lock()
	applies := source.applies
	source.mu.Unlock()
	if applies != 1 {
		t.Errorf("applies = %d, want 1", applies)
	}

	// The new binary is started as part of the clean teardown, not left
	// installed-but-dead.
	select {
	case <-relaunched:
	default:
		t.Fatal("new binary installed but never started")
	}

	// And the safety timer was disarmed: exactly one relaunch.
	select {
	case <-relaunched:
		t.Error("safety timer fired after the clean relaunch")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestStopKeepsSafetyArmedMidInstall(t *testing.T) {
	source := &fakeSource{result: availableResult("2.0.0")}
	prompter := &fakePrompter{download: true, install: false}
	relaunched := make(chan struct{}, 1)
	o := New(source, prompter, Config{ExitGrace: 30 * time.Millisecond}, Hooks{
		Relaunch: func() { relaunched <- struct{}{} },
	})

	o.runCheck()
	o.InstallNow()
	o.Stop() // scheduler off, but the hung-teardown fallback must survive

	select {
	case <-relaunched:
	case <-time.After(time.Second):
		t.Fatal("safety timer disarmed by Stop during install")
	}
}

func TestRelaunchIfInstallingNoOpOutsideInstall(t *testing.T) {
	source := &fakeSource{result: availableResult("2.0.0")}
	o := New(source, &fakePrompter{}, Config{}, Hooks{
		Relaunch: func() { t.Error("relaunch fired without an install") },
	})

	o.RelaunchIfInstalling()
}

func TestCheckErrorClearsFlags(t *testing.T) {
	source := &fakeSource{checkErr: errors.New("api down")}
	o := New(source, &fakePrompter{}, Config{}, Hooks{})

	o.runCheck()

	if flags := o.CurrentFlags(); flags != (Flags{}) {
		t.Errorf("flags after check error = %+v, want all clear", flags)
	}

	// A later check is not blocked.
	source.mu.Lock()
	source.checkErr = nil
	source.result = availableResult("2.0.0")
	source.mu.Unlock()
	prompter := &fakePrompter{}
	o.prompter = prompter
	o.runCheck()
	if prompter.downloadPrompts != 1 {
		t.Errorf("download prompts after recovery = %d, want 1", prompter.downloadPrompts)
	}
}

func TestDownloadErrorClearsFlags(t *testing.T) {
	source := &fakeSource{result: availableResult("2.0.0"), dlErr: errors.New("disk full")}
	prompter := &fakePrompter{download: true}
	o := New(source, prompter, Config{}, Hooks{})

	o.runCheck()

	if flags := o.CurrentFlags(); flags != (Flags{}) {
		t.Errorf("flags after download error = %+v, want all clear", flags)
	}
	if o.StagedVersion() != "" {
		t.Errorf("staged version = %q after failed download", o.StagedVersion())
	}
}

func TestSchedulerSkipRules(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "disabled", cfg: Config{Disabled: true}},
		{name: "dev build", cfg: Config{DevBuild: true}},
		{name: "first run", cfg: Config{FirstRun: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := New(&fakeSource{}, &fakePrompter{}, tt.cfg, Hooks{})
			o.Start()
			o.mu.Lock()
			started := o.started
			o.mu.Unlock()
			if started {
				t.Error("scheduler started despite skip rule")
			}
		})
	}
}
