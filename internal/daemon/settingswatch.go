package daemon

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/iltoga/businesssuite-desktop/internal/config"
)

// settingsDebounce coalesces the burst of fs events an editor save emits.
const settingsDebounce = 250 * time.Millisecond

// settingsWatcher applies settings.yaml edits to the running daemon without
// a restart. The global dir is watched rather than the file itself so
// atomic rename-style saves keep working.
type settingsWatcher struct {
	w    *fsnotify.Watcher
	done chan struct{}
}

func startSettingsWatcher(c *Coordinator) (*settingsWatcher, error) {
	dir, err := config.GlobalDir()
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}

	sw := &settingsWatcher{w: w, done: make(chan struct{})}
	go sw.run(c)
	return sw, nil
}

func (sw *settingsWatcher) stop() {
	close(sw.done)
	sw.w.Close()
}

func (sw *settingsWatcher) run(c *Coordinator) {
	var debounce *time.Timer
	for {
		select {
		case <-sw.done:
			return

		case ev, ok := <-sw.w.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != config.SettingsFileName {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(settingsDebounce, func() { sw.apply(c) })

		case err, ok := <-sw.w.Errors:
			if !ok {
				return
			}
			log.Printf("[settings] watcher error: %v", err)
		}
	}
}

func (sw *settingsWatcher) apply(c *Coordinator) {
	settings, err := config.LoadSettings()
	if err != nil {
		log.Printf("[settings] reload failed: %v", err)
		return
	}
	if settings == nil {
		return
	}
	log.Printf("[settings] settings.yaml changed, applying")

	// The environment override still wins over the file, matching startup
	// resolution.
	if _, envSet := os.LookupEnv(config.EnvPollIntervalMS); !envSet && settings.PollIntervalMS > 0 {
		c.poller.SetInterval(time.Duration(settings.PollIntervalMS) * time.Millisecond)
	}

	c.tray.RefreshMenu()
}
