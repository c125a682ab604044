// Package config handles environment resolution, settings files, and path
// management for the desktop agent.
package config

import (
	"os"
	"path/filepath"
)

// GlobalDirName is the name of the global bsdesk directory.
const GlobalDirName = ".bsdesk"

// File and directory names under the global directory.
const (
	DaemonFileName   = "daemon.yaml"
	SettingsFileName = "settings.yaml"
	HistoryDBName    = "history.db"
	KeyringDirName   = "keyring"
	FirstRunMarker   = ".first-run"
)

// GlobalDir returns the path to the global bsdesk directory (~/.bsdesk/).
func GlobalDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, GlobalDirName), nil
}

// EnsureGlobalDir creates the global directory if it does not exist.
func EnsureGlobalDir() error {
	dir, err := GlobalDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

func globalFile(name string) (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// GlobalDaemonFile returns the path to the daemon.yaml pidfile.
func GlobalDaemonFile() (string, error) { return globalFile(DaemonFileName) }

// GlobalSettingsFile returns the path to the settings.yaml file.
func GlobalSettingsFile() (string, error) { return globalFile(SettingsFileName) }

// GlobalHistoryDB returns the path to the notification history database.
func GlobalHistoryDB() (string, error) { return globalFile(HistoryDBName) }

// GlobalKeyringDir returns the directory backing the file keyring fallback.
func GlobalKeyringDir() (string, error) { return globalFile(KeyringDirName) }

// FirstRunMarkerPresent reports whether the installer's first-run marker
// exists. Update checks are skipped on the very first launch after install.
func FirstRunMarkerPresent() bool {
	path, err := globalFile(FirstRunMarker)
	if err != nil {
		return false
	}
	return FileExists(path)
}
