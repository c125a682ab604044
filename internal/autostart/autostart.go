// Package autostart manages the launch-at-login registration for the
// daemon. Platforms without a supported mechanism report unsupported and
// every operation degrades to a no-op.
package autostart

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const appID = "com.businesssuite.bsdesk"

// Supported reports whether launch-at-login can be managed on this OS.
func Supported() bool {
	switch runtime.GOOS {
	case "linux", "darwin":
		return true
	}
	return false
}

// Enabled reports whether the daemon is registered to start at login.
func Enabled() bool {
	path, err := entryPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Set registers or unregisters launch-at-login and returns the resulting
// state. Unsupported platforms always return false.
func Set(enable bool) bool {
	if !Supported() {
		return false
	}
	if enable {
		if err := install(); err != nil {
			return false
		}
		return true
	}
	if err := uninstall(); err != nil {
		return Enabled()
	}
	return false
}

func entryPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	switch runtime.GOOS {
	case "linux":
		return filepath.Join(home, ".config", "autostart", "bsdeskd.desktop"), nil
	case "darwin":
		return filepath.Join(home, "Library", "LaunchAgents", appID+".plist"), nil
	}
	return "", fmt.Errorf("autostart unsupported on %s", runtime.GOOS)
}

func install() error {
	path, err := entryPath()
	if err != nil {
		return err
	}
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	var content string
	switch runtime.GOOS {
	case "linux":
		content = fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=BusinessSuite Desktop
Exec=%s
X-GNOME-Autostart-enabled=true
`, exe)
	case "darwin":
		content = fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>%s</string>
	<key>ProgramArguments</key>
	<array>
		<string>%s</string>
	</array>
	<key>RunAtLoad</key>
	<true/>
</dict>
</plist>
`, appID, exe)
	}

	return os.WriteFile(path, []byte(content), 0o644)
}

func uninstall() error {
	path, err := entryPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
