package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/iltoga/businesssuite-desktop/internal/config"
)

// startDaemon starts the bsdeskd process in the background.
func startDaemon() error {
	daemonPath, err := findDaemonBinary()
	if err != nil {
		return err
	}

	cmd := exec.Command(daemonPath)
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	// Wait for daemon to be ready (max 5 seconds)
	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		running, _, err := config.IsDaemonRunning()
		if err == nil && running {
			return nil
		}
	}

	return fmt.Errorf("daemon failed to start within timeout")
}

// findDaemonBinary locates the bsdeskd binary.
func findDaemonBinary() (string, error) {
	// Try PATH first
	path, err := exec.LookPath("bsdeskd")
	if err == nil {
		return path, nil
	}

	// Try same directory as the CLI binary
	execPath, err := os.Executable()
	if err == nil {
		daemonPath := filepath.Join(filepath.Dir(execPath), "bsdeskd")
		if _, err := os.Stat(daemonPath); err == nil {
			return daemonPath, nil
		}
	}

	// Try build directory
	if _, err := os.Stat("./build/bsdeskd"); err == nil {
		return "./build/bsdeskd", nil
	}

	return "", fmt.Errorf("bsdeskd not found. Install or build it first")
}
