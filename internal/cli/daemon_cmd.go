package cli

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iltoga/businesssuite-desktop/internal/config"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the desktop agent process",
	Long:  `Manage the bsdeskd tray process.`,
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the desktop agent",
	RunE:  runDaemonStart,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the desktop agent is running",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the desktop agent",
	RunE:  runDaemonStop,
}

func init() {
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}

	if running && info != nil {
		fmt.Printf("Desktop agent is already running (PID %d, port %d).\n", info.PID, info.Port)
		return nil
	}

	// Clean up stale daemon info if it exists
	if info != nil {
		_ = config.RemoveDaemonInfo()
	}

	fmt.Print("Starting desktop agent...")
	if startErr := startDaemon(); startErr != nil {
		fmt.Println()
		return startErr
	}

	_, freshInfo, err := config.IsDaemonRunning()
	if err != nil || freshInfo == nil {
		fmt.Println(" " + styleSuccess.Render("started."))
		return nil
	}

	fmt.Printf(" %s (PID %d, port %d).\n", styleSuccess.Render("started"), freshInfo.PID, freshInfo.Port)
	return nil
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}

	if !running || info == nil {
		fmt.Println("Desktop agent is not running.")
		return nil
	}

	uptime := time.Since(info.StartedAt).Truncate(time.Second)

	fmt.Println("Desktop agent is running.")
	fmt.Printf("  %s %s\n", styleLabel.Render("Host:  "), styleValue.Render(info.Host))
	fmt.Printf("  %s %s\n", styleLabel.Render("Port:  "), styleValue.Render(fmt.Sprintf("%d", info.Port)))
	fmt.Printf("  %s %s\n", styleLabel.Render("PID:   "), styleValue.Render(fmt.Sprintf("%d", info.PID)))
	fmt.Printf("  %s %s\n", styleLabel.Render("Uptime:"), styleValue.Render(uptime.String()))
	return nil
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}

	if !running || info == nil {
		fmt.Println("Desktop agent is not running.")
		return nil
	}

	process, err := os.FindProcess(info.PID)
	if err != nil {
		return fmt.Errorf("failed to find daemon process: %w", err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to send stop signal: %w", err)
	}

	// Poll for shutdown (max 5 seconds)
	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		stillRunning, _, err := config.IsDaemonRunning()
		if err == nil && !stillRunning {
			fmt.Println(styleSuccess.Render("Desktop agent stopped."))
			return nil
		}
	}

	return fmt.Errorf("daemon did not stop within timeout")
}
