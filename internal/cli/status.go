package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/iltoga/businesssuite-desktop/internal/config"
	"github.com/iltoga/businesssuite-desktop/internal/daemon/bridge"
	"github.com/iltoga/businesssuite-desktop/internal/models"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show reminder and update status",
	Long:  `Show the unread reminder count, renderer connection, and any staged update.`,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if !running || info == nil {
		fmt.Println("Desktop agent is not running.")
		fmt.Println(styleHint.Render("Start it with: bsdesk daemon start"))
		return nil
	}

	status, err := fetchStatus(info)
	if err != nil {
		return fmt.Errorf("failed to reach desktop agent on port %d: %w", info.Port, err)
	}

	fmt.Println(styleBrand.Render("BusinessSuite Desktop") + " " + styleValue.Render("v"+status.Version))

	unread := badgeZero.Render("none")
	if status.Unread > 0 {
		unread = badgeUnread.Render(fmt.Sprintf("%d", status.Unread))
	}
	fmt.Printf("  %s %s\n", styleLabel.Render("Unread reminders:"), unread)

	renderer := styleWarning.Render("not connected")
	if status.RendererConnected {
		renderer = styleSuccess.Render("connected")
	}
	fmt.Printf("  %s %s\n", styleLabel.Render("CRM tab:         "), renderer)

	if status.StagedUpdate != "" {
		fmt.Printf("  %s %s\n", styleLabel.Render("Staged update:   "),
			styleUpdate.Render("v"+status.StagedUpdate+" (applies on quit)"))
	}
	return nil
}

// fetchStatus queries the daemon's local bridge.
func fetchStatus(info *models.DaemonInfo) (*bridge.Status, error) {
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://%s:%d/status", info.Host, info.Port))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var status bridge.Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &status, nil
}
