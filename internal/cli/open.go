package cli

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/iltoga/businesssuite-desktop/internal/config"
)

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Open the CRM in your browser",
	Long:  `Ask the running desktop agent to open the CRM in your default browser.`,
	RunE:  runOpen,
}

func runOpen(cmd *cobra.Command, args []string) error {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if !running || info == nil {
		fmt.Println("Desktop agent is not running.")
		fmt.Println(styleHint.Render("Start it with: bsdesk daemon start"))
		return nil
	}

	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Post(fmt.Sprintf("http://%s:%d/open", info.Host, info.Port), "", nil)
	if err != nil {
		return fmt.Errorf("failed to reach desktop agent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	fmt.Println(styleSuccess.Render("Opening BusinessSuite."))
	return nil
}
