package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/iltoga/businesssuite-desktop/internal/config"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change desktop agent settings",
	Long: `Show or change the persisted settings in ~/.bsdesk/settings.yaml.

A running desktop agent picks up changes without a restart.`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long: `Change a setting. Supported keys:

  poll-interval-ms   reminder poll interval in milliseconds (positive integer)
  bridge-port        localhost port for the renderer bridge
  auto-update        on or off`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	interval := "default"
	if settings.PollIntervalMS > 0 {
		interval = fmt.Sprintf("%d ms", settings.PollIntervalMS)
	}
	autoUpdate := "on"
	if settings.Updates.Disabled {
		autoUpdate = "off"
	}

	fmt.Printf("  %s %s\n", styleLabel.Render("poll-interval-ms:"), styleValue.Render(interval))
	fmt.Printf("  %s %s\n", styleLabel.Render("bridge-port:     "), styleValue.Render(fmt.Sprintf("%d", settings.BridgePort)))
	fmt.Printf("  %s %s\n", styleLabel.Render("auto-update:     "), styleValue.Render(autoUpdate))
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	key, value := args[0], args[1]
	switch key {
	case "poll-interval-ms":
		ms, err := strconv.Atoi(value)
		if err != nil || ms <= 0 {
			return fmt.Errorf("poll-interval-ms must be a positive integer, got %q", value)
		}
		settings.PollIntervalMS = ms

	case "bridge-port":
		port, err := strconv.Atoi(value)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("bridge-port must be a valid port, got %q", value)
		}
		settings.BridgePort = port

	case "auto-update":
		switch value {
		case "on":
			settings.Updates.Disabled = false
		case "off":
			settings.Updates.Disabled = true
		default:
			return fmt.Errorf("auto-update must be on or off, got %q", value)
		}

	default:
		return fmt.Errorf("unknown setting %q", key)
	}

	if err := config.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	fmt.Printf("%s %s = %s\n", styleSuccess.Render("Saved"), key, value)
	if key == "bridge-port" {
		fmt.Println(styleHint.Render("Restart the desktop agent for the port change to take effect."))
	}
	return nil
}
