package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iltoga/businesssuite-desktop/internal/config"
	"github.com/iltoga/businesssuite-desktop/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently delivered reminder notifications",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of entries to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	path, err := config.GlobalHistoryDB()
	if err != nil {
		return err
	}
	if !config.FileExists(path) {
		fmt.Println("No notifications delivered yet.")
		return nil
	}

	s, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer s.Close()

	entries, err := s.History(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("No notifications delivered yet.")
		return nil
	}

	for _, e := range entries {
		when := e.DeliveredAt.Local().Format(time.DateTime)
		fmt.Printf("%s  %s  %s\n",
			styleLabel.Render(when),
			styleValue.Render(fmt.Sprintf("#%d", e.ReminderID)),
			e.Title)
	}
	return nil
}
