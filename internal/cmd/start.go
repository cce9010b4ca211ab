package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adforge/adforge/internal/config"
)

var (
	startDuration int
	startMode     string
)

var startCmd = &cobra.Command{
	Use:   "start <prompt>",
	Short: "Start a new ad pipeline session",
	Long: `Start a new ad pipeline session from a prompt and open the TUI.

Any previous local session is cleared first; the backend session it
points at keeps running and can be re-attached later by id.`,
	Example: `  adforge start "a 30-second ad for a trail running shoe"
  adforge start "teaser for a coffee brand" --duration 15 --mode express`,
	Args: cobra.ExactArgs(1),
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)

	startCmd.Flags().IntVar(&startDuration, "duration", 30, "target ad duration in seconds")
	startCmd.Flags().StringVar(&startMode, "mode", "interactive", "pipeline mode: interactive or express")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	guard, err := acquireStateLock(cfg)
	if err != nil {
		return err
	}
	defer guard.Release() //nolint:errcheck

	coord, logger, err := buildCoordinator(cfg)
	if err != nil {
		return err
	}

	if _, err := coord.StartFresh(context.Background(), args[0], startDuration, startMode); err != nil {
		coord.Close()
		_ = logger.Close()
		return fmt.Errorf("failed to start pipeline: %w", err)
	}

	return runTUI(coord, logger, cfg)
}
