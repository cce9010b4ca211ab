package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adforge/adforge/internal/config"
	"github.com/adforge/adforge/internal/errors"
)

var resumeCmd = &cobra.Command{
	Use:   "resume [session-id]",
	Short: "Resume a pipeline session",
	Long: `Resume the locally saved pipeline session, or attach to a specific
session by id.

The saved snapshot is only a starting point: the session is re-fetched
from the backend before the TUI opens, so the view always reflects the
authoritative state. A snapshot whose session no longer exists on the
backend is discarded.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResume,
}

func init() {
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
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

	ctx := context.Background()
	if len(args) > 0 {
		_, err = coord.Attach(ctx, args[0])
	} else {
		_, err = coord.Resume(ctx)
	}
	if err != nil {
		coord.Close()
		_ = logger.Close()
		switch {
		case errors.Is(err, errors.ErrNoActiveSession):
			return fmt.Errorf("no saved session to resume. Run 'adforge start \"<prompt>\"' first")
		case errors.Is(err, errors.ErrSessionNotFound):
			return fmt.Errorf("the saved session no longer exists on the backend. Run 'adforge start \"<prompt>\"' to begin a new one")
		}
		return fmt.Errorf("failed to resume session: %w", err)
	}

	return runTUI(coord, logger, cfg)
}
