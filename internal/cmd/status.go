package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/adforge/adforge/internal/backend"
	"github.com/adforge/adforge/internal/config"
	"github.com/adforge/adforge/internal/errors"
	"github.com/adforge/adforge/internal/logging"
	"github.com/adforge/adforge/internal/pipeline"
	"github.com/adforge/adforge/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session status",
	Long: `Print the saved session's stage progress without opening the TUI.

The session is re-fetched from the backend when reachable; otherwise the
locally saved snapshot is shown with a note.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	snap := store.NewSnapshot(cfg.Paths.ResolveStateDir())
	info, err := snap.LoadInfo()
	if err != nil {
		fmt.Println("No active session")
		return nil
	}

	client := backend.NewHTTPClient(cfg.Backend.URL, cfg.Backend.Timeout(), logging.NopLogger())
	sess, err := client.GetSession(context.Background(), info.SessionID)
	if err != nil {
		if errors.Is(err, errors.ErrSessionNotFound) {
			fmt.Printf("Session %s no longer exists on the backend.\n", info.SessionID)
			fmt.Println("Run 'adforge sessions clear' to drop the saved snapshot.")
			return nil
		}
		// Backend unreachable: fall back to the saved snapshot.
		sess, err = snap.Load()
		if err != nil {
			return fmt.Errorf("backend unreachable and snapshot unreadable: %w", err)
		}
		fmt.Printf("Backend unreachable, showing state saved %s ago.\n\n", formatAge(time.Since(info.SavedAt)))
	}

	printSession(sess)
	return nil
}

func printSession(sess *pipeline.Session) {
	fmt.Printf("Session: %s\n", sess.ID)
	fmt.Printf("Status:  %s\n", sess.Status.Label())
	fmt.Printf("Created: %s\n", sess.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Updated: %s\n\n", sess.UpdatedAt.Format("2006-01-02 15:04:05"))

	for _, d := range pipeline.Progress(sess) {
		glyph := "○"
		note := ""
		switch {
		case d.Completed:
			glyph = "✓"
		case d.Active:
			glyph = "●"
			if sess.Outputs.ForStage(d.Stage) {
				note = "  (awaiting review)"
			} else {
				note = "  (generating)"
			}
		}
		fmt.Printf("  %s %s%s\n", glyph, d.Label, note)
	}
	if sess.Status == pipeline.StageError {
		fmt.Println("  ✗ Error")
	}

	if n := len(sess.Conversation); n > 0 {
		fmt.Printf("\n%d feedback message(s) on the current stage\n", n)
	}
}
