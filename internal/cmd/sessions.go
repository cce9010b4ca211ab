package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/adforge/adforge/internal/config"
	"github.com/adforge/adforge/internal/sessionlock"
	"github.com/adforge/adforge/internal/store"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Show the saved pipeline session",
	Long: `Show the locally saved pipeline session snapshot.

AdForge keeps one session snapshot per machine. The snapshot records
which backend session last ran here and where it paused, so a later
'adforge resume' can pick it up.`,
	RunE: runSessions,
}

var sessionsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the saved session snapshot",
	Long: `Remove the locally saved session snapshot.

Only local state is deleted. The backend session keeps running and can
still be attached with 'adforge resume <session-id>'.`,
	RunE: runSessionsClear,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsClearCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	snap := store.NewSnapshot(cfg.Paths.ResolveStateDir())

	fmt.Println(strings.Repeat("─", 60))
	fmt.Println("AdForge Sessions")
	fmt.Println(strings.Repeat("─", 60))

	info, err := snap.LoadInfo()
	if err != nil {
		fmt.Println("\nNo saved session.")
		fmt.Println("Run 'adforge start \"<prompt>\"' to create one.")
		return nil
	}

	fmt.Printf("\n  Session: %s\n", info.SessionID)
	fmt.Printf("    Status: %s\n", info.Status.Label())
	fmt.Printf("    Saved:  %s (%s ago)\n", info.SavedAt.Format(time.RFC822), formatAge(time.Since(info.SavedAt)))
	fmt.Printf("    File:   %s\n", snap.Path())

	if lockInfo, ok := sessionlock.Read(cfg.Paths.ResolveStateDir()); ok && lockInfo.Alive() {
		fmt.Printf("    In use: pid %d (since %s)\n", lockInfo.PID, lockInfo.StartedAt.Format(time.RFC822))
	}

	fmt.Println("\nTo resume it: adforge resume")
	return nil
}

func runSessionsClear(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if lockInfo, ok := sessionlock.Read(cfg.Paths.ResolveStateDir()); ok && lockInfo.Alive() {
		return fmt.Errorf("the session is in use by pid %d. Quit that process before clearing", lockInfo.PID)
	}

	snap := store.NewSnapshot(cfg.Paths.ResolveStateDir())
	if !snap.Exists() {
		fmt.Println("No saved session to clear.")
		return nil
	}

	if err := snap.Remove(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	fmt.Println("Saved session cleared.")
	return nil
}

// formatAge renders a duration in the largest sensible unit.
func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
