// Package util provides shared utility functions used across the codebase.
package util

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// TruncateANSI caps a styled line at maxWidth visual columns, appending
// "..." when it had to cut. Width is measured per terminal cell, so escape
// sequences and wide characters are handled correctly.
func TruncateANSI(s string, maxWidth int) string {
	if maxWidth <= 3 {
		return "..."
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	// ansi.Truncate counts the tail toward the final width.
	return ansi.Truncate(s, maxWidth, "...")
}

// ShortID returns the first segment of a UUID-style identifier, or the
// first 8 runes when the identifier has no dashes. Session IDs are long;
// headers and log lines only need enough to tell sessions apart.
func ShortID(id string) string {
	if head, _, found := strings.Cut(id, "-"); found && head != "" {
		return head
	}
	runes := []rune(id)
	if len(runes) <= 8 {
		return id
	}
	return string(runes[:8])
}

// FormatSeconds renders a duration given in seconds as "Ns" below one
// minute and "MmSSs" above, rounding to the nearest second.
func FormatSeconds(seconds float64) string {
	total := int(seconds + 0.5)
	if total < 0 {
		total = 0
	}
	if total < 60 {
		return fmt.Sprintf("%ds", total)
	}
	return fmt.Sprintf("%dm%02ds", total/60, total%60)
}
