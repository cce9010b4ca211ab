package styles

import (
	"slices"

	"github.com/charmbracelet/lipgloss"
)

// ThemeName represents a named color theme.
type ThemeName string

// Available theme names.
const (
	ThemeDefault ThemeName = "default" // Purple/green dark theme
	ThemeMonokai ThemeName = "monokai" // Classic Monokai editor colors
	ThemeDracula ThemeName = "dracula" // Dracula theme colors
	ThemeNord    ThemeName = "nord"    // Nord theme - cool blue-gray
)

// BuiltinThemes returns all built-in theme names.
func BuiltinThemes() []string {
	return []string{
		string(ThemeDefault),
		string(ThemeMonokai),
		string(ThemeDracula),
		string(ThemeNord),
	}
}

// IsValidTheme checks if a theme name is a known built-in theme.
func IsValidTheme(name string) bool {
	return slices.Contains(BuiltinThemes(), name)
}

// ColorPalette defines the color scheme for a theme.
// All colors should meet WCAG AA contrast requirements (4.5:1 ratio).
type ColorPalette struct {
	// Primary accent color (used for emphasis, active elements)
	Primary lipgloss.Color
	// Secondary accent color (used for secondary emphasis, success states)
	Secondary lipgloss.Color
	// Warning color (used for warnings, attention-needed states)
	Warning lipgloss.Color
	// Error color (used for errors, failures)
	Error lipgloss.Color
	// Muted color (used for de-emphasized text, borders)
	Muted lipgloss.Color
	// Surface color (used for panel backgrounds)
	Surface lipgloss.Color
	// Text color (primary text)
	Text lipgloss.Color
	// Border color (panel borders)
	Border lipgloss.Color

	// Stage indicator colors
	StageDone    lipgloss.Color
	StageActive  lipgloss.Color
	StagePending lipgloss.Color
	StageError   lipgloss.Color

	// Connection badge colors
	ConnUp   lipgloss.Color
	ConnDown lipgloss.Color
}

// DefaultPalette returns the default purple/green dark theme palette.
func DefaultPalette() *ColorPalette {
	return &ColorPalette{
		Primary:   lipgloss.Color("#A78BFA"), // Purple (violet-400)
		Secondary: lipgloss.Color("#10B981"), // Green
		Warning:   lipgloss.Color("#F59E0B"), // Amber
		Error:     lipgloss.Color("#F87171"), // Red (red-400)
		Muted:     lipgloss.Color("#9CA3AF"), // Gray
		Surface:   lipgloss.Color("#1F2937"), // Dark surface
		Text:      lipgloss.Color("#F9FAFB"), // Light text
		Border:    lipgloss.Color("#6B7280"), // Gray-500

		StageDone:    lipgloss.Color("#10B981"), // Green
		StageActive:  lipgloss.Color("#A78BFA"), // Purple
		StagePending: lipgloss.Color("#9CA3AF"), // Gray
		StageError:   lipgloss.Color("#F87171"), // Red

		ConnUp:   lipgloss.Color("#10B981"), // Green
		ConnDown: lipgloss.Color("#F87171"), // Red
	}
}

// MonokaiPalette returns the classic Monokai editor theme palette.
func MonokaiPalette() *ColorPalette {
	return &ColorPalette{
		Primary:   lipgloss.Color("#F92672"), // Monokai pink/magenta
		Secondary: lipgloss.Color("#A6E22E"), // Monokai green
		Warning:   lipgloss.Color("#E6DB74"), // Monokai yellow
		Error:     lipgloss.Color("#F92672"), // Monokai pink
		Muted:     lipgloss.Color("#75715E"), // Monokai comment gray
		Surface:   lipgloss.Color("#272822"), // Monokai background
		Text:      lipgloss.Color("#F8F8F2"), // Monokai foreground
		Border:    lipgloss.Color("#49483E"), // Monokai selection

		StageDone:    lipgloss.Color("#A6E22E"), // Green
		StageActive:  lipgloss.Color("#AE81FF"), // Purple
		StagePending: lipgloss.Color("#75715E"), // Comment gray
		StageError:   lipgloss.Color("#F92672"), // Pink

		ConnUp:   lipgloss.Color("#A6E22E"),
		ConnDown: lipgloss.Color("#F92672"),
	}
}

// DraculaPalette returns the Dracula theme palette.
func DraculaPalette() *ColorPalette {
	return &ColorPalette{
		Primary:   lipgloss.Color("#BD93F9"), // Dracula purple
		Secondary: lipgloss.Color("#50FA7B"), // Dracula green
		Warning:   lipgloss.Color("#F1FA8C"), // Dracula yellow
		Error:     lipgloss.Color("#FF5555"), // Dracula red
		Muted:     lipgloss.Color("#6272A4"), // Dracula comment
		Surface:   lipgloss.Color("#282A36"), // Dracula background
		Text:      lipgloss.Color("#F8F8F2"), // Dracula foreground
		Border:    lipgloss.Color("#44475A"), // Dracula selection

		StageDone:    lipgloss.Color("#50FA7B"), // Green
		StageActive:  lipgloss.Color("#BD93F9"), // Purple
		StagePending: lipgloss.Color("#6272A4"), // Comment
		StageError:   lipgloss.Color("#FF5555"), // Red

		ConnUp:   lipgloss.Color("#50FA7B"),
		ConnDown: lipgloss.Color("#FF5555"),
	}
}

// NordPalette returns the Nord theme palette.
func NordPalette() *ColorPalette {
	return &ColorPalette{
		Primary:   lipgloss.Color("#88C0D0"), // Nord frost (cyan)
		Secondary: lipgloss.Color("#A3BE8C"), // Nord aurora green
		Warning:   lipgloss.Color("#EBCB8B"), // Nord aurora yellow
		Error:     lipgloss.Color("#BF616A"), // Nord aurora red
		Muted:     lipgloss.Color("#4C566A"), // Nord polar night 3
		Surface:   lipgloss.Color("#2E3440"), // Nord polar night 0
		Text:      lipgloss.Color("#ECEFF4"), // Nord snow storm 2
		Border:    lipgloss.Color("#3B4252"), // Nord polar night 1

		StageDone:    lipgloss.Color("#A3BE8C"), // Green
		StageActive:  lipgloss.Color("#88C0D0"), // Frost cyan
		StagePending: lipgloss.Color("#4C566A"), // Gray
		StageError:   lipgloss.Color("#BF616A"), // Red

		ConnUp:   lipgloss.Color("#A3BE8C"),
		ConnDown: lipgloss.Color("#BF616A"),
	}
}

// GetPalette returns the palette for a theme name, falling back to the
// default palette for unknown names.
func GetPalette(name ThemeName) *ColorPalette {
	switch name {
	case ThemeMonokai:
		return MonokaiPalette()
	case ThemeDracula:
		return DraculaPalette()
	case ThemeNord:
		return NordPalette()
	default:
		return DefaultPalette()
	}
}
