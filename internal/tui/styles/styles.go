// Package styles defines the shared lipgloss styles and color themes for
// the AdForge terminal UI.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors - populated from the active palette
	PrimaryColor   lipgloss.Color
	SecondaryColor lipgloss.Color
	WarningColor   lipgloss.Color
	ErrorColor     lipgloss.Color
	MutedColor     lipgloss.Color
	SurfaceColor   lipgloss.Color
	TextColor      lipgloss.Color
	BorderColor    lipgloss.Color

	// Stage indicator colors
	StageDoneColor    lipgloss.Color
	StageActiveColor  lipgloss.Color
	StagePendingColor lipgloss.Color
	StageErrorColor   lipgloss.Color

	// Connection badge colors
	ConnUpColor   lipgloss.Color
	ConnDownColor lipgloss.Color

	// Convenience styles for colors
	Primary   lipgloss.Style
	Secondary lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Muted     lipgloss.Style
	Text      lipgloss.Style

	// Base styles
	Title    lipgloss.Style
	Subtitle lipgloss.Style

	// Header
	Header lipgloss.Style

	// Stage indicator
	StageDone    lipgloss.Style
	StageActive  lipgloss.Style
	StagePending lipgloss.Style
	StageViewed  lipgloss.Style

	// Content area
	ContentBox lipgloss.Style

	// Conversation pane
	ChatUser      lipgloss.Style
	ChatAssistant lipgloss.Style
	ChatSystem    lipgloss.Style

	// Selection markers
	ItemSelected   lipgloss.Style
	ItemUnselected lipgloss.Style

	// Banners
	ErrorBanner lipgloss.Style
	InfoBanner  lipgloss.Style

	// Help bar
	HelpBar lipgloss.Style
	HelpKey lipgloss.Style

	// Footer / status bar
	StatusBar lipgloss.Style

	// Connection badges
	ConnBadgeUp   lipgloss.Style
	ConnBadgeDown lipgloss.Style
)

func init() {
	applyPalette(DefaultPalette())
}

// SetActiveTheme rebuilds the global style variables from the named
// theme's palette. It is not thread-safe and is designed to be called
// once during startup, before the Bubble Tea event loop begins.
func SetActiveTheme(name ThemeName) {
	applyPalette(GetPalette(name))
}

func applyPalette(p *ColorPalette) {
	PrimaryColor = p.Primary
	SecondaryColor = p.Secondary
	WarningColor = p.Warning
	ErrorColor = p.Error
	MutedColor = p.Muted
	SurfaceColor = p.Surface
	TextColor = p.Text
	BorderColor = p.Border

	StageDoneColor = p.StageDone
	StageActiveColor = p.StageActive
	StagePendingColor = p.StagePending
	StageErrorColor = p.StageError

	ConnUpColor = p.ConnUp
	ConnDownColor = p.ConnDown

	Primary = lipgloss.NewStyle().Foreground(PrimaryColor)
	Secondary = lipgloss.NewStyle().Foreground(SecondaryColor)
	Warning = lipgloss.NewStyle().Foreground(WarningColor)
	Error = lipgloss.NewStyle().Foreground(ErrorColor)
	Muted = lipgloss.NewStyle().Foreground(MutedColor)
	Text = lipgloss.NewStyle().Foreground(TextColor)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor)

	Subtitle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Italic(true)

	Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(BorderColor)

	StageDone = lipgloss.NewStyle().Foreground(StageDoneColor)
	StageActive = lipgloss.NewStyle().Bold(true).Foreground(StageActiveColor)
	StagePending = lipgloss.NewStyle().Foreground(StagePendingColor)
	StageViewed = lipgloss.NewStyle().Bold(true).Foreground(WarningColor)

	ContentBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(BorderColor).
		Padding(1, 2)

	ChatUser = lipgloss.NewStyle().Foreground(SecondaryColor)
	ChatAssistant = lipgloss.NewStyle().Foreground(TextColor)
	ChatSystem = lipgloss.NewStyle().Foreground(MutedColor).Italic(true)

	ItemSelected = lipgloss.NewStyle().Bold(true).Foreground(SecondaryColor)
	ItemUnselected = lipgloss.NewStyle().Foreground(MutedColor)

	ErrorBanner = lipgloss.NewStyle().
		Bold(true).
		Foreground(ErrorColor)

	InfoBanner = lipgloss.NewStyle().
		Foreground(SecondaryColor)

	HelpBar = lipgloss.NewStyle().
		Foreground(MutedColor)

	HelpKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(SecondaryColor)

	StatusBar = lipgloss.NewStyle().
		Foreground(TextColor).
		Background(SurfaceColor).
		Padding(0, 1)

	ConnBadgeUp = lipgloss.NewStyle().Bold(true).Foreground(ConnUpColor)
	ConnBadgeDown = lipgloss.NewStyle().Bold(true).Foreground(ConnDownColor)
}
