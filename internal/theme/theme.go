package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/dropterm/internal/model"
	"github.com/nhle/dropterm/internal/status"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

var (
	// HeaderStyle is used for the address bar and the application title.
	HeaderStyle lipgloss.Style
	// StatusBarStyle is used for the bottom status bar.
	StatusBarStyle lipgloss.Style
	// DetailPanelStyle wraps the message detail overlay.
	DetailPanelStyle lipgloss.Style
	// ListItemStyle is the base style for inbox rows.
	ListItemStyle lipgloss.Style
	// SelectedItemStyle highlights the focused inbox row.
	SelectedItemStyle lipgloss.Style
	// HelpStyle is used for keyboard shortcut hints and help text.
	HelpStyle lipgloss.Style
	// BorderStyle provides a standard rounded border for panels.
	BorderStyle lipgloss.Style
	// CodeStyle marks an extracted passcode.
	CodeStyle lipgloss.Style
	// ReadStyle marks a row without a passcode.
	ReadStyle lipgloss.Style
	// FeedbackStyle shows transient copy confirmations.
	FeedbackStyle lipgloss.Style
)

func init() {
	Apply(model.ThemeDefault)
}

// Apply rebuilds every style for the named theme. Unknown names fall
// back to the default palette.
func Apply(name string) {
	accent, fg, subtle, border := lipgloss.TerminalColor(ColorBlue), lipgloss.TerminalColor(ColorWhite),
		lipgloss.TerminalColor(ColorSubtle), lipgloss.TerminalColor(ColorBorder)
	if name == model.ThemePhosphor {
		phosphor := lipgloss.Color("#33FF66")
		accent, fg, subtle, border = phosphor, lipgloss.Color("#000000"), lipgloss.Color("#0F3D1A"), phosphor
	}

	HeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(fg).
		Background(accent).
		Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(ColorWhite).
		Background(subtle).
		Padding(0, 1)

	DetailPanelStyle = lipgloss.NewStyle().
		Padding(1, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border)

	ListItemStyle = lipgloss.NewStyle().
		PaddingLeft(2)

	SelectedItemStyle = lipgloss.NewStyle().
		PaddingLeft(1).
		Bold(true).
		Foreground(accent).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(accent)

	HelpStyle = lipgloss.NewStyle().
		Foreground(ColorGray).
		Italic(true)

	BorderStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border)

	CodeStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorYellow)
	ReadStyle = lipgloss.NewStyle().Foreground(ColorGray)
	FeedbackStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorGreen)
}

// StatusStyle returns a color-coded style for the link indicator.
func StatusStyle(s status.State) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch s {
	case status.Negotiating:
		return base.Foreground(ColorYellow)
	case status.Established:
		return base.Foreground(ColorGreen)
	case status.Error:
		return base.Foreground(ColorRed)
	case status.Intercepted:
		return base.Foreground(ColorMagenta)
	default:
		return base.Foreground(ColorGray)
	}
}
