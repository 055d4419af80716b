package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/dropterm/internal/theme"
)

// Layout manages the terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	return max(l.Height-l.HeaderHeight-l.StatusBarHeight, 0)
}

// RenderHeader renders the address bar: the current address on the
// left, an optional feedback tag after it, the link indicator on the
// right.
func (l Layout) RenderHeader(address, feedback, indicator string) string {
	left := theme.HeaderStyle.Render(address)
	if feedback != "" {
		left = lipgloss.JoinHorizontal(lipgloss.Top,
			left,
			theme.HeaderStyle.Render(feedback),
		)
	}
	right := theme.HeaderStyle.Render(indicator)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, l.fill(theme.HeaderStyle, left, right), right)
}

// RenderStatusBar renders the bottom status bar with a message on the
// left and keyboard hints on the right.
func (l Layout) RenderStatusBar(message, hints string) string {
	left := theme.StatusBarStyle.Render(message)
	right := theme.StatusBarStyle.Render(hints)
	if lipgloss.Width(left)+lipgloss.Width(right) > l.Width {
		right = ""
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, left, l.fill(theme.StatusBarStyle, left, right), right)
}

func (l Layout) fill(style lipgloss.Style, parts ...string) string {
	gap := l.Width
	for _, p := range parts {
		gap -= lipgloss.Width(p)
	}
	if gap <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, and status bar.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	content = lipgloss.NewStyle().Height(l.ContentHeight()).MaxHeight(l.ContentHeight()).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}
