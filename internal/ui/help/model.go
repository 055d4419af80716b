package help

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/dropterm/internal/keys"
	"github.com/nhle/dropterm/internal/theme"
)

// Polling describes the poller for the help footer.
type Polling struct {
	Interval    time.Duration
	Mode        string
	AutoRefresh bool
}

// Model is the help overlay view.
type Model struct {
	keys    *keys.KeyMap
	help    help.Model
	polling Polling
	width   int
	height  int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	h.ShowAll = true
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// SetPolling updates the poller description.
func (m *Model) SetPolling(p Polling) {
	m.polling = p
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	m.help.Width = m.width - 4

	auto := "on"
	if !m.polling.AutoRefresh {
		auto = "off"
	}
	footer := theme.HelpStyle.Render(fmt.Sprintf(
		"polling every %s, mode %s, auto-refresh %s",
		m.polling.Interval, m.polling.Mode, auto,
	))

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Keyboard Shortcuts"),
		m.help.View(m.keys),
		"",
		footer,
	)

	return theme.DetailPanelStyle.
		Width(max(m.width-4, 0)).
		Height(max(m.height-4, 0)).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
