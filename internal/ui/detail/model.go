package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/dropterm/internal/inbox"
	"github.com/nhle/dropterm/internal/keys"
	"github.com/nhle/dropterm/internal/theme"
)

// BackMsg signals the parent to close the detail overlay.
type BackMsg struct{}

// DownloadMsg asks the parent to fetch the raw message behind the row.
type DownloadMsg struct {
	Row inbox.Row
}

// Model is the message detail overlay.
type Model struct {
	row      *inbox.Row
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, max(height-2, 0))
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}

		case key.Matches(msg, m.keys.Download):
			if m.row != nil && m.row.Message.DownloadURL != "" {
				row := *m.row
				return m, func() tea.Msg {
					return DownloadMsg{Row: row}
				}
			}
			return m, nil
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.row == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No message selected")
	}
	return theme.DetailPanelStyle.
		Width(max(m.width-2, 0)).
		Render(m.viewport.View())
}

// renderContent builds the full detail content string for the viewport.
// Every field is passed through the terminal escaper.
func (m Model) renderContent() string {
	if m.row == nil {
		return ""
	}

	row := m.row
	msg := row.Message
	var sections []string

	// Subject
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(inbox.EscapeTerminalLine(row.Subject)))
	sections = append(sections, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	from := msg.From
	if from == "" {
		from = inbox.UnknownSender
	}
	sections = append(sections, fmt.Sprintf(
		"%s     %s",
		metaStyle.Render("From:"),
		valStyle.Render(inbox.EscapeTerminalLine(from)),
	))
	if !msg.ReceivedAt.IsZero() {
		sections = append(sections, fmt.Sprintf(
			"%s %s",
			metaStyle.Render("Received:"),
			valStyle.Render(msg.ReceivedAt.Local().Format("2006-01-02 15:04:05")+
				" ("+humanize.Time(msg.ReceivedAt)+")"),
		))
	}
	if row.HasCode() {
		sections = append(sections, fmt.Sprintf(
			"%s     %s",
			metaStyle.Render("Code:"),
			theme.CodeStyle.Render(row.Code),
		))
	}

	// Separator
	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-8, 80), 0)))
	sections = append(sections, "", separator, "")

	body := inbox.EscapeTerminal(row.Body)
	if strings.TrimSpace(body) == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render(inbox.NoBody)
	} else if w := m.width - 8; w > 0 {
		body = lipgloss.NewStyle().Width(w).Render(body)
	}
	sections = append(sections, body)

	if msg.DownloadURL != "" {
		sections = append(sections, "", separator, "")
		sections = append(sections, fmt.Sprintf(
			"%s %s",
			metaStyle.Render("Download:"),
			valStyle.Render(inbox.EscapeTerminalLine(msg.DownloadURL)),
		))
		sections = append(sections, theme.HelpStyle.Render("press d to save the raw message"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetRow updates the message being displayed and re-renders the content.
func (m *Model) SetRow(row inbox.Row) {
	m.row = &row
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Row returns the displayed row, if any.
func (m Model) Row() (inbox.Row, bool) {
	if m.row == nil {
		return inbox.Row{}, false
	}
	return *m.row, true
}

// Clear removes the displayed message.
func (m *Model) Clear() {
	m.row = nil
	m.viewport.SetContent("")
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = max(width-6, 0)
	m.viewport.Height = max(height-4, 0)
	if m.row != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
