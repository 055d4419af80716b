package maillist

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/dropterm/internal/inbox"
	"github.com/nhle/dropterm/internal/keys"
	"github.com/nhle/dropterm/internal/theme"
)

// SelectedMsg is sent when the user opens a message.
type SelectedMsg struct {
	Row inbox.Row
}

// Model is the inbox list view. It is the terminal inbox.Sink.
type Model struct {
	list   list.Model
	keys   *keys.KeyMap
	copied *string
	empty  bool
	width  int
	height int
}

var _ inbox.Sink = (*Model)(nil)

// New creates an inbox list with no rows and no placeholder shown yet.
func New(k *keys.KeyMap, width, height int) Model {
	copied := new(string)
	l := list.New([]list.Item{}, ItemDelegate{copied: copied}, width, height)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	return Model{
		list:   l,
		keys:   k,
		copied: copied,
		width:  width,
		height: height,
	}
}

// ShowEmpty implements inbox.Sink.
func (m *Model) ShowEmpty() {
	m.empty = true
	m.list.SetItems(nil)
}

// ShowingEmpty implements inbox.Sink.
func (m *Model) ShowingEmpty() bool { return m.empty }

// Replace implements inbox.Sink. The cursor stays on the message it was
// on, even when new mail is inserted above it.
func (m *Model) Replace(rows []inbox.Row) {
	m.empty = false
	prev, hadSelection := m.Selected()

	items := make([]list.Item, len(rows))
	for i, r := range rows {
		items[i] = MailItem{Row: r}
	}
	m.list.SetItems(items)

	if hadSelection {
		for i, r := range rows {
			if r.Message.ID == prev.Message.ID {
				m.list.Select(i)
				return
			}
		}
	}
	if n := len(rows); n > 0 && m.list.Index() >= n {
		m.list.Select(n - 1)
	}
}

// SetCopied marks the row with id as just copied. An empty id clears
// the mark.
func (m *Model) SetCopied(id string) {
	*m.copied = id
}

// Copied returns the id of the row marked as copied.
func (m Model) Copied() string { return *m.copied }

// Reset drops every row and the placeholder, as for a fresh session.
func (m *Model) Reset() {
	m.empty = false
	*m.copied = ""
	m.list.SetItems(nil)
	m.list.ResetSelected()
}

// Selected returns the focused row.
func (m Model) Selected() (inbox.Row, bool) {
	it, ok := m.list.SelectedItem().(MailItem)
	if !ok {
		return inbox.Row{}, false
	}
	return it.Row, true
}

// Rows returns every displayed row in display order.
func (m Model) Rows() []inbox.Row {
	items := m.list.Items()
	rows := make([]inbox.Row, 0, len(items))
	for _, it := range items {
		if mi, ok := it.(MailItem); ok {
			rows = append(rows, mi.Row)
		}
	}
	return rows
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the inbox list.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Select) {
		row, ok := m.Selected()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedMsg{Row: row}
		}
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the inbox list or its placeholder.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

// renderEmptyState shows the listening placeholder, or nothing before
// the first inbox fetch has completed.
func (m Model) renderEmptyState() string {
	if !m.empty {
		return ""
	}
	return lipgloss.NewStyle().
		Width(m.width).
		Padding(1, 2).
		Foreground(theme.ColorGreen).
		Render(inbox.EmptyInboxText)
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}
