package maillist

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/dropterm/internal/inbox"
	"github.com/nhle/dropterm/internal/theme"
)

// MailItem wraps an inbox.Row so it can be used in a bubbles/list.
type MailItem struct {
	Row inbox.Row
}

// FilterValue returns the string used for fuzzy filtering.
func (i MailItem) FilterValue() string { return i.Row.Sender + " " + i.Row.Subject }

// Title returns the sender display name.
func (i MailItem) Title() string { return inbox.EscapeTerminalLine(i.Row.Sender) }

// Description returns the subject line.
func (i MailItem) Description() string { return inbox.EscapeTerminalLine(i.Row.Subject) }

// ItemDelegate renders one inbox row on two lines: sender and age, then
// subject and the code or read marker.
type ItemDelegate struct {
	// copied holds the id of the row whose code was just copied.
	// Shared by reference with the maillist Model so updates are visible.
	copied *string
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 2 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 1 }

// Update handles per-item messages (unused for now).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single inbox row.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	mi, ok := item.(MailItem)
	if !ok {
		return
	}

	senderStyle := lipgloss.NewStyle().Bold(true)
	ageStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)

	first := senderStyle.Render(mi.Title())
	if t := mi.Row.Message.ReceivedAt; !t.IsZero() {
		first += "  " + ageStyle.Render(humanize.Time(t))
	}

	marker := Marker(mi.Row)
	if d.copied != nil && *d.copied != "" && *d.copied == mi.Row.Message.ID {
		marker = theme.FeedbackStyle.Render("[COPIED]")
	}
	second := fmt.Sprintf("%s  %s", mi.Description(), marker)

	line := lipgloss.JoinVertical(lipgloss.Left, first, second)
	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// Marker returns "[CODE: n]" for rows with a passcode, "[READ]"
// otherwise.
func Marker(r inbox.Row) string {
	if r.HasCode() {
		return theme.CodeStyle.Render(fmt.Sprintf("[CODE: %s]", r.Code))
	}
	return theme.ReadStyle.Render("[READ]")
}
