package command

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/dropterm/internal/theme"
)

// Palette command names.
const (
	Refresh = "refresh"
	Toggle  = "toggle"
	New     = "new"
	Copy    = "copy"
	Export  = "export"
	Quit    = "quit"
)

// Names lists every command in the order shown as suggestions.
var Names = []string{Refresh, Toggle, New, Copy, Export, Quit}

// CommandMsg is emitted when the user executes a valid command.
type CommandMsg struct {
	Name string
	Arg  string
}

// ErrorMsg is emitted when the input does not parse.
type ErrorMsg struct {
	Err error
}

// Parse splits input into a command name and its argument.
func Parse(input string) (CommandMsg, error) {
	input = strings.TrimSpace(input)
	name, arg, _ := strings.Cut(input, " ")
	name = strings.ToLower(name)
	arg = strings.TrimSpace(arg)

	switch name {
	case Refresh, Toggle, New, Copy, Quit:
		if arg != "" {
			return CommandMsg{}, fmt.Errorf("%s takes no argument", name)
		}
	case Export:
		if arg == "" {
			return CommandMsg{}, fmt.Errorf("export needs a file path")
		}
	case "q":
		name = Quit
	default:
		return CommandMsg{}, fmt.Errorf("unknown command %q", name)
	}
	return CommandMsg{Name: name, Arg: arg}, nil
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// NewModel creates a new command palette model.
func NewModel(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "refresh, toggle, new, copy, export <path>, quit"
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	ti.SetSuggestions(Names)
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		raw := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		if raw == "" {
			return m, nil
		}
		parsed, err := Parse(raw)
		if err != nil {
			return m, func() tea.Msg {
				return ErrorMsg{Err: err}
			}
		}
		return m, func() tea.Msg {
			return parsed
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Command Palette"),
		m.input.View(),
	)

	return theme.DetailPanelStyle.
		Width(max(m.width-4, 0)).
		Render(content)
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	m.input.Reset()
	return m.input.Focus()
}
