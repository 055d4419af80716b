package confirm

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/dropterm/internal/theme"
)

// NewIdentityPrompt is asked before the current session is discarded.
const NewIdentityPrompt = "TERMINATE CURRENT SESSION AND GENERATE NEW ID?"

// ResultMsg reports the user's answer.
type ResultMsg struct {
	Confirmed bool
}

// Model is a yes/no dialog built on huh.
type Model struct {
	form *huh.Form
	// confirmed is heap-held so the huh binding survives Model copies.
	confirmed *bool
	width     int
	height    int
}

// New creates a dialog asking title. The default answer is no.
func New(title, description string, width, height int) Model {
	confirmed := false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes, terminate").
				Negative("Cancel").
				Value(&confirmed),
		),
	).WithWidth(formWidth(width)).WithShowHelp(true)

	return Model{
		form:      form,
		confirmed: &confirmed,
		width:     width,
		height:    height,
	}
}

// NewIdentity creates the dialog shown before generating a new address.
func NewIdentity(width, height int) Model {
	return New(NewIdentityPrompt,
		"The current address and its inbox will be abandoned.",
		width, height)
}

func formWidth(width int) int {
	return max(min(width-8, 72), 20)
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update forwards to the form and emits ResultMsg once it is answered.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		return m, answer(false)
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if res, done := m.result(); done {
		return m, answer(res.Confirmed)
	}
	return m, cmd
}

// result reports the answer once the form has finished.
func (m Model) result() (ResultMsg, bool) {
	switch m.form.State {
	case huh.StateCompleted:
		return ResultMsg{Confirmed: *m.confirmed}, true
	case huh.StateAborted:
		return ResultMsg{Confirmed: false}, true
	default:
		return ResultMsg{}, false
	}
}

func answer(ok bool) tea.Cmd {
	return func() tea.Msg {
		return ResultMsg{Confirmed: ok}
	}
}

// View renders the dialog.
func (m Model) View() string {
	return theme.DetailPanelStyle.
		Width(max(m.width-4, 0)).
		Render(lipgloss.NewStyle().Padding(0, 1).Render(m.form.View()))
}

// SetSize updates the dialog dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.form = m.form.WithWidth(formWidth(width))
}
