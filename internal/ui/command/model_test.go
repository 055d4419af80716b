package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    CommandMsg
		wantErr bool
	}{
		{in: "refresh", want: CommandMsg{Name: Refresh}},
		{in: "  TOGGLE ", want: CommandMsg{Name: Toggle}},
		{in: "new", want: CommandMsg{Name: New}},
		{in: "copy", want: CommandMsg{Name: Copy}},
		{in: "q", want: CommandMsg{Name: Quit}},
		{in: "export /tmp/inbox.html", want: CommandMsg{Name: Export, Arg: "/tmp/inbox.html"}},
		{in: "export", wantErr: true},
		{in: "refresh now", wantErr: true},
		{in: "configure", wantErr: true},
	}

	for _, tc := range tests {
		got, err := Parse(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func typeString(m Model, s string) Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestUpdate_Enter(t *testing.T) {
	m := typeString(NewModel(80, 10), "export out.html")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, CommandMsg{Name: Export, Arg: "out.html"}, cmd())
}

func TestUpdate_EnterInvalid(t *testing.T) {
	m := typeString(NewModel(80, 10), "bogus")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	errMsg, ok := cmd().(ErrorMsg)
	require.True(t, ok)
	assert.Error(t, errMsg.Err)
}

func TestUpdate_EnterEmpty(t *testing.T) {
	_, cmd := NewModel(80, 10).Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}
