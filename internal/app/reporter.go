package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/dropterm/internal/status"
)

// statusReportMsg carries a state change reported off the UI loop.
type statusReportMsg struct {
	state  status.State
	reason string
}

// Reporter forwards status reports from network goroutines to the
// Bubble Tea loop, which is the only place the indicator changes.
type Reporter struct {
	ch chan statusReportMsg
}

var _ status.Reporter = (*Reporter)(nil)

// NewReporter creates a Reporter with a small buffer.
func NewReporter() *Reporter {
	return &Reporter{ch: make(chan statusReportMsg, 32)}
}

// Report implements status.Reporter. It never blocks; reports beyond
// the buffer are dropped.
func (r *Reporter) Report(s status.State, reason string) {
	select {
	case r.ch <- statusReportMsg{state: s, reason: reason}:
	default:
	}
}

// waitForReport returns a tea.Cmd that waits for the next report.
func (r *Reporter) waitForReport() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-r.ch
		if !ok {
			return nil
		}
		return msg
	}
}
