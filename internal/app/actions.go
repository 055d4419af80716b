package app

import (
	"context"
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/dropterm/internal/inbox"
	"github.com/nhle/dropterm/internal/model"
	"github.com/nhle/dropterm/internal/rawmail"
)

// Feedback durations for clipboard actions.
const (
	addressFeedbackDuration = 2 * time.Second
	codeFeedbackDuration    = time.Second
	downloadTimeout         = time.Minute
)

type copyKind int

const (
	copyAddress copyKind = iota
	copyCode
)

// copyResultMsg is sent after a clipboard write.
type copyResultMsg struct {
	kind  copyKind
	rowID string
	err   error
}

// clearFeedbackMsg removes copy feedback once its generation is current.
type clearFeedbackMsg struct {
	kind copyKind
	gen  int
}

// pulseRevertMsg ends an intercepted pulse.
type pulseRevertMsg struct {
	gen int
}

// downloadDoneMsg is sent after a raw message was fetched and saved.
type downloadDoneMsg struct {
	path    string
	summary *rawmail.Summary
	err     error
}

// copyText returns a command writing text to the clipboard.
func (m Model) copyText(kind copyKind, rowID, text string) tea.Cmd {
	cb := m.clipboard
	return func() tea.Msg {
		err := cb.WriteAll(text)
		if err != nil {
			log.Printf("clipboard write failed: %v", err)
		}
		return copyResultMsg{kind: kind, rowID: rowID, err: err}
	}
}

// copyAddressCmd copies the current address, if any.
func (m Model) copyAddressCmd() tea.Cmd {
	if m.address == "" {
		return nil
	}
	return m.copyText(copyAddress, "", m.address)
}

// copyCodeCmd copies the passcode of the focused message.
func (m *Model) copyCodeCmd() tea.Cmd {
	row, ok := m.focusedRow()
	if !ok || !row.HasCode() {
		m.statusMsg = "no code in this message"
		return nil
	}
	return m.copyText(copyCode, row.Message.ID, row.Code)
}

// focusedRow is the detail row when the overlay is open, otherwise the
// list selection.
func (m Model) focusedRow() (inbox.Row, bool) {
	if m.currentView == ViewDetail {
		return m.detail.Row()
	}
	return m.mailList.Selected()
}

// handleCopyResult shows feedback and schedules its removal.
func (m *Model) handleCopyResult(msg copyResultMsg) tea.Cmd {
	if msg.err != nil {
		m.statusMsg = "clipboard unavailable: " + msg.err.Error()
		return nil
	}

	m.feedbackGen++
	gen := m.feedbackGen

	switch msg.kind {
	case copyAddress:
		m.addrFeedback = "COPIED"
		return tea.Tick(addressFeedbackDuration, func(time.Time) tea.Msg {
			return clearFeedbackMsg{kind: copyAddress, gen: gen}
		})
	default:
		m.mailList.SetCopied(msg.rowID)
		m.statusMsg = "[COPIED]"
		return tea.Tick(codeFeedbackDuration, func(time.Time) tea.Msg {
			return clearFeedbackMsg{kind: copyCode, gen: gen}
		})
	}
}

func (m *Model) clearFeedback(msg clearFeedbackMsg) {
	if msg.gen != m.feedbackGen {
		return
	}
	switch msg.kind {
	case copyAddress:
		m.addrFeedback = ""
	default:
		m.mailList.SetCopied("")
		if m.statusMsg == "[COPIED]" {
			m.statusMsg = ""
		}
	}
}

// toggleAutoRefresh flips the poller flag and reports the result.
func (m *Model) toggleAutoRefresh() {
	on := m.poller.ToggleAutoRefresh()
	state := "off"
	if on {
		state = "on"
	}
	m.statusMsg = "auto-refresh " + state
	if m.poller.Mode() == model.PollModeAlways {
		m.statusMsg += " (polling mode is always)"
	}
	m.helpView.SetPolling(m.pollingInfo())
}

// export writes the displayed inbox as HTML.
func (m *Model) export(path string) {
	if err := inbox.ExportFile(path, m.address, m.mailList.Rows()); err != nil {
		log.Printf("export failed: %v", err)
		m.statusMsg = "export failed: " + err.Error()
		return
	}
	m.statusMsg = "exported inbox to " + path
}

// download returns a command that fetches and saves the raw message.
func (m Model) download(row inbox.Row) tea.Cmd {
	mb := m.mailbox
	dir := m.cfg.Download.Dir
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), downloadTimeout)
		defer cancel()

		raw, err := mb.Download(ctx, row.Message.DownloadURL)
		if err != nil {
			return downloadDoneMsg{err: err}
		}

		path, err := rawmail.Save(dir, row.Message.ID, raw)
		if err != nil {
			return downloadDoneMsg{err: err}
		}

		summary, err := rawmail.Parse(raw)
		if err != nil {
			log.Printf("saved %s but could not parse it: %v", path, err)
			summary = &rawmail.Summary{Size: len(raw)}
		}
		return downloadDoneMsg{path: path, summary: summary}
	}
}

func (m *Model) handleDownload(msg downloadDoneMsg) {
	if msg.err != nil {
		log.Printf("download failed: %v", msg.err)
		m.statusMsg = "download failed: " + msg.err.Error()
		return
	}
	m.statusMsg = fmt.Sprintf("saved %s (%s)", msg.path, msg.summary.Describe())
}
