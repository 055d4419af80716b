package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/dropterm/internal/inbox"
	"github.com/nhle/dropterm/internal/keys"
	"github.com/nhle/dropterm/internal/model"
	"github.com/nhle/dropterm/internal/session"
	"github.com/nhle/dropterm/internal/source"
	"github.com/nhle/dropterm/internal/status"
	appsync "github.com/nhle/dropterm/internal/sync"
	"github.com/nhle/dropterm/internal/theme"
	"github.com/nhle/dropterm/internal/ui"
	"github.com/nhle/dropterm/internal/ui/command"
	"github.com/nhle/dropterm/internal/ui/confirm"
	"github.com/nhle/dropterm/internal/ui/detail"
	helpview "github.com/nhle/dropterm/internal/ui/help"
	"github.com/nhle/dropterm/internal/ui/maillist"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewInbox ViewState = iota
	ViewDetail
	ViewHelp
	ViewCommand
	ViewConfirm
)

// Options wires the root model to its collaborators.
type Options struct {
	Config    *model.AppConfig
	Mailbox   source.Mailbox
	Reporter  *Reporter
	Clipboard Clipboard
	// PollerOptions are appended after the ones derived from Config.
	PollerOptions []appsync.Option
}

// Model is the root Bubble Tea model that manages view routing,
// layout, and the session lifecycle.
type Model struct {
	cfg       *model.AppConfig
	mailbox   source.Mailbox
	reporter  *Reporter
	clipboard Clipboard

	session     *session.Controller
	negotiation *negotiation
	poller      *appsync.Poller
	renderer    *inbox.Renderer
	indicator   *status.Indicator

	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap
	mailList     maillist.Model
	detail       detail.Model
	helpView     helpview.Model
	commandView  command.Model
	confirmView  confirm.Model
	spinner      spinner.Model

	address      string
	addrFeedback string
	feedbackGen  int
	statusMsg    string
	fetchFailed  bool
	ready        bool
}

// New creates the root application model.
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = model.DefaultAppConfig()
	}
	rep := opts.Reporter
	if rep == nil {
		rep = NewReporter()
	}
	cb := opts.Clipboard
	if cb == nil {
		cb = SystemClipboard{}
	}

	ctrl := session.NewController(opts.Mailbox,
		session.WithDomain(cfg.API.DomainID),
		session.WithReporter(rep),
		session.WithRetry(session.RetryConfig{
			Attempts:  cfg.Session.RetryAttempts,
			BaseDelay: cfg.Session.RetryBaseDelay,
			MaxDelay:  cfg.Session.RetryMaxDelay,
		}),
	)

	pollOpts := append([]appsync.Option{
		appsync.WithInterval(cfg.Polling.Interval),
		appsync.WithMode(cfg.Polling.Mode),
		appsync.WithAutoRefresh(cfg.Polling.AutoRefresh),
	}, opts.PollerOptions...)
	p := appsync.New(scheduledFetch(ctrl, opts.Mailbox), pollOpts...)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	k := keys.DefaultKeyMap()
	m := Model{
		cfg:         cfg,
		mailbox:     opts.Mailbox,
		reporter:    rep,
		clipboard:   cb,
		session:     ctrl,
		negotiation: &negotiation{},
		poller:      p,
		renderer:    inbox.NewRenderer(cfg.Inbox.SeenLimit),
		indicator:   status.NewIndicator(),
		currentView: ViewInbox,
		keys:        k,
		mailList:    maillist.New(k, 80, 22),
		detail:      detail.New(k, 80, 22),
		helpView:    helpview.New(k, 80, 22),
		commandView: command.NewModel(80, 22),
		confirmView: confirm.NewIdentity(80, 22),
		spinner:     sp,
	}
	m.helpView.SetPolling(m.pollingInfo())
	return m
}

// Init starts listening for status reports and negotiates the first
// session.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.reporter.waitForReport(),
		m.negotiate(),
		m.spinner.Tick,
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := msg.Width, m.layout.ContentHeight()
		m.mailList.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		m.confirmView.SetSize(w, h)
		// Forward to active view so the huh form can calculate its layout.
		return m.updateActiveView(msg)

	case spinner.TickMsg:
		if m.session.State() == session.Established {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case statusReportMsg:
		m.indicator.Set(msg.state, msg.reason)
		return m, m.reporter.waitForReport()

	case sessionReadyMsg:
		if msg.gen != m.session.Generation() {
			return m, nil
		}
		if msg.err != nil {
			if errors.Is(msg.err, session.ErrAlreadyStarted) || errors.Is(msg.err, session.ErrSuperseded) {
				return m, nil
			}
			m.statusMsg = "session negotiation failed, press n to retry"
			return m, nil
		}
		m.address = msg.ctx.Address()
		m.statusMsg = ""
		m.renderer.Render(nil, &m.mailList)
		return m, tea.Batch(m.poller.Start(), m.fetchInbox())

	case inboxLoadedMsg:
		sc := m.session.Context()
		if sc == nil || sc.SessionID() != msg.sessionID {
			return m, nil
		}
		return m, m.applyInbox(msg.mails, msg.err)

	case appsync.PollResultMsg:
		wait := m.poller.WaitForNextResult()
		if msg.Epoch != m.poller.Epoch() || m.session.State() != session.Established {
			return m, wait
		}
		return m, tea.Batch(wait, m.applyInbox(msg.Mails, msg.Err))

	case pulseRevertMsg:
		m.indicator.Revert(msg.gen)
		return m, nil

	case copyResultMsg:
		return m, m.handleCopyResult(msg)

	case clearFeedbackMsg:
		m.clearFeedback(msg)
		return m, nil

	case downloadDoneMsg:
		m.handleDownload(msg)
		return m, nil

	case maillist.SelectedMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.detail.SetRow(msg.Row)
		return m, nil

	case detail.BackMsg:
		m.currentView = ViewInbox
		m.detail.Clear()
		return m, nil

	case detail.DownloadMsg:
		m.statusMsg = "downloading raw message..."
		return m, m.download(msg.Row)

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(msg)

	case command.ErrorMsg:
		m.currentView = m.previousView
		m.statusMsg = msg.Err.Error()
		return m, nil

	case confirm.ResultMsg:
		if !msg.Confirmed {
			m.currentView = m.previousView
			return m, nil
		}
		return m, m.resetIdentity()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.poller.Stop()
			return m, tea.Quit
		}
		// Input views receive every other key.
		if m.currentView == ViewCommand || m.currentView == ViewConfirm {
			if msg.String() == "esc" && m.currentView == ViewCommand {
				m.currentView = m.previousView
				return m, nil
			}
			return m.updateActiveView(msg)
		}
		return m.handleKey(msg)
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleKey processes global keys outside input views.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.poller.Stop()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m, m.commandView.Focus()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.fetchInbox()

	case key.Matches(msg, m.keys.AutoRefresh):
		m.toggleAutoRefresh()
		return m, nil

	case key.Matches(msg, m.keys.CopyAddress):
		return m, m.copyAddressCmd()

	case key.Matches(msg, m.keys.CopyCode):
		if m.currentView == ViewHelp {
			return m, nil
		}
		return m, m.copyCodeCmd()

	case key.Matches(msg, m.keys.NewIdentity):
		return m, m.openConfirm()

	case key.Matches(msg, m.keys.Back) && m.currentView == ViewHelp:
		m.currentView = m.previousView
		return m, nil
	}

	return m.updateActiveView(msg)
}

// openConfirm shows the new identity dialog.
func (m *Model) openConfirm() tea.Cmd {
	if m.currentView != ViewConfirm {
		m.previousView = m.currentView
	}
	m.currentView = ViewConfirm
	m.confirmView = confirm.NewIdentity(m.layout.Width, m.layout.ContentHeight())
	return m.confirmView.Init()
}

// applyInbox renders a fetched inbox. A failed fetch leaves the display
// unchanged; the gateway has already reported the error.
func (m *Model) applyInbox(mails []model.Message, err error) tea.Cmd {
	if err != nil {
		if errors.Is(err, errNoSession) {
			return nil
		}
		m.statusMsg = fmt.Sprintf("%s error, keeping last inbox", source.Kind(err))
		m.fetchFailed = true
		return nil
	}
	if m.fetchFailed {
		m.statusMsg = ""
		m.fetchFailed = false
	}

	res := m.renderer.Render(mails, &m.mailList)
	if m.currentView == ViewDetail {
		if row, ok := m.detail.Row(); ok {
			m.refreshDetail(row.Message.ID)
		}
	}
	if res.NewCount() == 0 {
		return nil
	}

	gen := m.indicator.Pulse()
	return tea.Tick(status.PulseDuration, func(_ time.Time) tea.Msg {
		return pulseRevertMsg{gen: gen}
	})
}

// refreshDetail re-renders the open message from the latest rows.
func (m *Model) refreshDetail(id string) {
	for _, r := range m.mailList.Rows() {
		if r.Message.ID == id {
			m.detail.SetRow(r)
			return
		}
	}
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewInbox:
		m.mailList, cmd = m.mailList.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewConfirm:
		m.confirmView, cmd = m.confirmView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.addressLabel(), m.addrFeedback, m.indicatorLabel())
	statusBar := m.layout.RenderStatusBar(m.statusLine(), m.keyHints())

	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewInbox:
		return m.mailList.View()
	case ViewDetail:
		return m.detail.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewConfirm:
		return m.confirmView.View()
	default:
		return ""
	}
}

func (m Model) addressLabel() string {
	if m.address == "" {
		return "acquiring address..."
	}
	return inbox.EscapeTerminalLine(m.address)
}

func (m Model) indicatorLabel() string {
	s := m.indicator.State()
	label := theme.StatusStyle(s).Render(s.Label())
	if s == status.Negotiating {
		return m.spinner.View() + label
	}
	return label
}

func (m Model) statusLine() string {
	if m.statusMsg != "" {
		return m.statusMsg
	}
	if m.indicator.State() == status.Error && m.indicator.Reason() != "" {
		return inbox.EscapeTerminalLine(m.indicator.Reason())
	}
	return ""
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewConfirm:
		return "←/→ choose | enter confirm | esc cancel"
	case ViewDetail:
		return "esc close | c copy code | d download | j/k scroll"
	default:
		auto := "on"
		if !m.poller.AutoRefresh() {
			auto = "off"
		}
		return fmt.Sprintf("r refresh | a auto:%s | y copy | c code | n new | ? help | q quit", auto)
	}
}

func (m Model) pollingInfo() helpview.Polling {
	return helpview.Polling{
		Interval:    m.cfg.Polling.Interval,
		Mode:        m.poller.Mode(),
		AutoRefresh: m.poller.AutoRefresh(),
	}
}

// executeCommand handles a command from the command palette.
func (m *Model) executeCommand(cmd command.CommandMsg) tea.Cmd {
	switch cmd.Name {
	case command.Refresh:
		return m.fetchInbox()
	case command.Toggle:
		m.toggleAutoRefresh()
		return nil
	case command.New:
		return m.openConfirm()
	case command.Copy:
		return m.copyAddressCmd()
	case command.Export:
		m.export(cmd.Arg)
		return nil
	case command.Quit:
		m.poller.Stop()
		return tea.Quit
	default:
		return nil
	}
}
