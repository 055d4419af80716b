package app

import (
	"context"
	"errors"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/dropterm/internal/inbox"
	"github.com/nhle/dropterm/internal/model"
	"github.com/nhle/dropterm/internal/session"
	"github.com/nhle/dropterm/internal/source"
	"github.com/nhle/dropterm/internal/status"
)

const (
	// negotiateTimeout bounds one negotiation including retries.
	negotiateTimeout = 2 * time.Minute
	// fetchTimeout is the maximum time allowed for a manual inbox fetch.
	fetchTimeout = 30 * time.Second
)

var errNoSession = errors.New("no established session")

// sessionReadyMsg is sent when negotiation finishes. gen is the
// controller generation the negotiation was started under.
type sessionReadyMsg struct {
	gen int
	ctx *session.Context
	err error
}

// negotiation holds the cancel func of the latest negotiation. Every copy
// of the Model shares it.
type negotiation struct {
	cancel context.CancelFunc
}

// abort cancels the latest negotiation, if any.
func (n *negotiation) abort() {
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
}

// inboxLoadedMsg is sent when a manual fetch finishes.
type inboxLoadedMsg struct {
	sessionID string
	mails     []model.Message
	err       error
}

// negotiate returns a command that runs the session controller. The
// negotiation can be cancelled through m.negotiation until it finishes.
func (m Model) negotiate() tea.Cmd {
	ctrl := m.session
	gen := ctrl.Generation()
	ctx, cancel := context.WithTimeout(context.Background(), negotiateTimeout)
	m.negotiation.abort()
	m.negotiation.cancel = cancel

	return func() tea.Msg {
		defer cancel()

		sc, err := ctrl.Negotiate(ctx)
		if err != nil {
			log.Printf("session negotiation failed: %v", err)
		}
		return sessionReadyMsg{gen: gen, ctx: sc, err: err}
	}
}

// fetchInbox returns a command that fetches the inbox once, regardless
// of the poller and its auto-refresh flag.
func (m Model) fetchInbox() tea.Cmd {
	sc := m.session.Context()
	if sc == nil {
		return nil
	}
	mb := m.mailbox
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		mails, err := mb.Mails(ctx, sc.SessionID())
		if err != nil {
			log.Printf("inbox fetch failed: %v", err)
		}
		return inboxLoadedMsg{sessionID: sc.SessionID(), mails: mails, err: err}
	}
}

// scheduledFetch is the poller's fetch function. It reads the session
// at call time so a replaced identity is never polled.
func scheduledFetch(ctrl *session.Controller, mb source.Mailbox) func(context.Context) ([]model.Message, error) {
	return func(ctx context.Context) ([]model.Message, error) {
		sc := ctrl.Context()
		if sc == nil {
			return nil, errNoSession
		}
		return mb.Mails(ctx, sc.SessionID())
	}
}

// resetIdentity discards every piece of session state and starts a new
// negotiation, as a page reload would.
func (m *Model) resetIdentity() tea.Cmd {
	m.poller.Stop()
	m.negotiation.abort()
	m.session.Reset()
	m.renderer = inbox.NewRenderer(m.cfg.Inbox.SeenLimit)
	m.mailList.Reset()
	m.detail.Clear()
	m.address = ""
	m.addrFeedback = ""
	m.statusMsg = ""
	m.currentView = ViewInbox
	m.indicator.Set(status.Negotiating, "")
	return tea.Batch(m.negotiate(), m.spinner.Tick)
}
