package dropmail

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nhle/dropterm/internal/model"
	"github.com/nhle/dropterm/internal/source"
)

const (
	sessionQuery = `mutation { introduceSession { id addresses { address } } }`

	pinnedSessionQuery = `mutation($domainId: ID!) { ` +
		`introduceSession(input: {withAddress: true, domainId: $domainId}) ` +
		`{ id addresses { address } } }`

	addressQuery = `mutation($sessId: ID!) { ` +
		`introduceAddress(input: {sessionId: $sessId}) { address } }`

	pinnedAddressQuery = `mutation($sessId: ID!, $domainId: ID!) { ` +
		`introduceAddress(input: {sessionId: $sessId, domainId: $domainId}) { address } }`

	mailsQuery = `query($sessId: ID!) { session(id: $sessId) { ` +
		`mails { id fromAddr headerSubject text html downloadUrl receivedAt } } }`
)

// sharedFetchTimeout bounds one coalesced inbox request.
const sharedFetchTimeout = 30 * time.Second

// Adapter implements source.Mailbox on top of the dropmail GraphQL API.
type Adapter struct {
	client *Client

	// inflight coalesces overlapping inbox fetches for one session.
	inflight singleflight.Group
}

var _ source.Mailbox = (*Adapter)(nil)

// NewAdapter creates a mailbox backed by client.
func NewAdapter(client *Client) *Adapter {
	return &Adapter{client: client}
}

// IntroduceSession creates a new session, pinned to domainID if given.
func (a *Adapter) IntroduceSession(ctx context.Context, domainID string) (*model.Session, error) {
	const op = "introduceSession"

	query := sessionQuery
	vars := map[string]any{}
	if domainID != "" {
		query = pinnedSessionQuery
		vars["domainId"] = domainID
	}

	var data introduceSessionData
	if err := a.client.Do(ctx, op, query, vars, &data); err != nil {
		return nil, err
	}
	if data.IntroduceSession == nil || data.IntroduceSession.ID == "" {
		return nil, a.payloadErr(op, "session id missing")
	}

	sess := &model.Session{ID: data.IntroduceSession.ID}
	for _, addr := range data.IntroduceSession.Addresses {
		if addr.Address != "" {
			sess.Addresses = append(sess.Addresses, addr.Address)
		}
	}
	return sess, nil
}

// IntroduceAddress requests one more address for sessionID.
func (a *Adapter) IntroduceAddress(ctx context.Context, sessionID, domainID string) (string, error) {
	const op = "introduceAddress"

	query := addressQuery
	vars := map[string]any{"sessId": sessionID}
	if domainID != "" {
		query = pinnedAddressQuery
		vars["domainId"] = domainID
	}

	var data introduceAddressData
	if err := a.client.Do(ctx, op, query, vars, &data); err != nil {
		return "", err
	}
	if data.IntroduceAddress == nil || data.IntroduceAddress.Address == "" {
		return "", a.payloadErr(op, "address missing")
	}
	return data.IntroduceAddress.Address, nil
}

// Mails lists the messages of sessionID in upstream (oldest-first)
// order. Concurrent calls for the same session share one request. The
// shared request is detached from any single caller's cancellation and
// bounded by sharedFetchTimeout; each caller still stops waiting when
// its own ctx is done.
func (a *Adapter) Mails(ctx context.Context, sessionID string) ([]model.Message, error) {
	ch := a.inflight.DoChan(sessionID, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()
		return a.fetchMails(fetchCtx, sessionID)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for inbox: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]model.Message), nil
	}
}

func (a *Adapter) fetchMails(ctx context.Context, sessionID string) ([]model.Message, error) {
	const op = "session"

	var data sessionData
	err := a.client.Do(ctx, op, mailsQuery, map[string]any{"sessId": sessionID}, &data)
	if err != nil {
		return nil, err
	}
	if data.Session == nil {
		return nil, a.payloadErr(op, "session not found")
	}
	if data.Session.Mails == nil {
		return nil, a.payloadErr(op, "mails missing")
	}

	messages := make([]model.Message, 0, len(data.Session.Mails))
	for _, m := range data.Session.Mails {
		messages = append(messages, toMessage(m))
	}
	return messages, nil
}

// Download fetches the raw message behind downloadURL.
func (a *Adapter) Download(ctx context.Context, downloadURL string) ([]byte, error) {
	return a.client.Download(ctx, downloadURL)
}

// payloadErr builds and reports a missing-field error.
func (a *Adapter) payloadErr(op, reason string) error {
	err := &source.PayloadError{Op: op, Reason: reason}
	a.client.fail(op, err)
	return err
}

func toMessage(m mailPayload) model.Message {
	msg := model.Message{
		ID:          m.ID,
		From:        m.FromAddr,
		Subject:     m.HeaderSubject,
		Text:        m.Text,
		HTML:        m.HTML,
		DownloadURL: m.DownloadURL,
	}
	if m.ReceivedAt != "" {
		if t, err := time.Parse(time.RFC3339, m.ReceivedAt); err == nil {
			msg.ReceivedAt = t
		}
	}
	return msg
}
