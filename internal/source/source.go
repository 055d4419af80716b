package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/dropterm/internal/model"
)

// ErrorKind classifies a failed upstream call.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindTransport
	KindHTTP
	KindPayload
	KindOther
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindTransport:
		return "transport"
	case KindHTTP:
		return "http"
	case KindPayload:
		return "payload"
	default:
		return "other"
	}
}

// TransportError indicates the request never produced a readable response:
// DNS, connection, TLS, timeout or body read failures.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error (%s): %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPError indicates the upstream answered with a non-2xx status.
type HTTPError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("unexpected status %d (%s): %s", e.StatusCode, e.Op, e.Body)
	}
	return fmt.Sprintf("unexpected status %d (%s)", e.StatusCode, e.Op)
}

// PayloadError indicates a successful status with a body that did not
// carry the expected fields.
type PayloadError struct {
	Op     string
	Reason string
	Err    error
}

func (e *PayloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed payload (%s): %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed payload (%s): %s", e.Op, e.Reason)
}

func (e *PayloadError) Unwrap() error { return e.Err }

// Kind reports which failure class err (or any error in its chain)
// belongs to.
func Kind(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return KindTransport
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return KindHTTP
	}
	var payloadErr *PayloadError
	if errors.As(err, &payloadErr) {
		return KindPayload
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTransport
	}
	return KindOther
}

// Mailbox defines the contract of a disposable-mail provider.
type Mailbox interface {
	// IntroduceSession creates a new session. A non-empty domainID asks
	// for an address pre-assigned on that domain.
	IntroduceSession(ctx context.Context, domainID string) (*model.Session, error)

	// IntroduceAddress assigns a new address to an existing session.
	IntroduceAddress(ctx context.Context, sessionID, domainID string) (string, error)

	// Mails returns every message of the session, oldest first.
	Mails(ctx context.Context, sessionID string) ([]model.Message, error)

	// Download fetches the raw RFC 822 form of a message.
	Download(ctx context.Context, downloadURL string) ([]byte, error)
}
