// Package session negotiates a temporary mailbox with the upstream
// provider and holds the resulting identity.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/nhle/dropterm/internal/source"
	"github.com/nhle/dropterm/internal/status"
)

// State is the controller's position in the negotiation lifecycle.
type State int

const (
	Uninitialized State = iota
	Negotiating
	Established
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Negotiating:
		return "negotiating"
	case Established:
		return "established"
	default:
		return "unknown"
	}
}

// ErrAlreadyStarted is returned when Negotiate is called on a controller
// that has left the Uninitialized state.
var ErrAlreadyStarted = errors.New("session negotiation already started")

// ErrSuperseded is returned by a negotiation that was overtaken by Reset.
// Its result is discarded.
var ErrSuperseded = errors.New("session negotiation superseded by reset")

// Context is the identity of an established session.
type Context struct {
	sessionID string
	address   string
}

// SessionID returns the upstream session identifier.
func (c *Context) SessionID() string { return c.sessionID }

// Address returns the mailbox address bound to the session.
func (c *Context) Address() string { return c.address }

// RetryConfig configures optional retries of the whole negotiation.
type RetryConfig struct {
	// Attempts is the number of retries after the first failure.
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// Delay returns the wait before retry number attempt (0-based):
// exponential with a factor of 2, capped at MaxDelay, with 20% jitter.
func (r RetryConfig) Delay(attempt int) time.Duration {
	base := r.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	delay := float64(base) * math.Pow(2, float64(attempt))
	if r.MaxDelay > 0 && delay > float64(r.MaxDelay) {
		delay = float64(r.MaxDelay)
	}
	jitter := delay * 0.2
	delay = delay - jitter + rand.Float64()*2*jitter
	return time.Duration(delay)
}

// Controller drives one negotiation:
// Uninitialized → Negotiating → Established. A failed negotiation stays
// in Negotiating.
type Controller struct {
	mailbox  source.Mailbox
	domainID string
	retry    RetryConfig
	reporter status.Reporter

	mu    sync.Mutex
	state State
	ctx   *Context
	// gen increments on every Reset; a negotiation only commits while
	// the generation it started under is current.
	gen int
}

// Option configures a Controller.
type Option func(*Controller)

// WithDomain pins new addresses to domainID.
func WithDomain(domainID string) Option {
	return func(c *Controller) {
		c.domainID = domainID
	}
}

// WithRetry enables retries of a failed negotiation.
func WithRetry(r RetryConfig) Option {
	return func(c *Controller) {
		c.retry = r
	}
}

// WithReporter sets where state changes are reported.
func WithReporter(r status.Reporter) Option {
	return func(c *Controller) {
		if r != nil {
			c.reporter = r
		}
	}
}

// NewController creates a controller in the Uninitialized state.
func NewController(mb source.Mailbox, opts ...Option) *Controller {
	c := &Controller{
		mailbox:  mb,
		reporter: status.Discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Context returns the established identity, or nil before Established.
func (c *Controller) Context() *Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx
}

// Generation returns the current reset generation.
func (c *Controller) Generation() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Reset discards the identity and returns to Uninitialized. A
// negotiation still in flight can no longer commit.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.state = Uninitialized
	c.ctx = nil
}

func (c *Controller) current(gen int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen == gen
}

// Negotiate creates a session and adopts its address, requesting one
// explicitly when the session comes without. It may be called once per
// Reset.
func (c *Controller) Negotiate(ctx context.Context) (*Context, error) {
	c.mu.Lock()
	if err := ctx.Err(); err != nil {
		// A cancelled negotiation must not claim the controller.
		c.mu.Unlock()
		return nil, fmt.Errorf("negotiating session: %w", err)
	}
	if c.state != Uninitialized {
		c.mu.Unlock()
		return nil, ErrAlreadyStarted
	}
	c.state = Negotiating
	gen := c.gen
	c.mu.Unlock()

	c.reporter.Report(status.Negotiating, "")

	var lastErr error
	for attempt := 0; attempt <= c.retry.Attempts; attempt++ {
		if attempt > 0 {
			delay := c.retry.Delay(attempt - 1)
			log.Printf("session negotiation retry %d/%d in %s: %v",
				attempt, c.retry.Attempts, delay, lastErr)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, fmt.Errorf("negotiating session: %w", ctx.Err())
			case <-timer.C:
			}
			if !c.current(gen) {
				return nil, ErrSuperseded
			}
			c.reporter.Report(status.Negotiating, "")
		}

		sc, err := c.negotiate(ctx)
		if err == nil {
			c.mu.Lock()
			if c.gen != gen {
				c.mu.Unlock()
				log.Printf("discarding session %s negotiated before reset", sc.SessionID())
				return nil, ErrSuperseded
			}
			c.state = Established
			c.ctx = sc
			c.mu.Unlock()

			c.reporter.Report(status.Established, "")
			return sc, nil
		}
		if !c.current(gen) {
			return nil, ErrSuperseded
		}
		lastErr = err
	}

	return nil, fmt.Errorf("negotiating session: %w", lastErr)
}

func (c *Controller) negotiate(ctx context.Context) (*Context, error) {
	sess, err := c.mailbox.IntroduceSession(ctx, c.domainID)
	if err != nil {
		return nil, err
	}

	if len(sess.Addresses) > 0 {
		return &Context{sessionID: sess.ID, address: sess.Addresses[0]}, nil
	}

	addr, err := c.mailbox.IntroduceAddress(ctx, sess.ID, c.domainID)
	if err != nil {
		return nil, err
	}
	return &Context{sessionID: sess.ID, address: addr}, nil
}
