package sync

import (
	"context"
	"log"
	gosync "sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/dropterm/internal/model"
)

// fetchTimeout is the maximum time allowed for a single inbox fetch.
const fetchTimeout = 30 * time.Second

// FetchFunc retrieves the current inbox.
type FetchFunc func(ctx context.Context) ([]model.Message, error)

// PollResultMsg is a tea.Msg sent when a scheduled fetch completes.
type PollResultMsg struct {
	Mails []model.Message
	Err   error
	// Epoch identifies the Start call whose ticker produced the result.
	Epoch int
}

// Ticker is the subset of *time.Ticker the poller needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a ticker firing every d.
type TickerFunc func(d time.Duration) Ticker

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets the tick interval.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithMode selects model.PollModeToggle or model.PollModeAlways.
func WithMode(mode string) Option {
	return func(p *Poller) {
		p.mode = mode
	}
}

// WithAutoRefresh sets the initial auto-refresh flag.
func WithAutoRefresh(on bool) Option {
	return func(p *Poller) {
		p.autoRefresh.Store(on)
	}
}

// WithTickerFunc replaces the ticker constructor.
func WithTickerFunc(fn TickerFunc) Option {
	return func(p *Poller) {
		if fn != nil {
			p.newTicker = fn
		}
	}
}

// Poller fetches the inbox on a fixed interval. At most one ticker is
// active at any time.
type Poller struct {
	fetch     FetchFunc
	interval  time.Duration
	mode      string
	newTicker TickerFunc

	autoRefresh atomic.Bool
	resultCh    chan PollResultMsg

	mu         gosync.Mutex
	ticker     Ticker
	stopCh     chan struct{}
	epoch      int
	subscribed bool
}

// New creates a stopped Poller that calls fetch on every effective tick.
func New(fetch FetchFunc, opts ...Option) *Poller {
	p := &Poller{
		fetch:     fetch,
		interval:  model.DefaultPollInterval,
		mode:      model.PollModeToggle,
		newTicker: newTimeTicker,
		resultCh:  make(chan PollResultMsg, 16),
	}
	p.autoRefresh.Store(true)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start replaces any running ticker with a fresh one. The first call
// returns the command that subscribes to results; later calls return nil
// because the subscription is already in place.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	p.epoch++
	p.ticker = p.newTicker(p.interval)
	p.stopCh = make(chan struct{})
	go p.run(p.ticker, p.stopCh, p.epoch)

	if p.subscribed {
		return nil
	}
	p.subscribed = true
	return p.waitForResult()
}

// Stop halts the ticker. It is safe to call when already stopped.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Poller) stopLocked() {
	if p.ticker == nil {
		return
	}
	p.ticker.Stop()
	close(p.stopCh)
	p.ticker = nil
	p.stopCh = nil
}

// Running reports whether a ticker is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ticker != nil
}

// Epoch returns the epoch of the active ticker. Results carrying an
// older epoch belong to a ticker that has since been replaced.
func (p *Poller) Epoch() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.epoch
}

// Mode returns the polling mode.
func (p *Poller) Mode() string { return p.mode }

// AutoRefresh reports whether scheduled fetches are enabled.
func (p *Poller) AutoRefresh() bool { return p.autoRefresh.Load() }

// ToggleAutoRefresh flips the flag and returns the new value. The ticker
// keeps running either way.
func (p *Poller) ToggleAutoRefresh() bool {
	for {
		old := p.autoRefresh.Load()
		if p.autoRefresh.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

func (p *Poller) run(t Ticker, stop <-chan struct{}, epoch int) {
	for {
		select {
		case <-stop:
			return
		case <-t.C():
			if p.mode != model.PollModeAlways && !p.autoRefresh.Load() {
				continue
			}
			p.poll(stop, epoch)
		}
	}
}

func (p *Poller) poll(stop <-chan struct{}, epoch int) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	mails, err := p.fetch(ctx)
	if err != nil {
		log.Printf("scheduled inbox fetch failed: %v", err)
	}

	select {
	case <-stop:
		return
	default:
	}
	p.sendResult(PollResultMsg{Mails: mails, Err: err, Epoch: epoch})
}

// sendResult sends a PollResultMsg without blocking.
func (p *Poller) sendResult(msg PollResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next poll
// result. Call it after handling each PollResultMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
