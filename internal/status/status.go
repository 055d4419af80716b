// Package status models the single connection indicator shown in the
// header: negotiating, established, error, and the transient pulse shown
// when new mail arrives.
package status

import "time"

// State is the indicator's current value.
type State int

const (
	Negotiating State = iota
	Established
	Error
	Intercepted
)

// PulseDuration is how long Intercepted is shown before reverting.
const PulseDuration = 2 * time.Second

// Label returns the text shown for the state.
func (s State) Label() string {
	switch s {
	case Negotiating:
		return "NEGOTIATING_UPLINK..."
	case Established:
		return "LINK_ESTABLISHED"
	case Error:
		return "UPLINK_ERROR"
	case Intercepted:
		return "PACKET_INTERCEPTED"
	default:
		return "UNKNOWN"
	}
}

func (s State) String() string { return s.Label() }

// Reporter receives state changes from components that run outside the
// UI loop, such as the API gateway.
type Reporter interface {
	Report(s State, reason string)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(s State, reason string)

// Report calls f.
func (f ReporterFunc) Report(s State, reason string) { f(s, reason) }

// Discard is a Reporter that drops every report.
var Discard Reporter = ReporterFunc(func(State, string) {})

// Indicator holds the displayed state. It is owned by the UI loop and is
// not safe for concurrent use.
type Indicator struct {
	state  State
	reason string
	// pulse increments on every Pulse so a stale revert is ignored.
	pulse int
}

// NewIndicator returns an indicator in the Negotiating state.
func NewIndicator() *Indicator {
	return &Indicator{state: Negotiating}
}

// State returns the current state.
func (i *Indicator) State() State { return i.state }

// Reason returns the detail attached to the last Error, if any.
func (i *Indicator) Reason() string { return i.reason }

// Set moves the indicator to s and cancels any pending pulse revert.
func (i *Indicator) Set(s State, reason string) {
	i.state = s
	i.reason = reason
	i.pulse++
}

// Pulse shows Intercepted and returns the generation to pass to Revert
// once PulseDuration has elapsed.
func (i *Indicator) Pulse() int {
	i.state = Intercepted
	i.reason = ""
	i.pulse++
	return i.pulse
}

// Revert returns to Established if gen is still the latest pulse.
// It reports whether the state changed.
func (i *Indicator) Revert(gen int) bool {
	if gen != i.pulse || i.state != Intercepted {
		return false
	}
	i.state = Established
	return true
}
