package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndicator_StartsNegotiating(t *testing.T) {
	i := NewIndicator()
	assert.Equal(t, Negotiating, i.State())
	assert.Equal(t, "NEGOTIATING_UPLINK...", i.State().Label())
}

func TestIndicator_PulseReverts(t *testing.T) {
	i := NewIndicator()
	i.Set(Established, "")

	gen := i.Pulse()
	assert.Equal(t, Intercepted, i.State())

	assert.True(t, i.Revert(gen))
	assert.Equal(t, Established, i.State())
}

func TestIndicator_StaleRevertIgnored(t *testing.T) {
	i := NewIndicator()
	i.Set(Established, "")

	first := i.Pulse()
	second := i.Pulse()

	assert.False(t, i.Revert(first), "older pulse must not revert a newer one")
	assert.Equal(t, Intercepted, i.State())
	assert.True(t, i.Revert(second))
}

func TestIndicator_RevertAfterErrorKeepsError(t *testing.T) {
	i := NewIndicator()
	i.Set(Established, "")

	gen := i.Pulse()
	i.Set(Error, "unexpected status 502")

	assert.False(t, i.Revert(gen))
	assert.Equal(t, Error, i.State())
	assert.Equal(t, "unexpected status 502", i.Reason())
}

func TestReporterFunc(t *testing.T) {
	var got State
	var r Reporter = ReporterFunc(func(s State, _ string) { got = s })
	r.Report(Error, "boom")
	assert.Equal(t, Error, got)

	Discard.Report(Error, "ignored")
}
