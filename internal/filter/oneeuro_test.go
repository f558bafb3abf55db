package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOneEuro_FirstSampleVerbatim(t *testing.T) {
	f := NewOneEuro(DefaultOneEuroConfig())

	got := f.Filter(0.5, 123.25)
	assert.Equal(t, 123.25, got)

	v, ok := f.Value()
	assert.True(t, ok)
	assert.Equal(t, 123.25, v)
}

func TestOneEuro_DuplicateRawValueIsIdempotent(t *testing.T) {
	t.Parallel()

	t.Run("second call with same value right after init", func(t *testing.T) {
		f := NewOneEuro(DefaultOneEuroConfig())
		first := f.Filter(0, 10)
		second := f.Filter(0.2, 10)
		assert.Equal(t, first, second)
	})

	t.Run("repeat after motion returns previous output", func(t *testing.T) {
		f := NewOneEuro(DefaultOneEuroConfig())
		f.Filter(0, 0)
		moved := f.Filter(1.0/30, 5)
		repeated := f.Filter(5, 5)
		assert.Equal(t, moved, repeated)

		// State was not advanced: the next distinct sample behaves as if the
		// repeat never happened.
		g := NewOneEuro(DefaultOneEuroConfig())
		g.Filter(0, 0)
		g.Filter(1.0/30, 5)
		assert.Equal(t, g.Filter(2.0/30, 6), f.Filter(2.0/30, 6))
	})
}

func TestOneEuro_EqualTimestampUsesFallbackDelta(t *testing.T) {
	cfg := DefaultOneEuroConfig()
	f := NewOneEuro(cfg)
	f.Filter(1, 0)

	got := f.Filter(1, 1)
	require.False(t, math.IsNaN(got))
	require.False(t, math.IsInf(got, 0))

	dt := FallbackDelta
	aD := smoothingFactor(cfg.DerivativeCutoff, dt)
	edx := aD * (1 - 0) / dt
	a := smoothingFactor(cfg.MinCutoff+cfg.Beta*math.Abs(edx), dt)
	assert.InDelta(t, a*1, got, 1e-12)
}

func TestOneEuro_NegativeDeltaDoesNotRewindTime(t *testing.T) {
	f := NewOneEuro(DefaultOneEuroConfig())
	f.Filter(2, 0)
	got := f.Filter(1, 1)
	assert.False(t, math.IsNaN(got))
	assert.Equal(t, 2.0, f.prevT)
}

func TestOneEuro_BetaReducesLagOnFastMotion(t *testing.T) {
	slow := NewOneEuro(OneEuroConfig{MinCutoff: 1, Beta: 0, DerivativeCutoff: 1})
	fast := NewOneEuro(OneEuroConfig{MinCutoff: 1, Beta: 1, DerivativeCutoff: 1})

	slow.Filter(0, 0)
	fast.Filter(0, 0)

	var s, f float64
	for i := 1; i <= 5; i++ {
		ts := float64(i) / 30
		raw := float64(i) * 100
		s = slow.Filter(ts, raw)
		f = fast.Filter(ts, raw)
	}

	assert.Less(t, math.Abs(500-f), math.Abs(500-s), "higher beta should follow fast motion more closely")
}

func TestOneEuro_SmoothsJitter(t *testing.T) {
	f := NewOneEuro(DefaultOneEuroConfig())
	f.Filter(0, 0)

	maxOut := 0.0
	for i := 1; i <= 60; i++ {
		raw := 1.0
		if i%2 == 0 {
			raw = -1.0
		}
		out := f.Filter(float64(i)/30, raw)
		maxOut = math.Max(maxOut, math.Abs(out))
	}

	assert.Less(t, maxOut, 1.0, "alternating jitter should be attenuated")
}

func TestOneEuro_Reset(t *testing.T) {
	f := NewOneEuro(DefaultOneEuroConfig())
	f.Filter(0, 1)
	f.Filter(0.1, 2)
	f.Reset()

	_, ok := f.Value()
	assert.False(t, ok)
	assert.Equal(t, 42.0, f.Filter(0.2, 42))
}

func TestNewOneEuro_Defaults(t *testing.T) {
	f := NewOneEuro(OneEuroConfig{MinCutoff: 0, Beta: -1, DerivativeCutoff: -3})
	assert.Equal(t, DefaultMinCutoff, f.cfg.MinCutoff)
	assert.Equal(t, 0.0, f.cfg.Beta)
	assert.Equal(t, DefaultDerivativeCutoff, f.cfg.DerivativeCutoff)
}

func TestSmoothingFactor(t *testing.T) {
	assert.Equal(t, 0.0, smoothingFactor(1, 0))
	a := smoothingFactor(1, 1)
	assert.InDelta(t, 2*math.Pi/(2*math.Pi+1), a, 1e-12)
	assert.Less(t, smoothingFactor(1, 0.01), smoothingFactor(10, 0.01))
}
