// Package filter provides the smoothing stages applied to landmark positions:
// a motion-adaptive One-Euro low-pass filter for scalar signals and a
// fixed-size sliding-window averager for points.
package filter

import (
	"math"
)

// Default One-Euro parameters.
const (
	DefaultMinCutoff        = 1.0
	DefaultBeta             = 0.007
	DefaultDerivativeCutoff = 1.0

	// FallbackDelta replaces a zero or negative timestep (seconds).
	FallbackDelta = 1.0 / 30.0
)

// OneEuroConfig holds the tuning of a OneEuro filter.
type OneEuroConfig struct {
	// MinCutoff is the cutoff frequency (Hz) used when the signal is still.
	MinCutoff float64
	// Beta scales how much the cutoff rises with signal speed.
	Beta float64
	// DerivativeCutoff is the cutoff frequency (Hz) for the derivative.
	DerivativeCutoff float64
}

// DefaultOneEuroConfig returns the default filter tuning.
func DefaultOneEuroConfig() OneEuroConfig {
	return OneEuroConfig{
		MinCutoff:        DefaultMinCutoff,
		Beta:             DefaultBeta,
		DerivativeCutoff: DefaultDerivativeCutoff,
	}
}

// OneEuro is a One-Euro filter for a single scalar signal.
// It is not safe for concurrent use; the tracker owns one per landmark axis.
type OneEuro struct {
	cfg OneEuroConfig

	initialized bool
	prevT       float64
	prevValue   float64
	prevDeriv   float64
	lastRaw     float64
}

// NewOneEuro creates a filter with the given tuning. Non-positive cutoffs are
// replaced by the defaults.
func NewOneEuro(cfg OneEuroConfig) *OneEuro {
	if cfg.MinCutoff <= 0 {
		cfg.MinCutoff = DefaultMinCutoff
	}
	if cfg.DerivativeCutoff <= 0 {
		cfg.DerivativeCutoff = DefaultDerivativeCutoff
	}
	if cfg.Beta < 0 {
		cfg.Beta = 0
	}
	return &OneEuro{cfg: cfg}
}

// Filter consumes one raw sample taken at timestamp (seconds) and returns the
// filtered value.
//
// The first call returns raw unchanged. A raw value bit-identical to the
// previous raw value returns the previous output without touching state, so a
// repeated detector frame does not drag the signal.
func (f *OneEuro) Filter(timestamp, raw float64) float64 {
	if !f.initialized {
		f.initialized = true
		f.prevT = timestamp
		f.prevValue = raw
		f.prevDeriv = 0
		f.lastRaw = raw
		return raw
	}

	if math.Float64bits(raw) == math.Float64bits(f.lastRaw) {
		return f.prevValue
	}

	dt := timestamp - f.prevT
	if dt <= 0 {
		dt = FallbackDelta
	}

	deriv := (raw - f.prevValue) / dt
	aD := smoothingFactor(f.cfg.DerivativeCutoff, dt)
	edx := aD*deriv + (1-aD)*f.prevDeriv

	cutoff := f.cfg.MinCutoff + f.cfg.Beta*math.Abs(edx)
	a := smoothingFactor(cutoff, dt)
	value := a*raw + (1-a)*f.prevValue

	if timestamp > f.prevT {
		f.prevT = timestamp
	}
	f.prevValue = value
	f.prevDeriv = edx
	f.lastRaw = raw

	return value
}

// Reset forgets all state; the next sample re-initializes the filter.
func (f *OneEuro) Reset() {
	f.initialized = false
	f.prevT = 0
	f.prevValue = 0
	f.prevDeriv = 0
	f.lastRaw = 0
}

// Value returns the last filtered value and whether the filter has seen a sample.
func (f *OneEuro) Value() (float64, bool) {
	return f.prevValue, f.initialized
}

// smoothingFactor returns the exponential smoothing factor for cutoff c (Hz)
// at timestep dt (seconds).
func smoothingFactor(c, dt float64) float64 {
	r := 2 * math.Pi * c * dt
	return r / (r + 1)
}
