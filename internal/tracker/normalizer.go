package tracker

import (
	"github.com/ayusman/zonebeat/internal/filter"
	"github.com/ayusman/zonebeat/internal/pose"
)

// Transform maps a point already scaled to [0,1] into display space.
type Transform func(p filter.Point) filter.Point

// Identity leaves points unchanged.
func Identity(p filter.Point) filter.Point { return p }

// MirrorX flips points horizontally, for front-facing cameras.
func MirrorX(p filter.Point) filter.Point { return filter.Point{X: 1 - p.X, Y: p.Y} }

// PointNormalizer converts filtered detector-space points into display
// space and optionally averages them over the last few frames.
type PointNormalizer struct {
	transform Transform
	smoothing bool
	averager  *filter.Averager[pose.Type]
}

// NewPointNormalizer creates a normalizer. A nil transform means Identity;
// window is the averaging window used when smoothing is on.
func NewPointNormalizer(transform Transform, smoothing bool, window int) *PointNormalizer {
	if transform == nil {
		transform = Identity
	}
	return &PointNormalizer{
		transform: transform,
		smoothing: smoothing,
		averager:  filter.NewAverager[pose.Type](window),
	}
}

// Normalize scales p by the frame size, applies the transform and, with
// smoothing on, returns the running average for t. It reports false when
// the frame size is unusable.
func (n *PointNormalizer) Normalize(t pose.Type, p filter.Point, width, height int) (filter.Point, bool) {
	if width <= 0 || height <= 0 {
		return filter.Point{}, false
	}
	out := n.transform(filter.Point{X: p.X / float64(width), Y: p.Y / float64(height)})
	if !n.smoothing {
		return out, true
	}
	n.averager.Add(t, out)
	return n.averager.Average(t)
}

// SetSmoothing switches averaging on or off. Turning it off discards the
// averaging history.
func (n *PointNormalizer) SetSmoothing(on bool) {
	if n.smoothing && !on {
		n.averager.Reset()
	}
	n.smoothing = on
}

// Smoothing reports whether averaging is on.
func (n *PointNormalizer) Smoothing() bool {
	return n.smoothing
}

// Forget drops the averaging history for t.
func (n *PointNormalizer) Forget(t pose.Type) {
	n.averager.Forget(t)
}

// Reset drops all averaging history.
func (n *PointNormalizer) Reset() {
	n.averager.Reset()
}
