// Package tracker turns raw pose estimates into stable, display-space
// landmark positions, one frame at a time.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ayusman/zonebeat/internal/capture"
	"github.com/ayusman/zonebeat/internal/filter"
	"github.com/ayusman/zonebeat/internal/log"
	"github.com/ayusman/zonebeat/internal/pose"
)

// DefaultMinConfidence is the confidence a sample must exceed to be used.
const DefaultMinConfidence = 0.1

// ErrRunning is returned by Start when the worker is already running.
var ErrRunning = errors.New("tracker already running")

// StabilizedPoint is a filtered landmark position in display space.
type StabilizedPoint struct {
	Type      pose.Type    `json:"type"`
	Position  filter.Point `json:"position"`
	Timestamp float64      `json:"timestamp"`
}

// Handler receives the points of one processed frame.
type Handler func(points []StabilizedPoint)

// Config holds tracker settings.
type Config struct {
	MinConfidence float64
	Filter        filter.OneEuroConfig
	Smoothing     bool
	Window        int
	Transform     Transform
	// Tracked is the initial tracked set. Nil means both wrists.
	Tracked []pose.Type
}

// DefaultConfig returns the default tracker configuration.
func DefaultConfig() Config {
	return Config{
		MinConfidence: DefaultMinConfidence,
		Filter:        filter.DefaultOneEuroConfig(),
		Smoothing:     true,
		Window:        filter.DefaultWindow,
	}
}

type axisFilters struct {
	x, y *filter.OneEuro
}

// Tracker runs the estimator on frames and filters the tracked landmarks.
//
// Its mutex is held for a whole estimation run, so changes to the tracked
// set or smoothing apply from the next frame and never interleave with one
// in progress.
type Tracker struct {
	mu         sync.Mutex
	estimator  pose.Estimator
	cfg        Config
	tracked    *TrackedSet
	filters    map[pose.Type]*axisFilters
	normalizer *PointNormalizer

	frames    chan *capture.Frame
	worker    sync.WaitGroup
	running   atomic.Bool
	processed atomic.Int64
	dropped   atomic.Int64
}

// New creates a tracker over estimator.
func New(estimator pose.Estimator, cfg Config) *Tracker {
	if cfg.MinConfidence < 0 {
		cfg.MinConfidence = DefaultMinConfidence
	}
	if cfg.Window <= 0 {
		cfg.Window = filter.DefaultWindow
	}
	tracked := cfg.Tracked
	if tracked == nil {
		tracked = pose.Hands()
	}
	return &Tracker{
		estimator:  estimator,
		cfg:        cfg,
		tracked:    NewTrackedSet(tracked...),
		filters:    make(map[pose.Type]*axisFilters),
		normalizer: NewPointNormalizer(cfg.Transform, cfg.Smoothing, cfg.Window),
		frames:     make(chan *capture.Frame),
	}
}

// Process estimates and filters one frame synchronously. The frame is not
// closed. Output follows the tracked set's order; landmarks that are
// missing or below the confidence threshold are left out.
func (t *Tracker) Process(f *capture.Frame) ([]StabilizedPoint, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	samples, err := t.estimator.Estimate(f.Image, f.Orientation)
	if err != nil {
		return nil, fmt.Errorf("estimate: %w", err)
	}
	t.processed.Add(1)

	best := make(map[pose.Type]pose.Sample, len(samples))
	for _, s := range samples {
		if s.Confidence <= t.cfg.MinConfidence {
			continue
		}
		if prev, ok := best[s.Type]; !ok || s.Confidence > prev.Confidence {
			best[s.Type] = s
		}
	}

	var points []StabilizedPoint
	for _, typ := range t.tracked.members {
		s, ok := best[typ]
		if !ok {
			continue
		}
		af := t.filtersFor(typ)
		filtered := filter.Point{
			X: af.x.Filter(f.Timestamp, s.Position.X),
			Y: af.y.Filter(f.Timestamp, s.Position.Y),
		}
		p, ok := t.normalizer.Normalize(typ, filtered, f.Width, f.Height)
		if !ok {
			continue
		}
		points = append(points, StabilizedPoint{Type: typ, Position: p, Timestamp: f.Timestamp})
	}
	return points, nil
}

func (t *Tracker) filtersFor(typ pose.Type) *axisFilters {
	af, ok := t.filters[typ]
	if !ok {
		af = &axisFilters{x: filter.NewOneEuro(t.cfg.Filter), y: filter.NewOneEuro(t.cfg.Filter)}
		t.filters[typ] = af
	}
	return af
}

// Start runs the serial worker that processes delivered frames until ctx is
// done. Every processed frame is closed and its points passed to handler,
// including empty batches. A batch finished after ctx is done is discarded.
func (t *Tracker) Start(ctx context.Context, handler Handler) error {
	if !t.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	t.worker.Add(1)
	go func() {
		defer t.worker.Done()
		defer t.running.Store(false)
		for {
			select {
			case <-ctx.Done():
				return
			case f := <-t.frames:
				points, err := t.Process(f)
				f.Close()
				if err != nil {
					log.Warn("pose estimation failed", "error", err)
					continue
				}
				if ctx.Err() != nil {
					return
				}
				if handler != nil {
					handler(points)
				}
			}
		}
	}()
	return nil
}

// Wait blocks until the worker started by Start has returned, including any
// estimation it was in the middle of.
func (t *Tracker) Wait() {
	t.worker.Wait()
}

// Deliver hands f to the worker if it is idle. Otherwise the frame is
// closed and counted as dropped. It never blocks.
func (t *Tracker) Deliver(f *capture.Frame) bool {
	select {
	case t.frames <- f:
		return true
	default:
		f.Close()
		n := t.dropped.Add(1)
		log.Debug("frame dropped, tracker busy", "dropped", n)
		return false
	}
}

// Running reports whether the worker is running.
func (t *Tracker) Running() bool {
	return t.running.Load()
}

// Stats returns how many frames were estimated and how many were dropped.
func (t *Tracker) Stats() (processed, dropped int64) {
	return t.processed.Load(), t.dropped.Load()
}

// Enable starts tracking typ.
func (t *Tracker) Enable(typ pose.Type) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tracked.Enable(typ)
}

// Disable stops tracking typ and discards its filter state.
func (t *Tracker) Disable(typ pose.Type) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.tracked.Disable(typ) {
		return false
	}
	t.forget(typ)
	return true
}

// Toggle flips whether typ is tracked and returns the new state.
func (t *Tracker) Toggle(typ pose.Type) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	on := t.tracked.Toggle(typ)
	if !on {
		t.forget(typ)
	}
	return on
}

// IsTracked reports whether typ is tracked.
func (t *Tracker) IsTracked(typ pose.Type) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tracked.Contains(typ)
}

// Tracked returns the tracked types in order.
func (t *Tracker) Tracked() []pose.Type {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tracked.Members()
}

// SetSmoothing switches temporal averaging on or off.
func (t *Tracker) SetSmoothing(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.normalizer.SetSmoothing(on)
}

// Smoothing reports whether temporal averaging is on.
func (t *Tracker) Smoothing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.normalizer.Smoothing()
}

// Reset discards all filter and averaging state. The tracked set is kept.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.filters = make(map[pose.Type]*axisFilters)
	t.normalizer.Reset()
}

func (t *Tracker) forget(typ pose.Type) {
	delete(t.filters, typ)
	t.normalizer.Forget(typ)
}
