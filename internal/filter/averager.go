package filter

import (
	"sync"

	"gonum.org/v1/gonum/stat"
)

// DefaultWindow is the default number of samples kept per key.
const DefaultWindow = 3

// Point is a 2-D position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// window holds the most recent samples for one key, newest first.
// Slots start zeroed and stay part of the mean until overwritten.
type window struct {
	xs   []float64
	ys   []float64
	seen bool
}

// Averager keeps a sliding window of points per key and returns their mean.
//
// The mean always spans the full window, so the first outputs for a new key
// are pulled toward the origin until the window fills.
type Averager[K comparable] struct {
	size    int
	mu      sync.Mutex
	windows map[K]*window
}

// NewAverager creates an averager with the given window size.
// Sizes below 1 use DefaultWindow.
func NewAverager[K comparable](size int) *Averager[K] {
	if size < 1 {
		size = DefaultWindow
	}
	return &Averager[K]{
		size:    size,
		windows: make(map[K]*window),
	}
}

// Size returns the window length.
func (a *Averager[K]) Size() int {
	return a.size
}

// Add pushes p as the most recent sample for key.
func (a *Averager[K]) Add(key K, p Point) {
	a.mu.Lock()
	defer a.mu.Unlock()

	w, ok := a.windows[key]
	if !ok {
		w = &window{
			xs: make([]float64, a.size),
			ys: make([]float64, a.size),
		}
		a.windows[key] = w
	}

	copy(w.xs[1:], w.xs[:a.size-1])
	copy(w.ys[1:], w.ys[:a.size-1])
	w.xs[0] = p.X
	w.ys[0] = p.Y
	w.seen = true
}

// Average returns the mean of the window for key. It reports false until at
// least one sample has been added for key.
func (a *Averager[K]) Average(key K) (Point, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	w, ok := a.windows[key]
	if !ok || !w.seen {
		return Point{}, false
	}

	return Point{
		X: stat.Mean(w.xs, nil),
		Y: stat.Mean(w.ys, nil),
	}, true
}

// Forget drops the window for key.
func (a *Averager[K]) Forget(key K) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.windows, key)
}

// Reset drops every window.
func (a *Averager[K]) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.windows = make(map[K]*window)
}
