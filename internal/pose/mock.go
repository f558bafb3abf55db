package pose

import (
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// MockEstimator is a test implementation of the Estimator interface.
// It allows tests to control the estimation results and timing.
type MockEstimator struct {
	mu          sync.Mutex
	samples     []Sample
	err         error
	delay       time.Duration
	calls       int
	inFlight    int
	maxInFlight int
	orientation Orientation
}

// NewMockEstimator creates a new MockEstimator instance.
func NewMockEstimator() *MockEstimator {
	return &MockEstimator{}
}

// SetSamples sets the samples returned by Estimate.
func (m *MockEstimator) SetSamples(samples []Sample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = samples
}

// SetError sets the error returned by Estimate.
func (m *MockEstimator) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetDelay makes every Estimate call block for d, simulating a slow model.
func (m *MockEstimator) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Estimate returns the pre-configured samples or error.
func (m *MockEstimator) Estimate(img *gocv.Mat, orientation Orientation) ([]Sample, error) {
	m.mu.Lock()
	m.calls++
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	m.orientation = orientation
	delay := m.delay
	samples := append([]Sample(nil), m.samples...)
	err := m.err
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	m.mu.Lock()
	m.inFlight--
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return samples, nil
}

// Calls returns how many times Estimate ran.
func (m *MockEstimator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MaxInFlight returns the highest number of concurrent Estimate calls seen.
func (m *MockEstimator) MaxInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFlight
}

// LastOrientation returns the orientation passed to the latest call.
func (m *MockEstimator) LastOrientation() Orientation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orientation
}

// Close is a no-op for the mock estimator.
func (m *MockEstimator) Close() error {
	return nil
}

// RaisedHandsSamples returns a preset pose with both wrists above the head
// in a 640x480 frame.
func RaisedHandsSamples() []Sample {
	return []Sample{
		{Type: Nose, Position: Point{X: 320, Y: 200}, Confidence: 0.95},
		{Type: LeftShoulder, Position: Point{X: 260, Y: 280}, Confidence: 0.9},
		{Type: RightShoulder, Position: Point{X: 380, Y: 280}, Confidence: 0.9},
		{Type: LeftWrist, Position: Point{X: 200, Y: 80}, Confidence: 0.85},
		{Type: RightWrist, Position: Point{X: 440, Y: 80}, Confidence: 0.85},
	}
}
