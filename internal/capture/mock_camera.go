package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/zonebeat/internal/pose"
)

// MockCamera plays back pre-recorded frames for testing. With no recorded
// frames it produces blank frames of a fixed size, which needs no OpenCV
// allocation.
type MockCamera struct {
	frames      []*gocv.Mat
	index       int
	loop        bool
	width       int
	height      int
	fps         int
	orientation pose.Orientation
	served      int
	mu          sync.Mutex
	running     bool
}

// NewMockCamera creates a camera that replays frames, optionally looping.
func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{
		frames: frames,
		loop:   loop,
		fps:    DefaultFPS,
	}
}

// NewBlankCamera creates a camera producing image-less frames of the given
// size forever.
func NewBlankCamera(width, height int) *MockCamera {
	return &MockCamera{
		width:  width,
		height: height,
		loop:   true,
		fps:    DefaultFPS,
	}
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.index = 0
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	return nil
}

// ReadFrame returns the next frame. Timestamps advance by 1/FPS per frame.
func (c *MockCamera) ReadFrame() (*Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, ErrCameraNotOpen
	}

	ts := float64(c.served) / float64(c.fps)

	if len(c.frames) == 0 {
		if c.width == 0 || c.height == 0 {
			return nil, fmt.Errorf("no frames available")
		}
		c.served++
		return &Frame{Timestamp: ts, Width: c.width, Height: c.height, Orientation: c.orientation}, nil
	}

	if c.index >= len(c.frames) {
		if c.loop {
			c.index = 0
		} else {
			return nil, fmt.Errorf("no more frames")
		}
	}

	// Clone the frame so the original isn't modified
	mat := c.frames[c.index].Clone()
	c.index++
	c.served++

	return NewFrame(&mat, ts, c.orientation), nil
}

func (c *MockCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
}

func (c *MockCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// SetOrientation sets the orientation stamped on produced frames.
func (c *MockCamera) SetOrientation(o pose.Orientation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orientation = o
}

// Served returns how many frames have been read.
func (c *MockCamera) Served() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.served
}

// Reset restarts playback from the beginning
func (c *MockCamera) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = 0
	c.served = 0
}
