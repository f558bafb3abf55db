// Package capture provides the camera frame source using GoCV (OpenCV).
package capture

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/zonebeat/internal/pose"
)

// Frame is one captured video frame with the metadata the tracker needs.
type Frame struct {
	// Image may be nil for synthetic frames; estimators must tolerate that.
	Image       *gocv.Mat
	Timestamp   float64 // seconds since capture start
	Width       int
	Height      int
	Orientation pose.Orientation
}

// NewFrame wraps mat, taking its size from the matrix.
func NewFrame(mat *gocv.Mat, timestamp float64, orientation pose.Orientation) *Frame {
	f := &Frame{
		Image:       mat,
		Timestamp:   timestamp,
		Orientation: orientation,
	}
	if mat != nil && !mat.Empty() {
		f.Width = mat.Cols()
		f.Height = mat.Rows()
	}
	return f
}

// Close releases the frame's image. It is safe to call on a nil frame and
// more than once.
func (f *Frame) Close() {
	if f == nil || f.Image == nil {
		return
	}
	f.Image.Close()
	f.Image = nil
}
