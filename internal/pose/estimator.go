package pose

import "gocv.io/x/gocv"

// Estimator defines the interface for pose estimation implementations.
type Estimator interface {
	// Estimate analyzes a video frame and returns the landmarks it found.
	// Positions are in the pixel space of img. Returns an empty slice if no
	// body is detected.
	Estimate(img *gocv.Mat, orientation Orientation) ([]Sample, error)

	// Close releases any resources held by the estimator.
	Close() error
}

// Config holds configuration options for pose estimation.
type Config struct {
	// MinConfidence is the detector-side confidence floor (0.0-1.0).
	// The tracker applies its own threshold on top.
	MinConfidence float64

	// MaxBodies is the maximum number of bodies to detect.
	MaxBodies int
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MinConfidence: 0.05,
		MaxBodies:     1,
	}
}
