// Package config loads the JSON tuning file that adjusts filtering, zone
// grid and audio behavior at startup.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultConfigPath is where the binary looks for a tuning file when no
// -config flag is given.
const DefaultConfigPath = "config/tuning.json"

// Tuning is the root tuning configuration. Every field is optional; the
// Get* methods return the built-in default for omitted fields.
type Tuning struct {
	// One-Euro filter
	MinCutoff        *float64 `json:"min_cutoff,omitempty"`
	Beta             *float64 `json:"beta,omitempty"`
	DerivativeCutoff *float64 `json:"derivative_cutoff,omitempty"`

	// Tracker
	MinConfidence    *float64 `json:"min_confidence,omitempty"`
	Smoothing        *bool    `json:"smoothing,omitempty"`
	SmoothingWindow  *int     `json:"smoothing_window,omitempty"`
	Mirror           *bool    `json:"mirror,omitempty"`
	TrackedLandmarks []string `json:"tracked_landmarks,omitempty"`

	// Zone grid
	GridRows     *int `json:"grid_rows,omitempty"`
	GridSections *int `json:"grid_sections,omitempty"`

	// Audio
	ForceReplay    *bool    `json:"force_replay,omitempty"`
	Volume         *float64 `json:"volume,omitempty"`
	MaxDuplicates  *int     `json:"max_duplicates,omitempty"`
	TriggerOnEntry *bool    `json:"trigger_on_entry,omitempty"`
	PlayerCommand  []string `json:"player_command,omitempty"`

	// Capture
	CameraFPS       *int     `json:"camera_fps,omitempty"`
	MotionThreshold *float64 `json:"motion_threshold,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrInt(v int) *int             { return &v }

// DefaultTuning returns a Tuning with every field set to its default.
func DefaultTuning() *Tuning {
	return &Tuning{
		MinCutoff:        ptrFloat64(1.0),
		Beta:             ptrFloat64(0.007),
		DerivativeCutoff: ptrFloat64(1.0),
		MinConfidence:    ptrFloat64(0.1),
		Smoothing:        ptrBool(true),
		SmoothingWindow:  ptrInt(3),
		Mirror:           ptrBool(true),
		TrackedLandmarks: []string{"left_wrist", "right_wrist"},
		GridRows:         ptrInt(12),
		GridSections:     ptrInt(16),
		ForceReplay:      ptrBool(true),
		Volume:           ptrFloat64(1.0),
		MaxDuplicates:    ptrInt(8),
		TriggerOnEntry:   ptrBool(false),
		CameraFPS:        ptrInt(15),
		MotionThreshold:  ptrFloat64(0),
	}
}

// LoadTuning loads a Tuning from a JSON file. The file must have a .json
// extension and be at most 1 MiB. Omitted fields keep their defaults.
func LoadTuning(path string) (*Tuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Tuning{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configured values are in range.
func (c *Tuning) Validate() error {
	positive := []struct {
		name string
		v    *float64
	}{
		{"min_cutoff", c.MinCutoff},
		{"derivative_cutoff", c.DerivativeCutoff},
	}
	for _, p := range positive {
		if p.v != nil && *p.v <= 0 {
			return fmt.Errorf("%s must be positive, got %f", p.name, *p.v)
		}
	}

	if c.Beta != nil && *c.Beta < 0 {
		return fmt.Errorf("beta must be non-negative, got %f", *c.Beta)
	}
	if c.MinConfidence != nil && (*c.MinConfidence < 0 || *c.MinConfidence >= 1) {
		return fmt.Errorf("min_confidence must be in [0, 1), got %f", *c.MinConfidence)
	}
	if c.Volume != nil && (*c.Volume < 0 || *c.Volume > 1) {
		return fmt.Errorf("volume must be between 0 and 1, got %f", *c.Volume)
	}
	if c.MotionThreshold != nil && (*c.MotionThreshold < 0 || *c.MotionThreshold > 100) {
		return fmt.Errorf("motion_threshold must be between 0 and 100, got %f", *c.MotionThreshold)
	}

	atLeastOne := []struct {
		name string
		v    *int
	}{
		{"smoothing_window", c.SmoothingWindow},
		{"grid_rows", c.GridRows},
		{"grid_sections", c.GridSections},
		{"camera_fps", c.CameraFPS},
	}
	for _, p := range atLeastOne {
		if p.v != nil && *p.v < 1 {
			return fmt.Errorf("%s must be at least 1, got %d", p.name, *p.v)
		}
	}

	if c.MaxDuplicates != nil && *c.MaxDuplicates < 0 {
		return fmt.Errorf("max_duplicates must be non-negative, got %d", *c.MaxDuplicates)
	}

	for _, name := range c.TrackedLandmarks {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("tracked_landmarks contains an empty name")
		}
	}

	return nil
}

// GetMinCutoff returns the min_cutoff value or the default.
func (c *Tuning) GetMinCutoff() float64 {
	if c.MinCutoff == nil {
		return 1.0
	}
	return *c.MinCutoff
}

// GetBeta returns the beta value or the default.
func (c *Tuning) GetBeta() float64 {
	if c.Beta == nil {
		return 0.007
	}
	return *c.Beta
}

// GetDerivativeCutoff returns the derivative_cutoff value or the default.
func (c *Tuning) GetDerivativeCutoff() float64 {
	if c.DerivativeCutoff == nil {
		return 1.0
	}
	return *c.DerivativeCutoff
}

// GetMinConfidence returns the min_confidence value or the default.
func (c *Tuning) GetMinConfidence() float64 {
	if c.MinConfidence == nil {
		return 0.1
	}
	return *c.MinConfidence
}

// GetSmoothing returns the smoothing value or the default.
func (c *Tuning) GetSmoothing() bool {
	if c.Smoothing == nil {
		return true
	}
	return *c.Smoothing
}

// GetSmoothingWindow returns the smoothing_window value or the default.
func (c *Tuning) GetSmoothingWindow() int {
	if c.SmoothingWindow == nil {
		return 3
	}
	return *c.SmoothingWindow
}

// GetMirror returns the mirror value or the default.
func (c *Tuning) GetMirror() bool {
	if c.Mirror == nil {
		return true
	}
	return *c.Mirror
}

// GetTrackedLandmarks returns the tracked landmark names or the wrists.
func (c *Tuning) GetTrackedLandmarks() []string {
	if len(c.TrackedLandmarks) == 0 {
		return []string{"left_wrist", "right_wrist"}
	}
	return c.TrackedLandmarks
}

// GetGridRows returns the grid_rows value or the default.
func (c *Tuning) GetGridRows() int {
	if c.GridRows == nil {
		return 12
	}
	return *c.GridRows
}

// GetGridSections returns the grid_sections value or the default.
func (c *Tuning) GetGridSections() int {
	if c.GridSections == nil {
		return 16
	}
	return *c.GridSections
}

// GetForceReplay returns the force_replay value or the default.
func (c *Tuning) GetForceReplay() bool {
	if c.ForceReplay == nil {
		return true
	}
	return *c.ForceReplay
}

// GetVolume returns the volume value or the default.
func (c *Tuning) GetVolume() float64 {
	if c.Volume == nil {
		return 1.0
	}
	return *c.Volume
}

// GetMaxDuplicates returns the max_duplicates value or the default.
func (c *Tuning) GetMaxDuplicates() int {
	if c.MaxDuplicates == nil {
		return 8
	}
	return *c.MaxDuplicates
}

// GetTriggerOnEntry returns the trigger_on_entry value or the default.
func (c *Tuning) GetTriggerOnEntry() bool {
	if c.TriggerOnEntry == nil {
		return false
	}
	return *c.TriggerOnEntry
}

// GetPlayerCommand returns the external player command, nil meaning the
// platform default.
func (c *Tuning) GetPlayerCommand() []string {
	return c.PlayerCommand
}

// GetCameraFPS returns the camera_fps value or the default.
func (c *Tuning) GetCameraFPS() int {
	if c.CameraFPS == nil {
		return 15
	}
	return *c.CameraFPS
}

// GetMotionThreshold returns the motion_threshold value or the default.
// Zero disables the motion gate.
func (c *Tuning) GetMotionThreshold() float64 {
	if c.MotionThreshold == nil {
		return 0
	}
	return *c.MotionThreshold
}
