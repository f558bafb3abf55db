// Package pose defines the body landmarks produced by pose estimation and the
// estimator contract the tracker consumes.
package pose

import (
	"fmt"
	"strings"
)

// Type identifies a named body landmark.
type Type int

// Body landmarks. The order is stable and used as the wire index by the
// subprocess estimator.
const (
	Nose Type = iota
	LeftEye
	RightEye
	LeftEar
	RightEar
	Neck
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	Root
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	NumTypes
)

var typeNames = [NumTypes]string{
	Nose:          "nose",
	LeftEye:       "left_eye",
	RightEye:      "right_eye",
	LeftEar:       "left_ear",
	RightEar:      "right_ear",
	Neck:          "neck",
	LeftShoulder:  "left_shoulder",
	RightShoulder: "right_shoulder",
	LeftElbow:     "left_elbow",
	RightElbow:    "right_elbow",
	LeftWrist:     "left_wrist",
	RightWrist:    "right_wrist",
	Root:          "root",
	LeftHip:       "left_hip",
	RightHip:      "right_hip",
	LeftKnee:      "left_knee",
	RightKnee:     "right_knee",
	LeftAnkle:     "left_ankle",
	RightAnkle:    "right_ankle",
}

// String returns the snake_case name of the landmark.
func (t Type) String() string {
	if t < 0 || t >= NumTypes {
		return fmt.Sprintf("type(%d)", int(t))
	}
	return typeNames[t]
}

// Valid reports whether t names a known landmark.
func (t Type) Valid() bool {
	return t >= 0 && t < NumTypes
}

// ParseType looks up a landmark by name. Matching is case-insensitive and
// accepts '-' in place of '_'.
func ParseType(name string) (Type, bool) {
	name = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for i, n := range typeNames {
		if n == name {
			return Type(i), true
		}
	}
	return 0, false
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid landmark type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(b []byte) error {
	v, ok := ParseType(string(b))
	if !ok {
		return fmt.Errorf("unknown landmark type %q", string(b))
	}
	*t = v
	return nil
}

// Point is a 2-D position in detector (pixel) space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sample is one landmark observed in one frame.
type Sample struct {
	Type       Type    `json:"type"`
	Position   Point   `json:"position"`
	Confidence float64 `json:"confidence"`
}

// Hands returns the wrist landmarks, the default tracked set.
func Hands() []Type {
	return []Type{LeftWrist, RightWrist}
}
