package pose

// Orientation is the orientation of the image handed to the estimator,
// relative to its upright form.
type Orientation int

// Image orientations.
const (
	Up Orientation = iota
	UpMirrored
	Down
	DownMirrored
	Left
	LeftMirrored
	Right
	RightMirrored
)

var orientationNames = [...]string{
	Up:            "up",
	UpMirrored:    "up_mirrored",
	Down:          "down",
	DownMirrored:  "down_mirrored",
	Left:          "left",
	LeftMirrored:  "left_mirrored",
	Right:         "right",
	RightMirrored: "right_mirrored",
}

func (o Orientation) String() string {
	if o < 0 || int(o) >= len(orientationNames) {
		return "unknown"
	}
	return orientationNames[o]
}

// DeviceOrientation is the physical orientation of the capturing device.
type DeviceOrientation int

// Device orientations.
const (
	Portrait DeviceOrientation = iota
	PortraitUpsideDown
	LandscapeLeft
	LandscapeRight
)

// FromDevice maps a device orientation to the image orientation the
// estimator should assume. Front cameras deliver mirrored images.
func FromDevice(d DeviceOrientation, frontCamera bool) Orientation {
	var o Orientation
	switch d {
	case PortraitUpsideDown:
		o = Left
	case LandscapeLeft:
		o = Up
	case LandscapeRight:
		o = Down
	default:
		o = Right
	}
	if frontCamera {
		o++
	}
	return o
}

// Mirrored reports whether o is a mirrored orientation.
func (o Orientation) Mirrored() bool {
	return o%2 == 1
}
