package capture

import (
	"testing"

	"gocv.io/x/gocv"
)

func TestMotionGate_PassesImagelessFrames(t *testing.T) {
	g := NewMotionGate(1.0)
	defer g.Close()

	if !g.Open(nil) {
		t.Error("nil frame should pass the gate")
	}
	if !g.Open(&Frame{Width: 640, Height: 480}) {
		t.Error("frame without image should pass the gate")
	}
}

func TestMotionGate_StillFramesAreHeldBack(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	g := NewMotionGate(1.0)
	defer g.Close()

	a := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	b := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	fa := &Frame{Image: &a, Width: 640, Height: 480}
	fb := &Frame{Image: &b, Width: 640, Height: 480}
	defer fa.Close()
	defer fb.Close()

	if !g.Open(fa) {
		t.Error("first frame should pass the gate")
	}
	if g.Open(fb) {
		t.Error("identical frame should be held back")
	}
}

func TestMotionGate_MotionOpens(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	g := NewMotionGate(1.0)
	defer g.Close()

	black := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer black.Close()
	white := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	g.Detect(&black)
	moving, changed := g.Detect(&white)
	if !moving {
		t.Errorf("black to white should open the gate, changed = %f", changed)
	}
	if changed < 50.0 {
		t.Errorf("changed = %f, expected > 50%%", changed)
	}

	g.Reset()
	if g.initialized {
		t.Error("gate should not be initialized after Reset")
	}
}

func TestMotionGate_SetThreshold(t *testing.T) {
	g := NewMotionGate(1.0)
	defer g.Close()

	g.SetThreshold(5.0)
	if g.threshold != 5.0 {
		t.Errorf("threshold = %f, want 5.0", g.threshold)
	}

	g.SetThreshold(-1.0)
	if g.threshold != 5.0 {
		t.Errorf("negative threshold should be ignored, got %f", g.threshold)
	}
}

func TestMotionGate_Close_Multiple(t *testing.T) {
	g := NewMotionGate(1.0)
	g.Close()
	g.Close()
}
