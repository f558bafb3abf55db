package capture

import (
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/zonebeat/internal/pose"
)

func TestMockCamera_Playback(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame1 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame1, &frame2}, false)

	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer cam.Close()

	f1, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	if f1.Width != 640 || f1.Height != 480 {
		t.Errorf("frame size = %dx%d, want 640x480", f1.Width, f1.Height)
	}
	f1.Close()

	f2, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	if f2.Timestamp <= f1.Timestamp {
		t.Errorf("timestamps should increase: %v then %v", f1.Timestamp, f2.Timestamp)
	}
	f2.Close()

	if _, err = cam.ReadFrame(); err == nil {
		t.Error("expected error after all frames consumed")
	}
}

func TestMockCamera_Blank(t *testing.T) {
	cam := NewBlankCamera(320, 240)
	cam.SetOrientation(pose.UpMirrored)

	if _, err := cam.ReadFrame(); err != ErrCameraNotOpen {
		t.Errorf("ReadFrame() before Open error = %v, want ErrCameraNotOpen", err)
	}

	cam.Open()
	defer cam.Close()

	for i := 0; i < 5; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() iteration %d error = %v", i, err)
		}
		if f.Image != nil {
			t.Error("blank frames should carry no image")
		}
		if f.Width != 320 || f.Height != 240 {
			t.Errorf("frame size = %dx%d, want 320x240", f.Width, f.Height)
		}
		if f.Orientation != pose.UpMirrored {
			t.Errorf("orientation = %v, want up_mirrored", f.Orientation)
		}
		want := float64(i) / float64(DefaultFPS)
		if f.Timestamp != want {
			t.Errorf("timestamp = %v, want %v", f.Timestamp, want)
		}
	}

	if cam.Served() != 5 {
		t.Errorf("Served() = %d, want 5", cam.Served())
	}

	cam.Reset()
	if cam.Served() != 0 {
		t.Errorf("Served() after Reset = %d, want 0", cam.Served())
	}
}

func TestMockCamera_NoFrames(t *testing.T) {
	cam := NewMockCamera(nil, true)
	cam.Open()

	if _, err := cam.ReadFrame(); err == nil {
		t.Error("expected error with no frames and no blank size")
	}
}
