package server

import (
	"fmt"
	"net/http"
	"time"
)

// streamInterval paces MJPEG output at about 15 FPS.
const streamInterval = 66 * time.Millisecond

// FrameSource provides encoded preview frames.
type FrameSource interface {
	// StreamFrames registers or unregisters a viewer.
	StreamFrames(on bool)
	// LatestJPEG returns the newest frame and its sequence number.
	LatestJPEG() ([]byte, uint64)
}

// StreamHandler serves MJPEG frames from the mechanic's camera.
type StreamHandler struct {
	source FrameSource
}

// NewStreamHandler creates a new StreamHandler for source.
func NewStreamHandler(source FrameSource) *StreamHandler {
	return &StreamHandler{source: source}
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.source.StreamFrames(true)
	defer h.source.StreamFrames(false)

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	var last uint64
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		jpeg, seq := h.source.LatestJPEG()
		if seq == last || len(jpeg) == 0 {
			continue
		}
		last = seq

		// Write MJPEG frame
		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(jpeg))
		if _, err := w.Write(jpeg); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
