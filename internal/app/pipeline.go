package app

import (
	"context"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/zonebeat/internal/capture"
	"github.com/ayusman/zonebeat/internal/log"
	"github.com/ayusman/zonebeat/internal/pose"
	"github.com/ayusman/zonebeat/internal/sound"
	"github.com/ayusman/zonebeat/internal/tracker"
)

func (m *Mechanic) frameLoop(ctx context.Context) {
	defer m.loopsWG.Done()

	interval := time.Second / time.Duration(max(m.config.Camera.FPS(), 1))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		frame, err := m.config.Camera.ReadFrame()
		if err != nil {
			log.Debug("error reading frame", "error", err)
			continue
		}
		m.publishFrame(frame)

		if !m.IsEnabled() {
			frame.Close()
			continue
		}
		if m.motion != nil && !m.motion.Open(frame) {
			frame.Close()
			continue
		}
		m.tracker.Deliver(frame)
	}
}

// onBatch runs on the tracker worker and hands the batch to the main loop.
func (m *Mechanic) onBatch(points []tracker.StabilizedPoint) {
	m.post(func() { m.HandleBatch(points) })
}

// HandleBatch maps each point to a grid cell, looks up its zone and plays
// the zone's sound. It must run on the main loop.
func (m *Mechanic) HandleBatch(points []tracker.StabilizedPoint) {
	m.listenersMu.RLock()
	listeners := m.onPoints
	m.listenersMu.RUnlock()
	for _, fn := range listeners {
		fn(points)
	}

	if !m.IsEnabled() {
		return
	}

	seen := make(map[pose.Type]bool, len(points))
	for _, p := range points {
		seen[p.Type] = true

		cell, ok := m.grid.CellAt(p.Position.X, p.Position.Y)
		if !ok {
			delete(m.inside, p.Type)
			continue
		}
		z, v, ok := m.mask.ZoneFor(cell)
		if !ok {
			delete(m.inside, p.Type)
			continue
		}
		if m.triggerOnEntry {
			if prev, in := m.inside[p.Type]; in && prev == z {
				continue
			}
			m.inside[p.Type] = z
		}
		if v.Silent() {
			continue
		}
		m.play(v.SoundName)
	}

	for typ := range m.inside {
		if !seen[typ] {
			delete(m.inside, typ)
		}
	}
}

func (m *Mechanic) play(name string) {
	outcome, err := m.dispatcher.Play(name)
	if err != nil {
		log.Warn("sound playback failed", "sound", name, "error", err)
		return
	}
	if outcome == sound.OutcomeDropped {
		log.Debug("sound busy, trigger dropped", "sound", name)
	}
}

func (m *Mechanic) preview(name string) {
	if name == "" {
		return
	}
	m.play(name)
}

// StreamFrames registers (on) or unregisters a viewer of the JPEG preview.
// Frames are only encoded while at least one viewer is registered.
func (m *Mechanic) StreamFrames(on bool) {
	if on {
		m.streamers.Add(1)
	} else {
		m.streamers.Add(-1)
	}
}

// LatestJPEG returns the most recent encoded frame and its sequence number.
func (m *Mechanic) LatestJPEG() ([]byte, uint64) {
	m.jpegMu.RLock()
	defer m.jpegMu.RUnlock()
	return m.jpeg, m.jpegSeq
}

func (m *Mechanic) publishFrame(f *capture.Frame) {
	if m.streamers.Load() <= 0 || f.Image == nil || f.Image.Empty() {
		return
	}
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *f.Image)
	if err != nil {
		log.Debug("failed to encode preview frame", "error", err)
		return
	}
	data := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	m.jpegMu.Lock()
	m.jpeg = data
	m.jpegSeq++
	m.jpegMu.Unlock()
}
