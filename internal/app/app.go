// Package app wires capture, tracking, zones and audio into the running
// zone-based sound mechanic.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ayusman/zonebeat/internal/capture"
	"github.com/ayusman/zonebeat/internal/config"
	"github.com/ayusman/zonebeat/internal/editor"
	"github.com/ayusman/zonebeat/internal/filter"
	"github.com/ayusman/zonebeat/internal/log"
	"github.com/ayusman/zonebeat/internal/pose"
	"github.com/ayusman/zonebeat/internal/sound"
	"github.com/ayusman/zonebeat/internal/store"
	"github.com/ayusman/zonebeat/internal/tracker"
	"github.com/ayusman/zonebeat/internal/zone"
)

// ErrClosed is returned by Do after Close.
var ErrClosed = errors.New("mechanic closed")

// ErrNoStore is returned by mask persistence calls when no store is set.
var ErrNoStore = errors.New("no store configured")

// taskQueueSize bounds the number of closures waiting for the main loop.
const taskQueueSize = 64

// Config holds the collaborators of a Mechanic.
type Config struct {
	// Store persists masks. Optional.
	Store *store.Store
	// Camera feeds frames. Required for Start.
	Camera capture.Camera
	// Estimator finds landmarks in frames. Nil means a MockEstimator.
	Estimator pose.Estimator
	Resolver  sound.Resolver
	Voices    sound.VoiceFactory
	// Tuning adjusts every component. Nil means defaults.
	Tuning *config.Tuning
}

// Mechanic owns the active mask and runs the capture, tracking and dispatch
// loops around it.
//
// All editor gestures and dispatch lookups run on a single main-loop
// goroutine, in the order they were posted.
type Mechanic struct {
	config         Config
	tuning         *config.Tuning
	grid           zone.Grid
	mask           *zone.Mask
	tracker        *tracker.Tracker
	editor         *editor.Editor
	dispatcher     *sound.Dispatcher
	motion         *capture.MotionGate
	triggerOnEntry bool

	tasks  chan func()
	closed chan struct{}
	once   sync.Once

	mu      sync.RWMutex
	enabled bool
	cancel  context.CancelFunc
	loopsWG sync.WaitGroup

	// current zone per landmark, main loop only
	inside map[pose.Type]zone.SoundZone

	listenersMu sync.RWMutex
	onPoints    []func([]tracker.StabilizedPoint)

	streamers atomic.Int32
	jpegMu    sync.RWMutex
	jpeg      []byte
	jpegSeq   uint64
}

// New creates a Mechanic and starts its main loop. Call Close to stop it.
func New(cfg Config) *Mechanic {
	tuning := cfg.Tuning
	if tuning == nil {
		tuning = config.DefaultTuning()
	}
	if cfg.Estimator == nil {
		log.Warn("no pose estimator configured, using mock estimator")
		cfg.Estimator = pose.NewMockEstimator()
	}

	m := &Mechanic{
		config:         cfg,
		tuning:         tuning,
		grid:           zone.Grid{Rows: tuning.GetGridRows(), Sections: tuning.GetGridSections()},
		mask:           zone.NewMask(),
		triggerOnEntry: tuning.GetTriggerOnEntry(),
		tasks:          make(chan func(), taskQueueSize),
		closed:         make(chan struct{}),
		inside:         make(map[pose.Type]zone.SoundZone),
	}

	m.tracker = tracker.New(cfg.Estimator, trackerConfig(tuning))
	m.dispatcher = sound.NewDispatcher(cfg.Resolver, cfg.Voices, sound.Config{
		Volume:        tuning.GetVolume(),
		ForceReplay:   tuning.GetForceReplay(),
		MaxDuplicates: tuning.GetMaxDuplicates(),
	})
	m.editor = editor.New(m.mask, editor.Options{
		Locator: m.grid,
		Bounds:  m.grid,
		Preview: m.preview,
		Color:   zone.Color{R: 0x4c, G: 0xaf, B: 0x50, A: 0xc0},
	})
	if th := tuning.GetMotionThreshold(); th > 0 {
		m.motion = capture.NewMotionGate(th)
	}

	go m.mainLoop()
	return m
}

func trackerConfig(t *config.Tuning) tracker.Config {
	cfg := tracker.Config{
		MinConfidence: t.GetMinConfidence(),
		Filter: filter.OneEuroConfig{
			MinCutoff:        t.GetMinCutoff(),
			Beta:             t.GetBeta(),
			DerivativeCutoff: t.GetDerivativeCutoff(),
		},
		Smoothing: t.GetSmoothing(),
		Window:    t.GetSmoothingWindow(),
		Tracked:   []pose.Type{},
	}
	if t.GetMirror() {
		cfg.Transform = tracker.MirrorX
	}
	for _, name := range t.GetTrackedLandmarks() {
		typ, ok := pose.ParseType(name)
		if !ok {
			log.Warn("ignoring unknown landmark", "landmark", name)
			continue
		}
		cfg.Tracked = append(cfg.Tracked, typ)
	}
	return cfg
}

func (m *Mechanic) mainLoop() {
	for {
		select {
		case <-m.closed:
			return
		case fn := <-m.tasks:
			fn()
		}
	}
}

// post queues fn for the main loop without waiting for it to run.
func (m *Mechanic) post(fn func()) bool {
	select {
	case <-m.closed:
		return false
	case m.tasks <- fn:
		return true
	}
}

// Do runs fn on the main loop and waits for it to finish.
func (m *Mechanic) Do(fn func()) error {
	done := make(chan struct{})
	if !m.post(func() {
		defer close(done)
		fn()
	}) {
		return ErrClosed
	}
	select {
	case <-done:
		return nil
	case <-m.closed:
		return ErrClosed
	}
}

// Start opens the camera and starts the frame loop and tracker worker.
func (m *Mechanic) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return nil
	}
	if m.config.Camera == nil {
		return errors.New("no camera configured")
	}

	if err := m.config.Camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	m.config.Camera.SetFPS(m.tuning.GetCameraFPS())

	ctx, cancel := context.WithCancel(context.Background())
	if err := m.tracker.Start(ctx, m.onBatch); err != nil {
		cancel()
		m.config.Camera.Close()
		return fmt.Errorf("start tracker: %w", err)
	}
	m.cancel = cancel

	m.loopsWG.Add(1)
	go m.frameLoop(ctx)

	log.Info("tracking pipeline started", "fps", m.config.Camera.FPS(), "grid_rows", m.grid.Rows, "grid_sections", m.grid.Sections)
	return nil
}

// Stop halts the frame loop and tracker worker and closes the camera.
func (m *Mechanic) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	m.loopsWG.Wait()
	m.tracker.Wait()

	if err := m.config.Camera.Close(); err != nil {
		log.Warn("error closing camera", "error", err)
	}
	// Batches posted before the worker returned run ahead of this.
	if err := m.Do(m.dispatcher.StopAll); err != nil {
		m.dispatcher.StopAll()
	}

	processed, dropped := m.tracker.Stats()
	log.Info("tracking pipeline stopped", "processed", processed, "dropped", dropped)
}

// Close stops everything and ends the main loop.
func (m *Mechanic) Close() error {
	m.Stop()
	m.once.Do(func() { close(m.closed) })
	if m.motion != nil {
		m.motion.Close()
	}
	return m.config.Estimator.Close()
}

// Running reports whether the pipeline is started.
func (m *Mechanic) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cancel != nil
}

// SetEnabled turns sound triggering on or off. Enabling starts the mask's
// background sound; disabling silences every voice.
func (m *Mechanic) SetEnabled(enabled bool) {
	m.mu.Lock()
	changed := m.enabled != enabled
	m.enabled = enabled
	m.mu.Unlock()

	if !changed {
		return
	}
	log.Info("tracking toggled", "enabled", enabled)
	if !enabled {
		m.dispatcher.StopAll()
		m.post(func() { clear(m.inside) })
		return
	}
	if bg := m.mask.Background(); bg != "" {
		m.post(func() { m.play(bg) })
	}
}

// IsEnabled reports whether sound triggering is on.
func (m *Mechanic) IsEnabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled
}

// Editor returns the zone editor.
func (m *Mechanic) Editor() *editor.Editor { return m.editor }

// Mask returns the active mask.
func (m *Mechanic) Mask() *zone.Mask { return m.mask }

// Tracker returns the landmark tracker.
func (m *Mechanic) Tracker() *tracker.Tracker { return m.tracker }

// Dispatcher returns the sound dispatcher.
func (m *Mechanic) Dispatcher() *sound.Dispatcher { return m.dispatcher }

// Grid returns the zone grid.
func (m *Mechanic) Grid() zone.Grid { return m.grid }

// OnPoints registers fn for every processed batch of points. It runs on
// the main loop.
func (m *Mechanic) OnPoints(fn func([]tracker.StabilizedPoint)) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	m.onPoints = append(m.onPoints, fn)
}

// OnPlayed registers fn for every audible sound.
func (m *Mechanic) OnPlayed(fn func(sound.Played)) {
	m.dispatcher.OnPlayed(fn)
}

// OnEditorEvent registers fn for every editor event.
func (m *Mechanic) OnEditorEvent(fn func(editor.Event)) {
	m.editor.Subscribe(fn)
}

// LoadMask replaces the active mask with a saved one and clears the edit
// history.
func (m *Mechanic) LoadMask(maskID string) error {
	if m.config.Store == nil {
		return ErrNoStore
	}
	saved, err := m.config.Store.Masks().GetByID(maskID)
	if err != nil {
		return fmt.Errorf("load mask %s: %w", maskID, err)
	}
	entries, err := m.config.Store.Masks().LoadZones(maskID)
	if err != nil {
		return fmt.Errorf("load zones of %s: %w", maskID, err)
	}

	if err := m.Do(func() {
		m.mask.Replace(entries, saved.Background)
		m.editor.ClearHistory()
		clear(m.inside)
	}); err != nil {
		return err
	}

	if err := m.config.Store.Settings().Set(store.SettingActiveMask, maskID); err != nil {
		log.Warn("failed to remember active mask", "mask", maskID, "error", err)
	}
	log.Info("mask loaded", "mask", saved.Name, "zones", len(entries))
	return nil
}

// SaveMask writes the active mask's zones and background to a saved mask.
func (m *Mechanic) SaveMask(maskID string) error {
	if m.config.Store == nil {
		return ErrNoStore
	}
	saved, err := m.config.Store.Masks().GetByID(maskID)
	if err != nil {
		return fmt.Errorf("save mask %s: %w", maskID, err)
	}

	var entries []zone.Entry
	var background string
	if err := m.Do(func() {
		entries = m.mask.Entries()
		background = m.mask.Background()
	}); err != nil {
		return err
	}

	if err := m.config.Store.Masks().SaveZones(maskID, entries); err != nil {
		return fmt.Errorf("save zones of %s: %w", maskID, err)
	}
	if saved.Background != background {
		saved.Background = background
		if err := m.config.Store.Masks().Update(saved); err != nil {
			return fmt.Errorf("save mask %s: %w", maskID, err)
		}
	}
	log.Info("mask saved", "mask", saved.Name, "zones", len(entries))
	return nil
}

// RestoreActiveMask loads the mask that was active when the store was last
// used, if any.
func (m *Mechanic) RestoreActiveMask() error {
	if m.config.Store == nil {
		return nil
	}
	id, err := m.config.Store.Settings().Get(store.SettingActiveMask)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return m.LoadMask(id)
}
