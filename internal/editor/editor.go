// Package editor implements the gesture-driven state machine used to draw,
// select, clone, move and delete sound zones on the active mask.
package editor

import (
	"slices"
	"sync"

	"github.com/ayusman/zonebeat/internal/zone"
)

// CellLocator maps a normalized display point to a grid cell.
type CellLocator interface {
	CellAt(x, y float64) (zone.Cell, bool)
}

// Bounds limits where zones may be placed.
type Bounds interface {
	Fits(z zone.SoundZone) bool
}

// Options configures an Editor.
type Options struct {
	// Locator hit-tests gesture points. Required.
	Locator CellLocator
	// Bounds rejects zones outside the grid. Nil means unbounded.
	Bounds Bounds
	// Preview plays a zone's sound when it becomes selected. May be nil.
	Preview func(soundName string)
	// Color is given to newly drawn zones.
	Color zone.Color
}

// Editor edits a mask in response to gestures.
//
// Invalid gestures and operations without a target are ignored. Subscribers
// run synchronously after the state change, in emission order, outside the
// editor's lock.
type Editor struct {
	mu        sync.Mutex
	mask      *zone.Mask
	opts      Options
	mode      Mode
	selection *zone.SoundZone
	undo      []zone.SoundZone

	tapStart *zone.Cell
	panStart *zone.Cell
	pending  *zone.SoundZone

	subMu sync.RWMutex
	subs  []func(Event)
}

// New creates an editor over mask. A grid is a valid locator and bounds.
func New(mask *zone.Mask, opts Options) *Editor {
	return &Editor{mask: mask, opts: opts}
}

// Subscribe registers fn for all future events.
func (e *Editor) Subscribe(fn func(Event)) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	e.subs = append(e.subs, fn)
}

// change collects the effects of one operation so they can be delivered
// after the lock is released.
type change struct {
	events  []Event
	preview string
}

func (c *change) emit(ev Event) {
	c.events = append(c.events, ev)
}

func (e *Editor) apply(fn func(c *change)) {
	var c change
	e.mu.Lock()
	fn(&c)
	e.mu.Unlock()

	e.subMu.RLock()
	subs := slices.Clone(e.subs)
	e.subMu.RUnlock()
	for _, ev := range c.events {
		for _, fn := range subs {
			fn(ev)
		}
	}
	if c.preview != "" && e.opts.Preview != nil {
		e.opts.Preview(c.preview)
	}
}

// Mode returns the current mode.
func (e *Editor) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Selection returns the selected zone.
func (e *Editor) Selection() (zone.SoundZone, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.selection == nil {
		return zone.SoundZone{}, false
	}
	return *e.selection, true
}

// UndoDepth returns the number of zones that can be undone.
func (e *Editor) UndoDepth() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.undo)
}

// Pending returns the rectangle of a pan in progress in Add or Draw mode.
func (e *Editor) Pending() (zone.SoundZone, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == nil {
		return zone.SoundZone{}, false
	}
	return *e.pending, true
}

// State is a snapshot of the editor.
type State struct {
	Mode      Mode            `json:"mode"`
	Selection *zone.SoundZone `json:"selection,omitempty"`
	Pending   *zone.SoundZone `json:"pending,omitempty"`
	UndoDepth int             `json:"undo_depth"`
}

// State returns a snapshot of the editor.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := State{Mode: e.mode, UndoDepth: len(e.undo)}
	if e.selection != nil {
		z := *e.selection
		s.Selection = &z
	}
	if e.pending != nil {
		z := *e.pending
		s.Pending = &z
	}
	return s
}

// SetMode switches to m unconditionally.
func (e *Editor) SetMode(m Mode) {
	if m.Kind == Clone {
		m = CloneMode(m.Width, m.Height)
	} else {
		m.Width, m.Height = 0, 0
	}
	e.apply(func(c *change) {
		e.mode = m
		e.pending = nil
		c.emit(modeEvent(m))
	})
}

// CloneSelection enters Clone mode sized to reproduce the selected zone.
func (e *Editor) CloneSelection() {
	e.apply(func(c *change) {
		if e.selection == nil {
			return
		}
		e.mode = CloneMode(e.selection.Width()-1, e.selection.Height()-1)
		c.emit(modeEvent(e.mode))
	})
}

func (e *Editor) locate(x, y float64) (zone.Cell, bool) {
	if e.opts.Locator == nil {
		return zone.Cell{}, false
	}
	return e.opts.Locator.CellAt(x, y)
}

// OnTapBegin records where a tap started.
func (e *Editor) OnTapBegin(x, y float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cell, ok := e.locate(x, y); ok {
		e.tapStart = &cell
	} else {
		e.tapStart = nil
	}
}

// OnTapChanged is accepted for completeness; the end point decides a tap.
func (e *Editor) OnTapChanged(x, y float64) {}

// OnTapEnd completes a tap at (x, y).
func (e *Editor) OnTapEnd(x, y float64) {
	e.apply(func(c *change) {
		end, ok := e.locate(x, y)
		start := e.tapStart
		e.tapStart = nil
		if !ok {
			return
		}
		if start == nil {
			start = &end
		}
		e.gesture(c, *start, end)
	})
}

// OnPanBegin records where a pan started.
func (e *Editor) OnPanBegin(x, y float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = nil
	if cell, ok := e.locate(x, y); ok {
		e.panStart = &cell
	} else {
		e.panStart = nil
	}
}

// OnPanChanged updates the pending rectangle while drawing.
func (e *Editor) OnPanChanged(x, y float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.panStart == nil || !e.mode.drawing() {
		return
	}
	if cell, ok := e.locate(x, y); ok {
		z := zone.Span(*e.panStart, cell)
		e.pending = &z
	}
}

// OnPanEnd completes a pan. In Add and Draw mode it creates the rectangle
// spanned by the pan; in other modes it acts as a tap at the end point.
func (e *Editor) OnPanEnd(x, y float64) {
	e.apply(func(c *change) {
		start := e.panStart
		e.panStart = nil
		e.pending = nil
		end, ok := e.locate(x, y)
		if !ok {
			return
		}
		if start == nil || !e.mode.drawing() {
			start = &end
		}
		e.gesture(c, *start, end)
	})
}

// OnTwoFingerTap undoes the last added zone.
func (e *Editor) OnTwoFingerTap() {
	e.Undo()
}

func (e *Editor) gesture(c *change, start, end zone.Cell) {
	switch e.mode.Kind {
	case Idle:
		z, v, ok := e.mask.ZoneFor(end)
		if !ok {
			return
		}
		e.describe(c, &z)
		c.preview = v.SoundName
	case Add, Draw:
		e.insert(c, zone.Span(start, end), zone.ZoneValue{Color: e.opts.Color})
	case Clone:
		z := zone.SoundZone{
			MinX: end.Row,
			MaxX: end.Row + e.mode.Width,
			MinY: end.Section,
			MaxY: end.Section + e.mode.Height,
		}
		v := zone.ZoneValue{Color: e.opts.Color}
		if e.selection != nil {
			if sv, ok := e.mask.Get(*e.selection); ok {
				v = sv
			}
		}
		e.insert(c, z, v)
	case Delete:
		z, v, ok := e.mask.ZoneFor(end)
		if !ok {
			return
		}
		e.mask.Remove(z)
		c.emit(zoneEvent(ZoneRemoved, z, v))
		e.selectZone(c, nil)
	}
}

// insert adds z and pushes it for undo. An existing identical zone is only
// selected.
func (e *Editor) insert(c *change, z zone.SoundZone, v zone.ZoneValue) {
	if e.opts.Bounds != nil && !e.opts.Bounds.Fits(z) {
		return
	}
	if !e.mask.Has(z) {
		e.mask.Put(z, v)
		e.undo = append(e.undo, z)
		c.emit(zoneEvent(ZoneAdded, z, v))
	}
	e.selectZone(c, &z)
}

// selectZone selects z, or clears the selection when z is nil, emitting
// SelectionChanged only when the selection actually changes.
func (e *Editor) selectZone(c *change, z *zone.SoundZone) {
	switch {
	case z == nil && e.selection == nil:
		return
	case z != nil && e.selection != nil && *z == *e.selection:
		return
	}
	e.describe(c, z)
}

// describe selects z and always emits its description.
func (e *Editor) describe(c *change, z *zone.SoundZone) {
	if z == nil {
		e.selection = nil
		c.emit(selectionEvent(nil, zone.ZoneValue{}))
		return
	}
	s := *z
	e.selection = &s
	v, _ := e.mask.Get(s)
	c.emit(selectionEvent(&s, v))
}

// TransformZone moves the selected zone by (dx, dy) and grows it by dw rows
// and dh sections on each side. In Clone mode dw and dh also grow the clone
// size, with or without a selection. Moves that would collide with another
// zone or leave the bounds are ignored.
func (e *Editor) TransformZone(dx, dy, dw, dh int) {
	e.apply(func(c *change) {
		if e.mode.Kind == Clone && (dw != 0 || dh != 0) {
			e.mode = CloneMode(e.mode.Width+dw, e.mode.Height+dh)
			c.emit(modeEvent(e.mode))
		}
		if e.selection == nil {
			return
		}
		old := *e.selection
		next := old.Translate(dx, dy).Grow(dw, dh)
		if next == old {
			return
		}
		if e.mask.Has(next) {
			return
		}
		if e.opts.Bounds != nil && !e.opts.Bounds.Fits(next) {
			return
		}
		v, ok := e.mask.Remove(old)
		if !ok {
			return
		}
		e.mask.Put(next, v)
		if i := slices.Index(e.undo, old); i >= 0 {
			e.undo[i] = next
		}
		c.emit(zoneEvent(ZoneRemoved, old, v))
		c.emit(zoneEvent(ZoneAdded, next, v))
		e.selectZone(c, &next)
	})
}

// Undo removes the most recently added zone. The zone below it, if still
// on the mask, becomes selected and is previewed.
func (e *Editor) Undo() {
	e.apply(func(c *change) {
		if len(e.undo) == 0 {
			return
		}
		top := e.undo[len(e.undo)-1]
		e.undo = e.undo[:len(e.undo)-1]
		if v, ok := e.mask.Remove(top); ok {
			c.emit(zoneEvent(ZoneRemoved, top, v))
		}
		if len(e.undo) > 0 {
			prev := e.undo[len(e.undo)-1]
			if v, ok := e.mask.Get(prev); ok {
				e.selectZone(c, &prev)
				c.preview = v.SoundName
				return
			}
		}
		e.selectZone(c, nil)
	})
}

// ResetMask removes every zone and forgets the undo history.
func (e *Editor) ResetMask() {
	e.apply(func(c *change) {
		for _, entry := range e.mask.Entries() {
			c.emit(zoneEvent(ZoneRemoved, entry.Zone, entry.Value))
		}
		e.mask.Clear()
		e.undo = nil
		e.pending = nil
		e.selectZone(c, nil)
	})
}

// ClearHistory forgets the undo history and selection without touching the
// mask, for use after the mask was replaced wholesale.
func (e *Editor) ClearHistory() {
	e.apply(func(c *change) {
		e.undo = nil
		e.pending = nil
		e.selectZone(c, nil)
	})
}

// AssignSound sets the sound of the selected zone and previews it.
func (e *Editor) AssignSound(name string) {
	e.apply(func(c *change) {
		if e.update(c, func(v *zone.ZoneValue) { v.SoundName = name }) {
			c.preview = name
		}
	})
}

// AssignColor sets the color of the selected zone.
func (e *Editor) AssignColor(color zone.Color) {
	e.apply(func(c *change) {
		e.update(c, func(v *zone.ZoneValue) { v.Color = color })
	})
}

func (e *Editor) update(c *change, fn func(v *zone.ZoneValue)) bool {
	if e.selection == nil {
		return false
	}
	v, ok := e.mask.Get(*e.selection)
	if !ok {
		return false
	}
	fn(&v)
	e.mask.SetValue(*e.selection, v)
	c.emit(zoneEvent(ZoneUpdated, *e.selection, v))
	return true
}
