package editor

import (
	"fmt"

	"github.com/ayusman/zonebeat/internal/zone"
)

// EventKind identifies what changed in the editor.
type EventKind int

// Editor events.
const (
	SelectionChanged EventKind = iota
	ZoneAdded
	ZoneRemoved
	ZoneUpdated
	ModeChanged
)

var eventNames = [...]string{
	SelectionChanged: "selection_changed",
	ZoneAdded:        "zone_added",
	ZoneRemoved:      "zone_removed",
	ZoneUpdated:      "zone_updated",
	ModeChanged:      "mode_changed",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return fmt.Sprintf("event(%d)", int(k))
	}
	return eventNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Event describes one editor change. Zone is nil for a cleared selection
// and for mode changes. A selection event carries the selected zone's
// value, and its size in cells.
type Event struct {
	Kind  EventKind       `json:"kind"`
	Zone  *zone.SoundZone `json:"zone,omitempty"`
	Value *zone.ZoneValue `json:"value,omitempty"`
	Mode  *Mode           `json:"mode,omitempty"`

	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

func zoneEvent(kind EventKind, z zone.SoundZone, v zone.ZoneValue) Event {
	return Event{Kind: kind, Zone: &z, Value: &v}
}

func selectionEvent(z *zone.SoundZone, v zone.ZoneValue) Event {
	if z == nil {
		return Event{Kind: SelectionChanged}
	}
	c := *z
	return Event{Kind: SelectionChanged, Zone: &c, Value: &v, Width: c.Width(), Height: c.Height()}
}

func modeEvent(m Mode) Event {
	return Event{Kind: ModeChanged, Mode: &m}
}
