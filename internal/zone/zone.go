// Package zone holds the sound zones a user draws over the camera grid and
// answers which zone, and which sound, a grid cell falls in.
package zone

import (
	"fmt"
	"strconv"
	"strings"
)

// Cell is a (row, section) coordinate in the grid overlay.
// Row runs along the horizontal axis, Section along the vertical one.
type Cell struct {
	Row     int `json:"row"`
	Section int `json:"section"`
}

// SoundZone is an axis-aligned rectangle of grid cells. Bounds may be given
// in either order; every consumer normalizes before comparing. Two zones
// with the same four bounds are the same zone.
type SoundZone struct {
	MinX int `json:"min_x"`
	MaxX int `json:"max_x"`
	MinY int `json:"min_y"`
	MaxY int `json:"max_y"`
}

// Span returns the zone spanned by two corner cells, in any order.
func Span(a, b Cell) SoundZone {
	return SoundZone{
		MinX: min(a.Row, b.Row),
		MaxX: max(a.Row, b.Row),
		MinY: min(a.Section, b.Section),
		MaxY: max(a.Section, b.Section),
	}
}

// Normalized returns z with MinX <= MaxX and MinY <= MaxY.
func (z SoundZone) Normalized() SoundZone {
	return SoundZone{
		MinX: min(z.MinX, z.MaxX),
		MaxX: max(z.MinX, z.MaxX),
		MinY: min(z.MinY, z.MaxY),
		MaxY: max(z.MinY, z.MaxY),
	}
}

// Contains reports whether c lies inside z, bounds inclusive.
func (z SoundZone) Contains(c Cell) bool {
	n := z.Normalized()
	return n.MinX <= c.Row && c.Row <= n.MaxX &&
		n.MinY <= c.Section && c.Section <= n.MaxY
}

// Overlaps reports whether z and o share at least one cell.
func (z SoundZone) Overlaps(o SoundZone) bool {
	a, b := z.Normalized(), o.Normalized()
	return a.MinX <= b.MaxX && b.MinX <= a.MaxX &&
		a.MinY <= b.MaxY && b.MinY <= a.MaxY
}

// Width is the number of rows covered.
func (z SoundZone) Width() int {
	n := z.Normalized()
	return n.MaxX - n.MinX + 1
}

// Height is the number of sections covered.
func (z SoundZone) Height() int {
	n := z.Normalized()
	return n.MaxY - n.MinY + 1
}

// Translate moves the zone by (dx, dy) cells.
func (z SoundZone) Translate(dx, dy int) SoundZone {
	n := z.Normalized()
	return SoundZone{MinX: n.MinX + dx, MaxX: n.MaxX + dx, MinY: n.MinY + dy, MaxY: n.MaxY + dy}
}

// Grow expands the zone outward by dw rows and dh sections on each side.
// Negative values shrink it; a zone shrunk past itself flips and is
// normalized again.
func (z SoundZone) Grow(dw, dh int) SoundZone {
	n := z.Normalized()
	return SoundZone{MinX: n.MinX - dw, MaxX: n.MaxX + dw, MinY: n.MinY - dh, MaxY: n.MaxY + dh}.Normalized()
}

func (z SoundZone) String() string {
	n := z.Normalized()
	return fmt.Sprintf("[%d..%d]x[%d..%d]", n.MinX, n.MaxX, n.MinY, n.MaxY)
}

// Color is an RGBA zone color.
type Color struct {
	R, G, B, A uint8
}

// Hex formats the color as #rrggbbaa.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// ParseColor parses #rrggbb or #rrggbbaa. A missing alpha means opaque.
func ParseColor(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 && len(s) != 8 {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	if len(s) == 6 {
		s += "ff"
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(b []byte) error {
	v, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ZoneValue is what a zone plays and how it is drawn. An empty SoundName
// marks a silent placeholder zone.
type ZoneValue struct {
	SoundName string `json:"sound_name"`
	Color     Color  `json:"color"`
}

// Silent reports whether the zone has no sound assigned.
func (v ZoneValue) Silent() bool {
	return v.SoundName == ""
}

// Entry is a zone with its value.
type Entry struct {
	Zone  SoundZone `json:"zone"`
	Value ZoneValue `json:"value"`
}
