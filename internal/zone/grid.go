package zone

import "math"

// Default grid dimensions.
const (
	DefaultRows     = 12
	DefaultSections = 16
)

// Grid divides the normalized display space [0,1)x[0,1) into Rows columns
// along x and Sections bands along y.
type Grid struct {
	Rows     int `json:"rows"`
	Sections int `json:"sections"`
}

// DefaultGrid returns the default grid.
func DefaultGrid() Grid {
	return Grid{Rows: DefaultRows, Sections: DefaultSections}
}

// CellAt maps a normalized display point to its cell. Points outside the
// display miss.
func (g Grid) CellAt(x, y float64) (Cell, bool) {
	if g.Rows <= 0 || g.Sections <= 0 {
		return Cell{}, false
	}
	if math.IsNaN(x) || math.IsNaN(y) || x < 0 || y < 0 || x >= 1 || y >= 1 {
		return Cell{}, false
	}
	return Cell{
		Row:     int(x * float64(g.Rows)),
		Section: int(y * float64(g.Sections)),
	}, true
}

// Contains reports whether c is a valid cell of the grid.
func (g Grid) Contains(c Cell) bool {
	return c.Row >= 0 && c.Row < g.Rows && c.Section >= 0 && c.Section < g.Sections
}

// Fits reports whether every cell of z lies in the grid.
func (g Grid) Fits(z SoundZone) bool {
	n := z.Normalized()
	return g.Contains(Cell{Row: n.MinX, Section: n.MinY}) &&
		g.Contains(Cell{Row: n.MaxX, Section: n.MaxY})
}

// Center returns the normalized display point at the center of c.
func (g Grid) Center(c Cell) (float64, float64) {
	return (float64(c.Row) + 0.5) / float64(g.Rows), (float64(c.Section) + 0.5) / float64(g.Sections)
}
