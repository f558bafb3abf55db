package editor

import (
	"fmt"
	"strings"
)

// ModeKind is the kind of editing mode.
type ModeKind int

// Editing modes.
const (
	Idle ModeKind = iota
	Add
	Draw
	Delete
	Clone
)

var modeNames = [...]string{
	Idle:   "idle",
	Add:    "add",
	Draw:   "draw",
	Delete: "delete",
	Clone:  "clone",
}

func (k ModeKind) String() string {
	if k < 0 || int(k) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", int(k))
	}
	return modeNames[k]
}

// ParseModeKind parses a mode name such as "draw".
func ParseModeKind(name string) (ModeKind, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range modeNames {
		if n == name {
			return ModeKind(k), true
		}
	}
	return Idle, false
}

// MarshalText implements encoding.TextMarshaler.
func (k ModeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ModeKind) UnmarshalText(b []byte) error {
	v, ok := ParseModeKind(string(b))
	if !ok {
		return fmt.Errorf("unknown mode %q", b)
	}
	*k = v
	return nil
}

// Mode is the editor state. Width and Height are only meaningful for Clone,
// where they give the extent added to the tapped cell.
type Mode struct {
	Kind   ModeKind `json:"kind"`
	Width  int      `json:"width,omitempty"`
	Height int      `json:"height,omitempty"`
}

// CloneMode returns Clone(w, h).
func CloneMode(w, h int) Mode {
	return Mode{Kind: Clone, Width: max(w, 0), Height: max(h, 0)}
}

func (m Mode) String() string {
	if m.Kind == Clone {
		return fmt.Sprintf("clone(%d,%d)", m.Width, m.Height)
	}
	return m.Kind.String()
}

func (m Mode) drawing() bool {
	return m.Kind == Add || m.Kind == Draw
}
