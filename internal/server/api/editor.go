package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/zonebeat/internal/editor"
	"github.com/ayusman/zonebeat/internal/zone"
)

// EditorHost runs editor commands on the thread that owns the mask.
type EditorHost interface {
	Do(fn func()) error
	Editor() *editor.Editor
	Mask() *zone.Mask
}

// EditorHandler exposes the zone editor over HTTP.
type EditorHandler struct {
	host EditorHost
}

// NewEditorHandler creates an EditorHandler.
func NewEditorHandler(host EditorHost) *EditorHandler {
	return &EditorHandler{host: host}
}

// Editor commands accepted by POST /api/editor.
const (
	CommandMode           = "mode"
	CommandTap            = "tap"
	CommandPan            = "pan"
	CommandTwoFingerTap   = "two_finger_tap"
	CommandTransform      = "transform"
	CommandCloneSelection = "clone_selection"
	CommandUndo           = "undo"
	CommandReset          = "reset"
	CommandAssign         = "assign"
	CommandBackground     = "background"
)

// editorCommand is one editor request. Coordinates are normalized display
// positions; ToX/ToY end a pan.
type editorCommand struct {
	Command string       `json:"command"`
	Mode    *editor.Mode `json:"mode,omitempty"`
	X       float64      `json:"x"`
	Y       float64      `json:"y"`
	ToX     float64      `json:"to_x"`
	ToY     float64      `json:"to_y"`
	DX      int          `json:"dx"`
	DY      int          `json:"dy"`
	DW      int          `json:"dw"`
	DH      int          `json:"dh"`
	Sound   *string      `json:"sound,omitempty"`
	Color   *zone.Color  `json:"color,omitempty"`
}

type editorResponse struct {
	State      editor.State `json:"state"`
	Zones      []zone.Entry `json:"zones"`
	Background string       `json:"background"`
}

// ServeHTTP handles GET (state) and POST (command) on /api/editor.
func (h *EditorHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.state(w)
	case http.MethodPost:
		h.command(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (h *EditorHandler) snapshot() editorResponse {
	mask := h.host.Mask()
	entries := mask.Entries()
	if entries == nil {
		entries = []zone.Entry{}
	}
	return editorResponse{
		State:      h.host.Editor().State(),
		Zones:      entries,
		Background: mask.Background(),
	}
}

func (h *EditorHandler) state(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, h.snapshot())
}

func (h *EditorHandler) command(w http.ResponseWriter, r *http.Request) {
	var cmd editorCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	run, msg := h.compile(cmd)
	if run == nil {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	var resp editorResponse
	if err := h.host.Do(func() {
		run(h.host.Editor())
		resp = h.snapshot()
	}); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Editor unavailable")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// compile turns cmd into an editor call, or returns an error message.
func (h *EditorHandler) compile(cmd editorCommand) (func(*editor.Editor), string) {
	switch cmd.Command {
	case CommandMode:
		if cmd.Mode == nil {
			return nil, "Mode is required"
		}
		m := *cmd.Mode
		return func(e *editor.Editor) { e.SetMode(m) }, ""
	case CommandTap:
		return func(e *editor.Editor) {
			e.OnTapBegin(cmd.X, cmd.Y)
			e.OnTapEnd(cmd.X, cmd.Y)
		}, ""
	case CommandPan:
		return func(e *editor.Editor) {
			e.OnPanBegin(cmd.X, cmd.Y)
			e.OnPanChanged(cmd.ToX, cmd.ToY)
			e.OnPanEnd(cmd.ToX, cmd.ToY)
		}, ""
	case CommandTwoFingerTap:
		return (*editor.Editor).OnTwoFingerTap, ""
	case CommandTransform:
		return func(e *editor.Editor) { e.TransformZone(cmd.DX, cmd.DY, cmd.DW, cmd.DH) }, ""
	case CommandCloneSelection:
		return (*editor.Editor).CloneSelection, ""
	case CommandUndo:
		return (*editor.Editor).Undo, ""
	case CommandReset:
		return (*editor.Editor).ResetMask, ""
	case CommandAssign:
		if cmd.Sound == nil && cmd.Color == nil {
			return nil, "Sound or color is required"
		}
		return func(e *editor.Editor) {
			if cmd.Sound != nil {
				e.AssignSound(*cmd.Sound)
			}
			if cmd.Color != nil {
				e.AssignColor(*cmd.Color)
			}
		}, ""
	case CommandBackground:
		if cmd.Sound == nil {
			return nil, "Sound is required"
		}
		mask := h.host.Mask()
		return func(*editor.Editor) { mask.SetBackground(*cmd.Sound) }, ""
	case "":
		return nil, "Command is required"
	default:
		return nil, "Unknown command"
	}
}
