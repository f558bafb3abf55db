package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ayusman/zonebeat/internal/soundpack"
	"github.com/ayusman/zonebeat/internal/store"
)

// SoundLister lists every sound that can be assigned to a zone. Refresh is
// called after an import or delete changes the set.
type SoundLister interface {
	Sounds() ([]soundpack.Sound, error)
	Refresh()
}

// SoundHandler handles HTTP requests for sounds.
type SoundHandler struct {
	store  *store.Store
	lister SoundLister
}

// NewSoundHandler creates a SoundHandler.
func NewSoundHandler(s *store.Store, lister SoundLister) *SoundHandler {
	return &SoundHandler{store: s, lister: lister}
}

// ServeHTTP routes /api/sounds (GET list, POST import) and
// /api/sounds/{name} (DELETE an imported sound).
func (h *SoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/sounds"), "/")

	if name == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.importSound(w, r)
		default:
			methodNotAllowed(w)
		}
		return
	}

	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	h.delete(w, r, name)
}

type importSoundRequest struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type listSoundsResponse struct {
	Sounds []soundpack.Sound `json:"sounds"`
}

func (h *SoundHandler) list(w http.ResponseWriter, r *http.Request) {
	sounds, err := h.lister.Sounds()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sounds")
		return
	}
	if sounds == nil {
		sounds = []soundpack.Sound{}
	}
	writeJSON(w, http.StatusOK, listSoundsResponse{Sounds: sounds})
}

func (h *SoundHandler) importSound(w http.ResponseWriter, r *http.Request) {
	var req importSoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "Path is required")
		return
	}
	path, err := filepath.Abs(req.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid path")
		return
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		writeError(w, http.StatusBadRequest, "Sound file not found")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	snd := &store.ImportedSound{Name: name, Path: path}
	if err := h.store.Sounds().Import(snd); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to import sound")
		return
	}
	h.lister.Refresh()
	writeJSON(w, http.StatusCreated, soundpack.Sound{Name: snd.Name, Source: soundpack.SourceImported, Path: snd.Path})
}

func (h *SoundHandler) delete(w http.ResponseWriter, r *http.Request, name string) {
	if err := h.store.Sounds().Delete(name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Sound not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete sound")
		return
	}
	h.lister.Refresh()
	w.WriteHeader(http.StatusNoContent)
}
