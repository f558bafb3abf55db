package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/zonebeat/internal/pose"
)

// LandmarkTracker is the part of the tracker the landmarks API drives.
type LandmarkTracker interface {
	Tracked() []pose.Type
	Enable(t pose.Type) bool
	Disable(t pose.Type) bool
	Toggle(t pose.Type) bool
	Smoothing() bool
	SetSmoothing(on bool)
}

// LandmarksHandler lists and changes the tracked landmark set.
type LandmarksHandler struct {
	tracker LandmarkTracker
}

// NewLandmarksHandler creates a LandmarksHandler.
func NewLandmarksHandler(t LandmarkTracker) *LandmarksHandler {
	return &LandmarksHandler{tracker: t}
}

type landmarksResponse struct {
	Tracked   []pose.Type `json:"tracked"`
	Available []pose.Type `json:"available"`
	Smoothing bool        `json:"smoothing"`
}

// landmarksRequest changes one landmark, the smoothing flag, or both. A
// landmark without Enabled is toggled.
type landmarksRequest struct {
	Landmark  string `json:"landmark"`
	Enabled   *bool  `json:"enabled"`
	Smoothing *bool  `json:"smoothing"`
}

// ServeHTTP handles GET and POST on /api/landmarks.
func (h *LandmarksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		var req landmarksRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.Landmark == "" && req.Smoothing == nil {
			writeError(w, http.StatusBadRequest, "Landmark or smoothing is required")
			return
		}
		if req.Landmark != "" {
			typ, ok := pose.ParseType(req.Landmark)
			if !ok {
				writeError(w, http.StatusBadRequest, "Unknown landmark")
				return
			}
			switch {
			case req.Enabled == nil:
				h.tracker.Toggle(typ)
			case *req.Enabled:
				h.tracker.Enable(typ)
			default:
				h.tracker.Disable(typ)
			}
		}
		if req.Smoothing != nil {
			h.tracker.SetSmoothing(*req.Smoothing)
		}
	default:
		methodNotAllowed(w)
		return
	}

	available := make([]pose.Type, 0, pose.NumTypes)
	for t := pose.Type(0); t < pose.NumTypes; t++ {
		available = append(available, t)
	}
	tracked := h.tracker.Tracked()
	if tracked == nil {
		tracked = []pose.Type{}
	}
	writeJSON(w, http.StatusOK, landmarksResponse{
		Tracked:   tracked,
		Available: available,
		Smoothing: h.tracker.Smoothing(),
	})
}
