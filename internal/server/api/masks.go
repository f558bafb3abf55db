package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/zonebeat/internal/log"
	"github.com/ayusman/zonebeat/internal/store"
	"github.com/ayusman/zonebeat/internal/zone"
)

// MaskLoader moves masks between the store and the live mask.
type MaskLoader interface {
	LoadMask(maskID string) error
	SaveMask(maskID string) error
}

// MaskHandler handles HTTP requests for saved masks.
type MaskHandler struct {
	store  *store.Store
	loader MaskLoader
}

// NewMaskHandler creates a MaskHandler. loader may be nil, in which case
// activation and saving the active mask are unavailable.
func NewMaskHandler(s *store.Store, loader MaskLoader) *MaskHandler {
	return &MaskHandler{store: s, loader: loader}
}

// ServeHTTP routes:
//
//	/api/masks                  GET list, POST create
//	/api/masks/active/save      POST
//	/api/masks/{id}             GET, PUT, DELETE
//	/api/masks/{id}/zones       GET, PUT
//	/api/masks/{id}/activate    POST
func (h *MaskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/masks")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			methodNotAllowed(w)
		}
		return
	}

	if path == "active/save" {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.saveActive(w, r)
		return
	}

	id, sub, _ := strings.Cut(path, "/")
	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, id)
		case http.MethodPut:
			h.update(w, r, id)
		case http.MethodDelete:
			h.delete(w, r, id)
		default:
			methodNotAllowed(w)
		}
	case "zones":
		switch r.Method {
		case http.MethodGet:
			h.getZones(w, r, id)
		case http.MethodPut:
			h.putZones(w, r, id)
		default:
			methodNotAllowed(w)
		}
	case "activate":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.activate(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

type maskRequest struct {
	Name       string  `json:"name"`
	Background *string `json:"background"`
}

type maskResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Background string `json:"background"`
	Zones      int    `json:"zones"`
	Active     bool   `json:"active"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type listMasksResponse struct {
	Masks []maskResponse `json:"masks"`
}

type zonesBody struct {
	Zones []zone.Entry `json:"zones"`
}

func (h *MaskHandler) toResponse(m *store.Mask) maskResponse {
	resp := maskResponse{
		ID:         m.ID,
		Name:       m.Name,
		Background: m.Background,
		CreatedAt:  m.CreatedAt.Format(timeFormat),
		UpdatedAt:  m.UpdatedAt.Format(timeFormat),
	}
	if entries, err := h.store.Masks().LoadZones(m.ID); err == nil {
		resp.Zones = len(entries)
	}
	resp.Active = h.activeID() == m.ID
	return resp
}

func (h *MaskHandler) activeID() string {
	id, err := h.store.Settings().Get(store.SettingActiveMask)
	if err != nil {
		return ""
	}
	return id
}

// lookup writes the error response itself and returns nil when the mask
// cannot be read.
func (h *MaskHandler) lookup(w http.ResponseWriter, id string) *store.Mask {
	m, err := h.store.Masks().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Mask not found")
			return nil
		}
		writeError(w, http.StatusInternalServerError, "Failed to get mask")
		return nil
	}
	return m
}

func (h *MaskHandler) list(w http.ResponseWriter, r *http.Request) {
	masks, err := h.store.Masks().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list masks")
		return
	}

	response := listMasksResponse{Masks: make([]maskResponse, 0, len(masks))}
	for _, m := range masks {
		response.Masks = append(response.Masks, h.toResponse(m))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *MaskHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	if m := h.lookup(w, id); m != nil {
		writeJSON(w, http.StatusOK, h.toResponse(m))
	}
}

func (h *MaskHandler) create(w http.ResponseWriter, r *http.Request) {
	var req maskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if _, err := h.store.Masks().GetByName(req.Name); err == nil {
		writeError(w, http.StatusConflict, "Mask name already exists")
		return
	}

	m := &store.Mask{ID: uuid.New().String(), Name: req.Name}
	if req.Background != nil {
		m.Background = *req.Background
	}
	if err := h.store.Masks().Create(m); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create mask")
		return
	}
	log.Info("mask created", "mask", m.Name, "id", m.ID)
	writeJSON(w, http.StatusCreated, h.toResponse(m))
}

func (h *MaskHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	m := h.lookup(w, id)
	if m == nil {
		return
	}

	var req maskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if name := strings.TrimSpace(req.Name); name != "" && name != m.Name {
		if _, err := h.store.Masks().GetByName(name); err == nil {
			writeError(w, http.StatusConflict, "Mask name already exists")
			return
		}
		m.Name = name
	}
	if req.Background != nil {
		m.Background = *req.Background
	}

	if err := h.store.Masks().Update(m); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update mask")
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(m))
}

func (h *MaskHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Masks().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Mask not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete mask")
		return
	}
	if h.activeID() == id {
		h.store.Settings().Delete(store.SettingActiveMask)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MaskHandler) getZones(w http.ResponseWriter, r *http.Request, id string) {
	entries, err := h.store.Masks().LoadZones(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Mask not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load zones")
		return
	}
	if entries == nil {
		entries = []zone.Entry{}
	}
	writeJSON(w, http.StatusOK, zonesBody{Zones: entries})
}

func (h *MaskHandler) putZones(w http.ResponseWriter, r *http.Request, id string) {
	var body zonesBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := h.store.Masks().SaveZones(id, body.Zones); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Mask not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to save zones")
		return
	}
	h.getZones(w, r, id)
}

func (h *MaskHandler) activate(w http.ResponseWriter, r *http.Request, id string) {
	if h.loader == nil {
		writeError(w, http.StatusServiceUnavailable, "Mask activation unavailable")
		return
	}
	m := h.lookup(w, id)
	if m == nil {
		return
	}
	if err := h.loader.LoadMask(id); err != nil {
		log.Warn("mask activation failed", "mask", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to activate mask")
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(m))
}

func (h *MaskHandler) saveActive(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil {
		writeError(w, http.StatusServiceUnavailable, "Mask saving unavailable")
		return
	}
	id := h.activeID()
	if id == "" {
		writeError(w, http.StatusConflict, "No active mask")
		return
	}
	if err := h.loader.SaveMask(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Mask not found")
			return
		}
		log.Warn("saving active mask failed", "mask", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save mask")
		return
	}
	m := h.lookup(w, id)
	if m == nil {
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(m))
}
