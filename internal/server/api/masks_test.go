package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/zonebeat/internal/store"
	"github.com/ayusman/zonebeat/internal/zone"
)

// newTestStore creates a Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

type fakeLoader struct {
	loaded []string
	saved  []string
	err    error
}

func (f *fakeLoader) LoadMask(id string) error {
	f.loaded = append(f.loaded, id)
	return f.err
}

func (f *fakeLoader) SaveMask(id string) error {
	f.saved = append(f.saved, id)
	return f.err
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}

func TestMaskHandler_CreateAndList(t *testing.T) {
	s := newTestStore(t)
	h := NewMaskHandler(s, nil)

	rec := do(t, h, http.MethodPost, "/api/masks", map[string]string{"name": "Stage", "background": "drone"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	created := decode[maskResponse](t, rec)
	if created.ID == "" {
		t.Error("expected a generated ID")
	}
	if created.Name != "Stage" || created.Background != "drone" {
		t.Errorf("unexpected mask %+v", created)
	}

	rec = do(t, h, http.MethodGet, "/api/masks", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}
	list := decode[listMasksResponse](t, rec)
	if len(list.Masks) != 1 || list.Masks[0].ID != created.ID {
		t.Errorf("expected the created mask, got %+v", list.Masks)
	}
}

func TestMaskHandler_CreateValidation(t *testing.T) {
	s := newTestStore(t)
	h := NewMaskHandler(s, nil)
	do(t, h, http.MethodPost, "/api/masks", map[string]string{"name": "Stage"})

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"missing name", map[string]string{}, http.StatusBadRequest},
		{"blank name", map[string]string{"name": "  "}, http.StatusBadRequest},
		{"duplicate name", map[string]string{"name": "Stage"}, http.StatusConflict},
		{"invalid json", "not an object", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/masks", tt.body)
			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestMaskHandler_GetUpdateDelete(t *testing.T) {
	s := newTestStore(t)
	h := NewMaskHandler(s, nil)
	if err := s.Masks().Create(&store.Mask{ID: "m1", Name: "One"}); err != nil {
		t.Fatalf("failed to create mask: %v", err)
	}

	rec := do(t, h, http.MethodGet, "/api/masks/m1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	rec = do(t, h, http.MethodPut, "/api/masks/m1", map[string]string{"name": "Renamed", "background": "rain"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	got, err := s.Masks().GetByID("m1")
	if err != nil {
		t.Fatalf("failed to get mask: %v", err)
	}
	if got.Name != "Renamed" || got.Background != "rain" {
		t.Errorf("mask not updated: %+v", got)
	}

	rec = do(t, h, http.MethodDelete, "/api/masks/m1", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	if _, err := s.Masks().GetByID("m1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		rec = do(t, h, method, "/api/masks/m1", map[string]string{})
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s on deleted mask: expected status %d, got %d", method, http.StatusNotFound, rec.Code)
		}
	}
}

func TestMaskHandler_Zones(t *testing.T) {
	s := newTestStore(t)
	h := NewMaskHandler(s, nil)
	if err := s.Masks().Create(&store.Mask{ID: "m1", Name: "One"}); err != nil {
		t.Fatalf("failed to create mask: %v", err)
	}

	body := zonesBody{Zones: []zone.Entry{
		{Zone: zone.SoundZone{MinX: 3, MaxX: 1, MinY: 0, MaxY: 2}, Value: zone.ZoneValue{SoundName: "kick", Color: zone.Color{R: 255, A: 255}}},
		{Zone: zone.SoundZone{MinX: 5, MaxX: 5, MinY: 5, MaxY: 5}, Value: zone.ZoneValue{SoundName: "snare"}},
	}}
	rec := do(t, h, http.MethodPut, "/api/masks/m1/zones", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	got := decode[zonesBody](t, rec)
	if len(got.Zones) != 2 {
		t.Fatalf("expected 2 zones, got %d", len(got.Zones))
	}
	if want := (zone.SoundZone{MinX: 1, MaxX: 3, MinY: 0, MaxY: 2}); got.Zones[0].Zone != want {
		t.Errorf("expected normalized zone %v, got %v", want, got.Zones[0].Zone)
	}
	if got.Zones[1].Value.SoundName != "snare" {
		t.Errorf("expected order to be kept, got %+v", got.Zones)
	}

	rec = do(t, h, http.MethodGet, "/api/masks/missing/zones", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
	rec = do(t, h, http.MethodPut, "/api/masks/missing/zones", zonesBody{})
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestMaskHandler_ActivateAndSave(t *testing.T) {
	s := newTestStore(t)
	loader := &fakeLoader{}
	h := NewMaskHandler(s, loader)
	if err := s.Masks().Create(&store.Mask{ID: "m1", Name: "One"}); err != nil {
		t.Fatalf("failed to create mask: %v", err)
	}

	rec := do(t, h, http.MethodPost, "/api/masks/active/save", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("save without active mask: expected status %d, got %d", http.StatusConflict, rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/api/masks/m1/activate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if len(loader.loaded) != 1 || loader.loaded[0] != "m1" {
		t.Errorf("expected LoadMask(m1), got %v", loader.loaded)
	}

	// The loader records the active mask in the real mechanic.
	if err := s.Settings().Set(store.SettingActiveMask, "m1"); err != nil {
		t.Fatalf("failed to set active mask: %v", err)
	}
	rec = do(t, h, http.MethodPost, "/api/masks/active/save", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if resp := decode[maskResponse](t, rec); !resp.Active {
		t.Error("expected saved mask to be active")
	}
	if len(loader.saved) != 1 || loader.saved[0] != "m1" {
		t.Errorf("expected SaveMask(m1), got %v", loader.saved)
	}

	rec = do(t, h, http.MethodPost, "/api/masks/missing/activate", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
	rec = do(t, h, http.MethodGet, "/api/masks/m1/activate", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestMaskHandler_ActivateWithoutLoader(t *testing.T) {
	s := newTestStore(t)
	h := NewMaskHandler(s, nil)
	s.Masks().Create(&store.Mask{ID: "m1", Name: "One"})

	rec := do(t, h, http.MethodPost, "/api/masks/m1/activate", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
}

func TestMaskHandler_DeleteClearsActive(t *testing.T) {
	s := newTestStore(t)
	h := NewMaskHandler(s, nil)
	s.Masks().Create(&store.Mask{ID: "m1", Name: "One"})
	s.Settings().Set(store.SettingActiveMask, "m1")

	do(t, h, http.MethodDelete, "/api/masks/m1", nil)

	if _, err := s.Settings().Get(store.SettingActiveMask); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected active mask setting to be removed, got %v", err)
	}
}
