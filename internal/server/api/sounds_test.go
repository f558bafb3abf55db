package api

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/zonebeat/internal/soundpack"
)

func newSoundHandler(t *testing.T) (*SoundHandler, *soundpack.Resolver) {
	t.Helper()
	s := newTestStore(t)
	mgr := soundpack.NewManager(t.TempDir())
	resolver := soundpack.NewResolver(mgr, s.Sounds())
	return NewSoundHandler(s, resolver), resolver
}

func TestSoundHandler_ImportListDelete(t *testing.T) {
	h, resolver := newSoundHandler(t)

	// Prime the resolver's cache before the import.
	if _, ok := resolver.Resolve("clap"); ok {
		t.Fatal("clap resolved before import")
	}

	file := filepath.Join(t.TempDir(), "clap.wav")
	if err := os.WriteFile(file, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("failed to write sound: %v", err)
	}

	rec := do(t, h, http.MethodPost, "/api/sounds", map[string]string{"path": file})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	snd := decode[soundpack.Sound](t, rec)
	if snd.Name != "clap" || snd.Source != soundpack.SourceImported {
		t.Errorf("unexpected sound %+v", snd)
	}
	if got, ok := resolver.Resolve("clap"); !ok || got != file {
		t.Errorf("Resolve(clap) = %q, %v after import; want %q", got, ok, file)
	}

	rec = do(t, h, http.MethodGet, "/api/sounds", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	list := decode[listSoundsResponse](t, rec)
	if len(list.Sounds) != 1 || list.Sounds[0].Name != "clap" {
		t.Errorf("expected [clap], got %+v", list.Sounds)
	}

	rec = do(t, h, http.MethodDelete, "/api/sounds/clap", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	if _, ok := resolver.Resolve("clap"); ok {
		t.Error("expected clap to stop resolving after delete")
	}

	rec = do(t, h, http.MethodDelete, "/api/sounds/clap", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestSoundHandler_ImportValidation(t *testing.T) {
	h, _ := newSoundHandler(t)
	dir := t.TempDir()

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing path", map[string]string{"name": "x"}},
		{"missing file", map[string]string{"path": filepath.Join(dir, "nope.wav")}},
		{"directory", map[string]string{"path": dir}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/sounds", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
			}
		})
	}
}

func TestSoundHandler_EmptyList(t *testing.T) {
	h, _ := newSoundHandler(t)

	rec := do(t, h, http.MethodGet, "/api/sounds", nil)
	if got := rec.Body.String(); got != "{\"sounds\":[]}\n" {
		t.Errorf("expected empty array, got %q", got)
	}
}
