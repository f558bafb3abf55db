// Package server provides the HTTP server for the zonebeat sound mechanic.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/ayusman/zonebeat/internal/app"
	"github.com/ayusman/zonebeat/internal/editor"
	"github.com/ayusman/zonebeat/internal/server/api"
	"github.com/ayusman/zonebeat/internal/sound"
	"github.com/ayusman/zonebeat/internal/store"
	"github.com/ayusman/zonebeat/internal/tracker"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Mechanic  *app.Mechanic
	// Sounds lists assignable sounds. Requires Store.
	Sounds api.SoundLister
}

// Server represents the HTTP server for the zonebeat application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	events *EventHub
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		var loader api.MaskLoader
		if s.config.Mechanic != nil {
			loader = s.config.Mechanic
		}
		masks := api.NewMaskHandler(s.config.Store, loader)
		s.mux.Handle("/api/masks", masks)
		s.mux.Handle("/api/masks/", masks)

		if s.config.Sounds != nil {
			sounds := api.NewSoundHandler(s.config.Store, s.config.Sounds)
			s.mux.Handle("/api/sounds", sounds)
			s.mux.Handle("/api/sounds/", sounds)
		}
	}

	if m := s.config.Mechanic; m != nil {
		s.mux.HandleFunc("/api/tracking", s.handleTracking)
		s.mux.Handle("/api/editor", api.NewEditorHandler(m))
		s.mux.Handle("/api/landmarks", api.NewLandmarksHandler(m.Tracker()))
		s.mux.Handle("/api/stream", NewStreamHandler(m))

		s.events = NewEventHub()
		m.OnPoints(func(points []tracker.StabilizedPoint) { s.events.Publish(EventPoints, points) })
		m.OnPlayed(func(p sound.Played) { s.events.Publish(EventPlayed, p) })
		m.OnEditorEvent(func(ev editor.Event) { s.events.Publish(EventEditor, ev) })
		s.mux.Handle("/api/events", s.events)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Close disconnects event subscribers.
func (s *Server) Close() {
	if s.events != nil {
		s.events.Close()
	}
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if m := s.config.Mechanic; m != nil {
		response["running"] = m.Running()
		response["enabled"] = m.IsEnabled()
	}

	writeJSON(w, http.StatusOK, response)
}

type trackingRequest struct {
	Enabled *bool `json:"enabled"`
}

// handleTracking reports (GET) or switches (POST) sound triggering.
func (s *Server) handleTracking(w http.ResponseWriter, r *http.Request) {
	m := s.config.Mechanic
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		var req trackingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Enabled is required"})
			return
		}
		m.SetEnabled(*req.Enabled)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": m.IsEnabled(), "running": m.Running()})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// shutdownTimeout bounds how long in-flight requests may take once the
// server is asked to stop.
const shutdownTimeout = 5 * time.Second

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:    addr,
		Handler: s,
		// Long-lived streams end with ctx.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
