package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/ayusman/zonebeat/internal/app"
	"github.com/ayusman/zonebeat/internal/capture"
	"github.com/ayusman/zonebeat/internal/config"
	"github.com/ayusman/zonebeat/internal/log"
	"github.com/ayusman/zonebeat/internal/pose"
	"github.com/ayusman/zonebeat/internal/server"
	"github.com/ayusman/zonebeat/internal/sound"
	"github.com/ayusman/zonebeat/internal/sound/ebitenvoice"
	"github.com/ayusman/zonebeat/internal/sound/execvoice"
	"github.com/ayusman/zonebeat/internal/soundpack"
	"github.com/ayusman/zonebeat/internal/store"
	"github.com/ayusman/zonebeat/internal/tray"
)

func main() {
	var (
		configPath = flag.String("config", "", "tuning JSON file (default "+config.DefaultConfigPath+" when present)")
		dbPath     = flag.String("db", "", "SQLite database path (default ~/.zonebeat/zonebeat.db)")
		packDir    = flag.String("packs", "", "sound pack directory (default ~/.zonebeat/packs)")
		addr       = flag.String("addr", ":8080", "HTTP listen address")
		cameraID   = flag.Int("camera", 0, "camera device ID")
		useTray    = flag.Bool("tray", false, "show the system tray menu")
		logLevel   = flag.String("log-level", "info", "log level: debug, info, warn, error")
		backend    = flag.String("backend", "exec", "audio backend: exec or ebiten")
		poseCmd    = flag.String("pose-cmd", "", "pose helper command (default: bundled pose_service.py)")
	)
	flag.Parse()

	log.Init(*logLevel)

	if err := run(options{
		configPath: *configPath,
		dbPath:     *dbPath,
		packDir:    *packDir,
		addr:       *addr,
		cameraID:   *cameraID,
		useTray:    *useTray,
		backend:    *backend,
		poseCmd:    *poseCmd,
	}); err != nil {
		log.Error("zonebeat failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	dbPath     string
	packDir    string
	addr       string
	cameraID   int
	useTray    bool
	backend    string
	poseCmd    string
}

func run(opts options) error {
	tuning, err := loadTuning(opts.configPath)
	if err != nil {
		return err
	}

	dataDir, err := dataDir()
	if err != nil {
		return err
	}
	if opts.dbPath == "" {
		opts.dbPath = filepath.Join(dataDir, "zonebeat.db")
	}
	if opts.packDir == "" {
		opts.packDir = filepath.Join(dataDir, "packs")
	}

	st, err := store.New(opts.dbPath)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close()

	packs := soundpack.NewManager(opts.packDir)
	if err := packs.Discover(); err != nil {
		log.Warn("sound pack discovery failed", "dir", opts.packDir, "error", err)
	}
	resolver := soundpack.NewResolver(packs, st.Sounds())
	if pack, err := st.Settings().Get(store.SettingSoundPack); err == nil {
		resolver.SetPreferred(pack)
	}

	voices, err := newVoices(opts.backend, tuning)
	if err != nil {
		return err
	}

	var estimator pose.Estimator
	var poseArgs []string
	if opts.poseCmd != "" {
		poseArgs = strings.Fields(opts.poseCmd)
	}
	if est, err := pose.NewSubprocessEstimator(pose.DefaultConfig(), poseArgs...); err != nil {
		log.Warn("pose estimator unavailable, tracking will see nobody", "error", err)
	} else {
		estimator = est
	}

	mechanic := app.New(app.Config{
		Store: st,
		Camera: capture.NewCamera(capture.CameraConfig{
			DeviceID: opts.cameraID,
			FPS:      tuning.GetCameraFPS(),
		}),
		Estimator: estimator,
		Resolver:  resolver,
		Voices:    voices,
		Tuning:    tuning,
	})
	defer mechanic.Close()

	if err := mechanic.RestoreActiveMask(); err != nil {
		log.Warn("could not restore active mask", "error", err)
	}
	mechanic.SetEnabled(true)
	if err := mechanic.Start(); err != nil {
		log.Warn("tracking not started", "camera", opts.cameraID, "error", err)
	}

	srv := server.New(server.Config{
		StaticDir: findWebDir(),
		Store:     st,
		Mechanic:  mechanic,
		Sounds:    resolver,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", opts.addr)
		serveErr <- srv.ListenAndServe(ctx, opts.addr)
	}()

	if opts.useTray {
		t := newTray(mechanic, packs, resolver, st, opts.addr, stop)
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		// Blocks on the main thread until Quit.
		t.Run()
		stop()
	}

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
		if err := <-serveErr; err != nil {
			return fmt.Errorf("server: %w", err)
		}
	}
	log.Info("shutting down")
	return nil
}

func loadTuning(path string) (*config.Tuning, error) {
	if path == "" {
		if _, err := os.Stat(config.DefaultConfigPath); err != nil {
			return config.DefaultTuning(), nil
		}
		path = config.DefaultConfigPath
	}
	tuning, err := config.LoadTuning(path)
	if err != nil {
		return nil, fmt.Errorf("load tuning: %w", err)
	}
	log.Info("loaded tuning", "path", path)
	return tuning, nil
}

func dataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	dir := filepath.Join(homeDir, ".zonebeat")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dir, nil
}

func newVoices(backend string, tuning *config.Tuning) (sound.VoiceFactory, error) {
	switch backend {
	case "exec":
		cmd := tuning.GetPlayerCommand()
		if len(cmd) == 0 {
			cmd = execvoice.DefaultCommand()
		}
		return execvoice.NewFactory(cmd, execvoice.DefaultTimeout), nil
	case "ebiten":
		return ebitenvoice.NewFactory(), nil
	default:
		return nil, errors.New("unknown audio backend " + backend)
	}
}

func newTray(m *app.Mechanic, packs *soundpack.Manager, resolver *soundpack.Resolver, st *store.Store, addr string, quit func()) *tray.Tray {
	t := tray.New()
	t.SetEnabled(m.IsEnabled())

	var names []string
	for _, p := range packs.List() {
		names = append(names, p.Manifest.Name)
	}
	t.SetPacks(names, resolver.Preferred())

	t.OnToggle(m.SetEnabled)
	t.OnPack(func(name string) {
		resolver.SetPreferred(name)
		if err := st.Settings().Set(store.SettingSoundPack, name); err != nil {
			log.Warn("failed to remember sound pack", "pack", name, "error", err)
		}
	})
	t.OnSettings(func() { openBrowser(settingsURL(addr)) })
	t.OnQuit(quit)
	m.OnPlayed(func(p sound.Played) { t.SetLastSound(p.Name) })
	return t
}

func settingsURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Warn("failed to open browser", "url", url, "error", err)
		return
	}
	go cmd.Wait()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.zonebeat/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".zonebeat", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
