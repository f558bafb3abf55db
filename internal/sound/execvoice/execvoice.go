// Package execvoice plays sounds by running an external audio player such as
// aplay or afplay, one process per playback.
package execvoice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ayusman/zonebeat/internal/log"
	"github.com/ayusman/zonebeat/internal/sound"
)

// Placeholders substituted in the player command line.
const (
	FilePlaceholder   = "{file}"
	VolumePlaceholder = "{volume}"
)

// DefaultTimeout bounds a single playback.
const DefaultTimeout = 30 * time.Second

// DefaultCommand returns the platform's stock command-line player.
func DefaultCommand() []string {
	if runtime.GOOS == "darwin" {
		return []string{"afplay", "-v", VolumePlaceholder, FilePlaceholder}
	}
	return []string{"aplay", "-q", FilePlaceholder}
}

// Factory creates voices that shell out to a player command.
type Factory struct {
	command []string
	timeout time.Duration
}

// NewFactory creates a Factory. An empty command means DefaultCommand and a
// non-positive timeout means DefaultTimeout.
func NewFactory(command []string, timeout time.Duration) *Factory {
	if len(command) == 0 {
		command = DefaultCommand()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Factory{command: command, timeout: timeout}
}

// NewVoice implements sound.VoiceFactory.
func (f *Factory) NewVoice(url string, onFinished func()) (sound.Voice, error) {
	path := strings.TrimPrefix(url, "file://")
	if path == "" {
		return nil, errors.New("empty sound path")
	}
	if onFinished == nil {
		onFinished = func() {}
	}
	return &voice{factory: f, path: path, onFinished: onFinished}, nil
}

// expand substitutes the placeholders in the command line.
func expand(command []string, path string, volume float64) []string {
	vol := strconv.FormatFloat(volume, 'f', 2, 64)
	args := make([]string, len(command))
	for i, arg := range command {
		arg = strings.ReplaceAll(arg, FilePlaceholder, path)
		args[i] = strings.ReplaceAll(arg, VolumePlaceholder, vol)
	}
	return args
}

type voice struct {
	factory    *Factory
	path       string
	onFinished func()

	mu     sync.Mutex
	cmd    *exec.Cmd
	cancel context.CancelFunc
}

// Play starts a new player process. A playback already running is stopped
// first.
func (v *voice) Play(volume float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.cancel != nil {
		v.cancel()
	}

	args := expand(v.factory.command, v.path, volume)

	// Create command with a timeout so a wedged player cannot linger
	ctx, cancel := context.WithTimeout(context.Background(), v.factory.timeout)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("start %s: %w", args[0], err)
	}
	v.cmd = cmd
	v.cancel = cancel

	go v.wait(ctx, cmd, cancel, &stderr)
	return nil
}

func (v *voice) wait(ctx context.Context, cmd *exec.Cmd, cancel context.CancelFunc, stderr *bytes.Buffer) {
	err := cmd.Wait()
	cancel()

	v.mu.Lock()
	if v.cmd == cmd {
		v.cmd = nil
		v.cancel = nil
	}
	v.mu.Unlock()

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		log.Warn("player timed out", "file", v.path, "timeout", v.factory.timeout)
	case err != nil && ctx.Err() == nil:
		log.Warn("player failed", "file", v.path, "error", err, "stderr", strings.TrimSpace(stderr.String()))
	}
	v.onFinished()
}

func (v *voice) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cancel != nil {
		v.cancel()
	}
}

func (v *voice) Playing() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cmd != nil
}
