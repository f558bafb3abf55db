package pose

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/zonebeat/internal/log"
)

// DefaultIdleShutdown is how long the helper process may sit unused before it
// is stopped. It is restarted on the next frame.
const DefaultIdleShutdown = 30 * time.Second

// SubprocessEstimator implements Estimator by streaming frames to a helper
// process (typically a Python pose model) over stdin/stdout.
//
// Request:  1 byte orientation, 4 bytes big-endian length, JPEG bytes.
// Response: one JSON line {"landmarks":[{"type":"left_wrist","x":..,"y":..,"confidence":..}]}.
type SubprocessEstimator struct {
	config       Config
	command      []string
	idleShutdown time.Duration

	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	idleTimer *time.Timer
}

// NewSubprocessEstimator creates an estimator that runs command. If command
// is empty the bundled pose_service.py script is located and run with the
// project's virtualenv Python when present.
// The process is started lazily on first estimation.
func NewSubprocessEstimator(config Config, command ...string) (*SubprocessEstimator, error) {
	if len(command) == 0 {
		script := findPoseScript()
		if script == "" {
			return nil, fmt.Errorf("pose_service.py not found")
		}
		python := findVenvPython()
		if python == "" {
			python = "python3"
		}
		command = []string{python, script}
	}

	return &SubprocessEstimator{
		config:       config,
		command:      command,
		idleShutdown: DefaultIdleShutdown,
	}, nil
}

// Estimate sends a frame to the helper and parses its landmarks.
func (e *SubprocessEstimator) Estimate(img *gocv.Mat, orientation Orientation) ([]Sample, error) {
	if img == nil || img.Empty() {
		return nil, nil
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *img)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	return e.estimateEncoded(buf.GetBytes(), orientation)
}

func (e *SubprocessEstimator) estimateEncoded(data []byte, orientation Orientation) ([]Sample, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureStarted(); err != nil {
		return nil, err
	}

	header := make([]byte, 5)
	header[0] = byte(orientation)
	binary.BigEndian.PutUint32(header[1:], uint32(len(data)))

	if _, err := e.stdin.Write(header); err != nil {
		e.shutdown()
		return nil, fmt.Errorf("write header: %w", err)
	}
	if _, err := e.stdin.Write(data); err != nil {
		e.shutdown()
		return nil, fmt.Errorf("write data: %w", err)
	}

	line, err := e.stdout.ReadString('\n')
	if err != nil {
		e.shutdown()
		return nil, fmt.Errorf("read response: %w", err)
	}

	samples, err := parseResponse([]byte(line), e.config.MinConfidence)
	if err != nil {
		return nil, err
	}

	e.resetIdleTimer()
	return samples, nil
}

// Close shuts down the helper process.
func (e *SubprocessEstimator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shutdown()
}

func (e *SubprocessEstimator) ensureStarted() error {
	if e.started {
		return nil
	}

	e.cmd = exec.Command(e.command[0], e.command[1:]...)

	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := e.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	e.cmd.Stderr = os.Stderr

	if err := e.cmd.Start(); err != nil {
		return fmt.Errorf("start pose service: %w", err)
	}

	e.stdin = stdin
	e.stdout = bufio.NewReader(stdout)
	e.started = true
	log.Debug("pose service started", "command", e.command[0])

	return nil
}

func (e *SubprocessEstimator) shutdown() error {
	if !e.started {
		return nil
	}

	if e.idleTimer != nil {
		e.idleTimer.Stop()
		e.idleTimer = nil
	}

	if e.stdin != nil {
		e.stdin.Close()
	}

	err := e.cmd.Wait()
	e.started = false
	e.cmd = nil
	e.stdin = nil
	e.stdout = nil

	return err
}

func (e *SubprocessEstimator) resetIdleTimer() {
	if e.idleTimer != nil {
		e.idleTimer.Stop()
	}
	e.idleTimer = time.AfterFunc(e.idleShutdown, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if err := e.shutdown(); err != nil {
			log.Debug("pose service exited", "error", err)
		}
	})
}

type jsonLandmark struct {
	Type       string  `json:"type"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

type jsonResponse struct {
	Landmarks []jsonLandmark `json:"landmarks"`
	Error     string         `json:"error,omitempty"`
}

// parseResponse decodes one response line. Unknown landmark names and
// samples under minConfidence are skipped.
func parseResponse(line []byte, minConfidence float64) ([]Sample, error) {
	var resp jsonResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("pose service: %s", resp.Error)
	}

	samples := make([]Sample, 0, len(resp.Landmarks))
	for _, l := range resp.Landmarks {
		t, ok := ParseType(l.Type)
		if !ok || l.Confidence < minConfidence {
			continue
		}
		samples = append(samples, Sample{
			Type:       t,
			Position:   Point{X: l.X, Y: l.Y},
			Confidence: l.Confidence,
		})
	}
	return samples, nil
}

func findPoseScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/pose_service.py",
		"../scripts/pose_service.py",
		filepath.Join(execDir, "scripts/pose_service.py"),
		filepath.Join(os.Getenv("HOME"), ".zonebeat/scripts/pose_service.py"),
	}

	return firstExisting(candidates)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".zonebeat/venv/bin/python"),
	}

	return firstExisting(candidates)
}

func firstExisting(paths []string) string {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return ""
}
