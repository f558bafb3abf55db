package soundpack

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/ayusman/zonebeat/internal/log"
)

// ErrPackNotFound is returned when a requested pack cannot be found.
var ErrPackNotFound = errors.New("sound pack not found")

// Manager manages pack discovery and access.
type Manager struct {
	packDir string
	packs   map[string]*Pack
	mu      sync.RWMutex
}

// NewManager creates a new Manager over packDir.
func NewManager(packDir string) *Manager {
	return &Manager{
		packDir: packDir,
		packs:   make(map[string]*Pack),
	}
}

// Discover scans the pack directory for pack.json files and loads them.
// Each subdirectory is expected to be a pack; unreadable ones are skipped.
func (m *Manager) Discover() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.packs = make(map[string]*Pack)

	info, err := os.Stat(m.packDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}

	entries, err := os.ReadDir(m.packDir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		packPath := filepath.Join(m.packDir, entry.Name())
		data, err := os.ReadFile(filepath.Join(packPath, ManifestFile))
		if err != nil {
			continue
		}

		var manifest Manifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			log.Warn("skipping sound pack with invalid manifest", "path", packPath, "error", err)
			continue
		}
		if manifest.Name == "" {
			manifest.Name = entry.Name()
		}

		m.packs[manifest.Name] = &Pack{Manifest: manifest, Path: packPath}
	}

	log.Debug("discovered sound packs", "dir", m.packDir, "count", len(m.packs))
	return nil
}

// Get returns a pack by name.
func (m *Manager) Get(name string) (*Pack, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pack, ok := m.packs[name]
	if !ok {
		return nil, ErrPackNotFound
	}
	return pack, nil
}

// List returns all discovered packs sorted by name.
func (m *Manager) List() []*Pack {
	m.mu.RLock()
	defer m.mu.RUnlock()

	packs := make([]*Pack, 0, len(m.packs))
	for _, pack := range m.packs {
		packs = append(packs, pack)
	}
	sort.Slice(packs, func(i, j int) bool {
		return packs[i].Manifest.Name < packs[j].Manifest.Name
	})
	return packs
}

// PackDir returns the pack directory path.
func (m *Manager) PackDir() string {
	return m.packDir
}

// Lookup finds name in pack, returning the absolute file path.
func (p *Pack) Lookup(name string) (string, bool) {
	file, ok := p.Manifest.Sounds[name]
	if !ok || file == "" {
		return "", false
	}
	return filepath.Join(p.Path, file), true
}
