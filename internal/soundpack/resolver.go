package soundpack

import (
	"sort"
	"sync"

	"github.com/ayusman/zonebeat/internal/log"
)

// ImportSource is the set of sounds a user imported.
type ImportSource interface {
	// Paths returns every imported sound's file path, keyed by name.
	Paths() (map[string]string, error)
}

// Resolver maps sound names to files. Imported sounds win over packs, and
// the preferred pack is searched before the others.
//
// Imported paths and the pack search order are cached; call Refresh after
// importing or deleting a sound, or after rediscovering packs.
type Resolver struct {
	manager *Manager
	imports ImportSource

	mu        sync.RWMutex
	preferred string
	imported  map[string]string
	packs     []*Pack
	loaded    bool
}

// NewResolver creates a resolver. imports may be nil.
func NewResolver(manager *Manager, imports ImportSource) *Resolver {
	return &Resolver{manager: manager, imports: imports}
}

// SetPreferred makes pack the first pack searched.
func (r *Resolver) SetPreferred(pack string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.preferred == pack {
		return
	}
	r.preferred = pack
	r.packs = nil
	r.loaded = false
}

// Preferred returns the preferred pack name.
func (r *Resolver) Preferred() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.preferred
}

// Refresh drops the cached imports and pack order. They are reloaded on the
// next Resolve.
func (r *Resolver) Refresh() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.imported = nil
	r.packs = nil
	r.loaded = false
}

// Resolve implements sound.Resolver.
func (r *Resolver) Resolve(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	imported, packs := r.snapshot()
	if path, ok := imported[name]; ok {
		return path, true
	}
	for _, pack := range packs {
		if path, ok := pack.Lookup(name); ok {
			return path, true
		}
	}
	return "", false
}

func (r *Resolver) snapshot() (map[string]string, []*Pack) {
	r.mu.RLock()
	if r.loaded {
		defer r.mu.RUnlock()
		return r.imported, r.packs
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return r.imported, r.packs
	}
	r.packs = r.order(r.preferred)
	r.loaded = true
	if r.imports != nil {
		imported, err := r.imports.Paths()
		if err != nil {
			// Retried on the next call; packs still resolve meanwhile.
			log.Debug("loading imported sounds failed", "error", err)
			r.loaded = false
		}
		r.imported = imported
	}
	return r.imported, r.packs
}

func (r *Resolver) order(pref string) []*Pack {
	packs := r.manager.List()
	if pref == "" {
		return packs
	}
	sort.SliceStable(packs, func(i, j int) bool {
		return packs[i].Manifest.Name == pref && packs[j].Manifest.Name != pref
	})
	return packs
}

// Sounds lists every resolvable sound name once, with the source that
// Resolve would use, sorted by name. It reads the import source directly.
func (r *Resolver) Sounds() ([]Sound, error) {
	seen := make(map[string]Sound)
	if r.imports != nil {
		imported, err := r.imports.Paths()
		if err != nil {
			return nil, err
		}
		for name, path := range imported {
			seen[name] = Sound{Name: name, Source: SourceImported, Path: path}
		}
	}
	for _, pack := range r.order(r.Preferred()) {
		for name := range pack.Manifest.Sounds {
			if _, ok := seen[name]; ok {
				continue
			}
			if path, ok := pack.Lookup(name); ok {
				seen[name] = Sound{Name: name, Source: pack.Manifest.Name, Path: path}
			}
		}
	}

	sounds := make([]Sound, 0, len(seen))
	for _, s := range seen {
		sounds = append(sounds, s)
	}
	sort.Slice(sounds, func(i, j int) bool { return sounds[i].Name < sounds[j].Name })
	return sounds, nil
}
