// Package soundpack discovers bundled sound packs and resolves sound names
// to playable files.
package soundpack

// ManifestFile is the manifest each pack directory must contain.
const ManifestFile = "pack.json"

// Manifest describes a sound pack.
type Manifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	// Sounds maps a sound name to a file relative to the pack directory.
	Sounds map[string]string `json:"sounds"`
	// Background is an optional looping sound file name.
	Background string `json:"background,omitempty"`
}

// Pack is a discovered pack with its location on disk.
type Pack struct {
	Manifest Manifest `json:"manifest"`
	Path     string   `json:"path"`
}

// SourceImported is the Source of sounds imported through the store.
const SourceImported = "imported"

// Sound is a resolvable sound.
type Sound struct {
	Name   string `json:"name"`
	Source string `json:"source"` // pack name, or SourceImported
	Path   string `json:"path"`
}
