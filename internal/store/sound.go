package store

import (
	"database/sql"
	"errors"
	"time"
)

// ImportedSound is a user-supplied sound file registered under a name.
type ImportedSound struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

// SoundRepository provides CRUD operations for imported sounds.
type SoundRepository struct {
	db *sql.DB
}

// Sounds returns the imported sound repository for this store.
func (s *Store) Sounds() *SoundRepository {
	return &SoundRepository{db: s.db}
}

// Import registers a sound, replacing any previous sound of the same name.
func (r *SoundRepository) Import(snd *ImportedSound) error {
	snd.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO imported_sounds (name, path, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET path = excluded.path, created_at = excluded.created_at`,
		snd.Name, snd.Path, snd.CreatedAt,
	)
	return err
}

// Get retrieves an imported sound by name.
func (r *SoundRepository) Get(name string) (*ImportedSound, error) {
	snd := &ImportedSound{}
	err := r.db.QueryRow(
		`SELECT name, path, created_at FROM imported_sounds WHERE name = ?`,
		name,
	).Scan(&snd.Name, &snd.Path, &snd.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return snd, nil
}

// List retrieves all imported sounds ordered by name.
func (r *SoundRepository) List() ([]*ImportedSound, error) {
	rows, err := r.db.Query(`SELECT name, path, created_at FROM imported_sounds ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sounds []*ImportedSound
	for rows.Next() {
		snd := &ImportedSound{}
		if err := rows.Scan(&snd.Name, &snd.Path, &snd.CreatedAt); err != nil {
			return nil, err
		}
		sounds = append(sounds, snd)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sounds, nil
}

// Delete removes an imported sound by name.
func (r *SoundRepository) Delete(name string) error {
	result, err := r.db.Exec(`DELETE FROM imported_sounds WHERE name = ?`, name)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// Paths returns the path of every imported sound, keyed by name.
func (r *SoundRepository) Paths() (map[string]string, error) {
	rows, err := r.db.Query(`SELECT name, path FROM imported_sounds`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	paths := make(map[string]string)
	for rows.Next() {
		var name, path string
		if err := rows.Scan(&name, &path); err != nil {
			return nil, err
		}
		paths[name] = path
	}
	return paths, rows.Err()
}
