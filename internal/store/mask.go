package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/zonebeat/internal/zone"
)

// Mask is a saved zone layout.
type Mask struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Background string    `json:"background"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// MaskRepository provides CRUD operations for masks and their zones.
type MaskRepository struct {
	db *sql.DB
}

// Masks returns the mask repository for this store.
func (s *Store) Masks() *MaskRepository {
	return &MaskRepository{db: s.db}
}

// Create inserts a new mask into the database.
func (r *MaskRepository) Create(m *Mask) error {
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO masks (id, name, background, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Background, m.CreatedAt, m.UpdatedAt,
	)
	return err
}

const maskColumns = `id, name, background, created_at, updated_at`

func scanMask(row interface{ Scan(...any) error }) (*Mask, error) {
	m := &Mask{}
	err := row.Scan(&m.ID, &m.Name, &m.Background, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

// GetByID retrieves a mask by its ID.
func (r *MaskRepository) GetByID(id string) (*Mask, error) {
	return scanMask(r.db.QueryRow(`SELECT `+maskColumns+` FROM masks WHERE id = ?`, id))
}

// GetByName retrieves a mask by its name.
func (r *MaskRepository) GetByName(name string) (*Mask, error) {
	return scanMask(r.db.QueryRow(`SELECT `+maskColumns+` FROM masks WHERE name = ?`, name))
}

// List retrieves all masks, newest first.
func (r *MaskRepository) List() ([]*Mask, error) {
	rows, err := r.db.Query(`SELECT ` + maskColumns + ` FROM masks ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var masks []*Mask
	for rows.Next() {
		m, err := scanMask(rows)
		if err != nil {
			return nil, err
		}
		masks = append(masks, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return masks, nil
}

// Update updates an existing mask's name and background.
func (r *MaskRepository) Update(m *Mask) error {
	m.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE masks SET name = ?, background = ?, updated_at = ? WHERE id = ?`,
		m.Name, m.Background, m.UpdatedAt, m.ID,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// Delete removes a mask and its zones.
func (r *MaskRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM masks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// SaveZones replaces the zones of a mask in one transaction. Entry order is
// kept, so overlap precedence survives a round trip.
func (r *MaskRepository) SaveZones(maskID string, entries []zone.Entry) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`UPDATE masks SET updated_at = ? WHERE id = ?`, time.Now(), maskID)
	if err != nil {
		return err
	}
	if err := checkAffected(result); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM mask_zones WHERE mask_id = ?`, maskID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO mask_zones (mask_id, position, min_x, max_x, min_y, max_y, sound_name, color)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, e := range entries {
		z := e.Zone.Normalized()
		if _, err := stmt.Exec(maskID, i, z.MinX, z.MaxX, z.MinY, z.MaxY, e.Value.SoundName, e.Value.Color.Hex()); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadZones retrieves the zones of a mask in saved order.
func (r *MaskRepository) LoadZones(maskID string) ([]zone.Entry, error) {
	if _, err := r.GetByID(maskID); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(
		`SELECT min_x, max_x, min_y, max_y, sound_name, color
		 FROM mask_zones
		 WHERE mask_id = ?
		 ORDER BY position`,
		maskID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []zone.Entry
	for rows.Next() {
		var e zone.Entry
		var color string
		if err := rows.Scan(&e.Zone.MinX, &e.Zone.MaxX, &e.Zone.MinY, &e.Zone.MaxY, &e.Value.SoundName, &color); err != nil {
			return nil, err
		}
		if e.Value.Color, err = zone.ParseColor(color); err != nil {
			return nil, fmt.Errorf("zone color: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
