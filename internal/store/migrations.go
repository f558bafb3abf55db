package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Masks table - stores named zone layouts
		`CREATE TABLE IF NOT EXISTS masks (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			background TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Mask zones table - stores the zones of a mask in insertion order
		`CREATE TABLE IF NOT EXISTS mask_zones (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			mask_id TEXT NOT NULL REFERENCES masks(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			min_x INTEGER NOT NULL,
			max_x INTEGER NOT NULL,
			min_y INTEGER NOT NULL,
			max_y INTEGER NOT NULL,
			sound_name TEXT NOT NULL DEFAULT '',
			color TEXT NOT NULL DEFAULT '#ffffffff'
		)`,

		// Imported sounds table - stores user-imported sound files by name
		`CREATE TABLE IF NOT EXISTS imported_sounds (
			name TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_mask_zones_mask_id ON mask_zones(mask_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
