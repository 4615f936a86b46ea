package db

import "fmt"

// migrations are applied in order, each in its own transaction. Never edit
// an entry once released; append a new one.
var migrations = [][]string{
	{
		`CREATE TABLE workshop_items (
			game_key TEXT NOT NULL,
			mod_id TEXT NOT NULL,
			title TEXT NOT NULL,
			creator TEXT,
			file_size INTEGER DEFAULT 0,
			file_url TEXT,
			preview_url TEXT,
			description TEXT,
			time_created INTEGER DEFAULT 0,
			time_updated INTEGER DEFAULT 0,
			fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY(game_key, mod_id)
		)`,
		`CREATE TABLE metadata_sync (
			game_key TEXT PRIMARY KEY,
			last_update INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE api_keys (
			source_id TEXT PRIMARY KEY,
			api_key TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	},
	// Popularity counters shown in the mod list
	{
		`ALTER TABLE workshop_items ADD COLUMN subscriptions INTEGER DEFAULT 0`,
		`ALTER TABLE workshop_items ADD COLUMN votes INTEGER DEFAULT 0`,
	},
}

func (d *DB) migrate() error {
	if _, err := d.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	version, err := d.SchemaVersion()
	if err != nil {
		return err
	}
	if version > len(migrations) {
		return fmt.Errorf("cache schema %d is newer than this build (%d)", version, len(migrations))
	}

	for i := version; i < len(migrations); i++ {
		if err := d.applyMigration(i+1, migrations[i]); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}

func (d *DB) applyMigration(version int, statements []string) (err error) {
	tx, err := d.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, stmt := range statements {
		if _, err = tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", firstLine(stmt), err)
		}
	}
	if _, err = tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return fmt.Errorf("recording version: %w", err)
	}
	return tx.Commit()
}

func firstLine(stmt string) string {
	for i, r := range stmt {
		if r == '\n' {
			return stmt[:i]
		}
	}
	return stmt
}
