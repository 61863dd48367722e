package buildcache

import (
	"database/sql"
	"fmt"
)

const currentSchemaVersion = 2

func (c *Cache) migrate() error {
	version, err := c.schemaVersion()
	if err != nil {
		return err
	}
	if version == currentSchemaVersion {
		return nil
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("cache schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	return c.withTx(func(tx *sql.Tx) error {
		if version < 1 {
			if err := createTables(tx); err != nil {
				return err
			}
		}
		if version < 2 {
			if _, err := tx.Exec(`ALTER TABLE files ADD COLUMN checks TEXT NOT NULL DEFAULT '[]'`); err != nil {
				return fmt.Errorf("failed to add checks column: %w", err)
			}
		}
		if _, err := tx.Exec(`DELETE FROM schema_version`); err != nil {
			return fmt.Errorf("failed to clear schema version: %w", err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, currentSchemaVersion); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
		c.logger.Debug("Build cache schema initialized", "version", currentSchemaVersion, "path", c.path)
		return nil
	})
}

func (c *Cache) schemaVersion() (int, error) {
	if _, err := c.conn.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return 0, fmt.Errorf("failed to create schema_version table: %w", err)
	}
	return c.storedVersion()
}

// storedVersion reads the schema version without creating anything. A
// database without a version table reports 0.
func (c *Cache) storedVersion() (int, error) {
	var tables int
	if err := c.conn.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_version'`).Scan(&tables); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if tables == 0 {
		return 0, nil
	}
	var version int
	err := c.conn.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

func createTables(tx *sql.Tx) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS files (
			source TEXT PRIMARY KEY,
			hash TEXT NOT NULL,
			outputs TEXT NOT NULL,
			helpers TEXT NOT NULL,
			built_at INTEGER NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}
	return nil
}
