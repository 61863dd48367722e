// Package buildcache persists per-file build state between incremental
// builds. Every (project, target) pair owns its own database file, so
// targets built concurrently never share one.
package buildcache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"tsmulti/internal/errors"
	"tsmulti/internal/vfs"
)

// FileState is the recorded result of compiling one source file.
type FileState struct {
	Source string
	Hash   string
	// Outputs are the logical output paths written for Source.
	Outputs []string
	// Helpers are the shared runtime helpers the file's output imports.
	Helpers []string
	// Checks are the existence checks the rewriter made while emitting
	// Source. Outputs are stale once one of them no longer holds.
	Checks  []vfs.Check
	BuiltAt time.Time
}

// Cache is an open build cache.
type Cache struct {
	conn   *sql.DB
	path   string
	logger *slog.Logger

	// readOnly caches come from OpenReadOnly.
	readOnly bool
}

// Open opens or creates the cache at path on the host file system. An
// empty path opens a transient in-memory cache.
func Open(path string, logger *slog.Logger) (*Cache, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
		dsn = path
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open build cache: %w", err)
	}
	// One connection keeps an in-memory database alive and serializes
	// writers within a target.
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	if path != "" {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	if err := execPragmas(conn, pragmas); err != nil {
		conn.Close()
		return nil, errors.New(errors.CacheCorrupt, fmt.Sprintf("cannot use build cache %s", path), err)
	}

	c := &Cache{conn: conn, path: path, logger: logger}
	if err := c.migrate(); err != nil {
		conn.Close()
		return nil, errors.New(errors.CacheCorrupt, fmt.Sprintf("cannot use build cache %s", path), err)
	}
	return c, nil
}

// OpenReadOnly opens an existing cache for queries only. It returns nil
// when there is no cache at path or its schema is not the current one.
func OpenReadOnly(path string, logger *slog.Logger) (*Cache, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat build cache: %w", err)
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open build cache: %w", err)
	}
	conn.SetMaxOpenConns(1)
	if err := execPragmas(conn, []string{"PRAGMA query_only=ON", "PRAGMA busy_timeout=5000"}); err != nil {
		conn.Close()
		return nil, errors.New(errors.CacheCorrupt, fmt.Sprintf("cannot use build cache %s", path), err)
	}

	c := &Cache{conn: conn, path: path, logger: logger, readOnly: true}
	version, err := c.storedVersion()
	if err != nil {
		conn.Close()
		return nil, errors.New(errors.CacheCorrupt, fmt.Sprintf("cannot use build cache %s", path), err)
	}
	if version != currentSchemaVersion {
		conn.Close()
		logger.Debug("Build cache schema differs, ignoring it", "path", path, "version", version)
		return nil, nil
	}
	return c, nil
}

func execPragmas(conn *sql.DB, pragmas []string) error {
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			return err
		}
	}
	return nil
}

// Path returns the database path, "" for in-memory caches.
func (c *Cache) Path() string {
	return c.path
}

// Close closes the database.
func (c *Cache) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// withTx runs fn in a transaction, rolling back when it fails.
func (c *Cache) withTx(fn func(*sql.Tx) error) error {
	tx, err := c.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			c.logger.Error("failed to rollback transaction",
				"error", err.Error(),
				"rollback_error", rbErr.Error(),
			)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Meta returns the value stored under key, or "" when unset.
func (c *Cache) Meta(key string) (string, error) {
	var value string
	err := c.conn.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read meta %s: %w", key, err)
	}
	return value, nil
}

// SetMeta stores value under key.
func (c *Cache) SetMeta(key, value string) error {
	_, err := c.conn.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write meta %s: %w", key, err)
	}
	return nil
}

// Matches reports whether the stored fingerprint is fingerprint.
func (c *Cache) Matches(fingerprint string) (bool, error) {
	stored, err := c.Meta("fingerprint")
	if err != nil {
		return false, err
	}
	return stored == fingerprint, nil
}

// Validate clears the file table when the stored fingerprint differs from
// fingerprint, and records the new one. It reports whether state was kept.
func (c *Cache) Validate(fingerprint string) (bool, error) {
	if c.readOnly {
		return false, errors.New(errors.InternalError, "build cache is read-only", nil)
	}
	stored, err := c.Meta("fingerprint")
	if err != nil {
		return false, err
	}
	if stored == fingerprint {
		return true, nil
	}
	if stored != "" {
		c.logger.Debug("Build options changed, discarding cached state", "path", c.path)
	}
	if err := c.Reset(); err != nil {
		return false, err
	}
	return false, c.SetMeta("fingerprint", fingerprint)
}

// File returns the state recorded for source, or nil.
func (c *Cache) File(source string) (*FileState, error) {
	row := c.conn.QueryRow(`
		SELECT source, hash, outputs, helpers, checks, built_at
		FROM files
		WHERE source = ?
	`, source)
	f, err := scanFile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file state: %w", err)
	}
	return f, nil
}

// Files returns every recorded file state ordered by source path.
func (c *Cache) Files() ([]FileState, error) {
	rows, err := c.conn.Query(`
		SELECT source, hash, outputs, helpers, checks, built_at
		FROM files
		ORDER BY source
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query file states: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Best effort cleanup

	var files []FileState
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file state: %w", err)
		}
		files = append(files, *f)
	}
	return files, rows.Err()
}

// Put records states, replacing earlier entries for the same sources.
func (c *Cache) Put(states ...FileState) error {
	return c.withTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO files (source, hash, outputs, helpers, checks, built_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(source) DO UPDATE SET
				hash = excluded.hash,
				outputs = excluded.outputs,
				helpers = excluded.helpers,
				checks = excluded.checks,
				built_at = excluded.built_at
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close() //nolint:errcheck // Best effort cleanup

		for _, f := range states {
			outputs, _ := json.Marshal(nonNil(f.Outputs))
			helpers, _ := json.Marshal(nonNil(f.Helpers))
			checks, _ := json.Marshal(f.Checks)
			if f.Checks == nil {
				checks = []byte("[]")
			}
			builtAt := f.BuiltAt
			if builtAt.IsZero() {
				builtAt = time.Now()
			}
			if _, err := stmt.Exec(f.Source, f.Hash, string(outputs), string(helpers), string(checks), builtAt.Unix()); err != nil {
				return fmt.Errorf("failed to record %s: %w", f.Source, err)
			}
		}
		return nil
	})
}

// Delete forgets sources.
func (c *Cache) Delete(sources ...string) error {
	return c.withTx(func(tx *sql.Tx) error {
		for _, s := range sources {
			if _, err := tx.Exec(`DELETE FROM files WHERE source = ?`, s); err != nil {
				return fmt.Errorf("failed to delete %s: %w", s, err)
			}
		}
		return nil
	})
}

// Reset forgets every file.
func (c *Cache) Reset() error {
	if _, err := c.conn.Exec(`DELETE FROM files`); err != nil {
		return fmt.Errorf("failed to reset build cache: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanFile(row scanner) (*FileState, error) {
	var f FileState
	var outputs, helpers, checks string
	var builtAt int64
	if err := row.Scan(&f.Source, &f.Hash, &outputs, &helpers, &checks, &builtAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(outputs), &f.Outputs); err != nil {
		return nil, errors.New(errors.CacheCorrupt, "invalid outputs for "+f.Source, err)
	}
	if err := json.Unmarshal([]byte(helpers), &f.Helpers); err != nil {
		return nil, errors.New(errors.CacheCorrupt, "invalid helpers for "+f.Source, err)
	}
	if err := json.Unmarshal([]byte(checks), &f.Checks); err != nil {
		return nil, errors.New(errors.CacheCorrupt, "invalid checks for "+f.Source, err)
	}
	if len(f.Checks) == 0 {
		f.Checks = nil
	}
	f.BuiltAt = time.Unix(builtAt, 0)
	return &f, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Hash returns the content hash recorded for a source file.
func Hash(data []byte) string {
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}

// Fingerprint hashes the JSON encoding of v. Options that change emitted
// code must be part of v.
func Fingerprint(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return Hash(data)
}
