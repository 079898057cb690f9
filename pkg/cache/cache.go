// Package cache memoizes registry fetches in a local SQLite database, per
// spec §5.2. This is fetch memoization only — never incremental build
// caching, which spec.md's Non-goals forbid; every build still recompiles
// from a clean state.
package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nitrolang/nitro/pkg/types"
)

type entry struct {
	npkBytes   []byte
	fetchedAt  time.Time
	accessedAt time.Time
}

// Cache is a local memo of {name, version} -> packed .npk bytes, backed by
// SQLite the way the teacher's pkg/runtime.Runtime backs its instance cache.
type Cache struct {
	db      *sql.DB
	dbPath  string
	mem     map[string]*entry
	memMu   sync.RWMutex
}

// Config controls where the cache database lives.
type Config struct {
	DBPath string // defaults to ~/.nitro/registry-cache.db
}

// Open opens (creating if absent) the cache database named by cfg.
func Open(cfg *Config) (*Cache, error) {
	c := &Cache{mem: make(map[string]*entry)}

	if cfg != nil && cfg.DBPath != "" {
		c.dbPath = cfg.DBPath
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cache: resolving home dir: %w", err)
		}
		dir := filepath.Join(home, ".nitro")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("cache: creating %s: %w", dir, err)
		}
		c.dbPath = filepath.Join(dir, "registry-cache.db")
	}

	db, err := sql.Open("sqlite3", c.dbPath)
	if err != nil {
		return nil, fmt.Errorf("cache: opening %s: %w", c.dbPath, err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: setting busy timeout: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS fetches (
		name TEXT NOT NULL,
		major INTEGER NOT NULL,
		minor INTEGER NOT NULL,
		patch INTEGER NOT NULL,
		npk_bytes BLOB NOT NULL,
		fetched_at INTEGER NOT NULL,
		PRIMARY KEY (name, major, minor, patch)
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: creating schema: %w", err)
	}
	c.db = db
	return c, nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func key(name types.PackageName, ver types.PackageVersion) string {
	return fmt.Sprintf("%s@%d.%d.%d", name, ver.Major, ver.Minor, ver.Patch)
}

// Get returns the cached .npk bytes for name@ver, and whether they were
// found. Checks the in-memory map before the database.
func (c *Cache) Get(name types.PackageName, ver types.PackageVersion) ([]byte, bool) {
	k := key(name, ver)

	c.memMu.RLock()
	if e, ok := c.mem[k]; ok {
		e.accessedAt = time.Now()
		c.memMu.RUnlock()
		return e.npkBytes, true
	}
	c.memMu.RUnlock()

	var npkBytes []byte
	var fetchedAtUnix int64
	err := c.db.QueryRow(
		"SELECT npk_bytes, fetched_at FROM fetches WHERE name = ? AND major = ? AND minor = ? AND patch = ?",
		string(name), ver.Major, ver.Minor, ver.Patch,
	).Scan(&npkBytes, &fetchedAtUnix)
	if err != nil {
		return nil, false
	}

	c.memMu.Lock()
	c.mem[k] = &entry{npkBytes: npkBytes, fetchedAt: time.Unix(fetchedAtUnix, 0), accessedAt: time.Now()}
	c.memMu.Unlock()
	return npkBytes, true
}

// Put records npkBytes as the result of fetching name@ver.
func (c *Cache) Put(name types.PackageName, ver types.PackageVersion, npkBytes []byte) error {
	now := time.Now()
	_, err := c.db.Exec(
		`INSERT INTO fetches (name, major, minor, patch, npk_bytes, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name, major, minor, patch) DO UPDATE SET npk_bytes = excluded.npk_bytes, fetched_at = excluded.fetched_at`,
		string(name), ver.Major, ver.Minor, ver.Patch, npkBytes, now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("cache: storing %s@%s: %w", name, ver, err)
	}

	c.memMu.Lock()
	c.mem[key(name, ver)] = &entry{npkBytes: npkBytes, fetchedAt: now, accessedAt: now}
	c.memMu.Unlock()
	return nil
}
