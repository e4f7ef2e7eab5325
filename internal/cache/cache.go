// Package cache stores resolved phone numbers so re-running the same
// workbook does not spend search quota on queries already answered.
package cache

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// Cache is a SQLite-backed query-to-phone lookup cache. A nil *Cache
// is valid and behaves as an always-miss cache.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache database at path and
// configures WAL mode.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "cache: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "cache: exec %s", pragma)
		}
	}

	c := &Cache{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS lookups (
	query       TEXT PRIMARY KEY,
	phone       TEXT NOT NULL,
	resolved_at DATETIME NOT NULL
);
`

func (c *Cache) migrate() error {
	_, err := c.db.Exec(migration)
	return eris.Wrap(err, "cache: migrate")
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}

// Get returns the cached phone for a query. ok is false on miss.
func (c *Cache) Get(ctx context.Context, query string) (string, bool, error) {
	if c == nil {
		return "", false, nil
	}

	var phone string
	err := c.db.QueryRowContext(ctx,
		`SELECT phone FROM lookups WHERE query = ?`, query,
	).Scan(&phone)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, eris.Wrap(err, "cache: get")
	}
	return phone, true, nil
}

// Put records a resolved phone for a query, replacing any prior entry.
func (c *Cache) Put(ctx context.Context, query, phone string) error {
	if c == nil {
		return nil
	}

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO lookups (query, phone, resolved_at) VALUES (?, ?, ?)
		 ON CONFLICT(query) DO UPDATE SET phone = excluded.phone, resolved_at = excluded.resolved_at`,
		query, phone, time.Now().UTC(),
	)
	return eris.Wrap(err, "cache: put")
}
