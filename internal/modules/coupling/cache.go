// Package coupling assembles dipole-dipole coupling matrices for atom
// ensembles, with content-addressed caching and a persistent run log.
package coupling

import (
	"database/sql"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Cache stores computed coupling matrices keyed by request content.
// Values are msgpack blobs with an expiration timestamp; everything in
// here can be recomputed.
type Cache struct {
	db *sql.DB
}

// NewCache creates a new cache instance.
func NewCache(db *sql.DB) *Cache {
	return &Cache{db: db}
}

// Get retrieves a cached value and decodes it into dest.
// Returns sql.ErrNoRows if the key doesn't exist or is expired.
func (c *Cache) Get(key string, dest interface{}) error {
	var value []byte
	var expiresAt int64
	err := c.db.QueryRow(
		"SELECT value, expires_at FROM coupling_cache WHERE key = ?", key,
	).Scan(&value, &expiresAt)
	if err != nil {
		return err
	}

	if time.Now().Unix() >= expiresAt {
		return sql.ErrNoRows
	}

	return msgpack.Unmarshal(value, dest)
}

// Set stores a value with an expiration timestamp.
func (c *Cache) Set(key string, value interface{}, expiresAt int64) error {
	blob, err := msgpack.Marshal(value)
	if err != nil {
		return err
	}

	_, err = c.db.Exec(`
		INSERT INTO coupling_cache (key, value, created_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
	`, key, blob, time.Now().Unix(), expiresAt)
	return err
}

// Delete removes a cache entry.
func (c *Cache) Delete(key string) error {
	_, err := c.db.Exec("DELETE FROM coupling_cache WHERE key = ?", key)
	return err
}

// Cleanup removes expired entries and reports how many were deleted.
func (c *Cache) Cleanup() (int64, error) {
	result, err := c.db.Exec(
		"DELETE FROM coupling_cache WHERE expires_at <= ?", time.Now().Unix(),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
