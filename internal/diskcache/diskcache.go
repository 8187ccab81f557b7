// Package diskcache is the best-effort, per-user on-disk cache at
// ~/.jelly/cache. It fronts registry downloads with a blob store keyed by
// "scope/name@version" and backed by bolt, grounded in the teacher's own bolt-backed
// source cache (gps/source_cache_bolt_test.go exercises exactly this kind
// of key/value cache for fetched package data).
//
// Per spec.md §5, the core must never rely on this cache's contents: any
// read failure here is treated as a cache miss, never a fatal error.
package diskcache

import (
	"os"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"
)

var blobsBucket = []byte("blobs")

// Cache is a best-effort key/value store of downloaded archive bytes,
// keyed by an opaque cache key (typically "scope/name@version").
type Cache struct {
	db *bolt.DB
}

// DefaultDir returns ~/.jelly/cache, creating no directories.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".jelly", "cache"), nil
}

// Open opens (creating if necessary) the bolt database under dir. A
// failure to open is non-fatal to callers that treat the cache as
// optional — Open returns the error so the caller can decide, but
// registry.Client proceeds without a disk cache when this fails.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(filepath.Join(dir, "jelly.db"), 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(blobsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Get returns the cached bytes for key, if present.
func (c *Cache) Get(key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	var out []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(blobsBucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil || out == nil {
		return nil, false
	}
	return out, true
}

// Put stores data under key, best-effort.
func (c *Cache) Put(key string, data []byte) error {
	if c == nil {
		return nil
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(blobsBucket)
		if b == nil {
			var err error
			b, err = tx.CreateBucketIfNotExists(blobsBucket)
			if err != nil {
				return err
			}
		}
		return b.Put([]byte(key), data)
	})
}

// Wipe removes the on-disk cache directory entirely; used by the
// `cache_clean` Engine operation. It does not close an open Cache: a
// caller holding one closes it first.
func Wipe(dir string) error {
	return os.RemoveAll(dir)
}
