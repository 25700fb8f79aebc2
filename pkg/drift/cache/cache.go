// Package cache provides an optional on-disk digest cache for the drift
// scanner.
//
// Re-hashing an unchanged tree is the dominant cost of an audit. The
// cache remembers the digest of each (root, relative path) together with
// the file size and mtime observed when it was computed; when both still
// match, the stored digest is reused and the file is not read at all. Any
// mismatch is a miss and the file is hashed afresh, so the cache can make
// an audit faster but never change its outcome.
package cache

import (
	"bytes"
	"encoding/gob"
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// keySeparator separates root from relative path in cache keys.
const keySeparator = '\x00'

// ErrNotFound is returned when a cache entry does not exist.
var ErrNotFound = errors.New("cache entry not found")

// Entry is one cached digest with the validation metadata captured when
// it was computed.
type Entry struct {
	Size      int64
	MtimeNano int64
	Digest    string
}

// encode serializes the entry with gob.
func (e *Entry) encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decode deserializes bytes into the entry.
func (e *Entry) decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(e)
}

// makeKey builds the cache key for a root and relative path.
func makeKey(root, relPath string) []byte {
	return []byte(root + string(keySeparator) + relPath)
}

// Cache wraps a badger store of digest entries.
type Cache struct {
	db *badger.DB
}

// Open opens or creates a cache at the given directory.
func Open(path string) (*Cache, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Cache{db: db}, nil
}

// Close closes the underlying store.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get retrieves the raw entry for a root and relative path.
func (c *Cache) Get(root, relPath string) (*Entry, error) {
	key := makeKey(root, relPath)
	var entry Entry

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(entry.decode)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Lookup returns the cached digest for a file if its size and mtime both
// match what was recorded when the digest was computed.
func (c *Cache) Lookup(root, relPath string, size, mtimeNano int64) (string, bool) {
	entry, err := c.Get(root, relPath)
	if err != nil {
		return "", false
	}
	if entry.Size != size || entry.MtimeNano != mtimeNano || entry.Digest == "" {
		return "", false
	}
	return entry.Digest, true
}

// Store records a freshly computed digest with its validation metadata.
func (c *Cache) Store(root, relPath string, size, mtimeNano int64, dig string) error {
	value, err := (&Entry{Size: size, MtimeNano: mtimeNano, Digest: dig}).encode()
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(makeKey(root, relPath), value)
	})
}

// Purge removes every entry recorded for root.
func (c *Cache) Purge(root string) error {
	prefix := []byte(root + string(keySeparator))
	return c.db.DropPrefix(prefix)
}
