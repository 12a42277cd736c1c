// Package store persists finished summaries and the comment log.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/dgallion1/docusum/internal/doctree"
)

var resultsBucket = []byte("results")

// Cache maps upload content hashes to finished results so a re-uploaded
// thesis is not summarized twice.
type Cache struct {
	db *bolt.DB
}

// OpenCache opens or creates the cache file at path.
func OpenCache(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(resultsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache bucket: %w", err)
	}
	return &Cache{db: db}, nil
}

// Get returns the cached result for hash, or nil if there is none.
func (c *Cache) Get(hash string) (*doctree.Result, error) {
	var res *doctree.Result
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(resultsBucket).Get([]byte(hash))
		if v == nil {
			return nil
		}
		res = &doctree.Result{}
		return json.Unmarshal(v, res)
	})
	if err != nil {
		return nil, fmt.Errorf("read cached result %s: %w", hash, err)
	}
	return res, nil
}

// Put stores res under hash, replacing any previous entry.
func (c *Cache) Put(hash string, res *doctree.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(resultsBucket).Put([]byte(hash), data)
	})
}

func (c *Cache) Close() error {
	return c.db.Close()
}
