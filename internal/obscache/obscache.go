// Package obscache persists eBird API responses on disk so repeated runs
// within the TTL do not spend request quota.
package obscache

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tphakala/ebird-recommend/internal/errors"
	"github.com/tphakala/ebird-recommend/internal/logger"
)

const keyPrefix = "obs/"

// Config selects where the cache lives.
type Config struct {
	Dir      string // database directory, created when missing
	InMemory bool   // keep everything in memory; Dir is ignored
}

// Cache is a TTL key-value store of JSON encoded values.
type Cache struct {
	db  *badger.DB
	log logger.Logger
}

// Open opens or creates the cache.
func Open(cfg Config) (*Cache, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Dir == "" {
			return nil, errors.Newf("cache directory is required").
				Component("obscache").
				Category(errors.CategoryConfiguration).
				Build()
		}
		if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
			return nil, errors.New(err).
				Component("obscache").
				Category(errors.CategoryFileIO).
				FileContext(cfg.Dir).
				Build()
		}
		opts = badger.DefaultOptions(cfg.Dir)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Newf("open cache database: %w", err).
			Component("obscache").
			Category(errors.CategoryCache).
			Context("dir", cfg.Dir).
			Context("in_memory", cfg.InMemory).
			Build()
	}

	c := &Cache{db: db, log: logger.Global().Module("obscache")}
	lsm, vlog := db.Size()
	c.log.Debug("observation cache opened",
		logger.String("dir", cfg.Dir),
		logger.Bool("in_memory", cfg.InMemory),
		logger.Int64("lsm_bytes", lsm),
		logger.Int64("vlog_bytes", vlog))
	return c, nil
}

// hashKey maps an arbitrary request key to a fixed-size storage key.
func hashKey(key string) []byte {
	sum := sha256.Sum256([]byte(key))
	return []byte(keyPrefix + hex.EncodeToString(sum[:]))
}

// Get decodes the value stored under key into dest. It reports false when the
// key is absent or expired. A value that cannot be decoded is deleted and
// treated as a miss.
func (c *Cache) Get(key string, dest any) (bool, error) {
	storageKey := hashKey(key)
	var raw []byte

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(storageKey)
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Newf("read cache entry: %w", err).
			Component("obscache").
			Category(errors.CategoryCache).
			Build()
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		c.log.Warn("discarding corrupt cache entry", logger.Error(err))
		_ = c.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(storageKey)
		})
		return false, nil
	}
	return true, nil
}

// Set stores value under key. A non-positive ttl keeps the entry until Clear.
func (c *Cache) Set(key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Newf("encode cache entry: %w", err).
			Component("obscache").
			Category(errors.CategoryValidation).
			Build()
	}

	entry := badger.NewEntry(hashKey(key), raw)
	if ttl > 0 {
		entry = entry.WithTTL(ttl)
	}

	if err := c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(entry)
	}); err != nil {
		return errors.Newf("write cache entry: %w", err).
			Component("obscache").
			Category(errors.CategoryCache).
			Build()
	}
	return nil
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	n := 0
	_ = c.db.View(func(txn *badger.Txn) error {
		n = countKeys(txn)
		return nil
	})
	return n
}

// Clear removes every entry and returns how many were live.
func (c *Cache) Clear() (int, error) {
	n := c.Len()
	if err := c.db.DropPrefix([]byte(keyPrefix)); err != nil {
		return 0, errors.Newf("clear cache: %w", err).
			Component("obscache").
			Category(errors.CategoryCache).
			Build()
	}
	c.log.Info("observation cache cleared", logger.Int("removed", n))
	return n, nil
}

// Close flushes and closes the database.
func (c *Cache) Close() error {
	if err := c.db.Close(); err != nil {
		return errors.Newf("close cache database: %w", err).
			Component("obscache").
			Category(errors.CategoryCache).
			Build()
	}
	return nil
}

func countKeys(txn *badger.Txn) int {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(keyPrefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	n := 0
	for it.Rewind(); it.Valid(); it.Next() {
		n++
	}
	return n
}
