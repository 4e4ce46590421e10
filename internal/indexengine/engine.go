// Package indexengine is a thin, uniform API over an on-disk,
// memory-mapped, transactional inverted-index store, plus the minimal
// tokenization and search machinery itself.
//
// The backing store is go.etcd.io/bbolt: one environment per named index,
// with explicit read and write transactions and an initial mmap
// reservation chosen by an exponential back-off probe, since some
// platforms refuse large reservations despite 64-bit address space.
package indexengine

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/rowdex/rowdex/internal/model"
)

const (
	mib16 = 16 << 20

	// DefaultMapSizeCap is the largest initial mmap reservation the probe
	// will attempt, rounded down to a multiple of 16 MiB before use.
	DefaultMapSizeCap int64 = 2_000_000_000

	maxProbeAttempts = 8
	probeBackoff     = 0.85
)

var (
	bucketDocuments = []byte("documents")
	bucketSettings  = []byte("settings")
	bucketTerms     = []byte("terms")
	bucketFilters   = []byte("filters")
	// bucketDocTerms holds the reverse index (pk → {Terms, Filters} JSON) a
	// document contributed at index time, so unindexOne can remove exactly
	// those postings without rescanning the document or any bucket. One
	// bucket, not one per forward-postings bucket it mirrors — the
	// composite record already carries both.
	bucketDocTerms = []byte("doc_terms")

	settingsKey = []byte("settings")
)

// Index is a single named index: an on-disk directory under a Cache's root
// holding one bbolt environment.
type Index struct {
	name string
	dir  string
	db   *bbolt.DB

	// settingsMu serializes SetSettings against concurrent cache refreshes;
	// bbolt already serializes writers, this only protects the in-memory
	// settings copy used by the search path.
	settingsMu  sync.RWMutex
	settings    model.IndexSettings
	hasSettings bool
}

// Name returns the index's name.
func (idx *Index) Name() string { return idx.name }

// Close releases the backing environment. Indices stay in their Cache and
// are never evicted at steady state; tests use this to release file locks
// between cases.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// Cache is an index-handle cache: a guarded mapping keyed by absolute
// directory path, never evicted, with exactly one entry per path. The map
// belongs to the Cache value, not to the process: each NewCache (and so
// each Instance) starts with its own empty map, and two Caches over the
// same root do not share handles. Opening an index that another Cache
// already holds open fails, because bbolt's file lock is taken.
type Cache struct {
	root string

	mu      sync.RWMutex
	indices map[string]*Index

	mapSizeCap int64
}

// NewCache returns a cache rooted at root (created if absent) with the
// default mmap cap.
func NewCache(root string) (*Cache, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("rowdex: indexengine: create root %s: %w", root, err)
	}
	return &Cache{root: root, indices: make(map[string]*Index), mapSizeCap: DefaultMapSizeCap}, nil
}

// WithMapSizeCap overrides the mmap cap used by the back-off probe.
// Intended for tests, which cannot afford a multi-gigabyte probe;
// production callers should leave the default in place.
func (c *Cache) WithMapSizeCap(cap int64) *Cache {
	c.mapSizeCap = cap
	return c
}

// Open returns the cached handle for name, opening (and, on first use,
// creating) it if necessary.
func (c *Cache) Open(name string) (*Index, error) {
	dir := filepath.Join(c.root, name)
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("rowdex: indexengine: resolve path for %s: %w", name, err)
	}

	c.mu.RLock()
	if idx, ok := c.indices[absDir]; ok {
		c.mu.RUnlock()
		return idx, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	// Re-check: another writer may have opened it while we waited for the
	// write lock.
	if idx, ok := c.indices[absDir]; ok {
		return idx, nil
	}

	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return nil, fmt.Errorf("rowdex: indexengine: create index dir %s: %w", absDir, err)
	}

	dbPath := filepath.Join(absDir, "index.bolt")
	mapSize, err := probeMapSize(dbPath, c.mapSizeCap)
	if err != nil {
		return nil, err
	}

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{
		Timeout:         time.Second,
		InitialMmapSize: int(mapSize),
	})
	if err != nil {
		return nil, fmt.Errorf("rowdex: indexengine: open %s: %w", dbPath, err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketDocuments, bucketSettings, bucketTerms, bucketFilters, bucketDocTerms} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("rowdex: indexengine: init buckets for %s: %w", name, err)
	}

	idx := &Index{name: name, dir: absDir, db: db}
	c.indices[absDir] = idx
	return idx, nil
}

// Lookup returns the handle for name if it already exists, without
// creating it. It checks the process-wide cache first, then falls back to
// opening the on-disk directory if one was left by a previous process; it
// never creates a directory (it only calls Open once the directory is
// known to exist). Returns model.ErrIndexNotFound if name has never
// been opened, in this process or a prior one.
func (c *Cache) Lookup(name string) (*Index, error) {
	dir := filepath.Join(c.root, name)
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("rowdex: indexengine: resolve path for %s: %w", name, err)
	}

	c.mu.RLock()
	if idx, ok := c.indices[absDir]; ok {
		c.mu.RUnlock()
		return idx, nil
	}
	c.mu.RUnlock()

	if _, err := os.Stat(absDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("rowdex: indexengine: %s: %w", name, model.ErrIndexNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("rowdex: indexengine: stat %s: %w", absDir, err)
	}

	return c.Open(name)
}

// probeMapSize opens a throwaway environment at decreasing candidate sizes
// (shrinking by probeBackoff each attempt) until one succeeds, then closes
// it and reports the winning size for the caller to reopen the live
// environment with.
func probeMapSize(path string, cap int64) (int64, error) {
	candidate := roundDownTo16MiB(cap)
	if candidate <= 0 {
		candidate = mib16
	}

	var lastErr error
	attempts := 0
	for attempt := 0; attempt < maxProbeAttempts; attempt++ {
		attempts++
		db, err := bbolt.Open(path, 0o600, &bbolt.Options{
			Timeout:         time.Second,
			InitialMmapSize: int(candidate),
		})
		if err == nil {
			_ = db.Close()
			return candidate, nil
		}
		lastErr = err
		candidate = roundDownTo16MiB(int64(float64(candidate) * probeBackoff))
		if candidate <= 0 {
			break
		}
	}
	return 0, fmt.Errorf("%w: after %d attempts: %v", model.ErrMapSizeExhausted, attempts, lastErr)
}

func roundDownTo16MiB(n int64) int64 {
	return n - (n % mib16)
}
