package rowdex

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rowdex/rowdex/internal/indexengine"
)

// milliVersion is the on-disk format version stamped into every instance
// root. Open against a root stamped with a different version fails with
// ErrNeedsRebuild rather than risk misinterpreting an incompatible bbolt
// layout.
const milliVersion = 1

// Instance owns a root directory of named indices, each backed by its own
// bbolt environment, behind a handle cache that belongs to this Instance.
// Two Instances over the same root do not share handles.
type Instance struct {
	cache *indexengine.Cache
	root  string
}

// Open returns an Instance rooted at rootDir, creating the directory and
// stamping its milli_version file on first use.
func Open(rootDir string) (*Instance, error) {
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, fmt.Errorf("rowdex: open %s: %w", rootDir, err)
	}
	if err := checkMilliVersion(rootDir); err != nil {
		return nil, err
	}
	cache, err := indexengine.NewCache(rootDir)
	if err != nil {
		return nil, err
	}
	return &Instance{cache: cache, root: rootDir}, nil
}

func checkMilliVersion(rootDir string) error {
	path := filepath.Join(rootDir, "milli_version")
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return os.WriteFile(path, []byte(strconv.Itoa(milliVersion)), 0o644)
	}
	if err != nil {
		return fmt.Errorf("rowdex: read %s: %w", path, err)
	}
	got, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || got != milliVersion {
		return ErrNeedsRebuild
	}
	return nil
}

// IndexHandle is one named index within an Instance.
type IndexHandle struct {
	idx *indexengine.Index
}

// GetIndex returns the handle for name, opening (and, on first use,
// creating) it.
func (i *Instance) GetIndex(name string) (*IndexHandle, error) {
	idx, err := i.cache.Open(name)
	if err != nil {
		return nil, err
	}
	return &IndexHandle{idx: idx}, nil
}

// LookupIndex returns the handle for name only if it already exists (in
// this process's cache or as a directory left by a previous run), without
// creating anything. Returns ErrIndexNotFound if name has never been
// opened.
func (i *Instance) LookupIndex(name string) (*IndexHandle, error) {
	idx, err := i.cache.Lookup(name)
	if err != nil {
		return nil, err
	}
	return &IndexHandle{idx: idx}, nil
}

// Name returns the index's name.
func (h *IndexHandle) Name() string { return h.idx.Name() }

// BeginRead opens a read-only transactional snapshot.
func (h *IndexHandle) BeginRead() (*ReadTxn, error) { return h.idx.BeginRead() }

// BeginWrite opens a read-write transaction.
func (h *IndexHandle) BeginWrite() (*WriteTxn, error) { return h.idx.BeginWrite() }
