// Package registry implements the table-settings registry: a map from
// (database, table) to the list of index bindings that table feeds.
// Populated during setup via Bind, then read-only from hook code.
package registry

import (
	"fmt"
	"sync"

	"github.com/rowdex/rowdex/internal/model"
)

type key struct {
	database string
	table    string
}

// Registry maps (database, table) → bindings. Safe for concurrent lookup;
// Bind is expected to run only during setup, before any connection is
// attached, but is itself safe to call concurrently.
type Registry struct {
	mu       sync.RWMutex
	bindings map[key][]model.TableIndexBinding
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{bindings: make(map[key][]model.TableIndexBinding)}
}

// Bind appends bindings for (database, table), validating each one. An
// invalid binding is a programming error, surfaced at setup time.
func (r *Registry) Bind(database, table string, bindings []model.TableIndexBinding) error {
	for i, b := range bindings {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("rowdex: binding %d for %s.%s: %w", i, database, table, err)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key{database, table}
	r.bindings[k] = append(r.bindings[k], bindings...)
	return nil
}

// Lookup returns the bindings registered for (database, table). An
// unregistered table returns (nil, false) — hooks treat this as a silent
// no-op.
func (r *Registry) Lookup(database, table string) ([]model.TableIndexBinding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[key{database, table}]
	return b, ok
}
