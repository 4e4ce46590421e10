// Package pending implements the per-connection pending-changes buffer: a
// map from index name to an ordered list of pending operations, valid only
// for the span of one SQL transaction.
//
// The map is guarded by a sync.RWMutex: hooks (which SQLite invokes
// synchronously on the writer thread) append under the lock, while commit
// and rollback take it for their atomic swap/clear.
package pending

import (
	"sync"

	"github.com/rowdex/rowdex/internal/model"
)

// Buffer is a single connection's staging area for the current transaction.
// Zero value is ready to use.
type Buffer struct {
	mu  sync.RWMutex
	ops model.ChangeSet
}

// New returns an empty buffer.
func New() *Buffer {
	return &Buffer{ops: make(model.ChangeSet)}
}

// Append adds op to the ordered list for indexName, preserving emission
// order. Safe to call from SQLite's pre-update/update callbacks on the
// writer thread.
func (b *Buffer) Append(indexName string, op model.Op) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ops == nil {
		b.ops = make(model.ChangeSet)
	}
	b.ops[indexName] = append(b.ops[indexName], op)
}

// SwapOut atomically replaces the buffer's contents with an empty map and
// returns what was there, for the commit hook to hand to the dispatch
// channel.
func (b *Buffer) SwapOut() model.ChangeSet {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.ops
	b.ops = make(model.ChangeSet)
	return out
}

// Clear empties the buffer in place, for the rollback hook.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ops = make(model.ChangeSet)
}

// Len reports the number of indices with pending operations. Test-only
// convenience, not part of the hook-facing contract.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.ops)
}
