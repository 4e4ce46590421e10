// Package dispatch implements the unbounded multi-producer single-consumer
// dispatch channel: every hooked connection is a producer, the single
// updater worker is the consumer, and Send never blocks — it runs inside
// SQLite's commit hook on the writer thread, where blocking would stall
// every writer. A plain Go channel cannot be unbounded, so Channel buffers
// sends in a growable slice behind a mutex with a condition variable for
// the consumer. Nothing is dropped while the channel is open: a lost
// change-set would mean a lost delete. Once Close has been called, Send
// discards its change-set.
package dispatch

import (
	"sync"

	"github.com/rowdex/rowdex/internal/model"
)

// Channel is an unbounded multi-producer single-consumer queue of
// model.ChangeSet values.
type Channel struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []model.ChangeSet
	closed bool
}

// New returns a ready-to-use channel.
func New() *Channel {
	c := &Channel{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Send enqueues cs without blocking. Safe for concurrent use by many
// producers.
func (c *Channel) Send(cs model.ChangeSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.queue = append(c.queue, cs)
	c.cond.Signal()
}

// Recv blocks until a change-set is available and returns it, or returns
// (nil, false) once the channel has been closed and drained.
func (c *Channel) Recv() (model.ChangeSet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.queue) == 0 && !c.closed {
		c.cond.Wait()
	}
	if len(c.queue) == 0 {
		return nil, false
	}
	cs := c.queue[0]
	c.queue = c.queue[1:]
	return cs, true
}

// TryRecv returns the next change-set without blocking. ok is false if the
// queue is currently empty (used by the worker's coalesce-window poll).
func (c *Channel) TryRecv() (cs model.ChangeSet, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return nil, false
	}
	cs = c.queue[0]
	c.queue = c.queue[1:]
	return cs, true
}

// Close marks the channel closed; pending items already queued remain
// drainable via Recv/TryRecv, but Recv unblocks with ok=false once the
// queue empties and no more Sends are accepted. Used during
// ConnectionHandler.Close's graceful shutdown drain.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.cond.Broadcast()
}

// Len reports the number of queued change-sets. Test/diagnostic only.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}
