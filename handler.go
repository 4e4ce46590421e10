package rowdex

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/mattn/go-sqlite3"

	"github.com/rowdex/rowdex/internal/dispatch"
	"github.com/rowdex/rowdex/internal/hooks"
	"github.com/rowdex/rowdex/internal/logging"
	"github.com/rowdex/rowdex/internal/registry"
	"github.com/rowdex/rowdex/internal/worker"
)

var driverSeq int64

// ConnectionHandler binds table→index mappings to one SQLite database and
// drives its change-capture pipeline: it owns the table-settings registry,
// the dispatch channel, the connection hooks, and the coalescing worker.
// The pending buffer is not owned here — hooks.Attacher
// creates one per physical connection, since database/sql may hand out
// several concurrent writer connections over the one pool this handler
// opens.
type ConnectionHandler struct {
	instance *Instance
	reg      *registry.Registry
	ch       *dispatch.Channel
	attacher *hooks.Attacher
	wkr      *worker.Worker

	mu       sync.Mutex
	writerDB *sql.DB
	started  bool
}

// New returns a handler for instance. workerDB is a connection pool used
// only to resolve deferred upserts — distinct from the writer pool Attach
// opens, so a worker re-query never contends with a writer connection's
// commit path.
func New(workerDB *sql.DB, instance *Instance) *ConnectionHandler {
	reg := registry.New()
	ch := dispatch.New()
	return &ConnectionHandler{
		instance: instance,
		reg:      reg,
		ch:       ch,
		attacher: hooks.New(reg, ch),
		wkr:      worker.New(ch, instance.cache, workerDB, logging.New("rowdex-worker")),
	}
}

// Bind registers bindings for database.table, so that writes observed
// through a connection this handler has Attach-ed are routed to the named
// indices.
func (h *ConnectionHandler) Bind(database, table string, bindings []TableIndexBinding) error {
	return h.reg.Bind(database, table, bindings)
}

// Attach opens the writer connection pool for dataSourceName, registering
// the four SQLite hooks on every physical connection database/sql opens
// against it — hooks.Attacher's ConnectHook runs once per connection and
// gives each its own pending buffer, so concurrent writer connections
// stage independently. Starts the coalescing worker on first use. Repeat
// calls return the same *sql.DB.
func (h *ConnectionHandler) Attach(dataSourceName string) (*sql.DB, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.writerDB != nil {
		return h.writerDB, nil
	}

	driverName := fmt.Sprintf("rowdex-sqlite3-%d", atomic.AddInt64(&driverSeq, 1))
	sql.Register(driverName, &sqlite3.SQLiteDriver{ConnectHook: h.attacher.Attach})

	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHookAttachFailed, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrHookAttachFailed, err)
	}

	h.writerDB = db
	if !h.started {
		h.wkr.Start(context.Background())
		h.started = true
	}
	return db, nil
}

// Close stops the worker once it has applied every change-set already
// queued, then closes the writer connection Attach opened, or returns
// ctx's error if it's cancelled first. The workerDB passed to New is left
// open for its owner to close.
func (h *ConnectionHandler) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.wkr.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.writerDB == nil {
		return nil
	}
	err := h.writerDB.Close()
	h.writerDB = nil
	return err
}

// WorkerStats returns the handler's worker's cumulative counters.
func (h *ConnectionHandler) WorkerStats() worker.Stats {
	return h.wkr.Stats()
}
