//go:build sqlite_preupdate_hook

// Package hooks attaches the four SQLite connection hooks to every writer
// connection a ConnectionHandler's driver hands out: pre-update (captures
// the old row before a DELETE), update (captures the rowid after an
// INSERT/UPDATE), commit (hands the accumulated change-set to the dispatch
// channel), and rollback (discards it).
//
// Built on github.com/mattn/go-sqlite3's ConnectHook/RegisterXHook surface;
// pure-Go drivers do not expose SQLite's hook C API.
//
// RegisterPreUpdateHook only exists when mattn/go-sqlite3 is built with the
// sqlite_preupdate_hook tag (it guards the whole pre-update C API behind
// cgo preprocessor directives); without the tag the registration is a
// silent no-op and deletes vanish. See build_tag_guard.go for the build
// that fails loudly when the tag is missing, and the Makefile's `test`
// target for how it's supplied to `go test`.
package hooks

import (
	"database/sql/driver"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"

	"github.com/rowdex/rowdex/internal/dispatch"
	"github.com/rowdex/rowdex/internal/model"
	"github.com/rowdex/rowdex/internal/pending"
	"github.com/rowdex/rowdex/internal/registry"
)

// Attacher wires the hook quartet onto a connection and routes the
// resulting operations through a pending buffer into a dispatch channel.
// One Attacher is shared by every connection a ConnectionHandler's driver
// hands out; Attach is the sqlite3.SQLiteDriver's ConnectHook and runs once
// per physical connection.
type Attacher struct {
	reg *registry.Registry
	ch  *dispatch.Channel

	// columnCache is schema information (column names per table), not
	// per-transaction state, so it's safe to share across every connection
	// Attach is called for — unlike the per-connection pending buffer that
	// Attach creates.
	mu          sync.Mutex
	columnCache map[string][]string
}

// New returns an Attacher that dispatches completed change-sets onto ch,
// resolving bindings from reg.
func New(reg *registry.Registry, ch *dispatch.Channel) *Attacher {
	return &Attacher{reg: reg, columnCache: make(map[string][]string), ch: ch}
}

// Attach registers the pre-update, update, commit, and rollback callbacks
// on conn. Pass this as a sqlite3.SQLiteDriver's ConnectHook.
//
// Each call creates a fresh pending.Buffer captured by that connection's own
// four closures: the buffer is per-connection state, so N concurrently
// hooked writer connections each stage independently and
// dispatch their own completed change-sets onto the one shared channel —
// one connection's commit must never swap out another connection's
// still-open transaction.
func (a *Attacher) Attach(conn *sqlite3.SQLiteConn) error {
	buf := pending.New()

	conn.RegisterPreUpdateHook(func(data sqlite3.SQLitePreUpdateData) {
		a.onPreUpdate(conn, buf, data)
	})
	conn.RegisterUpdateHook(func(op int, db, table string, rowid int64) {
		a.onUpdate(buf, op, db, table, rowid)
	})
	conn.RegisterCommitHook(func() int {
		onCommit(buf, a.ch)
		return 0
	})
	conn.RegisterRollbackHook(func() {
		buf.Clear()
	})
	return nil
}

// onPreUpdate handles the pre-update callback. Only DELETEs need the old
// row — after commit it is gone, so the primary key must be captured now;
// INSERT/UPDATE resolve their new content later, via the deferred upsert's
// update query. For each binding registered on the affected table, it
// resolves the old row's primary key and appends a delete operation to
// buf, the calling connection's own pending buffer.
func (a *Attacher) onPreUpdate(conn *sqlite3.SQLiteConn, buf *pending.Buffer, data sqlite3.SQLitePreUpdateData) {
	if data.Op != sqlite3.SQLITE_DELETE {
		return
	}
	bindings, ok := a.reg.Lookup(data.DatabaseName, data.TableName)
	if !ok {
		return
	}

	cols, err := a.columnsFor(conn, data.TableName)
	if err != nil {
		// Schema introspection failure must not take down the writer
		// connection; the change is simply not captured for indexing.
		return
	}

	// Old assigns each column value into the slice element itself (it does
	// not write through pointers), so values is passed directly.
	values := make([]interface{}, data.Count())
	if err := data.Old(values...); err != nil {
		return
	}
	// Byte-slice values are turned into strings so a PrimaryKeyFunc sees a
	// TEXT key as text rather than as a byte list.
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			values[i] = string(b)
		}
	}

	row := &rowValues{columns: cols, values: values}
	for _, b := range bindings {
		pk, err := b.PrimaryKeyFn(row)
		if err != nil {
			continue
		}
		buf.Append(b.IndexName, model.DeleteOp(pk))
	}
}

// onUpdate handles the post-mutation callback: for INSERT/UPDATE, stage a
// deferred upsert carrying only the rowid and the binding's update query —
// the worker resolves the actual row content after commit, once triggers
// and defaulted columns have settled.
func (a *Attacher) onUpdate(buf *pending.Buffer, op int, db, table string, rowid int64) {
	if op != sqlite3.SQLITE_INSERT && op != sqlite3.SQLITE_UPDATE {
		return
	}
	bindings, ok := a.reg.Lookup(db, table)
	if !ok {
		return
	}
	for _, b := range bindings {
		buf.Append(b.IndexName, model.UpsertOp(rowid, b.UpdateQuery))
	}
}

// onCommit atomically swaps the pending buffer for an empty one and, if it
// held anything, hands it to the dispatch channel. Sending at commit time
// guarantees the worker never sees rolled-back changes.
func onCommit(buf *pending.Buffer, ch *dispatch.Channel) {
	cs := buf.SwapOut()
	if len(cs) == 0 {
		return
	}
	ch.Send(cs)
}

// rowValues is the RowAccessor implementation handed to a binding's
// PrimaryKeyFunc for an old row captured by the pre-update hook.
type rowValues struct {
	columns []string
	values  []interface{}
}

func (r *rowValues) Column(name string) (any, bool) {
	for i, c := range r.columns {
		if c == name {
			return r.values[i], true
		}
	}
	return nil, false
}

// columnsFor returns table's column names in declaration order, introspected
// once via PRAGMA table_info and cached thereafter. conn must implement
// driver.Queryer, which *sqlite3.SQLiteConn does.
//
// Called lazily, from inside the pre-update callback, on the same
// connection the callback fired on. SQLite permits read-only queries on a
// connection from within its own pre-update hook (the hook fires before the
// triggering statement completes, but table_info reads schema metadata, not
// the row being mutated), and the cache means this only happens once per
// table per process — not once per DELETE. A table can't be introspected
// before it exists, so this can't be hoisted to Attach time: the table may
// not be created yet when a new connection is first handed out.
func (a *Attacher) columnsFor(conn *sqlite3.SQLiteConn, table string) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if cols, ok := a.columnCache[table]; ok {
		return cols, nil
	}

	q, ok := driver.Conn(conn).(driver.Queryer)
	if !ok {
		return nil, fmt.Errorf("rowdex: hooks: connection does not support PRAGMA introspection")
	}
	rows, err := q.Query(fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)), nil)
	if err != nil {
		return nil, fmt.Errorf("rowdex: hooks: table_info(%s): %w", table, err)
	}
	defer rows.Close()

	cols := rows.Columns()
	nameIdx := -1
	for i, c := range cols {
		if c == "name" {
			nameIdx = i
			break
		}
	}
	if nameIdx < 0 {
		return nil, fmt.Errorf("rowdex: hooks: table_info(%s): no name column", table)
	}

	var names []string
	dest := make([]driver.Value, len(cols))
	for {
		if err := rows.Next(dest); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		names = append(names, fmt.Sprintf("%v", dest[nameIdx]))
	}

	a.columnCache[table] = names
	return names, nil
}

func quoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
