package model

// OpKind distinguishes the two pending-operation variants.
type OpKind int

const (
	// OpDelete carries a primary key to remove from the index.
	OpDelete OpKind = iota
	// OpUpsert carries a deferred re-query: the worker resolves the row by
	// rowid against update_query once the change-set is applied.
	OpUpsert
)

// Op is the tagged variant `Delete{primary_key} | Upsert{rowid,
// update_query}`. Upserts are deferred: they carry only the rowid and the
// SQL to resolve it later, so the worker sees the committed row state and
// any triggers or defaulted columns have settled by the time it queries.
type Op struct {
	Kind OpKind

	// Set when Kind == OpDelete.
	PrimaryKey string

	// Set when Kind == OpUpsert.
	Rowid       int64
	UpdateQuery string
}

// DeleteOp constructs a Delete operation.
func DeleteOp(primaryKey string) Op {
	return Op{Kind: OpDelete, PrimaryKey: primaryKey}
}

// UpsertOp constructs an Upsert operation.
func UpsertOp(rowid int64, updateQuery string) Op {
	return Op{Kind: OpUpsert, Rowid: rowid, UpdateQuery: updateQuery}
}

// ChangeSet is one commit's worth of pending operations, transferred by
// value to the worker: index name → ordered list of pending operations.
type ChangeSet map[string][]Op
