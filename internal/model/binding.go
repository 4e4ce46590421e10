package model

// RowAccessor exposes the pre-delete row to a PrimaryKeyFunc. It is the
// minimal read surface a SQLite pre-update callback can offer: column
// access by name, backed by the driver's own pre-update value API
// (internal/hooks implements it against github.com/mattn/go-sqlite3's
// SQLitePreUpdateData).
type RowAccessor interface {
	// Column returns the pre-delete value of the named column. ok is false
	// if the column does not exist on this table.
	Column(name string) (value any, ok bool)
}

// PrimaryKeyFunc computes a document's external identifier from the
// pre-delete row. It must return a string uniquely identifying the
// document to remove.
type PrimaryKeyFunc func(row RowAccessor) (string, error)

// TableIndexBinding is one way a SQL table feeds one index. Immutable once
// registered.
type TableIndexBinding struct {
	// IndexName names the target index (a directory under Instance's root).
	IndexName string

	// UpdateQuery is a SQL statement with exactly one positional parameter
	// bound to a rowid; it is expected to return the columns required to
	// form one document.
	UpdateQuery string

	// PrimaryKeyFn derives the external id of a deleted row.
	PrimaryKeyFn PrimaryKeyFunc
}

// Validate reports a malformed binding passed to Bind. Checked at setup
// time; a binding that reaches hook code has already passed.
func (b TableIndexBinding) Validate() error {
	if b.IndexName == "" || b.UpdateQuery == "" || b.PrimaryKeyFn == nil {
		return ErrInvalidBinding
	}
	return nil
}
