package rowdex

import "github.com/rowdex/rowdex/internal/model"

// RowAccessor exposes the pre-delete row to a PrimaryKeyFunc.
type RowAccessor = model.RowAccessor

// PrimaryKeyFunc computes a document's external identifier from the
// pre-delete row.
type PrimaryKeyFunc = model.PrimaryKeyFunc

// TableIndexBinding is one way a SQL table feeds one index.
type TableIndexBinding = model.TableIndexBinding
