package rowdex

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rowdex/rowdex/internal/indexengine"
	"github.com/rowdex/rowdex/internal/model"
	"github.com/rowdex/rowdex/internal/projector"
)

// Reconcile replaces indexName's entire contents with the projection of
// every row in rows, independent of the hook-driven incremental path.
// Typical use is a full-table scan query run by the cmd/rowdex-seed CLI or
// a host application's own periodic consistency check, to recover an index
// that has drifted (e.g. after deletes through an unhooked connection or a
// crash that lost in-flight change-sets).
func (i *Instance) Reconcile(ctx context.Context, indexName string, rows *sql.Rows) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	handle, err := i.GetIndex(indexName)
	if err != nil {
		return err
	}

	var docs []*model.Document
	for rows.Next() {
		doc, err := projector.Project(rows)
		if err != nil {
			return fmt.Errorf("rowdex: reconcile %s: %w", indexName, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rowdex: reconcile %s: %w", indexName, err)
	}

	w, err := handle.BeginWrite()
	if err != nil {
		return err
	}
	if err := indexengine.ReplaceAll(w, docs); err != nil {
		w.Rollback()
		return err
	}
	return w.Commit()
}
