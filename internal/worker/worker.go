// Package worker implements the coalescing index updater: the single
// consumer of the dispatch channel, responsible for batching rapid writes,
// resolving deferred upserts against the database, and applying the result
// to each affected index in one write transaction. A failed batch is
// logged and the loop continues with the next index rather than crashing
// the process.
package worker

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/rowdex/rowdex/internal/dispatch"
	"github.com/rowdex/rowdex/internal/indexengine"
	"github.com/rowdex/rowdex/internal/model"
	"github.com/rowdex/rowdex/internal/projector"
)

// Stats are cumulative counters exposed by Worker.Stats.
type Stats struct {
	BatchesApplied uint64
	UpsertsApplied uint64
	DeletesApplied uint64
	Errors         uint64
}

// Worker drains the dispatch channel and applies coalesced batches to the
// index engine.
type Worker struct {
	ch    *dispatch.Channel
	cache *indexengine.Cache
	db    *sql.DB
	log   zerolog.Logger

	stats Stats

	wg   sync.WaitGroup
	stop chan struct{}
}

// New returns a worker that resolves deferred upserts against db (a
// connection pool dedicated to re-query reads, distinct from the hooked
// writer connection — see ConnectionHandler) and applies results to the
// indices opened from cache.
func New(ch *dispatch.Channel, cache *indexengine.Cache, db *sql.DB, log zerolog.Logger) *Worker {
	return &Worker{ch: ch, cache: cache, db: db, log: log.With().Str("component", "worker").Logger(), stop: make(chan struct{})}
}

// Start launches the worker goroutine. Stop waits for it, so the
// WaitGroup add happens here, before the goroutine is scheduled, not
// inside it.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.Run(ctx)
	}()
}

// Run blocks, applying change-sets until ctx is cancelled or the dispatch
// channel is closed and drained.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		cs, ok := w.ch.Recv()
		if !ok {
			return
		}
		batch := coalesce(cs, w.ch)
		w.apply(ctx, batch)
	}
}

// Stop closes the dispatch channel and blocks until Run returns. Run first
// applies every change-set still queued at that point, then returns once
// the channel is drained.
func (w *Worker) Stop() {
	w.ch.Close()
	w.wg.Wait()
}

func (w *Worker) apply(ctx context.Context, batch model.ChangeSet) {
	for indexName, ops := range batch {
		if err := w.applyIndex(ctx, indexName, ops); err != nil {
			atomic.AddUint64(&w.stats.Errors, 1)
			// First point this error is logged, so the stack is attached
			// here rather than at every return site inside applyIndex.
			w.log.Error().Stack().Err(errors.WithStack(err)).Str("index", indexName).Msg("apply batch failed")
			continue
		}
		atomic.AddUint64(&w.stats.BatchesApplied, 1)
	}
}

// applyIndex dedupes, resolves deferred upserts, then applies upserts and
// deletes as a single write transaction with upserts ordered strictly
// before deletes: a row inserted then deleted within one coalesced window
// still ends up removed.
func (w *Worker) applyIndex(ctx context.Context, indexName string, ops []model.Op) error {
	upsertOps, deleteOps := dedupeOps(ops)

	idx, err := w.cache.Open(indexName)
	if err != nil {
		return err
	}

	docs := make([]*model.Document, 0, len(upsertOps))
	for _, op := range upsertOps {
		doc, err := w.resolveRow(ctx, op.UpdateQuery, op.Rowid)
		if err != nil {
			// A failed re-query only costs this one upsert; the rest of the
			// index's batch is still applied.
			atomic.AddUint64(&w.stats.Errors, 1)
			w.log.Error().Err(err).Str("index", indexName).Int64("rowid", op.Rowid).Msg("resolve upsert failed, skipping row")
			continue
		}
		if doc == nil {
			// Row no longer exists by the time the worker caught up — a
			// benign race; a delete for it, if any, is handled independently
			// below.
			continue
		}
		docs = append(docs, doc)
	}

	pks := make([]string, len(deleteOps))
	for i, op := range deleteOps {
		pks[i] = op.PrimaryKey
	}

	wtx, err := idx.BeginWrite()
	if err != nil {
		return err
	}

	if len(docs) > 0 {
		if err := indexengine.AddDocuments(wtx, docs); err != nil {
			wtx.Rollback()
			return err
		}
		atomic.AddUint64(&w.stats.UpsertsApplied, uint64(len(docs)))
	}
	if len(pks) > 0 {
		if err := indexengine.DeleteDocuments(wtx, pks); err != nil {
			wtx.Rollback()
			return err
		}
		atomic.AddUint64(&w.stats.DeletesApplied, uint64(len(pks)))
	}

	return wtx.Commit()
}

// resolveRow re-queries the row named by rowid using updateQuery. A nil
// document with a nil error means the row is gone.
func (w *Worker) resolveRow(ctx context.Context, updateQuery string, rowid int64) (*model.Document, error) {
	rows, err := w.db.QueryContext(ctx, updateQuery, rowid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	doc, err := projector.Project(rows)
	if err != nil {
		return nil, err
	}
	return doc, rows.Err()
}

// Stats returns a snapshot of the worker's cumulative counters.
func (w *Worker) Stats() Stats {
	return Stats{
		BatchesApplied: atomic.LoadUint64(&w.stats.BatchesApplied),
		UpsertsApplied: atomic.LoadUint64(&w.stats.UpsertsApplied),
		DeletesApplied: atomic.LoadUint64(&w.stats.DeletesApplied),
		Errors:         atomic.LoadUint64(&w.stats.Errors),
	}
}
