package worker

import (
	"time"

	"github.com/rowdex/rowdex/internal/dispatch"
	"github.com/rowdex/rowdex/internal/model"
)

// idleWindow is how long the worker keeps draining the channel after its
// last received change-set before applying the accumulated batch.
const idleWindow = 20 * time.Millisecond

// coalesce merges first with every change-set the worker can drain from ch
// within idleWindow of inactivity, batching rapid repeated writes into a
// single apply pass instead of one index write transaction per commit.
func coalesce(first model.ChangeSet, ch *dispatch.Channel) model.ChangeSet {
	merged := mergeChangeSets(nil, first)

	timer := time.NewTimer(idleWindow)
	defer timer.Stop()

	for {
		if cs, ok := ch.TryRecv(); ok {
			merged = mergeChangeSets(merged, cs)
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(idleWindow)
			continue
		}

		select {
		case <-timer.C:
			return merged
		case <-time.After(time.Millisecond):
		}
	}
}

// mergeChangeSets appends src's operations onto dst (allocating dst if
// nil), preserving per-index emission order.
func mergeChangeSets(dst, src model.ChangeSet) model.ChangeSet {
	if dst == nil {
		dst = make(model.ChangeSet, len(src))
	}
	for index, ops := range src {
		dst[index] = append(dst[index], ops...)
	}
	return dst
}

// dedupeOps keeps the most recent upsert per rowid and the most recent
// delete per primary key, discarding the superseded duplicates a rapid
// sequence of writes to the same row produces. First-seen order is
// preserved.
func dedupeOps(ops []model.Op) (upserts []model.Op, deletes []model.Op) {
	upsertByRowid := make(map[int64]model.Op)
	deleteByPK := make(map[string]model.Op)
	var upsertOrder []int64
	var deleteOrder []string

	for _, op := range ops {
		switch op.Kind {
		case model.OpUpsert:
			if _, seen := upsertByRowid[op.Rowid]; !seen {
				upsertOrder = append(upsertOrder, op.Rowid)
			}
			upsertByRowid[op.Rowid] = op
		case model.OpDelete:
			if _, seen := deleteByPK[op.PrimaryKey]; !seen {
				deleteOrder = append(deleteOrder, op.PrimaryKey)
			}
			deleteByPK[op.PrimaryKey] = op
		}
	}

	for _, rowid := range upsertOrder {
		upserts = append(upserts, upsertByRowid[rowid])
	}
	for _, pk := range deleteOrder {
		deletes = append(deletes, deleteByPK[pk])
	}
	return upserts, deletes
}
