package indexengine

import "go.etcd.io/bbolt"

// RTxn is a read-only transactional snapshot. Readers never block on or
// observe partial writes.
type RTxn struct {
	idx *Index
	tx  *bbolt.Tx
}

// WTxn is a read-write transaction. Only one WTxn may be open per Index at
// a time; bbolt enforces this by blocking a second Begin(true) until the
// first commits or rolls back.
type WTxn struct {
	idx *Index
	tx  *bbolt.Tx
}

// BeginRead opens a read-only snapshot.
func (idx *Index) BeginRead() (*RTxn, error) {
	tx, err := idx.db.Begin(false)
	if err != nil {
		return nil, err
	}
	return &RTxn{idx: idx, tx: tx}, nil
}

// BeginWrite opens a read-write transaction.
func (idx *Index) BeginWrite() (*WTxn, error) {
	tx, err := idx.db.Begin(true)
	if err != nil {
		return nil, err
	}
	return &WTxn{idx: idx, tx: tx}, nil
}

// Commit applies the transaction's writes durably.
func (w *WTxn) Commit() error {
	return w.tx.Commit()
}

// Rollback discards the transaction's writes.
func (w *WTxn) Rollback() error {
	return w.tx.Rollback()
}

// Close releases a read snapshot. Callers should defer this immediately
// after BeginRead.
func (r *RTxn) Close() error {
	return r.tx.Rollback()
}
