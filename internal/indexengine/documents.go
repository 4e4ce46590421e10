package indexengine

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/rowdex/rowdex/internal/model"
)

// AddDocuments upserts docs by primary key: each document replaces any
// existing one sharing its primary key value, and the full-text/filter
// postings are rebuilt for the new content.
func AddDocuments(w *WTxn, docs []*model.Document) error {
	settings, err := cachedSettings(w.idx, w.tx)
	if err != nil {
		return err
	}
	if settings.PrimaryKey == nil {
		return fmt.Errorf("rowdex: indexengine: %s: no primary key configured", w.idx.name)
	}
	for _, doc := range docs {
		if err := upsertOne(w.tx, settings, doc); err != nil {
			return err
		}
	}
	return nil
}

func upsertOne(tx *bbolt.Tx, settings model.IndexSettings, doc *model.Document) error {
	pk, err := doc.PrimaryKey(*settings.PrimaryKey)
	if err != nil {
		return err
	}

	if err := unindexOne(tx, pk); err != nil {
		return err
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("rowdex: indexengine: encode document %q: %w", pk, err)
	}
	if err := tx.Bucket(bucketDocuments).Put([]byte(pk), raw); err != nil {
		return err
	}
	return indexOne(tx, settings, pk, doc)
}

// DeleteDocuments removes the documents named by pks. Primary keys not
// present are silently skipped.
func DeleteDocuments(w *WTxn, pks []string) error {
	for _, pk := range pks {
		if err := unindexOne(w.tx, pk); err != nil {
			return err
		}
		if err := w.tx.Bucket(bucketDocuments).Delete([]byte(pk)); err != nil {
			return err
		}
	}
	return nil
}

// Clear removes every document and index structure, leaving settings
// intact.
func Clear(w *WTxn) error {
	for _, name := range [][]byte{bucketDocuments, bucketTerms, bucketFilters, bucketDocTerms} {
		if err := w.tx.DeleteBucket(name); err != nil && err != bbolt.ErrBucketNotFound {
			return err
		}
		if _, err := w.tx.CreateBucket(name); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceAll clears the index and loads docs within the caller's single
// write transaction, so readers see either the old contents or the new,
// never the empty intermediate state.
func ReplaceAll(w *WTxn, docs []*model.Document) error {
	if err := Clear(w); err != nil {
		return err
	}
	return AddDocuments(w, docs)
}

// Get returns the document stored under pk.
func Get(r *RTxn, pk string) (*model.Document, bool, error) {
	raw := r.tx.Bucket(bucketDocuments).Get([]byte(pk))
	if raw == nil {
		return nil, false, nil
	}
	doc := model.NewDocument()
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, false, fmt.Errorf("rowdex: indexengine: decode document %q: %w", pk, err)
	}
	return doc, true, nil
}

// Count returns the number of documents currently stored.
func Count(r *RTxn) (uint64, error) {
	return uint64(r.tx.Bucket(bucketDocuments).Stats().KeyN), nil
}

// DocIterator walks every stored document in primary-key order. Not safe
// for use after its owning RTxn closes.
type DocIterator struct {
	cursor *bbolt.Cursor
	first  bool
}

// IterateAll returns an iterator over every document in r's snapshot.
func IterateAll(r *RTxn) *DocIterator {
	return &DocIterator{cursor: r.tx.Bucket(bucketDocuments).Cursor(), first: true}
}

// Next returns the next document, or ok=false once exhausted.
func (it *DocIterator) Next() (doc *model.Document, ok bool, err error) {
	var k, v []byte
	if it.first {
		k, v = it.cursor.First()
		it.first = false
	} else {
		k, v = it.cursor.Next()
	}
	if k == nil {
		return nil, false, nil
	}
	d := model.NewDocument()
	if err := json.Unmarshal(v, d); err != nil {
		return nil, false, fmt.Errorf("rowdex: indexengine: decode document %q: %w", string(k), err)
	}
	return d, true, nil
}
