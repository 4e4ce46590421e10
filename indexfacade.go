package rowdex

import "github.com/rowdex/rowdex/internal/indexengine"

// ReadTxn and WriteTxn are the transactional handles returned by
// IndexHandle.BeginRead/BeginWrite. All document and search operations take
// one of these rather than operating on an IndexHandle directly, so a
// caller's transaction boundary is always explicit.
type (
	ReadTxn  = indexengine.RTxn
	WriteTxn = indexengine.WTxn
)

// DocIterator walks every document in a ReadTxn's snapshot in primary-key
// order.
type DocIterator = indexengine.DocIterator

// SearchRequest and SearchHit are the query and result types for
// SearchIndex.
type (
	SearchRequest = indexengine.SearchRequest
	SearchHit     = indexengine.SearchHit
)

// AddDocuments upserts docs by primary key.
func AddDocuments(w *WriteTxn, docs []*Document) error {
	return indexengine.AddDocuments(w, docs)
}

// DeleteDocuments removes the documents named by pks, skipping any that
// are already absent.
func DeleteDocuments(w *WriteTxn, pks []string) error {
	return indexengine.DeleteDocuments(w, pks)
}

// ClearIndex removes every document, leaving settings untouched.
func ClearIndex(w *WriteTxn) error {
	return indexengine.Clear(w)
}

// ReplaceAllDocuments atomically clears the index and loads docs.
func ReplaceAllDocuments(w *WriteTxn, docs []*Document) error {
	return indexengine.ReplaceAll(w, docs)
}

// GetDocument returns the document stored under pk.
func GetDocument(r *ReadTxn, pk string) (*Document, bool, error) {
	return indexengine.Get(r, pk)
}

// CountDocuments returns the number of documents currently stored.
func CountDocuments(r *ReadTxn) (uint64, error) {
	return indexengine.Count(r)
}

// IterateDocuments returns an iterator over every document in r's
// snapshot.
func IterateDocuments(r *ReadTxn) *DocIterator {
	return indexengine.IterateAll(r)
}

// SearchIndex runs req against r's snapshot.
func SearchIndex(r *ReadTxn, req SearchRequest) ([]SearchHit, error) {
	return indexengine.Search(r, req)
}

// GetIndexSettings returns the index's current settings.
func GetIndexSettings(r *ReadTxn) (IndexSettings, error) {
	return indexengine.GetSettings(r)
}

// SetIndexSettings replaces the index's settings.
func SetIndexSettings(w *WriteTxn, s IndexSettings) error {
	return indexengine.SetSettings(w, s)
}
