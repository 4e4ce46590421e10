package indexengine

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/rowdex/rowdex/internal/model"
)

// reverseIndex is the entry kept under bucketDocTerms, keyed by primary key,
// so a future unindex can find exactly which postings a document
// contributed without rescanning its content (which may have already
// changed or been deleted by the time unindexOne runs).
type reverseIndex struct {
	Terms   []string `json:"terms,omitempty"`
	Filters []string `json:"filters,omitempty"`
}

// indexOne tokenizes doc's searchable fields and records its filterable
// field values, updating both the forward postings (term/filter → pks)
// and the reverse index (pk → terms/filters) used to clean up later.
func indexOne(tx *bbolt.Tx, settings model.IndexSettings, pk string, doc *model.Document) error {
	stop := stopWordSet(settings)

	termSet := make(map[string]struct{})
	for _, field := range settings.SearchableFields {
		v, ok := doc.Get(field)
		if !ok {
			continue
		}
		for _, tok := range filterStopWords(tokenize(stringify(v)), stop) {
			termSet[tok] = struct{}{}
		}
	}

	filterKeys := make([]string, 0, len(settings.FilterableFields))
	for _, field := range settings.FilterableFields {
		v, ok := doc.Get(field)
		if !ok {
			continue
		}
		filterKeys = append(filterKeys, filterKey(field, toString(v)))
	}

	termsBucket := tx.Bucket(bucketTerms)
	for term := range termSet {
		if err := addPosting(termsBucket, []byte(term), pk); err != nil {
			return err
		}
	}

	filtersBucket := tx.Bucket(bucketFilters)
	for _, fk := range filterKeys {
		if err := addPosting(filtersBucket, []byte(fk), pk); err != nil {
			return err
		}
	}

	terms := make([]string, 0, len(termSet))
	for t := range termSet {
		terms = append(terms, t)
	}
	rev := reverseIndex{Terms: terms, Filters: filterKeys}
	raw, err := json.Marshal(rev)
	if err != nil {
		return err
	}
	if err := tx.Bucket(bucketDocTerms).Put([]byte(pk), raw); err != nil {
		return err
	}
	return nil
}

// unindexOne removes pk's contribution from every posting list it
// previously touched, using the reverse index recorded by indexOne. A
// no-op if pk was never indexed.
func unindexOne(tx *bbolt.Tx, pk string) error {
	docTerms := tx.Bucket(bucketDocTerms)
	raw := docTerms.Get([]byte(pk))
	if raw == nil {
		return nil
	}
	var rev reverseIndex
	if err := json.Unmarshal(raw, &rev); err != nil {
		return fmt.Errorf("rowdex: indexengine: decode reverse index for %q: %w", pk, err)
	}

	termsBucket := tx.Bucket(bucketTerms)
	for _, term := range rev.Terms {
		if err := removePosting(termsBucket, []byte(term), pk); err != nil {
			return err
		}
	}
	filtersBucket := tx.Bucket(bucketFilters)
	for _, fk := range rev.Filters {
		if err := removePosting(filtersBucket, []byte(fk), pk); err != nil {
			return err
		}
	}
	return docTerms.Delete([]byte(pk))
}

func filterKey(field, value string) string {
	return field + "\x00" + value
}

func getPostings(b *bbolt.Bucket, key []byte) []string {
	raw := b.Get(key)
	if raw == nil {
		return nil
	}
	var pks []string
	_ = json.Unmarshal(raw, &pks)
	return pks
}

func putPostings(b *bbolt.Bucket, key []byte, pks []string) error {
	if len(pks) == 0 {
		return b.Delete(key)
	}
	raw, err := json.Marshal(pks)
	if err != nil {
		return err
	}
	return b.Put(key, raw)
}

func addPosting(b *bbolt.Bucket, key []byte, pk string) error {
	pks := getPostings(b, key)
	for _, existing := range pks {
		if existing == pk {
			return nil
		}
	}
	pks = append(pks, pk)
	return putPostings(b, key, pks)
}

func removePosting(b *bbolt.Bucket, key []byte, pk string) error {
	pks := getPostings(b, key)
	out := pks[:0:0]
	for _, existing := range pks {
		if existing != pk {
			out = append(out, existing)
		}
	}
	return putPostings(b, key, out)
}
