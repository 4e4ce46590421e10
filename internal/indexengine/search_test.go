package indexengine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rowdex/rowdex/internal/model"
)

func seedSearchIndex(t *testing.T) *Index {
	t.Helper()
	idx := newTestIndex(t)

	w, err := idx.BeginWrite()
	require.NoError(t, err)

	pk := "id"
	s := model.NewIndexSettings()
	s.PrimaryKey = &pk
	s.SearchableFields = []string{"name", "description"}
	s.FilterableFields = []string{"category"}
	s.SortableFields = []string{"price"}
	require.NoError(t, SetSettings(w, s))

	docs := []*model.Document{
		doc("1", map[string]any{"name": "red widget", "description": "a small red widget", "category": "widget", "price": 10.0}),
		doc("2", map[string]any{"name": "blue widget", "description": "a large blue widget", "category": "widget", "price": 20.0}),
		doc("3", map[string]any{"name": "red gadget", "description": "a shiny red gadget", "category": "gadget", "price": 15.0}),
	}
	require.NoError(t, AddDocuments(w, docs))
	require.NoError(t, w.Commit())
	return idx
}

func pks(hits []SearchHit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		id, _ := h.Document.Get("id")
		out[i] = id.(string)
	}
	return out
}

func TestSearchExactTermMatch(t *testing.T) {
	idx := seedSearchIndex(t)
	r, err := idx.BeginRead()
	require.NoError(t, err)
	defer r.Close()

	hits, err := Search(r, SearchRequest{Query: "widget"})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"1", "2"}, pks(hits))
}

func TestSearchWithFilter(t *testing.T) {
	idx := seedSearchIndex(t)
	r, err := idx.BeginRead()
	require.NoError(t, err)
	defer r.Close()

	hits, err := Search(r, SearchRequest{Query: "red", Filters: map[string]string{"category": "gadget"}})
	require.NoError(t, err)
	require.Equal(t, []string{"3"}, pks(hits))
}

func TestSearchEmptyQueryReturnsAllDocuments(t *testing.T) {
	idx := seedSearchIndex(t)
	r, err := idx.BeginRead()
	require.NoError(t, err)
	defer r.Close()

	hits, err := Search(r, SearchRequest{})
	require.NoError(t, err)
	require.Len(t, hits, 3)
}

func TestSearchSortByFieldAscending(t *testing.T) {
	idx := seedSearchIndex(t)
	r, err := idx.BeginRead()
	require.NoError(t, err)
	defer r.Close()

	hits, err := Search(r, SearchRequest{SortBy: "price"})
	require.NoError(t, err)
	require.Equal(t, []string{"1", "3", "2"}, pks(hits))
}

func TestSearchTypoToleranceMatchesNearbyTerm(t *testing.T) {
	idx := seedSearchIndex(t)
	r, err := idx.BeginRead()
	require.NoError(t, err)
	defer r.Close()

	hits, err := Search(r, SearchRequest{Query: "widgit"}) // one substitution away from "widget"
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"1", "2"}, pks(hits))
}

func TestSearchLimitAndOffset(t *testing.T) {
	idx := seedSearchIndex(t)
	r, err := idx.BeginRead()
	require.NoError(t, err)
	defer r.Close()

	hits, err := Search(r, SearchRequest{Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestLevenshtein(t *testing.T) {
	require.Equal(t, 0, levenshtein("same", "same", 3))
	require.Equal(t, 1, levenshtein("cat", "cats", 3))
	require.Equal(t, 3, levenshtein("kitten", "sitting", 3))
}
