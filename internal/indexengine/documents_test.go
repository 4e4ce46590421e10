package indexengine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rowdex/rowdex/internal/model"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	cache := newTestCache(t)
	idx, err := cache.Open("widgets")
	require.NoError(t, err)
	return idx
}

func withPrimaryKeySettings(t *testing.T, idx *Index, field string, searchable ...string) {
	t.Helper()
	w, err := idx.BeginWrite()
	require.NoError(t, err)
	s := model.NewIndexSettings()
	s.PrimaryKey = &field
	s.SearchableFields = searchable
	s.FilterableFields = searchable
	require.NoError(t, SetSettings(w, s))
	require.NoError(t, w.Commit())
}

func doc(id string, fields map[string]any) *model.Document {
	d := model.NewDocument()
	d.Set("id", id)
	for k, v := range fields {
		d.Set(k, v)
	}
	return d
}

func TestAddGetCountDocuments(t *testing.T) {
	idx := newTestIndex(t)
	withPrimaryKeySettings(t, idx, "id", "name")

	w, err := idx.BeginWrite()
	require.NoError(t, err)
	require.NoError(t, AddDocuments(w, []*model.Document{
		doc("1", map[string]any{"name": "gizmo"}),
		doc("2", map[string]any{"name": "gadget"}),
	}))
	require.NoError(t, w.Commit())

	r, err := idx.BeginRead()
	require.NoError(t, err)
	defer r.Close()

	got, ok, err := Get(r, "1")
	require.NoError(t, err)
	require.True(t, ok)
	name, _ := got.Get("name")
	require.Equal(t, "gizmo", name)

	count, err := Count(r)
	require.NoError(t, err)
	require.Equal(t, uint64(2), count)
}

func TestAddDocumentsUpsertsByPrimaryKey(t *testing.T) {
	idx := newTestIndex(t)
	withPrimaryKeySettings(t, idx, "id", "name")

	w, err := idx.BeginWrite()
	require.NoError(t, err)
	require.NoError(t, AddDocuments(w, []*model.Document{doc("1", map[string]any{"name": "old"})}))
	require.NoError(t, w.Commit())

	w, err = idx.BeginWrite()
	require.NoError(t, err)
	require.NoError(t, AddDocuments(w, []*model.Document{doc("1", map[string]any{"name": "new"})}))
	require.NoError(t, w.Commit())

	r, err := idx.BeginRead()
	require.NoError(t, err)
	defer r.Close()

	count, err := Count(r)
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)

	got, ok, err := Get(r, "1")
	require.NoError(t, err)
	require.True(t, ok)
	name, _ := got.Get("name")
	require.Equal(t, "new", name)
}

func TestDeleteDocumentsIsIdempotent(t *testing.T) {
	idx := newTestIndex(t)
	withPrimaryKeySettings(t, idx, "id", "name")

	w, err := idx.BeginWrite()
	require.NoError(t, err)
	require.NoError(t, AddDocuments(w, []*model.Document{doc("1", map[string]any{"name": "gizmo"})}))
	require.NoError(t, w.Commit())

	w, err = idx.BeginWrite()
	require.NoError(t, err)
	require.NoError(t, DeleteDocuments(w, []string{"1", "nonexistent"}))
	require.NoError(t, w.Commit())

	r, err := idx.BeginRead()
	require.NoError(t, err)
	defer r.Close()

	_, ok, err := Get(r, "1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestReplaceAllAtomicallyReplacesContents(t *testing.T) {
	idx := newTestIndex(t)
	withPrimaryKeySettings(t, idx, "id", "name")

	w, err := idx.BeginWrite()
	require.NoError(t, err)
	require.NoError(t, AddDocuments(w, []*model.Document{doc("1", nil), doc("2", nil)}))
	require.NoError(t, w.Commit())

	w, err = idx.BeginWrite()
	require.NoError(t, err)
	require.NoError(t, ReplaceAll(w, []*model.Document{doc("3", nil)}))
	require.NoError(t, w.Commit())

	r, err := idx.BeginRead()
	require.NoError(t, err)
	defer r.Close()

	count, err := Count(r)
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)
	_, ok, err := Get(r, "3")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestIterateAllWalksEveryDocument(t *testing.T) {
	idx := newTestIndex(t)
	withPrimaryKeySettings(t, idx, "id", "name")

	w, err := idx.BeginWrite()
	require.NoError(t, err)
	require.NoError(t, AddDocuments(w, []*model.Document{doc("1", nil), doc("2", nil), doc("3", nil)}))
	require.NoError(t, w.Commit())

	r, err := idx.BeginRead()
	require.NoError(t, err)
	defer r.Close()

	it := IterateAll(r)
	seen := 0
	for {
		d, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		require.NotNil(t, d)
		seen++
	}
	require.Equal(t, 3, seen)
}

func TestGetSettingsDefaultsWhenUnset(t *testing.T) {
	idx := newTestIndex(t)
	r, err := idx.BeginRead()
	require.NoError(t, err)
	defer r.Close()

	s, err := GetSettings(r)
	require.NoError(t, err)
	require.True(t, s.TyposEnabled)
	require.NotEmpty(t, s.RankingRules)
}

func TestSetSettingsGetSettingsRoundTrip(t *testing.T) {
	idx := newTestIndex(t)
	pk := "id"

	w, err := idx.BeginWrite()
	require.NoError(t, err)
	s := model.NewIndexSettings()
	s.PrimaryKey = &pk
	s.SearchableFields = []string{"name", "description"}
	require.NoError(t, SetSettings(w, s))
	require.NoError(t, w.Commit())

	r, err := idx.BeginRead()
	require.NoError(t, err)
	defer r.Close()

	got, err := GetSettings(r)
	require.NoError(t, err)
	require.Equal(t, []string{"name", "description"}, got.SearchableFields)
	require.Equal(t, "id", *got.PrimaryKey)
}
