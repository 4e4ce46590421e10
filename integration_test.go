//go:build sqlite_preupdate_hook

package rowdex_test

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/rowdex/rowdex"
)

const widgetsUpdateQuery = `SELECT id, name, metadata FROM widgets WHERE rowid = ?`

func widgetBinding() rowdex.TableIndexBinding {
	return rowdex.TableIndexBinding{
		IndexName:   "widgets_idx",
		UpdateQuery: widgetsUpdateQuery,
		PrimaryKeyFn: func(row rowdex.RowAccessor) (string, error) {
			v, ok := row.Column("id")
			if !ok {
				return "", fmt.Errorf("no id column")
			}
			return fmt.Sprintf("%v", v), nil
		},
	}
}

func setupPipeline(t *testing.T) (*rowdex.Instance, *rowdex.IndexHandle, *rowdex.ConnectionHandler, *sql.DB) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "app.db") + "?_busy_timeout=5000"

	instance, err := rowdex.Open(filepath.Join(dir, "index"))
	require.NoError(t, err)

	handle, err := instance.GetIndex("widgets_idx")
	require.NoError(t, err)

	w, err := handle.BeginWrite()
	require.NoError(t, err)
	pk := "id"
	s := rowdex.NewIndexSettings()
	s.PrimaryKey = &pk
	s.SearchableFields = []string{"name"}
	require.NoError(t, rowdex.SetIndexSettings(w, s))
	require.NoError(t, w.Commit())

	workerDB, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { workerDB.Close() })

	handler := rowdex.New(workerDB, instance)
	require.NoError(t, handler.Bind("main", "widgets", []rowdex.TableIndexBinding{widgetBinding()}))

	writerDB, err := handler.Attach(dbPath)
	require.NoError(t, err)
	_, err = writerDB.Exec(`CREATE TABLE widgets (id TEXT PRIMARY KEY, name TEXT, metadata TEXT)`)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		handler.Close(ctx)
	})

	return instance, handle, handler, writerDB
}

func countDocs(t *testing.T, handle *rowdex.IndexHandle) int {
	t.Helper()
	r, err := handle.BeginRead()
	require.NoError(t, err)
	defer r.Close()
	n, err := rowdex.CountDocuments(r)
	require.NoError(t, err)
	return int(n)
}

func getDoc(t *testing.T, handle *rowdex.IndexHandle, pk string) (*rowdex.Document, bool) {
	t.Helper()
	r, err := handle.BeginRead()
	require.NoError(t, err)
	defer r.Close()
	doc, ok, err := rowdex.GetDocument(r, pk)
	require.NoError(t, err)
	return doc, ok
}

func TestInsertProjectsJSONMetadataAsObject(t *testing.T) {
	_, handle, _, writerDB := setupPipeline(t)

	_, err := writerDB.Exec(`INSERT INTO widgets (id, name, metadata) VALUES ('1', 'gizmo', '{"weight":3,"colors":["red","blue"]}')`)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return countDocs(t, handle) == 1 }, time.Second, 5*time.Millisecond)

	doc, ok := getDoc(t, handle, "1")
	require.True(t, ok)
	meta, ok := doc.Get("metadata")
	require.True(t, ok)
	obj, ok := meta.(map[string]any)
	require.True(t, ok, "metadata must decode as a JSON object, got %T", meta)
	require.Contains(t, obj, "weight")
}

func TestInsertPlainTextMetadataPassesThrough(t *testing.T) {
	_, handle, _, writerDB := setupPipeline(t)

	_, err := writerDB.Exec(`INSERT INTO widgets (id, name, metadata) VALUES ('1', 'gizmo', 'just some notes')`)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return countDocs(t, handle) == 1 }, time.Second, 5*time.Millisecond)

	doc, ok := getDoc(t, handle, "1")
	require.True(t, ok)
	meta, _ := doc.Get("metadata")
	require.Equal(t, "just some notes", meta)
}

func TestDeleteRemovesDocumentFaithfully(t *testing.T) {
	_, handle, _, writerDB := setupPipeline(t)

	_, err := writerDB.Exec(`INSERT INTO widgets (id, name) VALUES ('1', 'gizmo')`)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return countDocs(t, handle) == 1 }, time.Second, 5*time.Millisecond)

	_, err = writerDB.Exec(`DELETE FROM widgets WHERE id = '1'`)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return countDocs(t, handle) == 0 }, time.Second, 5*time.Millisecond)

	_, ok := getDoc(t, handle, "1")
	require.False(t, ok)
}

func TestRollbackProducesNoPhantomDocument(t *testing.T) {
	_, handle, _, writerDB := setupPipeline(t)

	tx, err := writerDB.Begin()
	require.NoError(t, err)
	_, err = tx.Exec(`INSERT INTO widgets (id, name) VALUES ('1', 'ghost')`)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	// Give the coalescing worker a moment to have acted, had anything been
	// dispatched; a rolled-back transaction must dispatch nothing at all.
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 0, countDocs(t, handle))
}

func TestConcurrentInsertsAllAppear(t *testing.T) {
	_, handle, _, writerDB := setupPipeline(t)

	const n = 10
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			_, err := writerDB.Exec(`INSERT INTO widgets (id, name) VALUES (?, ?)`, fmt.Sprintf("%d", i), "widget")
			errs <- err
		}(i)
	}
	for i := 0; i < n; i++ {
		require.NoError(t, <-errs)
	}

	require.Eventually(t, func() bool { return countDocs(t, handle) == n }, 2*time.Second, 10*time.Millisecond)
}
