package persistence_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docdexhq/docdex/domain/collection"
	"github.com/docdexhq/docdex/domain/document"
	"github.com/docdexhq/docdex/infrastructure/persistence"
	"github.com/docdexhq/docdex/internal/database"
)

func newTestDB(t *testing.T) database.Database {
	t.Helper()
	ctx := context.Background()

	db, err := database.NewDatabase(ctx, "sqlite:///"+t.TempDir()+"/test.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, persistence.Migrate(ctx, db))
	return db
}

func TestCollectionStore_InsertAndFind(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewCollectionStore(newTestDB(t))

	created, err := store.Insert(ctx, collection.New("docs", "test collection"))
	require.NoError(t, err)
	assert.Equal(t, "docs", created.Name())
	assert.Equal(t, int64(0), created.DocsCount())

	found, err := store.Find(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, "docs", found.Name())
	assert.Equal(t, "test collection", found.Description())
}

func TestCollectionStore_FindMissing(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewCollectionStore(newTestDB(t))

	_, err := store.Find(ctx, "ghost")
	assert.ErrorIs(t, err, collection.ErrNotFound)
}

func TestCollectionStore_InsertDuplicateFails(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewCollectionStore(newTestDB(t))

	_, err := store.Insert(ctx, collection.New("docs", ""))
	require.NoError(t, err)

	_, err = store.Insert(ctx, collection.New("docs", "again"))
	assert.Error(t, err)
}

func TestCollectionStore_FindAllOrdered(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewCollectionStore(newTestDB(t))

	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := store.Insert(ctx, collection.New(name, ""))
		require.NoError(t, err)
	}

	all, err := store.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "alpha", all[0].Name())
	assert.Equal(t, "mid", all[1].Name())
	assert.Equal(t, "zeta", all[2].Name())
}

func TestCollectionStore_IncrementCount(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewCollectionStore(newTestDB(t))

	_, err := store.Insert(ctx, collection.New("docs", ""))
	require.NoError(t, err)

	require.NoError(t, store.IncrementCount(ctx, "docs", 3))
	require.NoError(t, store.IncrementCount(ctx, "docs", 2))

	found, err := store.Find(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, int64(5), found.DocsCount())
}

func TestCollectionStore_IncrementMissing(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewCollectionStore(newTestDB(t))

	err := store.IncrementCount(ctx, "ghost", 1)
	assert.ErrorIs(t, err, collection.ErrNotFound)
}

func TestCollectionStore_SetCount(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewCollectionStore(newTestDB(t))

	_, err := store.Insert(ctx, collection.New("docs", ""))
	require.NoError(t, err)
	require.NoError(t, store.IncrementCount(ctx, "docs", 7))

	require.NoError(t, store.SetCount(ctx, "docs", 0))

	found, err := store.Find(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, int64(0), found.DocsCount())
}

func TestCollectionStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewCollectionStore(newTestDB(t))

	_, err := store.Insert(ctx, collection.New("docs", ""))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "docs"))

	_, err = store.Find(ctx, "docs")
	assert.ErrorIs(t, err, collection.ErrNotFound)

	assert.ErrorIs(t, store.Delete(ctx, "docs"), collection.ErrNotFound)
}

func TestDocumentStore_SaveAndRetrieve(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewDocumentStore(newTestDB(t))

	saved, err := store.Save(ctx, document.New("a.txt", "docs", []byte("hello")))
	require.NoError(t, err)
	assert.NotZero(t, saved.ID())
	assert.Equal(t, int64(5), saved.Size())

	found, err := store.ByID(ctx, saved.ID())
	require.NoError(t, err)
	assert.Equal(t, "a.txt", found.Filename())
	assert.Equal(t, []byte("hello"), found.Content())
}

func TestDocumentStore_ByIDMissing(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewDocumentStore(newTestDB(t))

	_, err := store.ByID(ctx, 42)
	assert.ErrorIs(t, err, persistence.ErrDocumentNotFound)
}

func TestDocumentStore_ByCollection(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewDocumentStore(newTestDB(t))

	_, err := store.Save(ctx, document.New("a.txt", "docs", []byte("a")))
	require.NoError(t, err)
	_, err = store.Save(ctx, document.New("b.txt", "docs", []byte("b")))
	require.NoError(t, err)
	_, err = store.Save(ctx, document.New("c.txt", "other", []byte("c")))
	require.NoError(t, err)

	docs, err := store.ByCollection(ctx, "docs")
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	other, err := store.ByCollection(ctx, "other")
	require.NoError(t, err)
	assert.Len(t, other, 1)
	assert.Equal(t, "c.txt", other[0].Filename())
}
