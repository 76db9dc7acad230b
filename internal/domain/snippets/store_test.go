package snippets

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduitedeprojet/testrunner/internal/shared/id"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "snippets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	created, err := store.Create(ctx, "p1", "i1", "const a = 1;", "test('a', () => assertEquals(a, 1));", "alice")
	require.NoError(t, err)
	assert.True(t, id.IsPrefixed(created.ID, id.SnippetPrefix))
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, err := store.Get(ctx, "p1", "i1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "const a = 1;", got.ProgramCode)
	assert.Equal(t, "alice", got.Creator)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))

	updated, err := store.Update(ctx, "p1", "i1", created.ID, "const a = 2;", "")
	require.NoError(t, err)
	assert.Equal(t, "const a = 2;", updated.ProgramCode)
	assert.Empty(t, updated.TestCode)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	require.NoError(t, store.Delete(ctx, "p1", "i1", created.ID))
	_, err = store.Get(ctx, "p1", "i1", created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreScoping(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	first, err := store.Create(ctx, "p1", "i1", "1", "1", "")
	require.NoError(t, err)
	_, err = store.Create(ctx, "p1", "i1", "2", "2", "")
	require.NoError(t, err)
	_, err = store.Create(ctx, "p1", "i2", "3", "3", "")
	require.NoError(t, err)

	list, err := store.List(ctx, "p1", "i1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)

	empty, err := store.List(ctx, "p2", "i1")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = store.Get(ctx, "p1", "i2", first.ID)
	assert.ErrorIs(t, err, ErrNotFound, "snippet belongs to another issue")

	_, err = store.Update(ctx, "p2", "i1", first.ID, "x", "y")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "p1", "i1", "snip_missing"), ErrNotFound)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "snippets.db")

	store, err := Open(ctx, path)
	require.NoError(t, err)
	created, err := store.Create(ctx, "p", "i", "code", "tests", "")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "p", "i", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "tests", got.TestCode)
}

func TestStorePragmas(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	var mode string
	require.NoError(t, store.db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var timeout int
	require.NoError(t, store.db.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout))
	assert.Equal(t, 5000, timeout)
}
