package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	// Put and read back.
	require.NoError(t, store.Put(ctx, "index/index.info", strings.NewReader("alphabet_size:4\n"), 16))
	require.NoError(t, store.Put(ctx, "index/index", strings.NewReader("payload"), 7))

	rc, err := store.Open(ctx, "index/index.info")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "alphabet_size:4\n", string(data))

	// Missing blobs are ErrNotFound.
	_, err = store.Open(ctx, "index/absent")
	assert.ErrorIs(t, err, ErrNotFound)

	// List is sorted and prefix-filtered.
	names, err := store.List(ctx, "index/")
	require.NoError(t, err)
	assert.Equal(t, []string{"index/index", "index/index.info"}, names)

	// Overwrite replaces content.
	require.NoError(t, store.Put(ctx, "index/index", strings.NewReader("v2"), 2))
	rc, err = store.Open(ctx, "index/index")
	require.NoError(t, err)
	data, err = io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "v2", string(data))

	// Delete, including of absent blobs.
	require.NoError(t, store.Delete(ctx, "index/index"))
	require.NoError(t, store.Delete(ctx, "index/index"))
	_, err = store.Open(ctx, "index/index")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestLocalStore(t *testing.T) {
	testStore(t, NewLocalStore(t.TempDir()))
}

func TestLocalStorePutIsStaged(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)

	require.NoError(t, store.Put(context.Background(), "index", strings.NewReader("data"), 4))

	// No staging file is left behind.
	_, err := os.Stat(filepath.Join(dir, "index.tmp"))
	assert.True(t, os.IsNotExist(err))
	data, err := os.ReadFile(filepath.Join(dir, "index"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
}

func TestMemoryStoreCommit(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Commit(ctx, []string{"index", "index.rev"}))
	require.NoError(t, store.Commit(ctx, []string{"index"}))

	commits := store.Commits()
	require.Len(t, commits, 2)
	assert.Equal(t, []string{"index", "index.rev"}, commits[0])
}

func TestMemoryStoreOpenReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "blob", strings.NewReader("abc"), 3))

	rc, err := store.Open(ctx, "blob")
	require.NoError(t, err)
	buf := make([]byte, 3)
	_, err = io.ReadFull(rc, buf)
	require.NoError(t, err)
	buf[0] = 'X'
	rc.Close()

	rc, err = store.Open(ctx, "blob")
	require.NoError(t, err)
	again, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "abc", string(again))
}
