package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittosync/pkg/storage"
	storagetesting "github.com/marmos91/dittosync/pkg/storage/testing"
)

func openTestStore(t *testing.T, cfg StoreConfig) *Store {
	t.Helper()
	store, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// TestBadgerDirectory runs the storage conformance suite against an
// on-disk database.
func TestBadgerDirectory(t *testing.T) {
	suite := &storagetesting.StorageTestSuite{
		NewDirectory: func(t *testing.T) storage.Directory {
			store := openTestStore(t, StoreConfig{DBPath: t.TempDir()})
			dir, err := store.Directory("suite")
			require.NoError(t, err)
			return dir
		},
	}
	suite.Run(t)
}

// TestBadgerDirectory_InMemory runs the suite against an in-memory database.
func TestBadgerDirectory_InMemory(t *testing.T) {
	suite := &storagetesting.StorageTestSuite{
		NewDirectory: func(t *testing.T) storage.Directory {
			store := openTestStore(t, StoreConfig{InMemory: true})
			dir, err := store.Directory("suite")
			require.NoError(t, err)
			return dir
		},
	}
	suite.Run(t)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(context.Background(), StoreConfig{})
	assert.Error(t, err)
}

func TestStore_DirectoryValidation(t *testing.T) {
	store := openTestStore(t, StoreConfig{InMemory: true})

	_, err := store.Directory("")
	assert.ErrorIs(t, err, storage.ErrInvalidName)

	_, err = store.Directory("bad\x00ns")
	assert.ErrorIs(t, err, storage.ErrInvalidName)
}

func TestStore_NamespacesAreIsolated(t *testing.T) {
	store := openTestStore(t, StoreConfig{InMemory: true})

	left, err := store.Directory("left")
	require.NoError(t, err)
	// "left" is a byte prefix of "leftover"; the separator keeps them apart.
	leftover, err := store.Directory("leftover")
	require.NoError(t, err)

	storagetesting.Populate(t, left, map[string]string{"a.txt": "A"})
	storagetesting.Populate(t, leftover, map[string]string{"b.txt": "B"})

	assert.Equal(t, []string{"a.txt"}, storagetesting.ListNames(t, left))
	assert.Equal(t, []string{"b.txt"}, storagetesting.ListNames(t, leftover))
	assert.Equal(t, "leftover", leftover.Name())
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir()

	store, err := Open(ctx, StoreConfig{DBPath: path})
	require.NoError(t, err)
	dir, err := store.Directory("data")
	require.NoError(t, err)
	storagetesting.Populate(t, dir, map[string]string{"a.txt": "hello"})
	require.NoError(t, store.Close())

	reopened := openTestStore(t, StoreConfig{DBPath: path})
	dir, err = reopened.Directory("data")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"a.txt": "hello"}, storagetesting.Snapshot(t, dir))
	assert.Equal(t, path, reopened.Path())
}

func TestFile_ReadSeesSnapshot(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, StoreConfig{InMemory: true})
	dir, err := store.Directory("data")
	require.NoError(t, err)

	f := storagetesting.MustCreate(t, dir, "a.txt", []byte("before"))
	require.NoError(t, f.Open(ctx, storage.ModeRead))
	defer f.Close()

	// Overwrite through a second handle while the first is reading.
	other := storagetesting.MustList(t, dir)["a.txt"]
	storagetesting.MustWrite(t, other, storage.ModeWrite, []byte("after!"))

	chunk, err := f.ReadChunk(64)
	require.NoError(t, err)
	assert.Equal(t, "before", string(chunk))
}
