package nvs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "region.bin")
	store := NewFileStore(path)
	t.Cleanup(func() { store.Close() })
	return store, path
}

func TestFileStoreCreatesErasedRegion(t *testing.T) {
	store, path := newTestFileStore(t)
	require.NoError(t, store.Init(97))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, raw, 97)
	for _, b := range raw {
		require.Equal(t, byte(EraseSentinel), b)
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	store, path := newTestFileStore(t)
	require.NoError(t, store.Init(97))
	require.NoError(t, store.WriteBytes(0, []byte("durable")))
	require.NoError(t, store.Commit())
	require.NoError(t, store.Close())

	// A new store over the same file sees the committed bytes.
	reopened := NewFileStore(path)
	defer reopened.Close()
	require.NoError(t, reopened.Init(97))

	data, err := reopened.ReadBytes(0, 7)
	require.NoError(t, err)
	assert.Equal(t, []byte("durable"), data)
}

func TestFileStoreRejectsWrongSizedRegion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 42), 0o600))

	store := NewFileStore(path)
	defer store.Close()
	assert.Error(t, store.Init(97))
}

func TestFileStoreBoundsChecks(t *testing.T) {
	store, _ := newTestFileStore(t)
	require.NoError(t, store.Init(97))

	_, err := store.ReadBytes(96, 2)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.ErrorIs(t, store.WriteBytes(-1, []byte{1}), ErrOutOfRange)
}

func TestFileStoreErase(t *testing.T) {
	store, _ := newTestFileStore(t)
	require.NoError(t, store.Init(97))
	require.NoError(t, store.WriteBytes(0, []byte("secret")))
	require.NoError(t, store.Commit())

	require.NoError(t, store.Erase())

	data, err := store.ReadBytes(0, 6)
	require.NoError(t, err)
	for _, b := range data {
		assert.Equal(t, byte(EraseSentinel), b)
	}
}

func TestFileStoreRequiresInit(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "region.bin"))

	_, err := store.ReadBytes(0, 1)
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, store.Commit(), ErrNotInitialized)
}
