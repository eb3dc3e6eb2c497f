package nvs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreReadsErasedBytes(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Init(97))

	data, err := store.ReadBytes(0, 97)
	require.NoError(t, err)
	for _, b := range data {
		require.Equal(t, byte(EraseSentinel), b)
	}
}

func TestMemoryStoreWriteReadRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Init(97))

	require.NoError(t, store.WriteBytes(10, []byte("payload")))
	require.NoError(t, store.Commit())

	data, err := store.ReadBytes(10, 7)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
	assert.Equal(t, 1, store.Commits)
}

func TestMemoryStoreInitIdempotent(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Init(97))
	require.NoError(t, store.WriteBytes(0, []byte("keep")))

	// Same capacity is a no-op and must not wipe the region.
	require.NoError(t, store.Init(97))
	data, err := store.ReadBytes(0, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("keep"), data)

	assert.Error(t, store.Init(64))
}

func TestMemoryStoreBoundsChecks(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Init(97))

	_, err := store.ReadBytes(90, 8)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.ErrorIs(t, store.WriteBytes(96, []byte("xx")), ErrOutOfRange)
	_, err = store.ReadBytes(-1, 2)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.ReadBytes(0, 1)
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, store.WriteBytes(0, []byte{1}), ErrNotInitialized)
	assert.ErrorIs(t, store.Commit(), ErrNotInitialized)
	assert.ErrorIs(t, store.Erase(), ErrNotInitialized)
}

func TestMemoryStoreErase(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Init(97))
	require.NoError(t, store.WriteBytes(0, []byte("secret")))

	require.NoError(t, store.Erase())

	data, err := store.ReadBytes(0, 6)
	require.NoError(t, err)
	for _, b := range data {
		assert.Equal(t, byte(EraseSentinel), b)
	}
}

func TestMemoryStoreFaultInjection(t *testing.T) {
	store := NewMemoryStore()
	store.FailInit = true
	assert.Error(t, store.Init(97))

	store.FailInit = false
	require.NoError(t, store.Init(97))

	store.FailCommit = true
	assert.Error(t, store.Commit())
	assert.Equal(t, 0, store.Commits)
}
