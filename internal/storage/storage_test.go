package storage

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

type testRecord struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestOpen_EmptyPath(t *testing.T) {
	store, err := Open("", zerolog.Nop())
	require.Error(t, err)
	assert.Nil(t, store)
}

func TestOpen_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "test.db")

	store, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestStore_PutGetRoundTrip(t *testing.T) {
	store := openTestStore(t)

	in := testRecord{Name: "cart", Count: 3}
	require.NoError(t, store.Put(KeyCart, in))

	var out testRecord
	found, err := store.Get(KeyCart, &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)
}

func TestStore_GetMissingKey(t *testing.T) {
	store := openTestStore(t)

	var out testRecord
	found, err := store.Get("missing", &out)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, testRecord{}, out)
}

func TestStore_GetCorruptRecordTreatedAsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	store, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	// Write garbage bytes directly, bypassing Put's JSON marshalling.
	err = store.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(stateBucket)).Put([]byte(KeyCart), []byte("{not json"))
	})
	require.NoError(t, err)

	var out testRecord
	found, err := store.Get(KeyCart, &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_KeysAreIsolated(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Put(KeyCart, testRecord{Name: "cart"}))
	require.NoError(t, store.Put(KeySession, testRecord{Name: "session"}))

	var cart, session testRecord
	found, err := store.Get(KeyCart, &cart)
	require.NoError(t, err)
	require.True(t, found)

	found, err = store.Get(KeySession, &session)
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, "cart", cart.Name)
	assert.Equal(t, "session", session.Name)
}

func TestStore_Delete(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Put(KeyRecentlyViewed, testRecord{Name: "recent"}))
	require.NoError(t, store.Delete(KeyRecentlyViewed))

	var out testRecord
	found, err := store.Get(KeyRecentlyViewed, &out)
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting an absent key is a no-op.
	require.NoError(t, store.Delete(KeyRecentlyViewed))
}

func TestStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	store, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, store.Put(KeyCart, testRecord{Name: "cart", Count: 2}))
	require.NoError(t, store.Close())

	reopened, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	var out testRecord
	found, err := reopened.Get(KeyCart, &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, out.Count)
}
