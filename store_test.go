package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreValues(t *testing.T) {
	store := newTestStore(t)

	_, ok, err := store.GetValue("nothing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetValue("k", []byte("one")))
	require.NoError(t, store.SetValue("k", []byte("two")))
	v, ok, err := store.GetValue("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("two"), v)
}

func TestStoreHistorySurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewStore(path)
	require.NoError(t, err)
	h := NewHistory(store, 0)
	h.Record("cats")
	h.Record("dogs")
	require.NoError(t, store.Close())

	store, err = NewStore(path)
	require.NoError(t, err)
	defer store.Close()
	assert.Equal(t, []string{"dogs", "cats"}, NewHistory(store, 0).All())
}

func TestStoreUsers(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.AddUser("ann", "secret", 1))

	assert.True(t, store.TestUser("ann", "secret"))
	assert.True(t, store.TestUser("ann", "secret"), "served from credential cache")
	assert.False(t, store.TestUser("ann", "wrong"))
	assert.False(t, store.TestUser("bob", "secret"))

	require.NoError(t, store.AddUser("ann", "changed", 1))
	assert.True(t, store.TestUser("ann", "changed"))
}

func TestBoltStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv", "history.bolt")
	bs, err := NewBoltStore(path)
	require.NoError(t, err)

	_, ok, err := bs.GetValue(searchHistoryKey)
	require.NoError(t, err)
	assert.False(t, ok)

	h := NewHistory(bs, 0)
	for _, q := range []string{"a", "b", "c", "d", "e", "f"} {
		require.NoError(t, h.Record(q))
	}
	require.NoError(t, bs.Close())

	bs, err = NewBoltStore(path)
	require.NoError(t, err)
	defer bs.Close()
	assert.Equal(t, []string{"f", "e", "d", "c", "b"}, NewHistory(bs, 0).All())
}

func TestMemoryStoreCopies(t *testing.T) {
	m := NewMemoryStore()
	value := []byte("abc")
	m.SetValue("k", value)
	value[0] = 'x'

	got, ok, err := m.GetValue("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), got)
	got[1] = 'y'

	again, _, _ := m.GetValue("k")
	assert.Equal(t, []byte("abc"), again)
}
