package kv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestThreadSafeMapSimpleCRUD(t *testing.T) {
	m := NewThreadSafeMap[string, int]()

	m.AddOrUpdate("a", 1)
	m.AddOrUpdate("b", 2)

	v, ok := m.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, v)

	keys := m.ListKeys()
	require.ElementsMatch(t, []string{"a", "b"}, keys)

	vals := m.ListValues()
	require.ElementsMatch(t, []int{1, 2}, vals)

	m.Delete("a")
	_, ok = m.Get("a")
	require.False(t, ok)

	require.NoError(t, m.Purge())
	require.Empty(t, m.ListKeys())
}

func TestThreadSafeMapListKeysFilter(t *testing.T) {
	m := NewThreadSafeMap[string, int]()
	m.AddOrUpdate("keep", 1)
	m.AddOrUpdate("drop", 2)

	keys := m.ListKeys(func(key string) bool { return key == "keep" })
	require.Equal(t, []string{"keep"}, keys)
}

func TestThreadSafeMapReplace(t *testing.T) {
	m := NewThreadSafeMap[string, int]()
	m.AddOrUpdate("stale", 1)
	m.Replace(map[string]int{"fresh": 2})

	_, ok := m.Get("stale")
	require.False(t, ok)
	v, ok := m.Get("fresh")
	require.True(t, ok)
	require.Equal(t, 2, v)
}
