package skl

import (
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, l *List[int, string]) []int {
	t.Helper()
	var got []int
	l.ForEachLevel0(func(k int, _ string) bool {
		got = append(got, k)
		return true
	})
	return got
}

func TestInsertOrdersKeys(t *testing.T) {
	l := New[int, string]()
	keys := []int{50, 10, 40, 20, 30}
	for _, k := range keys {
		require.True(t, l.Insert(k, "v"))
	}
	sort.Ints(keys)
	require.Equal(t, keys, collect(t, l))
	require.EqualValues(t, len(keys), l.Len())
}

func TestInsertRejectsDuplicate(t *testing.T) {
	l := New[int, string]()
	require.True(t, l.Insert(1, "first"))
	require.False(t, l.Insert(1, "second"))
	require.True(t, l.Contains(1))
}

func TestPeekFirstAdvisory(t *testing.T) {
	l := New[int, string]()
	_, _, ok := l.PeekFirst()
	require.False(t, ok)

	l.Insert(5, "five")
	l.Insert(3, "three")
	k, v, ok := l.PeekFirst()
	require.True(t, ok)
	require.Equal(t, 3, k)
	require.Equal(t, "three", v)
}

// walkTo returns a cursor landed exactly on key, or a nil cursor if
// absent, using only the Cursor.Advance surface spray itself is
// restricted to.
func walkTo(l *List[int, string], key int) Cursor[int, string] {
	c := l.Head()
	for {
		next := c.Advance(0, 1)
		if next.IsNil() {
			return Cursor[int, string]{}
		}
		if next.Key() == key {
			return next
		}
		c = next
	}
}

func TestDeleteNodeClaimIsExclusive(t *testing.T) {
	l := New[int, string]()
	l.Insert(7, "seven")

	c := walkTo(l, 7)
	require.False(t, c.IsNil())

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, ok := l.DeleteNode(c); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), wins.Load())
	require.False(t, l.Contains(7))
	require.Empty(t, collect(t, l))
}

func TestDeleteNodeUnlinksPhysically(t *testing.T) {
	l := New[int, string]()
	for _, k := range []int{1, 2, 3, 4, 5} {
		l.Insert(k, "v")
	}
	c := walkTo(l, 3)
	key, _, ok := l.DeleteNode(c)
	require.True(t, ok)
	require.Equal(t, 3, key)
	require.Equal(t, []int{1, 2, 4, 5}, collect(t, l))
	require.EqualValues(t, 4, l.Len())
	for lvl := int32(0); lvl < l.Levels(); lvl++ {
		for cur, _ := l.head.loadNext(lvl); cur != nil; cur, _ = cur.loadNext(lvl) {
			require.NotEqual(t, 3, cur.key, "key 3 still linked at level %d", lvl)
		}
	}
}

func TestEveryLevelIsSubsequenceOfLevel0(t *testing.T) {
	l := New[int, string]()
	for i := 0; i < 500; i++ {
		l.Insert(i, "v")
	}
	level0 := collect(t, l)
	pos := make(map[int]int, len(level0))
	for i, k := range level0 {
		pos[k] = i
	}
	for lvl := int32(1); lvl < l.Levels(); lvl++ {
		last := -1
		l.ForEachLevel(lvl, func(k int) bool {
			p, ok := pos[k]
			require.True(t, ok)
			require.Greater(t, p, last)
			last = p
			return true
		})
	}
}

func TestConcurrentInsertDeleteNoDuplicationNoLoss(t *testing.T) {
	l := New[int, string]()
	const n = 2000

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(k int) {
			defer wg.Done()
			l.Insert(k, "v")
		}(i)
	}
	wg.Wait()

	require.EqualValues(t, n, l.Len())
	got := collect(t, l)
	require.Len(t, got, n)
	for i, k := range got {
		require.Equal(t, i, k)
	}

	var dwg sync.WaitGroup
	for i := 0; i < n; i += 2 {
		dwg.Add(1)
		go func(k int) {
			defer dwg.Done()
			c := walkTo(l, k)
			if c.IsNil() {
				return
			}
			l.DeleteNode(c)
		}(i)
	}
	dwg.Wait()

	remaining := collect(t, l)
	for _, k := range remaining {
		require.Equal(t, 1, k%2, "even key %d should have been deleted", k)
	}
}
