package spray

import (
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustNew(t *testing.T, opts ...Option[int, string]) *Queue[int, string] {
	t.Helper()
	q, err := New[int, string](opts...)
	require.NoError(t, err)
	return q
}

func TestQueueInsertPeekDeleteMin(t *testing.T) {
	q := mustNew(t)
	require.True(t, q.IsEmpty())

	require.True(t, q.Insert(5, "five"))
	require.True(t, q.Insert(1, "one"))
	require.True(t, q.Insert(3, "three"))
	require.False(t, q.Insert(1, "one-again"))
	require.EqualValues(t, 3, q.Len())

	_, _, ok := q.PeekMin()
	require.True(t, ok)

	seen := map[int]bool{}
	for i := 0; i < 3; i++ {
		k, _, ok, _ := q.DeleteMin()
		require.True(t, ok)
		seen[k] = true
	}
	require.Equal(t, map[int]bool{1: true, 3: true, 5: true}, seen)
	require.True(t, q.IsEmpty())

	_, _, ok, _ = q.DeleteMin()
	require.False(t, ok)
}

// Scenario 1 from the testable-properties section: sequential
// ordering, both with spray collapsed (num_threads=1) and under a
// contention estimate of 4, must return the same key set with no repeats.
func TestScenarioSequentialOrdering(t *testing.T) {
	for _, threads := range []int32{1, 4} {
		q := mustNew(t, WithInitialThreads[int, string](threads))
		q.Insert(5, "five")
		q.Insert(3, "three")
		q.Insert(7, "seven")
		q.Insert(1, "one")

		got := map[int]bool{}
		for i := 0; i < 4; i++ {
			k, _, ok, _ := q.DeleteMin()
			require.True(t, ok)
			require.False(t, got[k], "key %d returned twice", k)
			got[k] = true
		}
		require.Equal(t, map[int]bool{1: true, 3: true, 5: true, 7: true}, got)
	}
}

// Scenario 2: duplicate rejection.
func TestScenarioDuplicateRejection(t *testing.T) {
	q := mustNew(t)
	require.True(t, q.Insert(10, "a"))
	require.False(t, q.Insert(10, "b"))

	k, v, ok, _ := q.DeleteMin()
	require.True(t, ok)
	require.Equal(t, 10, k)
	require.Equal(t, "a", v)
}

// Scenario 3: drain of a shuffled 0..999 key range from one thread.
func TestScenarioDrain(t *testing.T) {
	q := mustNew(t)

	keys := make([]int, 1000)
	for i := range keys {
		keys[i] = i
	}
	// deterministic riffle shuffle; avoids a dependency on math/rand
	// seeding and still exercises out-of-order insertion.
	shuffled := make([]int, 0, len(keys))
	for i, j := 0, len(keys)/2; i < len(keys)/2; i, j = i+1, j+1 {
		shuffled = append(shuffled, keys[i], keys[j])
	}
	for _, k := range shuffled {
		require.True(t, q.Insert(k, "v"))
	}

	seen := make(map[int]bool, len(keys))
	for i := 0; i < len(keys); i++ {
		k, _, ok, _ := q.DeleteMin()
		require.True(t, ok)
		seen[k] = true
	}
	require.Len(t, seen, len(keys))
	for _, k := range keys {
		require.True(t, seen[k])
	}

	_, _, ok, _ := q.DeleteMin()
	require.False(t, ok)
}

// Scenario 4: 8 threads each insert and then drain a disjoint 100-key
// range; the union of everything returned must equal 0..799 with no
// duplicates and the queue must end empty.
func TestScenarioConcurrentStress(t *testing.T) {
	q := mustNew(t, WithInitialThreads[int, string](8))

	const workers = 8
	const perWorker = 100
	var seen [workers * perWorker]atomic.Bool

	// A barrier between the insert and delete phases keeps every
	// worker's deletes from starting before all 800 keys are in the
	// queue; otherwise a fast worker could legitimately observe a
	// transiently empty queue while a slower one is still inserting.
	var inserted sync.WaitGroup
	var wg sync.WaitGroup
	inserted.Add(workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			base := id * perWorker
			for k := base; k < base+perWorker; k++ {
				q.Insert(k, "v")
			}
			inserted.Done()
			inserted.Wait()
			for i := 0; i < perWorker; i++ {
				k, _, ok, _ := q.DeleteMin()
				require.True(t, ok)
				require.False(t, seen[k].Swap(true), "key %d returned twice", k)
			}
		}(w)
	}
	wg.Wait()

	for k := range seen {
		require.True(t, seen[k].Load(), "key %d never returned", k)
	}
	require.EqualValues(t, 0, q.Len())
}

// Scenario 5: depletion fallback. With exact fallback enabled, a
// single key under a high thread-count estimate must still be found.
func TestScenarioDepletionFallback(t *testing.T) {
	q := mustNew(t, WithInitialThreads[int, string](16))
	q.Insert(42, "only")

	k, v, ok, _ := q.DeleteMin()
	require.True(t, ok)
	require.Equal(t, 42, k)
	require.Equal(t, "only", v)
}

// Scenario 6: parameter validity at construction.
func TestScenarioParameterValidity(t *testing.T) {
	bad := DefaultSprayParams()
	bad.SprayBase = 0
	_, err := New[int, string](WithParams[int, string](bad))
	require.Error(t, err)

	good := DefaultSprayParams()
	good.SprayBase = 16
	good.SprayHeight = 10
	_, err = New[int, string](WithParams[int, string](good))
	require.NoError(t, err)
}

// The spray descent trades strict minimum-first ordering for a rank
// that is only bounded in expectation under concurrency, not exact
// per call. This samples that bound rather than asserting it on any
// single DeleteMin: with p concurrent callers racing the first
// DeleteMin against a freshly populated queue of consecutive integer
// keys, a key's own value is its rank at insertion time, so the
// returned keys double as a rank sample. At least 95% of them must
// land at or below C*p*log2(p)^3 for an empirically chosen C.
func TestRankBoundUnderConcurrentDeleteMin(t *testing.T) {
	const p = 64
	const n = 100_000
	const rankConstant = 2.0

	q := mustNew(t, WithInitialThreads[int, string](p))
	for i := 0; i < n; i++ {
		require.True(t, q.Insert(i, "v"))
	}

	log2p := math.Log2(float64(p))
	bound := rankConstant * float64(p) * log2p * log2p * log2p

	var wg sync.WaitGroup
	ranks := make([]int, p)
	oks := make([]bool, p)
	wg.Add(p)
	for i := 0; i < p; i++ {
		go func(idx int) {
			defer wg.Done()
			k, _, ok, _ := q.DeleteMin()
			ranks[idx] = k
			oks[idx] = ok
		}(i)
	}
	wg.Wait()

	withinBound := 0
	for i := 0; i < p; i++ {
		require.True(t, oks[i], "DeleteMin should find a key in a freshly populated queue")
		if float64(ranks[i]) <= bound {
			withinBound++
		}
	}
	require.GreaterOrEqual(t, float64(withinBound)/float64(p), 0.95,
		"at least 95%% of %d concurrent DeleteMins should return a key ranked <= %.0f, got ranks %v", p, bound, ranks)
}

func TestQueueConcurrentProducersConsumers(t *testing.T) {
	q := mustNew(t, WithInitialThreads[int, string](8))

	const n = 3000
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(k int) {
			defer wg.Done()
			q.Insert(k, "v")
		}(i)
	}
	wg.Wait()
	q.SetNumThreads(8)

	var drained int64
	seen := make([]atomic.Bool, n)
	const workers = 8
	var cwg sync.WaitGroup
	for w := 0; w < workers; w++ {
		cwg.Add(1)
		go func() {
			defer cwg.Done()
			for {
				k, _, ok, _ := q.DeleteMin()
				if !ok {
					return
				}
				if seen[k].Swap(true) {
					t.Errorf("key %d drained twice", k)
				}
				atomic.AddInt64(&drained, 1)
			}
		}()
	}
	cwg.Wait()

	require.EqualValues(t, n, drained)
	require.True(t, q.IsEmpty())
}
