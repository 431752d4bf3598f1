// Package spray implements the relaxed DeleteMin descent: a randomized,
// top-down walk over a skl.List that lands on a node within a
// statistically bounded rank of the true minimum, claims it via the
// list's own logical-delete primitive, and optionally falls back to an
// exact level-0 scan when every attempt fails to claim anything.
//
// Spray is stateless with respect to the list's structure: it only
// ever touches it through skl.List.Head, skl.List.Levels,
// skl.Cursor.Advance and skl.List.DeleteNode, the four primitives skl
// exports for exactly this purpose.
package spray

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/maschad/spray/lib/infra"
	"github.com/maschad/spray/lib/skl"
	"github.com/maschad/spray/lib/xrand"
)

// levelDropPerStep is the descent's L_drop. The source material
// documents this as an internal tuning constant ("typically 1") and
// does not list it among the externally configurable SprayParams
// fields alongside spray_base/spray_height/max_spray_attempts, so it
// stays fixed here rather than becoming a fifth knob.
const levelDropPerStep = 1

// Spray drives DeleteMin over a shared *skl.List.
type Spray[K infra.OrderedKey, V any] struct {
	list     *skl.List[K, V]
	cfg      SprayParams
	p        atomic.Int32
	randPool sync.Pool
}

// New wraps list with a spray descent governed by cfg, tuned for an
// initial estimate of numThreads concurrent participants. It rejects
// cfg if cfg.Validate reports an error.
func New[K infra.OrderedKey, V any](list *skl.List[K, V], cfg SprayParams, numThreads int32) (*Spray[K, V], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if numThreads < 1 {
		numThreads = 1
	}
	s := &Spray[K, V]{list: list, cfg: cfg}
	s.p.Store(numThreads)
	s.randPool.New = func() any { return xrand.NewSource() }
	return s, nil
}

// SetNumThreads updates the contention estimate p used to derive H and
// D on every subsequent DeleteMin. Safe to call concurrently with
// DeleteMin; a descent already in flight finishes with whichever p it
// already loaded.
func (s *Spray[K, V]) SetNumThreads(p int32) {
	if p < 1 {
		p = 1
	}
	s.p.Store(p)
}

// Params returns the SprayParams this Spray was built with.
func (s *Spray[K, V]) Params() SprayParams { return s.cfg }

// NumThreads returns the current contention estimate p.
func (s *Spray[K, V]) NumThreads() int32 { return s.p.Load() }

func (s *Spray[K, V]) acquireRand() *xrand.Source   { return s.randPool.Get().(*xrand.Source) }
func (s *Spray[K, V]) releaseRand(rs *xrand.Source) { s.randPool.Put(rs) }

// heightAndJump derives H and D from the current p: H = floor(log2 p)
// + SprayHeight, clamped to [1, MaxLevel-1]; D = ceil(SprayBase *
// log2 p), clamped to at least 1.
func (s *Spray[K, V]) heightAndJump() (h, d int32) {
	p := s.p.Load()
	log2p := math.Log2(float64(p))

	h = int32(math.Floor(log2p)) + s.cfg.SprayHeight
	if h < 1 {
		h = 1
	}
	if h > skl.MaxLevel-1 {
		h = skl.MaxLevel - 1
	}

	d = int32(math.Ceil(float64(s.cfg.SprayBase) * log2p))
	if d < 1 {
		d = 1
	}
	return h, d
}

// descend performs one spray attempt. Starting at level
// min(H, list's current top level), it repeatedly jumps a uniformly
// random [1, D] hops along the current level and steps down
// levelDropPerStep levels, landing on whatever node the cursor holds
// once the level goes negative (or the nil cursor, if a jump ran off
// the end of the list).
func (s *Spray[K, V]) descend(rs *xrand.Source) skl.Cursor[K, V] {
	h, d := s.heightAndJump()
	levels := s.list.Levels()

	lvl := h
	if lvl > levels-1 {
		lvl = levels - 1
	}
	if lvl < 0 {
		lvl = 0
	}

	cur := s.list.Head()
	for lvl >= 0 {
		hops := rs.UniformFrom1(int(d))
		cur = cur.Advance(lvl, hops)
		if cur.IsNil() {
			return cur
		}
		lvl -= levelDropPerStep
	}
	return cur
}

// procYieldCycles is the busy-wait spin passed to infra.ProcYield between
// a lost spray attempt and the next descent, giving the winner of the
// claim race a chance to finish unlinking before this goroutine resamples.
const procYieldCycles = 30

// DeleteMin removes and returns some key near the front of the queue.
// Under a contention estimate of p threads its rank among currently
// live keys is bounded in expectation; it is not guaranteed to be the
// minimum on any single call. ok is false when the exact fallback (if
// enabled) finds the queue empty, or, with fallback disabled, when every
// spray attempt fails to claim a node.
// viaFallback reports whether the returned key came from the exact
// level-0 scan rather than the spray descent.
func (s *Spray[K, V]) DeleteMin() (key K, val V, ok bool, viaFallback bool) {
	rs := s.acquireRand()
	defer s.releaseRand(rs)

	for attempt := int32(0); attempt < s.cfg.MaxAttempts; attempt++ {
		c := s.descend(rs)
		if c.IsNil() {
			infra.ProcYield(procYieldCycles)
			continue
		}
		if key, val, ok = s.list.DeleteNode(c); ok {
			return key, val, true, false
		}
		infra.ProcYield(procYieldCycles)
	}
	if !s.cfg.ExactFallbackEnabled {
		return key, val, false, false
	}
	key, val, ok = s.exactDeleteMin()
	return key, val, ok, ok
}

// exactDeleteMin walks level 0 from HEAD, claiming the first live
// node it finds. DeleteMin falls back to this when MaxAttempts keeps
// losing the claim race or keeps overshooting the tail, which happens
// increasingly often as the queue empties out under many concurrent
// sprayers.
func (s *Spray[K, V]) exactDeleteMin() (key K, val V, ok bool) {
	c := s.list.Head()
	for {
		next := c.Advance(0, 1)
		if next.IsNil() {
			return key, val, false
		}
		if key, val, ok = s.list.DeleteNode(next); ok {
			return key, val, true
		}
		c = next
	}
}
