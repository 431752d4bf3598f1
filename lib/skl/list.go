package skl

import (
	"sync"
	"sync/atomic"

	"github.com/maschad/spray/lib/infra"
	"github.com/maschad/spray/lib/xrand"
)

// Comparator orders keys the same way infra.OrderedKeyComparator does,
// but returns a plain int since skl never needs the wider int64 range.
type Comparator[K infra.OrderedKey] func(a, b K) int

// DefaultComparator orders K by its natural <, >, == relation.
func DefaultComparator[K infra.OrderedKey]() Comparator[K] {
	return func(a, b K) int {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}
}

// List is a lock-free ordered skip list keyed by K with value V. The
// zero value is not usable; construct with New.
type List[K infra.OrderedKey, V any] struct {
	head       *node[K, V]
	maxLevel   int32
	levelInUse atomic.Int32
	size       atomic.Int64
	cmp        Comparator[K]
	randPool   sync.Pool
}

// Cursor is an opaque, read-only handle onto a node, the minimal
// traversal surface the spray layer is allowed: it can walk forward
// level by level and ask the list to claim-and-remove whatever it
// lands on, but it can never reach into node internals directly.
type Cursor[K infra.OrderedKey, V any] struct {
	n *node[K, V]
}

// IsNil reports whether the cursor has run off the end of the list
// (the logical TAIL, represented as nil rather than a sentinel node).
func (c Cursor[K, V]) IsNil() bool { return c.n == nil }

// Key returns the zero value when IsNil.
func (c Cursor[K, V]) Key() K {
	var zero K
	if c.n == nil {
		return zero
	}
	return c.n.key
}

// Value returns the zero value when IsNil.
func (c Cursor[K, V]) Value() V {
	var zero V
	if c.n == nil {
		return zero
	}
	return c.n.val
}

// step hops from the cursor's node to its next unmarked neighbour at
// level, helping skip any run of already-marked (logically deleted)
// nodes along the way. A run of marked nodes is invisible to callers
// and costs them nothing beyond this single step.
func (c Cursor[K, V]) step(level int32) Cursor[K, V] {
	cur := c.n
	for cur != nil {
		next, marked := cur.loadNext(level)
		if !marked {
			return Cursor[K, V]{n: next}
		}
		cur = next
	}
	return Cursor[K, V]{}
}

// Advance moves the cursor hops steps along level's forward chain. This
// is the spray descent's sole means of movement: it samples hops
// uniformly and calls Advance once per level on its way down.
func (c Cursor[K, V]) Advance(level int32, hops int) Cursor[K, V] {
	cur := c
	for i := 0; i < hops && !cur.IsNil(); i++ {
		cur = cur.step(level)
	}
	return cur
}

// New constructs an empty list.
func New[K infra.OrderedKey, V any](opts ...Option[K, V]) *List[K, V] {
	cfg := &config[K, V]{cmp: DefaultComparator[K](), maxLevel: MaxLevel}
	for _, o := range opts {
		o.apply(cfg)
	}
	l := &List[K, V]{
		head:     newHead[K, V](MaxLevel),
		maxLevel: cfg.maxLevel,
		cmp:      cfg.cmp,
	}
	l.levelInUse.Store(1)
	l.randPool.New = func() any { return xrand.NewSource() }
	return l
}

// Head returns a cursor onto the sentinel head node, the spray layer's
// sole entry point into the list.
func (l *List[K, V]) Head() Cursor[K, V] { return Cursor[K, V]{n: l.head} }

// Levels reports the highest level currently populated by any node,
// i.e. the "level array" length the spray layer samples its starting
// level H from.
func (l *List[K, V]) Levels() int32 { return l.levelInUse.Load() }

// Len is an advisory count of live keys; concurrent mutation can make
// it momentarily inexact.
func (l *List[K, V]) Len() int64 { return l.size.Load() }

// IsEmpty is advisory for the same reason Len is.
func (l *List[K, V]) IsEmpty() bool { return l.Len() <= 0 }

func (l *List[K, V]) acquireRand() *xrand.Source {
	return l.randPool.Get().(*xrand.Source)
}

func (l *List[K, V]) releaseRand(rs *xrand.Source) {
	l.randPool.Put(rs)
}

// findPredecessors walks every level below level from HEAD, filling
// preds[i]/succs[i] with the last unmarked node < key and its immediate
// successor at level i, physically unlinking any marked nodes it
// crosses along the way (the "helping" step). It returns the node whose
// key equals the search key, or nil.
//
// A failed helping CAS means some other goroutine changed the same
// predecessor's pointer first; rather than reconcile partial state,
// the whole walk restarts from HEAD. This is the conservative variant
// of "restart from the highest affected level" the algorithm permits.
func (l *List[K, V]) findPredecessors(key K, level int32, preds, succs []*node[K, V]) *node[K, V] {
	for {
		restart := false
		pred := l.head
		for lvl := level - 1; lvl >= 0; lvl-- {
			curr, _ := pred.loadNext(lvl)
			for curr != nil {
				next, marked := curr.loadNext(lvl)
				if marked {
					if !pred.casNext(lvl, curr, false, next, false) {
						restart = true
						break
					}
					curr = next
					continue
				}
				if l.cmp(curr.key, key) < 0 {
					pred = curr
					curr, _ = pred.loadNext(lvl)
					continue
				}
				break
			}
			if restart {
				break
			}
			preds[lvl] = pred
			succs[lvl] = curr
		}
		if restart {
			continue
		}
		if succs[0] != nil && l.cmp(succs[0].key, key) == 0 {
			return succs[0]
		}
		return nil
	}
}

// Insert adds key/val if key is not already present, reporting whether
// it did so. Keys are unique; Insert never overwrites an existing
// live value, matching the "no duplicate keys" invariant.
func (l *List[K, V]) Insert(key K, val V) bool {
	rs := l.acquireRand()
	defer l.releaseRand(rs)

	var preds, succs [MaxLevel]*node[K, V]

	for {
		curLevels := l.levelInUse.Load()
		if found := l.findPredecessors(key, curLevels, preds[:], succs[:]); found != nil {
			if !found.deleted.Load() {
				return false
			}
			// Claimed by a concurrent DeleteMin but not yet physically
			// unlinked; spin until the next search sees it gone.
			continue
		}

		topLevel := rs.GeometricLevel(int(l.maxLevel))
		for lvl := curLevels; lvl < topLevel; lvl++ {
			preds[lvl] = l.head
			succs[lvl] = nil
		}

		n := newNode[K, V](key, val, topLevel, succs[:topLevel])

		// Level 0 publish is the linearization point: once this CAS
		// succeeds the key is present to every subsequent search.
		if !preds[0].casNext(0, succs[0], false, n, false) {
			continue
		}

		for lvl := int32(1); lvl < topLevel; lvl++ {
			for {
				if preds[lvl].casNext(lvl, succs[lvl], false, n, false) {
					break
				}
				l.findPredecessors(key, lvl+1, preds[:], succs[:])
				// A concurrent DeleteNode can mark n at this level before
				// preds[lvl] is ever stitched to it, since n is already
				// reachable through level 0. Preserve that mark instead of
				// clobbering it with a fresh unmarked link.
				curSucc, marked := n.loadNext(lvl)
				if marked {
					break
				}
				n.casNext(lvl, curSucc, false, succs[lvl], false)
			}
		}

		for {
			old := l.levelInUse.Load()
			if topLevel <= old || l.levelInUse.CompareAndSwap(old, topLevel) {
				break
			}
		}
		l.size.Add(1)
		return true
	}
}

// Contains reports whether key is present and not yet claimed for
// deletion.
func (l *List[K, V]) Contains(key K) bool {
	var preds, succs [MaxLevel]*node[K, V]
	n := l.findPredecessors(key, l.levelInUse.Load(), preds[:], succs[:])
	return n != nil && !n.deleted.Load()
}

// PeekFirst returns the key/value of the first structurally-unmarked
// node reachable from HEAD at level 0, without claiming or removing
// it. It is advisory: a concurrent DeleteMin may have already set
// deleted on the returned node without yet marking it, so the result
// can momentarily name a key that is in the process of disappearing.
func (l *List[K, V]) PeekFirst() (key K, val V, ok bool) {
	cur, _ := l.head.loadNext(0)
	for cur != nil {
		_, marked := cur.loadNext(0)
		if !marked {
			return cur.key, cur.val, true
		}
		cur, _ = cur.loadNext(0)
	}
	return key, val, false
}

// DeleteNode attempts to claim and remove whatever node c points to. It
// is the list's sole logical-delete primitive: exactly one caller ever
// wins the claim for a given node, so at most one caller ever sees
// ok == true for it. Losing the claim (ok == false, with no error value)
// is the expected, common outcome when two sprayers land on the same
// node; it is not an error condition to the caller.
func (l *List[K, V]) DeleteNode(c Cursor[K, V]) (key K, val V, ok bool) {
	n := c.n
	if n == nil || n == l.head {
		return key, val, false
	}
	if !n.deleted.CompareAndSwap(false, true) {
		return key, val, false
	}
	for lvl := n.topLevel - 1; lvl >= 0; lvl-- {
		n.mark(lvl)
	}
	// Opportunistic physical unlink: re-running the search for this key
	// drives the same helping logic findPredecessors already performs,
	// so the now-marked node need not wait for an unrelated caller to
	// stumble across it before it is unlinked.
	var preds, succs [MaxLevel]*node[K, V]
	l.findPredecessors(n.key, n.topLevel, preds[:], succs[:])

	l.size.Add(-1)
	return n.key, n.val, true
}

// ForEachLevel0 visits, in ascending key order, every live key/value at
// level 0, stopping early if visit returns false. It never mutates the
// list and is intended for diagnostics and tests.
func (l *List[K, V]) ForEachLevel0(visit func(key K, val V) bool) {
	cur, _ := l.head.loadNext(0)
	for cur != nil {
		_, marked := cur.loadNext(0)
		if !marked {
			if !visit(cur.key, cur.val) {
				return
			}
		}
		cur, _ = cur.loadNext(0)
	}
}

// ForEachLevel visits, in ascending key order, every live key reachable
// along level's forward chain. Used by tests to check that every
// level's chain is a subsequence of level 0's.
func (l *List[K, V]) ForEachLevel(level int32, visit func(key K) bool) {
	cur, _ := l.head.loadNext(level)
	for cur != nil {
		_, marked := cur.loadNext(level)
		if !marked {
			if !visit(cur.key) {
				return
			}
		}
		cur, _ = cur.loadNext(level)
	}
}
