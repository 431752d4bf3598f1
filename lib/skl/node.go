// Package skl implements a lock-free ordered skip list: concurrent
// insert, search and logical-then-physical delete with helping, relying
// on Go's garbage collector for safe reclamation of unlinked nodes.
//
// The mark bit that classic lock-free skip lists steal from the low
// order bits of a forward pointer (Fraser, Herlihy & Shavit) is instead
// carried by a small immutable wrapper, link[K,V], addressed through
// atomic.Pointer. A single CAS on the wrapper pointer updates pointer
// and mark as one indivisible word, without resorting to unsafe.Pointer
// bit-stealing or uintptr arithmetic that would hide live pointers from
// the garbage collector.
package skl

import (
	"sync/atomic"

	"github.com/maschad/spray/lib/infra"
)

// MaxLevel bounds the height any node (including HEAD) may reach.
const MaxLevel = 32

// link is the atomically-swapped (successor, marked) pair stored in each
// of a node's forward slots. marked set on node n's link at level lvl
// means n itself has been logically removed at that level; its
// successor pointer is left untouched until a helper physically
// unlinks it from its predecessor.
type link[K infra.OrderedKey, V any] struct {
	to     *node[K, V]
	marked bool
}

// node is a skip list entry. next has length topLevel; there is no
// sentinel tail node, the end of every level's chain is nil.
type node[K infra.OrderedKey, V any] struct {
	key      K
	val      V
	topLevel int32
	next     []atomic.Pointer[link[K, V]]

	// deleted is the exclusive-claim flag: exactly one caller of
	// DeleteNode ever wins the CompareAndSwap from false to true for a
	// given node. It is distinct from the per-level marked bits, which
	// record structural (traversal-visible) removal.
	deleted atomic.Bool
}

func newNode[K infra.OrderedKey, V any](key K, val V, topLevel int32, succs []*node[K, V]) *node[K, V] {
	n := &node[K, V]{
		key:      key,
		val:      val,
		topLevel: topLevel,
		next:     make([]atomic.Pointer[link[K, V]], topLevel),
	}
	for i := int32(0); i < topLevel; i++ {
		n.next[i].Store(&link[K, V]{to: succs[i]})
	}
	return n
}

func newHead[K infra.OrderedKey, V any](height int32) *node[K, V] {
	h := &node[K, V]{topLevel: height, next: make([]atomic.Pointer[link[K, V]], height)}
	for i := int32(0); i < height; i++ {
		h.next[i].Store(&link[K, V]{})
	}
	return h
}

// loadNext reports n's own successor and mark at level, i.e. whether n
// itself has been logically removed at that level.
func (n *node[K, V]) loadNext(level int32) (succ *node[K, V], marked bool) {
	l := n.next[level].Load()
	return l.to, l.marked
}

func (n *node[K, V]) casNext(level int32, oldSucc *node[K, V], oldMarked bool, newSucc *node[K, V], newMarked bool) bool {
	old := n.next[level].Load()
	if old.to != oldSucc || old.marked != oldMarked {
		return false
	}
	return n.next[level].CompareAndSwap(old, &link[K, V]{to: newSucc, marked: newMarked})
}

// mark sets n's own mark bit at level, retrying on CAS failure against a
// concurrently changing successor pointer. There is never contention on
// the bit itself: only the single winner of n.deleted's claim CAS ever
// marks n.
func (n *node[K, V]) mark(level int32) {
	for {
		old := n.next[level].Load()
		if old.marked {
			return
		}
		if n.next[level].CompareAndSwap(old, &link[K, V]{to: old.to, marked: true}) {
			return
		}
	}
}
