package list

import "sync/atomic"

// Link is one immutable (successor, marked) record. A node's next field only
// ever changes by swinging its link pointer to a fresh record, so the pair is
// read and replaced atomically.
type Link[V any] struct {
	next   *Node[V]
	marked bool
}

// Node is a list element. Regular nodes hold a key and a value; dummy nodes
// are bucket sentinels with no key or value. The sort key is fixed at
// initialization; value is the only field that changes on a live node besides
// the outgoing link.
type Node[V any] struct {
	key     uint64
	sortKey uint64
	dummy   bool
	value   atomic.Pointer[V]
	next    atomic.Pointer[Link[V]]
}

// NewRegular allocates a regular node. sortKey must be the split-ordered key
// derived from key.
func NewRegular[V any](key, sortKey uint64, value *V) *Node[V] {
	n := &Node[V]{}
	n.Init(key, sortKey, value, false)
	return n
}

// NewDummy allocates a bucket sentinel sorting at sortKey.
func NewDummy[V any](sortKey uint64) *Node[V] {
	n := &Node[V]{}
	n.Init(0, sortKey, nil, true)
	return n
}

// Init readies n for insertion, overwriting any previous state. Callers
// recycling nodes through a pool must Init before every reuse; the node must
// not be reachable by any traversal when Init runs.
func (n *Node[V]) Init(key, sortKey uint64, value *V, dummy bool) {
	n.key = key
	n.sortKey = sortKey
	n.dummy = dummy
	n.value.Store(value)
	n.next.Store(&Link[V]{})
}

// Key returns the node's key. Meaningless for dummy nodes.
func (n *Node[V]) Key() uint64 { return n.key }

// SortKey returns the node's split-ordered sort key.
func (n *Node[V]) SortKey() uint64 { return n.sortKey }

// Dummy reports whether the node is a bucket sentinel.
func (n *Node[V]) Dummy() bool { return n.dummy }

// Value returns the node's current value.
func (n *Node[V]) Value() *V { return n.value.Load() }

// Next returns the node's successor and whether the node is logically
// deleted.
func (n *Node[V]) Next() (succ *Node[V], marked bool) {
	l := n.next.Load()
	return l.next, l.marked
}
