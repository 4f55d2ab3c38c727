package table

import (
	"sync"
	"sync/atomic"

	"github.com/buggy-murray/lockfree-hashmap/internal/hashmap/epoch"
	"github.com/buggy-murray/lockfree-hashmap/internal/hashmap/list"
	"github.com/buggy-murray/lockfree-hashmap/internal/hashmap/splitorder"
)

const (
	// initialCapacity is the bucket count of a fresh table. Power of two.
	initialCapacity = 16

	// loadFactor is the resize threshold in percent: the table doubles
	// when count*100 reaches capacity*loadFactor.
	loadFactor = 75
)

// bucketArray is one immutable generation of the bucket index. The capacity
// is the slot count; publishing a new array publishes the new capacity with
// it. Slots hold nil until their bucket is initialized.
type bucketArray[V any] struct {
	slots []atomic.Pointer[list.Node[V]]
}

func newBucketArray[V any](capacity uint64) *bucketArray[V] {
	return &bucketArray[V]{slots: make([]atomic.Pointer[list.Node[V]], capacity)}
}

func (a *bucketArray[V]) capacity() uint64 { return uint64(len(a.slots)) }

// Table is the map core. Values are pointers; a nil value means absent, so
// nil is rejected on insert. Key 0 is reserved.
//
// All operations except Close are safe for concurrent use. Operations take
// an epoch slot obtained from Register; callers without a slot pass a
// negative index and forgo node recycling.
type Table[V any] struct {
	buckets atomic.Pointer[bucketArray[V]]
	count   atomic.Int64

	head   *list.Node[V]
	domain *epoch.Domain
	pool   sync.Pool
}

// Stats is a point-in-time diagnostic snapshot. Taken without
// synchronization, so the fields need not be mutually consistent.
type Stats struct {
	Count    int64
	Capacity uint64
	Epoch    uint64
	Retired  uint64
	Freed    uint64
}

// New creates an empty table with the initial capacity. Bucket 0 is the
// embedded head sentinel; every other bucket initializes on first touch.
func New[V any]() *Table[V] {
	t := &Table[V]{
		head: list.NewDummy[V](0),
	}
	t.pool.New = func() any { return &list.Node[V]{} }
	t.domain = epoch.New(t.release)

	arr := newBucketArray[V](initialCapacity)
	arr.slots[0].Store(t.head)
	t.buckets.Store(arr)
	return t
}

// release is the epoch domain's free callback. Nodes go back to the pool;
// anything else (superseded bucket arrays) falls to the collector once the
// last reference here is dropped.
func (t *Table[V]) release(ptr any) {
	if n, ok := ptr.(*list.Node[V]); ok {
		t.recycle(n)
	}
}

// recycle clears a node and returns it to the pool. The node must be
// unreachable: either never inserted, or past its epoch grace period.
func (t *Table[V]) recycle(n *list.Node[V]) {
	n.Init(0, 0, nil, false)
	t.pool.Put(n)
}

func (t *Table[V]) newNode(key, sortKey uint64, value *V) *list.Node[V] {
	n := t.pool.Get().(*list.Node[V])
	n.Init(key, sortKey, value, false)
	return n
}

func (t *Table[V]) newDummy(sortKey uint64) *list.Node[V] {
	n := t.pool.Get().(*list.Node[V])
	n.Init(0, sortKey, nil, true)
	return n
}

// guard routes nodes unlinked during a traversal to the epoch domain. With a
// negative slot it returns a nil guard: unlinked nodes bypass the domain and
// the pool and fall to the garbage collector.
func (t *Table[V]) guard(slot int) list.Guard {
	if slot < 0 {
		return nil
	}
	return func(ptr any) { t.domain.Retire(slot, ptr) }
}

// Register claims an epoch slot for the calling goroutine, or returns -1
// when the domain is saturated.
func (t *Table[V]) Register() int { return t.domain.Register() }

// Unregister releases an epoch slot and drains its pending reclamation.
func (t *Table[V]) Unregister(slot int) { t.domain.Unregister(slot) }

// Put maps key to value and returns the value it displaced, or nil on a
// fresh insertion. Key 0 and nil values are rejected with a nil return.
func (t *Table[V]) Put(slot int, key uint64, value *V) *V {
	if key == 0 || value == nil {
		return nil
	}
	if slot >= 0 {
		t.domain.Enter(slot)
		defer t.domain.Exit(slot)
	}

	arr := t.buckets.Load()
	bucketHead := t.initBucket(slot, arr, splitorder.BucketOf(key, arr.capacity()))

	n := t.newNode(key, splitorder.RegularKey(key), value)
	prior, inserted := list.Insert(t.guard(slot), bucketHead, n)
	if !inserted {
		t.recycle(n)
		return prior
	}

	t.count.Add(1)
	t.maybeResize(slot)
	return nil
}

// Get returns the value mapped to key, or nil.
func (t *Table[V]) Get(slot int, key uint64) *V {
	if key == 0 {
		return nil
	}
	if slot >= 0 {
		t.domain.Enter(slot)
		defer t.domain.Exit(slot)
	}

	arr := t.buckets.Load()
	bucketHead := t.initBucket(slot, arr, splitorder.BucketOf(key, arr.capacity()))

	return list.Get(t.guard(slot), bucketHead, splitorder.RegularKey(key), key)
}

// Remove unmaps key and returns the value it held, or nil if the key was
// absent.
func (t *Table[V]) Remove(slot int, key uint64) *V {
	if key == 0 {
		return nil
	}
	if slot >= 0 {
		t.domain.Enter(slot)
		defer t.domain.Exit(slot)
	}

	arr := t.buckets.Load()
	bucketHead := t.initBucket(slot, arr, splitorder.BucketOf(key, arr.capacity()))

	val := list.Delete(t.guard(slot), bucketHead, splitorder.RegularKey(key), key)
	if val != nil {
		t.count.Add(-1)
	}
	return val
}

// Count returns the number of live mappings. The counter is updated with
// relaxed increments, so under concurrent mutation the value is a snapshot,
// not an instant truth.
func (t *Table[V]) Count() int64 { return t.count.Load() }

// Capacity returns the current bucket count.
func (t *Table[V]) Capacity() uint64 { return t.buckets.Load().capacity() }

// Snapshot returns point-in-time diagnostics.
func (t *Table[V]) Snapshot() Stats {
	return Stats{
		Count:    t.count.Load(),
		Capacity: t.Capacity(),
		Epoch:    t.domain.Epoch(),
		Retired:  t.domain.Retired(),
		Freed:    t.domain.Freed(),
	}
}

// initBucket returns bucket b's sentinel, inserting it first if the slot is
// still empty. Parents initialize before children, so the insertion walk
// starts at the parent's sentinel rather than the list head; recursion depth
// is bounded by the bit length of b.
func (t *Table[V]) initBucket(slot int, arr *bucketArray[V], b uint64) *list.Node[V] {
	if s := arr.slots[b].Load(); s != nil {
		return s
	}

	parentHead := t.head
	if p := splitorder.Parent(b); p != b {
		parentHead = t.initBucket(slot, arr, p)
	}

	n := t.newDummy(splitorder.DummyKey(b))
	resident, inserted := list.InsertDummy(t.guard(slot), parentHead, n)
	if !inserted {
		t.recycle(n)
	}

	if arr.slots[b].CompareAndSwap(nil, resident) {
		return resident
	}
	// Lost the slot to a concurrent initializer; both candidates resolved
	// to the same resident sentinel, so either pointer serves.
	return arr.slots[b].Load()
}

// maybeResize doubles the bucket array once the load threshold is reached.
// Slot pointers copy to the low half of the new array; the top half stays
// empty for lazy initialization. Sentinels initialized in the old array
// after the copy are simply re-resolved on next touch. The superseded array
// is retired so no traversal still indexing it sees it reclaimed.
func (t *Table[V]) maybeResize(slot int) {
	arr := t.buckets.Load()
	capacity := arr.capacity()
	if t.count.Load()*100 < int64(capacity)*loadFactor {
		return
	}

	bigger := newBucketArray[V](capacity * 2)
	for i := range arr.slots {
		bigger.slots[i].Store(arr.slots[i].Load())
	}

	if t.buckets.CompareAndSwap(arr, bigger) {
		t.domain.Retire(slot, arr)
	}
}

// Walk calls fn on every node of the global list in sort order, sentinels
// included, stopping early if fn returns false. Concurrent mutation makes
// the walk a best-effort snapshot; it is meant for tests and diagnostics.
func (t *Table[V]) Walk(fn func(n *list.Node[V]) bool) {
	for n, _ := t.head.Next(); n != nil; {
		if !fn(n) {
			return
		}
		n, _ = n.Next()
	}
}

// Close tears the table down: drains every pending reclamation, recycles
// every node, and drops the bucket index. Not safe concurrently with any
// other operation, and no operation may follow it.
func (t *Table[V]) Close() {
	t.domain.Destroy()

	n, _ := t.head.Next()
	for n != nil {
		next, _ := n.Next()
		t.recycle(n)
		n = next
	}
	t.head.Init(0, 0, nil, true)

	t.buckets.Store(newBucketArray[V](0))
	t.count.Store(0)
}
