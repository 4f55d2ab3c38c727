// Package epoch implements epoch-based memory reclamation (EBR) for
// lock-free data structures.
//
// Threads announce entry and exit of read-side critical sections. A node
// unlinked from a shared structure is retired rather than released: the
// release callback runs only once the global epoch has advanced two steps
// past the epoch the node was retired in, at which point no thread can still
// hold a reference acquired before the unlink.
//
// Design: 3-epoch scheme (Fraser, 2004) with per-thread retire lists. A
// slot's retire lists are written and drained exclusively by the goroutine
// registered on that slot, so the retire path takes no locks; its only
// shared-memory writes are the epoch announcement and the domain's atomic
// reclamation counters.
//
// Under a garbage collector the point of EBR is not memory safety but object
// reuse: the release callback may return a node to a pool, and the epoch
// barrier is what makes handing a node back to an allocator sound while
// lock-free readers may still be traversing it.
package epoch

import "sync/atomic"

const (
	// Count is the number of epoch residue classes. Three is the minimum
	// for the advance-by-two reclamation rule.
	Count = 3

	// MaxThreads is the fixed size of the registration table.
	MaxThreads = 64
)

// quiescent is the observed-epoch value published by a thread outside any
// critical section. It compares as "always caught up".
const quiescent = ^uint64(0)

// FreeFunc releases a retired pointer once no reader can still hold it.
type FreeFunc func(ptr any)

// record is a single entry in a slot's retire list.
type record struct {
	ptr  any
	next *record
}

// slot is the per-thread registration state.
//
// active and observed are shared with every thread that runs tryAdvance.
// enters and the retire lists are owned by the registered goroutine alone;
// no other thread reads or writes them while the slot is active. The
// trailing padding keeps neighbouring slots on separate cache lines so that
// epoch announcements on one slot do not invalidate another slot's line.
type slot struct {
	active   atomic.Bool
	observed atomic.Uint64

	enters uint64
	retire [Count]*record

	_ [80]byte
}

// Options configures a reclamation domain.
type Options struct {
	// AdvanceEvery makes Enter attempt a global epoch advance only on
	// every Nth entry. 1 (the default) attempts on every entry; larger
	// values trade reclamation latency for less traffic on the global
	// epoch counter under heavy churn.
	AdvanceEvery uint64
}

// Domain is an independent reclamation domain: one global epoch, one
// registration table, one release callback. A data structure embeds its own
// Domain so that retired nodes from different structures never mix.
type Domain struct {
	global atomic.Uint64

	retired atomic.Uint64
	freed   atomic.Uint64

	freeFn       FreeFunc
	advanceEvery uint64

	slots [MaxThreads]slot
}

// New creates a domain that releases retired pointers through freeFn.
// freeFn may be nil, in which case reclamation only counts.
func New(freeFn FreeFunc) *Domain {
	return NewWithOptions(freeFn, Options{})
}

// NewWithOptions creates a domain with explicit tuning.
func NewWithOptions(freeFn FreeFunc, opts Options) *Domain {
	if opts.AdvanceEvery == 0 {
		opts.AdvanceEvery = 1
	}
	d := &Domain{
		freeFn:       freeFn,
		advanceEvery: opts.AdvanceEvery,
	}
	for i := range d.slots {
		d.slots[i].observed.Store(quiescent)
	}
	return d
}

// Register claims a slot for the calling goroutine and returns its index,
// or -1 if all MaxThreads slots are taken. The caller must pass the index
// to every subsequent Enter/Exit/Retire and release it with Unregister.
func (d *Domain) Register() int {
	for i := range d.slots {
		if d.slots[i].active.Load() {
			continue
		}
		if d.slots[i].active.CompareAndSwap(false, true) {
			d.slots[i].observed.Store(d.global.Load())
			d.slots[i].enters = 0
			return i
		}
	}
	return -1
}

// Unregister drains the slot's retire lists through the release callback
// and returns the slot to the table. This is the only point where a slot's
// arrears are guaranteed to drain; a thread that exits without unregistering
// strands its retired nodes until Destroy.
func (d *Domain) Unregister(slotIdx int) {
	if slotIdx < 0 || slotIdx >= MaxThreads {
		return
	}
	s := &d.slots[slotIdx]
	s.observed.Store(quiescent)
	for i := 0; i < Count; i++ {
		d.drain(s, i)
	}
	s.active.Store(false)
}

// Enter begins a read-side critical section: it publishes the current
// global epoch as this slot's observed epoch, opportunistically tries to
// advance the global epoch, and reclaims this slot's own queue from two
// epochs back.
func (d *Domain) Enter(slotIdx int) {
	s := &d.slots[slotIdx]
	g := d.global.Load()
	s.observed.Store(g)

	s.enters++
	if s.enters%d.advanceEvery == 0 {
		d.tryAdvance(slotIdx)
	}
	if g >= 2 {
		d.drain(s, int((g-2)%Count))
	}
}

// Exit ends the critical section by publishing the quiescent sentinel.
// No reclamation happens here; arrears drain on the next Enter or at
// Unregister.
func (d *Domain) Exit(slotIdx int) {
	d.slots[slotIdx].observed.Store(quiescent)
}

// Retire schedules ptr for release once the global epoch has advanced two
// steps. Only the goroutine registered on slotIdx may call this; the retire
// list push is a plain write.
//
// A negative slot index releases ptr immediately. That is the unregistered
// fallback: without a slot there is no queue to park the pointer on, and the
// caller is trusted to hold no other references.
func (d *Domain) Retire(slotIdx int, ptr any) {
	if slotIdx < 0 {
		d.free(ptr)
		return
	}
	rec := newRecord()
	rec.ptr = ptr

	s := &d.slots[slotIdx]
	idx := d.global.Load() % Count
	rec.next = s.retire[idx]
	s.retire[idx] = rec
	d.retired.Add(1)
}

// tryAdvance bumps the global epoch if every active slot has either caught
// up with it or is quiescent. On success it reclaims the caller's own queue
// from two epochs behind the new value. It never touches another slot's
// queues: those drain when their owners next enter or unregister.
func (d *Domain) tryAdvance(slotIdx int) {
	g := d.global.Load()
	for i := range d.slots {
		if !d.slots[i].active.Load() {
			continue
		}
		te := d.slots[i].observed.Load()
		if te != quiescent && te < g {
			return
		}
	}
	if !d.global.CompareAndSwap(g, g+1) {
		return
	}
	// New epoch is g+1; the queue two behind it is (g-1) mod Count.
	d.drain(&d.slots[slotIdx], int((g+Count-1)%Count))
}

// drain releases every record on one of s's retire lists. Caller must be
// the slot's owner, or hold the whole domain quiescent (Destroy).
func (d *Domain) drain(s *slot, idx int) {
	rec := s.retire[idx]
	s.retire[idx] = nil
	for rec != nil {
		next := rec.next
		d.free(rec.ptr)
		putRecord(rec)
		rec = next
	}
}

func (d *Domain) free(ptr any) {
	if d.freeFn != nil {
		d.freeFn(ptr)
	}
	d.freed.Add(1)
}

// Destroy drains every slot's arrears. Not safe concurrently with any other
// operation on the domain; callers must have joined all participating
// goroutines first.
func (d *Domain) Destroy() {
	for i := range d.slots {
		for q := 0; q < Count; q++ {
			d.drain(&d.slots[i], q)
		}
		d.slots[i].active.Store(false)
		d.slots[i].observed.Store(quiescent)
	}
}

// Epoch returns the current global epoch. Diagnostic.
func (d *Domain) Epoch() uint64 { return d.global.Load() }

// Retired returns the number of pointers handed to Retire on a valid slot.
func (d *Domain) Retired() uint64 { return d.retired.Load() }

// Freed returns the number of pointers released through the callback,
// including immediate releases from slotless Retire calls.
func (d *Domain) Freed() uint64 { return d.freed.Load() }
