// Package hashmap provides a lock-free concurrent hash map for uint64 keys
// with pointer values, built on split-ordered lists.
//
// The map never blocks: Put, Get and Remove are lock-free on every path,
// including table growth. Resizing publishes a wider bucket index and moves
// no elements, so there is no stop-the-world rehash and no latency cliff.
//
// # Quick Start
//
//	m := hashmap.New[string]()
//	defer m.Close()
//
//	v := "hello"
//	m.Put(42, &v)
//	if got := m.Get(42); got != nil {
//		fmt.Println(*got)
//	}
//	m.Remove(42)
//
// # Registered Threads
//
// Goroutines that mutate the map heavily should register:
//
//	th, err := m.Register()
//	if err != nil {
//		// all registration slots taken
//	}
//	defer th.Unregister()
//
//	th.Put(1, &v)
//	th.Get(1)
//	th.Remove(1)
//
// A registered goroutine participates in epoch-based memory reclamation:
// nodes it unlinks are parked until no concurrent reader can still hold
// them, then recycled through an internal pool instead of falling to the
// garbage collector. Unregistered operations are always safe and always
// lock-free; they simply skip the recycling and lean on the collector.
//
// The registration table holds up to 64 goroutines at a time. [Register]
// returns [ErrThreadLimit] when it is full.
//
// # Semantics
//
//   - Keys are uint64; key 0 is reserved and rejected.
//   - Values are pointers; nil is not a value, it is the absent marker.
//   - Put returns the displaced value, or nil on fresh insertion.
//   - Remove returns the removed value, or nil if the key was absent.
//   - Count is maintained with relaxed atomics: exact once mutation
//     stops, a close estimate while it runs.
//
// # How It Works
//
// Every element lives in one globally sorted lock-free linked list (Harris,
// 2001). The sort key is the bit-reversed hash, so the elements of a bucket
// form a contiguous run of the list and doubling the table only adds new
// sentinel nodes between existing runs (Shalev & Shavit, JACM 2006).
// Deletion marks a node's outgoing link first and unlinks it afterwards;
// unlinked nodes are reclaimed through a three-epoch scheme (Fraser, 2004).
//
// # References
//
// Split-ordered lists (JACM 2006):
// https://doi.org/10.1145/1147954.1147958
//
// A pragmatic implementation of non-blocking linked-lists (Harris, 2001):
// https://doi.org/10.1007/3-540-45414-4_21
package hashmap
