package hashmap

import (
	"errors"

	"github.com/buggy-murray/lockfree-hashmap/internal/hashmap/table"
)

// ErrThreadLimit is returned by Register when every registration slot is
// taken. Unregistered operations keep working; only node recycling is lost.
var ErrThreadLimit = errors.New("hashmap: thread registration limit reached")

// Map is a lock-free hash map from uint64 keys to *V values.
//
// All methods except Close are safe for concurrent use by any number of
// goroutines. The zero Map is not usable; create one with New.
type Map[V any] struct {
	core *table.Table[V]
}

// Stats is a point-in-time diagnostic snapshot of a Map. The fields are read
// without mutual synchronization.
type Stats struct {
	// Count is the number of live mappings.
	Count int64

	// Capacity is the current bucket count.
	Capacity uint64

	// Epoch is the reclamation domain's global epoch.
	Epoch uint64

	// Retired is the number of objects handed to deferred reclamation so
	// far, whether or not they have been reclaimed since.
	Retired uint64

	// Freed is the number of objects reclaimed so far.
	Freed uint64
}

// New creates an empty map with the default initial capacity of 16 buckets.
// The map grows automatically; it never shrinks.
func New[V any]() *Map[V] {
	return &Map[V]{core: table.New[V]()}
}

// Put maps key to value and returns the value it displaced, or nil if the
// key was absent. Key 0 and nil values are rejected with a nil return.
func (m *Map[V]) Put(key uint64, value *V) *V {
	return m.core.Put(-1, key, value)
}

// Get returns the value mapped to key, or nil if the key is absent.
func (m *Map[V]) Get(key uint64) *V {
	return m.core.Get(-1, key)
}

// Remove unmaps key and returns the value it held, or nil if the key was
// absent.
func (m *Map[V]) Remove(key uint64) *V {
	return m.core.Remove(-1, key)
}

// Count returns the number of live mappings. Exact when no mutation is in
// flight, an estimate otherwise.
func (m *Map[V]) Count() int64 { return m.core.Count() }

// Capacity returns the current bucket count.
func (m *Map[V]) Capacity() uint64 { return m.core.Capacity() }

// Stats returns point-in-time diagnostics.
func (m *Map[V]) Stats() Stats {
	s := m.core.Snapshot()
	return Stats{
		Count:    s.Count,
		Capacity: s.Capacity,
		Epoch:    s.Epoch,
		Retired:  s.Retired,
		Freed:    s.Freed,
	}
}

// Close releases the map's internal resources. It is not safe to call
// concurrently with any other method, and the map must not be used after.
// Goroutines holding a Thread must Unregister before Close.
func (m *Map[V]) Close() { m.core.Close() }
