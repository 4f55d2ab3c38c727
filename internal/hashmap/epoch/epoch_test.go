package epoch

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestRegisterAssignsDistinctSlots(t *testing.T) {
	d := New(nil)

	seen := make(map[int]bool)
	for i := 0; i < MaxThreads; i++ {
		slot := d.Register()
		if slot < 0 {
			t.Fatalf("Register() = %d on registration %d, want non-negative", slot, i)
		}
		if seen[slot] {
			t.Fatalf("Register() returned slot %d twice", slot)
		}
		seen[slot] = true
	}

	if slot := d.Register(); slot != -1 {
		t.Errorf("Register() on full table = %d, want -1", slot)
	}
}

func TestRegisterReusesFreedSlot(t *testing.T) {
	d := New(nil)

	slots := make([]int, MaxThreads)
	for i := range slots {
		slots[i] = d.Register()
	}

	d.Unregister(slots[17])
	if slot := d.Register(); slot != slots[17] {
		t.Errorf("Register() after Unregister(%d) = %d, want the freed slot back", slots[17], slot)
	}
}

func TestUnregisterOutOfRange(t *testing.T) {
	d := New(nil)
	// Must not panic on the sentinel or on garbage indices.
	d.Unregister(-1)
	d.Unregister(MaxThreads)
	d.Unregister(MaxThreads + 100)
}

// TestRetireThenCycle checks the two-epoch reclamation rule: pointers retired
// in one critical section are released after the global epoch has advanced
// twice, which a lone thread achieves with two more enter/exit cycles.
func TestRetireThenCycle(t *testing.T) {
	var frees atomic.Uint64
	d := New(func(ptr any) { frees.Add(1) })

	slot := d.Register()
	if slot < 0 {
		t.Fatal("Register() failed on empty domain")
	}

	d.Enter(slot)
	for i := 0; i < 10; i++ {
		d.Retire(slot, &struct{}{})
	}
	d.Exit(slot)

	if got := frees.Load(); got != 0 {
		t.Fatalf("frees = %d immediately after retire, want 0", got)
	}
	if got := d.Retired(); got != 10 {
		t.Fatalf("Retired() = %d, want 10", got)
	}

	for i := 0; i < 2; i++ {
		d.Enter(slot)
		d.Exit(slot)
	}

	if got := frees.Load(); got != 10 {
		t.Errorf("frees = %d after two cycles, want 10", got)
	}
	if got := d.Freed(); got != 10 {
		t.Errorf("Freed() = %d, want 10", got)
	}

	d.Unregister(slot)
}

func TestUnregisterDrainsArrears(t *testing.T) {
	var frees atomic.Uint64
	d := New(func(ptr any) { frees.Add(1) })

	slot := d.Register()
	d.Enter(slot)
	for i := 0; i < 7; i++ {
		d.Retire(slot, &struct{}{})
	}
	d.Exit(slot)

	d.Unregister(slot)
	if got := frees.Load(); got != 7 {
		t.Errorf("frees = %d after Unregister, want 7", got)
	}
}

func TestRetireWithoutSlotFreesImmediately(t *testing.T) {
	var frees atomic.Uint64
	d := New(func(ptr any) { frees.Add(1) })

	d.Retire(-1, &struct{}{})

	if got := frees.Load(); got != 1 {
		t.Errorf("frees = %d after slotless retire, want 1", got)
	}
	if got := d.Retired(); got != 0 {
		t.Errorf("Retired() = %d, want 0: immediate releases are not queued", got)
	}
	if got := d.Freed(); got != 1 {
		t.Errorf("Freed() = %d, want 1", got)
	}
}

// TestStalledReaderBlocksAdvance pins the safety property: a slot that
// announced an older epoch and has not exited keeps the global epoch, and
// therefore reclamation, from moving past it.
func TestStalledReaderBlocksAdvance(t *testing.T) {
	var frees atomic.Uint64
	d := New(func(ptr any) { frees.Add(1) })

	reader := d.Register()
	writer := d.Register()

	// The reader pins the current epoch and never exits.
	d.Enter(reader)
	pinned := d.Epoch()

	d.Enter(writer)
	d.Retire(writer, &struct{}{})
	d.Exit(writer)

	for i := 0; i < 10; i++ {
		d.Enter(writer)
		d.Exit(writer)
	}

	if got := d.Epoch(); got > pinned+1 {
		t.Errorf("Epoch() = %d with a reader pinned at %d, want at most %d", got, pinned, pinned+1)
	}
	if got := frees.Load(); got != 0 {
		t.Errorf("frees = %d with a stalled reader, want 0", got)
	}

	// Releasing the reader unblocks advancement.
	d.Exit(reader)
	for i := 0; i < 3; i++ {
		d.Enter(writer)
		d.Exit(writer)
	}
	if got := frees.Load(); got != 1 {
		t.Errorf("frees = %d after the reader exited, want 1", got)
	}
}

func TestAdvanceEvery(t *testing.T) {
	d := NewWithOptions(nil, Options{AdvanceEvery: 4})

	slot := d.Register()
	for i := 0; i < 3; i++ {
		d.Enter(slot)
		d.Exit(slot)
	}
	if got := d.Epoch(); got != 0 {
		t.Errorf("Epoch() = %d after 3 enters with AdvanceEvery=4, want 0", got)
	}

	d.Enter(slot)
	d.Exit(slot)
	if got := d.Epoch(); got != 1 {
		t.Errorf("Epoch() = %d after 4th enter, want 1", got)
	}
}

func TestNilFreeFuncCounts(t *testing.T) {
	d := New(nil)

	slot := d.Register()
	d.Enter(slot)
	d.Retire(slot, &struct{}{})
	d.Exit(slot)
	d.Unregister(slot)

	if got := d.Freed(); got != 1 {
		t.Errorf("Freed() = %d with nil callback, want 1", got)
	}
}

func TestDestroyDrainsEverySlot(t *testing.T) {
	var frees atomic.Uint64
	d := New(func(ptr any) { frees.Add(1) })

	for i := 0; i < 3; i++ {
		slot := d.Register()
		d.Enter(slot)
		for j := 0; j < 5; j++ {
			d.Retire(slot, &struct{}{})
		}
		d.Exit(slot)
		// Deliberately no Unregister: the arrears stay stranded.
	}

	d.Destroy()
	if got := frees.Load(); got != 15 {
		t.Errorf("frees = %d after Destroy, want 15", got)
	}
}

// TestConcurrentRetire runs the full lifecycle from several goroutines at
// once and checks that every retired pointer is released exactly once.
func TestConcurrentRetire(t *testing.T) {
	const (
		goroutines = 4
		perG       = 1000
	)

	var frees atomic.Uint64
	d := New(func(ptr any) { frees.Add(1) })

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			slot := d.Register()
			if slot < 0 {
				t.Error("Register() failed under concurrency")
				return
			}
			for i := 0; i < perG; i++ {
				d.Enter(slot)
				d.Retire(slot, &struct{}{})
				d.Exit(slot)
			}
			d.Unregister(slot)
		}()
	}
	wg.Wait()

	if got := frees.Load(); got != goroutines*perG {
		t.Errorf("frees = %d, want %d", frees.Load(), goroutines*perG)
	}
	if got := d.Retired(); got != goroutines*perG {
		t.Errorf("Retired() = %d, want %d", got, goroutines*perG)
	}
}

// TestConcurrentRegisterChurn hammers the registration table from more
// goroutines than it has slots to check that claim/release never hands the
// same slot to two holders.
func TestConcurrentRegisterChurn(t *testing.T) {
	d := New(nil)

	var holders [MaxThreads]atomic.Int32
	var wg sync.WaitGroup
	for g := 0; g < MaxThreads*2; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				slot := d.Register()
				if slot < 0 {
					continue
				}
				if n := holders[slot].Add(1); n != 1 {
					t.Errorf("slot %d held by %d goroutines", slot, n)
				}
				d.Enter(slot)
				d.Exit(slot)
				holders[slot].Add(-1)
				d.Unregister(slot)
			}
		}()
	}
	wg.Wait()
}

func BenchmarkEnterExit(b *testing.B) {
	d := New(nil)
	b.RunParallel(func(pb *testing.PB) {
		slot := d.Register()
		if slot < 0 {
			b.Fatal("Register() failed")
		}
		defer d.Unregister(slot)
		for pb.Next() {
			d.Enter(slot)
			d.Exit(slot)
		}
	})
}

func BenchmarkRetire(b *testing.B) {
	d := New(nil)
	ptr := &struct{}{}
	b.RunParallel(func(pb *testing.PB) {
		slot := d.Register()
		if slot < 0 {
			b.Fatal("Register() failed")
		}
		defer d.Unregister(slot)
		for pb.Next() {
			d.Enter(slot)
			d.Retire(slot, ptr)
			d.Exit(slot)
		}
	})
}
