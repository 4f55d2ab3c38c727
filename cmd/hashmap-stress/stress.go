package main

import (
	"flag"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/buggy-murray/lockfree-hashmap/hashmap"
)

func printVersion() {
	info := hashmap.GetInfo()
	fmt.Printf("hashmap-stress version %s\n", info.Version)
	fmt.Printf("  algorithm:   %s\n", info.Algorithm)
	fmt.Printf("  reclamation: %s\n", info.Reclamation)
	fmt.Printf("  max threads: %d\n", info.MaxThreads)
}

// stressCommand implements the 'stress' subcommand: every worker owns a
// disjoint key range and drives it through a put phase, a verify phase and a
// remove phase. Ranges must never interfere and the map must end empty.
func stressCommand(args []string) {
	fs := flag.NewFlagSet("stress", flag.ExitOnError)
	threads := fs.Int("threads", 8, "number of worker goroutines")
	keys := fs.Int("keys", 10000, "keys per worker")
	fs.Parse(args)

	if *threads < 1 || *keys < 1 {
		fmt.Fprintln(os.Stderr, "Error: -threads and -keys must be positive")
		os.Exit(1)
	}

	total := *threads * *keys
	fmt.Printf("stress: %d workers x %d keys (%d total)\n", *threads, *keys, total)

	m := hashmap.New[uint64]()
	defer m.Close()

	values := make([]uint64, total+1)
	for i := range values {
		values[i] = uint64(i)
	}

	var failures atomic.Uint64
	phase := func(name string, op func(th *hashmap.Thread[uint64], k uint64) bool) {
		start := time.Now()
		var wg sync.WaitGroup
		for w := 0; w < *threads; w++ {
			wg.Add(1)
			go func(base uint64) {
				defer wg.Done()
				th, err := m.Register()
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					failures.Add(1)
					return
				}
				defer th.Unregister()
				for k := base; k < base+uint64(*keys); k++ {
					if !op(th, k) {
						failures.Add(1)
						return
					}
				}
			}(uint64(1 + w*(*keys)))
		}
		wg.Wait()
		elapsed := time.Since(start)
		fmt.Printf("  %-7s %8d ops in %-12v (%.2fM ops/s)\n",
			name, total, elapsed.Round(time.Microsecond),
			float64(total)/elapsed.Seconds()/1e6)
	}

	phase("put", func(th *hashmap.Thread[uint64], k uint64) bool {
		if prior := th.Put(k, &values[k]); prior != nil {
			fmt.Fprintf(os.Stderr, "Error: put %d displaced a value in a disjoint range\n", k)
			return false
		}
		return true
	})

	if got := m.Count(); got != int64(total) {
		fmt.Fprintf(os.Stderr, "Error: count %d after put phase, want %d\n", got, total)
		os.Exit(1)
	}

	phase("get", func(th *hashmap.Thread[uint64], k uint64) bool {
		if got := th.Get(k); got != &values[k] {
			fmt.Fprintf(os.Stderr, "Error: get %d returned the wrong value\n", k)
			return false
		}
		return true
	})

	phase("remove", func(th *hashmap.Thread[uint64], k uint64) bool {
		if got := th.Remove(k); got != &values[k] {
			fmt.Fprintf(os.Stderr, "Error: remove %d returned the wrong value\n", k)
			return false
		}
		return true
	})

	if got := m.Count(); got != 0 {
		fmt.Fprintf(os.Stderr, "Error: count %d after remove phase, want 0\n", got)
		os.Exit(1)
	}
	if failures.Load() > 0 {
		fmt.Fprintf(os.Stderr, "Error: %d worker failures\n", failures.Load())
		os.Exit(1)
	}

	stats := m.Stats()
	fmt.Printf("  capacity %d, epoch %d, retired %d, freed %d\n",
		stats.Capacity, stats.Epoch, stats.Retired, stats.Freed)
	fmt.Println("stress: OK")
}

// churnCommand implements the 'churn' subcommand: workers hammer a shared
// key space with a get/put/remove mix for a fixed duration, then the
// reclamation counters are reported.
func churnCommand(args []string) {
	fs := flag.NewFlagSet("churn", flag.ExitOnError)
	duration := fs.Duration("duration", 5*time.Second, "how long to run")
	threads := fs.Int("threads", 8, "number of worker goroutines")
	keySpace := fs.Uint64("keyspace", 4096, "size of the shared key space")
	fs.Parse(args)

	if *threads < 1 || *keySpace < 1 || *duration <= 0 {
		fmt.Fprintln(os.Stderr, "Error: -threads, -keyspace and -duration must be positive")
		os.Exit(1)
	}

	fmt.Printf("churn: %d workers over %d keys for %v\n", *threads, *keySpace, *duration)

	m := hashmap.New[uint64]()
	defer m.Close()

	value := uint64(1)
	deadline := time.Now().Add(*duration)

	var ops atomic.Uint64
	var wg sync.WaitGroup
	for w := 0; w < *threads; w++ {
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			th, err := m.Register()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return
			}
			defer th.Unregister()

			var done uint64
			x := seed
			for {
				// Check the clock in batches; it is not free.
				for i := 0; i < 1024; i++ {
					x = x*6364136223846793005 + 1442695040888963407
					key := x%(*keySpace) + 1
					switch x >> 62 {
					case 0, 1:
						th.Get(key)
					case 2:
						th.Put(key, &value)
					default:
						th.Remove(key)
					}
					done++
				}
				if time.Now().After(deadline) {
					break
				}
			}
			ops.Add(done)
		}(uint64(w + 1))
	}
	wg.Wait()

	stats := m.Stats()
	fmt.Printf("  %d ops (%.2fM ops/s)\n",
		ops.Load(), float64(ops.Load())/duration.Seconds()/1e6)
	fmt.Printf("  count %d, capacity %d\n", stats.Count, stats.Capacity)
	fmt.Printf("  epoch %d, retired %d, freed %d\n",
		stats.Epoch, stats.Retired, stats.Freed)
}
