// Command strarenademo is a non-core stress-test / demo driver for
// the arena-style string allocator. It is explicitly out of scope per
// spec.md §1 ("CLI demo... NOT core") and exists only to exercise the
// pool under concurrent-with-external-locking churn, the way the
// teacher's main.go hammers its hybrid allocator with many
// goroutines.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/shenjiangwei/strarena/pool"
)

const (
	defaultCapacityUnits = 1 << 20 // 1Mi code units
	defaultWorkers       = 10
	defaultOps           = 200000
)

// runResult mirrors the teacher's TestResult, adapted to the string
// pool's metrics.
type runResult struct {
	iteration     int
	totalLive     int
	totalOps      int
	finalFragPct  float64
	memoryBytes   int64
	totalDuration time.Duration
}

func runIteration(iteration int, capacityUnits int64, workers, ops int) runResult {
	p, err := pool.New(capacityUnits, true)
	if err != nil {
		panic(fmt.Sprintf("strarenademo: creating pool: %s", err))
	}
	defer p.Dispose()

	// The pool is single-writer (spec.md §5); concurrent goroutines
	// must serialize through an external lock.
	var mu sync.Mutex
	live := make(map[uint64]struct{})

	start := time.Now()
	var wg sync.WaitGroup
	var opCounter int
	var opMu sync.Mutex

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rng := rand.New(rand.NewSource(time.Now().UnixNano()))
			for {
				opMu.Lock()
				if opCounter >= ops {
					opMu.Unlock()
					return
				}
				opCounter++
				opMu.Unlock()

				if rng.Float64() < 0.7 {
					payload := randomPayload(rng)
					mu.Lock()
					id, err := p.AllocateFilled(payload)
					if err == nil && id != 0 {
						live[id] = struct{}{}
					}
					mu.Unlock()
				} else {
					mu.Lock()
					for id := range live {
						delete(live, id)
						_ = p.Free(id)
						break
					}
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	stats := p.Stats()
	mu.Unlock()

	return runResult{
		iteration:     iteration,
		totalLive:     len(live),
		totalOps:      ops,
		finalFragPct:  stats.FragmentationPct,
		memoryBytes:   stats.TotalFreeBytes,
		totalDuration: time.Since(start),
	}
}

func randomPayload(rng *rand.Rand) []byte {
	n := rng.Intn(256) + 1
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('a' + rng.Intn(26))
	}
	return b
}

func main() {
	capacityUnits := flag.Int64("capacity", defaultCapacityUnits, "initial pool capacity in code units")
	workers := flag.Int("workers", defaultWorkers, "concurrent goroutines hammering the pool")
	ops := flag.Int("ops", defaultOps, "total allocate/free operations per iteration")
	iterations := flag.Int("iterations", 3, "number of iterations to run")
	flag.Parse()

	fmt.Printf("strarena demo: capacity=%s workers=%d ops=%d iterations=%d\n",
		humanize.Comma(*capacityUnits), *workers, *ops, *iterations)

	for i := 1; i <= *iterations; i++ {
		r := runIteration(i, *capacityUnits, *workers, *ops)
		fmt.Printf("iteration %d: live=%d ops=%d frag=%.2f%% free_bytes=%s duration=%s\n",
			r.iteration, r.totalLive, r.totalOps, r.finalFragPct,
			humanize.Bytes(uint64(r.memoryBytes)), r.totalDuration)
	}
}
