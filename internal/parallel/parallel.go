// Package parallel provides loop-level parallelism helpers for the CPU
// backend.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution.
type Config struct {
	Enabled    bool // run iterations on worker goroutines
	NumWorkers int  // goroutines to spread the loop over
	MinPerCall int  // minimum iterations before spawning workers
}

// DefaultConfig sizes the pool by CPU count. Small loops stay sequential;
// goroutine overhead dominates below a handful of GEMM calls.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:    n > 1,
		NumWorkers: n,
		MinPerCall: 4,
	}
}

// For executes f(i) for i in [0, n), in parallel when the configuration
// allows. f must not depend on iteration order; in backend use each
// iteration writes to a disjoint output range.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || n < cfg.MinPerCall || cfg.NumWorkers < 2 {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	chunk := (n + cfg.NumWorkers - 1) / cfg.NumWorkers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}
