// Package parallel provides the data-parallel loop used for per-row feature expansion.
package parallel

import (
	"runtime"
	"sync"

	"github.com/klauspost/cpuid/v2"
)

// Config controls how For splits its index range.
type Config struct {
	Enabled      bool // Run chunks on separate goroutines
	NumWorkers   int  // Upper bound on goroutines per call
	MinChunkSize int  // Rows below which a chunk is not worth a goroutine
}

// DefaultConfig sizes the pool from the physical core count.
//
// Hyperthreads share the FPU, so physical cores are preferred when cpuid can
// report them.
func DefaultConfig() Config {
	n := cpuid.CPU.PhysicalCores
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64,
	}
}

// Sequential returns a config that always runs in the calling goroutine.
func Sequential() Config {
	return Config{}
}

// For calls f(i) for every i in [0, n) and returns once all calls are done.
//
// Small ranges run inline. f must be safe to call concurrently for distinct i.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || cfg.NumWorkers <= 1 || n < cfg.MinChunkSize {
		for i := range n {
			f(i)
		}
		return
	}

	chunk := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize, 1)

	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		wg.Go(func() {
			for i := lo; i < hi; i++ {
				f(i)
			}
		})
	}
	wg.Wait()
}

// Describe names the host CPU for the version banner.
func Describe() string {
	if name := cpuid.CPU.BrandName; name != "" {
		return name
	}
	return runtime.GOARCH
}
