// Package parallel provides the two interchangeable data-parallel
// backends the step orchestrator chooses between at runtime: a
// chunked goroutine backend tuned for light, independent per-element
// work, and a golang.org/x/sync/errgroup backend. Both satisfy the
// same contract — every index in [0,n) is visited exactly once, with
// no ordering guarantee between indices — so swapping backends never
// changes a step's numerical result.
package parallel

import (
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Backend runs fn(i) for every i in [0, n), dividing the work across
// workers however it sees fit.
type Backend interface {
	For(n int, fn func(i int))
}

// chunksPerWorker is the granularity hint for the chunked backend: a
// "light" workload (cheap per-element work, like integration or a
// force lookup) wants more, smaller chunks than workers so a slow
// worker doesn't stall the whole barrier.
const chunksPerWorker = 4

// Chunked is the fiber/work-stealing-equivalent backend: it splits
// [0, n) into roughly numWorkers*chunksPerWorker contiguous ranges and
// runs each range on its own goroutine, one sync.WaitGroup barrier per
// call.
type Chunked struct {
	// NumWorkers defaults to runtime.GOMAXPROCS(0) when zero.
	NumWorkers int
}

func (c Chunked) For(n int, fn func(i int)) {
	if n == 0 {
		return
	}
	workers := c.NumWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	chunks := workers * chunksPerWorker
	if chunks > n {
		chunks = n
	}
	chunkSize := (n + chunks - 1) / chunks

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(i0, i1 int) {
			defer wg.Done()
			for i := i0; i < i1; i++ {
				fn(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// ErrGroup is the generic data-parallel backend: one goroutine per
// index range via errgroup.Group, sized to GOMAXPROCS. Per-element
// work in this package never returns an error, so Wait's return is
// always nil; the type is used purely for its goroutine/barrier
// bookkeeping.
type ErrGroup struct {
	NumWorkers int
}

func (e ErrGroup) For(n int, fn func(i int)) {
	if n == 0 {
		return
	}
	workers := e.NumWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}
	chunkSize := (n + workers - 1) / workers

	var g errgroup.Group
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		i0, i1 := start, end
		g.Go(func() error {
			for i := i0; i < i1; i++ {
				fn(i)
			}
			return nil
		})
	}
	_ = g.Wait()
}
