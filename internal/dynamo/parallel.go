package dynamo

import (
	"runtime"
	"sync"
)

// ParallelFor executes fn over [0, n) split into at most workers contiguous
// chunks and waits for all of them. workers <= 0 uses GOMAXPROCS.
func ParallelFor(n, workers int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		fn(0, n)
		return
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
