// Copyright 2025 The go-accelsort Authors. SPDX-License-Identifier: Apache-2.0

// Package workerpool provides the persistent set of goroutines a host device
// uses as its compute units. A Pool is created with the device and reused by
// every dispatch, so launching a kernel does not spawn goroutines.
//
// Usage:
//
//	pool := workerpool.New(runtime.GOMAXPROCS(0))
//	defer pool.Close()
//
//	// One call per kernel launch; returns when every group is done.
//	err := pool.RunGroups(numGroups, func(group int) error {
//	    return runGroup(group)
//	})
package workerpool

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a persistent worker pool. Workers are spawned once at creation and
// reused by every call.
type Pool struct {
	numWorkers int
	workC      chan workItem
	closeOnce  sync.Once
	closed     atomic.Bool
}

// workItem is one worker's share of a parallel call.
type workItem struct {
	fn      func()
	barrier *sync.WaitGroup
}

// New creates a new worker pool with the specified number of workers.
// If numWorkers <= 0, uses GOMAXPROCS.
func New(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		numWorkers: numWorkers,
		workC:      make(chan workItem, numWorkers*2),
	}
	for range numWorkers {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for item := range p.workC {
		item.fn()
		item.barrier.Done()
	}
}

// NumWorkers returns the number of workers in the pool.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Close shuts down the worker pool. Pending work completes first.
// Calling Close multiple times is safe; calls made after Close run on the
// caller's goroutine.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.workC)
	})
}

// ParallelFor splits [0, n) into one contiguous chunk per worker and calls
// fn(start, end) for each chunk. Blocks until all chunks are done.
func (p *Pool) ParallelFor(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	workers := min(p.numWorkers, n)
	if workers == 1 || p.closed.Load() {
		fn(0, n)
		return
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for i := range workers {
		start := i * chunkSize
		if start >= n {
			break
		}
		end := min(start+chunkSize, n)
		wg.Add(1)
		p.workC <- workItem{
			fn:      func() { fn(start, end) },
			barrier: &wg,
		}
	}
	wg.Wait()
}

// RunGroups calls fn for every group index in [0, n), handing groups out to
// workers one at a time. Groups run concurrently and in no particular order.
//
// Once any call returns an error no further groups are started, and RunGroups
// returns the error of the lowest failing group index after all running groups
// finish.
func (p *Pool) RunGroups(n int, fn func(group int) error) error {
	if n <= 0 {
		return nil
	}
	workers := min(p.numWorkers, n)
	if workers == 1 || p.closed.Load() {
		for g := range n {
			if err := fn(g); err != nil {
				return err
			}
		}
		return nil
	}

	var (
		next     atomic.Int64
		failed   atomic.Bool
		mu       sync.Mutex
		firstErr error
		firstIdx = n
		wg       sync.WaitGroup
	)
	wg.Add(workers)
	for range workers {
		p.workC <- workItem{
			fn: func() {
				for !failed.Load() {
					g := int(next.Add(1)) - 1
					if g >= n {
						return
					}
					if err := fn(g); err != nil {
						mu.Lock()
						if g < firstIdx {
							firstIdx, firstErr = g, err
						}
						mu.Unlock()
						failed.Store(true)
						return
					}
				}
			},
			barrier: &wg,
		}
	}
	wg.Wait()
	return firstErr
}
