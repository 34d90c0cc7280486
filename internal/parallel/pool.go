// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package parallel runs per-row image work on a fixed set of goroutines.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// minBandRows is the smallest band handed to a worker.
const minBandRows = 8

// WorkerPool distributes work items across long-lived worker goroutines.
// Each worker owns a queue; idle workers steal from the others.
//
// WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers    int
	workQueues []chan func()
	done       chan struct{}
	wg         sync.WaitGroup
	running    atomic.Bool

	// submit is held shared while ExecuteAll enqueues and exclusively by
	// Close, so no item is queued after the workers start draining.
	submit sync.RWMutex
}

// NewWorkerPool starts a pool. workers <= 0 uses GOMAXPROCS.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	queueSize := max(workers*4, 8)
	p := &WorkerPool{
		workers:    workers,
		workQueues: make([]chan func(), workers),
		done:       make(chan struct{}),
	}
	for i := range workers {
		p.workQueues[i] = make(chan func(), queueSize)
	}
	p.running.Store(true)
	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	queue := p.workQueues[id]
	for {
		select {
		case <-p.done:
			drain(queue)
			return
		case work := <-queue:
			work()
		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
				continue
			}
			select {
			case <-p.done:
				drain(queue)
				return
			case work := <-queue:
				work()
			}
		}
	}
}

func drain(queue chan func()) {
	for {
		select {
		case work := <-queue:
			work()
		default:
			return
		}
	}
}

func (p *WorkerPool) steal(id int) func() {
	for i := range p.workers {
		if i == id {
			continue
		}
		select {
		case work := <-p.workQueues[i]:
			return work
		default:
		}
	}
	return nil
}

// ExecuteAll runs every item and waits for all of them. On a closed pool
// the items run on the calling goroutine. Items must not call ExecuteAll
// or Rows on the same pool.
func (p *WorkerPool) ExecuteAll(work []func()) {
	if len(work) == 0 {
		return
	}
	p.submit.RLock()
	if !p.running.Load() {
		p.submit.RUnlock()
		for _, fn := range work {
			fn()
		}
		return
	}
	var wg sync.WaitGroup
	wg.Add(len(work))
	for i, fn := range work {
		p.workQueues[i%p.workers] <- func() {
			defer wg.Done()
			fn()
		}
	}
	p.submit.RUnlock()
	wg.Wait()
}

// Rows splits [0, height) into contiguous bands, one or more per worker,
// and calls fn for each band in parallel. It returns when all bands are
// done.
func (p *WorkerPool) Rows(height int, fn func(y0, y1 int)) {
	if height <= 0 {
		return
	}
	bands := min(p.workers, (height+minBandRows-1)/minBandRows)
	if bands <= 1 {
		fn(0, height)
		return
	}
	work := make([]func(), bands)
	for i := range work {
		y0 := i * height / bands
		y1 := (i + 1) * height / bands
		work[i] = func() { fn(y0, y1) }
	}
	p.ExecuteAll(work)
}

// Close waits for queued work and stops the workers. It is safe to call
// more than once.
func (p *WorkerPool) Close() {
	p.submit.Lock()
	if !p.running.CompareAndSwap(true, false) {
		p.submit.Unlock()
		return
	}
	close(p.done)
	p.submit.Unlock()
	p.wg.Wait()
}

// Workers returns the number of workers.
func (p *WorkerPool) Workers() int { return p.workers }

// IsRunning reports whether the pool accepts work.
func (p *WorkerPool) IsRunning() bool { return p.running.Load() }
