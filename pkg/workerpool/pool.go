// Package workerpool provides a bounded goroutine pool used for the
// fan-out request mode. Sequential probes never touch it.
package workerpool

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool runs submitted tasks on at most Cap() goroutines.
type Pool struct {
	workers int
	tasks   chan func()
	wg      sync.WaitGroup
	once    sync.Once
	closed  atomic.Bool
	panics  atomic.Int64
}

// New starts a pool with the given number of workers. Non-positive
// values fall back to GOMAXPROCS.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		workers: workers,
		tasks:   make(chan func(), workers),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.run(task)
	}
}

// run executes one task; a panicking task does not take the worker down.
func (p *Pool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.panics.Add(1)
		}
	}()
	task()
}

// Submit queues a task, blocking while the queue is full. It returns
// false if the pool is closed.
func (p *Pool) Submit(task func()) (ok bool) {
	if task == nil || p.closed.Load() {
		return false
	}
	// A concurrent Close may close the channel between the check and the
	// send.
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	p.tasks <- task
	return true
}

// Cap returns the worker count.
func (p *Pool) Cap() int { return p.workers }

// Panics returns how many tasks panicked.
func (p *Pool) Panics() int64 { return p.panics.Load() }

// Close stops accepting tasks and waits for queued ones to finish.
func (p *Pool) Close() {
	p.once.Do(func() {
		p.closed.Store(true)
		close(p.tasks)
	})
	p.wg.Wait()
}

// Map applies fn to every item on the pool and returns the results in
// item order. A task that panics yields the zero R and a non-nil entry
// in errs at the same index. Items that could not be submitted because
// the pool was closed are reported the same way.
func Map[T, R any](p *Pool, items []T, fn func(T) R) (results []R, errs []error) {
	results = make([]R, len(items))
	errs = make([]error, len(items))
	var wg sync.WaitGroup
	wg.Add(len(items))
	for i, item := range items {
		i, item := i, item
		submitted := p.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("workerpool: task panicked: %v", r)
				}
			}()
			results[i] = fn(item)
		})
		if !submitted {
			errs[i] = ErrClosed
			wg.Done()
		}
	}
	wg.Wait()
	return results, errs
}
