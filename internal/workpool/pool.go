// Package workpool provides the goroutine pool that runs decode tasks for
// the texture streaming cache.
package workpool

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool runs submitted tasks on a fixed set of worker goroutines.
//
// Thread safety: Pool is safe for concurrent use. Submit never blocks the
// caller indefinitely once Shutdown has begun.
type Pool struct {
	// tasks is the shared work queue.
	tasks chan func()

	// done signals workers to stop.
	done chan struct{}

	// wg waits for all workers to finish.
	wg sync.WaitGroup

	// running indicates whether the pool is accepting work.
	running atomic.Bool

	// stopOnce guards Shutdown.
	stopOnce sync.Once
}

// New creates a pool with the given number of workers and queue depth.
// If workers <= 0, GOMAXPROCS is used. If queueSize <= 0, a buffer of
// 4x workers is used (enough to hide submission latency).
func New(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if queueSize <= 0 {
		queueSize = workers * 4
	}

	p := &Pool{
		tasks: make(chan func(), queueSize),
		done:  make(chan struct{}),
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

// worker is the main loop for each worker goroutine. Tasks already queued
// when Shutdown is called are dropped; tasks already running complete.
func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.done:
			return
		case task := <-p.tasks:
			if task != nil {
				task()
			}
		}
	}
}

// Submit queues a task for execution. It reports false when the pool has
// been shut down; the task is not run in that case. Submit blocks while the
// queue is full, which backpressures producers.
func (p *Pool) Submit(task func()) bool {
	if task == nil || !p.running.Load() {
		return false
	}
	select {
	case p.tasks <- task:
		return true
	case <-p.done:
		return false
	}
}

// TrySubmit queues a task without blocking. It reports false when the queue
// is full or the pool has been shut down; the task is not run in that case.
func (p *Pool) TrySubmit(task func()) bool {
	if task == nil || !p.running.Load() {
		return false
	}
	select {
	case p.tasks <- task:
		return true
	default:
		return false
	}
}

// Shutdown stops the pool and waits for in-flight tasks to complete.
// Queued-but-unstarted tasks are discarded. Idempotent.
func (p *Pool) Shutdown() {
	p.stopOnce.Do(func() {
		p.running.Store(false)
		close(p.done)
	})
	p.wg.Wait()
}
