package workpool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsTasks(t *testing.T) {
	p := New(4, 16)
	defer p.Shutdown()

	var count atomic.Int64
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		ok := p.Submit(func() {
			defer wg.Done()
			count.Add(1)
		})
		if !ok {
			wg.Done()
			t.Fatal("Submit returned false on a running pool")
		}
	}
	wg.Wait()

	if got := count.Load(); got != 32 {
		t.Errorf("ran %d tasks, want 32", got)
	}
}

func TestPoolDefaults(t *testing.T) {
	p := New(0, 0)
	defer p.Shutdown()

	done := make(chan struct{})
	if !p.Submit(func() { close(done) }) {
		t.Fatal("Submit returned false")
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("task did not run")
	}
}

func TestPoolSubmitAfterShutdown(t *testing.T) {
	p := New(2, 4)
	p.Shutdown()

	if p.Submit(func() { t.Error("task ran after shutdown") }) {
		t.Error("Submit returned true after shutdown")
	}
	if p.TrySubmit(func() { t.Error("task ran after shutdown") }) {
		t.Error("TrySubmit returned true after shutdown")
	}
}

func TestPoolTrySubmitFullQueue(t *testing.T) {
	p := New(1, 1)
	defer p.Shutdown()

	block := make(chan struct{})
	defer close(block)

	// Occupy the single worker, then fill the one-slot queue.
	if !p.Submit(func() { <-block }) {
		t.Fatal("Submit (worker) returned false")
	}
	// The worker may not have dequeued yet; keep trying until the
	// queue slot is taken.
	deadline := time.Now().Add(5 * time.Second)
	for !p.TrySubmit(func() { <-block }) {
		if time.Now().After(deadline) {
			t.Fatal("could not fill queue slot")
		}
		time.Sleep(time.Millisecond)
	}

	// Worker busy and queue full: TrySubmit must refuse without blocking.
	if p.TrySubmit(func() { t.Error("overflow task ran") }) {
		t.Error("TrySubmit returned true with a full queue")
	}
}

func TestPoolShutdownIdempotent(t *testing.T) {
	p := New(2, 4)
	p.Shutdown()
	p.Shutdown()
}

func TestPoolShutdownWaitsForInFlight(t *testing.T) {
	p := New(1, 1)

	started := make(chan struct{})
	var finished atomic.Bool
	p.Submit(func() {
		close(started)
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
	})

	<-started
	p.Shutdown()

	if !finished.Load() {
		t.Error("Shutdown returned before the in-flight task finished")
	}
}

func TestPoolNilTask(t *testing.T) {
	p := New(1, 1)
	defer p.Shutdown()

	if p.Submit(nil) {
		t.Error("Submit(nil) returned true")
	}
	if p.TrySubmit(nil) {
		t.Error("TrySubmit(nil) returned true")
	}
}
