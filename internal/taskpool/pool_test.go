package taskpool

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmitRunsTask(t *testing.T) {
	p, err := New(2, 8)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var ran atomic.Int32
	done := make(chan struct{})
	if err := p.Submit(func() {
		ran.Add(1)
		close(done)
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}
	if ran.Load() != 1 {
		t.Errorf("ran = %d, want 1", ran.Load())
	}
	p.Shutdown()
}

func TestSubmitAfterShutdownFails(t *testing.T) {
	p, _ := New(1, 4)
	p.Shutdown()
	if err := p.Submit(func() {}); err != ErrShutdown {
		t.Errorf("Submit after Shutdown = %v, want ErrShutdown", err)
	}
}

func TestQueueFullReturnsErrFull(t *testing.T) {
	// A single worker blocked on the first task lets us fill the rest
	// of a 1-slot queue deterministically.
	p, err := New(1, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	block := make(chan struct{})
	release := make(chan struct{})

	if err := p.Submit(func() {
		close(block)
		<-release
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	<-block // worker is now busy, queue is empty but no free worker to drain it

	if err := p.Submit(func() {}); err != nil {
		t.Fatalf("first queued submit: %v", err)
	}
	if err := p.Submit(func() {}); err != ErrFull {
		t.Errorf("Submit on a full queue = %v, want ErrFull", err)
	}

	close(release)
	p.Shutdown()
}

func TestShutdownDrainsQueue(t *testing.T) {
	p, err := New(2, 16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var completed atomic.Int32
	const n = 10
	for i := 0; i < n; i++ {
		if err := p.Submit(func() { completed.Add(1) }); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
	}

	p.Shutdown()
	if got := completed.Load(); got != n {
		t.Errorf("completed = %d, want %d (Shutdown must drain the queue)", got, n)
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	p, _ := New(1, 4)
	p.Shutdown()
	p.Shutdown() // must not panic or block
}
