package spscring

import (
	"sync"
	"testing"
)

// TestNewPanicsOnBadSize verifies the constructor rejects sizes that are
// either non-power-of-two or <= 0.
func TestNewPanicsOnBadSize(t *testing.T) {
	bad := []int{0, -1, 3, 1000}
	for _, sz := range bad {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("New(%d) should panic", sz)
				}
			}()
			_ = New[uint64](sz)
		}()
	}
}

// TestFIFOOrder is scenario S1: a ring of size 8, producer pushes
// [1..7], consumer pops all seven; the popped sequence must equal the
// pushed sequence in order, and the ring must end up empty.
func TestFIFOOrder(t *testing.T) {
	r := New[uint64](8)
	for i := uint64(1); i <= 7; i++ {
		if !r.Push(i) {
			t.Fatalf("push %d unexpectedly failed", i)
		}
	}
	for i := uint64(1); i <= 7; i++ {
		got, ok := r.Pop()
		if !ok {
			t.Fatalf("pop %d: ring unexpectedly empty", i)
		}
		if got != i {
			t.Fatalf("pop order violated: got %d, want %d", got, i)
		}
	}
	if _, ok := r.Pop(); ok {
		t.Fatal("ring should be empty after draining all pushes")
	}
}

// TestCapacityBoundary is scenario S2: a ring of size 4 accepts 3
// writes, rejects the 4th (occupancy is capped at N-1), then accepts
// again after a pop frees a slot.
func TestCapacityBoundary(t *testing.T) {
	r := New[uint64](4)
	for i := uint64(0); i < 3; i++ {
		if !r.Push(i) {
			t.Fatalf("push %d should have succeeded", i)
		}
	}
	if r.Push(99) {
		t.Fatal("push into a full ring (N-1 occupancy reached) should fail")
	}
	if _, ok := r.Pop(); !ok {
		t.Fatal("pop should succeed after 3 pushes")
	}
	if !r.Push(99) {
		t.Fatal("push should succeed again once a slot is freed")
	}
}

// TestPeekDoesNotAdvance confirms Peek is read-only and Advance is what
// actually frees the slot for reuse.
func TestPeekDoesNotAdvance(t *testing.T) {
	r := New[uint64](4)
	r.Push(42)

	v, ok := r.Peek()
	if !ok || v != 42 {
		t.Fatalf("Peek() = (%d, %v), want (42, true)", v, ok)
	}
	v, ok = r.Peek()
	if !ok || v != 42 {
		t.Fatal("repeated Peek must return the same value")
	}
	if !r.Advance() {
		t.Fatal("Advance should succeed on a non-empty ring")
	}
	if _, ok := r.Peek(); ok {
		t.Fatal("ring should be empty after Advance")
	}
}

// TestConcurrentProducerConsumer drives a genuine SPSC workload across two
// goroutines and checks the consumer observes every value in order —
// this is law 1 (SPSC FIFO) under real concurrency rather than
// single-threaded simulation.
func TestConcurrentProducerConsumer(t *testing.T) {
	const n = 200_000
	r := New[uint64](1024)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := uint64(0); i < n; i++ {
			for !r.Push(i) {
				// back off until the consumer frees a slot
			}
		}
	}()

	var mismatch bool
	go func() {
		defer wg.Done()
		for i := uint64(0); i < n; i++ {
			v := r.PopWait()
			if v != i {
				mismatch = true
				return
			}
		}
	}()

	wg.Wait()
	if mismatch {
		t.Fatal("consumer observed values out of order")
	}
}

// TestSizeApproximatesOccupancy checks Size tracks pushes/pops in the
// single-threaded case where it is exact, not merely approximate.
func TestSizeApproximatesOccupancy(t *testing.T) {
	r := New[uint64](8)
	if r.Size() != 0 {
		t.Fatalf("empty ring Size() = %d, want 0", r.Size())
	}
	for i := uint64(0); i < 5; i++ {
		r.Push(i)
	}
	if r.Size() != 5 {
		t.Fatalf("Size() = %d, want 5", r.Size())
	}
	r.Pop()
	if r.Size() != 4 {
		t.Fatalf("Size() = %d, want 4", r.Size())
	}
}
