// Package spscring implements a lock-free single-producer/single-consumer
// ring buffer generic over its payload type.
//
// This consolidates what the ancestor codebase shipped as four
// near-identical rings differing only in fixed payload width
// (unsafe.Pointer, [24]byte, [56]byte twice) into one generic
// implementation. The structure deliberately separates producer and
// consumer fields onto their own cache lines to eliminate false-sharing,
// and each slot carries a sequence number that hands its payload between
// producer and consumer, so Push/Pop stay wait-free; the only other shared
// atomic is the consumer cursor, which Push reads to cap occupancy.
package spscring

import "sync/atomic"

// slot couples a payload with its sequence stamp. The sequence is the
// synchronization point for the payload itself: the producer
// publishes by storing seq = t+1 with release ordering after writing val,
// and the consumer claims by observing that store with acquire ordering
// before reading val.
type slot[T any] struct {
	seq uint64
	val T
}

// Ring is a fixed-capacity circular buffer dedicated to exactly one
// producer goroutine and one consumer goroutine for its entire lifetime.
// Violating that discipline is undefined per the concurrency contract —
// the ring performs no ownership checks on the hot path.
type Ring[T any] struct {
	_    [64]byte // isolates tail from whatever precedes this Ring in memory
	tail uint64   // producer cursor, mutated only by the producer

	_    [56]byte // cache-line isolation between tail and head
	head uint64   // consumer cursor, mutated only by the consumer

	_ [56]byte // isolates head from mask/step/buf below

	mask uint64
	step uint64
	buf  []slot[T]
}

// New allocates a ring whose capacity must be a power of two; the
// constructor panics otherwise so the bit-masking arithmetic stays valid.
// Occupancy is bounded to [0, size-1] — one slot is permanently held back
// to let Push distinguish full from empty without a separate counter.
func New[T any](size int) *Ring[T] {
	if size <= 0 || size&(size-1) != 0 {
		panic("spscring: size must be >0 and a power of two")
	}
	r := &Ring[T]{
		mask: uint64(size - 1),
		step: uint64(size),
		buf:  make([]slot[T], size),
	}
	for i := range r.buf {
		r.buf[i].seq = uint64(i)
	}
	return r
}

// Push enqueues val, returning false if the ring is full. Producer-side
// only. This combines the spec's reserve_write+commit_write into one call
// since Go has no placement-construction story that would make splitting
// them pay for itself; the effect — the slot is stable and then published
// with a single release store — is identical.
//
// Occupancy is capped at size-1: one slot is permanently held back so
// full and empty never collide on the same tail==head reading. The
// explicit occupancy check below is what enforces that cap — the
// per-slot sequence alone would admit a size-th entry into the last
// free slot (and, in a ring of size 1, would let the producer overwrite
// a value the consumer hasn't read yet).
//
//go:nosplit
func (r *Ring[T]) Push(val T) bool {
	t := r.tail
	if t-atomic.LoadUint64(&r.head) >= r.mask {
		return false // full: size-1 slots already occupied
	}
	s := &r.buf[t&r.mask]
	if atomic.LoadUint64(&s.seq) != t {
		return false // consumer has not yet reclaimed this slot
	}
	s.val = val
	atomic.StoreUint64(&s.seq, t+1)
	r.tail = t + 1
	return true
}

// Pop dequeues one value, or the zero value and false if the ring is
// empty. Consumer-side only.
//
//go:nosplit
func (r *Ring[T]) Pop() (T, bool) {
	h := r.head
	s := &r.buf[h&r.mask]
	if atomic.LoadUint64(&s.seq) != h+1 {
		var zero T
		return zero, false // producer has not yet published this slot
	}
	val := s.val
	atomic.StoreUint64(&s.seq, h+r.step)
	atomic.StoreUint64(&r.head, h+1)
	return val, true
}

// Peek returns the next readable value without advancing the consumer
// cursor. Consumer-side only.
func (r *Ring[T]) Peek() (T, bool) {
	h := r.head
	s := &r.buf[h&r.mask]
	if atomic.LoadUint64(&s.seq) != h+1 {
		var zero T
		return zero, false
	}
	return s.val, true
}

// Advance drops the slot Peek last returned, freeing it for the producer.
// Returns false if the ring was empty. Consumer-side only. Pairing Peek
// with Advance lets a consumer inspect a value before committing to have
// consumed it, matching the spec's peek_read/commit_read split.
func (r *Ring[T]) Advance() bool {
	h := r.head
	s := &r.buf[h&r.mask]
	if atomic.LoadUint64(&s.seq) != h+1 {
		return false
	}
	atomic.StoreUint64(&s.seq, h+r.step)
	atomic.StoreUint64(&r.head, h+1)
	return true
}

// PopWait busy-spins until a value becomes available. Intended for
// dedicated, core-pinned consumer threads where blocking would cost more
// than the spin; callers on a shared core should prefer Pop with their
// own back-off policy.
//
//go:nosplit
func (r *Ring[T]) PopWait() T {
	for {
		if v, ok := r.Pop(); ok {
			return v
		}
		cpuRelax()
	}
}

// Size returns an approximate occupancy; under concurrent access from the
// producer and consumer this value may be stale by the time the caller
// observes it.
func (r *Ring[T]) Size() int {
	tail := atomic.LoadUint64(&r.tail)
	head := atomic.LoadUint64(&r.head)
	return int((tail - head) & r.mask)
}

// Cap returns the ring's fixed capacity.
func (r *Ring[T]) Cap() int {
	return len(r.buf)
}
