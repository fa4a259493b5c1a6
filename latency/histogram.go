// Package latency implements a lock-free latency histogram with
// 1-microsecond bucket resolution and approximate percentile queries.
//
// Grounded on the ancestor codebase's LatencyTracker: 1000 fixed-width
// (1 microsecond) buckets, each tracking count/sum/min/max independently
// with relaxed atomics, plus running totals for O(1) average. The
// histogram makes no cross-field ordering guarantee — it is an
// approximate statistical structure, not a transactional one.
package latency

import (
	"sync/atomic"
)

// NumBuckets is the fixed bucket count. Bucket b covers
// [b*1000, (b+1)*1000) ns; the last bucket also absorbs any value at or
// above its lower edge (saturating), so no latency is ever dropped.
const NumBuckets = 1000

const bucketWidthNs = 1000

// bucket is cache-line aligned so that concurrent writers to different
// buckets never false-share. count/sum/min/max are deliberately
// independent atomics: the spec only requires count>0 => min<=max<=sum
// once a value has been recorded, not that a reader observes all four
// fields from the same record() call.
type bucket struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
	_     [32]byte // pad struct to 64 bytes (4*8 + 32 = 64)
}

// Histogram is a many-writer, many-reader lock-free latency tracker.
// The zero value is not ready to use: construct with NewHistogram, which
// starts every bucket's min at its sentinel (no recorded samples).
type Histogram struct {
	buckets       [NumBuckets]bucket
	_             [64]byte // isolates totals from the bucket array's tail
	totalOps      atomic.Uint64
	_             [56]byte
	totalSum      atomic.Uint64
}

// minSentinel marks a bucket that has never recorded a value; average,
// global min/max, and percentile all treat it as empty.
const minSentinel = ^uint64(0)

// NewHistogram returns a Histogram with every bucket's min primed to the
// empty sentinel. Using the zero value directly would make an empty
// bucket's min compare as 0, which would corrupt GlobalMin.
func NewHistogram() *Histogram {
	h := &Histogram{}
	h.Reset()
	return h
}

// Record adds one latency sample in nanoseconds. Bucket index is
// min(ns/1000, NumBuckets-1) — the top bucket saturates rather than
// dropping outliers. count/sum updates are relaxed fetch-adds; min/max
// updates are CAS loops, also relaxed, matching the spec's rationale
// that strict cross-field consistency is not required of an approximate
// statistical structure.
func (h *Histogram) Record(ns uint64) {
	idx := ns / bucketWidthNs
	if idx >= NumBuckets {
		idx = NumBuckets - 1
	}
	b := &h.buckets[idx]

	atomic.AddUint64(&b.count, 1)
	atomic.AddUint64(&b.sum, ns)
	casMin(&b.min, ns)
	casMax(&b.max, ns)

	h.totalOps.Add(1)
	h.totalSum.Add(ns)
}

func casMin(addr *uint64, v uint64) {
	for {
		cur := atomic.LoadUint64(addr)
		if v >= cur {
			return
		}
		if atomic.CompareAndSwapUint64(addr, cur, v) {
			return
		}
	}
}

func casMax(addr *uint64, v uint64) {
	for {
		cur := atomic.LoadUint64(addr)
		if v <= cur {
			return
		}
		if atomic.CompareAndSwapUint64(addr, cur, v) {
			return
		}
	}
}

// TotalOps returns the total number of recorded samples.
func (h *Histogram) TotalOps() uint64 {
	return h.totalOps.Load()
}

// Average returns the mean latency in nanoseconds across all samples, or
// 0 if none have been recorded.
func (h *Histogram) Average() uint64 {
	ops := h.totalOps.Load()
	if ops == 0 {
		return 0
	}
	return h.totalSum.Load() / ops
}

// GlobalMin returns the minimum recorded latency across all non-empty
// buckets, or 0 if the histogram is empty.
func (h *Histogram) GlobalMin() uint64 {
	min := minSentinel
	for i := range h.buckets {
		b := &h.buckets[i]
		if atomic.LoadUint64(&b.count) == 0 {
			continue
		}
		if v := atomic.LoadUint64(&b.min); v < min {
			min = v
		}
	}
	if min == minSentinel {
		return 0
	}
	return min
}

// GlobalMax returns the maximum recorded latency across all non-empty
// buckets, or 0 if the histogram is empty.
func (h *Histogram) GlobalMax() uint64 {
	var max uint64
	for i := range h.buckets {
		b := &h.buckets[i]
		if atomic.LoadUint64(&b.count) == 0 {
			continue
		}
		if v := atomic.LoadUint64(&b.max); v > max {
			max = v
		}
	}
	return max
}

// Percentile returns the lower edge, in nanoseconds, of the bucket
// containing the p-th percentile (0 <= p <= 100). It walks buckets in
// ascending order accumulating counts until the running total reaches
// target = totalOps*p/100, and returns that bucket's lower edge
// (index*1000) — per the spec's resolution of the "midpoint" ambiguity
// in its ancestor, in favor of a deterministic lower edge. Returns 0 for
// an empty histogram. Under concurrent Record calls the running total
// may momentarily disagree with TotalOps(); if target is never reached
// by walking every bucket, the last bucket's lower edge is returned —
// this is expected, not an error, per the spec's concurrency rationale.
func (h *Histogram) Percentile(p float64) uint64 {
	ops := h.totalOps.Load()
	if ops == 0 {
		return 0
	}
	target := uint64(float64(ops) * p / 100.0)

	var running uint64
	for i := range h.buckets {
		running += atomic.LoadUint64(&h.buckets[i].count)
		if running >= target {
			return uint64(i) * bucketWidthNs
		}
	}
	return (NumBuckets - 1) * bucketWidthNs
}

// PercentileMidpoint is the same walk as Percentile but returns the
// bucket's midpoint instead of its lower edge. Offered because the
// ancestor codebase's comment described a midpoint return despite its
// code returning a lower edge; this module documents both and defaults
// to the deterministic lower edge in Percentile.
func (h *Histogram) PercentileMidpoint(p float64) uint64 {
	edge := h.Percentile(p)
	if h.totalOps.Load() == 0 {
		return 0
	}
	return edge + bucketWidthNs/2
}

// Reset zeroes every field (and re-primes each bucket's min to the empty
// sentinel) with relaxed ordering. Intended for isolated test fixtures
// and explicit operator-triggered resets, not for use under concurrent
// Record calls — a reset racing with a writer can leave a bucket with a
// nonsensical min/max/count combination until the next Record call
// corrects it.
func (h *Histogram) Reset() {
	for i := range h.buckets {
		b := &h.buckets[i]
		atomic.StoreUint64(&b.count, 0)
		atomic.StoreUint64(&b.sum, 0)
		atomic.StoreUint64(&b.min, minSentinel)
		atomic.StoreUint64(&b.max, 0)
	}
	h.totalOps.Store(0)
	h.totalSum.Store(0)
}
