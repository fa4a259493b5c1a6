//go:build !amd64 || noasm

// rdtsc_fallback.go backs readCycles with the OS monotonic clock on
// architectures without a portable, userspace-readable invariant cycle
// counter (or when asm is disabled with the noasm build tag). The units
// returned are nanoseconds rather than raw cycles, which makes the
// calibrated ratio converge to ~1.0 — Calibrate's algorithm is unaware of
// the substitution and stays correct either way, per the design note that
// correctness of downstream latency measurements must not depend on which
// path is taken, only precision.

package nanotime

import "time"

// monoBase anchors readCycles to the monotonic clock reading taken at
// package initialization.
var monoBase = time.Now()

func readCycles() uint64 {
	return uint64(time.Since(monoBase))
}
