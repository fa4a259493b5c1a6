//go:build amd64 && !noasm

// rdtsc_amd64.go declares the Go side of the RDTSC read implemented in
// rdtsc_amd64.s. The TSC is invariant (constant rate regardless of CPU
// frequency scaling) on every x86_64 target this module is built for, so
// cycle deltas divided by the calibrated ratio are safe to treat as
// nanoseconds between calibration windows.

package nanotime

//go:noescape
func rdtscAsm() uint64

func readCycles() uint64 {
	return rdtscAsm()
}
