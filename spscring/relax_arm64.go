//go:build arm64 && !noasm

// cpuRelax executes the ARM64 YIELD instruction, the architectural hint
// that the calling thread is spin-waiting. Implementation lives in
// relax_arm64.s — a plain Go assembly stub rather than the teacher's cgo
// wrapper, since this module has no other cgo dependency and avoiding one
// keeps cross-compilation simple.

package spscring

//go:noescape
func cpuRelax()
