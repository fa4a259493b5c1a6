//go:build (!amd64 && !arm64) || noasm

// cpuRelax is a no-op on architectures without a dedicated spin-wait hint,
// or when asm is disabled with the noasm build tag. Source compiles
// unchanged on every target; only spin-loop power efficiency differs.

package spscring

func cpuRelax() {}
