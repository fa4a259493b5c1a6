//go:build linux

package control

import "golang.org/x/sys/unix"

// Pin pins the calling OS thread to cpu; a negative cpu is a no-op. It
// does not lock the calling goroutine to that thread (that is what
// runtime.LockOSThread does). Errors are deliberately swallowed: on a
// containerized or cgroup-restricted host sched_setaffinity can return
// EPERM/EINVAL, and the fallback of simply running unpinned is
// preferable to crashing a pipeline stage over a scheduling hint.
//
// Grounded on the ancestor codebase's setAffinity helper in
// ring/setaffinity_linux.go, adapted from a raw
// syscall.SYS_SCHED_SETAFFINITY call to golang.org/x/sys/unix's typed
// wrapper — the pack's real third-party syscall dependency, not a
// hand-rolled raw syscall.
func Pin(cpu int) {
	if cpu < 0 {
		return
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	_ = unix.SchedSetaffinity(0, &set)
}
