//go:build amd64 && !noasm

// cpuRelax executes the x86_64 PAUSE instruction so busy-wait loops back
// off politely without leaving userspace. Implementation lives in
// relax_amd64.s.

package spscring

//go:noescape
func cpuRelax()
