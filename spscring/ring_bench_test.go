package spscring

import "testing"

const benchCap = 1024 // power-of-two, comfortably cache-resident

func BenchmarkPush(b *testing.B) {
	r := New[uint64](benchCap)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if !r.Push(uint64(i)) {
			r.Pop()
			r.Push(uint64(i))
		}
	}
}

func BenchmarkPushPop(b *testing.B) {
	r := New[uint64](benchCap)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		r.Push(uint64(i))
		r.Pop()
	}
}
