// Package control provides lock-free shutdown and activity-tracking
// coordination shared across a pipeline's producer/consumer stages.
// ============================================================================
// PIPELINE CONTROL ORCHESTRATION
// ============================================================================
//
// Adapted from the ancestor codebase's WebSocket-ingress-specific hot/stop
// flag pair, generalized from a single package-global consumer to a
// per-pipeline Coordinator value: the same hot/cooldown signaling that
// used to gate one consumer's spin-vs-sleep decision now gates every
// pipeline stage's shutdown-drain sequence.
//
// Threading model:
//   • Any stage signals activity via SignalActivity()
//   • Consumer threads poll PollCooldown/ShouldStop in their hot loop
//   • Shutdown broadcasts stop=1; Wait blocks until every registered
//     stage has drained and called StageStopped
package control

import (
	"sync"
	"sync/atomic"
	"time"
)

// Coordinator tracks one pipeline's activity and shutdown state. The zero
// value has no cooldown: PollCooldown clears the hot flag on any poll
// after the last SignalActivity. NewCoordinator sets the cooldown (1
// second by default).
type Coordinator struct {
	hot  uint32 // 1 while the pipeline has observed recent activity
	stop uint32 // 1 once Shutdown has been called

	lastActivity int64 // UnixNano of the last SignalActivity call
	cooldownNs   int64

	wg sync.WaitGroup // stages register here; Wait blocks until all have drained
}

// NewCoordinator returns a Coordinator with the given idle cooldown —
// PollCooldown clears the hot flag once this long has elapsed since the
// last SignalActivity call. A zero cooldown defaults to 1 second,
// matching the ancestor codebase's fixed cooldownNs.
func NewCoordinator(cooldown time.Duration) *Coordinator {
	if cooldown <= 0 {
		cooldown = time.Second
	}
	return &Coordinator{cooldownNs: cooldown.Nanoseconds()}
}

// SignalActivity marks the pipeline hot and records the time, so
// PollCooldown won't clear the flag until cooldown has elapsed with no
// further activity.
//
//go:nosplit
//go:inline
func (c *Coordinator) SignalActivity() {
	atomic.StoreUint32(&c.hot, 1)
	atomic.StoreInt64(&c.lastActivity, time.Now().UnixNano())
}

// PollCooldown clears the hot flag once cooldown has elapsed since the
// last SignalActivity call. Intended to be called from a consumer's spin
// loop alongside its empty-poll handling, the same call site the
// ancestor codebase used it from.
//
//go:nosplit
//go:inline
func (c *Coordinator) PollCooldown() {
	if atomic.LoadUint32(&c.hot) == 1 &&
		time.Now().UnixNano()-atomic.LoadInt64(&c.lastActivity) > c.cooldownNs {
		atomic.StoreUint32(&c.hot, 0)
	}
}

// Hot reports whether the pipeline is currently considered active.
func (c *Coordinator) Hot() bool {
	return atomic.LoadUint32(&c.hot) == 1
}

// Shutdown requests that every registered stage stop. It does not block;
// call Wait to block until every stage has finished draining and exited.
//
//go:nosplit
//go:inline
func (c *Coordinator) Shutdown() {
	atomic.StoreUint32(&c.stop, 1)
}

// ShouldStop reports whether Shutdown has been called. Pipeline stages
// poll this in their hot loop; per the concurrency contract, observing
// true means stop submitting new work and begin draining rather than
// terminating immediately, so in-flight ring entries aren't dropped.
//
//go:nosplit
//go:inline
func (c *Coordinator) ShouldStop() bool {
	return atomic.LoadUint32(&c.stop) == 1
}

// Flags returns direct pointers to the stop/hot flags for call sites that
// need zero-overhead polling without a method call, mirroring the
// ancestor codebase's Flags() accessor used by its pinned consumer loop.
// Callers must only touch the returned pointers through sync/atomic.
func (c *Coordinator) Flags() (stop, hot *uint32) {
	return &c.stop, &c.hot
}

// StageStarted registers one pipeline stage with the shutdown
// WaitGroup. Call StageStopped when that stage has finished draining and
// exited.
func (c *Coordinator) StageStarted() {
	c.wg.Add(1)
}

// StageStopped marks one registered stage as fully drained and exited.
func (c *Coordinator) StageStopped() {
	c.wg.Done()
}

// Wait blocks until every stage registered via StageStarted has called
// StageStopped. Callers typically call Shutdown then Wait to implement
// the cooperative shutdown sequence: producers stop submitting, consumers
// drain to empty, then each thread exits.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}
