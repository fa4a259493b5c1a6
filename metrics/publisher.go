// Package metrics drives a periodic sampling loop over a latency
// histogram and emits throughput/latency snapshots to a pluggable sink.
//
// Grounded on the ancestor codebase's performance_dashboard.h reporter
// thread: wake on a fixed interval, sample P99/P99.9/average, derive
// throughput once per wall-second, and hand the result to whatever is
// watching. Start/Stop borrow the control package's cooperative
// stop-flag idiom rather than a raw done channel, so the publisher
// shuts down the same way every other pipeline stage does.
package metrics

import (
	"sync"
	"time"

	"github.com/nanospread/matchcore/control"
	"github.com/nanospread/matchcore/latency"
	"github.com/nanospread/matchcore/logging"
)

// sampleInterval is the publisher's wake period. The spec tolerates
// ±10ms jitter around 100ms; time.Ticker's drift is well inside that.
const sampleInterval = 100 * time.Millisecond

// snapshotEveryNTicks controls emission cadence: one snapshot roughly
// every ten ticks, i.e. about once per wall-second at sampleInterval.
const snapshotEveryNTicks = 10

// Snapshot is the Performance Metrics Snapshot emitted to a Sink.
// All fields are already in their reporting units (ops/sec, ns).
type Snapshot struct {
	OrdersPerSecond uint64
	TradesPerSecond uint64
	AvgLatencyNs    uint64
	P99LatencyNs    uint64
	P999LatencyNs   uint64
	MemoryUsage     uint64
	CPUUsage        uint64
}

// Sink receives published snapshots. Publish errors are logged and
// otherwise ignored — a struggling sink must never stall or crash the
// publisher.
type Sink interface {
	Publish(Snapshot) error
}

// StderrSink writes a single-line, fixed-field rendering of each
// snapshot to stderr via the logging package's fd-direct writer.
// Grounded on debug.DropMessage as the default cold-path sink.
type StderrSink struct{}

// Publish never returns an error; it exists to satisfy Sink.
func (StderrSink) Publish(s Snapshot) error {
	logging.Info("metrics", formatSnapshot(s))
	return nil
}

func formatSnapshot(s Snapshot) string {
	return "ops/s=" + utoa(s.OrdersPerSecond) +
		" trades/s=" + utoa(s.TradesPerSecond) +
		" avg_ns=" + utoa(s.AvgLatencyNs) +
		" p99_ns=" + utoa(s.P99LatencyNs) +
		" p99.9_ns=" + utoa(s.P999LatencyNs) +
		" mem=" + utoa(s.MemoryUsage) +
		" cpu=" + utoa(s.CPUUsage)
}

// utoa avoids pulling in strconv's full surface for a cold logging
// path; it is small enough to keep inline with the rest of the
// zero-dependency formatting in this file.
func utoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// OrdersTradesSource supplies the two throughput counters the
// publisher can't derive from a latency histogram alone: total orders
// processed and total trades executed, each monotonically increasing.
// A pipeline wires this to whatever counts submissions and fills.
type OrdersTradesSource interface {
	TotalOrders() uint64
	TotalTrades() uint64
}

// MemoryCPUSource supplies the snapshot's resource-usage fields.
// Implementations are expected to be cheap — they're sampled on every
// emitting tick — typically a cached read of runtime.MemStats or /proc, refreshed
// on its own slower cadence by the caller.
type MemoryCPUSource interface {
	MemoryUsage() uint64
	CPUUsage() uint64
}

// Publisher samples a latency.Histogram on a fixed interval and emits
// periodic snapshots to a Sink. The zero value is not usable; construct
// with New.
type Publisher struct {
	hist     *latency.Histogram
	orders   OrdersTradesSource
	res      MemoryCPUSource
	sink     Sink
	interval time.Duration

	mu    sync.Mutex
	coord *control.Coordinator // non-nil while running
}

// New builds a Publisher over hist, reporting to sink. orders and res
// may be nil, in which case the corresponding snapshot fields stay 0 —
// a pipeline that hasn't wired throughput or resource sampling yet
// still gets latency percentiles.
func New(hist *latency.Histogram, orders OrdersTradesSource, res MemoryCPUSource, sink Sink) *Publisher {
	if sink == nil {
		sink = StderrSink{}
	}
	return &Publisher{
		hist:     hist,
		orders:   orders,
		res:      res,
		sink:     sink,
		interval: sampleInterval,
	}
}

// Start spawns the background sampling goroutine, registering it with a
// fresh control.Coordinator the same way every other pipeline stage
// registers with the one it shares — Stop then drives shutdown through
// Coordinator.Shutdown/Wait rather than a bespoke done channel. A second
// Start call while already running is a no-op, matching the spec's
// restart contract; a Coordinator can't be un-shut-down, so each Start
// gets its own.
func (p *Publisher) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.coord != nil {
		return
	}
	c := control.NewCoordinator(0)
	p.coord = c
	c.StageStarted()
	go p.run(c)
}

// Stop signals the sampling goroutine to halt via the Coordinator and
// blocks until it has exited. Calling Stop when not running is a no-op.
func (p *Publisher) Stop() {
	p.mu.Lock()
	c := p.coord
	p.coord = nil
	p.mu.Unlock()

	if c == nil {
		return
	}
	c.Shutdown()
	c.Wait()
}

func (p *Publisher) run(c *control.Coordinator) {
	defer c.StageStopped()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var tick int
	var lastOps, lastOrders, lastTrades uint64
	lastSampleAt := time.Now()

	for !c.ShouldStop() {
		now := <-ticker.C
		tick++

		snap, emit := p.sample(now, &tick, &lastOps, &lastOrders, &lastTrades, &lastSampleAt)
		if !emit {
			continue
		}
		if err := p.sink.Publish(snap); err != nil {
			logging.Error("metrics: sink publish failed", err)
		}
	}
}

// sample returns emit=false on ticks before a snapshot is due (see
// snapshotEveryNTicks). On the emitting tick it computes throughput over
// the time since the previous emission and folds it, with the latency
// percentiles, into a Snapshot. Split out from run so tests can drive the
// sampling body directly without waiting on a real-time ticker.
func (p *Publisher) sample(now time.Time, tick *int, lastOps, lastOrders, lastTrades *uint64, lastSampleAt *time.Time) (Snapshot, bool) {
	if *tick < snapshotEveryNTicks {
		return Snapshot{}, false
	}
	*tick = 0

	ops := p.hist.TotalOps()
	elapsed := now.Sub(*lastSampleAt)

	var ordersPerSec, tradesPerSec uint64
	if elapsed > 0 {
		if p.orders != nil {
			curOrders, curTrades := p.orders.TotalOrders(), p.orders.TotalTrades()
			ordersPerSec = ratePerSecond(curOrders, *lastOrders, elapsed)
			tradesPerSec = ratePerSecond(curTrades, *lastTrades, elapsed)
			*lastOrders, *lastTrades = curOrders, curTrades
		} else {
			ordersPerSec = ratePerSecond(ops, *lastOps, elapsed)
		}
	}
	*lastOps = ops
	*lastSampleAt = now

	snap := Snapshot{
		OrdersPerSecond: ordersPerSec,
		TradesPerSecond: tradesPerSec,
		AvgLatencyNs:    p.hist.Average(),
		P99LatencyNs:    p.hist.Percentile(99.0),
		P999LatencyNs:   p.hist.Percentile(99.9),
	}
	if p.res != nil {
		snap.MemoryUsage = p.res.MemoryUsage()
		snap.CPUUsage = p.res.CPUUsage()
	}
	return snap, true
}

// ratePerSecond computes (cur-last)*1e9/elapsed_ns, guarding against a
// counter reset (cur < last) by reporting 0 rather than wrapping.
func ratePerSecond(cur, last uint64, elapsed time.Duration) uint64 {
	if cur < last {
		return 0
	}
	return uint64(float64(cur-last) * 1e9 / float64(elapsed.Nanoseconds()))
}
