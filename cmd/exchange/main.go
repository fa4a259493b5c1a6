// Command exchange wires the order-entry, matching, and market-data
// pipeline stages together, starts the metrics publisher and the
// nanosecond timer's calibration, and runs until SIGINT/SIGTERM.
//
// Grounded on exchange_main.cpp's phased startup (create queues, start
// threads, wait for signal, join) and the ancestor codebase's
// setupSignalHandling/control.Shutdown shutdown sequence in main.go.
package main

import (
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/nanospread/matchcore/control"
	"github.com/nanospread/matchcore/logging"
	"github.com/nanospread/matchcore/metrics"
	"github.com/nanospread/matchcore/nanotime"
	"github.com/nanospread/matchcore/pipeline"
)

// Core assignments for the three pinned pipeline stages. -1 leaves a
// stage unpinned, matching control.Pin's out-of-range/negative no-op.
const (
	gatewayCore    = 0
	matcherCore    = 1
	marketDataCore = 2
)

func main() {
	nanotime.Default.Calibrate()

	gw := pipeline.NewInMemoryGateway(1 << 16)
	book := &pipeline.EchoBook{}
	sink := &pipeline.RecordingSink{}
	p := pipeline.New(gw, book, sink)

	pub := metrics.New(p.Hist, book, nil, metrics.StderrSink{})
	pub.Start()
	defer pub.Stop()

	runStage(gatewayCore, p.RunGateway)
	runStage(matcherCore, func() { p.RunMatcher(nanotime.NowNS) })
	runStage(marketDataCore, p.RunMarketData)

	logging.Info("exchange", "pipeline started, awaiting shutdown signal")
	waitForSignal()

	logging.Info("exchange", "shutdown requested, draining pipeline")
	gw.Close()
	p.Shutdown()
	logging.Info("exchange", "all stages drained, exiting")
}

// runStage spawns fn on its own goroutine, pinning the underlying OS
// thread to core when core >= 0.
func runStage(core int, fn func()) {
	go func() {
		runtime.LockOSThread()
		control.Pin(core)
		fn()
	}()
}

func waitForSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}
