// Command tradingclient parses the CLIENT_ID ALGO_TYPE
// [CLIP THRESH MAX_ORDER_SIZE MAX_POS MAX_LOSS]* argument contract and
// drives its own order-entry/matching/market-data pipeline against an
// in-memory book, exiting 0 on clean shutdown and non-zero on a fatal
// precondition (missing/malformed arguments).
//
// Grounded on trading_main.cpp's argv parsing and per-algorithm
// parameter tuples, and on the ancestor codebase's
// setupSignalHandling/control.Shutdown shutdown sequence.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"

	"github.com/nanospread/matchcore/control"
	"github.com/nanospread/matchcore/logging"
	"github.com/nanospread/matchcore/nanotime"
	"github.com/nanospread/matchcore/pipeline"
)

// AlgoParams is one [CLIP THRESH MAX_ORDER_SIZE MAX_POS MAX_LOSS] tuple,
// one per ticker the client trades, in the order given on the command
// line.
type AlgoParams struct {
	Clip         uint64
	Threshold    float64
	MaxOrderSize uint64
	MaxPosition  int64
	MaxLoss      int64
}

func main() {
	clientID, algoType, params, err := parseArgs(os.Args[1:])
	if err != nil {
		logging.Error("tradingclient: fatal precondition", err)
		os.Exit(1)
	}

	nanotime.Default.Calibrate()

	gw := pipeline.NewInMemoryGateway(1 << 12)
	book := &pipeline.EchoBook{}
	sink := &pipeline.RecordingSink{}
	p := pipeline.New(gw, book, sink)

	go func() {
		runtime.LockOSThread()
		control.Pin(-1)
		p.RunGateway()
	}()
	go func() {
		runtime.LockOSThread()
		control.Pin(-1)
		p.RunMatcher(nanotime.NowNS)
	}()
	go func() {
		runtime.LockOSThread()
		control.Pin(-1)
		p.RunMarketData()
	}()

	logging.Info("tradingclient", fmt.Sprintf(
		"client_id=%d algo_type=%s tickers=%d", clientID, algoType, len(params)))

	waitForSignal()

	logging.Info("tradingclient", "shutdown requested, draining pipeline")
	gw.Close()
	p.Shutdown()
	os.Exit(0)
}

// parseArgs implements CLIENT_ID ALGO_TYPE [CLIP THRESH MAX_ORDER_SIZE
// MAX_POS MAX_LOSS]* — CLIENT_ID and ALGO_TYPE are required; any
// remaining arguments must come in complete groups of five.
func parseArgs(args []string) (clientID uint32, algoType string, params []AlgoParams, err error) {
	if len(args) < 2 {
		return 0, "", nil, fmt.Errorf("usage: tradingclient CLIENT_ID ALGO_TYPE [CLIP THRESH MAX_ORDER_SIZE MAX_POS MAX_LOSS]*")
	}

	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return 0, "", nil, fmt.Errorf("invalid CLIENT_ID %q: %w", args[0], err)
	}
	clientID = uint32(id)
	algoType = args[1]

	rest := args[2:]
	if len(rest)%5 != 0 {
		return 0, "", nil, fmt.Errorf("trailing algo parameters must come in groups of 5, got %d", len(rest))
	}

	for i := 0; i < len(rest); i += 5 {
		clip, err := strconv.ParseUint(rest[i], 10, 64)
		if err != nil {
			return 0, "", nil, fmt.Errorf("invalid CLIP %q: %w", rest[i], err)
		}
		thresh, err := strconv.ParseFloat(rest[i+1], 64)
		if err != nil {
			return 0, "", nil, fmt.Errorf("invalid THRESH %q: %w", rest[i+1], err)
		}
		maxOrderSize, err := strconv.ParseUint(rest[i+2], 10, 64)
		if err != nil {
			return 0, "", nil, fmt.Errorf("invalid MAX_ORDER_SIZE %q: %w", rest[i+2], err)
		}
		maxPos, err := strconv.ParseInt(rest[i+3], 10, 64)
		if err != nil {
			return 0, "", nil, fmt.Errorf("invalid MAX_POS %q: %w", rest[i+3], err)
		}
		maxLoss, err := strconv.ParseInt(rest[i+4], 10, 64)
		if err != nil {
			return 0, "", nil, fmt.Errorf("invalid MAX_LOSS %q: %w", rest[i+4], err)
		}
		params = append(params, AlgoParams{
			Clip:         clip,
			Threshold:    thresh,
			MaxOrderSize: maxOrderSize,
			MaxPosition:  maxPos,
			MaxLoss:      maxLoss,
		})
	}

	return clientID, algoType, params, nil
}

func waitForSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}
