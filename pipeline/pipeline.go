package pipeline

import (
	"github.com/nanospread/matchcore/control"
	"github.com/nanospread/matchcore/latency"
	"github.com/nanospread/matchcore/spscring"
)

// Default ring capacities, chosen to match the ancestor codebase's
// fixed 64k-entry lock-free queues — generous enough that a momentary
// consumer stall doesn't immediately back-pressure the producer, while
// staying a power of two as spscring.New requires.
const DefaultRingCapacity = 1 << 16

// OrderGateway is the order-entry boundary: it accepts client requests
// off the wire (or, for tests/stubs, from memory) and delivers matcher
// responses back to the originating client. The matching engine never
// talks to a socket directly — it only ever touches the two rings.
type OrderGateway interface {
	// Requests returns the stream of inbound client requests this
	// gateway has accepted. Implementations push into the pipeline's
	// request ring from their own I/O goroutine.
	Requests() <-chan ClientRequest
	// Deliver routes one matcher response back to its client.
	Deliver(ClientResponse)
}

// MatchingBook is the order book boundary. A Pipeline drives it
// directly off the request ring and pushes whatever it returns onto
// the response and market-data rings; the matching algorithm itself is
// out of scope here, only this seam is specified.
type MatchingBook interface {
	// Apply processes one client request and returns the response to
	// route back to the client plus zero or more market data updates
	// the request produced (a new order can both rest and trade,
	// producing both a response and one or more updates).
	Apply(ClientRequest) (ClientResponse, []MarketUpdate)
}

// MarketDataSink is the market-data boundary: it receives book-change
// events and is responsible for getting them onto the wire (multicast,
// in the exchange's case) or wherever else they need to go.
type MarketDataSink interface {
	Publish(MarketUpdate)
}

// Pipeline owns the three SPSC rings connecting order-entry, matching,
// and market-data stages, plus the shutdown coordinator every stage's
// goroutine polls. Grounded on exchange_main.cpp's three-queue wiring;
// the matching algorithm itself is supplied by the caller via
// MatchingBook.
type Pipeline struct {
	Requests  *spscring.Ring[ClientRequest]
	Responses *spscring.Ring[ClientResponse]
	Updates   *spscring.Ring[MarketUpdate]

	Coord *control.Coordinator
	Hist  *latency.Histogram

	gateway OrderGateway
	book    MatchingBook
	sink    MarketDataSink
}

// New builds a Pipeline with DefaultRingCapacity rings, wiring gateway
// as the order-entry boundary, book as the matching engine, and sink as
// the market-data boundary. Any of the three may be a stub from this
// package for testing or a minimal default binary.
func New(gateway OrderGateway, book MatchingBook, sink MarketDataSink) *Pipeline {
	return &Pipeline{
		Requests:  spscring.New[ClientRequest](DefaultRingCapacity),
		Responses: spscring.New[ClientResponse](DefaultRingCapacity),
		Updates:   spscring.New[MarketUpdate](DefaultRingCapacity),
		Coord:     control.NewCoordinator(0),
		Hist:      latency.NewHistogram(),
		gateway:   gateway,
		book:      book,
		sink:      sink,
	}
}

// RunMatcher drains the request ring, applies each request to the
// configured MatchingBook, and pushes results onto the response and
// update rings. It runs until the coordinator's stop flag is observed
// AND the request ring has drained — the cooperative shutdown sequence
// the concurrency model specifies: stop submitting, drain to empty,
// then exit. Intended to run on its own goroutine, pinned to a
// dedicated core by the caller.
func (p *Pipeline) RunMatcher(nowNs func() uint64) {
	p.Coord.StageStarted()
	defer p.Coord.StageStopped()

	for {
		req, ok := p.Requests.Pop()
		if !ok {
			if p.Coord.ShouldStop() {
				return
			}
			continue
		}

		start := nowNs()
		resp, updates := p.book.Apply(req)
		p.Hist.Record(nowNs() - start)

		for !p.Responses.Push(resp) {
			if p.Coord.ShouldStop() {
				return
			}
		}
		for _, u := range updates {
			for !p.Updates.Push(u) {
				if p.Coord.ShouldStop() {
					return
				}
			}
		}
		p.Coord.SignalActivity()
	}
}

// RunGateway drains the response ring and delivers each response to
// the gateway, and forwards the gateway's inbound request channel into
// the request ring. It runs until stop is observed and both the
// response ring and the gateway's request channel are drained.
func (p *Pipeline) RunGateway() {
	p.Coord.StageStarted()
	defer p.Coord.StageStopped()

	for {
		select {
		case req, ok := <-p.gateway.Requests():
			if !ok {
				goto drainResponses
			}
			for !p.Requests.Push(req) {
				if p.Coord.ShouldStop() {
					goto drainResponses
				}
			}
			p.Coord.SignalActivity()
		default:
		}

		if resp, ok := p.Responses.Pop(); ok {
			p.gateway.Deliver(resp)
			p.Coord.SignalActivity()
		} else if p.Coord.ShouldStop() && len(p.gateway.Requests()) == 0 {
			return
		}
	}

drainResponses:
	for {
		resp, ok := p.Responses.Pop()
		if !ok {
			if p.Coord.ShouldStop() {
				return
			}
			continue
		}
		p.gateway.Deliver(resp)
	}
}

// RunMarketData drains the update ring and publishes each update to
// the configured sink, until stop is observed and the ring has
// drained.
func (p *Pipeline) RunMarketData() {
	p.Coord.StageStarted()
	defer p.Coord.StageStopped()

	for {
		u, ok := p.Updates.Pop()
		if !ok {
			if p.Coord.ShouldStop() {
				return
			}
			continue
		}
		p.sink.Publish(u)
		p.Coord.SignalActivity()
	}
}

// Shutdown requests every stage stop submitting new work, then blocks
// until each has drained its ring and exited.
func (p *Pipeline) Shutdown() {
	p.Coord.Shutdown()
	p.Coord.Wait()
}
