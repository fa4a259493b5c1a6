package pipeline

import "sync"

// InMemoryGateway is a minimal OrderGateway backed by a buffered
// channel and an in-memory log of delivered responses. It exists to
// exercise the pipeline's three rings end-to-end in tests and as the
// default wiring for cmd/exchange when no real socket listener is
// configured; it is not a network order-entry implementation.
type InMemoryGateway struct {
	requests chan ClientRequest

	mu        sync.Mutex
	delivered []ClientResponse
}

// NewInMemoryGateway returns a gateway whose request channel buffers
// up to capacity pending submissions.
func NewInMemoryGateway(capacity int) *InMemoryGateway {
	return &InMemoryGateway{requests: make(chan ClientRequest, capacity)}
}

// Submit enqueues a client request as if it had arrived over the wire.
// Returns false if the gateway's internal buffer is full.
func (g *InMemoryGateway) Submit(req ClientRequest) bool {
	select {
	case g.requests <- req:
		return true
	default:
		return false
	}
}

// Close signals that no further requests will be submitted, letting
// RunGateway drain and exit.
func (g *InMemoryGateway) Close() {
	close(g.requests)
}

func (g *InMemoryGateway) Requests() <-chan ClientRequest {
	return g.requests
}

func (g *InMemoryGateway) Deliver(resp ClientResponse) {
	g.mu.Lock()
	g.delivered = append(g.delivered, resp)
	g.mu.Unlock()
}

// Delivered returns a copy of every response delivered so far.
func (g *InMemoryGateway) Delivered() []ClientResponse {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]ClientResponse, len(g.delivered))
	copy(out, g.delivered)
	return out
}

// EchoBook is a minimal MatchingBook: it accepts every new order,
// fills it in full at the submitted price, and emits one trade update.
// It never rests an order and never tracks book state — it exists only
// to give the pipeline's rings real traffic to carry in tests and in
// cmd/exchange's default wiring; the matching algorithm itself is out
// of scope.
type EchoBook struct {
	mu       sync.Mutex
	totalOrd uint64
	totalTrd uint64
}

func (b *EchoBook) Apply(req ClientRequest) (ClientResponse, []MarketUpdate) {
	b.mu.Lock()
	b.totalOrd++
	if req.Kind == RequestNew {
		b.totalTrd++
	}
	b.mu.Unlock()

	if req.Kind == RequestCancel {
		return ClientResponse{
			ClientID: req.ClientID,
			OrderID:  req.OrderID,
			TickerID: req.TickerID,
			Kind:     ResponseCanceled,
		}, nil
	}

	resp := ClientResponse{
		ClientID:  req.ClientID,
		OrderID:   req.OrderID,
		TickerID:  req.TickerID,
		ExecQty:   req.Qty,
		LeavesQty: 0,
		Price:     req.Price,
		Kind:      ResponseFilled,
	}
	update := MarketUpdate{
		TickerID: req.TickerID,
		OrderID:  req.OrderID,
		Side:     req.Side,
		Qty:      req.Qty,
		Price:    req.Price,
		Kind:     UpdateTrade,
	}
	return resp, []MarketUpdate{update}
}

// TotalOrders implements metrics.OrdersTradesSource.
func (b *EchoBook) TotalOrders() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.totalOrd
}

// TotalTrades implements metrics.OrdersTradesSource.
func (b *EchoBook) TotalTrades() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.totalTrd
}

// RecordingSink is a minimal MarketDataSink that appends every update
// to an in-memory log, guarded by a mutex. Grounded on the same
// "minimal stub, not a real transport" idiom as InMemoryGateway and
// EchoBook — the real exchange binary would publish over UDP
// multicast, per the external interfaces contract.
type RecordingSink struct {
	mu      sync.Mutex
	updates []MarketUpdate
}

func (s *RecordingSink) Publish(u MarketUpdate) {
	s.mu.Lock()
	s.updates = append(s.updates, u)
	s.mu.Unlock()
}

// Updates returns a copy of every update published so far.
func (s *RecordingSink) Updates() []MarketUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]MarketUpdate, len(s.updates))
	copy(out, s.updates)
	return out
}
