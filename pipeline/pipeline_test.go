package pipeline

import (
	"testing"
	"time"
)

func TestPipelineEndToEnd(t *testing.T) {
	gw := NewInMemoryGateway(16)
	book := &EchoBook{}
	sink := &RecordingSink{}
	p := New(gw, book, sink)

	go p.RunGateway()
	go p.RunMatcher(func() uint64 { return uint64(time.Now().UnixNano()) })
	go p.RunMarketData()

	const n = 50
	submitDeadline := time.Now().Add(2 * time.Second)
	for i := 0; i < n; i++ {
		req := ClientRequest{
			ClientID: 1,
			OrderID:  uint64(i),
			TickerID: 7,
			Side:     SideBuy,
			Qty:      10,
			Price:    100,
			Kind:     RequestNew,
		}
		for !gw.Submit(req) {
			if time.Now().After(submitDeadline) {
				t.Fatalf("submit %d: gateway buffer full", i)
			}
			time.Sleep(time.Millisecond)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(gw.Delivered()) < n && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	delivered := gw.Delivered()
	if len(delivered) != n {
		t.Fatalf("delivered %d responses, want %d", len(delivered), n)
	}
	for _, resp := range delivered {
		if resp.Kind != ResponseFilled {
			t.Fatalf("response kind = %d, want ResponseFilled", resp.Kind)
		}
	}

	for len(sink.Updates()) < n && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := len(sink.Updates()); got != n {
		t.Fatalf("published %d market updates, want %d", got, n)
	}

	gw.Close()
	p.Shutdown()

	if p.Hist.TotalOps() != n {
		t.Fatalf("histogram recorded %d ops, want %d", p.Hist.TotalOps(), n)
	}
}

func TestPipelineCancelRequest(t *testing.T) {
	gw := NewInMemoryGateway(4)
	book := &EchoBook{}
	sink := &RecordingSink{}
	p := New(gw, book, sink)

	go p.RunGateway()
	go p.RunMatcher(func() uint64 { return 0 })
	go p.RunMarketData()

	req := ClientRequest{ClientID: 2, OrderID: 1, TickerID: 3, Kind: RequestCancel}
	if !gw.Submit(req) {
		t.Fatal("submit failed")
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(gw.Delivered()) < 1 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	delivered := gw.Delivered()
	if len(delivered) != 1 {
		t.Fatalf("delivered %d responses, want 1", len(delivered))
	}
	if delivered[0].Kind != ResponseCanceled {
		t.Fatalf("response kind = %d, want ResponseCanceled", delivered[0].Kind)
	}

	gw.Close()
	p.Shutdown()
}

func TestEchoBookCountersMatchTraffic(t *testing.T) {
	book := &EchoBook{}
	for i := 0; i < 10; i++ {
		book.Apply(ClientRequest{OrderID: uint64(i), Kind: RequestNew, Qty: 1})
	}
	if book.TotalOrders() != 10 {
		t.Fatalf("TotalOrders() = %d, want 10", book.TotalOrders())
	}
	if book.TotalTrades() != 10 {
		t.Fatalf("TotalTrades() = %d, want 10", book.TotalTrades())
	}
}
