package strategy

import (
	"testing"

	"github.com/Charliesj0129/shijim/internal/events"
)

func newEngine() *Engine {
	return NewEngine(Config{ChaseThreshold: 0.5, MaxChaseRound: 2}, "2330", events.SideBuy, 100, 10, "test-order-1")
}

func TestEngine_NoMoveEmitsNothing(t *testing.T) {
	e := newEngine()
	req := e.OnTick(TopOfBook{BidPrice: 100}, 0)
	if req != nil {
		t.Fatalf("expected no request when price_diff <= 0, got %+v", req)
	}
}

func TestEngine_PriceDriftChasesAndIncrementsCount(t *testing.T) {
	e := newEngine()
	req := e.OnTick(TopOfBook{BidPrice: 101}, 0)
	if req == nil {
		t.Fatalf("expected a chase request")
	}
	if req.Action != ActionCancelReplace || req.Reason != "PriceDrift" {
		t.Fatalf("expected PriceDrift cancel-replace, got %+v", req)
	}
	if e.State() != OrderChasing || e.ChaseCount() != 1 {
		t.Fatalf("expected state CHASING and chase_count=1, got state=%v count=%d", e.State(), e.ChaseCount())
	}
}

func TestEngine_NegativeOFIHoldsWhenShouldChase(t *testing.T) {
	e := newEngine()
	req := e.OnTick(TopOfBook{BidPrice: 101}, -5)
	if req != nil {
		t.Fatalf("expected negative-alpha hold to emit nothing, got %+v", req)
	}
	if e.State() != OrderWorking {
		t.Fatalf("expected state to remain WORKING on hold, got %v", e.State())
	}
}

func TestEngine_AlphaPushWithoutShouldChaseStillChases(t *testing.T) {
	e := newEngine()
	// price_diff = 0.5 == chase_threshold: should_chase is false (not >),
	// but alpha_push is true (>=) with positive OFI.
	req := e.OnTick(TopOfBook{BidPrice: 100.5}, 3)
	if req == nil {
		t.Fatalf("expected alpha-driven chase request")
	}
	if req.Reason != "AlphaDriven" {
		t.Fatalf("expected AlphaDriven reason, got %v", req.Reason)
	}
}

func TestEngine_MaxChaseRoundCancels(t *testing.T) {
	e := newEngine()
	e.OnTick(TopOfBook{BidPrice: 101}, 0) // chase #1
	e.state = OrderWorking
	e.OnTick(TopOfBook{BidPrice: 102}, 0) // chase #2, hits max
	e.state = OrderWorking

	req := e.OnTick(TopOfBook{BidPrice: 103}, 0)
	if req == nil || req.Action != ActionCancel {
		t.Fatalf("expected CANCEL once max_chase_round is reached, got %+v", req)
	}
	if e.State() != OrderIdle {
		t.Fatalf("expected state IDLE after max-chase cancel, got %v", e.State())
	}
}

func TestEngine_ChasingOrIdleStateEmitsNothing(t *testing.T) {
	e := newEngine()
	e.state = OrderChasing
	if req := e.OnTick(TopOfBook{BidPrice: 200}, 10); req != nil {
		t.Fatalf("expected CHASING state to suppress emission, got %+v", req)
	}
	e.state = OrderIdle
	if req := e.OnTick(TopOfBook{BidPrice: 200}, 10); req != nil {
		t.Fatalf("expected IDLE state to suppress emission, got %+v", req)
	}
}
