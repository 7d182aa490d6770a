package features

import (
	"testing"

	"github.com/Charliesj0129/shijim/internal/events"
	"github.com/shopspring/decimal"
)

func bookAt(tsNs int64, bidPx, bidQty, askPx, askQty float64) events.MDBookEvent {
	return events.MDBookEvent{
		BaseEvent:  events.BaseEvent{Type: events.TypeBook, TsNs: tsNs, Symbol: "2330"},
		BidPrices:  []decimal.Decimal{decimal.NewFromFloat(bidPx)},
		BidVolumes: []int64{int64(bidQty)},
		AskPrices:  []decimal.Decimal{decimal.NewFromFloat(askPx)},
		AskVolumes: []int64{int64(askQty)},
	}
}

// TestOFICalculator_FirstEventSeedsAndEmitsNil reproduces the OFI
// seeding scenario: the first event per symbol only seeds state.
func TestOFICalculator_FirstEventSeedsAndEmitsNil(t *testing.T) {
	c := NewOFICalculator()
	if sig := c.Calculate(bookAt(1, 100, 10, 101, 10)); sig != nil {
		t.Fatalf("expected nil on first event, got %+v", sig)
	}
}

// TestOFICalculator_FromConsecutiveBooks reproduces an OFI scenario:
// prev bid=100@10/ask=101@10, next bid=100@15/ask=101@10 → OFI=+5.
func TestOFICalculator_FromConsecutiveBooks(t *testing.T) {
	c := NewOFICalculator()
	c.Calculate(bookAt(1, 100, 10, 101, 10))
	sig := c.Calculate(bookAt(2, 100, 15, 101, 10))
	if sig == nil {
		t.Fatalf("expected a signal on the second event")
	}
	if sig.OFI != 5 {
		t.Fatalf("expected OFI=5, got %v", sig.OFI)
	}
}

func TestOFIAccumulator_EmitsAfterInterval(t *testing.T) {
	a := NewOFIAccumulator(1.0) // 1 second window
	a.Process(bookAt(0, 100, 10, 101, 10))
	sig := a.Process(bookAt(500_000_000, 100, 15, 101, 10))
	if sig != nil {
		t.Fatalf("expected no emission before interval elapses, got %+v", sig)
	}
	sig = a.Process(bookAt(1_100_000_000, 100, 20, 101, 10))
	if sig == nil {
		t.Fatalf("expected emission once interval elapses")
	}
}
