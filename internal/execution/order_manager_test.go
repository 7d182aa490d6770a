package execution

import (
	"errors"
	"sync"
	"testing"

	"github.com/Charliesj0129/shijim/internal/events"
	"github.com/Charliesj0129/shijim/internal/fixclient"
	"github.com/Charliesj0129/shijim/internal/strategy"

	"github.com/quickfixgo/quickfix"
)

var errSendFailed = errors.New("send failed")

// fakeSender records every message handed to it instead of touching a
// live quickfix session, so Manager can be exercised without a broker
// connection.
type fakeSender struct {
	mu   sync.Mutex
	sent []*quickfix.Message
	err  error
}

func (f *fakeSender) Send(msg *quickfix.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestManager() (*Manager, *fakeSender) {
	m := NewManager("SENDER", "TARGET", "acct-1", nil)
	fs := &fakeSender{}
	m.sender = fs
	return m, fs
}

func price(p float64) *float64 { return &p }

func TestManager_SendNewOrderPlacesAndTracksSubmitted(t *testing.T) {
	m, fs := newTestManager()

	err := m.Send([]strategy.OrderRequest{{
		Action:     strategy.ActionCancelReplace,
		Price:      price(100.5),
		Quantity:   10,
		Symbol:     "2330",
		Side:       events.SideBuy,
		InternalID: "order-1",
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fs.count() != 1 {
		t.Fatalf("expected 1 message sent, got %d", fs.count())
	}

	order := m.GetOrder("order-1")
	if order == nil {
		t.Fatalf("expected order-1 to be tracked")
	}
	if order.Status != StatusSubmitted {
		t.Fatalf("expected status SUBMITTED after successful send, got %v", order.Status)
	}
}

func TestManager_ReplaceDroppedWhenBrokerIDUnknown(t *testing.T) {
	m, fs := newTestManager()

	if err := m.Send([]strategy.OrderRequest{{
		Action:     strategy.ActionCancelReplace,
		Price:      price(100),
		Quantity:   10,
		Symbol:     "2330",
		Side:       events.SideBuy,
		InternalID: "order-1",
	}}); err != nil {
		t.Fatalf("unexpected error on initial place: %v", err)
	}
	if fs.count() != 1 {
		t.Fatalf("expected 1 message after new order, got %d", fs.count())
	}

	// No ExecutionReport has arrived yet, so BrokerOrderID is still
	// unknown: the replace must be dropped, not sent.
	if err := m.Send([]strategy.OrderRequest{{
		Action:     strategy.ActionCancelReplace,
		Price:      price(101),
		Quantity:   10,
		Symbol:     "2330",
		Side:       events.SideBuy,
		InternalID: "order-1",
	}}); err != nil {
		t.Fatalf("unexpected error on replace: %v", err)
	}
	if fs.count() != 1 {
		t.Fatalf("expected replace to be dropped, message count still %d, got %d", 1, fs.count())
	}
}

func TestManager_ReplaceSentOnceBrokerIDKnown(t *testing.T) {
	m, fs := newTestManager()

	if err := m.Send([]strategy.OrderRequest{{
		Action:     strategy.ActionCancelReplace,
		Price:      price(100),
		Quantity:   10,
		Symbol:     "2330",
		Side:       events.SideBuy,
		InternalID: "order-1",
	}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.OnExecutionReport(&fixclient.ExecutionReport{
		ClOrdID:  "order-1",
		OrderID:  "broker-order-1",
		ExecType: "0", // New
		Symbol:   "2330",
		Side:     "1",
		CumQty:   "0",
	})

	if err := m.Send([]strategy.OrderRequest{{
		Action:     strategy.ActionCancelReplace,
		Price:      price(101),
		Quantity:   10,
		Symbol:     "2330",
		Side:       events.SideBuy,
		InternalID: "order-1",
	}}); err != nil {
		t.Fatalf("unexpected error on replace: %v", err)
	}
	if fs.count() != 2 {
		t.Fatalf("expected replace to be sent once broker id known, got %d messages", fs.count())
	}
}

func TestManager_CancelDroppedWhenBrokerIDUnknown(t *testing.T) {
	m, fs := newTestManager()

	if err := m.Send([]strategy.OrderRequest{{
		Action:     strategy.ActionCancelReplace,
		Price:      price(100),
		Quantity:   10,
		Symbol:     "2330",
		Side:       events.SideBuy,
		InternalID: "order-1",
	}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := m.Send([]strategy.OrderRequest{{
		Action:     strategy.ActionCancel,
		Quantity:   10,
		Symbol:     "2330",
		Side:       events.SideBuy,
		InternalID: "order-1",
	}}); err != nil {
		t.Fatalf("unexpected error on cancel: %v", err)
	}
	if fs.count() != 1 {
		t.Fatalf("expected cancel to be dropped, got %d messages", fs.count())
	}
}

func TestManager_CancelUnknownInternalIDIsDropped(t *testing.T) {
	m, fs := newTestManager()

	if err := m.Send([]strategy.OrderRequest{{
		Action:     strategy.ActionCancel,
		Quantity:   10,
		Symbol:     "2330",
		Side:       events.SideBuy,
		InternalID: "never-placed",
	}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fs.count() != 0 {
		t.Fatalf("expected no message sent for unknown order, got %d", fs.count())
	}
}

func TestManager_OnExecutionReportUpdatesFillsAndStatus(t *testing.T) {
	m, _ := newTestManager()

	if err := m.Send([]strategy.OrderRequest{{
		Action:     strategy.ActionCancelReplace,
		Price:      price(100),
		Quantity:   10,
		Symbol:     "2330",
		Side:       events.SideBuy,
		InternalID: "order-1",
	}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.OnExecutionReport(&fixclient.ExecutionReport{
		ClOrdID:  "order-1",
		OrderID:  "broker-order-1",
		ExecType: "1", // Partial Fill
		CumQty:   "4",
		AvgPx:    "100.25",
	})

	order := m.GetOrder("order-1")
	if order.Status != StatusPartial {
		t.Fatalf("expected PARTIAL status, got %v", order.Status)
	}
	if order.FilledQty != 4 {
		t.Fatalf("expected filled qty 4, got %v", order.FilledQty)
	}
	if order.AvgPrice != 100.25 {
		t.Fatalf("expected avg price 100.25, got %v", order.AvgPrice)
	}

	m.OnExecutionReport(&fixclient.ExecutionReport{
		ClOrdID:  "order-1",
		OrderID:  "broker-order-1",
		ExecType: "2", // Filled
		CumQty:   "10",
		AvgPx:    "100.30",
	})

	order = m.GetOrder("order-1")
	if order.Status != StatusFilled {
		t.Fatalf("expected FILLED status, got %v", order.Status)
	}
	if order.FilledQty != 10 {
		t.Fatalf("expected filled qty 10, got %v", order.FilledQty)
	}
}

func TestManager_OrderByBrokerIDResolvesInO1(t *testing.T) {
	m, _ := newTestManager()

	if err := m.Send([]strategy.OrderRequest{{
		Action:     strategy.ActionCancelReplace,
		Price:      price(100),
		Quantity:   10,
		Symbol:     "2330",
		Side:       events.SideSell,
		InternalID: "order-1",
	}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.OnExecutionReport(&fixclient.ExecutionReport{
		ClOrdID:  "order-1",
		OrderID:  "broker-order-9",
		ExecType: "0",
	})

	order := m.OrderByBrokerID("broker-order-9")
	if order == nil {
		t.Fatalf("expected to resolve order by broker id")
	}
	if order.InternalID != "order-1" {
		t.Fatalf("expected internal id order-1, got %v", order.InternalID)
	}
	if order.Side != "2" {
		t.Fatalf("expected side code 2 (sell), got %v", order.Side)
	}

	if order := m.OrderByBrokerID("unknown-broker-id"); order != nil {
		t.Fatalf("expected nil for unknown broker id, got %+v", order)
	}
}

func TestManager_NewOrderSendFailureMarksRejected(t *testing.T) {
	m, fs := newTestManager()
	fs.err = errSendFailed

	err := m.Send([]strategy.OrderRequest{{
		Action:     strategy.ActionCancelReplace,
		Price:      price(100),
		Quantity:   10,
		Symbol:     "2330",
		Side:       events.SideBuy,
		InternalID: "order-1",
	}})
	if err == nil {
		t.Fatalf("expected error from failed send")
	}

	order := m.GetOrder("order-1")
	if order.Status != StatusRejected {
		t.Fatalf("expected REJECTED status after send failure, got %v", order.Status)
	}
}

func TestManager_UnknownActionReturnsError(t *testing.T) {
	m, _ := newTestManager()

	err := m.Send([]strategy.OrderRequest{{
		Action:     strategy.OrderAction("BOGUS"),
		Symbol:     "2330",
		Side:       events.SideBuy,
		InternalID: "order-1",
	}})
	if err == nil {
		t.Fatalf("expected error for unknown action")
	}
}
