package observability

import (
	"context"
	"testing"
	"time"

	"github.com/Charliesj0129/shijim/internal/bus"
	"github.com/Charliesj0129/shijim/internal/events"
	"github.com/Charliesj0129/shijim/internal/risk"
	"github.com/Charliesj0129/shijim/internal/strategy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type noopGateway struct{}

func (noopGateway) Send(orders []strategy.OrderRequest) error { return nil }

func newTestMetrics() *Metrics {
	return New(prometheus.NewRegistry())
}

func TestNew_RegistersEveryMetricExactlyOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	if m == nil {
		t.Fatal("expected non-nil Metrics")
	}
}

func TestWireBus_DropHookIncrementsCounter(t *testing.T) {
	m := newTestMetrics()
	b := bus.NewQueueBus(1, nil)
	m.WireBus(b)

	b.Publish(tickEvent("a"))
	b.Publish(tickEvent("b")) // evicts "a", should fire the drop hook

	if got := testutil.ToFloat64(m.BusDrops.WithLabelValues("queue_bus")); got != 1 {
		t.Fatalf("expected 1 drop, got %v", got)
	}
}

func TestPollQueueDepth_SamplesLag(t *testing.T) {
	m := newTestMetrics()
	b := bus.NewQueueBus(100, nil)
	b.Publish(tickEvent("a"))
	b.Publish(tickEvent("b"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.PollQueueDepth(ctx, b, []bus.Topic{bus.TopicAll}, 5*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	<-done

	if got := testutil.ToFloat64(m.BusQueueDepth.WithLabelValues(string(bus.TopicAll))); got != 2 {
		t.Fatalf("expected queue depth 2, got %v", got)
	}
}

func TestTimeFeature_ObservesDuration(t *testing.T) {
	m := newTestMetrics()
	m.TimeFeature("ofi", func() { time.Sleep(time.Millisecond) })

	if got := testutil.CollectAndCount(m.FeatureLatency); got == 0 {
		t.Fatalf("expected at least one sample recorded")
	}
}

func TestDrainRejections_CountsByReason(t *testing.T) {
	m := newTestMetrics()
	cfg := risk.Config{MaxOrderQty: 10, MaxPosition: 100, PriceDeviation: 0.1, MaxOrdersPerSec: 100}
	g := risk.NewGate(noopGateway{}, cfg, 100, 10, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.DrainRejections(ctx, g)
		close(done)
	}()

	price := 100.0
	oversized := strategy.OrderRequest{Action: strategy.ActionCancelReplace, Price: &price, Quantity: 50}
	if err := g.Send([]strategy.OrderRequest{oversized}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if testutil.ToFloat64(m.RiskRejections.WithLabelValues("MaxOrderQty")) == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := testutil.ToFloat64(m.RiskRejections.WithLabelValues("MaxOrderQty")); got != 1 {
		t.Fatalf("expected 1 MaxOrderQty rejection, got %v", got)
	}

	cancel()
	<-done
}

func tickEvent(symbol string) events.Event {
	return events.MDTickEvent{BaseEvent: events.BaseEvent{Type: events.TypeTick, Symbol: symbol}}
}
