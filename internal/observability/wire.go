package observability

import (
	"context"
	"time"

	"github.com/Charliesj0129/shijim/internal/bus"
	"github.com/Charliesj0129/shijim/internal/ingest"
	"github.com/Charliesj0129/shijim/internal/recorder/columnar"
	"github.com/Charliesj0129/shijim/internal/recorder/raw"
	"github.com/Charliesj0129/shijim/internal/risk"
)

// busMetricsTarget is satisfied by both bus.QueueBus and bus.BroadcastBus;
// it lets WireBus attach the same two hooks to either without the bus
// package importing prometheus itself.
type busMetricsTarget interface {
	SetDropHook(bus.DropHook)
	SetHighWaterHook(bus.HighWaterHook)
}

// WireBus attaches m's drop counter to b via the hook setter
// bus.QueueBus/bus.BroadcastBus already expose, so the bus package stays
// free of any metrics-library dependency. The high-water hook only fires
// on threshold crossings, so queue depth itself is kept current instead
// by PollQueueDepth.
func (m *Metrics) WireBus(b busMetricsTarget) {
	b.SetDropHook(func(topic bus.Topic, label string) {
		m.BusDrops.WithLabelValues(label).Inc()
	})
	b.SetHighWaterHook(func(topic bus.Topic, label string, depth, capacity int) {
		m.BusQueueDepth.WithLabelValues(string(topic)).Set(float64(depth))
	})
}

// PollQueueDepth samples b.Lag for every topic in topics once per interval
// until ctx is cancelled, keeping BusQueueDepth current between the
// high-water crossings WireBus's hook reports.
func (m *Metrics) PollQueueDepth(ctx context.Context, b bus.Bus, topics []bus.Topic, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, topic := range topics {
				m.BusQueueDepth.WithLabelValues(string(topic)).Set(float64(b.Lag(topic)))
			}
		}
	}
}

// WireRawWriter attaches m's rotation counter to w via SetRotateHook.
func (m *Metrics) WireRawWriter(w *raw.Writer) {
	w.SetRotateHook(func(tradingDay, symbol string) {
		m.RawWriterRotate.Inc()
	})
}

// WireIngestWorker attaches m's flush-latency histogram to w via
// SetFlushHook.
func (m *Metrics) WireIngestWorker(w *ingest.Worker) {
	w.SetFlushHook(func(trigger string, d time.Duration) {
		m.IngestFlush.WithLabelValues(trigger).Observe(d.Seconds())
	})
}

// TimeFeature runs compute, observes its wall-clock duration against
// FeatureLatency under the given calculator label, and returns whatever
// compute returned. The feature calculators (OFICalculator, VPINCalculator,
// HawkesEstimator) are plain synchronous functions with no hook of their
// own, so timing wraps the call site instead of threading a hook through
// three unrelated, otherwise dependency-free types.
func (m *Metrics) TimeFeature(calculator string, compute func()) {
	start := time.Now()
	compute()
	m.FeatureLatency.WithLabelValues(calculator).Observe(time.Since(start).Seconds())
}

// DrainRejections consumes g.Rejections() until ctx is cancelled or the
// channel closes, incrementing RiskRejections per rejection reason. Run
// it in its own goroutine from the composition root.
func (m *Metrics) DrainRejections(ctx context.Context, g *risk.Gate) {
	ch := g.Rejections()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			m.RiskRejections.WithLabelValues(ev.Reason).Inc()
		}
	}
}

// PollColumnarState samples w.State() once per interval until ctx is
// cancelled and republishes it as the ColumnarState gauge (already
// numbered 0=Healthy, 1=RetryingBackoff, 2=Fallback to match w.State()).
func (m *Metrics) PollColumnarState(ctx context.Context, w *columnar.Writer, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.ColumnarState.Set(float64(w.State()))
		}
	}
}
