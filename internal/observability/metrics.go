// Package observability wires the pipeline's structured logging
// (go.uber.org/zap) and metrics (github.com/prometheus/client_golang).
// This pipeline runs at 10^4-10^5 events/sec and needs leveled,
// low-allocation logging that stdlib log.Println can't give without
// hand-rolling one.
package observability

import "github.com/prometheus/client_golang/prometheus"

// Metrics is every counter/gauge/histogram the pipeline's components
// publish to, constructed once at startup and passed down by reference.
type Metrics struct {
	BusQueueDepth   *prometheus.GaugeVec
	BusDrops        *prometheus.CounterVec
	RawWriterRotate prometheus.Counter
	ColumnarState   prometheus.Gauge
	IngestFlush     *prometheus.HistogramVec
	RiskRejections  *prometheus.CounterVec
	FeatureLatency  *prometheus.HistogramVec
}

// New constructs every metric and registers it against reg. Pass
// prometheus.NewRegistry() in production and a fresh registry per test
// in tests, so repeated test runs don't collide on global registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BusQueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "shijim",
			Subsystem: "bus",
			Name:      "queue_depth",
			Help:      "Current number of buffered events per bus topic.",
		}, []string{"topic"}),
		BusDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shijim",
			Subsystem: "bus",
			Name:      "drops_total",
			Help:      "Events dropped by a bus or writer due to a full buffer.",
		}, []string{"component"}),
		RawWriterRotate: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shijim",
			Subsystem: "raw_writer",
			Name:      "rotations_total",
			Help:      "Number of times the raw JSONL writer rotated to a new file.",
		}),
		ColumnarState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "shijim",
			Subsystem: "columnar_writer",
			Name:      "state",
			Help:      "Columnar writer state: 0=Healthy, 1=RetryingBackoff, 2=Fallback.",
		}),
		IngestFlush: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shijim",
			Subsystem: "ingest",
			Name:      "flush_duration_seconds",
			Help:      "Duration of one ingestion worker flush dispatch across all writers.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"trigger"}),
		RiskRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shijim",
			Subsystem: "risk",
			Name:      "rejections_total",
			Help:      "Orders rejected by the risk gate, by guard reason.",
		}, []string{"reason"}),
		FeatureLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shijim",
			Subsystem: "features",
			Name:      "compute_duration_seconds",
			Help:      "Per-event compute latency for a feature calculator.",
			Buckets:   prometheus.ExponentialBuckets(0.000001, 4, 10),
		}, []string{"calculator"}),
	}

	reg.MustRegister(
		m.BusQueueDepth,
		m.BusDrops,
		m.RawWriterRotate,
		m.ColumnarState,
		m.IngestFlush,
		m.RiskRejections,
		m.FeatureLatency,
	)
	return m
}
