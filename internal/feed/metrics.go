package feed

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricEnvelopesProcessed = "feed_envelopes_processed_total"
	MetricEnvelopesError     = "feed_envelopes_error_total"
	MetricEventsUpserted     = "feed_events_upserted_total"
	MetricEventsDiscarded    = "feed_events_discarded_total"
	MetricIngestLatency      = "feed_ingest_latency_seconds"
)

// Metrics contains Prometheus metrics for the feed consumer.
// All operations are thread-safe.
type Metrics struct {
	envelopesProcessed prometheus.Counter
	envelopesError     prometheus.Counter
	eventsUpserted     prometheus.Counter
	eventsDiscarded    prometheus.Counter
	ingestLatency      prometheus.Histogram
}

// NewMetrics creates a Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them.
func NewMetrics() *Metrics {
	return &Metrics{
		envelopesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricEnvelopesProcessed,
			Help: "Total number of feed envelopes processed",
		}),
		envelopesError: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricEnvelopesError,
			Help: "Total number of feed envelopes that failed processing",
		}),
		eventsUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricEventsUpserted,
			Help: "Total number of feed events upserted into the catalog",
		}),
		eventsDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricEventsDiscarded,
			Help: "Total number of feed events discarded by validation",
		}),
		ingestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricIngestLatency,
			Help:    "Histogram of envelope ingestion latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncEnvelopesProcessed increments the envelopes processed counter.
func (m *Metrics) IncEnvelopesProcessed() {
	m.envelopesProcessed.Inc()
}

// IncEnvelopesError increments the envelopes error counter.
func (m *Metrics) IncEnvelopesError() {
	m.envelopesError.Inc()
}

// AddEventsUpserted adds to the events upserted counter.
func (m *Metrics) AddEventsUpserted(n int) {
	m.eventsUpserted.Add(float64(n))
}

// AddEventsDiscarded adds to the events discarded counter.
func (m *Metrics) AddEventsDiscarded(n int) {
	m.eventsDiscarded.Add(float64(n))
}

// ObserveIngestLatency records an ingestion latency sample.
func (m *Metrics) ObserveIngestLatency(seconds float64) {
	m.ingestLatency.Observe(seconds)
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.envelopesProcessed,
		m.envelopesError,
		m.eventsUpserted,
		m.eventsDiscarded,
		m.ingestLatency,
	}
}
