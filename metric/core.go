package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the runtime counters, histograms, and gauges the
// messaging runtime exposes, namespaced cppplumberd_* per SPEC_FULL.md's
// ambient stack section.
type Metrics struct {
	MessagesPublished *prometheus.CounterVec
	MessagesReceived  *prometheus.CounterVec
	MessagesDispatched *prometheus.CounterVec
	CommandLatency    *prometheus.HistogramVec
	OpenSubscriptions prometheus.Gauge
	FaultsTotal       *prometheus.CounterVec
}

// NewMetrics creates a fresh, unregistered Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{
		MessagesPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cppplumberd",
				Subsystem: "messages",
				Name:      "published_total",
				Help:      "Total number of events published, by stream.",
			},
			[]string{"stream"},
		),

		MessagesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cppplumberd",
				Subsystem: "messages",
				Name:      "received_total",
				Help:      "Total number of frames received on a subscribe or reply-server socket.",
			},
			[]string{"endpoint"},
		),

		MessagesDispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cppplumberd",
				Subsystem: "messages",
				Name:      "dispatched_total",
				Help:      "Total number of frames successfully dispatched to a registered handler.",
			},
			[]string{"endpoint", "status"},
		),

		CommandLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "cppplumberd",
				Subsystem: "command",
				Name:      "round_trip_seconds",
				Help:      "Request/reply client round-trip latency in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"recipient"},
		),

		OpenSubscriptions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "cppplumberd",
				Subsystem: "subscriptions",
				Name:      "open",
				Help:      "Number of currently open client subscriptions.",
			},
		),

		FaultsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cppplumberd",
				Subsystem: "faults",
				Name:      "total",
				Help:      "Total number of faults raised, by kind.",
			},
			[]string{"kind"},
		),
	}
}

// RecordPublish increments the published-events counter for a stream.
func (m *Metrics) RecordPublish(stream string) {
	if m == nil {
		return
	}
	m.MessagesPublished.WithLabelValues(stream).Inc()
}

// RecordReceived increments the received-frames counter for an endpoint.
func (m *Metrics) RecordReceived(endpoint string) {
	if m == nil {
		return
	}
	m.MessagesReceived.WithLabelValues(endpoint).Inc()
}

// RecordDispatched increments the dispatched-frames counter.
func (m *Metrics) RecordDispatched(endpoint, status string) {
	if m == nil {
		return
	}
	m.MessagesDispatched.WithLabelValues(endpoint, status).Inc()
}

// RecordCommandLatency observes a request/reply round-trip duration.
func (m *Metrics) RecordCommandLatency(recipient string, d time.Duration) {
	if m == nil {
		return
	}
	m.CommandLatency.WithLabelValues(recipient).Observe(d.Seconds())
}

// SetOpenSubscriptions sets the open-subscriptions gauge.
func (m *Metrics) SetOpenSubscriptions(n int) {
	if m == nil {
		return
	}
	m.OpenSubscriptions.Set(float64(n))
}

// RecordFault increments the faults-by-kind counter.
func (m *Metrics) RecordFault(kind string) {
	if m == nil {
		return
	}
	m.FaultsTotal.WithLabelValues(kind).Inc()
}
