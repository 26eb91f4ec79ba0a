// Package metric provides Prometheus-based metrics for the messaging
// runtime, plus an HTTP server exposing them.
//
// Metrics is the fixed set of runtime counters/histograms/gauges the
// messaging runtime records: events published/received/dispatched, command
// round-trip latency, open subscriptions, and faults by kind. Every
// recorder method is nil-receiver safe, so a *Metrics of nil disables
// metrics entirely without branching at call sites:
//
//	m := metric.NewMetrics()
//	m.RecordPublish("orders")
//	m.RecordCommandLatency("$", elapsed)
//
// MetricsRegistry additionally lets a host register its own
// service-specific counters/gauges/histograms under the same Prometheus
// registry used by Metrics, and exposes them together at /metrics via
// Server:
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//	go server.Start()
//	defer server.Stop()
//
// All metrics are namespaced cppplumberd_*, e.g.
// cppplumberd_messages_published_total, cppplumberd_command_round_trip_seconds.
package metric
