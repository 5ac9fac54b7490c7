// Package metric provides Prometheus metrics for netkv.
//
// It exposes counters and gauges for the command path (commands by
// name and status, active connections) plus a custom collector that
// reads store statistics (live entries, bucket capacity, resize and
// sweep totals) straight from the hash table.
//
// Metrics are served at /metrics in Prometheus format when the
// telemetry listener is enabled.
package metric
