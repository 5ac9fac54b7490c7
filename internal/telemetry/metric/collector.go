package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ebalduf/netkv/internal/storage/hashtable"
)

// StatsSource yields point-in-time store statistics. *hashtable.Table
// satisfies it.
type StatsSource interface {
	Stats() hashtable.Stats
}

// TableCollector exposes hash table statistics as Prometheus metrics.
// Values are read on scrape, so gauges always reflect the live table.
type TableCollector struct {
	source StatsSource

	entries  *prometheus.Desc
	capacity *prometheus.Desc
	resizes  *prometheus.Desc
	sweeps   *prometheus.Desc
	expired  *prometheus.Desc
}

// NewTableCollector creates a collector over the given store.
func NewTableCollector(source StatsSource) *TableCollector {
	return &TableCollector{
		source: source,
		entries: prometheus.NewDesc(
			"netkv_store_entries",
			"Live (non-expired at last accounting) entries in the store.",
			nil, nil,
		),
		capacity: prometheus.NewDesc(
			"netkv_store_capacity",
			"Current bucket count of the store.",
			nil, nil,
		),
		resizes: prometheus.NewDesc(
			"netkv_store_resizes_total",
			"Total bucket array growths.",
			nil, nil,
		),
		sweeps: prometheus.NewDesc(
			"netkv_store_sweeps_total",
			"Total full-table expiry sweeps.",
			nil, nil,
		),
		expired: prometheus.NewDesc(
			"netkv_store_expired_total",
			"Total entries removed by expiry (lazy or swept).",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *TableCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.entries
	ch <- c.capacity
	ch <- c.resizes
	ch <- c.sweeps
	ch <- c.expired
}

// Collect implements prometheus.Collector.
func (c *TableCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stats()
	ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(s.Count))
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(s.Capacity))
	ch <- prometheus.MustNewConstMetric(c.resizes, prometheus.CounterValue, float64(s.Resizes))
	ch <- prometheus.MustNewConstMetric(c.sweeps, prometheus.CounterValue, float64(s.Sweeps))
	ch <- prometheus.MustNewConstMetric(c.expired, prometheus.CounterValue, float64(s.Expired))
}
