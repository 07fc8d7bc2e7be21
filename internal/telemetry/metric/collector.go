package metric

import "github.com/prometheus/client_golang/prometheus"

// TicketStats is the view of the ticket store read on every scrape.
type TicketStats interface {
	Len() int
	Buckets() int
}

// Collector reports ticket store occupancy at scrape time, so the gauges
// never drift from the store.
type Collector struct {
	stats TicketStats

	active  *prometheus.Desc
	buckets *prometheus.Desc
}

// NewCollector creates a collector over stats.
func NewCollector(stats TicketStats) *Collector {
	return &Collector{
		stats: stats,
		active: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "", "tickets_active"),
			"Number of reconnection tickets awaiting redemption.",
			nil, nil,
		),
		buckets: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "", "ticket_expiry_buckets"),
			"Number of distinct expiry instants in the ticket index.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.active
	ch <- c.buckets
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.active, prometheus.GaugeValue, float64(c.stats.Len()))
	ch <- prometheus.MustNewConstMetric(c.buckets, prometheus.GaugeValue, float64(c.stats.Buckets()))
}
