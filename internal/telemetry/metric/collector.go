package metric

import "github.com/prometheus/client_golang/prometheus"

// CountSource reports live record counts.
type CountSource interface {
	Collections() []string
	Count(collection string) int
}

// Collector reports the number of stored records per collection at
// scrape time.
type Collector struct {
	src  CountSource
	desc *prometheus.Desc
}

// NewCollector creates a collector over src.
func NewCollector(src CountSource) *Collector {
	return &Collector{
		src: src,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "stored_records"),
			"Records currently held in memory, by collection.",
			[]string{"collection"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, name := range c.src.Collections() {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(c.src.Count(name)), name)
	}
}
