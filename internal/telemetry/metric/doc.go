// Package metric provides Prometheus metrics for the record store.
//
//   - prometheus.go: Registry with the store's counters, gauges and
//     histograms, plus textfile export
//   - collector.go: Collector reporting live record counts
//
// The CLI has no HTTP surface, so metrics are written in the text
// exposition format to a file for the node exporter textfile collector.
package metric
