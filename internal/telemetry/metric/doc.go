// Package metric provides Prometheus metrics for tokgate.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: application registry and HTTP handler
//   - collector.go: collector reading ticket store occupancy on scrape
//
// Metrics include:
//
//   - Ticket registrations, redemptions and sweeps
//   - Handshake outcomes by method
//   - Live connection and message counts
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
