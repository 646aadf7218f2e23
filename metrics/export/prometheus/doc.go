// Package prometheus exposes goGuard engine counters through a
// client_golang [prom.Collector].
//
// [NewCollector] reads [goGuard.Engine.MetricsSnapshot] on every scrape.
// Counter names are prefixed goguard_*_total; the only histogram is
// goguard_provider_latency_seconds and is published when latency
// histograms are enabled. [HTTPMetrics] adds per-route request counters
// for the HTTP surface.
//
// # What this package must NOT do
//
//   - Register anything in the global Prometheus registry. [Handler] uses
//     a private one.
//   - Mutate engine state.
package prometheus
