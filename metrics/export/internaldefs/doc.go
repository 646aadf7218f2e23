// Package internaldefs holds the metric names, help text and latency bucket
// bounds shared by the Prometheus and OTel exporters so both publish the
// same series.
//
// # What this package must NOT do
//
//   - Import an exporter package.
//   - Perform I/O.
package internaldefs
