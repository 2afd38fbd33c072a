// Package telemetry records metrics and traces for dependency scans and
// panel repeats.
//
// Metrics are registered once by calling Init; until then every Record
// function is a no-op, so packages can record unconditionally:
//
//	telemetry.Init(telemetry.WithNamespace("dash"))
//	http.Handle("/metrics", promhttp.Handler())
//
// Spans are created from the global OpenTelemetry tracer provider.
package telemetry
