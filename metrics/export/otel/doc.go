// Package otel publishes goLogin engine metrics through OpenTelemetry.
//
// [NewExporter] registers an Int64ObservableCounter per engine counter and an
// Int64ObservableGauge per latency bucket. A single callback reads
// [goLogin.Engine.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel
