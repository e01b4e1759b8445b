// Package prometheus renders goLogin engine metrics in Prometheus text exposition format.
//
// [NewExporter] accepts a [*goLogin.Engine] (or any [Source]) and exposes an [http.Handler].
// Counter names are prefixed gologin_*_total; the single histogram is
// gologin_flow_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry. Callers mount the Handler.
//   - Mutate engine state.
package prometheus
