// Package observability provides a lifecycle hook that records dispatch
// metrics via OpenTelemetry.
//
// Register it on an emitter to automatically track connection churn,
// broadcast fanout, capture counts, emission failures, and slot panics:
//
//	e := beacon.New(
//	    beacon.WithHooks(observability.NewMetricsHook()),
//	)
//
// With no MeterProvider configured, OTel returns noop instruments and the
// hook becomes a pass-through.
package observability
