// Package otel publishes authcore metrics through an OpenTelemetry Meter.
//
// [NewExporter] registers one Int64ObservableCounter per engine counter and a
// single cumulative bucket gauge for the authorize latency histogram, labelled
// by the "le" attribute. One callback reads Engine.MetricsSnapshot per
// collection cycle. Callers own the MeterProvider.
package otel
