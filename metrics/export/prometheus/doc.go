// Package prometheus adapts authcore metrics to the Prometheus client library.
//
// [Exporter] implements prometheus.Collector: every scrape reads one
// Engine.MetricsSnapshot and emits const metrics, so the engine keeps its
// lock-free counters and Prometheus never sees partial updates. Counter names are
// authcore_*_total; the single histogram is authcore_authorize_latency_seconds.
//
// The exporter never registers itself with the default registry. Use
// [Exporter.Handler] for a private registry or register it on your own.
package prometheus
