// Package internal holds the implementation packages behind the public
// authcore API.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher and Sink implementations)
//   - envconfig: environment and .env loading for cmd/authd
//   - flows: the authorize decision order as a pure function over injected deps
//   - httpapi: chi router exposing the Engine over HTTP
//   - metrics: lock-free counters and latency histograms
//   - rate: Redis fixed-window login throttle
//
// Nothing here is importable outside the authcore module.
package internal
