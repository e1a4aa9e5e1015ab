// Package authcore is the credential and session-token core of the farm
// marketplace backend: salted password storage, HS256 session tokens, silent
// refresh and per-request authorization for farmers, vets, customers and admins.
//
// The package is designed for concurrent server workloads: Engine methods are safe to call
// from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config], the
// [CredentialStore] and [Denylist] boundaries, and value types ([Principal],
// [Session], [AuthResult]). Flow orchestration, rate limiting, audit dispatch and
// metric storage live under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients, internal stores, or encoding details in its public API.
//   - Perform I/O outside of Engine methods (construction via Builder is allocation-only
//     until Build).
//   - Import any sub-package that re-imports authcore (no import cycles).
//   - Tell clients why a request was denied. Reasons go to logs, metrics and audit.
//
// # Performance contract
//
// Authorize is the hot path. Without a denylist it is pure CPU work: one HMAC and
// one JSON decode. With a denylist it adds one backend round-trip.
package authcore
