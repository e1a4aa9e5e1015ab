// Package rate provides the Redis-backed failed-login throttle.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes,
// appended to the configured namespace:
//   - al:  login per-email (lowercased)
//   - ali: login per-IP
//
// # What this package must NOT do
//
//   - Decide what a failed login is. The engine calls IncrementLogin.
//   - Be imported outside the authcore module.
package rate
