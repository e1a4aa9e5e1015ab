// Package middleware exposes net/http adapters over authcore.Engine.Authorize.
//
// # Guards
//
//   - [RequireAuth]: any valid, unrevoked token.
//   - [RequireRole]: token whose role claim equals the given role.
//   - [RequireOwner]: token whose subject owns the addressed resource, with an
//     optional admin override.
//   - [Guard]: the general form taking a per-request Requirement.
//
// Each guard reads the Authorization header, calls Authorize, and injects the
// *authcore.AuthResult into the request context. Denials map to a bare 401
// "unauthorized" or 403 "forbidden"; the failure reason never reaches the client.
//
// # What this package must NOT do
//
//   - Parse or create tokens (delegates to the Engine).
//   - Make authorization decisions beyond what Authorize returns.
package middleware
