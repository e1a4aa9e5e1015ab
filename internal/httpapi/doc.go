// Package httpapi exposes an authcore Engine over HTTP using chi.
//
// Routes:
//
//	POST /auth/register          self-registration, returns a session
//	POST /auth/login             email and password login, returns a session
//	POST /auth/refresh           silent refresh of the bearer token
//	POST /auth/logout            revokes the bearer token when a denylist is configured
//	PUT  /auth/password          changes the caller's password
//	GET  /auth/me                the caller's principal
//	GET  /principals/{id}        a principal, for its owner or an admin
//	GET  /admin/ping             admin-only liveness probe
//	GET  /metrics                Prometheus exposition, when a handler is supplied
//	GET  /healthz                process liveness
//
// Responses use the {"data": ...} and {"error": ..., "message": ...} envelopes.
package httpapi
