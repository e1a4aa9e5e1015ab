// Package refresh decides when a still-valid session token should be reissued.
//
// # Policy
//
// A token whose remaining lifetime is below the configured window is replaced by
// a fresh token carrying the same subject, email, name and role. Tokens with more
// time left are returned unchanged; expired tokens are rejected.
//
// # What this package must NOT do
//
//   - Access Redis or any I/O.
//   - Import authcore or session storage.
//   - Run on the validation path. Refresh is always an explicit caller action.
package refresh
