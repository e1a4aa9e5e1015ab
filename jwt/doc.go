// Package jwt mints and validates HS256 session tokens.
//
// Tokens are compact JWS strings whose payload carries the principal's subject,
// email, display name and role. Validation is stateless: a token is valid when its
// signature verifies under the configured secret and the current time is before
// its exp claim. Failures are reported as [ErrMalformed], [ErrBadSignature] or
// [ErrExpired] so callers can map them with errors.Is.
package jwt
