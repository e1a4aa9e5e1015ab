package jwt

import "errors"

var (
	// ErrMalformed is returned for tokens that are not three base64url segments
	// or whose header or claims cannot be decoded.
	ErrMalformed = errors.New("token malformed")
	// ErrBadSignature is returned when the signature does not match the secret.
	ErrBadSignature = errors.New("token signature invalid")
	// ErrExpired is returned when the current time is at or past exp.
	ErrExpired = errors.New("token expired")
	// ErrMissingSecret is returned by NewManager when no signing secret is configured.
	ErrMissingSecret = errors.New("signing secret is required")
	// ErrMissingSubject is returned by Mint for an empty subject.
	ErrMissingSubject = errors.New("token subject is required")
	// ErrInvalidTTL is returned for lifetimes that are not a positive whole
	// number of seconds. iat and exp are second-resolution NumericDates.
	ErrInvalidTTL = errors.New("token ttl must be a positive whole number of seconds")
)
