package revocation

import "errors"

var (
	// ErrUnavailable wraps backend transport failures.
	ErrUnavailable = errors.New("revocation backend unavailable")
	// ErrEmptyTokenID is returned when revoking a token without a jti.
	ErrEmptyTokenID = errors.New("token id is required")
)
