package authcore

import (
	"errors"

	"github.com/farmlink/authcore/jwt"
)

var (
	// ErrUnauthorized matches every denial that maps to HTTP 401.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden matches every denial that maps to HTTP 403.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidToken is matched by Malformed, BadSignature, Expired and Revoked denials.
	ErrInvalidToken = errors.New("invalid token")
	// ErrNoCredential is matched when no bearer token was presented.
	ErrNoCredential = errors.New("no credential presented")
	// ErrTokenRevoked is matched when the token ID is on the denylist.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrWrongRole is matched when the principal's role does not satisfy the requirement.
	ErrWrongRole = errors.New("wrong role")
	// ErrNotOwner is matched when the principal does not own the addressed resource.
	ErrNotOwner = errors.New("not resource owner")
	// ErrHashMismatch is matched when a password does not verify, including unknown emails.
	ErrHashMismatch = errors.New("password hash mismatch")

	// ErrNotFound is returned by CredentialStore implementations for absent records.
	ErrNotFound = errors.New("not found")
	// ErrAccountExists is returned when registering an email that is already taken.
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountRoleInvalid is returned for unknown roles or roles closed to self-registration.
	ErrAccountRoleInvalid = errors.New("invalid account role")
	// ErrAccountInvalid is returned for malformed registration input.
	ErrAccountInvalid = errors.New("invalid account request")
	// ErrPasswordPolicy is returned when a new password violates the length policy.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrLoginRateLimited is returned while the failed-login budget is exhausted.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrStoreUnavailable wraps unexpected credential store failures.
	ErrStoreUnavailable = errors.New("credential store unavailable")
	// ErrRevocationUnavailable is returned when the denylist cannot be consulted.
	ErrRevocationUnavailable = errors.New("revocation backend unavailable")

	// ErrMissingSigningSecret is returned by Builder.Build when no signing secret is configured.
	ErrMissingSigningSecret = errors.New("signing secret is required")
	// ErrEngineNotReady is returned when an operation is called on a nil engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// Reason is the closed set of authentication and authorization failure causes.
type Reason int

const (
	ReasonMalformed Reason = iota + 1
	ReasonBadSignature
	ReasonExpired
	ReasonRevoked
	ReasonNoCredential
	ReasonWrongRole
	ReasonNotOwner
	ReasonHashMismatch
)

var reasonNames = map[Reason]string{
	ReasonMalformed:    "malformed",
	ReasonBadSignature: "bad_signature",
	ReasonExpired:      "expired",
	ReasonRevoked:      "revoked",
	ReasonNoCredential: "no_credential",
	ReasonWrongRole:    "wrong_role",
	ReasonNotOwner:     "not_owner",
	ReasonHashMismatch: "hash_mismatch",
}

func (r Reason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return "unknown"
}

// Forbidden reports whether r denies an authenticated principal (403) rather
// than an unauthenticated caller (401).
func (r Reason) Forbidden() bool {
	return r == ReasonWrongRole || r == ReasonNotOwner
}

// DeniedError is returned by Authorize, Refresh, Login and ChangePassword.
// The Reason is for logs and metrics; clients only ever see "unauthorized"
// or "forbidden".
type DeniedError struct {
	Reason Reason
	Err    error
}

// Denied builds a DeniedError for r wrapping cause (which may be nil).
func Denied(r Reason, cause error) *DeniedError {
	return &DeniedError{Reason: r, Err: cause}
}

func (e *DeniedError) Error() string {
	if e.Err != nil {
		return "denied: " + e.Reason.String() + ": " + e.Err.Error()
	}
	return "denied: " + e.Reason.String()
}

// Is matches the HTTP-class sentinel for the reason.
func (e *DeniedError) Is(target error) bool {
	switch target {
	case ErrForbidden:
		return e.Reason.Forbidden()
	case ErrUnauthorized:
		return !e.Reason.Forbidden()
	}
	return false
}

// Unwrap exposes the reason sentinel and the underlying cause.
func (e *DeniedError) Unwrap() []error {
	out := []error{e.sentinel()}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

func (e *DeniedError) sentinel() error {
	switch e.Reason {
	case ReasonMalformed, ReasonBadSignature, ReasonExpired:
		return ErrInvalidToken
	case ReasonRevoked:
		return errors.Join(ErrInvalidToken, ErrTokenRevoked)
	case ReasonNoCredential:
		return ErrNoCredential
	case ReasonWrongRole:
		return ErrWrongRole
	case ReasonNotOwner:
		return ErrNotOwner
	case ReasonHashMismatch:
		return ErrHashMismatch
	default:
		return ErrUnauthorized
	}
}

// ReasonOf extracts the Reason from err, or 0 when err is not a denial.
func ReasonOf(err error) Reason {
	var denied *DeniedError
	if errors.As(err, &denied) {
		return denied.Reason
	}
	return 0
}

func reasonForTokenError(err error) Reason {
	switch {
	case errors.Is(err, jwt.ErrExpired):
		return ReasonExpired
	case errors.Is(err, jwt.ErrBadSignature):
		return ReasonBadSignature
	default:
		return ReasonMalformed
	}
}
