package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/farmlink/authcore/jwt"
)

// ErrUnknownRequiredRole is reported with AuthorizeFailureWrongRole when the
// requirement names a role NormalizeRole does not know. No token satisfies it.
var ErrUnknownRequiredRole = errors.New("requirement names an unknown role")

// AuthorizeFailureKind classifies authorization failures for root-level mapping.
type AuthorizeFailureKind int

const (
	AuthorizeFailureNone AuthorizeFailureKind = iota
	AuthorizeFailureNoCredential
	// AuthorizeFailureToken carries the validator error in Err.
	AuthorizeFailureToken
	AuthorizeFailureRevoked
	AuthorizeFailureRevocationUnavailable
	AuthorizeFailureWrongRole
	AuthorizeFailureNotOwner
)

// AuthorizeRequirement mirrors the root Requirement without importing it.
type AuthorizeRequirement struct {
	Role       string
	OwnerID    string
	AllowAdmin bool
}

// AuthorizeResult returns either validated claims or a classified failure.
type AuthorizeResult struct {
	Failure AuthorizeFailureKind
	Err     error
	Claims  *jwt.Claims
}

// AuthorizeDeps captures guard dependencies.
type AuthorizeDeps struct {
	Validate func(string) (*jwt.Claims, error)
	// NormalizeRole maps a role claim or a required role onto a canonical role.
	// For a claim, false rejects the token as malformed.
	NormalizeRole func(string) (string, bool)
	// IsRevoked is nil when no denylist is configured.
	IsRevoked func(ctx context.Context, tokenID string) (bool, error)
	AdminRole string
}

// BearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	const bearer = "bearer "
	if len(header) < len(bearer) || !strings.EqualFold(header[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}

// RunAuthorize validates token, consults the denylist and applies req.
// Checks run in order: token, revocation, role, ownership.
func RunAuthorize(ctx context.Context, token string, req AuthorizeRequirement, deps AuthorizeDeps) AuthorizeResult {
	if token == "" {
		return AuthorizeResult{Failure: AuthorizeFailureNoCredential}
	}

	claims, err := deps.Validate(token)
	if err != nil {
		return AuthorizeResult{Failure: AuthorizeFailureToken, Err: err}
	}
	if claims.Subject == "" {
		return AuthorizeResult{Failure: AuthorizeFailureToken, Err: jwt.ErrMalformed}
	}
	role, ok := deps.NormalizeRole(claims.Role)
	if !ok {
		return AuthorizeResult{Failure: AuthorizeFailureToken, Err: jwt.ErrMalformed}
	}
	claims.Role = role

	if deps.IsRevoked != nil && claims.ID != "" {
		revoked, err := deps.IsRevoked(ctx, claims.ID)
		if err != nil {
			return AuthorizeResult{Failure: AuthorizeFailureRevocationUnavailable, Err: err}
		}
		if revoked {
			return AuthorizeResult{Failure: AuthorizeFailureRevoked}
		}
	}

	if req.Role != "" {
		want, ok := deps.NormalizeRole(req.Role)
		if !ok {
			return AuthorizeResult{Failure: AuthorizeFailureWrongRole, Err: ErrUnknownRequiredRole, Claims: claims}
		}
		if claims.Role != want {
			return AuthorizeResult{Failure: AuthorizeFailureWrongRole, Claims: claims}
		}
	}

	if req.OwnerID != "" && claims.Subject != req.OwnerID {
		if !(req.AllowAdmin && deps.AdminRole != "" && claims.Role == deps.AdminRole) {
			return AuthorizeResult{Failure: AuthorizeFailureNotOwner, Claims: claims}
		}
	}

	return AuthorizeResult{Claims: claims}
}
