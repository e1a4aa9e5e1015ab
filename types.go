package authcore

import (
	"context"
	"strings"
	"time"
)

// Role is the principal type carried in the token's type claim.
type Role string

const (
	RoleFarmer   Role = "farmer"
	RoleVet      Role = "vet"
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Roles lists every known role.
func Roles() []Role {
	return []Role{RoleFarmer, RoleVet, RoleCustomer, RoleAdmin}
}

// ParseRole maps a claim or request value onto a known Role. Matching is
// case-insensitive; "veterinarian" is accepted as an alias of vet.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "farmer":
		return RoleFarmer, true
	case "vet", "veterinarian":
		return RoleVet, true
	case "customer":
		return RoleCustomer, true
	case "admin":
		return RoleAdmin, true
	default:
		return "", false
	}
}

func (r Role) String() string { return string(r) }

// Principal is an authenticated party. Role is fixed at registration.
type Principal struct {
	ID          string `json:"id"`
	Role        Role   `json:"role"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// Credential is the stored password material for one principal.
// PasswordHash is never returned to clients.
type Credential struct {
	PrincipalID  string `json:"principalId"`
	Salt         string `json:"salt"`
	PasswordHash string `json:"passwordHash"`
}

// CredentialStore is the lookup boundary onto the document store. Absent records
// are reported as ErrNotFound. Implementations must be safe for concurrent use.
type CredentialStore interface {
	FindBySubjectID(ctx context.Context, principalID string) (*Credential, error)
	FindByEmail(ctx context.Context, email string) (*Principal, error)
	FindPrincipal(ctx context.Context, principalID string) (*Principal, error)
	// CreatePrincipal stores p and its first credential atomically. It returns
	// ErrAccountExists when the email is taken.
	CreatePrincipal(ctx context.Context, p Principal, c Credential) error
	Upsert(ctx context.Context, c Credential) error
}

// Denylist records revoked token IDs until their natural expiry.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Requirement describes what a request needs beyond a valid token.
// Zero values impose no constraint.
type Requirement struct {
	// Role is normalized like a claim; an unknown role denies every caller.
	Role    Role
	OwnerID string
	// AllowAdmin lets an admin principal pass the ownership check.
	AllowAdmin bool
}

// AuthResult is returned by Authorize on success.
type AuthResult struct {
	Principal Principal
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	// TrustedIssuer reports whether iss matched the configured issuer.
	TrustedIssuer bool
}

// Session is a freshly minted or refreshed token and the principal it names.
type Session struct {
	Token     string    `json:"token"`
	Principal Principal `json:"principal"`
	ExpiresAt time.Time `json:"expiresAt"`
	Refreshed bool      `json:"refreshed"`
}

// RegisterInput is the self-registration request.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	Role        Role
}
