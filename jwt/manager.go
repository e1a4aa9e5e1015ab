package jwt

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultAccessTTL is the lifetime applied when Mint is called with ttl <= 0 and
// Config.AccessTTL is unset.
const DefaultAccessTTL = 24 * time.Hour

// Config configures a Manager.
type Config struct {
	// Secret is the shared HMAC-SHA256 key. Required.
	Secret []byte
	// AccessTTL is the default token lifetime. Zero selects DefaultAccessTTL.
	AccessTTL time.Duration
	// Issuer is written to the iss claim and reported back via Claims.TrustedIssuer.
	Issuer string
	// Now overrides the clock. Nil selects time.Now.
	Now func() time.Time
}

// Claims is the decoded token payload.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"type"`
	// LegacyRole carries the userType claim written by older issuers. Validate
	// folds it into Role when type is absent.
	LegacyRole string `json:"userType,omitempty"`

	// TrustedIssuer is set by Validate when iss equals the configured issuer.
	TrustedIssuer bool `json:"-"`

	gjwt.RegisteredClaims
}

// Manager mints and validates tokens with a single shared secret.
//
// Manager is immutable after construction and safe for concurrent use.
type Manager struct {
	config    Config
	validator *gjwt.Validator
	parser    *gjwt.Parser
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrMissingSecret
	}
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if !WholeSeconds(cfg.AccessTTL) {
		return nil, ErrInvalidTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.Secret = append([]byte(nil), cfg.Secret...)

	return &Manager{
		config:    cfg,
		validator: gjwt.NewValidator(gjwt.WithTimeFunc(cfg.Now), gjwt.WithExpirationRequired()),
		parser:    gjwt.NewParser(),
	}, nil
}

// WholeSeconds reports whether d is a positive whole number of seconds, the
// only lifetimes that survive the second-resolution iat and exp claims intact.
func WholeSeconds(d time.Duration) bool {
	return d >= time.Second && d%time.Second == 0
}

// DefaultTTL returns the configured access-token lifetime.
func (m *Manager) DefaultTTL() time.Duration {
	return m.config.AccessTTL
}

// Now returns the manager's clock reading.
func (m *Manager) Now() time.Time {
	return m.config.Now()
}

// Issuer returns the configured iss value.
func (m *Manager) Issuer() string {
	return m.config.Issuer
}

// Mint signs a token for the given principal. A ttl <= 0 selects DefaultTTL; any
// other ttl that is not a whole number of seconds is rejected with ErrInvalidTTL.
// iat is the current second and exp is iat + ttl.
func (m *Manager) Mint(subject, email, name, role string, ttl time.Duration) (string, error) {
	token, _, err := m.Issue(subject, email, name, role, ttl)
	return token, err
}

// Issue is Mint that also returns the claims written into the token.
func (m *Manager) Issue(subject, email, name, role string, ttl time.Duration) (string, *Claims, error) {
	if subject == "" {
		return "", nil, ErrMissingSubject
	}
	if ttl <= 0 {
		ttl = m.config.AccessTTL
	}
	if !WholeSeconds(ttl) {
		return "", nil, ErrInvalidTTL
	}

	issuedAt := m.config.Now().Truncate(time.Second)
	claims := &Claims{
		Email: email,
		Name:  name,
		Role:  role,
		RegisteredClaims: gjwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.config.Issuer,
			IssuedAt:  gjwt.NewNumericDate(issuedAt),
			ExpiresAt: gjwt.NewNumericDate(issuedAt.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
	if err != nil {
		return "", nil, err
	}
	claims.TrustedIssuer = m.config.Issuer != ""
	return token, claims, nil
}

// Validate checks token structure, then signature, then expiry, and returns the
// decoded claims. It never panics on untrusted input.
func (m *Manager) Validate(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrMalformed
	}
	for _, part := range parts {
		if part == "" {
			return nil, ErrMalformed
		}
		if _, err := base64.RawURLEncoding.DecodeString(part); err != nil {
			return nil, ErrMalformed
		}
	}

	// Comparing the encoded segment also rejects edits to the unused trailing bits.
	sig, err := gjwt.SigningMethodHS256.Sign(parts[0]+"."+parts[1], m.config.Secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	expected := base64.RawURLEncoding.EncodeToString(sig)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(parts[2])) != 1 {
		return nil, ErrBadSignature
	}

	claims := &Claims{}
	parsed, _, err := m.parser.ParseUnverified(token, claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if parsed.Method == nil || parsed.Method.Alg() != gjwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("%w: unexpected signing algorithm", ErrMalformed)
	}

	if err := m.validator.Validate(claims); err != nil {
		if errors.Is(err, gjwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if claims.Role == "" {
		claims.Role = claims.LegacyRole
	}
	claims.LegacyRole = ""
	claims.TrustedIssuer = m.config.Issuer != "" && claims.Issuer == m.config.Issuer

	return claims, nil
}
