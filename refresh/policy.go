package refresh

import (
	"errors"
	"time"

	"github.com/farmlink/authcore/jwt"
)

// DefaultWindow is the remaining-lifetime threshold below which tokens are reissued.
const DefaultWindow = 120 * time.Minute

// Tokens is the subset of *jwt.Manager the policy needs.
type Tokens interface {
	Validate(token string) (*jwt.Claims, error)
	Mint(subject, email, name, role string, ttl time.Duration) (string, error)
	Now() time.Time
	DefaultTTL() time.Duration
}

// Config configures a Policy.
type Config struct {
	// Window is the remaining-lifetime threshold. Zero selects DefaultWindow.
	Window time.Duration
	// TTL is the lifetime of reissued tokens. Zero selects Tokens.DefaultTTL.
	TTL time.Duration
}

// Result is the outcome of MaybeRefresh.
type Result struct {
	// Token is the new token when Refreshed, otherwise the input token.
	Token string
	// Claims describes Token.
	Claims *jwt.Claims
	// Refreshed reports whether a new token was minted.
	Refreshed bool
}

// Policy is immutable after construction and safe for concurrent use.
type Policy struct {
	tokens Tokens
	window time.Duration
	ttl    time.Duration
}

// NewPolicy validates cfg and returns a Policy bound to tokens.
func NewPolicy(tokens Tokens, cfg Config) (*Policy, error) {
	if tokens == nil {
		return nil, errors.New("refresh: token manager is required")
	}
	if cfg.Window < 0 || cfg.TTL < 0 {
		return nil, errors.New("refresh: window and ttl must be >= 0")
	}
	if cfg.Window == 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.TTL == 0 {
		cfg.TTL = tokens.DefaultTTL()
	}
	if !jwt.WholeSeconds(cfg.TTL) {
		return nil, jwt.ErrInvalidTTL
	}
	if cfg.TTL <= cfg.Window {
		return nil, errors.New("refresh: ttl must exceed window")
	}

	return &Policy{tokens: tokens, window: cfg.Window, ttl: cfg.TTL}, nil
}

// Window returns the configured refresh window.
func (p *Policy) Window() time.Duration {
	return p.window
}

// MaybeRefresh validates token and reissues it when it is inside the window.
// Validation errors are returned unchanged (jwt.ErrMalformed, jwt.ErrBadSignature,
// jwt.ErrExpired).
func (p *Policy) MaybeRefresh(token string) (Result, error) {
	claims, err := p.tokens.Validate(token)
	if err != nil {
		return Result{}, err
	}
	if claims.ExpiresAt == nil {
		return Result{}, jwt.ErrMalformed
	}

	remaining := claims.ExpiresAt.Sub(p.tokens.Now())
	if remaining <= 0 {
		return Result{}, jwt.ErrExpired
	}
	if remaining >= p.window {
		return Result{Token: token, Claims: claims}, nil
	}

	fresh, err := p.tokens.Mint(claims.Subject, claims.Email, claims.Name, claims.Role, p.ttl)
	if err != nil {
		return Result{}, err
	}
	freshClaims, err := p.tokens.Validate(fresh)
	if err != nil {
		return Result{}, err
	}

	return Result{Token: fresh, Claims: freshClaims, Refreshed: true}, nil
}
