package jwt

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret-test-secret-test-sec")

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func newTestManager(t *testing.T, clock *testClock) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		Secret:    testSecret,
		AccessTTL: 24 * time.Hour,
		Issuer:    "farmlink",
		Now:       clock.Now,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestNewManagerRequiresSecret(t *testing.T) {
	if _, err := NewManager(Config{}); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
}

func TestMintValidateRoundTrip(t *testing.T) {
	clock := &testClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	m := newTestManager(t, clock)

	for _, ttl := range []time.Duration{time.Second, time.Minute, 2 * time.Hour, 24 * time.Hour} {
		token, err := m.Mint("farmer-1", "ann@example.com", "Ann", "farmer", ttl)
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		if strings.Count(token, ".") != 2 {
			t.Fatalf("expected three segments, got %q", token)
		}

		claims, err := m.Validate(token)
		if err != nil {
			t.Fatalf("validate: %v", err)
		}
		if claims.Subject != "farmer-1" || claims.Email != "ann@example.com" || claims.Name != "Ann" || claims.Role != "farmer" {
			t.Fatalf("unexpected claims: %+v", claims)
		}
		if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != ttl {
			t.Fatalf("expected exp-iat == %v, got %v", ttl, got)
		}
		if !claims.TrustedIssuer {
			t.Fatal("expected issuer to be trusted")
		}
		if claims.ID == "" {
			t.Fatal("expected jti to be set")
		}
	}
}

func TestMintDefaultTTL(t *testing.T) {
	clock := &testClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	m := newTestManager(t, clock)

	token, err := m.Mint("vet-1", "v@example.com", "Vera", "vet", 0)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != 24*time.Hour {
		t.Fatalf("expected default ttl, got %v", got)
	}
}

func TestSubSecondTTLRejected(t *testing.T) {
	clock := &testClock{now: time.Date(2024, 3, 1, 9, 0, 0, 250_000_000, time.UTC)}
	m := newTestManager(t, clock)

	for _, ttl := range []time.Duration{500 * time.Millisecond, 1500 * time.Millisecond, time.Minute + time.Nanosecond} {
		if _, err := m.Mint("farmer-1", "ann@example.com", "Ann", "farmer", ttl); !errors.Is(err, ErrInvalidTTL) {
			t.Fatalf("ttl=%s: expected ErrInvalidTTL, got %v", ttl, err)
		}
	}

	for _, ttl := range []time.Duration{500 * time.Millisecond, 1500 * time.Millisecond, -time.Second} {
		_, err := NewManager(Config{Secret: testSecret, AccessTTL: ttl, Now: clock.Now})
		if !errors.Is(err, ErrInvalidTTL) {
			t.Fatalf("NewManager ttl=%s: expected ErrInvalidTTL, got %v", ttl, err)
		}
	}
}

func TestOneSecondTTLIsValidAtIssue(t *testing.T) {
	clock := &testClock{now: time.Date(2024, 3, 1, 9, 0, 0, 999_000_000, time.UTC)}
	m := newTestManager(t, clock)

	_, claims, err := m.Issue("farmer-1", "ann@example.com", "Ann", "farmer", time.Second)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != time.Second {
		t.Fatalf("expected exp-iat == 1s, got %s", got)
	}
	if !claims.ExpiresAt.After(claims.IssuedAt.Time) {
		t.Fatal("expected exp after iat")
	}
}

func TestMintRequiresSubject(t *testing.T) {
	m := newTestManager(t, &testClock{now: time.Now()})
	if _, err := m.Mint("", "e", "n", "farmer", time.Hour); !errors.Is(err, ErrMissingSubject) {
		t.Fatalf("expected ErrMissingSubject, got %v", err)
	}
}

func TestValidateExpiryBoundary(t *testing.T) {
	clock := &testClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	m := newTestManager(t, clock)

	token, err := m.Mint("c-1", "c@example.com", "Cal", "customer", time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	if _, err := m.Validate(token); err != nil {
		t.Fatalf("expected valid at iat, got %v", err)
	}

	clock.now = clock.now.Add(time.Hour - time.Second)
	if _, err := m.Validate(token); err != nil {
		t.Fatalf("expected valid one second before exp, got %v", err)
	}

	clock.now = clock.now.Add(time.Second)
	if _, err := m.Validate(token); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired at exp, got %v", err)
	}
}

func TestValidateTamperedTokens(t *testing.T) {
	clock := &testClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	m := newTestManager(t, clock)

	token, err := m.Mint("farmer-1", "ann@example.com", "Ann", "farmer", time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	parts := strings.Split(token, ".")

	forged := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"farmer-1","type":"admin","exp":9999999999,"iat":1}`))
	if _, err := m.Validate(parts[0] + "." + forged + "." + parts[2]); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature for altered payload, got %v", err)
	}

	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	if _, err := m.Validate(parts[0] + "." + parts[1] + "." + string(sig)); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature for altered signature, got %v", err)
	}

	other, err := NewManager(Config{Secret: []byte("another-secret-another-secret-00"), Now: clock.Now})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := other.Validate(token); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature under a different secret, got %v", err)
	}
}

func TestValidateMalformed(t *testing.T) {
	m := newTestManager(t, &testClock{now: time.Now()})

	for _, token := range []string{
		"",
		"abc",
		"a.b",
		"a.b.c.d",
		"a..c",
		"..",
		"a.b.c!",
		"eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ4In0",
	} {
		if _, err := m.Validate(token); !errors.Is(err, ErrMalformed) {
			t.Fatalf("expected ErrMalformed for %q, got %v", token, err)
		}
	}
}

func TestValidateRejectsUndecodableClaims(t *testing.T) {
	m := newTestManager(t, &testClock{now: time.Now()})

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`not-json`))
	sig, err := gjwt.SigningMethodHS256.Sign(header+"."+payload, testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	token := header + "." + payload + "." + base64.RawURLEncoding.EncodeToString(sig)

	if _, err := m.Validate(token); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for undecodable claims, got %v", err)
	}
}

func TestValidateRequiresExpiry(t *testing.T) {
	m := newTestManager(t, &testClock{now: time.Now()})

	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, Claims{
		Role:             "farmer",
		RegisteredClaims: gjwt.RegisteredClaims{Subject: "f-1"},
	}).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := m.Validate(token); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed without exp, got %v", err)
	}
}

func TestValidateAcceptsLegacyRoleClaim(t *testing.T) {
	clock := &testClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	m := newTestManager(t, clock)

	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, Claims{
		Email:      "v@example.com",
		LegacyRole: "vet",
		RegisteredClaims: gjwt.RegisteredClaims{
			Subject:   "vet-9",
			Issuer:    "someone-else",
			IssuedAt:  gjwt.NewNumericDate(clock.now),
			ExpiresAt: gjwt.NewNumericDate(clock.now.Add(time.Hour)),
		},
	}).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Role != "vet" {
		t.Fatalf("expected legacy role to map to vet, got %q", claims.Role)
	}
	if claims.TrustedIssuer {
		t.Fatal("expected foreign issuer to be untrusted")
	}
}
