package refresh

import (
	"errors"
	"testing"
	"time"

	"github.com/farmlink/authcore/jwt"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func newTestPolicy(t *testing.T, clock *testClock, cfg Config) (*Policy, *jwt.Manager) {
	t.Helper()
	m, err := jwt.NewManager(jwt.Config{
		Secret:    []byte("refresh-secret-refresh-secret-00"),
		AccessTTL: 24 * time.Hour,
		Now:       clock.Now,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	p, err := NewPolicy(m, cfg)
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	return p, m
}

func TestMaybeRefreshOutsideWindowIsNoop(t *testing.T) {
	clock := &testClock{now: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}
	p, m := newTestPolicy(t, clock, Config{})

	token, err := m.Mint("f-1", "f@example.com", "Fay", "farmer", 0)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	clock.now = clock.now.Add(10 * time.Hour)
	res, err := p.MaybeRefresh(token)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if res.Refreshed || res.Token != token {
		t.Fatal("expected token outside the window to be returned unchanged")
	}
}

func TestMaybeRefreshInsideWindowReissues(t *testing.T) {
	clock := &testClock{now: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}
	p, m := newTestPolicy(t, clock, Config{})

	token, err := m.Mint("v-1", "v@example.com", "Vic", "vet", 0)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	clock.now = clock.now.Add(23 * time.Hour)
	res, err := p.MaybeRefresh(token)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !res.Refreshed || res.Token == token {
		t.Fatal("expected a reissued token")
	}
	c := res.Claims
	if c.Subject != "v-1" || c.Email != "v@example.com" || c.Name != "Vic" || c.Role != "vet" {
		t.Fatalf("expected identity to be preserved, got %+v", c)
	}
	if !c.IssuedAt.Time.Equal(clock.now) {
		t.Fatalf("expected fresh iat %v, got %v", clock.now, c.IssuedAt.Time)
	}
	if got := c.ExpiresAt.Sub(c.IssuedAt.Time); got != 24*time.Hour {
		t.Fatalf("expected reissued ttl of 24h, got %v", got)
	}
}

func TestMaybeRefreshWindowBoundary(t *testing.T) {
	clock := &testClock{now: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}
	p, m := newTestPolicy(t, clock, Config{Window: time.Hour, TTL: 2 * time.Hour})

	token, err := m.Mint("c-1", "c@example.com", "Cy", "customer", 2*time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	clock.now = clock.now.Add(time.Hour)
	res, err := p.MaybeRefresh(token)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if res.Refreshed {
		t.Fatal("expected remaining == window to be left unchanged")
	}

	clock.now = clock.now.Add(time.Second)
	res, err = p.MaybeRefresh(token)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !res.Refreshed {
		t.Fatal("expected remaining < window to reissue")
	}
}

func TestMaybeRefreshSessionLifecycle(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	clock := &testClock{now: t0}
	p, m := newTestPolicy(t, clock, Config{})

	token, err := m.Mint("f-7", "f7@example.com", "Flo", "farmer", 0)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	clock.now = t0.Add(23*time.Hour + 59*time.Minute)
	res, err := p.MaybeRefresh(token)
	if err != nil {
		t.Fatalf("refresh at t0+23h59m: %v", err)
	}
	if !res.Refreshed {
		t.Fatal("expected refresh one minute before expiry")
	}
	if want := clock.now.Add(24 * time.Hour); !res.Claims.ExpiresAt.Time.Equal(want) {
		t.Fatalf("expected new exp %v, got %v", want, res.Claims.ExpiresAt.Time)
	}

	clock.now = t0.Add(25 * time.Hour)
	if _, err := m.Validate(token); !errors.Is(err, jwt.ErrExpired) {
		t.Fatalf("expected original token expired at t0+25h, got %v", err)
	}
	if _, err := m.Validate(res.Token); err != nil {
		t.Fatalf("expected refreshed token valid at t0+25h, got %v", err)
	}
}

func TestMaybeRefreshRejectsInvalidTokens(t *testing.T) {
	clock := &testClock{now: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}
	p, m := newTestPolicy(t, clock, Config{})

	token, err := m.Mint("a-1", "a@example.com", "Ada", "admin", time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	clock.now = clock.now.Add(time.Hour)
	if _, err := p.MaybeRefresh(token); !errors.Is(err, jwt.ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if _, err := p.MaybeRefresh("garbage"); !errors.Is(err, jwt.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestNewPolicyValidation(t *testing.T) {
	m, err := jwt.NewManager(jwt.Config{Secret: []byte("x"), AccessTTL: time.Hour})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := NewPolicy(nil, Config{}); err == nil {
		t.Fatal("expected nil tokens to be rejected")
	}
	if _, err := NewPolicy(m, Config{Window: -time.Second}); err == nil {
		t.Fatal("expected negative window to be rejected")
	}
	if _, err := NewPolicy(m, Config{}); err == nil {
		t.Fatal("expected ttl <= default window to be rejected")
	}
	if _, err := NewPolicy(m, Config{Window: 500 * time.Millisecond, TTL: 1500 * time.Millisecond}); !errors.Is(err, jwt.ErrInvalidTTL) {
		t.Fatalf("expected ErrInvalidTTL for 1.5s ttl, got %v", err)
	}
	if _, err := NewPolicy(m, Config{Window: 10 * time.Minute}); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}
