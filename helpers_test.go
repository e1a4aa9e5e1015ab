package authcore

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var testSecret = []byte("test-signing-secret-0123456789ab")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now().Truncate(time.Second)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type mockStore struct {
	mu         sync.Mutex
	principals map[string]Principal
	byEmail    map[string]string
	creds      map[string]Credential

	findErr   error
	upsertErr error

	upsertCalls int
}

func newMockStore() *mockStore {
	return &mockStore{
		principals: make(map[string]Principal),
		byEmail:    make(map[string]string),
		creds:      make(map[string]Credential),
	}
}

func (m *mockStore) seed(p Principal, c Credential) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.PrincipalID = p.ID
	m.principals[p.ID] = p
	m.byEmail[strings.ToLower(p.Email)] = p.ID
	m.creds[p.ID] = c
}

func (m *mockStore) credential(id string) Credential {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds[id]
}

func (m *mockStore) FindBySubjectID(_ context.Context, id string) (*Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	c, ok := m.creds[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *mockStore) FindByEmail(_ context.Context, email string) (*Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	id, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	p := m.principals[id]
	return &p, nil
}

func (m *mockStore) FindPrincipal(_ context.Context, id string) (*Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.principals[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *mockStore) CreatePrincipal(_ context.Context, p Principal, c Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.byEmail[strings.ToLower(p.Email)]; taken {
		return ErrAccountExists
	}
	c.PrincipalID = p.ID
	m.principals[p.ID] = p
	m.byEmail[strings.ToLower(p.Email)] = p.ID
	m.creds[p.ID] = c
	return nil
}

func (m *mockStore) Upsert(_ context.Context, c Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertCalls++
	if m.upsertErr != nil {
		return m.upsertErr
	}
	if _, ok := m.principals[c.PrincipalID]; !ok {
		return ErrNotFound
	}
	m.creds[c.PrincipalID] = c
	return nil
}

type failingDenylist struct{}

func (failingDenylist) Revoke(context.Context, string, time.Time) error {
	return errors.New("denylist down")
}

func (failingDenylist) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("denylist down")
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.Secret = append([]byte(nil), testSecret...)
	return cfg
}

// fastArgon2 keeps argon2id tests quick while staying above the parameter floor.
func fastArgon2(cfg *Config) {
	cfg.Password.Algorithm = "argon2id"
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Password.KeyLength = 32
}

func newTestRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

type testEngine struct {
	*Engine
	store *mockStore
	clock *fakeClock
}

func buildTestEngine(t testing.TB, cfg Config, configure ...func(*Builder)) *testEngine {
	t.Helper()

	st := newMockStore()
	clock := newFakeClock()

	b := New().
		WithConfig(cfg).
		WithCredentialStore(st).
		WithClock(clock.Now)
	for _, fn := range configure {
		fn(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testEngine{Engine: engine, store: st, clock: clock}
}

func mustRegister(t testing.TB, e *testEngine, email, pw string, role Role) *Session {
	t.Helper()

	sess, err := e.Register(context.Background(), RegisterInput{
		Email:       email,
		Password:    pw,
		DisplayName: strings.Split(email, "@")[0],
		Role:        role,
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return sess
}

func expectReason(t testing.TB, err error, want Reason) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %s denial, got nil", want)
	}
	if got := ReasonOf(err); got != want {
		t.Fatalf("expected reason %s, got %s (%v)", want, got, err)
	}
	if want.Forbidden() {
		if !errors.Is(err, ErrForbidden) || errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected forbidden class for %s", want)
		}
	} else if !errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden) {
		t.Fatalf("expected unauthorized class for %s", want)
	}
}
