package revocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

func TestRedisRevokeAndExpire(t *testing.T) {
	rdb, mr := newTestRedis(t)
	d := NewRedis(rdb, "t:")
	ctx := context.Background()

	if err := d.Revoke(ctx, "jti-1", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if !mr.Exists("t:rv:jti-1") {
		t.Fatal("expected namespaced key to exist")
	}

	revoked, err := d.IsRevoked(ctx, "jti-1")
	if err != nil || !revoked {
		t.Fatalf("expected revoked, got %v (%v)", revoked, err)
	}
	if revoked, _ := d.IsRevoked(ctx, "jti-2"); revoked {
		t.Fatal("expected unknown id to be clear")
	}

	mr.FastForward(2 * time.Minute)
	if revoked, _ := d.IsRevoked(ctx, "jti-1"); revoked {
		t.Fatal("expected entry to expire with the token")
	}
}

func TestRedisRevokePastExpiryIsNoop(t *testing.T) {
	rdb, mr := newTestRedis(t)
	d := NewRedis(rdb, "")

	if err := d.Revoke(context.Background(), "old", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if len(mr.Keys()) != 0 {
		t.Fatalf("expected no keys, got %v", mr.Keys())
	}
	if err := d.Revoke(context.Background(), "", time.Now().Add(time.Minute)); !errors.Is(err, ErrEmptyTokenID) {
		t.Fatalf("expected ErrEmptyTokenID, got %v", err)
	}
}

func TestRedisUnavailable(t *testing.T) {
	rdb, mr := newTestRedis(t)
	d := NewRedis(rdb, "")
	mr.Close()

	if _, err := d.IsRevoked(context.Background(), "x"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestMemoryDenylist(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d := NewMemory(func() time.Time { return now })
	ctx := context.Background()

	if err := d.Revoke(ctx, "a", now.Add(time.Hour)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if revoked, _ := d.IsRevoked(ctx, "a"); !revoked {
		t.Fatal("expected a revoked")
	}

	now = now.Add(2 * time.Hour)
	if revoked, _ := d.IsRevoked(ctx, "a"); revoked {
		t.Fatal("expected a to lapse")
	}

	if err := d.Revoke(ctx, "b", now.Add(time.Hour)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if d.Len() != 1 {
		t.Fatalf("expected lapsed entries to be pruned, got %d", d.Len())
	}
}
