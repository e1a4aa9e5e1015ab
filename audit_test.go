package authcore

import (
	"context"
	"testing"
	"time"
)

func auditConfig() Config {
	cfg := testConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 64
	cfg.Audit.DropIfFull = false
	return cfg
}

func nextEvent(t *testing.T, sink *ChannelSink) AuditEvent {
	t.Helper()

	select {
	case ev := <-sink.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for audit event")
		return AuditEvent{}
	}
}

func TestAuditRegisterAndLogin(t *testing.T) {
	sink := NewChannelSink(64)
	e := buildTestEngine(t, auditConfig(), func(b *Builder) { b.WithAuditSink(sink) })
	ctx := WithClientIP(context.Background(), "192.0.2.10")

	reg := mustRegister(t, e, "ann@example.com", "secret1", RoleFarmer)
	ev := nextEvent(t, sink)
	if ev.EventType != "register_success" || !ev.Success || ev.PrincipalID != reg.Principal.ID || ev.Role != "farmer" {
		t.Fatalf("unexpected register event: %+v", ev)
	}

	_, _ = e.Login(ctx, "ann@example.com", "Secret1")
	ev = nextEvent(t, sink)
	if ev.EventType != "login_failure" || ev.Success || ev.Error != "hash_mismatch" {
		t.Fatalf("unexpected login failure event: %+v", ev)
	}
	if ev.IP != "192.0.2.10" || ev.Metadata["email"] != "ann@example.com" {
		t.Fatalf("expected ip and email on failure event: %+v", ev)
	}
	if !ev.Timestamp.Equal(e.clock.Now().UTC()) {
		t.Fatalf("expected engine clock timestamp, got %v", ev.Timestamp)
	}

	if _, err := e.Login(ctx, "ann@example.com", "secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	ev = nextEvent(t, sink)
	if ev.EventType != "login_success" || ev.PrincipalID != reg.Principal.ID {
		t.Fatalf("unexpected login success event: %+v", ev)
	}
}

func TestAuditAccessDenied(t *testing.T) {
	sink := NewChannelSink(64)
	e := buildTestEngine(t, auditConfig(), func(b *Builder) { b.WithAuditSink(sink) })
	reg := mustRegister(t, e, "c@example.com", "secret1", RoleCustomer)
	_ = nextEvent(t, sink)

	_, _ = e.AuthorizeToken(context.Background(), reg.Token, Requirement{Role: RoleFarmer})
	ev := nextEvent(t, sink)
	if ev.EventType != "access_denied" || ev.Error != "wrong_role" {
		t.Fatalf("unexpected denial event: %+v", ev)
	}
	if ev.PrincipalID != reg.Principal.ID || ev.TokenID == "" {
		t.Fatalf("expected subject on forbidden denial: %+v", ev)
	}

	_, _ = e.AuthorizeToken(context.Background(), "garbage", Requirement{})
	ev = nextEvent(t, sink)
	if ev.Error != "malformed" || ev.PrincipalID != "" {
		t.Fatalf("unexpected malformed denial event: %+v", ev)
	}
}

func TestAuditRefreshFailureEmitsOneEvent(t *testing.T) {
	sink := NewChannelSink(64)
	e := buildTestEngine(t, auditConfig(), func(b *Builder) { b.WithAuditSink(sink) })

	if _, err := e.Refresh(context.Background(), "garbage"); err == nil {
		t.Fatal("expected refresh of a malformed token to fail")
	}
	e.Close()

	ev := nextEvent(t, sink)
	if ev.EventType != "refresh_invalid" || ev.Success || ev.Error != "malformed" {
		t.Fatalf("unexpected refresh failure event: %+v", ev)
	}
	select {
	case extra := <-sink.Events():
		t.Fatalf("expected a single event for one failed refresh, got extra %+v", extra)
	default:
	}
}

func TestAuditNeverCarriesSecrets(t *testing.T) {
	sink := NewChannelSink(64)
	e := buildTestEngine(t, auditConfig(), func(b *Builder) { b.WithAuditSink(sink) })
	ctx := context.Background()

	reg := mustRegister(t, e, "ann@example.com", "secret1", RoleFarmer)
	_, _ = e.Login(ctx, "ann@example.com", "wrong-password")
	_ = e.ChangePassword(ctx, reg.Principal.ID, "secret1", "newsecret")
	_ = e.Logout(ctx, reg.Token)
	e.Close()

	for {
		select {
		case ev := <-sink.Events():
			for k, v := range ev.Metadata {
				if v == "secret1" || v == "wrong-password" || v == "newsecret" || v == reg.Token {
					t.Fatalf("event %s leaked secret in %s", ev.EventType, k)
				}
			}
		default:
			return
		}
	}
}

func TestAuditDisabledEmitsNothing(t *testing.T) {
	sink := NewChannelSink(8)
	e := buildTestEngine(t, testConfig(), func(b *Builder) { b.WithAuditSink(sink) })
	mustRegister(t, e, "ann@example.com", "secret1", RoleFarmer)
	e.Close()

	select {
	case ev := <-sink.Events():
		t.Fatalf("expected no events, got %+v", ev)
	default:
	}
	if e.AuditDropped() != 0 {
		t.Fatal("expected zero drops when audit disabled")
	}
}
