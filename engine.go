package authcore

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	internalaudit "github.com/farmlink/authcore/internal/audit"
	"github.com/farmlink/authcore/internal/rate"
	"github.com/farmlink/authcore/jwt"
	"github.com/farmlink/authcore/password"
	"github.com/farmlink/authcore/refresh"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine is the credential and session-token core. Build one with New().
//
// Engine is immutable after Build and safe for concurrent use. Close stops the
// audit dispatcher.
type Engine struct {
	config Config
	store  CredentialStore

	hasher      password.Hasher
	decoySalt   string
	decoyDigest string

	tokens  *jwt.Manager
	refresh *refresh.Policy

	rateLimiter *rate.Limiter
	denylist    Denylist

	audit   *internalaudit.Dispatcher
	metrics *Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// Close flushes pending audit events and stops the dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// AuditDropped returns the number of audit events dropped under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns the current counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Register creates a principal with a fresh salted credential and returns a
// session for it.
func (e *Engine) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	if e == nil || e.hasher == nil {
		return nil, ErrEngineNotReady
	}

	email := normalizeEmail(in.Email)
	fail := func(err error, reason string) (*Session, error) {
		if errors.Is(err, ErrAccountExists) {
			e.metricInc(MetricRegisterDuplicate)
		} else {
			e.metricInc(MetricRegisterRejected)
		}
		e.emitAudit(ctx, auditEventRegisterFailure, false, auditSubject{role: in.Role}, err, func() map[string]string {
			return map[string]string{
				"email":  email,
				"reason": reason,
			}
		})
		return nil, err
	}

	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return fail(fmt.Errorf("%w: email", ErrAccountInvalid), "invalid_email")
	}
	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		return fail(fmt.Errorf("%w: display name", ErrAccountInvalid), "invalid_display_name")
	}
	role, ok := ParseRole(string(in.Role))
	if !ok || !e.selfRegistrationAllowed(role) {
		return fail(ErrAccountRoleInvalid, "role")
	}
	if err := e.checkPasswordPolicy(in.Password); err != nil {
		return fail(err, "password_policy")
	}

	cred, err := e.newCredential(in.Password)
	if err != nil {
		return fail(err, "salt")
	}
	principal := Principal{
		ID:          uuid.NewString(),
		Role:        role,
		Email:       email,
		DisplayName: displayName,
	}
	cred.PrincipalID = principal.ID

	if err := e.store.CreatePrincipal(ctx, principal, cred); err != nil {
		if errors.Is(err, ErrAccountExists) {
			return fail(ErrAccountExists, "duplicate")
		}
		e.logger.Error("create principal failed", zap.String("email", email), zap.Error(err))
		return fail(fmt.Errorf("%w: %v", ErrStoreUnavailable, err), "store")
	}

	sess, err := e.issueSession(principal)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, auditSubject{principalID: principal.ID, role: role}, nil, nil)

	return sess, nil
}

// Login verifies email and password and returns a new session. Unknown emails
// and wrong passwords both yield a HashMismatch denial.
func (e *Engine) Login(ctx context.Context, email, pw string) (*Session, error) {
	if e == nil || e.hasher == nil {
		return nil, ErrEngineNotReady
	}

	email = normalizeEmail(email)
	ip := ClientIPFromContext(ctx)

	if e.rateLimiter != nil {
		if err := e.rateLimiter.CheckLogin(ctx, email, ip); err != nil {
			if errors.Is(err, rate.ErrRedisUnavailable) {
				e.logger.Warn("login throttle unavailable", zap.Error(err))
			}
			return nil, e.loginRateLimited(ctx, email)
		}
	}

	principal, cred, err := e.lookupCredential(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		// Spend the same hashing work as a real verification.
		_ = e.hasher.Verify(pw, e.decoySalt, e.decoyDigest)
		return nil, e.loginFailed(ctx, email, ip, "", "unknown_email")
	}

	if !password.Verify(pw, cred.Salt, cred.PasswordHash) {
		return nil, e.loginFailed(ctx, email, ip, principal.ID, "hash_mismatch")
	}

	if e.rateLimiter != nil {
		if err := e.rateLimiter.ResetLogin(ctx, email, ip); err != nil {
			e.logger.Warn("login throttle reset failed", zap.Error(err))
		}
	}

	if e.config.Password.UpgradeOnLogin && e.hasher.NeedsUpgrade(cred.PasswordHash) {
		e.upgradeCredential(ctx, principal, pw)
	}

	sess, err := e.issueSession(*principal)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, auditSubject{principalID: principal.ID, role: principal.Role}, nil, nil)

	return sess, nil
}

// ChangePassword verifies oldPassword and stores newPassword under a fresh salt.
// Tokens already issued stay valid until they expire or are logged out.
func (e *Engine) ChangePassword(ctx context.Context, principalID, oldPassword, newPassword string) error {
	if e == nil || e.hasher == nil {
		return ErrEngineNotReady
	}

	cred, err := e.store.FindBySubjectID(ctx, principalID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		e.logger.Error("find credential failed", zap.String("principal_id", principalID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if !password.Verify(oldPassword, cred.Salt, cred.PasswordHash) {
		denied := Denied(ReasonHashMismatch, nil)
		e.metricInc(MetricPasswordChangeInvalidOld)
		e.emitAudit(ctx, auditEventPasswordChangeInvalidOld, false, auditSubject{principalID: principalID}, denied, nil)
		return denied
	}
	if err := e.checkPasswordPolicy(newPassword); err != nil {
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, auditSubject{principalID: principalID}, err, nil)
		return err
	}

	next, err := e.newCredential(newPassword)
	if err != nil {
		return err
	}
	next.PrincipalID = principalID

	if err := e.store.Upsert(ctx, next); err != nil {
		e.logger.Error("store credential failed", zap.String("principal_id", principalID), zap.Error(err))
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, auditSubject{principalID: principalID}, ErrStoreUnavailable, nil)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if e.rateLimiter != nil {
		if p, err := e.store.FindPrincipal(ctx, principalID); err == nil {
			if err := e.rateLimiter.ResetLogin(ctx, p.Email, ""); err != nil {
				e.logger.Warn("login throttle reset failed", zap.Error(err))
			}
		}
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChangeSuccess, true, auditSubject{principalID: principalID}, nil, nil)

	return nil
}

// Principal returns the stored principal with the given ID.
func (e *Engine) Principal(ctx context.Context, principalID string) (*Principal, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	p, err := e.store.FindPrincipal(ctx, principalID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return p, nil
}

func (e *Engine) lookupCredential(ctx context.Context, email string) (*Principal, *Credential, error) {
	principal, err := e.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		e.logger.Error("find principal failed", zap.String("email", email), zap.Error(err))
		return nil, nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	cred, err := e.store.FindBySubjectID(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			e.logger.Warn("principal without credential", zap.String("principal_id", principal.ID))
			return nil, nil, ErrNotFound
		}
		e.logger.Error("find credential failed", zap.String("principal_id", principal.ID), zap.Error(err))
		return nil, nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return principal, cred, nil
}

func (e *Engine) loginFailed(ctx context.Context, email, ip, principalID, reason string) error {
	if e.rateLimiter != nil {
		if err := e.rateLimiter.IncrementLogin(ctx, email, ip); err != nil {
			if errors.Is(err, rate.ErrRedisUnavailable) {
				e.logger.Warn("login throttle unavailable", zap.Error(err))
			} else {
				return e.loginRateLimited(ctx, email)
			}
		}
	}

	denied := Denied(ReasonHashMismatch, nil)
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, auditSubject{principalID: principalID}, denied, func() map[string]string {
		return map[string]string{
			"email":  email,
			"reason": reason,
		}
	})
	return denied
}

func (e *Engine) loginRateLimited(ctx context.Context, email string) error {
	e.metricInc(MetricLoginRateLimited)
	e.emitAudit(ctx, auditEventLoginRateLimited, false, auditSubject{}, ErrLoginRateLimited, func() map[string]string {
		return map[string]string{
			"email": email,
		}
	})
	return ErrLoginRateLimited
}

func (e *Engine) upgradeCredential(ctx context.Context, principal *Principal, pw string) {
	next, err := e.newCredential(pw)
	if err != nil {
		e.logger.Warn("password upgrade skipped", zap.String("principal_id", principal.ID), zap.Error(err))
		return
	}
	next.PrincipalID = principal.ID

	if err := e.store.Upsert(ctx, next); err != nil {
		e.logger.Warn("password upgrade failed", zap.String("principal_id", principal.ID), zap.Error(err))
		return
	}

	e.metricInc(MetricPasswordUpgraded)
	e.emitAudit(ctx, auditEventPasswordUpgraded, true, auditSubject{principalID: principal.ID, role: principal.Role}, nil, func() map[string]string {
		return map[string]string{
			"algorithm": e.config.Password.Algorithm,
		}
	})
}

func (e *Engine) newCredential(pw string) (Credential, error) {
	salt, err := password.GenerateSaltN(e.config.Password.SaltLength)
	if err != nil {
		return Credential{}, err
	}
	return Credential{
		Salt:         salt,
		PasswordHash: e.hasher.Hash(pw, salt),
	}, nil
}

func (e *Engine) issueSession(p Principal) (*Session, error) {
	token, claims, err := e.tokens.Issue(p.ID, p.Email, p.DisplayName, string(p.Role), e.config.JWT.AccessTTL)
	if err != nil {
		return nil, err
	}
	e.metricInc(MetricTokenMinted)

	return &Session{
		Token:     token,
		Principal: p,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (e *Engine) checkPasswordPolicy(pw string) error {
	if utf8.RuneCountInString(pw) < e.config.Password.MinLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrPasswordPolicy, e.config.Password.MinLength)
	}
	return nil
}

func (e *Engine) selfRegistrationAllowed(role Role) bool {
	for _, r := range e.config.Account.SelfRegistrationRoles {
		if r == role {
			return true
		}
	}
	return false
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
