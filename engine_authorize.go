package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/farmlink/authcore/internal/flows"
	"github.com/farmlink/authcore/jwt"
	"go.uber.org/zap"
)

// Authorize checks an Authorization header value against req. Every failure is
// a *DeniedError; use errors.Is with ErrUnauthorized or ErrForbidden to pick
// the HTTP status.
func (e *Engine) Authorize(ctx context.Context, authorizationHeader string, req Requirement) (*AuthResult, error) {
	if e == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}

	token, ok := flows.BearerToken(authorizationHeader)
	if !ok {
		return nil, e.deny(ctx, auditEventAccessDenied, Denied(ReasonNoCredential, nil), nil)
	}
	return e.AuthorizeToken(ctx, token, req)
}

// AuthorizeToken is Authorize for a bare token.
func (e *Engine) AuthorizeToken(ctx context.Context, token string, req Requirement) (*AuthResult, error) {
	return e.authorizeToken(ctx, token, req, auditEventAccessDenied)
}

// authorizeToken runs the authorize flow and records a denial under event.
func (e *Engine) authorizeToken(ctx context.Context, token string, req Requirement, event string) (*AuthResult, error) {
	if e == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	res := flows.RunAuthorize(ctx, token, flows.AuthorizeRequirement{
		Role:       string(req.Role),
		OwnerID:    req.OwnerID,
		AllowAdmin: req.AllowAdmin,
	}, e.authorizeDeps())
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricValidateLatency, time.Since(start))
	}

	switch res.Failure {
	case flows.AuthorizeFailureNone:
	case flows.AuthorizeFailureNoCredential:
		return nil, e.deny(ctx, event, Denied(ReasonNoCredential, nil), nil)
	case flows.AuthorizeFailureToken:
		return nil, e.deny(ctx, event, Denied(reasonForTokenError(res.Err), res.Err), nil)
	case flows.AuthorizeFailureRevoked:
		return nil, e.deny(ctx, event, Denied(ReasonRevoked, nil), nil)
	case flows.AuthorizeFailureRevocationUnavailable:
		e.logger.Error("denylist unavailable", zap.Error(res.Err))
		return nil, e.deny(ctx, event, Denied(ReasonRevoked, fmt.Errorf("%w: %v", ErrRevocationUnavailable, res.Err)), nil)
	case flows.AuthorizeFailureWrongRole:
		return nil, e.deny(ctx, event, Denied(ReasonWrongRole, res.Err), res.Claims)
	case flows.AuthorizeFailureNotOwner:
		return nil, e.deny(ctx, event, Denied(ReasonNotOwner, nil), res.Claims)
	default:
		return nil, e.deny(ctx, event, Denied(ReasonMalformed, nil), nil)
	}

	e.metricInc(MetricAuthorizeSuccess)
	return authResultFromClaims(res.Claims), nil
}

// Refresh reissues token when its remaining lifetime is inside the refresh
// window and returns it unchanged otherwise. Revoked tokens cannot be refreshed.
func (e *Engine) Refresh(ctx context.Context, token string) (*Session, error) {
	if e == nil || e.refresh == nil {
		return nil, ErrEngineNotReady
	}

	current, err := e.authorizeToken(ctx, token, Requirement{}, auditEventRefreshInvalid)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, err
	}

	res, err := e.refresh.MaybeRefresh(token)
	if err != nil {
		denied := Denied(reasonForTokenError(err), err)
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, subjectOf(current), denied, nil)
		return nil, denied
	}

	if !res.Refreshed {
		e.metricInc(MetricRefreshUnchanged)
		return &Session{Token: token, Principal: current.Principal, ExpiresAt: current.ExpiresAt}, nil
	}

	next := authResultFromClaims(res.Claims)
	// The new token carries the role already normalized by AuthorizeToken.
	next.Principal.Role = current.Principal.Role

	e.metricInc(MetricRefreshReissued)
	e.metricInc(MetricTokenMinted)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, subjectOf(next), nil, func() map[string]string {
		return map[string]string{
			"previous_token_id": current.TokenID,
		}
	})

	return &Session{
		Token:     res.Token,
		Principal: next.Principal,
		ExpiresAt: next.ExpiresAt,
		Refreshed: true,
	}, nil
}

// Logout revokes token when a denylist is configured. Without one, logout is a
// client-side discard and Logout only checks the token is valid.
func (e *Engine) Logout(ctx context.Context, token string) error {
	if e == nil || e.tokens == nil {
		return ErrEngineNotReady
	}

	res, err := e.AuthorizeToken(ctx, token, Requirement{})
	if err != nil {
		return err
	}

	if e.denylist != nil {
		if res.TokenID == "" {
			e.logger.Warn("logout of token without jti; cannot revoke", zap.String("principal_id", res.Principal.ID))
		} else if err := e.denylist.Revoke(ctx, res.TokenID, res.ExpiresAt); err != nil {
			e.logger.Error("revoke token failed", zap.String("token_id", res.TokenID), zap.Error(err))
			return fmt.Errorf("%w: %v", ErrRevocationUnavailable, err)
		}
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, subjectOf(res), nil, func() map[string]string {
		return map[string]string{
			"revoked": fmt.Sprint(e.denylist != nil),
		}
	})
	return nil
}

func (e *Engine) authorizeDeps() flows.AuthorizeDeps {
	deps := flows.AuthorizeDeps{
		Validate: e.tokens.Validate,
		NormalizeRole: func(claim string) (string, bool) {
			role, ok := ParseRole(claim)
			return string(role), ok
		},
		AdminRole: string(RoleAdmin),
	}
	if e.denylist != nil {
		deps.IsRevoked = e.denylist.IsRevoked
	}
	return deps
}

func (e *Engine) deny(ctx context.Context, event string, denied *DeniedError, claims *jwt.Claims) error {
	if id, ok := deniedMetric[denied.Reason]; ok {
		e.metricInc(id)
	}

	fields := []zap.Field{zap.Stringer("reason", denied.Reason)}
	var subject auditSubject
	if claims != nil {
		subject = auditSubject{principalID: claims.Subject, role: Role(claims.Role), tokenID: claims.ID}
		fields = append(fields, zap.String("principal_id", claims.Subject))
	}
	if denied.Err != nil && !errors.Is(denied.Err, ErrRevocationUnavailable) {
		fields = append(fields, zap.Error(denied.Err))
	}
	e.logger.Debug("access denied", fields...)

	e.emitAudit(ctx, event, false, subject, denied, nil)
	return denied
}

func authResultFromClaims(c *jwt.Claims) *AuthResult {
	res := &AuthResult{
		Principal: Principal{
			ID:          c.Subject,
			Role:        Role(c.Role),
			Email:       c.Email,
			DisplayName: c.Name,
		},
		TokenID:       c.ID,
		TrustedIssuer: c.TrustedIssuer,
	}
	if c.IssuedAt != nil {
		res.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		res.ExpiresAt = c.ExpiresAt.Time
	}
	return res
}

func subjectOf(res *AuthResult) auditSubject {
	if res == nil {
		return auditSubject{}
	}
	return auditSubject{principalID: res.Principal.ID, role: res.Principal.Role, tokenID: res.TokenID}
}
