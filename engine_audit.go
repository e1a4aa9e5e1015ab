package authcore

import (
	"context"
	"errors"
)

const (
	auditEventRegisterSuccess          = "register_success"
	auditEventRegisterFailure          = "register_failure"
	auditEventLoginSuccess             = "login_success"
	auditEventLoginFailure             = "login_failure"
	auditEventLoginRateLimited         = "login_rate_limited"
	auditEventPasswordUpgraded         = "password_upgraded"
	auditEventPasswordChangeSuccess    = "password_change_success"
	auditEventPasswordChangeInvalidOld = "password_change_invalid_old"
	auditEventPasswordChangeFailure    = "password_change_failure"
	auditEventRefreshSuccess           = "refresh_success"
	auditEventRefreshInvalid           = "refresh_invalid"
	auditEventLogout                   = "logout"
	auditEventAccessDenied             = "access_denied"
)

// AuditErrorCode is the stable error vocabulary written to AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrMalformed      AuditErrorCode = "malformed"
	auditErrBadSignature   AuditErrorCode = "bad_signature"
	auditErrExpired        AuditErrorCode = "expired"
	auditErrRevoked        AuditErrorCode = "revoked"
	auditErrNoCredential   AuditErrorCode = "no_credential"
	auditErrWrongRole      AuditErrorCode = "wrong_role"
	auditErrNotOwner       AuditErrorCode = "not_owner"
	auditErrHashMismatch   AuditErrorCode = "hash_mismatch"
	auditErrRateLimited    AuditErrorCode = "rate_limited"
	auditErrDuplicate      AuditErrorCode = "duplicate"
	auditErrRoleInvalid    AuditErrorCode = "role_invalid"
	auditErrInvalidRequest AuditErrorCode = "invalid_request"
	auditErrPasswordPolicy AuditErrorCode = "password_policy"
	auditErrNotFound       AuditErrorCode = "not_found"
	auditErrUnavailable    AuditErrorCode = "backend_unavailable"
	auditErrInternal       AuditErrorCode = "internal_error"
)

type auditSubject struct {
	principalID string
	role        Role
	tokenID     string
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	subject auditSubject,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp:   e.now().UTC(),
		EventType:   eventType,
		PrincipalID: subject.principalID,
		Role:        string(subject.role),
		TokenID:     subject.tokenID,
		IP:          ClientIPFromContext(ctx),
		Success:     success,
		Metadata:    metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch ReasonOf(err) {
	case ReasonMalformed:
		return auditErrMalformed
	case ReasonBadSignature:
		return auditErrBadSignature
	case ReasonExpired:
		return auditErrExpired
	case ReasonRevoked:
		return auditErrRevoked
	case ReasonNoCredential:
		return auditErrNoCredential
	case ReasonWrongRole:
		return auditErrWrongRole
	case ReasonNotOwner:
		return auditErrNotOwner
	case ReasonHashMismatch:
		return auditErrHashMismatch
	}

	switch {
	case errors.Is(err, ErrLoginRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrAccountExists):
		return auditErrDuplicate
	case errors.Is(err, ErrAccountRoleInvalid):
		return auditErrRoleInvalid
	case errors.Is(err, ErrAccountInvalid):
		return auditErrInvalidRequest
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrNotFound):
		return auditErrNotFound
	case errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, ErrRevocationUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
