package authcore

import (
	"time"

	"github.com/farmlink/authcore/password"
)

// SecurityReport is a read-only snapshot of the engine's security posture.
type SecurityReport struct {
	ProductionMode      bool
	SigningAlgorithm    string
	SigningSecretBytes  int
	AccessTTL           time.Duration
	RefreshWindow       time.Duration
	PasswordAlgorithm   string
	Argon2              PasswordConfigReport
	UpgradeOnLogin      bool
	LoginThrottleActive bool
	IPThrottleActive    bool
	RevocationActive    bool
	AuditActive         bool
	SelfRegistration    []Role
}

// PasswordConfigReport contains the argon2id parameters. It is zero when the
// sha256 algorithm is active.
type PasswordConfigReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	KeyLength   uint32
}

// SecurityReport describes the configuration the engine was built with.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	report := SecurityReport{
		ProductionMode:      e.config.Security.ProductionMode,
		SigningAlgorithm:    "HS256",
		SigningSecretBytes:  len(e.config.JWT.Secret),
		AccessTTL:           e.config.JWT.AccessTTL,
		RefreshWindow:       e.config.Refresh.Window,
		PasswordAlgorithm:   e.config.Password.Algorithm,
		UpgradeOnLogin:      e.config.Password.UpgradeOnLogin,
		LoginThrottleActive: e.rateLimiter != nil,
		IPThrottleActive:    e.rateLimiter != nil && e.config.Security.EnableIPThrottle,
		RevocationActive:    e.denylist != nil,
		AuditActive:         e.config.Audit.Enabled,
		SelfRegistration:    append([]Role(nil), e.config.Account.SelfRegistrationRoles...),
	}
	if password.Algorithm(e.config.Password.Algorithm) == password.AlgorithmArgon2id {
		report.Argon2 = PasswordConfigReport{
			Memory:      e.config.Password.Memory,
			Time:        e.config.Password.Time,
			Parallelism: e.config.Password.Parallelism,
			KeyLength:   e.config.Password.KeyLength,
		}
	}
	return report
}
