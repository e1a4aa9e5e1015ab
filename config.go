package authcore

import (
	"errors"
	"fmt"
	"time"

	"github.com/farmlink/authcore/jwt"
	"github.com/farmlink/authcore/password"
)

// Config is the full engine configuration. Start from DefaultConfig and
// override what differs.
type Config struct {
	JWT        JWTConfig
	Refresh    RefreshConfig
	Password   PasswordConfig
	Account    AccountConfig
	Security   SecurityConfig
	Revocation RevocationConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures token minting and validation.
type JWTConfig struct {
	// Secret is the shared HS256 key. Required.
	Secret []byte
	// Issuer is written to iss and reported back as AuthResult.TrustedIssuer.
	Issuer    string
	AccessTTL time.Duration
}

// RefreshConfig configures the silent refresh policy.
type RefreshConfig struct {
	// Window is the remaining-lifetime threshold below which Refresh reissues.
	Window time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig selects the hashing algorithm and password policy.
type PasswordConfig struct {
	// Algorithm is "sha256" (legacy compatible) or "argon2id".
	Algorithm   string
	Memory      uint32
	Time        uint32
	Parallelism uint8
	KeyLength   uint32
	SaltLength  int
	MinLength   int
	// UpgradeOnLogin re-hashes credentials whose digest was produced by a weaker
	// algorithm or weaker parameters than the configured ones.
	UpgradeOnLogin bool
}

// AccountConfig configures registration.
type AccountConfig struct {
	// SelfRegistrationRoles lists roles Register accepts. Admin is excluded by default.
	SelfRegistrationRoles []Role
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig holds hardening switches.
type SecurityConfig struct {
	// ProductionMode requires argon2id and a signing secret of at least
	// MinProductionSecretBytes.
	ProductionMode        bool
	EnableLoginThrottle   bool
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
	// RedisPrefix namespaces throttle and denylist keys.
	RedisPrefix string
}

// RevocationConfig enables the token denylist.
type RevocationConfig struct {
	Enabled bool
}

// AuditConfig configures the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// MinProductionSecretBytes is the shortest signing secret ProductionMode accepts.
const MinProductionSecretBytes = 32

/*
====================================
DEFAULTS
====================================
*/

// DefaultConfig returns the baseline configuration without a signing secret.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	argon := password.DefaultArgon2Config()
	return Config{
		JWT: JWTConfig{
			Issuer:    "farmlink",
			AccessTTL: 24 * time.Hour,
		},
		Refresh: RefreshConfig{
			Window: 120 * time.Minute,
		},
		Password: PasswordConfig{
			Algorithm:      string(password.AlgorithmSHA256),
			Memory:         argon.Memory,
			Time:           argon.Time,
			Parallelism:    argon.Parallelism,
			KeyLength:      argon.KeyLength,
			SaltLength:     password.DefaultSaltLength,
			MinLength:      6,
			UpgradeOnLogin: true,
		},
		Account: AccountConfig{
			SelfRegistrationRoles: []Role{RoleFarmer, RoleVet, RoleCustomer},
		},
		Security: SecurityConfig{
			ProductionMode:        false,
			EnableLoginThrottle:   false,
			EnableIPThrottle:      false,
			MaxLoginAttempts:      5,
			LoginCooldownDuration: 15 * time.Minute,
			RedisPrefix:           "authcore:",
		},
		Revocation: RevocationConfig{
			Enabled: false,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	if cfg.Account.SelfRegistrationRoles != nil {
		out.Account.SelfRegistrationRoles = append([]Role(nil), cfg.Account.SelfRegistrationRoles...)
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (c *Config) passwordConfig() password.Config {
	return password.Config{
		Algorithm: password.Algorithm(c.Password.Algorithm),
		Argon2: password.Argon2Config{
			Memory:      c.Password.Memory,
			Time:        c.Password.Time,
			Parallelism: c.Password.Parallelism,
			KeyLength:   c.Password.KeyLength,
		},
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks internal consistency. It does not contact any backend.
func (c *Config) Validate() error {
	// JWT
	if len(c.JWT.Secret) == 0 {
		return ErrMissingSigningSecret
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if !jwt.WholeSeconds(c.JWT.AccessTTL) {
		return fmt.Errorf("JWT AccessTTL: %w", jwt.ErrInvalidTTL)
	}

	// Refresh
	if c.Refresh.Window <= 0 {
		return errors.New("Refresh Window must be > 0")
	}
	if c.Refresh.Window >= c.JWT.AccessTTL {
		return errors.New("Refresh Window must be < JWT AccessTTL")
	}

	// Password
	switch password.Algorithm(c.Password.Algorithm) {
	case password.AlgorithmSHA256:
	case password.AlgorithmArgon2id:
		if _, err := password.NewArgon2(c.passwordConfig().Argon2); err != nil {
			return fmt.Errorf("Password: %w", err)
		}
	default:
		return fmt.Errorf("Password Algorithm %q is not supported", c.Password.Algorithm)
	}
	if c.Password.SaltLength < 8 {
		return errors.New("Password SaltLength must be >= 8")
	}
	if c.Password.MinLength < 1 {
		return errors.New("Password MinLength must be >= 1")
	}

	// Account
	for _, r := range c.Account.SelfRegistrationRoles {
		if _, ok := ParseRole(string(r)); !ok {
			return fmt.Errorf("Account SelfRegistrationRoles contains unknown role %q", r)
		}
	}

	// Security
	if c.Security.EnableLoginThrottle {
		if c.Security.MaxLoginAttempts <= 0 {
			return errors.New("Security MaxLoginAttempts must be > 0 when login throttle is enabled")
		}
		if c.Security.LoginCooldownDuration <= 0 {
			return errors.New("Security LoginCooldownDuration must be > 0 when login throttle is enabled")
		}
	}
	if c.Security.EnableIPThrottle && !c.Security.EnableLoginThrottle {
		return errors.New("Security EnableIPThrottle requires EnableLoginThrottle")
	}
	if c.Security.ProductionMode {
		if password.Algorithm(c.Password.Algorithm) != password.AlgorithmArgon2id {
			return errors.New("ProductionMode requires Password Algorithm argon2id")
		}
		if len(c.JWT.Secret) < MinProductionSecretBytes {
			return fmt.Errorf("ProductionMode requires a signing secret of at least %d bytes", MinProductionSecretBytes)
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
