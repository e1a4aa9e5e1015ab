package authcore

import (
	"errors"
	"time"

	internalaudit "github.com/farmlink/authcore/internal/audit"
	"github.com/farmlink/authcore/internal/rate"
	"github.com/farmlink/authcore/jwt"
	"github.com/farmlink/authcore/password"
	"github.com/farmlink/authcore/refresh"
	"github.com/farmlink/authcore/revocation"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder assembles an Engine. A Builder can be built once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	store     CredentialStore
	denylist  Denylist
	auditSink AuditSink
	logger    *zap.Logger
	clock     func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithCredentialStore sets the principal and credential lookup boundary. Required.
func (b *Builder) WithCredentialStore(store CredentialStore) *Builder {
	b.store = store
	return b
}

// WithRedis enables Redis-backed collaborators: the login throttle when
// Security.EnableLoginThrottle is set, and the denylist when
// Revocation.Enabled is set and no explicit Denylist was given.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithDenylist installs a token denylist and turns revocation on.
func (b *Builder) WithDenylist(d Denylist) *Builder {
	b.denylist = d
	b.config.Revocation.Enabled = d != nil
	return b
}

// WithLogger sets the structured logger. Defaults to zap.NewNop.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the audit destination. It has no effect unless
// Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the authorize latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithClock overrides time.Now for token minting, validation and audit timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// Build validates the configuration and returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.store == nil {
		return nil, errors.New("credential store required")
	}
	if cfg.Security.EnableLoginThrottle && b.redis == nil {
		return nil, errors.New("login throttle requires redis client")
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	engine := &Engine{
		config: cloneConfig(cfg),
		store:  b.store,
		logger: logger.Named("authcore"),
		now:    clock,
	}

	// -------- PASSWORD HASHER --------
	hasher, err := password.New(cfg.passwordConfig())
	if err != nil {
		return nil, err
	}
	engine.hasher = hasher

	decoySalt, err := password.GenerateSaltN(cfg.Password.SaltLength)
	if err != nil {
		return nil, err
	}
	engine.decoySalt = decoySalt
	engine.decoyDigest = hasher.Hash(decoySalt, decoySalt)

	// -------- TOKEN CODEC --------
	jm, err := jwt.NewManager(jwt.Config{
		Secret:    cloneBytes(cfg.JWT.Secret),
		AccessTTL: cfg.JWT.AccessTTL,
		Issuer:    cfg.JWT.Issuer,
		Now:       clock,
	})
	if err != nil {
		if errors.Is(err, jwt.ErrMissingSecret) {
			return nil, ErrMissingSigningSecret
		}
		return nil, err
	}
	engine.tokens = jm

	policy, err := refresh.NewPolicy(jm, refresh.Config{
		Window: cfg.Refresh.Window,
		TTL:    cfg.JWT.AccessTTL,
	})
	if err != nil {
		return nil, err
	}
	engine.refresh = policy

	// -------- BACKENDS --------
	if cfg.Security.EnableLoginThrottle {
		engine.rateLimiter = rate.New(b.redis, rate.Config{
			Prefix:           cfg.Security.RedisPrefix,
			EnableIPThrottle: cfg.Security.EnableIPThrottle,
			MaxLoginAttempts: cfg.Security.MaxLoginAttempts,
			Window:           cfg.Security.LoginCooldownDuration,
		})
	}

	if cfg.Revocation.Enabled {
		switch {
		case b.denylist != nil:
			engine.denylist = b.denylist
		case b.redis != nil:
			engine.denylist = revocation.NewRedis(b.redis, cfg.Security.RedisPrefix).WithClock(clock)
		default:
			engine.logger.Warn("revocation enabled without redis; using process-local denylist")
			engine.denylist = revocation.NewMemory(clock)
		}
	}

	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
