package envconfig

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/farmlink/authcore"
	"github.com/joho/godotenv"
)

// Settings is everything cmd/authd needs to start.
type Settings struct {
	Auth authcore.Config

	// RedisAddr is empty when no Redis is configured. authd then starts an
	// embedded miniredis only in development mode; otherwise Redis-backed
	// features refuse to start and credentials are kept in memory.
	RedisAddr string
	HTTPAddr  string
	LogLevel  string
	// Development selects zap's development logger and permits the embedded Redis.
	Development bool

	ShutdownTimeout time.Duration
}

// Load reads .env files (missing files are ignored) and then the environment.
// A variable that is set but does not parse is an error naming the variable;
// it never falls back to the default.
func Load(files ...string) (*Settings, error) {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var env reader

	cfg := authcore.DefaultConfig()
	cfg.JWT.Secret = []byte(getEnv("AUTH_SIGNING_SECRET", ""))
	cfg.JWT.Issuer = getEnv("AUTH_ISSUER", cfg.JWT.Issuer)
	cfg.JWT.AccessTTL = env.duration("AUTH_ACCESS_TTL", cfg.JWT.AccessTTL)
	cfg.Refresh.Window = env.duration("AUTH_REFRESH_WINDOW", cfg.Refresh.Window)

	cfg.Password.Algorithm = getEnv("AUTH_PASSWORD_ALGORITHM", cfg.Password.Algorithm)
	cfg.Password.MinLength = env.integer("AUTH_PASSWORD_MIN_LENGTH", cfg.Password.MinLength)
	cfg.Password.UpgradeOnLogin = env.boolean("AUTH_UPGRADE_ON_LOGIN", cfg.Password.UpgradeOnLogin)

	cfg.Security.ProductionMode = env.boolean("AUTH_PRODUCTION", false)
	cfg.Security.EnableLoginThrottle = env.boolean("AUTH_LOGIN_THROTTLE", false)
	cfg.Security.EnableIPThrottle = env.boolean("AUTH_IP_THROTTLE", false)
	cfg.Security.MaxLoginAttempts = env.integer("AUTH_MAX_LOGIN_ATTEMPTS", cfg.Security.MaxLoginAttempts)
	cfg.Security.LoginCooldownDuration = env.duration("AUTH_LOGIN_COOLDOWN", cfg.Security.LoginCooldownDuration)
	cfg.Security.RedisPrefix = getEnv("REDIS_PREFIX", cfg.Security.RedisPrefix)

	cfg.Revocation.Enabled = env.boolean("AUTH_REVOCATION", false)
	cfg.Audit.Enabled = env.boolean("AUTH_AUDIT", true)
	cfg.Metrics.Enabled = env.boolean("AUTH_METRICS", true)
	cfg.Metrics.EnableLatencyHistograms = cfg.Metrics.Enabled

	s := &Settings{
		Auth:            cfg,
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Development:     env.boolean("AUTH_DEV", false),
		ShutdownTimeout: env.duration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if err := errors.Join(env.errs...); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	if err := s.Auth.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if s.Auth.Security.ProductionMode && s.Development {
		return nil, fmt.Errorf("config validation failed: AUTH_DEV cannot be combined with AUTH_PRODUCTION")
	}

	return s, nil
}

// NeedsRedis reports whether any enabled feature is Redis-backed.
func (s *Settings) NeedsRedis() bool {
	return s.Auth.Security.EnableLoginThrottle || s.Auth.Revocation.Enabled
}

// reader collects parse errors so Load reports every bad variable at once.
type reader struct {
	errs []error
}

func (r *reader) boolean(key string, defaultValue bool) bool {
	v, err := getEnvAsBool(key, defaultValue)
	if err != nil {
		r.errs = append(r.errs, err)
	}
	return v
}

func (r *reader) integer(key string, defaultValue int) int {
	v, err := getEnvAsInt(key, defaultValue)
	if err != nil {
		r.errs = append(r.errs, err)
	}
	return v
}

func (r *reader) duration(key string, defaultValue time.Duration) time.Duration {
	v, err := getEnvAsDuration(key, defaultValue)
	if err != nil {
		r.errs = append(r.errs, err)
	}
	return v
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue, fmt.Errorf("%s: %q is not an integer", key, valueStr)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue, fmt.Errorf("%s: %q is not a boolean (use true or false)", key, valueStr)
	}
	return value, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue, fmt.Errorf("%s: %q is not a duration (e.g. 90m, 24h)", key, valueStr)
	}
	return value, nil
}
