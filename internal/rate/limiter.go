package rate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds login throttle tuning parameters.
type Config struct {
	// Prefix namespaces every key, e.g. "authcore:".
	Prefix           string
	EnableIPThrottle bool
	MaxLoginAttempts int
	Window           time.Duration
}

// Limiter enforces per-email and per-IP failed-login budgets using Redis
// fixed-window counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// CheckLogin reports ErrRateLimited when either the email or the IP has
// exhausted its failed-attempt budget for the current window.
func (l *Limiter) CheckLogin(ctx context.Context, email, ip string) error {
	if err := l.checkCounter(ctx, l.loginEmailKey(email)); err != nil {
		return err
	}

	if l.config.EnableIPThrottle && ip != "" {
		if err := l.checkCounter(ctx, l.loginIPKey(ip)); err != nil {
			return err
		}
	}

	return nil
}

// IncrementLogin records a failed login attempt against the email and, when
// enabled, the IP. Both counters are bumped before either budget is checked.
// It returns ErrRateLimited once the attempt that crosses a budget has been
// recorded.
func (l *Limiter) IncrementLogin(ctx context.Context, email, ip string) error {
	emailCount, err := l.incrementWithTTL(ctx, l.loginEmailKey(email))
	if err != nil {
		return err
	}

	var ipCount int64
	if l.config.EnableIPThrottle && ip != "" {
		ipCount, err = l.incrementWithTTL(ctx, l.loginIPKey(ip))
		if err != nil {
			return err
		}
	}

	budget := int64(l.config.MaxLoginAttempts)
	if emailCount >= budget || ipCount >= budget {
		return ErrRateLimited
	}

	return nil
}

// ResetLogin clears the failed-login counters after a successful login or
// password change.
func (l *Limiter) ResetLogin(ctx context.Context, email, ip string) error {
	keys := []string{l.loginEmailKey(email)}
	if l.config.EnableIPThrottle && ip != "" {
		keys = append(keys, l.loginIPKey(ip))
	}

	if err := l.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

func (l *Limiter) checkCounter(ctx context.Context, key string) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if count >= int64(l.config.MaxLoginAttempts) {
		return ErrRateLimited
	}

	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}

func (l *Limiter) loginEmailKey(email string) string {
	return l.config.Prefix + "al:" + strings.ToLower(strings.TrimSpace(email))
}

func (l *Limiter) loginIPKey(ip string) string {
	return l.config.Prefix + "ali:" + ip
}
