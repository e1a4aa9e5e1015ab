package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/farmlink/authcore"
	"github.com/farmlink/authcore/internal/envconfig"
	"github.com/farmlink/authcore/store"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func newLogger(s *envconfig.Settings) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(s.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", s.LogLevel, err)
	}

	zc := zap.NewProductionConfig()
	if s.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}

// connectRedis returns a client for REDIS_ADDR, or an embedded miniredis in
// development mode. It returns a nil client when no Redis is configured and
// none is needed.
func connectRedis(ctx context.Context, s *envconfig.Settings, logger *zap.Logger) (redis.UniversalClient, func(), error) {
	if s.RedisAddr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{s.RedisAddr}})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", s.RedisAddr, err)
		}
		logger.Info("connected to redis", zap.String("addr", s.RedisAddr))
		return client, func() { _ = client.Close() }, nil
	}

	if !s.Development {
		if s.NeedsRedis() {
			return nil, nil, errors.New("REDIS_ADDR is required when login throttling or revocation is enabled")
		}
		return nil, func() {}, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start embedded redis: %w", err)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	logger.Warn("using embedded redis; data is lost on exit", zap.String("addr", mr.Addr()))
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

// buildEngine wires the credential store, Redis backends and audit sink into
// an Engine. The returned cleanup closes everything buildEngine opened.
func buildEngine(ctx context.Context, s *envconfig.Settings, logger *zap.Logger) (*authcore.Engine, func(), error) {
	client, closeRedis, err := connectRedis(ctx, s, logger)
	if err != nil {
		return nil, nil, err
	}

	var credentials authcore.CredentialStore
	if client != nil {
		credentials = store.NewRedis(client, s.Auth.Security.RedisPrefix)
	} else {
		logger.Warn("no redis configured; credentials are kept in memory")
		credentials = store.NewMemory()
	}

	b := authcore.New().
		WithConfig(s.Auth).
		WithCredentialStore(credentials).
		WithLogger(logger).
		WithAuditSink(authcore.NewZapSink(logger)).
		WithMetricsEnabled(s.Auth.Metrics.Enabled).
		WithLatencyHistograms(s.Auth.Metrics.EnableLatencyHistograms)
	if client != nil {
		b = b.WithRedis(client)
	}

	engine, err := b.Build()
	if err != nil {
		closeRedis()
		return nil, nil, fmt.Errorf("failed to build auth engine: %w", err)
	}

	return engine, func() {
		engine.Close()
		closeRedis()
	}, nil
}
