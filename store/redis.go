package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/farmlink/authcore"
	"github.com/redis/go-redis/v9"
)

const (
	fieldSalt         = "salt"
	fieldPasswordHash = "passwordHash"
)

// Redis is a CredentialStore persisted in Redis.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) FindBySubjectID(ctx context.Context, principalID string) (*authcore.Credential, error) {
	fields, err := r.client.HGetAll(ctx, r.credKey(principalID)).Result()
	if err != nil {
		return nil, fmt.Errorf("find credential: %w", err)
	}
	if len(fields) == 0 {
		return nil, authcore.ErrNotFound
	}
	return &authcore.Credential{
		PrincipalID:  principalID,
		Salt:         fields[fieldSalt],
		PasswordHash: fields[fieldPasswordHash],
	}, nil
}

func (r *Redis) FindByEmail(ctx context.Context, email string) (*authcore.Principal, error) {
	id, err := r.client.Get(ctx, r.emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, authcore.ErrNotFound
		}
		return nil, fmt.Errorf("find principal by email: %w", err)
	}
	return r.FindPrincipal(ctx, id)
}

func (r *Redis) FindPrincipal(ctx context.Context, principalID string) (*authcore.Principal, error) {
	raw, err := r.client.Get(ctx, r.principalKey(principalID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, authcore.ErrNotFound
		}
		return nil, fmt.Errorf("find principal: %w", err)
	}

	var p authcore.Principal
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode principal %s: %w", principalID, err)
	}
	return &p, nil
}

// CreatePrincipal claims the email with SETNX, then writes the principal and
// credential in one MULTI. The email claim is released if the write fails.
func (r *Redis) CreatePrincipal(ctx context.Context, p authcore.Principal, c authcore.Credential) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode principal: %w", err)
	}

	emailKey := r.emailKey(p.Email)
	claimed, err := r.client.SetNX(ctx, emailKey, p.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("claim email: %w", err)
	}
	if !claimed {
		return authcore.ErrAccountExists
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.principalKey(p.ID), raw, 0)
		pipe.HSet(ctx, r.credKey(p.ID), fieldSalt, c.Salt, fieldPasswordHash, c.PasswordHash)
		return nil
	})
	if err != nil {
		_ = r.client.Del(context.WithoutCancel(ctx), emailKey).Err()
		return fmt.Errorf("create principal: %w", err)
	}
	return nil
}

// Upsert replaces the credential of an existing principal.
func (r *Redis) Upsert(ctx context.Context, c authcore.Credential) error {
	n, err := r.client.Exists(ctx, r.principalKey(c.PrincipalID)).Result()
	if err != nil {
		return fmt.Errorf("upsert credential: %w", err)
	}
	if n == 0 {
		return authcore.ErrNotFound
	}

	if err := r.client.HSet(ctx, r.credKey(c.PrincipalID), fieldSalt, c.Salt, fieldPasswordHash, c.PasswordHash).Err(); err != nil {
		return fmt.Errorf("upsert credential: %w", err)
	}
	return nil
}

func (r *Redis) principalKey(id string) string { return r.prefix + "p:" + id }
func (r *Redis) emailKey(email string) string  { return r.prefix + "e:" + emailKey(email) }
func (r *Redis) credKey(id string) string      { return r.prefix + "c:" + id }
