package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrTokenNotFound = errors.New("token not found or expired")

// TokenPurpose назначение одноразового токена
type TokenPurpose string

const (
	PurposeVerifyEmail   TokenPurpose = "verify"
	PurposeResetPassword TokenPurpose = "reset"
)

// TokenRepository хранит одноразовые токены и отозванные JWT в Redis с TTL
type TokenRepository interface {
	Save(ctx context.Context, purpose TokenPurpose, token string, userID uuid.UUID, ttl time.Duration) error
	Consume(ctx context.Context, purpose TokenPurpose, token string) (uuid.UUID, error)
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type tokenRepository struct {
	redis *RedisDB
}

func NewTokenRepository(redis *RedisDB) TokenRepository {
	return &tokenRepository{redis: redis}
}

func (r *tokenRepository) Save(ctx context.Context, purpose TokenPurpose, token string, userID uuid.UUID, ttl time.Duration) error {
	if err := r.redis.Client.Set(ctx, r.tokenKey(purpose, token), userID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to save %s token: %w", purpose, err)
	}
	return nil
}

// Consume возвращает владельца токена и удаляет токен атомарно (GETDEL)
func (r *tokenRepository) Consume(ctx context.Context, purpose TokenPurpose, token string) (uuid.UUID, error) {
	value, err := r.redis.Client.GetDel(ctx, r.tokenKey(purpose, token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, ErrTokenNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to consume %s token: %w", purpose, err)
	}

	userID, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("corrupted %s token value: %w", purpose, err)
	}

	return userID, nil
}

func (r *tokenRepository) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.redis.Client.Set(ctx, r.revokedKey(tokenID), 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (r *tokenRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.redis.Client.Exists(ctx, r.revokedKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}

func (r *tokenRepository) tokenKey(purpose TokenPurpose, token string) string {
	return "token:" + string(purpose) + ":" + token
}

func (r *tokenRepository) revokedKey(tokenID string) string {
	return "revoked:" + tokenID
}
