package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/SergeiKhy/shrinkurl/internal/repository"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTokenRepository(t *testing.T) (repository.TokenRepository, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return repository.NewTokenRepository(repository.NewRedisFromClient(client)), mr
}

func TestTokenRepository_SaveAndConsume(t *testing.T) {
	repo, mr := setupTokenRepository(t)
	ctx := context.Background()
	userID := uuid.New()

	err := repo.Save(ctx, repository.PurposeVerifyEmail, "tok-1", userID, time.Hour)
	require.NoError(t, err)
	assert.True(t, mr.Exists("token:verify:tok-1"))

	got, err := repo.Consume(ctx, repository.PurposeVerifyEmail, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	// Токен одноразовый
	_, err = repo.Consume(ctx, repository.PurposeVerifyEmail, "tok-1")
	assert.ErrorIs(t, err, repository.ErrTokenNotFound)
}

func TestTokenRepository_PurposesAreSeparate(t *testing.T) {
	repo, _ := setupTokenRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, repository.PurposeVerifyEmail, "shared", uuid.New(), time.Hour))

	_, err := repo.Consume(ctx, repository.PurposeResetPassword, "shared")
	assert.ErrorIs(t, err, repository.ErrTokenNotFound)
}

func TestTokenRepository_Expiry(t *testing.T) {
	repo, mr := setupTokenRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, repository.PurposeResetPassword, "tok-2", uuid.New(), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := repo.Consume(ctx, repository.PurposeResetPassword, "tok-2")
	assert.ErrorIs(t, err, repository.ErrTokenNotFound)
}

func TestTokenRepository_Revoke(t *testing.T) {
	repo, mr := setupTokenRepository(t)
	ctx := context.Background()

	revoked, err := repo.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, repo.Revoke(ctx, "jti-1", time.Hour))

	revoked, err = repo.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Hour)
	revoked, err = repo.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestTokenRepository_RevokeExpiredIsNoop(t *testing.T) {
	repo, mr := setupTokenRepository(t)

	require.NoError(t, repo.Revoke(context.Background(), "jti-2", 0))
	assert.False(t, mr.Exists("revoked:jti-2"))
}
