package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenClaims разобранный токен сессии
type TokenClaims struct {
	UserID    uuid.UUID
	TokenID   string
	ExpiresAt time.Time
}

// TokenIssuer выпускает и проверяет JWT сессий (HS256)
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue подписывает токен для пользователя. jti нужен для отзыва при logout.
func (i *TokenIssuer) Issue(userID uuid.UUID) (string, TokenClaims, error) {
	now := i.now()
	claims := TokenClaims{
		UserID:    userID,
		TokenID:   uuid.NewString(),
		ExpiresAt: now.Add(i.ttl),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID.String(),
		ID:        claims.TokenID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", TokenClaims{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, claims, nil
}

// Parse проверяет подпись и срок действия
func (i *TokenIssuer) Parse(raw string) (TokenClaims, error) {
	var registered jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &registered, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return TokenClaims{}, err
	}

	userID, err := uuid.Parse(registered.Subject)
	if err != nil {
		return TokenClaims{}, fmt.Errorf("invalid subject: %w", err)
	}
	if registered.ID == "" {
		return TokenClaims{}, errors.New("token has no id")
	}

	return TokenClaims{
		UserID:    userID,
		TokenID:   registered.ID,
		ExpiresAt: registered.ExpiresAt.Time,
	}, nil
}
