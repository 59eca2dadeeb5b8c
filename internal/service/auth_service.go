package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SergeiKhy/shrinkurl/internal/mailer"
	"github.com/SergeiKhy/shrinkurl/internal/models"
	"github.com/SergeiKhy/shrinkurl/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthService регистрация, вход и проверка сессий
type AuthService interface {
	SignUp(ctx context.Context, input *models.SignUpInput) (*models.User, error)
	VerifyEmail(ctx context.Context, token string) error
	Login(ctx context.Context, input *models.LoginInput) (*models.Session, error)
	Logout(ctx context.Context, token string) error
	// Authenticate возвращает id владельца по токену сессии
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type AuthServiceConfig struct {
	OneTimeTTL time.Duration
	BcryptCost int
}

type authService struct {
	users  repository.UserRepository
	tokens repository.TokenRepository
	issuer *TokenIssuer
	mailer mailer.Mailer
	cfg    AuthServiceConfig
	logger *zap.Logger
	now    func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	tokens repository.TokenRepository,
	issuer *TokenIssuer,
	m mailer.Mailer,
	cfg AuthServiceConfig,
	logger *zap.Logger,
) AuthService {
	if cfg.OneTimeTTL <= 0 {
		cfg.OneTimeTTL = 24 * time.Hour
	}
	if cfg.BcryptCost < bcrypt.MinCost {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &authService{
		users:  users,
		tokens: tokens,
		issuer: issuer,
		mailer: m,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

func (s *authService) SignUp(ctx context.Context, input *models.SignUpInput) (*models.User, error) {
	hash, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(input.Name),
		Email:        normalizeEmail(input.Email),
		PasswordHash: string(hash),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	if err := s.sendToken(ctx, user, mailer.KindVerify, repository.PurposeVerifyEmail); err != nil {
		return nil, err
	}

	s.logger.Info("User signed up", zap.String("user_id", user.ID.String()))
	return user, nil
}

func (s *authService) VerifyEmail(ctx context.Context, token string) error {
	userID, err := s.consume(ctx, repository.PurposeVerifyEmail, token)
	if err != nil {
		return err
	}

	if err := s.users.MarkVerified(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	return nil
}

func (s *authService) Login(ctx context.Context, input *models.LoginInput) (*models.Session, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsVerified {
		return nil, ErrEmailNotVerified
	}

	token, claims, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	// Время входа не критично для самой сессии
	if err := s.users.TouchLastLogin(ctx, user.ID, s.now()); err != nil {
		s.logger.Warn("Failed to update last login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	return &models.Session{Token: token, ExpiresAt: claims.ExpiresAt}, nil
}

// Logout отзывает токен до истечения его срока
func (s *authService) Logout(ctx context.Context, token string) error {
	claims, err := s.issuer.Parse(token)
	if err != nil {
		// Просроченный или чужой токен и так недействителен
		return nil
	}
	return s.tokens.Revoke(ctx, claims.TokenID, claims.ExpiresAt.Sub(s.now()))
}

func (s *authService) Authenticate(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, ErrAuthRequired
	}

	claims, err := s.issuer.Parse(token)
	if err != nil {
		return uuid.Nil, ErrAuthRequired
	}

	revoked, err := s.tokens.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return uuid.Nil, err
	}
	if revoked {
		return uuid.Nil, ErrAuthRequired
	}

	return claims.UserID, nil
}

// RequestPasswordReset для неизвестного email молча ничего не делает
func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return err
	}

	return s.sendToken(ctx, user, mailer.KindReset, repository.PurposeResetPassword)
}

func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	// Проверяем пароль до погашения токена, чтобы токен не сгорал зря
	if len(newPassword) > maxPasswordBytes {
		return ErrPasswordTooLong
	}

	userID, err := s.consume(ctx, repository.PurposeResetPassword, token)
	if err != nil {
		return err
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	return nil
}

// hashPassword bcrypt учитывает только первые 72 байта, длинные пароли отклоняем
func (s *authService) hashPassword(password string) ([]byte, error) {
	if len(password) > maxPasswordBytes {
		return nil, ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

func (s *authService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) sendToken(ctx context.Context, user *models.User, kind mailer.Kind, purpose repository.TokenPurpose) error {
	token := uuid.NewString()
	if err := s.tokens.Save(ctx, purpose, token, user.ID, s.cfg.OneTimeTTL); err != nil {
		return err
	}

	err := s.mailer.Send(ctx, mailer.Message{
		Kind:  kind,
		To:    user.Email,
		Name:  user.Name,
		Token: token,
	})
	if err != nil {
		return fmt.Errorf("failed to send %s email: %w", kind, err)
	}

	return nil
}

func (s *authService) consume(ctx context.Context, purpose repository.TokenPurpose, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, ErrInvalidToken
	}
	userID, err := s.tokens.Consume(ctx, purpose, token)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return uuid.Nil, ErrInvalidToken
		}
		return uuid.Nil, err
	}
	return userID, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
