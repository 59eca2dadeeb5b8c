package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/SergeiKhy/shrinkurl/internal/mailer"
	"github.com/SergeiKhy/shrinkurl/internal/models"
	"github.com/SergeiKhy/shrinkurl/internal/repository"
	"github.com/SergeiKhy/shrinkurl/internal/service"
	"github.com/SergeiKhy/shrinkurl/internal/service/mocks"
)

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, msg mailer.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type authFixture struct {
	svc    service.AuthService
	users  *mocks.MockUserRepository
	tokens *mocks.MockTokenRepository
	mailer *mockMailer
	issuer *service.TokenIssuer
}

func setupAuthService(t *testing.T) *authFixture {
	t.Helper()

	f := &authFixture{
		users:  mocks.NewMockUserRepository(),
		tokens: mocks.NewMockTokenRepository(),
		mailer: &mockMailer{},
		issuer: service.NewTokenIssuer("test-secret", time.Hour),
	}
	f.svc = service.NewAuthService(f.users, f.tokens, f.issuer, f.mailer, service.AuthServiceConfig{
		OneTimeTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, zap.NewNop())

	t.Cleanup(func() { f.mailer.AssertExpectations(t) })
	return f
}

// signUpVerified регистрирует и подтверждает пользователя
func (f *authFixture) signUpVerified(t *testing.T, email, password string) *models.User {
	t.Helper()
	f.mailer.On("Send", mock.Anything, mock.MatchedBy(func(m mailer.Message) bool {
		return m.Kind == mailer.KindVerify && m.To == email
	})).Return(nil).Once()

	user, err := f.svc.SignUp(context.Background(), &models.SignUpInput{Name: "Ann", Email: email, Password: password})
	require.NoError(t, err)
	require.NoError(t, f.svc.VerifyEmail(context.Background(), f.tokens.Token(repository.PurposeVerifyEmail)))
	return user
}

// TestAuthService_SignUp проверяет регистрацию и отправку письма подтверждения
func TestAuthService_SignUp(t *testing.T) {
	f := setupAuthService(t)
	ctx := context.Background()

	var sent mailer.Message
	f.mailer.On("Send", mock.Anything, mock.AnythingOfType("mailer.Message")).
		Run(func(args mock.Arguments) { sent = args.Get(1).(mailer.Message) }).
		Return(nil).Once()

	user, err := f.svc.SignUp(ctx, &models.SignUpInput{Name: " Ann ", Email: "Ann@Example.COM", Password: "secret1"})
	require.NoError(t, err)

	assert.Equal(t, "ann@example.com", user.Email)
	assert.Equal(t, "Ann", user.Name)
	assert.False(t, user.IsVerified)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	assert.Equal(t, mailer.KindVerify, sent.Kind)
	assert.Equal(t, "ann@example.com", sent.To)
	assert.Equal(t, f.tokens.Token(repository.PurposeVerifyEmail), sent.Token)
}

// TestAuthService_SignUp_Duplicate проверяет отказ при занятом email
func TestAuthService_SignUp_Duplicate(t *testing.T) {
	f := setupAuthService(t)
	f.signUpVerified(t, "ann@example.com", "secret1")

	_, err := f.svc.SignUp(context.Background(), &models.SignUpInput{Name: "Ann", Email: "ANN@example.com", Password: "secret2"})
	assert.ErrorIs(t, err, service.ErrUserExists)
	assert.ErrorIs(t, err, service.ErrValidation)
}

// TestAuthService_SignUp_MailFailure проверяет, что ошибка отправки письма возвращается клиенту
func TestAuthService_SignUp_MailFailure(t *testing.T) {
	f := setupAuthService(t)
	f.mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()

	_, err := f.svc.SignUp(context.Background(), &models.SignUpInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrValidation)
}

// TestAuthService_VerifyEmail проверяет одноразовость токена подтверждения
func TestAuthService_VerifyEmail(t *testing.T) {
	f := setupAuthService(t)
	ctx := context.Background()
	f.mailer.On("Send", mock.Anything, mock.Anything).Return(nil).Once()

	user, err := f.svc.SignUp(ctx, &models.SignUpInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"})
	require.NoError(t, err)

	token := f.tokens.Token(repository.PurposeVerifyEmail)
	require.NoError(t, f.svc.VerifyEmail(ctx, token))

	stored, err := f.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)

	assert.ErrorIs(t, f.svc.VerifyEmail(ctx, token), service.ErrInvalidToken)
	assert.ErrorIs(t, f.svc.VerifyEmail(ctx, ""), service.ErrInvalidToken)
}

// TestAuthService_Login проверяет вход и выдачу токена
func TestAuthService_Login(t *testing.T) {
	f := setupAuthService(t)
	ctx := context.Background()
	user := f.signUpVerified(t, "ann@example.com", "secret1")

	session, err := f.svc.Login(ctx, &models.LoginInput{Email: "ANN@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, time.Minute)

	owner, err := f.svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, owner)

	stored, err := f.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)
}

// TestAuthService_Login_Errors проверяет отказы при входе
func TestAuthService_Login_Errors(t *testing.T) {
	f := setupAuthService(t)
	ctx := context.Background()
	f.signUpVerified(t, "ann@example.com", "secret1")

	_, err := f.svc.Login(ctx, &models.LoginInput{Email: "ann@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	_, err = f.svc.Login(ctx, &models.LoginInput{Email: "ghost@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	f.mailer.On("Send", mock.Anything, mock.Anything).Return(nil).Once()
	_, err = f.svc.SignUp(ctx, &models.SignUpInput{Name: "Bob", Email: "bob@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, &models.LoginInput{Email: "bob@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, service.ErrEmailNotVerified)
	assert.ErrorIs(t, err, service.ErrForbidden)
}

// TestAuthService_Logout проверяет отзыв токена
func TestAuthService_Logout(t *testing.T) {
	f := setupAuthService(t)
	ctx := context.Background()
	f.signUpVerified(t, "ann@example.com", "secret1")

	session, err := f.svc.Login(ctx, &models.LoginInput{Email: "ann@example.com", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, session.Token))

	_, err = f.svc.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, service.ErrAuthRequired)

	assert.NoError(t, f.svc.Logout(ctx, "garbage"))
}

// TestAuthService_Authenticate_Invalid проверяет отказ для пустых и поддельных токенов
func TestAuthService_Authenticate_Invalid(t *testing.T) {
	f := setupAuthService(t)
	ctx := context.Background()

	_, err := f.svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, service.ErrAuthRequired)

	_, err = f.svc.Authenticate(ctx, "not.a.jwt")
	assert.ErrorIs(t, err, service.ErrAuthRequired)

	foreign := service.NewTokenIssuer("other-secret", time.Hour)
	token, _, err := foreign.Issue(uuid.New())
	require.NoError(t, err)

	_, err = f.svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, service.ErrAuthRequired)
}

// TestAuthService_PasswordReset проверяет полный цикл сброса пароля
func TestAuthService_PasswordReset(t *testing.T) {
	f := setupAuthService(t)
	ctx := context.Background()
	f.signUpVerified(t, "ann@example.com", "secret1")

	// Неизвестный email не раскрывается
	require.NoError(t, f.svc.RequestPasswordReset(ctx, "ghost@example.com"))

	f.mailer.On("Send", mock.Anything, mock.MatchedBy(func(m mailer.Message) bool {
		return m.Kind == mailer.KindReset
	})).Return(nil).Once()
	require.NoError(t, f.svc.RequestPasswordReset(ctx, "ann@example.com"))

	token := f.tokens.Token(repository.PurposeResetPassword)
	require.NotEmpty(t, token)

	require.NoError(t, f.svc.ResetPassword(ctx, token, "newsecret"))
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, token, "another"), service.ErrInvalidToken)

	_, err := f.svc.Login(ctx, &models.LoginInput{Email: "ann@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, &models.LoginInput{Email: "ann@example.com", Password: "newsecret"})
	assert.NoError(t, err)
}

// TestAuthService_PasswordTooLong проверяет предел bcrypt в байтах, а не в символах
func TestAuthService_PasswordTooLong(t *testing.T) {
	f := setupAuthService(t)
	ctx := context.Background()
	long := strings.Repeat("é", 40) // 40 символов, 80 байт

	_, err := f.svc.SignUp(ctx, &models.SignUpInput{Name: "Ann", Email: "ann@example.com", Password: long})
	assert.ErrorIs(t, err, service.ErrPasswordTooLong)
	assert.ErrorIs(t, err, service.ErrValidation)

	// Пользователь не создан
	_, err = f.svc.Login(ctx, &models.LoginInput{Email: "ann@example.com", Password: long})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	// 72 байта ещё допустимы
	f.signUpVerified(t, "bob@example.com", strings.Repeat("é", 36))

	f.mailer.On("Send", mock.Anything, mock.MatchedBy(func(m mailer.Message) bool {
		return m.Kind == mailer.KindReset
	})).Return(nil).Once()
	require.NoError(t, f.svc.RequestPasswordReset(ctx, "bob@example.com"))
	token := f.tokens.Token(repository.PurposeResetPassword)

	// Слишком длинный новый пароль не гасит токен
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, token, long), service.ErrPasswordTooLong)
	assert.NoError(t, f.svc.ResetPassword(ctx, token, "newsecret"))
}

// TestAuthService_GetUser проверяет получение профиля
func TestAuthService_GetUser(t *testing.T) {
	f := setupAuthService(t)
	user := f.signUpVerified(t, "ann@example.com", "secret1")

	got, err := f.svc.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", got.Email)

	_, err = f.svc.GetUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}

// TestTokenIssuer проверяет подпись и срок действия токена
func TestTokenIssuer(t *testing.T) {
	issuer := service.NewTokenIssuer("secret", time.Minute)
	userID := uuid.New()

	token, claims, err := issuer.Issue(userID)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.TokenID)

	parsed, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, userID, parsed.UserID)
	assert.Equal(t, claims.TokenID, parsed.TokenID)

	expired := service.NewTokenIssuer("secret", -time.Minute)
	assert.Equal(t, 24*time.Hour, expired.TTL())
}
