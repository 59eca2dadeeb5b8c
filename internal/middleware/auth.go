package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/SergeiKhy/shrinkurl/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const ownerKey = "owner_id"

// Authenticator проверяет токен сессии и возвращает id пользователя
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)
}

// AuthConfig конфигурация аутентификации
type AuthConfig struct {
	// CookieName имя cookie с токеном (по умолчанию: auth)
	CookieName string
}

// Auth middleware для аутентификации по JWT из cookie или заголовка Authorization
type Auth struct {
	authenticator Authenticator
	config        AuthConfig
}

// NewAuth создаёт новый auth middleware
func NewAuth(authenticator Authenticator, config AuthConfig) *Auth {
	if config.CookieName == "" {
		config.CookieName = "auth"
	}
	return &Auth{authenticator: authenticator, config: config}
}

// Middleware пропускает только запросы с действительной сессией
func (a *Auth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := a.Token(c)
		if token == "" {
			abortUnauthorized(c, "Please log in to continue")
			return
		}

		owner, err := a.authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				abortUnauthorized(c, err.Error())
				return
			}
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		// Устанавливаем владельца в контекст для последующих handlers
		c.Set(ownerKey, owner)
		c.Next()
	}
}

// Token достаёт токен: сначала cookie, затем Authorization: Bearer
func (a *Auth) Token(c *gin.Context) string {
	if cookie, err := c.Cookie(a.config.CookieName); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}

	return ""
}

// OwnerFromContext извлекает id пользователя, установленный Auth
func OwnerFromContext(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(ownerKey)
	if !exists {
		return uuid.Nil, false
	}
	owner, ok := value.(uuid.UUID)
	return owner, ok && owner != uuid.Nil
}

// OwnerKey ключ для rate limiter: id пользователя, если он аутентифицирован
func OwnerKey(c *gin.Context) string {
	if owner, ok := OwnerFromContext(c); ok {
		return "owner:" + owner.String()
	}
	return ""
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}
