package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SergeiKhy/shrinkurl/internal/middleware"
	"github.com/SergeiKhy/shrinkurl/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestRateLimiter_Middleware проверяет работу rate limiter middleware
func TestRateLimiter_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Создаём rate limiter с лимитом 5 запросов в секунду и burst 5
	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: 5,
		BurstSize:         5,
		CleanupInterval:   time.Minute,
	})
	defer rl.Stop()

	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Первые 5 запросов должны пройти (в пределах burst лимита)
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/test", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	// Следующие запросы должны быть ограничены
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"Too many requests, please try again later"}`, w.Body.String())
}

// TestRateLimiter_MiddlewareWithKey проверяет rate limiting с кастомным ключом
func TestRateLimiter_MiddlewareWithKey(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Создаём rate limiter с лимитом 2 запроса в секунду
	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: 2,
		BurstSize:         2,
		CleanupInterval:   time.Minute,
	})
	defer rl.Stop()

	// Функция получения ключа из заголовка
	keyGetter := func(c *gin.Context) string {
		return c.GetHeader("X-User-ID")
	}

	router := gin.New()
	router.Use(rl.MiddlewareWithKey(keyGetter))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Пользователь 1 - первые 2 запроса успешны
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/test", nil)
		req.Header.Set("X-User-ID", "user1")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	// Пользователь 1 - третий запрос должен быть ограничен
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("X-User-ID", "user1")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Пользователь 2 - запрос успешен (другой ключ)
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/test", nil)
	req.Header.Set("X-User-ID", "user2")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 2, rl.Visitors())
}

// TestRateLimiter_Stop проверяет повторную остановку
func TestRateLimiter_Stop(t *testing.T) {
	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{})
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}

// fakeAuthenticator принимает только один токен
type fakeAuthenticator struct {
	token string
	owner uuid.UUID
	err   error
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, token string) (uuid.UUID, error) {
	if f.err != nil {
		return uuid.Nil, f.err
	}
	if token != f.token {
		return uuid.Nil, service.ErrAuthRequired
	}
	return f.owner, nil
}

func authRouter(authn middleware.Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)

	auth := middleware.NewAuth(authn, middleware.AuthConfig{CookieName: "auth"})
	router := gin.New()
	router.Use(auth.Middleware())
	router.GET("/test", func(c *gin.Context) {
		owner, ok := middleware.OwnerFromContext(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, gin.H{"owner": owner.String(), "key": middleware.OwnerKey(c)})
	})
	return router
}

// TestAuth_Middleware проверяет источники токена и отказы
func TestAuth_Middleware(t *testing.T) {
	owner := uuid.New()
	router := authRouter(&fakeAuthenticator{token: "good", owner: owner})

	// Без токена
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Please log in to continue"}`, w.Body.String())

	// Невалидный токен
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/test", nil)
	req.AddCookie(&http.Cookie{Name: "auth", Value: "bad"})
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Токен из cookie
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/test", nil)
	req.AddCookie(&http.Cookie{Name: "auth", Value: "good"})
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), owner.String())
	assert.Contains(t, w.Body.String(), "owner:"+owner.String())

	// Токен из заголовка Authorization
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer good")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestAuth_Middleware_StoreFailure проверяет, что сбой хранилища не выдаётся за отказ в доступе
func TestAuth_Middleware_StoreFailure(t *testing.T) {
	router := authRouter(&fakeAuthenticator{err: errors.New("redis down")})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer any")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// TestRequestLogger проверяет request id и уровень лога по статусу
func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)

	router := gin.New()
	router.Use(middleware.RequestLogger(zap.New(core)))
	router.GET("/ok", func(c *gin.Context) {
		c.String(http.StatusOK, middleware.RequestID(c))
	})
	router.GET("/fail", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ok", nil)
	router.ServeHTTP(w, req)
	id := w.Header().Get(middleware.RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, w.Body.String())

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/fail", nil)
	req.Header.Set(middleware.RequestIDHeader, "given-id")
	router.ServeHTTP(w, req)
	assert.Equal(t, "given-id", w.Header().Get(middleware.RequestIDHeader))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "given-id", entries[1].ContextMap()["request_id"])
	assert.Equal(t, int64(500), entries[1].ContextMap()["status"])
}
