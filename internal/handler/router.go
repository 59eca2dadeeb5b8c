package handler

import (
	"github.com/SergeiKhy/shrinkurl/internal/middleware"
	"github.com/SergeiKhy/shrinkurl/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RouterConfig struct {
	BaseURL      string // Префикс для short_url в ответах
	CookieName   string
	SecureCookie bool
}

func NewRouter(
	linkService service.LinkService,
	authService service.AuthService,
	rateLimiter *middleware.RateLimiter,
	health *HealthHandler,
	cfg RouterConfig,
	logger *zap.Logger,
) *gin.Engine {
	useJSONFieldNames()

	router := gin.New()
	router.Use(gin.Recovery())

	// Middleware для логгирования
	router.Use(middleware.RequestLogger(logger))

	auth := middleware.NewAuth(authService, middleware.AuthConfig{CookieName: cfg.CookieName})
	requireAuth := auth.Middleware()

	// Инициализация обработчиков
	linkHandler := NewLinkHandler(linkService, cfg.BaseURL, logger)
	authHandler := NewAuthHandler(authService, CookieConfig{
		Name:   cfg.CookieName,
		Secure: cfg.SecureCookie,
	}, auth.Token, logger)

	// API v.1, лимит по IP. Редирект не ограничивается, иначе теряются переходы
	v1 := router.Group("/api/v1", rateLimiter.Middleware())
	{
		v1.GET("/health", health.Health)

		users := v1.Group("/users")
		users.POST("/signup", authHandler.SignUp)
		users.POST("/login", authHandler.Login)
		users.POST("/verify-email", authHandler.VerifyEmail)
		users.POST("/request-password-reset", authHandler.RequestPasswordReset)
		users.POST("/change-password", authHandler.ChangePassword)
		users.POST("/logout", requireAuth, authHandler.Logout)
		users.GET("", requireAuth, authHandler.Me)

		// Ссылки доступны только владельцу, лимит считается по пользователю
		links := v1.Group("/links", requireAuth, rateLimiter.MiddlewareWithKey(middleware.OwnerKey))
		links.POST("", linkHandler.CreateLink)
		links.GET("", linkHandler.ListLinks)
		links.PUT("/:code", linkHandler.EditLink)
		links.DELETE("/:code", linkHandler.DeleteLink)
		links.GET("/:code/qr", linkHandler.QRCode)
	}

	// Редирект (корневой путь) без аутентификации
	router.GET("/:code", linkHandler.Redirect)

	return router
}
