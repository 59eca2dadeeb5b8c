package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SergeiKhy/shrinkurl/internal/config"
	"github.com/SergeiKhy/shrinkurl/internal/generator"
	"github.com/SergeiKhy/shrinkurl/internal/handler"
	"github.com/SergeiKhy/shrinkurl/internal/logger"
	"github.com/SergeiKhy/shrinkurl/internal/mailer"
	"github.com/SergeiKhy/shrinkurl/internal/middleware"
	"github.com/SergeiKhy/shrinkurl/internal/repository"
	"github.com/SergeiKhy/shrinkurl/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Загрузка конфига
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	logger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Подключение к БД (postgres)
	db, err := repository.NewPostgresDB(cfg.DB)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	// Миграции схемы
	if err := repository.RunMigrations(cfg.DB.MigrateURL()); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Подключение к Redis
	redis, err := repository.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redis.Close()
	logger.Info("Connected to Redis")

	// Инициализация репозиториев
	linkRepo := repository.NewLinkRepository(db)
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(redis)

	if !cfg.Mail.Enabled() {
		logger.Warn("SMTP is not configured, emails will be written to the log")
	}

	// Инициализация сервисов
	linkService := service.NewLinkService(
		linkRepo,
		generator.NewRandomGenerator(cfg.Links.CodeLength),
		service.LinkServiceConfig{
			MaxAttempts: cfg.Links.MaxAttempts,
			BaseURL:     cfg.App.BaseURL,
		},
		logger,
	)
	authService := service.NewAuthService(
		userRepo,
		tokenRepo,
		service.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		mailer.New(cfg.Mail, logger),
		service.AuthServiceConfig{
			OneTimeTTL: cfg.Auth.OneTimeTTL,
			BcryptCost: cfg.Auth.BcryptCost,
		},
		logger,
	)

	// Инициализация middleware
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.BurstSize,
		CleanupInterval:   time.Minute,
	})
	defer rateLimiter.Stop()

	// Настройка роутера
	router := handler.NewRouter(
		linkService,
		authService,
		rateLimiter,
		handler.NewHealthHandler(map[string]handler.Pinger{
			"postgres": db,
			"redis":    redis,
		}),
		handler.RouterConfig{
			BaseURL:      cfg.App.BaseURL,
			CookieName:   cfg.Auth.CookieName,
			SecureCookie: cfg.App.IsProduction(),
		},
		logger,
	)

	// Запуск сервера
	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск в горутине
	go func() {
		logger.Info("Server starting", zap.String("port", cfg.App.Port), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
