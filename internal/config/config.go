package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Mail      MailConfig
	Links     LinksConfig
}

type AppConfig struct {
	Port    string
	Env     string
	BaseURL string // Публичный адрес, с которого раздаются короткие ссылки
}

func (c AppConfig) IsProduction() bool {
	return c.Env == "production"
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN строка подключения для pgxpool
func (c DBConfig) DSN() string {
	return c.url("postgres")
}

// MigrateURL строка подключения для golang-migrate (драйвер pgx/v5)
func (c DBConfig) MigrateURL() string {
	return c.url("pgx5")
}

// url экранирует пользователя, пароль и имя базы
func (c DBConfig) url(scheme string) string {
	u := url.URL{
		Scheme:   scheme,
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.sslMode()),
	}
	return u.String()
}

func (c DBConfig) sslMode() string {
	if c.SSLMode == "" {
		return "disable"
	}
	return c.SSLMode
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration // Время жизни JWT и cookie
	CookieName string
	OneTimeTTL time.Duration // Время жизни токенов подтверждения email и сброса пароля
	BcryptCost int
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

type LogConfig struct {
	Level      string
	Format     string // json | console
	File       string // Пустая строка - только stdout
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Domain   string // Адрес фронтенда для ссылок в письмах
}

// Enabled сообщает, настроен ли SMTP
func (c MailConfig) Enabled() bool {
	return c.Host != ""
}

type LinksConfig struct {
	CodeLength  int
	MaxAttempts int
}

const devJWTSecret = "dev-secret-change-me"

var (
	ErrMissingJWTSecret  = errors.New("AUTH_JWT_SECRET must be set in production")
	ErrInvalidCodeConfig = errors.New("LINK_CODE_LENGTH and LINK_MAX_ATTEMPTS must be positive")
)

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	// .env необязателен: в контейнере конфиг приходит из окружения
	if _, err := os.Stat(".env"); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read .env: %w", err)
		}
	}

	var cfg Config
	cfg.App.Port = v.GetString("APP_PORT")
	cfg.App.Env = v.GetString("APP_ENV")
	cfg.App.BaseURL = strings.TrimRight(v.GetString("APP_BASE_URL"), "/")

	cfg.DB.Host = v.GetString("DB_HOST")
	cfg.DB.Port = v.GetString("DB_PORT")
	cfg.DB.User = v.GetString("DB_USER")
	cfg.DB.Password = v.GetString("DB_PASSWORD")
	cfg.DB.Name = v.GetString("DB_NAME")
	cfg.DB.SSLMode = v.GetString("DB_SSLMODE")

	cfg.Redis.Host = v.GetString("REDIS_HOST")
	cfg.Redis.Port = v.GetString("REDIS_PORT")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")

	cfg.Auth.JWTSecret = v.GetString("AUTH_JWT_SECRET")
	if cfg.Auth.JWTSecret == "" && !cfg.App.IsProduction() {
		cfg.Auth.JWTSecret = devJWTSecret
	}
	cfg.Auth.TokenTTL = v.GetDuration("AUTH_TOKEN_TTL")
	cfg.Auth.CookieName = v.GetString("AUTH_COOKIE_NAME")
	cfg.Auth.OneTimeTTL = v.GetDuration("AUTH_ONE_TIME_TTL")
	cfg.Auth.BcryptCost = v.GetInt("AUTH_BCRYPT_COST")

	// Rate limit config
	cfg.RateLimit.RequestsPerSecond = v.GetFloat64("RATE_LIMIT_RPS")
	if cfg.RateLimit.RequestsPerSecond <= 0 {
		cfg.RateLimit.RequestsPerSecond = 10
	}
	cfg.RateLimit.BurstSize = v.GetInt("RATE_LIMIT_BURST")
	if cfg.RateLimit.BurstSize <= 0 {
		cfg.RateLimit.BurstSize = 20
	}

	cfg.Log.Level = v.GetString("LOG_LEVEL")
	cfg.Log.Format = v.GetString("LOG_FORMAT")
	cfg.Log.File = v.GetString("LOG_FILE")
	cfg.Log.MaxSizeMB = v.GetInt("LOG_MAX_SIZE_MB")
	cfg.Log.MaxBackups = v.GetInt("LOG_MAX_BACKUPS")
	cfg.Log.MaxAgeDays = v.GetInt("LOG_MAX_AGE_DAYS")
	cfg.Log.Compress = v.GetBool("LOG_COMPRESS")

	cfg.Mail.Host = v.GetString("MAILER_HOST")
	cfg.Mail.Port = v.GetInt("MAILER_PORT")
	cfg.Mail.Username = v.GetString("MAILER_EMAIL")
	cfg.Mail.Password = v.GetString("MAILER_PASSWORD")
	cfg.Mail.From = v.GetString("MAILER_FROM")
	if cfg.Mail.From == "" {
		cfg.Mail.From = cfg.Mail.Username
	}
	cfg.Mail.Domain = strings.TrimRight(v.GetString("DOMAIN"), "/")

	cfg.Links.CodeLength = v.GetInt("LINK_CODE_LENGTH")
	cfg.Links.MaxAttempts = v.GetInt("LINK_MAX_ATTEMPTS")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate проверяет согласованность конфига
func (c *Config) Validate() error {
	if c.App.IsProduction() && c.Auth.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if c.Links.CodeLength <= 0 || c.Links.MaxAttempts <= 0 {
		return ErrInvalidCodeConfig
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_BASE_URL", "http://localhost:8080")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "shrinkurl")
	v.SetDefault("DB_PASSWORD", "shrinkurl")
	v.SetDefault("DB_NAME", "shrinkurl")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("AUTH_TOKEN_TTL", 24*time.Hour)
	v.SetDefault("AUTH_COOKIE_NAME", "auth")
	v.SetDefault("AUTH_ONE_TIME_TTL", 24*time.Hour)
	v.SetDefault("AUTH_BCRYPT_COST", 10)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_MAX_SIZE_MB", 100)
	v.SetDefault("LOG_MAX_BACKUPS", 3)
	v.SetDefault("LOG_MAX_AGE_DAYS", 28)

	v.SetDefault("MAILER_PORT", 465)
	v.SetDefault("DOMAIN", "http://localhost:3000")

	v.SetDefault("LINK_CODE_LENGTH", 5)
	v.SetDefault("LINK_MAX_ATTEMPTS", 10)
}
