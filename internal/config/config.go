package config

import (
	"fmt"
	"strings"

	"github.com/quirkcart/quirkcart/internal/logger"

	"github.com/spf13/viper"
)

// Config is the full application configuration tree.
type Config struct {
	Server      ServerConfig    `mapstructure:"server"`
	Log         LogConfig       `mapstructure:"log"`
	Database    DatabaseConfig  `mapstructure:"database"`
	JWT         JWTConfig       `mapstructure:"jwt"`
	CustomerJWT JWTConfig       `mapstructure:"customer_jwt"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Queue       QueueConfig     `mapstructure:"queue"`
	CORS        CORSConfig      `mapstructure:"cors"`
	Security    SecurityConfig  `mapstructure:"security"`
	Stripe      StripeConfig    `mapstructure:"stripe"`
	PayPal      PayPalConfig    `mapstructure:"paypal"`
	Notifier    NotifierConfig  `mapstructure:"notifier"`
	Shipping    ShippingConfig  `mapstructure:"shipping"`
	GiftCard    GiftCardConfig  `mapstructure:"gift_card"`
	Site        SiteConfig      `mapstructure:"site"`
	Captcha     CaptchaConfig   `mapstructure:"captcha"`
	MagicLink   MagicLinkConfig `mapstructure:"magic_link"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig holds structured-log sink settings.
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions converts to the logger package options.
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig tunes the underlying sql.DB pool.
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig selects the datastore.
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // sqlite / postgres
	DSN    string             `mapstructure:"dsn"`
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	SecretKey   string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// RedisConfig holds cache / rate-limit store settings.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig holds asynq broker settings.
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// CORSConfig holds allowed cross-origin settings.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig groups secrets and hardening knobs.
type SecurityConfig struct {
	// PIIEncryptionKey is 64 hex chars (32 bytes). Mandatory in release
	// mode; order persistence refuses to start without it.
	PIIEncryptionKey string `mapstructure:"pii_encryption_key"`
	// AdminResetSecret authorizes out-of-band admin password resets.
	AdminResetSecret string               `mapstructure:"admin_reset_secret"`
	LoginRateLimit   LoginRateLimitConfig `mapstructure:"login_rate_limit"`
}

// LoginRateLimitConfig throttles admin login attempts.
type LoginRateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxAttempts   int `mapstructure:"max_attempts"`
	BlockSeconds  int `mapstructure:"block_seconds"`
}

// StripeConfig holds card-processor credentials.
type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	APIBase       string `mapstructure:"api_base"`
	TimeoutMS     int    `mapstructure:"timeout_ms"`
}

// PayPalConfig holds wallet-processor credentials.
type PayPalConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	APIBase      string `mapstructure:"api_base"` // sandbox vs production base URL
	TimeoutMS    int    `mapstructure:"timeout_ms"`
}

// NotifierConfig holds the transactional-mail provider settings.
type NotifierConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	APIKey    string `mapstructure:"api_key"`
	APIBase   string `mapstructure:"api_base"`
	From      string `mapstructure:"from"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

// ShippingConfig defines the flat-rate shipping rule in minor units.
type ShippingConfig struct {
	FreeThresholdMinor int64 `mapstructure:"free_threshold_minor"`
	FlatRateMinor      int64 `mapstructure:"flat_rate_minor"`
}

// GiftCardConfig bounds purchased gift-card amounts, in minor units.
type GiftCardConfig struct {
	MinAmountMinor  int64 `mapstructure:"min_amount_minor"`
	MaxAmountMinor  int64 `mapstructure:"max_amount_minor"`
	ValidityDays    int   `mapstructure:"validity_days"`
	CodeMaxAttempts int   `mapstructure:"code_max_attempts"`
}

// SiteConfig holds outward-facing URLs and identity.
type SiteConfig struct {
	URL          string `mapstructure:"url"`
	Name         string `mapstructure:"name"`
	Currency     string `mapstructure:"currency"`
	SupportEmail string `mapstructure:"support_email"`
}

// CaptchaConfig gates the magic-link request endpoint.
type CaptchaConfig struct {
	Enabled bool               `mapstructure:"enabled"`
	Image   CaptchaImageConfig `mapstructure:"image"`
}

// CaptchaImageConfig tunes the generated image challenge.
type CaptchaImageConfig struct {
	Length        int `mapstructure:"length"`
	Width         int `mapstructure:"width"`
	Height        int `mapstructure:"height"`
	NoiseCount    int `mapstructure:"noise_count"`
	ShowLine      int `mapstructure:"show_line"`
	ExpireSeconds int `mapstructure:"expire_seconds"`
	MaxStore      int `mapstructure:"max_store"`
}

// MagicLinkConfig throttles and scopes customer magic-link login.
type MagicLinkConfig struct {
	TokenTTLSeconds int `mapstructure:"token_ttl_seconds"`
	MaxPerEmailHour int `mapstructure:"max_per_email_hour"`
	MaxPerIPHour    int `mapstructure:"max_per_ip_hour"`
}

// Load reads config.yaml (if present) merged with environment variables.
func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")   // when run from cmd/server
	viper.AddConfigPath("./etc")

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("log.dir", "")
	viper.SetDefault("log.filename", "quirkcart.log")
	viper.SetDefault("log.max_size_mb", 100)
	viper.SetDefault("log.max_backups", 7)
	viper.SetDefault("log.max_age_days", 30)
	viper.SetDefault("log.compress", true)
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.dsn", "./db/quirkcart.db")
	viper.SetDefault("database.pool.max_open_conns", 1)
	viper.SetDefault("database.pool.max_idle_conns", 1)
	viper.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	viper.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("jwt.expire_hours", 24)
	viper.SetDefault("customer_jwt.secret", "customer-change-me-in-production")
	viper.SetDefault("customer_jwt.expire_hours", 720)
	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.host", "127.0.0.1")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.prefix", "qc")
	viper.SetDefault("queue.enabled", true)
	viper.SetDefault("queue.host", "127.0.0.1")
	viper.SetDefault("queue.port", 6379)
	viper.SetDefault("queue.password", "")
	viper.SetDefault("queue.db", 1)
	viper.SetDefault("queue.concurrency", 10)
	viper.SetDefault("queue.queues", map[string]int{
		"default":  10,
		"critical": 5,
	})
	viper.SetDefault("cors.allowed_origins", []string{"*"})
	viper.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	viper.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
	})
	viper.SetDefault("cors.allow_credentials", true)
	viper.SetDefault("cors.max_age", 600)
	viper.SetDefault("security.pii_encryption_key", "")
	viper.SetDefault("security.admin_reset_secret", "")
	viper.SetDefault("security.login_rate_limit.window_seconds", 300)
	viper.SetDefault("security.login_rate_limit.max_attempts", 5)
	viper.SetDefault("security.login_rate_limit.block_seconds", 900)
	viper.SetDefault("stripe.secret_key", "")
	viper.SetDefault("stripe.webhook_secret", "")
	viper.SetDefault("stripe.api_base", "https://api.stripe.com")
	viper.SetDefault("stripe.timeout_ms", 12000)
	viper.SetDefault("paypal.client_id", "")
	viper.SetDefault("paypal.client_secret", "")
	viper.SetDefault("paypal.api_base", "https://api-m.sandbox.paypal.com")
	viper.SetDefault("paypal.timeout_ms", 12000)
	viper.SetDefault("notifier.enabled", false)
	viper.SetDefault("notifier.api_key", "")
	viper.SetDefault("notifier.api_base", "https://api.resend.com")
	viper.SetDefault("notifier.from", "")
	viper.SetDefault("notifier.timeout_ms", 8000)
	viper.SetDefault("shipping.free_threshold_minor", 2000)
	viper.SetDefault("shipping.flat_rate_minor", 299)
	viper.SetDefault("gift_card.min_amount_minor", 500)
	viper.SetDefault("gift_card.max_amount_minor", 50000)
	viper.SetDefault("gift_card.validity_days", 365)
	viper.SetDefault("gift_card.code_max_attempts", 5)
	viper.SetDefault("site.url", "http://localhost:3000")
	viper.SetDefault("site.name", "Quirkcart")
	viper.SetDefault("site.currency", "GBP")
	viper.SetDefault("captcha.enabled", false)
	viper.SetDefault("captcha.image.length", 5)
	viper.SetDefault("captcha.image.width", 240)
	viper.SetDefault("captcha.image.height", 80)
	viper.SetDefault("captcha.image.noise_count", 2)
	viper.SetDefault("captcha.image.show_line", 2)
	viper.SetDefault("captcha.image.expire_seconds", 300)
	viper.SetDefault("captcha.image.max_store", 10240)
	viper.SetDefault("magic_link.token_ttl_seconds", 3600)
	viper.SetDefault("magic_link.max_per_email_hour", 3)
	viper.SetDefault("magic_link.max_per_ip_hour", 10)

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // server.port -> SERVER_PORT

	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("config parse failed: %w", err))
	}

	return &cfg
}
