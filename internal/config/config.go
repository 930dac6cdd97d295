package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ProviderConfig holds the credentials and feature toggle for one
// payment backend. A provider with an empty APIKey is treated as
// unconfigured and behaves as a silent no-op.
type ProviderConfig struct {
	Enabled       bool
	APIKey        string
	WebhookSecret string
	StoreID       string
}

type RateLimitConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AdminRequests int
	AdminWindow   time.Duration
}

type Config struct {
	HTTPAddr    string
	DatabaseDSN string

	RateLimit RateLimitConfig

	LemonSqueezy ProviderConfig
	Polar        ProviderConfig
	Creem        ProviderConfig

	// ProviderTimeout bounds every outbound provider API call.
	ProviderTimeout time.Duration
}

func Load() (Config, error) {
	// Best effort: .env is only present in local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PAYSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("database_dsn", "postgres://localhost:5432/paysync?sslmode=disable")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("admin_rate_limit_requests", 5)
	v.SetDefault("admin_rate_limit_window_seconds", 1800)
	v.SetDefault("provider_timeout_seconds", 15)

	cfg := Config{
		HTTPAddr:    v.GetString("http_addr"),
		DatabaseDSN: v.GetString("database_dsn"),
		RateLimit: RateLimitConfig{
			RedisAddr:     v.GetString("redis_addr"),
			RedisPassword: v.GetString("redis_password"),
			RedisDB:       v.GetInt("redis_db"),
			AdminRequests: v.GetInt("admin_rate_limit_requests"),
			AdminWindow:   time.Duration(v.GetInt("admin_rate_limit_window_seconds")) * time.Second,
		},
		LemonSqueezy: ProviderConfig{
			Enabled:       v.GetBool("lemonsqueezy_enabled"),
			APIKey:        strings.TrimSpace(v.GetString("lemonsqueezy_api_key")),
			WebhookSecret: strings.TrimSpace(v.GetString("lemonsqueezy_webhook_secret")),
			StoreID:       strings.TrimSpace(v.GetString("lemonsqueezy_store_id")),
		},
		Polar: ProviderConfig{
			Enabled:       v.GetBool("polar_enabled"),
			APIKey:        strings.TrimSpace(v.GetString("polar_api_key")),
			WebhookSecret: strings.TrimSpace(v.GetString("polar_webhook_secret")),
		},
		Creem: ProviderConfig{
			Enabled:       v.GetBool("creem_enabled"),
			APIKey:        strings.TrimSpace(v.GetString("creem_api_key")),
			WebhookSecret: strings.TrimSpace(v.GetString("creem_webhook_secret")),
		},
		ProviderTimeout: time.Duration(v.GetInt("provider_timeout_seconds")) * time.Second,
	}

	return cfg, nil
}
