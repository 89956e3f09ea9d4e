// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ProviderConfig struct {
	WayForPay struct {
		MerchantAccount string `yaml:"merchant_account"`
		MerchantDomain  string `yaml:"merchant_domain"`
		Secret          string `yaml:"secret"`
		ActionURL       string `yaml:"action_url"`
		ReturnURL       string `yaml:"return_url"`  // frontend page the buyer lands on
		ServiceURL      string `yaml:"service_url"` // our webhook endpoint
		Timezone        string `yaml:"timezone"`    // merchant-local tz used for paid_at
	} `yaml:"wayforpay"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TTL       time.Duration `yaml:"ttl"`
}

type WorkersConfig struct {
	ExpiryCheckInterval  time.Duration `yaml:"expiry_check_interval"`
	ExpiryWarnWithin     time.Duration `yaml:"expiry_warn_within"`
	PaymentSweepInterval time.Duration `yaml:"payment_sweep_interval"`
	PaymentStaleAfter    time.Duration `yaml:"payment_stale_after"`
}

type RateLimitConfig struct {
	CheckoutPerMinute int `yaml:"checkout_per_minute"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Provider  ProviderConfig  `yaml:"provider"`
	Auth      AuthConfig      `yaml:"auth"`
	Workers   WorkersConfig   `yaml:"workers"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Provider.WayForPay.Timezone == "" {
		cfg.Provider.WayForPay.Timezone = "Europe/Kyiv"
	}
	if cfg.Auth.TTL <= 0 {
		cfg.Auth.TTL = 24 * time.Hour
	}
	if cfg.Workers.ExpiryCheckInterval <= 0 {
		cfg.Workers.ExpiryCheckInterval = time.Hour
	}
	if cfg.Workers.ExpiryWarnWithin <= 0 {
		cfg.Workers.ExpiryWarnWithin = 72 * time.Hour
	}
	if cfg.Workers.PaymentSweepInterval <= 0 {
		cfg.Workers.PaymentSweepInterval = 15 * time.Minute
	}
	if cfg.Workers.PaymentStaleAfter <= 0 {
		cfg.Workers.PaymentStaleAfter = 24 * time.Hour
	}
	if cfg.RateLimit.CheckoutPerMinute <= 0 {
		cfg.RateLimit.CheckoutPerMinute = 10
	}

	// Minimal validation. Merchant credentials are intentionally NOT required
	// here: checkout fails loudly (and expires its row) when they are missing,
	// which is a recoverable runtime condition rather than a boot failure.
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
