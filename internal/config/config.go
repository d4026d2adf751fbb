// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"BABEL_DB_PATH" envDefault:"./data/babel.db"`
	ServerHost string `env:"BABEL_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"BABEL_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"BABEL_ENV" envDefault:"development"`
	LogLevel   string `env:"BABEL_LOG_LEVEL" envDefault:"info"`

	// Translation provider configuration
	Provider        string `env:"BABEL_PROVIDER" envDefault:"openai"` // openai, ollama
	ProviderAPIKey  string `env:"BABEL_PROVIDER_API_KEY"`             // required for openai
	ProviderBaseURL string `env:"BABEL_PROVIDER_BASE_URL"`            // required for ollama
	ProviderModel   string `env:"BABEL_PROVIDER_MODEL" envDefault:"gpt-4o-mini"`

	// TranslateDelayMs is a courtesy pause between consecutive provider
	// calls within one job. Zero disables the pause.
	TranslateDelayMs int `env:"BABEL_TRANSLATE_DELAY_MS" envDefault:"250"`

	// RetrySweepMinutes controls how often failed translations are
	// re-queued by the scheduler. Zero disables the sweep.
	RetrySweepMinutes int `env:"BABEL_RETRY_SWEEP_MINUTES" envDefault:"0"`

	// Cache configuration
	RedisURL    string `env:"BABEL_REDIS_URL"`                        // Optional Redis URL for distributed caching
	CachePrefix string `env:"BABEL_CACHE_PREFIX" envDefault:"babel:"` // Redis key prefix
	CacheTTL    int    `env:"BABEL_CACHE_TTL" envDefault:"300"`       // Status cache TTL in seconds
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// TranslateDelay returns the inter-call pause as a duration.
func (c Config) TranslateDelay() time.Duration {
	return time.Duration(c.TranslateDelayMs) * time.Millisecond
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	switch cfg.Provider {
	case "openai":
		if cfg.ProviderAPIKey == "" {
			return nil, fmt.Errorf("BABEL_PROVIDER_API_KEY is required when BABEL_PROVIDER=openai")
		}
	case "ollama":
		if cfg.ProviderBaseURL == "" {
			return nil, fmt.Errorf("BABEL_PROVIDER_BASE_URL is required when BABEL_PROVIDER=ollama")
		}
	default:
		return nil, fmt.Errorf("unsupported BABEL_PROVIDER %q (expected openai or ollama)", cfg.Provider)
	}

	if cfg.TranslateDelayMs < 0 {
		return nil, fmt.Errorf("BABEL_TRANSLATE_DELAY_MS must not be negative, got %d", cfg.TranslateDelayMs)
	}

	return cfg, nil
}
