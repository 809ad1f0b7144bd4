// Package config reads service settings from the environment and an optional
// .env file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"vestquest-engine/internal/tax"
	"vestquest-engine/internal/taxtable"
)

const (
	defaultPort     = "8080"
	defaultCacheTTL = 5 * time.Minute
)

type Config struct {
	Port            string
	JWTSecret       string
	RedisAddr       string
	DatabaseURL     string
	RateRegistryURL string
	TaxTablePath    string
	CacheTTL        time.Duration
	LogLevel        slog.Level
	Table           *taxtable.Table
}

// Load reads .env from the working directory when present, then the process
// environment. Variables already set in the environment win.
func Load() (*Config, error) {
	godotenv.Load()
	return FromEnv(os.Getenv)
}

func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:            getenv("PORT"),
		JWTSecret:       getenv("JWT_SECRET"),
		RedisAddr:       getenv("REDIS_ADDR"),
		DatabaseURL:     getenv("DATABASE_URL"),
		RateRegistryURL: getenv("TAX_RATE_REGISTRY_URL"),
		TaxTablePath:    getenv("TAX_TABLE_PATH"),
		CacheTTL:        defaultCacheTTL,
		LogLevel:        slog.LevelInfo,
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}

	if v := getenv("CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("CACHE_TTL: %w", err)
		}
		if ttl < 0 {
			return nil, fmt.Errorf("CACHE_TTL: must not be negative, got %s", v)
		}
		cfg.CacheTTL = ttl
	}

	if v := getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("LOG_LEVEL: %w", err)
		}
	}

	cfg.Table = taxtable.Default()
	if cfg.TaxTablePath != "" {
		t, err := taxtable.Load(cfg.TaxTablePath)
		if err != nil {
			return nil, fmt.Errorf("TAX_TABLE_PATH: %w", err)
		}
		cfg.Table = t
	}
	return cfg, nil
}

// Calculator builds the tax calculator for the configured table, with the
// table's flat AMT rate available to comprehensive mode.
func (c *Config) Calculator() *tax.Calculator {
	return tax.New(c.Table, tax.FlatRateAMT{
		Rate:      c.Table.AMTRate,
		Exemption: c.Table.AMTExemption,
	})
}
